package wgctl

import "strings"

// Peer is one peer block parsed from `wg show <iface>` output.
type Peer struct {
	PublicKey string
	// LatestHandshake holds the raw relative-time text from the
	// "latest handshake:" line, or "" when the line is absent.
	LatestHandshake string
	Endpoint        string
	AllowedIPs      string
}

// ParsePeers extracts the per-peer blocks from raw `wg show` output.
// The format is line-oriented: a "peer: <key>" line starts a block, indented
// "key: value" lines fill it in.
func ParsePeers(raw string) []Peer {
	var peers []Peer
	var current *Peer

	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if key, ok := strings.CutPrefix(trimmed, "peer: "); ok {
			peers = append(peers, Peer{PublicKey: strings.TrimSpace(key)})
			current = &peers[len(peers)-1]
			continue
		}
		if current == nil {
			continue
		}
		field, value, ok := strings.Cut(trimmed, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(field) {
		case "latest handshake":
			current.LatestHandshake = value
		case "endpoint":
			current.Endpoint = value
		case "allowed ips":
			current.AllowedIPs = value
		}
	}

	return peers
}
