package wgctl

import "testing"

const sampleShowOutput = `interface: wg0
  public key: SERVERPUBKEY=
  private key: (hidden)
  listening port: 51820

peer: PEERKEY1=
  endpoint: 203.0.113.10:51820
  allowed ips: 10.10.1.0/24
  latest handshake: 1 minute, 2 seconds ago
  transfer: 1.23 GiB received, 4.56 GiB sent

peer: PEERKEY2=
  allowed ips: 10.10.2.0/24
`

func TestParsePeers(t *testing.T) {
	peers := ParsePeers(sampleShowOutput)
	if len(peers) != 2 {
		t.Fatalf("len(peers) = %d, want 2", len(peers))
	}

	if peers[0].PublicKey != "PEERKEY1=" {
		t.Errorf("peers[0].PublicKey = %q, want %q", peers[0].PublicKey, "PEERKEY1=")
	}
	if peers[0].LatestHandshake != "1 minute, 2 seconds ago" {
		t.Errorf("peers[0].LatestHandshake = %q, want %q", peers[0].LatestHandshake, "1 minute, 2 seconds ago")
	}
	if peers[0].Endpoint != "203.0.113.10:51820" {
		t.Errorf("peers[0].Endpoint = %q", peers[0].Endpoint)
	}
	if peers[0].AllowedIPs != "10.10.1.0/24" {
		t.Errorf("peers[0].AllowedIPs = %q", peers[0].AllowedIPs)
	}

	// Second peer never handshook: no handshake line at all.
	if peers[1].PublicKey != "PEERKEY2=" {
		t.Errorf("peers[1].PublicKey = %q, want %q", peers[1].PublicKey, "PEERKEY2=")
	}
	if peers[1].LatestHandshake != "" {
		t.Errorf("peers[1].LatestHandshake = %q, want empty", peers[1].LatestHandshake)
	}
}

func TestParsePeersNoPeers(t *testing.T) {
	raw := "interface: wg0\n  public key: SERVERPUBKEY=\n  listening port: 51820\n"
	if peers := ParsePeers(raw); len(peers) != 0 {
		t.Errorf("len(peers) = %d, want 0", len(peers))
	}
}

func TestParsePeersEmpty(t *testing.T) {
	if peers := ParsePeers(""); len(peers) != 0 {
		t.Errorf("len(peers) = %d, want 0", len(peers))
	}
}
