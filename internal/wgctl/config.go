package wgctl

import (
	"net"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	endpointRe = regexp.MustCompile(`(?m)^\s*Endpoint\s*=\s*([^\s:]+):(\d+)`)
	addressRe  = regexp.MustCompile(`(?m)^\s*Address\s*=\s*([^/\s,]+)`)
)

// ExtractEndpointHostname returns the hostname from a config's Endpoint line.
// Literal IP endpoints return ok=false: a fixed address cannot silently move,
// so there is nothing for the DDNS monitor to watch.
func ExtractEndpointHostname(configText string) (string, bool) {
	m := endpointRe.FindStringSubmatch(configText)
	if m == nil {
		return "", false
	}
	host := strings.TrimSpace(m[1])
	if net.ParseIP(host) != nil {
		return "", false
	}
	return host, true
}

// ExtractInterfaceAddress returns the local tunnel address from a config's
// Address line, without its prefix length.
func ExtractInterfaceAddress(configText string) (string, bool) {
	m := addressRe.FindStringSubmatch(configText)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// InterfaceName derives the interface name wg-quick assigns to a config file:
// the file's base name without the .conf extension.
func InterfaceName(configPath string) string {
	base := filepath.Base(configPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
