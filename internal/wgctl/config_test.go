package wgctl

import "testing"

const sampleConfig = `[Interface]
PrivateKey = (hidden)
Address = 10.10.1.2/32
DNS = 1.1.1.1

[Peer]
PublicKey = PEERKEY1=
AllowedIPs = 10.10.1.0/24
Endpoint = office.example.duckdns.org:51820
PersistentKeepalive = 25
`

func TestExtractEndpointHostname(t *testing.T) {
	host, ok := ExtractEndpointHostname(sampleConfig)
	if !ok {
		t.Fatal("expected hostname to be found")
	}
	if host != "office.example.duckdns.org" {
		t.Errorf("host = %q, want %q", host, "office.example.duckdns.org")
	}
}

func TestExtractEndpointHostnameLiteralIP(t *testing.T) {
	cfg := "[Peer]\nEndpoint = 203.0.113.10:51820\n"
	if _, ok := ExtractEndpointHostname(cfg); ok {
		t.Error("literal IP endpoint should not be monitored")
	}
}

func TestExtractEndpointHostnameMissing(t *testing.T) {
	cfg := "[Interface]\nAddress = 10.0.0.1/32\n"
	if _, ok := ExtractEndpointHostname(cfg); ok {
		t.Error("expected no hostname in config without Endpoint")
	}
}

func TestExtractInterfaceAddress(t *testing.T) {
	addr, ok := ExtractInterfaceAddress(sampleConfig)
	if !ok {
		t.Fatal("expected address to be found")
	}
	if addr != "10.10.1.2" {
		t.Errorf("addr = %q, want %q", addr, "10.10.1.2")
	}
}

func TestInterfaceName(t *testing.T) {
	tests := []struct{ path, want string }{
		{"/etc/wireguard/wg0.conf", "wg0"},
		{"/etc/wireguard/office-a.conf", "office-a"},
		{"relative.conf", "relative"},
	}
	for _, tt := range tests {
		if got := InterfaceName(tt.path); got != tt.want {
			t.Errorf("InterfaceName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
