package reconnect

import (
	"context"
	"fmt"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// Prober issues a single connectivity probe toward an address. After a
// tunnel cycle the probe exists to push traffic through the fresh interface
// and provoke an immediate handshake; a lost reply is not a failure of the
// reconnect itself.
type Prober interface {
	Probe(ctx context.Context, addr string) error
}

// PingProber probes with ICMP echo requests.
type PingProber struct {
	Timeout    time.Duration
	Privileged bool
}

func NewPingProber() *PingProber {
	return &PingProber{Timeout: 5 * time.Second, Privileged: true}
}

func (p *PingProber) Probe(ctx context.Context, addr string) error {
	pinger, err := probing.NewPinger(addr)
	if err != nil {
		return fmt.Errorf("create pinger for %s: %w", addr, err)
	}
	pinger.Count = 1
	pinger.Timeout = p.Timeout
	pinger.SetPrivileged(p.Privileged)

	if err := pinger.RunWithContext(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", addr, err)
	}
	if pinger.Statistics().PacketsRecv == 0 {
		return fmt.Errorf("ping %s: no reply within %s", addr, p.Timeout)
	}
	return nil
}
