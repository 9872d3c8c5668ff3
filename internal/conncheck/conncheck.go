// Package conncheck verifies end-to-end tunnel connectivity by pinging a
// client's tunnel-side address and recording the outcome, building up a
// latency history per client.
package conncheck

import (
	"context"
	"fmt"
	"log"
	"net"
	"time"

	probing "github.com/prometheus-community/pro-bing"

	"wgwarden/internal/database"
)

const (
	// pingTimeout bounds one echo round trip.
	pingTimeout = 2 * time.Second

	// pingRetries is how many echo attempts are made before the check is
	// declared failed. WireGuard may need one packet to trigger a
	// handshake before the second gets a reply.
	pingRetries = 3
)

// Checker runs connectivity tests against client tunnel addresses.
type Checker struct {
	privileged bool

	pingFn func(ctx context.Context, target string) (time.Duration, error)
	record func(*database.TestResult) error
}

func NewChecker(privileged bool) *Checker {
	c := &Checker{privileged: privileged, record: database.AddTestResult}
	c.pingFn = c.ping
	return c
}

// TargetFor picks the address to probe for a client: the client's own
// address for a /32 subnet, otherwise the first usable host of the subnet
// (the gateway side of the tunnel).
func TargetFor(client *database.Client) (string, error) {
	if client.Subnet == "" {
		return "", fmt.Errorf("client %s has no subnet configured", client.Name)
	}
	ip, ipnet, err := net.ParseCIDR(client.Subnet)
	if err != nil {
		return "", fmt.Errorf("parse subnet %q: %w", client.Subnet, err)
	}
	if ones, bits := ipnet.Mask.Size(); ones == bits {
		return ip.String(), nil
	}
	host := ipnet.IP.To4()
	if host == nil {
		return "", fmt.Errorf("subnet %q is not IPv4", client.Subnet)
	}
	first := make(net.IP, len(host))
	copy(first, host)
	first[len(first)-1]++
	return first.String(), nil
}

// Test pings the client's tunnel address, retrying up to pingRetries times,
// and records the result. The returned record reflects what was stored.
func (c *Checker) Test(ctx context.Context, client *database.Client) *database.TestResult {
	result := &database.TestResult{ClientID: client.ID, Timestamp: time.Now()}

	target, err := TargetFor(client)
	if err != nil {
		result.Error = err.Error()
		c.store(result)
		return result
	}
	result.Target = target

	var lastErr error
	for i := 0; i < pingRetries; i++ {
		latency, err := c.pingFn(ctx, target)
		if err == nil {
			ms := latency.Milliseconds()
			result.Success = true
			result.LatencyMs = &ms
			break
		}
		lastErr = err
	}
	if !result.Success && lastErr != nil {
		result.Error = lastErr.Error()
	}

	c.store(result)
	return result
}

func (c *Checker) store(result *database.TestResult) {
	if err := c.record(result); err != nil {
		log.Printf("conncheck: record test result for %s failed: %v", result.ClientID, err)
	}
}

func (c *Checker) ping(ctx context.Context, target string) (time.Duration, error) {
	pinger, err := probing.NewPinger(target)
	if err != nil {
		return 0, fmt.Errorf("create pinger for %s: %w", target, err)
	}
	pinger.Count = 1
	pinger.Timeout = pingTimeout
	pinger.SetPrivileged(c.privileged)

	if err := pinger.RunWithContext(ctx); err != nil {
		return 0, fmt.Errorf("ping %s: %w", target, err)
	}
	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return 0, fmt.Errorf("ping %s: no reply within %s", target, pingTimeout)
	}
	return stats.AvgRtt, nil
}
