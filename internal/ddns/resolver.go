package ddns

import (
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
)

// Resolver performs forward DNS lookups. It is an interface so the detector
// can be tested without touching the network.
type Resolver interface {
	Resolve(hostname string) (string, error)
}

const resolveTimeout = 5 * time.Second

// LookupResolver resolves hostnames to IPv4 addresses by querying the
// system's configured nameservers directly.
type LookupResolver struct {
	client  *dns.Client
	servers []string
}

// NewLookupResolver reads the nameserver list from /etc/resolv.conf. When
// that fails (containers without one are common) it falls back to a public
// resolver, which for DDNS endpoints is arguably the more authoritative view
// anyway.
func NewLookupResolver() *LookupResolver {
	servers := []string{"1.1.1.1:53"}
	if conf, err := dns.ClientConfigFromFile("/etc/resolv.conf"); err == nil && len(conf.Servers) > 0 {
		servers = servers[:0]
		for _, s := range conf.Servers {
			servers = append(servers, net.JoinHostPort(s, conf.Port))
		}
	}
	return &LookupResolver{
		client:  &dns.Client{Timeout: resolveTimeout},
		servers: servers,
	}
}

// Resolve returns the first A record for hostname, trying each configured
// nameserver in order.
func (r *LookupResolver) Resolve(hostname string) (string, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(hostname), dns.TypeA)
	m.RecursionDesired = true

	var lastErr error
	for _, server := range r.servers {
		in, _, err := r.client.Exchange(m, server)
		if err != nil {
			lastErr = fmt.Errorf("query %s via %s: %w", hostname, server, err)
			continue
		}
		if in.Rcode != dns.RcodeSuccess {
			lastErr = fmt.Errorf("query %s via %s: %s", hostname, server, dns.RcodeToString[in.Rcode])
			continue
		}
		for _, rr := range in.Answer {
			if a, ok := rr.(*dns.A); ok {
				return a.A.String(), nil
			}
		}
		return "", fmt.Errorf("no A records for %s", hostname)
	}
	return "", lastErr
}
