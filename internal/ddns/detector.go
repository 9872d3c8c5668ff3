// Package ddns tracks the DNS resolution of registered DDNS hostnames and
// detects address changes.
//
// Clients whose tunnel endpoint is a hostname rather than a literal IP are
// registered with the Detector. A polling loop calls CheckChanges, which
// resolves each hostname at most once per checkInterval and compares the
// result against the previously observed address. Divergence produces a
// ChangeEvent on a buffered channel consumed by the reconnection controller;
// with no consumer the event is logged and dropped, which is a documented
// degraded mode rather than an error.
package ddns

import (
	"log"
	"sync"
	"time"

	"wgwarden/internal/logutil"
)

// defaultCheckInterval is the minimum gap between two DNS queries for the
// same hostname, independent of how often the polling loop wakes up.
const defaultCheckInterval = 5 * time.Minute

// eventBufferSize bounds the change-event channel. DNS changes are rare;
// a small buffer absorbs a burst across many clients after an ISP renumber.
const eventBufferSize = 64

// ChangeEvent describes one observed DDNS address change.
type ChangeEvent struct {
	ClientID     string    `json:"client_id"`
	Hostname     string    `json:"hostname"`
	PreviousAddr string    `json:"previous_ip"`
	CurrentAddr  string    `json:"current_ip"`
	Timestamp    time.Time `json:"timestamp"`
}

// HostnameStatus is the externally visible state of one registration.
type HostnameStatus struct {
	ClientID     string     `json:"client_id"`
	ClientName   string     `json:"client_name"`
	ResolvedAddr string     `json:"resolved_ip,omitempty"`
	LastCheck    *time.Time `json:"last_check,omitempty"`
}

// Detector owns the hostname registrations and their cached resolution state.
// All maps are guarded by mu; a single Detector is shared by the polling loop
// and the HTTP handlers.
type Detector struct {
	mu       sync.Mutex
	resolver Resolver

	hostClients map[string]string    // hostname -> client ID
	clientNames map[string]string    // client ID -> display name, for logs only
	resolved    map[string]string    // hostname -> last resolved address
	lastCheck   map[string]time.Time // hostname -> last successful check

	events        chan ChangeEvent
	checkInterval time.Duration
	nowFn         func() time.Time // injectable clock for testing
}

func NewDetector(resolver Resolver) *Detector {
	return &Detector{
		resolver:      resolver,
		hostClients:   make(map[string]string),
		clientNames:   make(map[string]string),
		resolved:      make(map[string]string),
		lastCheck:     make(map[string]time.Time),
		events:        make(chan ChangeEvent, eventBufferSize),
		checkInterval: defaultCheckInterval,
		nowFn:         time.Now,
	}
}

// Events returns the channel on which detected changes are delivered.
func (d *Detector) Events() <-chan ChangeEvent {
	return d.events
}

// Register adds a hostname to the watch list for a client. The display name
// is used only for human-readable logging.
func (d *Detector) Register(clientID, hostname, displayName string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hostClients[hostname] = clientID
	if displayName != "" {
		d.clientNames[clientID] = displayName
	}
	log.Printf("ddns: registered hostname %s for client %s", logutil.Sanitize(hostname), clientID)
}

// Unregister removes every hostname mapped to the client and clears the
// cached resolution state for those hostnames.
func (d *Detector) Unregister(clientID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var removed []string
	for hostname, id := range d.hostClients {
		if id == clientID {
			removed = append(removed, hostname)
		}
	}
	for _, hostname := range removed {
		delete(d.hostClients, hostname)
		delete(d.resolved, hostname)
		delete(d.lastCheck, hostname)
	}
	delete(d.clientNames, clientID)

	if len(removed) > 0 {
		log.Printf("ddns: unregistered %d hostname(s) for client %s", len(removed), clientID)
	}
}

// CheckChanges resolves every registered hostname that is due for a check and
// returns the detected changes. Each change is also pushed onto the event
// channel. A resolution failure skips that hostname for this cycle only.
func (d *Detector) CheckChanges() []ChangeEvent {
	now := d.nowFn()

	d.mu.Lock()
	due := make(map[string]string, len(d.hostClients))
	for hostname, clientID := range d.hostClients {
		if last, ok := d.lastCheck[hostname]; ok && now.Sub(last) < d.checkInterval {
			continue
		}
		due[hostname] = clientID
	}
	d.mu.Unlock()

	var changes []ChangeEvent
	for hostname, clientID := range due {
		// Resolve outside the lock: a slow DNS server must not block
		// status queries or registration changes.
		current, err := d.resolver.Resolve(hostname)
		if err != nil {
			log.Printf("ddns: resolve %s failed: %v", logutil.Sanitize(hostname), err)
			continue
		}

		d.mu.Lock()
		// Registration may have gone away while we were resolving.
		if _, still := d.hostClients[hostname]; !still {
			d.mu.Unlock()
			continue
		}
		previous := d.resolved[hostname]
		d.resolved[hostname] = current
		d.lastCheck[hostname] = now
		d.mu.Unlock()

		if previous != "" && previous != current {
			ev := ChangeEvent{
				ClientID:     clientID,
				Hostname:     hostname,
				PreviousAddr: previous,
				CurrentAddr:  current,
				Timestamp:    now,
			}
			changes = append(changes, ev)
			log.Printf("ddns: address change for %s: %s -> %s", logutil.Sanitize(hostname), previous, current)
			d.publish(ev)
		}
	}

	return changes
}

// publish delivers an event without blocking. When nobody is draining the
// channel and the buffer fills up, the event is dropped with a log line.
func (d *Detector) publish(ev ChangeEvent) {
	select {
	case d.events <- ev:
	default:
		log.Printf("ddns: no consumer for change event on %s, dropping", logutil.Sanitize(ev.Hostname))
	}
}

// Status returns the current state of all registrations keyed by hostname.
func (d *Detector) Status() map[string]HostnameStatus {
	d.mu.Lock()
	defer d.mu.Unlock()

	status := make(map[string]HostnameStatus, len(d.hostClients))
	for hostname, clientID := range d.hostClients {
		s := HostnameStatus{
			ClientID:     clientID,
			ClientName:   d.clientNames[clientID],
			ResolvedAddr: d.resolved[hostname],
		}
		if last, ok := d.lastCheck[hostname]; ok {
			t := last
			s.LastCheck = &t
		}
		status[hostname] = s
	}
	return status
}
