// Package reconnect implements the self-healing reconnection controller. It
// consumes DNS change events (and operator-initiated manual triggers),
// applies a per-client attempt limit with a cooldown window, and executes
// the deactivate/settle/activate/probe sequence against the tunnel control
// layer.
package reconnect

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"wgwarden/internal/audit"
	"wgwarden/internal/database"
	"wgwarden/internal/ddns"
	"wgwarden/internal/logutil"
	"wgwarden/internal/wgctl"
)

const (
	// MaxAttempts bounds automatic reconnection attempts per cooldown
	// cycle. Manual reconnects bypass this gate.
	MaxAttempts = 3

	// Cooldown is the minimum gap between two automatic attempts for one
	// client, and the wait before a fresh cycle begins once MaxAttempts
	// is exhausted.
	Cooldown = 5 * time.Minute
)

// SettleDelay is how long the controller waits between tearing an interface
// down and bringing it back up, giving kernel-level teardown time to
// complete. Shortened by tests.
var SettleDelay = 2 * time.Second

// Store is the view of the client records the controller needs.
type Store interface {
	GetClient(id string) (*database.Client, error)
	UpdateClientStatus(id, status string, lastHandshake *time.Time) error
}

// Auditor records structured reconnection events.
type Auditor interface {
	Event(clientID, clientName, eventType, message, detail string)
}

// attemptState tracks one client's automatic reconnection history. It lives
// only in memory: losing it on restart simply re-arms the attempts.
type attemptState struct {
	count       int
	lastAttempt time.Time
	lastSuccess time.Time
}

// AttemptStatus is the externally visible reconnection state of one client.
type AttemptStatus struct {
	Attempts     int        `json:"attempts"`
	MaxAttempts  int        `json:"max_attempts"`
	LastAttempt  *time.Time `json:"last_attempt,omitempty"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	InCooldown   bool       `json:"in_cooldown"`
	NextEligible *time.Time `json:"next_eligible,omitempty"`
}

// Controller owns the per-client attempt state and executes reconnects.
type Controller struct {
	mu       sync.Mutex
	ctl      wgctl.Controller
	store    Store
	auditor  Auditor
	prober   Prober
	attempts map[string]*attemptState
	inFlight map[string]bool

	nowFn    func() time.Time // injectable clock for testing
	readFile func(string) ([]byte, error)
}

func NewController(ctl wgctl.Controller, store Store, auditor Auditor, prober Prober) *Controller {
	return &Controller{
		ctl:      ctl,
		store:    store,
		auditor:  auditor,
		prober:   prober,
		attempts: make(map[string]*attemptState),
		inFlight: make(map[string]bool),
		nowFn:    time.Now,
		readFile: os.ReadFile,
	}
}

// ShouldAttempt reports whether an automatic reconnection is currently
// allowed for the client. The cooldown gate applies uniformly: any attempt
// inside the cooldown window of the previous one is denied regardless of
// count. Once the count reaches MaxAttempts, the counter resets to zero
// only here, when the next allowed attempt is evaluated.
func (c *Controller) ShouldAttempt(clientID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.attempts[clientID]
	if !ok {
		return true
	}
	if c.nowFn().Sub(st.lastAttempt) < Cooldown {
		return false
	}
	if st.count >= MaxAttempts {
		st.count = 0
	}
	return true
}

// Reconnect cycles one client's tunnel: deactivate, settle, activate, mark
// active, then best-effort probe the interface address to provoke an
// immediate handshake. Returns whether the cycle succeeded. Attempt
// bookkeeping is the caller's concern.
func (c *Controller) Reconnect(ctx context.Context, client *database.Client) bool {
	name := logutil.Sanitize(client.Name)
	c.auditor.Event(client.ID, client.Name, audit.EventReconnectAttempt, "reconnection attempt started", "")

	if err := c.ctl.Deactivate(ctx, client.ConfigPath); err != nil {
		log.Printf("reconnect: deactivate %s failed: %v", name, err)
		c.auditor.Event(client.ID, client.Name, audit.EventReconnectFailed, "deactivate failed", err.Error())
		return false
	}

	time.Sleep(SettleDelay)

	if err := c.ctl.Activate(ctx, client.ConfigPath); err != nil {
		log.Printf("reconnect: activate %s failed: %v", name, err)
		c.auditor.Event(client.ID, client.Name, audit.EventReconnectFailed, "activate failed", err.Error())
		return false
	}

	if err := c.store.UpdateClientStatus(client.ID, database.StatusActive, nil); err != nil {
		log.Printf("reconnect: persist status for %s failed: %v", name, err)
	}

	c.probeInterface(ctx, client)

	log.Printf("reconnect: tunnel for %s cycled successfully", name)
	c.auditor.Event(client.ID, client.Name, audit.EventReconnectSuccess, "tunnel reconnected", "")
	return true
}

// probeInterface pings the tunnel's local address to push traffic through
// the fresh interface. Failures are warnings only.
func (c *Controller) probeInterface(ctx context.Context, client *database.Client) {
	raw, err := c.readFile(client.ConfigPath)
	if err != nil {
		log.Printf("reconnect: read config for probe: %v", err)
		return
	}
	addr, ok := wgctl.ExtractInterfaceAddress(string(raw))
	if !ok {
		return
	}
	if err := c.prober.Probe(ctx, addr); err != nil {
		log.Printf("reconnect: warning: post-reconnect probe of %s failed: %v", addr, err)
		return
	}
	c.auditor.Event(client.ID, client.Name, audit.EventHandshakeEstablished, "post-reconnect probe succeeded", addr)
}

// HandleChange processes one DNS change event. The return value means "an
// attempt was made", not "the attempt succeeded".
func (c *Controller) HandleChange(ctx context.Context, ev ddns.ChangeEvent) bool {
	if !c.ShouldAttempt(ev.ClientID) {
		log.Printf("reconnect: skipping %s, attempt limit or cooldown active", logutil.Sanitize(ev.Hostname))
		c.auditor.Event(ev.ClientID, "", audit.EventReconnectSkipped, "attempt limit or cooldown active", ev.Hostname)
		return false
	}

	client, err := c.store.GetClient(ev.ClientID)
	if err != nil {
		log.Printf("reconnect: client %s not found for DNS change: %v", ev.ClientID, err)
		return false
	}

	log.Printf("reconnect: endpoint %s moved %s -> %s, reconnecting %s",
		logutil.Sanitize(ev.Hostname), ev.PreviousAddr, ev.CurrentAddr, logutil.Sanitize(client.Name))

	ok := c.Reconnect(ctx, client)

	c.mu.Lock()
	st := c.attempts[ev.ClientID]
	if st == nil {
		st = &attemptState{}
		c.attempts[ev.ClientID] = st
	}
	now := c.nowFn()
	st.lastAttempt = now
	if ok {
		st.count = 0
		st.lastSuccess = now
	} else {
		st.count++
	}
	c.mu.Unlock()

	return true
}

// Dispatch runs HandleChange on its own goroutine so a slow or hung
// reconnect cannot stall the polling loop that detected the change. At most
// one reconnect per client runs at a time; events arriving while one is in
// flight are dropped.
func (c *Controller) Dispatch(ev ddns.ChangeEvent) {
	c.mu.Lock()
	if c.inFlight[ev.ClientID] {
		c.mu.Unlock()
		log.Printf("reconnect: reconnect already in flight for client %s, dropping event", ev.ClientID)
		return
	}
	c.inFlight[ev.ClientID] = true
	c.mu.Unlock()

	go func() {
		defer func() {
			c.mu.Lock()
			delete(c.inFlight, ev.ClientID)
			c.mu.Unlock()
		}()
		c.HandleChange(context.Background(), ev)
	}()
}

// ManualReconnect cycles a client's tunnel on operator request. It bypasses
// the attempt-limiting gate but still runs the same cycle primitive. A
// success resets the automatic attempt counter; a failure leaves it alone.
func (c *Controller) ManualReconnect(ctx context.Context, clientID string) bool {
	client, err := c.store.GetClient(clientID)
	if err != nil {
		log.Printf("reconnect: manual reconnect, client %s not found: %v", clientID, err)
		return false
	}

	ok := c.Reconnect(ctx, client)
	if ok {
		now := c.nowFn()
		c.mu.Lock()
		c.attempts[clientID] = &attemptState{count: 0, lastAttempt: now, lastSuccess: now}
		c.mu.Unlock()
	}
	return ok
}

// Status returns the attempt state for every client with recorded history.
func (c *Controller) Status() map[string]AttemptStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowFn()
	out := make(map[string]AttemptStatus, len(c.attempts))
	for id, st := range c.attempts {
		s := AttemptStatus{Attempts: st.count, MaxAttempts: MaxAttempts}
		if !st.lastAttempt.IsZero() {
			la := st.lastAttempt
			s.LastAttempt = &la
			if now.Sub(st.lastAttempt) < Cooldown {
				s.InCooldown = true
				ne := st.lastAttempt.Add(Cooldown)
				s.NextEligible = &ne
			}
		}
		if !st.lastSuccess.IsZero() {
			ls := st.lastSuccess
			s.LastSuccess = &ls
		}
		out[id] = s
	}
	return out
}

// ClearHistory drops the attempt state for one client, or for every client
// when id is empty. Returns how many records were removed.
func (c *Controller) ClearHistory(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id == "" {
		n := len(c.attempts)
		c.attempts = make(map[string]*attemptState)
		return n
	}
	if _, ok := c.attempts[id]; ok {
		delete(c.attempts, id)
		return 1
	}
	return 0
}
