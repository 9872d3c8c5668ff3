// Package wgmon implements the peer status tracker: it polls per-interface
// peer state via wg show, classifies each peer connected or disconnected
// against a handshake-age threshold, and dispatches deduplicated disconnect
// alerts.
//
// Classification fails open: a peer listed by the interface counts as
// connected unless a parseable handshake line proves it has been silent for
// longer than the threshold. Unparsable handshake text therefore never
// produces a disconnect alert; see ParseRelativeTime in wgctl.
package wgmon

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"wgwarden/internal/alert"
	"wgwarden/internal/logutil"
	"wgwarden/internal/wgctl"
)

const (
	// DisconnectThreshold is how long a peer may go without a handshake
	// before it is classified disconnected. WireGuard re-handshakes
	// lazily on idle links, so this is deliberately generous to avoid
	// false positives.
	DisconnectThreshold = 30 * time.Minute

	// AlertCooldown is the minimum gap between two alerts for one peer.
	AlertCooldown = time.Hour
)

// debugParse enables logging of handshake lines that fail to parse. Off by
// default: the fail-open classification already covers benign format
// variance and a noisy log line per peer per tick helps nobody.
var debugParse = false

// Store is the view of the client records the tracker writes through.
type Store interface {
	UpdateClientStatus(id, status string, lastHandshake *time.Time) error
}

// Auditor records alert outcomes.
type Auditor interface {
	Alert(clientName, peerKey, subject, message string, success bool)
}

// PeerStatus is the externally visible liveness state of one peer.
type PeerStatus struct {
	IsConnected    bool       `json:"connected"`
	LastHandshake  *time.Time `json:"last_handshake,omitempty"`
	LastAlert      *time.Time `json:"last_alert,omitempty"`
	SinceHandshake string     `json:"time_since_handshake,omitempty"`
}

// Tracker polls interfaces and owns the per-peer liveness records.
type Tracker struct {
	mu         sync.Mutex
	ctl        wgctl.Controller
	dispatcher alert.Dispatcher
	auditor    Auditor

	lastHandshakes map[string]time.Time
	lastAlerts     map[string]time.Time

	nowFn func() time.Time // injectable clock for testing
}

func NewTracker(ctl wgctl.Controller, dispatcher alert.Dispatcher, auditor Auditor) *Tracker {
	return &Tracker{
		ctl:            ctl,
		dispatcher:     dispatcher,
		auditor:        auditor,
		lastHandshakes: make(map[string]time.Time),
		lastAlerts:     make(map[string]time.Time),
		nowFn:          time.Now,
	}
}

// CheckInterface queries one interface and classifies every listed peer.
// A missing interface (or a status query failure) yields an empty map:
// "no peers observed", which downstream code treats as the tunnel being
// fully down rather than as an explicit disconnection.
func (t *Tracker) CheckInterface(ctx context.Context, iface string) map[string]bool {
	raw, err := t.ctl.Status(ctx, iface)
	if err != nil {
		log.Printf("wgmon: status query for %s failed: %v", logutil.Sanitize(iface), err)
		return map[string]bool{}
	}

	now := t.nowFn()
	result := make(map[string]bool)

	for _, peer := range wgctl.ParsePeers(raw) {
		// Presence in the active interface listing already implies
		// configuration liveness.
		connected := true

		if peer.LatestHandshake != "" {
			elapsed, err := wgctl.ParseRelativeTime(peer.LatestHandshake)
			if err != nil {
				// Fail open: treat as connected.
				if debugParse {
					log.Printf("wgmon: unparsable handshake %q for peer %s", peer.LatestHandshake, peer.PublicKey)
				}
			} else {
				handshakeAt := now.Add(-elapsed)
				t.mu.Lock()
				t.lastHandshakes[peer.PublicKey] = handshakeAt
				t.mu.Unlock()
				connected = elapsed <= DisconnectThreshold
			}
		}

		result[peer.PublicKey] = connected
	}

	return result
}

// CheckAndAlert runs CheckInterface for one client's interface, dispatches a
// deduplicated alert for every disconnected peer, and persists the client's
// status. A failed alert send does not advance the cooldown clock, so the
// next poll retries immediately.
func (t *Tracker) CheckAndAlert(ctx context.Context, iface, clientName, clientID string, store Store) {
	peers := t.CheckInterface(ctx, iface)
	if len(peers) == 0 {
		// Tunnel fully down (or deliberately deactivated): nothing to
		// alert on and no status information to persist.
		return
	}

	now := t.nowFn()
	anyConnected := false

	for peerKey, connected := range peers {
		if connected {
			anyConnected = true
			continue
		}

		t.mu.Lock()
		lastAlert, alerted := t.lastAlerts[peerKey]
		t.mu.Unlock()
		if alerted && now.Sub(lastAlert) <= AlertCooldown {
			continue
		}

		subject := fmt.Sprintf("Client Disconnected: %s", clientName)
		message := fmt.Sprintf("The client %q (peer: %s...) has disconnected from the VPN.", clientName, shortKey(peerKey))

		success := t.dispatcher.SendAlert(subject, message)
		t.auditor.Alert(clientName, peerKey, subject, message, success)
		if success {
			t.mu.Lock()
			t.lastAlerts[peerKey] = now
			t.mu.Unlock()
			log.Printf("wgmon: sent disconnect alert for %s", logutil.Sanitize(clientName))
		} else {
			log.Printf("wgmon: failed to send disconnect alert for %s", logutil.Sanitize(clientName))
		}
	}

	status := "disconnected"
	if anyConnected {
		status = "active"
	}
	var handshake *time.Time
	if hs, ok := t.latestHandshakeFor(peers); ok {
		handshake = &hs
	}
	if err := store.UpdateClientStatus(clientID, status, handshake); err != nil {
		log.Printf("wgmon: persist status for %s failed: %v", clientID, err)
	}
}

// latestHandshakeFor returns the freshest recorded handshake among the peers
// in this check.
func (t *Tracker) latestHandshakeFor(peers map[string]bool) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var latest time.Time
	found := false
	for peerKey := range peers {
		if hs, ok := t.lastHandshakes[peerKey]; ok && hs.After(latest) {
			latest = hs
			found = true
		}
	}
	return latest, found
}

// Status returns the liveness state of every peer ever observed.
func (t *Tracker) Status() map[string]PeerStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.nowFn()
	status := make(map[string]PeerStatus, len(t.lastHandshakes))
	for peerKey, hs := range t.lastHandshakes {
		h := hs
		s := PeerStatus{
			IsConnected:    now.Sub(hs) <= DisconnectThreshold,
			LastHandshake:  &h,
			SinceHandshake: now.Sub(hs).Truncate(time.Second).String(),
		}
		if la, ok := t.lastAlerts[peerKey]; ok {
			l := la
			s.LastAlert = &l
		}
		status[peerKey] = s
	}
	return status
}

func shortKey(key string) string {
	if len(key) <= 8 {
		return key
	}
	return key[:8]
}
