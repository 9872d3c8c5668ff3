// Package handlers exposes the monitoring state over HTTP: hostname and
// reconnection status, peer liveness, alert and event history, manual
// reconnects, and connectivity tests.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"wgwarden/internal/audit"
	"wgwarden/internal/conncheck"
	"wgwarden/internal/database"
	"wgwarden/internal/ddns"
	"wgwarden/internal/reconnect"
	"wgwarden/internal/wgmon"
)

// Shared service references, assigned once at startup.
var (
	Tracker     *wgmon.Tracker
	Detector    *ddns.Detector
	Reconnector *reconnect.Controller
	Checker     *conncheck.Checker
	Recorder    *audit.Recorder
)

// GetHostnameStatus returns every registered DDNS hostname with its cached
// resolution state.
func GetHostnameStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"hostnames": Detector.Status()})
}

// GetReconnectionStatus returns the attempt/backoff state for every client
// with reconnection history.
func GetReconnectionStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"clients":      Reconnector.Status(),
		"max_attempts": reconnect.MaxAttempts,
	})
}

// GetPeerStatus returns the liveness state of every observed peer.
func GetPeerStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"peers": Tracker.Status()})
}

// TriggerReconnect cycles a client's tunnel on operator request. It skips
// the automatic attempt-limiting gate.
func TriggerReconnect(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	client, err := database.GetClient(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Client not found")
		return
	}

	ok := Reconnector.ManualReconnect(r.Context(), client.ID)
	status := http.StatusOK
	if !ok {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, map[string]interface{}{"success": ok, "client": client.Name})
}

// ClearReconnectHistory drops reconnection attempt state for one client
// (?client_id=) or for all clients.
func ClearReconnectHistory(w http.ResponseWriter, r *http.Request) {
	cleared := Reconnector.ClearHistory(r.URL.Query().Get("client_id"))
	writeJSON(w, http.StatusOK, map[string]int{"cleared": cleared})
}

// GetAlertHistory returns recent disconnect alerts, newest first.
func GetAlertHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	alerts, err := Recorder.RecentAlerts(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"alerts": alerts})
}

// GetMonitoringEvents returns the audited monitoring events, filterable by
// client and event type.
func GetMonitoringEvents(w http.ResponseWriter, r *http.Request) {
	opts := audit.QueryOptions{
		ClientID:  r.URL.Query().Get("client_id"),
		EventType: r.URL.Query().Get("event_type"),
		Limit:     queryInt(r, "limit", 100),
		Offset:    queryInt(r, "offset", 0),
	}
	events, total, err := Recorder.QueryEvents(opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": events, "total": total})
}

// TestConnectivity pings a client's tunnel address and records the result.
func TestConnectivity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	client, err := database.GetClient(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Client not found")
		return
	}
	writeJSON(w, http.StatusOK, Checker.Test(r.Context(), client))
}

// GetTestHistory returns recent connectivity test results for a client.
func GetTestHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := database.GetClient(id); err != nil {
		writeError(w, http.StatusNotFound, "Client not found")
		return
	}
	results, err := database.GetTestHistory(id, queryInt(r, "limit", 50))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
