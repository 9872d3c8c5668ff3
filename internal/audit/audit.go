// Package audit records monitoring events and alert outcomes to the database.
//
// It is the audit/history collaborator shared by the peer status tracker and
// the reconnection controller: every alert attempt and every reconnect
// decision point lands here, so operators can reconstruct what the monitor
// did and why. Entries are retained for a configurable number of days and
// purged by a daily job.
package audit

import (
	"log"
	"sync"
	"time"

	"wgwarden/internal/database"
	"wgwarden/internal/logutil"

	"gorm.io/gorm"
)

// Monitoring event types.
const (
	EventReconnectAttempt     = "reconnect_attempt"
	EventReconnectSuccess     = "reconnect_success"
	EventReconnectFailed      = "reconnect_failed"
	EventReconnectSkipped     = "reconnect_skipped"
	EventHandshakeEstablished = "reconnect_handshake_established"
	EventDisconnectAlert      = "disconnect_alert"
)

// DefaultRetentionDays is how long monitoring events and alert history are
// kept when no explicit retention is configured.
const DefaultRetentionDays = 90

// Recorder writes monitoring events and alert history rows. It also emits a
// log line per event for observability.
type Recorder struct {
	mu            sync.RWMutex
	db            *gorm.DB
	retentionDays int
	nowFn         func() time.Time // injectable clock for testing
}

// NewRecorder creates a Recorder writing to the given database.
// retentionDays <= 0 selects DefaultRetentionDays.
func NewRecorder(db *gorm.DB, retentionDays int) *Recorder {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return &Recorder{
		db:            db,
		retentionDays: retentionDays,
		nowFn:         time.Now,
	}
}

// Event appends one monitoring event. Write failures are logged, not
// returned as fatal: losing an audit row must never break a monitoring tick.
func (r *Recorder) Event(clientID, clientName, eventType, message, detail string) {
	rec := database.MonitoringEvent{
		ClientID:   clientID,
		ClientName: clientName,
		EventType:  eventType,
		Message:    message,
		Detail:     detail,
	}
	if err := r.db.Create(&rec).Error; err != nil {
		log.Printf("[audit] failed to write monitoring event: %v", err)
		return
	}
	log.Printf("[audit] %s client=%s msg=%s", eventType, logutil.Sanitize(clientName), logutil.Sanitize(message))
}

// Alert records one alert delivery attempt, successful or not.
func (r *Recorder) Alert(clientName, peerKey, subject, message string, success bool) {
	rec := database.AlertHistory{
		ClientName: clientName,
		PeerKey:    peerKey,
		Subject:    subject,
		Message:    message,
		Success:    success,
	}
	if err := r.db.Create(&rec).Error; err != nil {
		log.Printf("[audit] failed to write alert history: %v", err)
	}
}

// RecentAlerts returns the most recent alert history entries, newest first.
func (r *Recorder) RecentAlerts(limit int) ([]database.AlertHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	var alerts []database.AlertHistory
	if err := r.db.Order("sent_at DESC").Limit(limit).Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

// QueryOptions filters monitoring event queries.
type QueryOptions struct {
	ClientID  string
	EventType string
	Limit     int
	Offset    int
}

// QueryEvents returns monitoring events matching opts, newest first, plus
// the total match count for pagination.
func (r *Recorder) QueryEvents(opts QueryOptions) ([]database.MonitoringEvent, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tx := r.db.Model(&database.MonitoringEvent{})
	if opts.ClientID != "" {
		tx = tx.Where("client_id = ?", opts.ClientID)
	}
	if opts.EventType != "" {
		tx = tx.Where("event_type = ?", opts.EventType)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	var events []database.MonitoringEvent
	if err := tx.Order("created_at DESC").Limit(limit).Offset(opts.Offset).Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// PurgeOldEntries deletes monitoring events and alert history older than the
// retention window and returns the number of rows removed.
func (r *Recorder) PurgeOldEntries() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.nowFn().AddDate(0, 0, -r.retentionDays)

	events := r.db.Where("created_at < ?", cutoff).Delete(&database.MonitoringEvent{})
	if events.Error != nil {
		return 0, events.Error
	}
	alerts := r.db.Where("sent_at < ?", cutoff).Delete(&database.AlertHistory{})
	if alerts.Error != nil {
		return events.RowsAffected, alerts.Error
	}

	deleted := events.RowsAffected + alerts.RowsAffected
	if deleted > 0 {
		log.Printf("[audit] purged %d entries older than %d days", deleted, r.retentionDays)
	}
	return deleted, nil
}

// SetNowFunc sets the clock used for retention cutoffs, for testing.
func (r *Recorder) SetNowFunc(fn func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nowFn = fn
}
