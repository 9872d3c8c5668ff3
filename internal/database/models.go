package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Client status values.
const (
	StatusActive       = "active"
	StatusInactive     = "inactive"
	StatusDisconnected = "disconnected"
)

// Client is one managed WireGuard tunnel. The config file itself lives on
// disk at ConfigPath; the row carries the metadata the monitoring loops need.
type Client struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	Name          string     `gorm:"uniqueIndex;not null;size:100" json:"name"`
	ConfigPath    string     `gorm:"uniqueIndex;not null;size:255" json:"config_path"`
	Subnet        string     `gorm:"not null;size:18" json:"subnet"`
	PublicKey     string     `gorm:"uniqueIndex;not null;size:44" json:"public_key"`
	Status        string     `gorm:"not null;default:inactive;size:20" json:"status"`
	LastHandshake *time.Time `json:"last_handshake"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Client) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// AlertHistory records every disconnect alert we tried to send, including
// failures, so operators can audit alert delivery.
type AlertHistory struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ClientName string    `gorm:"not null;size:255" json:"client_name"`
	PeerKey    string    `gorm:"not null;size:255" json:"peer_key"`
	Subject    string    `gorm:"not null;size:255" json:"subject"`
	Message    string    `gorm:"not null;type:text" json:"message"`
	SentAt     time.Time `gorm:"autoCreateTime;index" json:"sent_at"`
	Success    bool      `json:"success"`
}

// MonitoringEvent is the append-only audit trail written by the monitoring
// loops and the reconnection controller.
type MonitoringEvent struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ClientID   string    `gorm:"index;size:36" json:"client_id"`
	ClientName string    `gorm:"size:255" json:"client_name"`
	EventType  string    `gorm:"not null;index;size:64" json:"event_type"`
	Message    string    `gorm:"not null;type:text" json:"message"`
	Detail     string    `gorm:"type:text" json:"detail"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// TestResult is one connectivity test outcome for a client subnet.
type TestResult struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ClientID  string    `gorm:"not null;index;size:36" json:"client_id"`
	Timestamp time.Time `gorm:"autoCreateTime" json:"timestamp"`
	LatencyMs *int64    `json:"latency_ms"`
	Success   bool      `json:"success"`
	Target    string    `gorm:"size:64" json:"target"`
	Error     string    `gorm:"type:text" json:"error"`
}

type Setting struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `gorm:"not null" json:"value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
