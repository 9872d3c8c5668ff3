package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Settings struct {
	DataPath     string `envconfig:"DATA_PATH" default:"/app/data"`
	DatabasePath string `envconfig:"DATABASE_PATH" default:"/app/data/wgwarden.db"`
	LogPath      string `envconfig:"LOG_PATH" default:"/app/data/wgwarden.log"`
	ListenAddr   string `envconfig:"LISTEN_ADDR" default:":8000"`

	// WireGuard command settings
	WgBinary       string        `envconfig:"WG_BINARY" default:"wg"`
	WgQuickBinary  string        `envconfig:"WG_QUICK_BINARY" default:"wg-quick"`
	UseSudo        bool          `envconfig:"USE_SUDO" default:"true"`
	CommandTimeout time.Duration `envconfig:"COMMAND_TIMEOUT" default:"30s"`

	// Monitoring loop intervals
	DNSLoopInterval       time.Duration `envconfig:"DNS_LOOP_INTERVAL" default:"60s"`
	HandshakeLoopInterval time.Duration `envconfig:"HANDSHAKE_LOOP_INTERVAL" default:"30s"`

	// Audit log retention
	AuditRetentionDays int `envconfig:"AUDIT_RETENTION_DAYS" default:"90"`
}

var Cfg Settings

func Load() {
	if err := envconfig.Process("WGWARDEN", &Cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
}
