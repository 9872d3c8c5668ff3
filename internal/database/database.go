package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"wgwarden/internal/config"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Init() error {
	dbPath := config.Cfg.DatabasePath
	dbDir := filepath.Dir(dbPath)
	if dbDir != "" {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return fmt.Errorf("create db directory: %w", err)
		}
	}

	var err error
	DB, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}

	if err := DB.AutoMigrate(&Client{}, &AlertHistory{}, &MonitoringEvent{}, &TestResult{}, &Setting{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	if err := seedDefaults(); err != nil {
		return fmt.Errorf("seed defaults: %w", err)
	}

	return nil
}

func seedDefaults() error {
	defaults := map[string]string{
		"smtp_host":        "",
		"smtp_port":        "587",
		"smtp_username":    "",
		"smtp_password":    "",
		"smtp_from":        "",
		"smtp_use_tls":     "true",
		"alert_recipients": "",
	}

	for key, value := range defaults {
		var count int64
		DB.Model(&Setting{}).Where("key = ?", key).Count(&count)
		if count == 0 {
			if err := DB.Create(&Setting{Key: key, Value: value}).Error; err != nil {
				return fmt.Errorf("seed setting %s: %w", key, err)
			}
		}
	}

	return nil
}

func Close() error {
	if DB != nil {
		sqlDB, err := DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

func GetSetting(key string) (string, error) {
	var s Setting
	if err := DB.Where("key = ?", key).First(&s).Error; err != nil {
		return "", err
	}
	return s.Value, nil
}

func SetSetting(key, value string) error {
	return DB.Where("key = ?", key).Assign(Setting{Value: value}).FirstOrCreate(&Setting{Key: key}).Error
}

// Client helpers

func GetClient(id string) (*Client, error) {
	var c Client
	if err := DB.First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func GetClientByName(name string) (*Client, error) {
	var c Client
	if err := DB.Where("name = ?", name).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func ListClients() ([]Client, error) {
	var clients []Client
	if err := DB.Order("name").Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

func CreateClient(c *Client) error {
	return DB.Create(c).Error
}

func DeleteClient(id string) error {
	DB.Where("client_id = ?", id).Delete(&TestResult{})
	return DB.Delete(&Client{}, "id = ?", id).Error
}

// UpdateClientStatus sets the client's status and, when provided, the last
// observed handshake time.
func UpdateClientStatus(id, status string, lastHandshake *time.Time) error {
	updates := map[string]interface{}{"status": status}
	if lastHandshake != nil {
		updates["last_handshake"] = *lastHandshake
	}
	return DB.Model(&Client{}).Where("id = ?", id).Updates(updates).Error
}

// Test history helpers

func AddTestResult(r *TestResult) error {
	return DB.Create(r).Error
}

func GetTestHistory(clientID string, limit int) ([]TestResult, error) {
	if limit <= 0 {
		limit = 5
	}
	var results []TestResult
	if err := DB.Where("client_id = ?", clientID).
		Order("timestamp DESC").Limit(limit).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// ClientStore adapts the package-level helpers to the narrow store
// interfaces the monitoring services accept, so tests can substitute fakes.
type ClientStore struct{}

func (ClientStore) GetClient(id string) (*Client, error) { return GetClient(id) }

func (ClientStore) ListClients() ([]Client, error) { return ListClients() }

func (ClientStore) UpdateClientStatus(id, status string, lastHandshake *time.Time) error {
	return UpdateClientStatus(id, status, lastHandshake)
}
