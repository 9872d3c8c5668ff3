package handlers

import (
	"net/http"

	"wgwarden/internal/database"
)

func HealthCheck(w http.ResponseWriter, r *http.Request) {
	dbStatus := "disconnected"
	if database.DB != nil {
		sqlDB, err := database.DB.DB()
		if err == nil {
			if err := sqlDB.Ping(); err == nil {
				dbStatus = "connected"
			}
		}
	}

	monitoring := "stopped"
	if Tracker != nil && Detector != nil && Reconnector != nil {
		monitoring = "running"
	}

	status := "healthy"
	if dbStatus != "connected" {
		status = "unhealthy"
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":     status,
		"database":   dbStatus,
		"monitoring": monitoring,
	})
}
