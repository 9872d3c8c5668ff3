package handlers

import (
	"net/http"

	"wgwarden/internal/logging"
)

// GetLogs returns the tail of the application log file.
func GetLogs(w http.ResponseWriter, r *http.Request) {
	lines := queryInt(r, "lines", 200)
	content, err := logging.ReadTail(lines)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"logs": content})
}
