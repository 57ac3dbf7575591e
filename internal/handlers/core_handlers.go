// internal/handlers/core_handlers.go
package handlers

import (
	"net/http"
	"time"
)

// HandleHealth reports server status, the remote-store probe result and a
// metrics snapshot.
func (s *Server) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"status":       "healthy",
			"remote_ready": s.Store.Ready(r.Context()),
			"metrics":      s.Metrics.Snapshot(),
			"server_time":  time.Now(),
		})
	}
}
