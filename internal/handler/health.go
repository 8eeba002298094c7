package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// ServeHealth reports process liveness for deployment health checks.
func ServeHealth(start time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		err := json.NewEncoder(w).Encode(map[string]any{
			"ok":      true,
			"service": "chatroom",
			"uptime":  time.Since(start).Seconds(),
		})
		if err != nil {
			log.Printf("handler/health: failed to write response: %v", err)
		}
	}
}
