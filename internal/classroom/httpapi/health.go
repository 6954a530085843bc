package httpapi

import (
	"net/http"
	"time"

	"classroom/internal/classroom/respond"
)

// healthHandler reports liveness with service uptime and version. It sits
// outside the authentication and rate-limit gates.
func healthHandler(started time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]any{
			"status":    "OK",
			"uptime":    time.Since(started).Seconds(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"version":   version,
		})
	}
}
