package http

import (
	"net/http"
	"time"

	"github.com/deskbridge/deskapi/internal/api/store"
	"github.com/deskbridge/deskapi/pkg/httpx"
)

// HeartbeatHandler is the keep-alive check remote-desktop clients poll.
func HeartbeatHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeSuccess(w, map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	}
}

// HealthHandler reports service health including database connectivity.
// Returns 503 when the database cannot be reached.
func HealthHandler(startTime time.Time, version string, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		database := "ok"
		code := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			status = "degraded"
			database = "error: " + err.Error()
			code = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, apiResponse{
			Code:    code,
			Message: status,
			Data: map[string]any{
				"status":   status,
				"database": database,
				"uptime":   time.Since(startTime).String(),
				"version":  version,
			},
		})
	}
}
