// internal/monitoring/health.go
package monitoring

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthStatus represents the health of the run as seen from outside
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusUnknown   HealthStatus = "unknown"
)

// RunStatus is a point-in-time view of a run
type RunStatus struct {
	RunID       string    `json:"run_id"`
	State       string    `json:"state"`
	StartedAt   time.Time `json:"started_at"`
	Cycles      int       `json:"cycles"`
	LastClickAt time.Time `json:"last_click_at,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// StatusProvider reports the current run status
type StatusProvider interface {
	Status() RunStatus
}

// HealthResponse is the body served on the health endpoint
type HealthResponse struct {
	Status    HealthStatus `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
	Uptime    string       `json:"uptime"`
	Run       *RunStatus   `json:"run,omitempty"`
}

// healthFor derives the health of a run from its status. A run that is
// advancing but has not clicked for stallAfter is unhealthy.
func healthFor(status RunStatus, now time.Time, stallAfter time.Duration) HealthStatus {
	if status.Error != "" {
		return HealthStatusUnhealthy
	}
	if status.State == StateAdvancing && stallAfter > 0 {
		last := status.LastClickAt
		if last.IsZero() {
			last = status.StartedAt
		}
		if !last.IsZero() && now.Sub(last) > stallAfter {
			return HealthStatusUnhealthy
		}
	}
	return HealthStatusHealthy
}

// HealthHandler serves the run status as JSON
func HealthHandler(provider StatusProvider, started time.Time, stallAfter time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		resp := HealthResponse{
			Status:    HealthStatusUnknown,
			Timestamp: now,
			Uptime:    now.Sub(started).Truncate(time.Second).String(),
		}

		if provider != nil {
			status := provider.Status()
			resp.Run = &status
			resp.Status = healthFor(status, now, stallAfter)
		}

		code := http.StatusOK
		if resp.Status == HealthStatusUnhealthy {
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(resp)
	}
}
