package handlers

import (
	"context"
	"net/http"
	"time"
)

type healthCheck struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type healthResponse struct {
	Status string                 `json:"status"`
	Checks map[string]healthCheck `json:"checks,omitempty"`
}

// Health reports 503 when Postgres does not answer within two seconds.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if a.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		start := time.Now()
		check := healthCheck{Status: "ok"}
		if err := a.DB.Ping(ctx); err != nil {
			a.Logger.Warn().Err(err).Msg("health check: database unreachable")
			check.Status, check.Error = "unreachable", "ping failed"
			resp.Status = "degraded"
		}
		check.LatencyMS = time.Since(start).Milliseconds()
		resp.Checks = map[string]healthCheck{"database": check}
	}
	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	a.json(w, status, resp)
}
