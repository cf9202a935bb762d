package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// Health status constants for health check responses.
const (
	healthStatusOK           = "ok"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"
	healthStatusMissing      = "missing"
)

// HealthChecker provides liveness and readiness endpoints.
type HealthChecker struct {
	ready         atomic.Bool
	serverContext *ServerContext
	startTime     time.Time
}

// NewHealthChecker creates a HealthChecker that starts out ready.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	h := &HealthChecker{
		serverContext: sc,
		startTime:     time.Now(),
	}
	h.ready.Store(true)
	return h
}

// SetReady sets the readiness state of the server.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady returns whether the server is ready to receive traffic.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// isServerShuttingDown is false for a nil server context.
func (h *HealthChecker) isServerShuttingDown() bool {
	return h.serverContext != nil && h.serverContext.IsShutdown()
}

// HealthResponse represents the JSON response for health endpoints.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DetailedHealthResponse adds server facts useful when debugging a
// deployment. A missing token does not make the server unready: tools
// report it and google_get_auth_url fixes it.
type DetailedHealthResponse struct {
	Status   string `json:"status"`
	Uptime   string `json:"uptime"`
	Timezone string `json:"timezone,omitempty"`
	Account  string `json:"account,omitempty"`
	Token    string `json:"token,omitempty"`
}

// LivenessHandler returns the handler for /healthz.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: healthStatusOK})
	})
}

// ReadinessHandler returns the handler for /readyz.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		checks := map[string]string{
			"ready":    healthStatusOK,
			"shutdown": healthStatusOK,
		}
		status := http.StatusOK

		if !h.ready.Load() {
			checks["ready"] = healthStatusNotReady
			status = http.StatusServiceUnavailable
		}
		if h.isServerShuttingDown() {
			checks["shutdown"] = healthStatusShuttingDown
			status = http.StatusServiceUnavailable
		}

		response := HealthResponse{Status: healthStatusOK, Checks: checks}
		if status != http.StatusOK {
			response.Status = healthStatusNotReady
		}
		writeJSON(w, status, response)
	})
}

// DetailedHealthHandler returns the handler for /healthz/detailed.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response := DetailedHealthResponse{
			Status: healthStatusOK,
			Uptime: time.Since(h.startTime).Truncate(time.Second).String(),
		}

		if sc := h.serverContext; sc != nil {
			response.Timezone = sc.TimezoneName()
			response.Account = sc.DefaultAccount()
			response.Token = healthStatusMissing
			if sc.Tokens().HasTokenForAccount(sc.DefaultAccount()) {
				response.Token = healthStatusOK
			}
		}

		status := http.StatusOK
		switch {
		case !h.ready.Load():
			response.Status = healthStatusNotReady
			status = http.StatusServiceUnavailable
		case h.isServerShuttingDown():
			response.Status = healthStatusShuttingDown
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, response)
	})
}

// RegisterHealthEndpoints registers health check endpoints on the given mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
	mux.Handle("/healthz/detailed", h.DetailedHealthHandler())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
