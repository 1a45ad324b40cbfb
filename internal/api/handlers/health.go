package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Version is reported by the health endpoint
var Version = "dev"

// Check probes one dependency
type Check func(ctx context.Context) error

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ReadyResponse represents the readiness check response
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	checks  map[string]Check
	timeout time.Duration
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(checks map[string]Check) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 3 * time.Second}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   Version,
	}

	respondJSON(w, http.StatusOK, response)
}

// Ready handles GET /ready (for kubernetes readiness probe)
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	var mu sync.Mutex
	results := make(map[string]string, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for _, name := range names {
		name, check := name, h.checks[name]
		g.Go(func() error {
			err := check(gctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				results[name] = err.Error()
				return fmt.Errorf("%s: %w", name, err)
			}
			results[name] = "ok"
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, ReadyResponse{Status: "unavailable", Checks: results})
		return
	}
	respondJSON(w, http.StatusOK, ReadyResponse{Status: "ready", Checks: results})
}
