package handlers

import (
	"context"
	"net/http"
	"time"

	"shopdesk/internal/catalog"
)

// healthTimeout bounds each dependency check.
const healthTimeout = 2 * time.Second

// Check probes one dependency.
type Check func(ctx context.Context) error

// Health reports the service's dependencies and the tree sync state.
type Health struct {
	catalog *catalog.Manager
	checks  map[string]Check
}

// NewHealth creates the health handler. checks maps a dependency name
// (e.g. "postgres") to its probe.
func NewHealth(cat *catalog.Manager, checks map[string]Check) *Health {
	return &Health{catalog: cat, checks: checks}
}

// ServeHTTP returns 200 when every check passes and the tree is loaded,
// 503 otherwise.
func (h *Health) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		err := check(ctx)
		cancel()
		if err != nil {
			results[name] = err.Error()
			status = "degraded"
			continue
		}
		results[name] = "ok"
	}

	body := map[string]any{
		"status": status,
		"checks": results,
	}
	if h.catalog != nil {
		loaded := h.catalog.Loaded()
		body["categories_loaded"] = loaded
		if loaded {
			body["synced_at"] = h.catalog.SyncedAt()
		} else {
			status = "degraded"
			body["status"] = status
		}
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, body)
}
