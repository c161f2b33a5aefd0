package handlers

import (
	"context"
	"net/http"
	"time"
)

// RouteCounter is the storage check behind /health
type RouteCounter interface {
	CountRoutes(ctx context.Context) (int, error)
}

// HealthHandler reports catalog and database health
type HealthHandler struct {
	catalog CatalogReader
	repo    RouteCounter
}

// NewHealthHandler creates a new handler with the given catalog and repository
func NewHealthHandler(cat CatalogReader, repo RouteCounter) *HealthHandler {
	return &HealthHandler{catalog: cat, repo: repo}
}

// Health handles GET /health
// Fails when the database is unreachable or no catalog has been loaded.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	body := map[string]interface{}{
		"status":    "ok",
		"database":  "connected",
		"timestamp": time.Now().UTC(),
	}
	status := http.StatusOK

	stored, err := h.repo.CountRoutes(ctx)
	if err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "error"
		body["database"] = "disconnected"
		body["error"] = err.Error()
	} else {
		body["storedRoutes"] = stored
	}

	if snap := h.catalog.Current(); snap != nil {
		body["catalog"] = map[string]interface{}{
			"version":  snap.ID.String(),
			"routes":   len(snap.Routes),
			"loadedAt": snap.LoadedAt,
		}
	} else {
		status = http.StatusServiceUnavailable
		body["status"] = "error"
		body["catalog"] = "not loaded"
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, status, body)
}

// Healthz handles GET /healthz, a liveness check with no dependencies
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Ping handles GET /api/ping
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("pong"))
}
