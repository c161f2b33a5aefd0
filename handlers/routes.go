package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/semaphore"

	"github.com/you/busroutes/internal/catalog"
	"github.com/you/busroutes/internal/metrics"
	"github.com/you/busroutes/internal/search"
	"github.com/you/busroutes/models"
)

// CatalogReader gives access to the currently published catalog snapshot
type CatalogReader interface {
	Current() *catalog.Snapshot
}

// RouteHandler handles HTTP requests for route search and the route catalog
type RouteHandler struct {
	catalog CatalogReader
	opts    search.Options
	timeout time.Duration
	logger  *slog.Logger

	// inFlight caps running searches, including ones abandoned on timeout.
	// Nil means unlimited.
	inFlight *semaphore.Weighted

	find func(from, to string, routes []models.Route, opts search.Options) []search.Path
}

// NewRouteHandler creates a handler that searches whatever snapshot cat
// holds at request time. A timeout of zero disables the search deadline and
// a maxInFlight of zero leaves concurrent searches unbounded.
func NewRouteHandler(cat CatalogReader, opts search.Options, timeout time.Duration, maxInFlight int, logger *slog.Logger) *RouteHandler {
	h := &RouteHandler{
		catalog: cat,
		opts:    opts,
		timeout: timeout,
		logger:  logger,
		find:    search.FindRoutes,
	}
	if maxInFlight > 0 {
		h.inFlight = semaphore.NewWeighted(int64(maxInFlight))
	}
	return h
}

// FindRoutesResponse is the JSON response structure for GET /api/find-routes
type FindRoutesResponse struct {
	From           string        `json:"from"`
	To             string        `json:"to"`
	Results        []search.Path `json:"results"`
	Count          int           `json:"count"`
	CatalogVersion string        `json:"catalogVersion"`
	GeneratedAt    time.Time     `json:"generatedAt"`
}

// ListRoutesResponse is the JSON response structure for GET /api/routes
type ListRoutesResponse struct {
	Routes         []models.Route `json:"routes"`
	Count          int            `json:"count"`
	CatalogVersion string         `json:"catalogVersion"`
	LoadedAt       time.Time      `json:"loadedAt"`
}

// StopsResponse is the JSON response structure for GET /api/stops
type StopsResponse struct {
	Query string   `json:"query"`
	Stops []string `json:"stops"`
	Count int      `json:"count"`
}

// FindRoutes handles GET /api/find-routes?from=&to=
// Returns direct, one-transfer and two-transfer journeys, fewest legs first.
func (h *RouteHandler) FindRoutes(w http.ResponseWriter, r *http.Request) {
	from := strings.TrimSpace(r.URL.Query().Get("from"))
	to := strings.TrimSpace(r.URL.Query().Get("to"))

	if from == "" || to == "" {
		metrics.ObserveRejected()
		writeError(w, http.StatusBadRequest, "Missing 'from' or 'to' query parameters", nil)
		return
	}

	snap := h.catalog.Current()
	if snap == nil {
		metrics.ObserveRejected()
		writeError(w, http.StatusServiceUnavailable, "Route catalog not loaded yet", nil)
		return
	}

	if h.inFlight != nil && !h.inFlight.TryAcquire(1) {
		metrics.ObserveRejected()
		h.logger.Warn("route search rejected, too many in flight", "from", from, "to", to)
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "Too many searches in progress", nil)
		return
	}

	start := time.Now()
	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	// The search itself cannot be interrupted; on timeout its result is
	// dropped and the goroutine finishes on its own.
	done := make(chan []search.Path, 1)
	go func() {
		if h.inFlight != nil {
			defer h.inFlight.Release(1)
		}
		done <- h.find(from, to, snap.Routes, h.opts)
	}()

	var results []search.Path
	select {
	case results = <-done:
	case <-ctx.Done():
		metrics.ObserveSearch(metrics.OutcomeTimeout, time.Since(start), 0)
		h.logger.Warn("route search timed out", "from", from, "to", to, "timeout", h.timeout)
		writeError(w, http.StatusGatewayTimeout, "Route search timed out", map[string]interface{}{
			"timeoutMs": h.timeout.Milliseconds(),
		})
		return
	}

	outcome := metrics.OutcomeFound
	if len(results) == 0 {
		outcome = metrics.OutcomeEmpty
	}
	metrics.ObserveSearch(outcome, time.Since(start), len(results))
	h.logger.Debug("route search", "from", from, "to", to, "results", len(results), "elapsed", time.Since(start))

	// Results only change when the catalog does
	w.Header().Set("Cache-Control", "public, max-age=60")
	w.Header().Set("Vary", "Accept-Encoding")
	writeJSON(w, http.StatusOK, FindRoutesResponse{
		From:           from,
		To:             to,
		Results:        results,
		Count:          len(results),
		CatalogVersion: snap.ID.String(),
		GeneratedAt:    time.Now().UTC(),
	})
}

// ListRoutes handles GET /api/routes
func (h *RouteHandler) ListRoutes(w http.ResponseWriter, r *http.Request) {
	snap := h.catalog.Current()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "Route catalog not loaded yet", nil)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, http.StatusOK, ListRoutesResponse{
		Routes:         snap.Routes,
		Count:          len(snap.Routes),
		CatalogVersion: snap.ID.String(),
		LoadedAt:       snap.LoadedAt,
	})
}

// GetRoute handles GET /api/routes/{number}
func (h *RouteHandler) GetRoute(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	if number == "" {
		writeError(w, http.StatusBadRequest, "number parameter is required", nil)
		return
	}

	snap := h.catalog.Current()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "Route catalog not loaded yet", nil)
		return
	}

	route, ok := snap.Route(number)
	if !ok {
		writeError(w, http.StatusNotFound, "Route not found", map[string]interface{}{
			"number": number,
		})
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, http.StatusOK, route)
}

// SearchStops handles GET /api/stops?q=&limit=
// Returns stop names matching q for autocomplete, at most 20 by default.
func (h *RouteHandler) SearchStops(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "Missing 'q' query parameter", nil)
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit parameter", map[string]interface{}{
				"limit": raw,
			})
			return
		}
		limit = min(n, 100)
	}

	snap := h.catalog.Current()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "Route catalog not loaded yet", nil)
		return
	}

	stops := snap.MatchStops(query, limit)
	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, http.StatusOK, StopsResponse{
		Query: query,
		Stops: stops,
		Count: len(stops),
	})
}
