package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/you/busroutes/internal/metrics"
	"github.com/you/busroutes/models"
)

// Source loads the full route catalog in catalog order.
type Source interface {
	AllRoutes(ctx context.Context) ([]models.Route, error)
}

// Refresher reloads the catalog from a Source into a Store.
type Refresher struct {
	source   Source
	store    *Store
	interval time.Duration
	logger   *slog.Logger
}

// NewRefresher creates a Refresher. An interval of zero or less makes Run
// return after the first load.
func NewRefresher(source Source, store *Store, interval time.Duration, logger *slog.Logger) *Refresher {
	return &Refresher{source: source, store: store, interval: interval, logger: logger}
}

// Refresh loads the catalog once and publishes it. On failure the previous
// snapshot stays current.
func (r *Refresher) Refresh(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	routes, err := r.source.AllRoutes(ctx)
	metrics.ObserveCatalogReload(err, len(routes))
	if err != nil {
		return nil, fmt.Errorf("failed to load routes: %w", err)
	}

	snap := r.store.Publish(routes)
	if len(routes) == 0 {
		r.logger.Warn("catalog is empty", "snapshot", snap.ID)
	}
	r.logger.Info("catalog published",
		"snapshot", snap.ID,
		"routes", len(snap.Routes),
		"elapsed", time.Since(start),
	)
	return snap, nil
}

// Run loads the catalog immediately and then on every tick until ctx is
// cancelled. Failed reloads are logged and retried on the next tick.
func (r *Refresher) Run(ctx context.Context) error {
	if _, err := r.Refresh(ctx); err != nil {
		r.logger.Error("initial catalog load failed", "error", err)
	}
	if r.interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := r.Refresh(ctx); err != nil {
				r.logger.Error("catalog reload failed", "error", err)
			}
		case <-ctx.Done():
			r.logger.Info("catalog refresh loop stopped")
			return nil
		}
	}
}
