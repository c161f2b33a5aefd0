// Package metrics holds the Prometheus collectors shared by the API and the
// catalog refresher.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	searchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "busroutes_searches_total",
		Help: "Route searches by outcome",
	}, []string{"outcome"})

	searchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "busroutes_search_duration_seconds",
		Help:    "Route search duration",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})

	searchResults = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "busroutes_search_candidates",
		Help:    "Journeys returned per search after deduplication",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100, 500},
	})

	catalogRoutes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "busroutes_catalog_routes",
		Help: "Routes in the published catalog snapshot",
	})

	catalogReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "busroutes_catalog_reloads_total",
		Help: "Catalog reload attempts by result",
	}, []string{"result"})
)

// Search outcomes.
const (
	OutcomeFound    = "found"
	OutcomeEmpty    = "empty"
	OutcomeTimeout  = "timeout"
	OutcomeRejected = "rejected"
)

// ObserveRejected counts a search request turned away before any search
// ran. Nothing is added to the duration or result histograms.
func ObserveRejected() {
	searchTotal.WithLabelValues(OutcomeRejected).Inc()
}

// ObserveSearch records one search that ran, whether it finished or timed out.
func ObserveSearch(outcome string, elapsed time.Duration, results int) {
	searchTotal.WithLabelValues(outcome).Inc()
	searchDuration.Observe(elapsed.Seconds())
	if outcome == OutcomeFound || outcome == OutcomeEmpty {
		searchResults.Observe(float64(results))
	}
}

// ObserveCatalogReload records a reload attempt; routes is ignored on failure.
func ObserveCatalogReload(err error, routes int) {
	if err != nil {
		catalogReloads.WithLabelValues("error").Inc()
		return
	}
	catalogReloads.WithLabelValues("ok").Inc()
	catalogRoutes.Set(float64(routes))
}
