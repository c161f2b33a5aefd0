// Package search finds bus journeys between two stops with at most two
// transfers.
//
// A query runs in three steps over a catalog the caller guarantees not to
// modify: BuildIndex maps every normalized stop to the routes serving it,
// Enumerate walks that index to a bounded depth, and Dedupe and Rank reduce
// the candidates to the result set. Nothing is cached between queries, so
// concurrent calls over the same catalog are safe.
package search

import "github.com/you/busroutes/models"

// FindRoutes returns the ranked, deduplicated journeys from origin to
// destination. Names are normalized here; blank or identical endpoints and
// unknown stops all yield an empty, non-nil result.
func FindRoutes(origin, destination string, routes []models.Route, opts Options) []Path {
	from := models.NormalizeStop(origin)
	to := models.NormalizeStop(destination)
	if from == "" || to == "" || from == to {
		return []Path{}
	}

	ix := BuildIndex(routes)
	return Rank(Dedupe(Enumerate(ix, from, to, opts)))
}
