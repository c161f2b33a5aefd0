// Package catalog publishes the route catalog to concurrent readers.
//
// A Snapshot is never modified after it is built. Refreshes build a new one
// and swap it in atomically, so a query that picked up a snapshot keeps
// seeing exactly that catalog until it finishes.
package catalog

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/you/busroutes/models"
)

// Snapshot is one immutable version of the route catalog.
type Snapshot struct {
	ID       uuid.UUID
	LoadedAt time.Time
	Routes   []models.Route

	stopsOnce sync.Once
	stops     []stopName
}

type stopName struct {
	display string
	norm    string
}

// NewSnapshot copies routes into a fresh snapshot. Later changes to the
// caller's slice are not visible through it.
func NewSnapshot(routes []models.Route) *Snapshot {
	copied := make([]models.Route, len(routes))
	for i := range routes {
		copied[i] = routes[i].Clone()
	}
	return &Snapshot{
		ID:       uuid.New(),
		LoadedAt: time.Now().UTC(),
		Routes:   copied,
	}
}

// Route finds a route by number.
func (s *Snapshot) Route(number string) (models.Route, bool) {
	for _, r := range s.Routes {
		if strings.EqualFold(r.Number, number) {
			return r, true
		}
	}
	return models.Route{}, false
}

// MatchStops returns stop names whose normalized form contains the
// normalized query, prefix matches first, at most limit names.
// The first spelling seen in catalog order is the one returned.
func (s *Snapshot) MatchStops(query string, limit int) []string {
	s.stopsOnce.Do(s.collectStops)

	q := models.NormalizeStop(query)
	var prefix, inner []string
	for _, st := range s.stops {
		switch {
		case strings.HasPrefix(st.norm, q):
			prefix = append(prefix, st.display)
		case strings.Contains(st.norm, q):
			inner = append(inner, st.display)
		}
	}

	out := append(prefix, inner...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []string{}
	}
	return out
}

func (s *Snapshot) collectStops() {
	seen := make(map[string]bool)
	for _, r := range s.Routes {
		for _, stop := range r.Stops {
			n := models.NormalizeStop(stop)
			if n == "" || seen[n] {
				continue
			}
			seen[n] = true
			s.stops = append(s.stops, stopName{display: strings.TrimSpace(stop), norm: n})
		}
	}
	sort.SliceStable(s.stops, func(i, j int) bool {
		return s.stops[i].norm < s.stops[j].norm
	})
}
