package search

import "github.com/you/busroutes/models"

// Occurrence records that a route visits a stop, at every position where it does.
type Occurrence struct {
	Route     *models.Route
	Positions []int

	slot int
}

// indexedRoute caches the normalized form of one route's stops.
type indexedRoute struct {
	route *models.Route
	norm  []string
	first map[string]int
}

// firstPosition returns where stop first appears on the route.
func (r *indexedRoute) firstPosition(stop string) (int, bool) {
	pos, ok := r.first[stop]
	return pos, ok
}

// leg slices the route between two positions, in travel order.
func (r *indexedRoute) leg(board, alight int) Leg {
	stops := r.route.Stops
	if board <= alight {
		return Leg{
			Route: r.route,
			Stops: append([]string(nil), stops[board:alight+1]...),
		}
	}

	out := make([]string, 0, board-alight+1)
	for i := board; i >= alight; i-- {
		out = append(out, stops[i])
	}
	return Leg{Route: r.route, Stops: out, Reversed: true}
}

// StopIndex maps normalized stop names to the routes serving them.
// Value lists follow catalog order.
type StopIndex struct {
	routes []indexedRoute
	stops  map[string][]Occurrence
}

// BuildIndex indexes every stop of every route. The routes slice must not be
// modified while the index is in use; legs point into it.
func BuildIndex(routes []models.Route) *StopIndex {
	ix := &StopIndex{
		routes: make([]indexedRoute, len(routes)),
		stops:  make(map[string][]Occurrence),
	}

	for slot := range routes {
		r := &routes[slot]
		ir := indexedRoute{
			route: r,
			norm:  make([]string, len(r.Stops)),
			first: make(map[string]int, len(r.Stops)),
		}

		var order []string
		positions := make(map[string][]int, len(r.Stops))
		for pos, stop := range r.Stops {
			n := models.NormalizeStop(stop)
			ir.norm[pos] = n
			if n == "" {
				continue
			}
			if _, seen := ir.first[n]; !seen {
				ir.first[n] = pos
				order = append(order, n)
			}
			positions[n] = append(positions[n], pos)
		}
		ix.routes[slot] = ir

		for _, n := range order {
			ix.stops[n] = append(ix.stops[n], Occurrence{
				Route:     r,
				Positions: positions[n],
				slot:      slot,
			})
		}
	}

	return ix
}

// Lookup returns the routes serving stop. The name is normalized first.
func (ix *StopIndex) Lookup(stop string) []Occurrence {
	return ix.stops[models.NormalizeStop(stop)]
}

// Len reports the number of distinct stops in the index.
func (ix *StopIndex) Len() int {
	return len(ix.stops)
}
