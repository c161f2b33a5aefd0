package search

import "slices"

// MaxTransfers is the deepest search supported: three legs.
const MaxTransfers = 2

// Options tunes the enumerator.
type Options struct {
	// MaxTransfers caps the number of transfers, 0 to MaxTransfers.
	// Values outside that range are clamped.
	MaxTransfers int

	// ForwardOnly rejects legs that ride a route against its stored order.
	ForwardOnly bool
}

// DefaultOptions searches up to two transfers in both directions.
func DefaultOptions() Options {
	return Options{MaxTransfers: MaxTransfers}
}

func (o Options) hops() int {
	return min(max(o.MaxTransfers, 0), MaxTransfers)
}

// partial is the path built so far while descending.
type partial struct {
	legs      []Leg
	transfers []string
	routes    []string // route numbers already ridden
	visited   []string // normalized origin and transfer stops
}

// then returns a copy of p extended by one leg and one transfer.
// Sibling branches must never share backing arrays.
func (p partial) then(leg Leg, transfer, norm, route string) partial {
	return partial{
		legs:      append(slices.Clip(p.legs), leg),
		transfers: append(slices.Clip(p.transfers), transfer),
		routes:    append(slices.Clip(p.routes), route),
		visited:   append(slices.Clip(p.visited), norm),
	}
}

type enumerator struct {
	ix   *StopIndex
	to   string
	opts Options
	out  []Path
}

// Enumerate walks the index from origin to destination, both already
// normalized, and returns every candidate path in discovery order.
// Duplicates are expected; see Dedupe.
//
// When a stop occurs more than once on a route, only its first occurrence
// in stop order is used, for the origin, the destination and transfers alike.
func Enumerate(ix *StopIndex, from, to string, opts Options) []Path {
	if ix == nil || from == "" || to == "" || from == to {
		return nil
	}

	e := &enumerator{ix: ix, to: to, opts: opts}
	for _, occ := range ix.stops[from] {
		r := &ix.routes[occ.slot]
		start := partial{
			routes:  []string{r.route.Number},
			visited: []string{from},
		}
		e.ride(r, occ.Positions[0], start, opts.hops())
	}
	return e.out
}

// ride considers every way to continue on route r after boarding at
// position board: alight at the destination, or, while hops remain,
// alight at an intermediate stop and board another route there.
func (e *enumerator) ride(r *indexedRoute, board int, p partial, hops int) {
	if at, ok := r.firstPosition(e.to); ok && at != board {
		if leg, ok := e.leg(r, board, at); ok {
			e.emit(p, leg)
		}
	}
	if hops == 0 {
		return
	}

	for pos, stop := range r.norm {
		if stop == "" || stop == e.to || r.first[stop] != pos || slices.Contains(p.visited, stop) {
			continue
		}
		leg, ok := e.leg(r, board, pos)
		if !ok {
			continue
		}
		for _, occ := range e.ix.stops[stop] {
			next := &e.ix.routes[occ.slot]
			if slices.Contains(p.routes, next.route.Number) {
				continue
			}
			transfer := r.route.Stops[pos]
			e.ride(next, occ.Positions[0], p.then(leg, transfer, stop, next.route.Number), hops-1)
		}
	}
}

// leg builds the slice between two positions, failing closed when the
// positions coincide or the direction is not allowed.
func (e *enumerator) leg(r *indexedRoute, board, alight int) (Leg, bool) {
	if board == alight || board < 0 || alight < 0 || board >= len(r.route.Stops) || alight >= len(r.route.Stops) {
		return Leg{}, false
	}
	if e.opts.ForwardOnly && board > alight {
		return Leg{}, false
	}
	return r.leg(board, alight), true
}

func (e *enumerator) emit(p partial, last Leg) {
	legs := append(slices.Clone(p.legs), last)
	transfers := slices.Clone(p.transfers)
	if transfers == nil {
		transfers = []string{}
	}
	e.out = append(e.out, Path{
		Kind:      kindFor(len(legs)),
		Legs:      legs,
		Transfers: transfers,
	})
}
