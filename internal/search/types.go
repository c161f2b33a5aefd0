package search

import "github.com/you/busroutes/models"

// Kind classifies a path by how many transfers it needs.
type Kind string

const (
	KindDirect      Kind = "direct"
	KindOneTransfer Kind = "one-transfer"
	KindTwoTransfer Kind = "two-transfer"
)

// kindFor maps a leg count to its Kind. Callers never pass anything outside 1..3.
func kindFor(legs int) Kind {
	switch legs {
	case 1:
		return KindDirect
	case 2:
		return KindOneTransfer
	default:
		return KindTwoTransfer
	}
}

// Leg is one uninterrupted ride on a single route.
// Stops are listed in travel order, so Stops[0] is where the rider boards
// even when the leg runs against the route's stored order.
type Leg struct {
	Route    *models.Route `json:"route"`
	Stops    []string      `json:"stops"`
	Reversed bool          `json:"reversed"`
}

// Boarding returns the first stop of the leg.
func (l Leg) Boarding() string {
	if len(l.Stops) == 0 {
		return ""
	}
	return l.Stops[0]
}

// Alighting returns the last stop of the leg.
func (l Leg) Alighting() string {
	if len(l.Stops) == 0 {
		return ""
	}
	return l.Stops[len(l.Stops)-1]
}

// Path is a complete candidate journey from origin to destination.
// Transfers[i] is where Legs[i] ends and Legs[i+1] begins.
type Path struct {
	Kind      Kind     `json:"type"`
	Legs      []Leg    `json:"legs"`
	Transfers []string `json:"transfers"`
}

// Key identifies a path for deduplication. It is compared by value.
//
// Direct paths are keyed by route number only, so two different slices of
// the same route collapse into one result.
type Key struct {
	Kind      Kind
	Routes    [3]string
	Transfers [2]string
}

// Key derives the canonical key of p.
func (p Path) Key() Key {
	k := Key{Kind: p.Kind}
	for i, leg := range p.Legs {
		if i == len(k.Routes) {
			break
		}
		if leg.Route != nil {
			k.Routes[i] = leg.Route.Number
		}
	}
	if p.Kind == KindDirect {
		return k
	}
	for i, t := range p.Transfers {
		if i == len(k.Transfers) {
			break
		}
		k.Transfers[i] = models.NormalizeStop(t)
	}
	return k
}
