package search

import (
	"testing"

	"github.com/you/busroutes/models"
)

func pathVia(transfers []string, routes ...*models.Route) Path {
	p := Path{Kind: kindFor(len(routes)), Transfers: transfers}
	for _, r := range routes {
		p.Legs = append(p.Legs, Leg{Route: r, Stops: []string{"x", "y"}})
	}
	return p
}

func TestPathKey(t *testing.T) {
	r1 := &models.Route{Number: "R1"}
	r2 := &models.Route{Number: "R2"}

	direct := pathVia(nil, r1)
	directOther := Path{Kind: KindDirect, Legs: []Leg{{Route: r1, Stops: []string{"p", "q", "r"}}}}
	if direct.Key() != directOther.Key() {
		t.Error("direct paths on the same route should share a key")
	}

	viaB := pathVia([]string{"B"}, r1, r2)
	viaLowerB := pathVia([]string{" b"}, r1, r2)
	viaC := pathVia([]string{"C"}, r1, r2)
	if viaB.Key() != viaLowerB.Key() {
		t.Error("transfer names should compare normalized")
	}
	if viaB.Key() == viaC.Key() {
		t.Error("different transfer stops should give different keys")
	}

	// A stop name containing characters a string key would use as separators.
	tricky := pathVia([]string{"R1,R2:B"}, r1, r2)
	if tricky.Key() == viaB.Key() {
		t.Error("separator characters in names must not collide")
	}

	if direct.Key() == pathVia([]string{"B"}, r1, r2).Key() {
		t.Error("direct and transfer paths must never share a key")
	}
}

func TestDedupe_FirstWins(t *testing.T) {
	r1 := &models.Route{Number: "R1"}
	r2 := &models.Route{Number: "R2"}

	first := pathVia(nil, r1)
	first.Legs[0].Stops = []string{"first", "leg"}
	paths := []Path{
		first,
		pathVia([]string{"B"}, r1, r2),
		pathVia(nil, r1),
		pathVia([]string{"B"}, r1, r2),
		pathVia([]string{"C"}, r1, r2),
	}

	got := Dedupe(paths)
	if len(got) != 3 {
		t.Fatalf("got %d paths, want 3", len(got))
	}
	if got[0].Legs[0].Stops[0] != "first" {
		t.Error("first occurrence should be kept")
	}
	if got[1].Transfers[0] != "B" || got[2].Transfers[0] != "C" {
		t.Errorf("order not preserved: %v, %v", got[1].Transfers, got[2].Transfers)
	}
}

func TestRank_StableByLegCount(t *testing.T) {
	r1 := &models.Route{Number: "R1"}
	r2 := &models.Route{Number: "R2"}
	r3 := &models.Route{Number: "R3"}

	paths := []Path{
		pathVia([]string{"B", "C"}, r1, r2, r3),
		pathVia([]string{"B"}, r1, r2),
		pathVia(nil, r3),
		pathVia([]string{"D"}, r2, r3),
		pathVia(nil, r1),
	}

	got := Rank(paths)
	wantKinds := []Kind{KindDirect, KindDirect, KindOneTransfer, KindOneTransfer, KindTwoTransfer}
	for i, k := range wantKinds {
		if got[i].Kind != k {
			t.Errorf("result %d kind = %q, want %q", i, got[i].Kind, k)
		}
	}
	if got[0].Legs[0].Route.Number != "R3" || got[1].Legs[0].Route.Number != "R1" {
		t.Error("direct ties should keep first-seen order")
	}
	if got[2].Transfers[0] != "B" || got[3].Transfers[0] != "D" {
		t.Error("one-transfer ties should keep first-seen order")
	}
}
