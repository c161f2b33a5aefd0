package models

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Route is one bus route of the catalog as stored and served.
// Stops are listed in the order the bus travels them.
type Route struct {
	Number    string   `json:"number" yaml:"number" validate:"required"`
	Name      string   `json:"name" yaml:"name"`
	Stops     []string `json:"stops" yaml:"stops" validate:"min=2,dive,required"`
	StartTime string   `json:"start_time,omitempty" yaml:"start_time"`
	EndTime   string   `json:"end_time,omitempty" yaml:"end_time"`
	Frequency string   `json:"frequency,omitempty" yaml:"frequency"`
}

// NormalizeStop reduces a stop name to its comparison form: surrounding
// whitespace trimmed and Unicode case folded.
func NormalizeStop(name string) string {
	// A Caser keeps state, so one is made per call.
	return cases.Fold().String(strings.TrimSpace(name))
}

// Clone returns a copy that shares no memory with r.
func (r Route) Clone() Route {
	out := r
	out.Stops = append([]string(nil), r.Stops...)
	return out
}

// Validate checks the route before it is written to the catalog.
// Loop routes that revisit a stop are rejected here; the search itself
// tolerates them.
func (r *Route) Validate() error {
	if strings.TrimSpace(r.Number) == "" {
		return errors.New("number is required")
	}

	if len(r.Stops) < 2 {
		return fmt.Errorf("route %s: at least two stops are required, got %d", r.Number, len(r.Stops))
	}

	seen := make(map[string]int, len(r.Stops))
	for i, stop := range r.Stops {
		n := NormalizeStop(stop)
		if n == "" {
			return fmt.Errorf("route %s: stop %d is blank", r.Number, i)
		}
		if j, ok := seen[n]; ok {
			return fmt.Errorf("route %s: stop %q repeats at positions %d and %d", r.Number, stop, j, i)
		}
		seen[n] = i
	}

	return nil
}
