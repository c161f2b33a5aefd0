package gtfs

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/you/busroutes/models"
)

// BuildRoutes turns a parsed feed into catalog routes, one per GTFS route in
// routes.txt order. The stop sequence comes from the route's longest trip,
// preferring direction 0. Service hours span the first and last departures
// from the first stop across trips in that direction, and Frequency is the
// mean headway between them in whole minutes.
//
// Routes whose representative trip has fewer than two distinct stops are
// skipped.
func BuildRoutes(data *Data, logger *slog.Logger) []models.Route {
	stopNames := make(map[string]string, len(data.Stops))
	for _, s := range data.Stops {
		name := s.StopName
		if name == "" {
			name = s.StopID
		}
		stopNames[s.StopID] = name
	}

	byTrip := make(map[string][]StopTime)
	for _, st := range data.StopTimes {
		byTrip[st.TripID] = append(byTrip[st.TripID], st)
	}
	for id := range byTrip {
		times := byTrip[id]
		sort.SliceStable(times, func(i, j int) bool {
			return times[i].StopSequence < times[j].StopSequence
		})
	}

	tripsByRoute := make(map[string][]Trip)
	for _, t := range data.Trips {
		if len(byTrip[t.TripID]) == 0 {
			continue
		}
		tripsByRoute[t.RouteID] = append(tripsByRoute[t.RouteID], t)
	}

	routes := make([]models.Route, 0, len(data.Routes))
	for _, gr := range data.Routes {
		trips := preferredDirection(tripsByRoute[gr.RouteID])
		if len(trips) == 0 {
			logger.Debug("skipping route without trips", "route_id", gr.RouteID)
			continue
		}

		longest := trips[0]
		for _, t := range trips[1:] {
			if len(byTrip[t.TripID]) > len(byTrip[longest.TripID]) {
				longest = t
			}
		}

		stops := stopSequence(byTrip[longest.TripID], stopNames)
		if len(stops) < 2 {
			logger.Warn("skipping route with fewer than two stops", "route_id", gr.RouteID)
			continue
		}

		number := gr.RouteShortName
		if number == "" {
			number = gr.RouteID
		}
		name := gr.RouteLongName
		if name == "" {
			name = stops[0] + " - " + stops[len(stops)-1]
		}

		start, end, freq := serviceSpan(trips, byTrip)
		routes = append(routes, models.Route{
			Number:    number,
			Name:      name,
			Stops:     stops,
			StartTime: start,
			EndTime:   end,
			Frequency: freq,
		})
	}

	logger.Info("built routes from GTFS", "routes", len(routes), "gtfs_routes", len(data.Routes))
	return routes
}

// preferredDirection returns the direction 0 trips, or all trips when the
// route has none.
func preferredDirection(trips []Trip) []Trip {
	var outbound []Trip
	for _, t := range trips {
		if t.DirectionID == 0 {
			outbound = append(outbound, t)
		}
	}
	if len(outbound) > 0 {
		return outbound
	}
	return trips
}

// stopSequence resolves stop names and drops stops already visited, since
// catalog routes may not repeat a stop.
func stopSequence(times []StopTime, names map[string]string) []string {
	seen := make(map[string]bool, len(times))
	stops := make([]string, 0, len(times))
	for _, st := range times {
		name, ok := names[st.StopID]
		if !ok {
			name = st.StopID
		}
		key := models.NormalizeStop(name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		stops = append(stops, name)
	}
	return stops
}

func serviceSpan(trips []Trip, byTrip map[string][]StopTime) (start, end, frequency string) {
	var departures []int
	for _, t := range trips {
		if secs, ok := parseGTFSTime(byTrip[t.TripID][0].DepartureTime); ok {
			departures = append(departures, secs)
		}
	}
	if len(departures) == 0 {
		return "", "", ""
	}
	sort.Ints(departures)

	first, last := departures[0], departures[len(departures)-1]
	start, end = formatClock(first), formatClock(last)
	if len(departures) > 1 {
		headway := float64(last-first) / float64(len(departures)-1) / 60
		frequency = strconv.Itoa(int(headway + 0.5))
	}
	return start, end, frequency
}

// parseGTFSTime parses HH:MM:SS into seconds after midnight. Hours may
// exceed 23 for trips that run past midnight.
func parseGTFSTime(s string) (int, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, false
	}
	var v [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, false
		}
		v[i] = n
	}
	return v[0]*3600 + v[1]*60 + v[2], true
}

func formatClock(secs int) string {
	return fmt.Sprintf("%02d:%02d", secs/3600, secs%3600/60)
}
