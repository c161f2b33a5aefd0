package gtfs

// Data holds the parts of a GTFS static feed the route catalog is built from
type Data struct {
	Routes    []Route
	Stops     []Stop
	Trips     []Trip
	StopTimes []StopTime
}

// Route represents a route from routes.txt
type Route struct {
	RouteID        string
	AgencyID       string
	RouteShortName string
	RouteLongName  string
	RouteType      int
}

// Stop represents a stop from stops.txt
type Stop struct {
	StopID        string
	StopName      string
	ParentStation string
}

// Trip represents a trip from trips.txt
type Trip struct {
	RouteID     string
	ServiceID   string
	TripID      string
	DirectionID int
}

// StopTime represents a stop time from stop_times.txt
type StopTime struct {
	TripID        string
	DepartureTime string
	StopID        string
	StopSequence  int
}
