package gtfs

import (
	"archive/zip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// ErrMissingFile is returned when a feed lacks one of the files the
// catalog needs.
var ErrMissingFile = errors.New("gtfs feed is missing a required file")

var requiredFiles = []string{"routes.txt", "stops.txt", "trips.txt", "stop_times.txt"}

// Parse reads a GTFS zip file and returns parsed data
func Parse(zipPath string, logger *slog.Logger) (*Data, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}
	defer r.Close()

	files := make(map[string]*zip.File)
	for _, f := range r.File {
		files[f.Name] = f
	}
	for _, name := range requiredFiles {
		if _, ok := files[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingFile, name)
		}
	}

	data := &Data{}

	err = readTable(files["routes.txt"], func(row row) {
		routeType, _ := strconv.Atoi(row.get("route_type"))
		data.Routes = append(data.Routes, Route{
			RouteID:        row.get("route_id"),
			AgencyID:       row.get("agency_id"),
			RouteShortName: row.get("route_short_name"),
			RouteLongName:  row.get("route_long_name"),
			RouteType:      routeType,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse routes.txt: %w", err)
	}

	err = readTable(files["stops.txt"], func(row row) {
		data.Stops = append(data.Stops, Stop{
			StopID:        row.get("stop_id"),
			StopName:      row.get("stop_name"),
			ParentStation: row.get("parent_station"),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse stops.txt: %w", err)
	}

	err = readTable(files["trips.txt"], func(row row) {
		directionID, _ := strconv.Atoi(row.get("direction_id"))
		data.Trips = append(data.Trips, Trip{
			RouteID:     row.get("route_id"),
			ServiceID:   row.get("service_id"),
			TripID:      row.get("trip_id"),
			DirectionID: directionID,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse trips.txt: %w", err)
	}

	err = readTable(files["stop_times.txt"], func(row row) {
		seq, err := strconv.Atoi(row.get("stop_sequence"))
		if err != nil {
			return
		}
		data.StopTimes = append(data.StopTimes, StopTime{
			TripID:        row.get("trip_id"),
			DepartureTime: row.get("departure_time"),
			StopID:        row.get("stop_id"),
			StopSequence:  seq,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse stop_times.txt: %w", err)
	}

	logger.Info("GTFS parsed",
		"routes", len(data.Routes),
		"stops", len(data.Stops),
		"trips", len(data.Trips),
		"stop_times", len(data.StopTimes))

	return data, nil
}

// row is one CSV record addressed by header name
type row struct {
	record []string
	idx    map[string]int
}

func (r row) get(field string) string {
	if i, ok := r.idx[field]; ok && i < len(r.record) {
		return strings.TrimSpace(r.record[i])
	}
	return ""
}

// readTable calls fn for every well-formed record of f. Malformed records
// are skipped; any other read error, such as a failed zip checksum, ends
// the table with that error.
func readTable(f *zip.File, fn func(row)) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	reader := csv.NewReader(rc)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return err
	}

	idx := makeIndex(header)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				continue
			}
			return err
		}
		fn(row{record: record, idx: idx})
	}
}

func makeIndex(header []string) map[string]int {
	idx := make(map[string]int)
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}
