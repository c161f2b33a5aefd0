package gtfs

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/busroutes/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFeed(t *testing.T, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feed.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return path
}

var sampleFeed = map[string]string{
	"routes.txt": "\ufeffroute_id,agency_id,route_short_name,route_long_name,route_type\n" +
		"r1,bmtc,500D,Hebbal - Silk Board,3\n" +
		"r2,bmtc,,,3\n" +
		"r3,bmtc,999,Ghost,3\n",
	"stops.txt": "stop_id,stop_name,parent_station\n" +
		"s1,Hebbal,\n" +
		"s2,Marathahalli,\n" +
		"s3,Silk Board,\n" +
		"s4,Majestic,\n",
	"trips.txt": "route_id,service_id,trip_id,direction_id\n" +
		"r1,wk,t1,0\n" +
		"r1,wk,t2,0\n" +
		"r1,wk,t3,0\n" +
		"r1,wk,t4,1\n" +
		"r2,wk,t5,1\n",
	"stop_times.txt": "trip_id,arrival_time,departure_time,stop_id,stop_sequence\n" +
		// t1 is out of order in the file; sequence decides.
		"t1,06:20:00,06:20:00,s3,3\n" +
		"t1,06:00:00,06:00:00,s1,1\n" +
		"t1,06:10:00,06:10:00,s2,2\n" +
		"t2,06:30:00,06:30:00,s1,1\n" +
		"t2,06:50:00,06:50:00,s3,2\n" +
		"t3,07:00:00,07:00:00,s1,1\n" +
		"t3,07:20:00,07:20:00,s3,2\n" +
		// direction 1 is longer but direction 0 wins.
		"t4,05:00:00,05:00:00,s3,1\n" +
		"t4,05:10:00,05:10:00,s2,2\n" +
		"t4,05:20:00,05:20:00,s1,3\n" +
		"t4,05:30:00,05:30:00,s4,4\n" +
		"t5,25:10:00,25:10:00,s4,1\n" +
		"t5,25:30:00,25:30:00,s4,2\n" +
		"t5,25:40:00,25:40:00,s2,3\n",
}

func TestParse(t *testing.T) {
	data, err := Parse(writeFeed(t, sampleFeed), testLogger())
	require.NoError(t, err)

	assert.Len(t, data.Routes, 3)
	assert.Equal(t, "r1", data.Routes[0].RouteID, "BOM must not hide the first column")
	assert.Len(t, data.Stops, 4)
	assert.Len(t, data.Trips, 5)
	assert.Len(t, data.StopTimes, 14)
}

func TestParse_MissingFile(t *testing.T) {
	files := map[string]string{}
	for k, v := range sampleFeed {
		if k != "trips.txt" {
			files[k] = v
		}
	}

	_, err := Parse(writeFeed(t, files), testLogger())
	assert.True(t, errors.Is(err, ErrMissingFile), "got %v", err)
}

func TestParse_NotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.zip")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0644))

	_, err := Parse(path, testLogger())
	assert.Error(t, err)
}

// writeStoredFeed writes files uncompressed so their bytes can be located
// and altered in the archive.
func writeStoredFeed(t *testing.T, files map[string]string) (string, []byte) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return filepath.Join(t.TempDir(), "feed.zip"), buf.Bytes()
}

func TestParse_CorruptEntry(t *testing.T) {
	path, raw := writeStoredFeed(t, sampleFeed)

	at := bytes.Index(raw, []byte("t5,25:40:00"))
	require.GreaterOrEqual(t, at, 0)
	raw[at+3] = '6' // still valid CSV, wrong CRC
	require.NoError(t, os.WriteFile(path, raw, 0644))

	done := make(chan error, 1)
	go func() {
		_, err := Parse(path, testLogger())
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, zip.ErrChecksum)
	case <-time.After(5 * time.Second):
		t.Fatal("Parse did not return on a corrupt zip entry")
	}
}

func TestParse_SkipsMalformedRows(t *testing.T) {
	files := map[string]string{}
	for k, v := range sampleFeed {
		files[k] = v
	}
	files["stops.txt"] += "s9,\"Bad\"name,\n"

	data, err := Parse(writeFeed(t, files), testLogger())
	require.NoError(t, err)
	assert.Len(t, data.Stops, 4)
}

func TestBuildRoutes(t *testing.T) {
	data, err := Parse(writeFeed(t, sampleFeed), testLogger())
	require.NoError(t, err)

	routes := BuildRoutes(data, testLogger())
	require.Len(t, routes, 2)

	assert.Equal(t, models.Route{
		Number:    "500D",
		Name:      "Hebbal - Silk Board",
		Stops:     []string{"Hebbal", "Marathahalli", "Silk Board"},
		StartTime: "06:00",
		EndTime:   "07:00",
		Frequency: "30",
	}, routes[0])

	// No short or long name, only direction 1 trips, a repeated stop and
	// times past midnight.
	assert.Equal(t, models.Route{
		Number:    "r2",
		Name:      "Majestic - Marathahalli",
		Stops:     []string{"Majestic", "Marathahalli"},
		StartTime: "25:10",
		EndTime:   "25:10",
	}, routes[1])

	for _, r := range routes {
		assert.NoError(t, r.Validate())
	}
}

func TestParseGTFSTime(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"00:00:00", 0, true},
		{"06:30:15", 6*3600 + 30*60 + 15, true},
		{"24:05:00", 24*3600 + 5*60, true},
		{"6:30", 0, false},
		{"", 0, false},
		{"aa:bb:cc", 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := parseGTFSTime(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}
