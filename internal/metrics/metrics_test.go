package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	return m.GetCounter().GetValue()
}

func sampleCount(t *testing.T, h prometheus.Histogram) uint64 {
	t.Helper()
	m := &dto.Metric{}
	if err := h.Write(m); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func TestObserveRejected_OnlyCounts(t *testing.T) {
	rejected := searchTotal.WithLabelValues(OutcomeRejected)
	before := counterValue(t, rejected)
	durations := sampleCount(t, searchDuration)
	results := sampleCount(t, searchResults)

	ObserveRejected()
	ObserveRejected()

	if got := counterValue(t, rejected) - before; got != 2 {
		t.Errorf("rejected counter grew by %v, want 2", got)
	}
	if got := sampleCount(t, searchDuration); got != durations {
		t.Errorf("duration histogram has %d samples, want %d", got, durations)
	}
	if got := sampleCount(t, searchResults); got != results {
		t.Errorf("result histogram has %d samples, want %d", got, results)
	}
}

func TestObserveSearch(t *testing.T) {
	tests := []struct {
		outcome     string
		wantResults uint64
	}{
		{OutcomeFound, 1},
		{OutcomeEmpty, 1},
		{OutcomeTimeout, 0},
	}
	for _, tc := range tests {
		t.Run(tc.outcome, func(t *testing.T) {
			durations := sampleCount(t, searchDuration)
			results := sampleCount(t, searchResults)

			ObserveSearch(tc.outcome, 3*time.Millisecond, 2)

			if got := sampleCount(t, searchDuration) - durations; got != 1 {
				t.Errorf("duration samples grew by %d, want 1", got)
			}
			if got := sampleCount(t, searchResults) - results; got != tc.wantResults {
				t.Errorf("result samples grew by %d, want %d", got, tc.wantResults)
			}
		})
	}
}

func TestObserveCatalogReload(t *testing.T) {
	failed := catalogReloads.WithLabelValues("error")
	before := counterValue(t, failed)

	ObserveCatalogReload(errors.New("database is locked"), 0)

	if got := counterValue(t, failed) - before; got != 1 {
		t.Errorf("error reloads grew by %v, want 1", got)
	}
}
