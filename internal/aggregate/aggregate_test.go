package aggregate

import (
	"testing"
	"time"

	"github.com/example/aviary/internal/telemetry"
	"github.com/example/aviary/internal/testutils"
)

func TestMinute(t *testing.T) {
	logger := testutils.TestLogger("[test] ", true)
	schema := telemetry.DefaultSchema

	t.Run("Min Max Median Per Field", func(t *testing.T) {
		records := testutils.SampleRecords(schema) // on: 50,55,45  off: 300,310,305

		agg := Minute(records, schema, logger)

		expected := map[string]string{
			"lights_on_time_min":     "45.0",
			"lights_on_time_max":     "55.0",
			"lights_on_time_median":  "50.0",
			"lights_off_time_min":    "300.0",
			"lights_off_time_max":    "310.0",
			"lights_off_time_median": "305.0",
		}
		for key, want := range expected {
			if got := agg.Values[key]; got != want {
				t.Errorf("Expected %s=%s, got %s", key, want, got)
			}
		}
		if agg.DateTime == "" {
			t.Error("Expected a fresh aggregation timestamp")
		}
		if _, err := time.Parse(telemetry.TimestampLayout, agg.DateTime); err != nil {
			t.Errorf("Timestamp %q does not match the expected layout: %v", agg.DateTime, err)
		}
	})

	t.Run("Single Record", func(t *testing.T) {
		now := time.Now()
		records := []*telemetry.Record{
			telemetry.NewRecord(schema, []float64{50, 300}, now),
		}

		agg := Minute(records, schema, logger)

		for _, key := range []string{"lights_on_time_min", "lights_on_time_max", "lights_on_time_median"} {
			if got := agg.Values[key]; got != "50.0" {
				t.Errorf("Expected %s=50.0, got %s", key, got)
			}
		}
	})

	t.Run("Even Count Median Is Mean Of Middle Pair", func(t *testing.T) {
		now := time.Now()
		records := []*telemetry.Record{
			telemetry.NewRecord(schema, []float64{1, 0}, now),
			telemetry.NewRecord(schema, []float64{2, 0}, now),
			telemetry.NewRecord(schema, []float64{3, 0}, now),
			telemetry.NewRecord(schema, []float64{4, 0}, now),
		}

		agg := Minute(records, schema, logger)

		if got := agg.Values["lights_on_time_median"]; got != "2.5" {
			t.Errorf("Expected median 2.5, got %s", got)
		}
	})

	t.Run("Fractional Values Keep Precision", func(t *testing.T) {
		now := time.Now()
		records := []*telemetry.Record{
			telemetry.NewRecord(schema, []float64{14.6, 0.25}, now),
		}

		agg := Minute(records, schema, logger)

		if got := agg.Values["lights_on_time_min"]; got != "14.6" {
			t.Errorf("Expected 14.6, got %s", got)
		}
		if got := agg.Values["lights_off_time_max"]; got != "0.25" {
			t.Errorf("Expected 0.25, got %s", got)
		}
	})

	t.Run("Missing Field Yields Partial Aggregate", func(t *testing.T) {
		// Heterogeneous records with one schema field absent everywhere.
		records := []*telemetry.Record{
			{Values: map[string]float64{"lights_on_time": 50}, DateTime: "x"},
			{Values: map[string]float64{"lights_on_time": 60}, DateTime: "y"},
		}

		agg := Minute(records, schema, logger)

		if got := agg.Values["lights_on_time_min"]; got != "50.0" {
			t.Errorf("Expected surviving field aggregated, got %s", got)
		}
		if _, ok := agg.Values["lights_off_time_min"]; ok {
			t.Error("Expected missing field to be absent from the aggregate")
		}
		if agg.DateTime == "" {
			t.Error("Expected the timestamp even on partial aggregation")
		}
	})
}

func TestMedian(t *testing.T) {
	cases := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"Odd Count", []float64{3, 1, 2}, 2},
		{"Even Count", []float64{4, 1, 3, 2}, 2.5},
		{"Single", []float64{7}, 7},
		{"Duplicates", []float64{5, 5, 5, 5}, 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := median(tc.values); got != tc.want {
				t.Errorf("Expected median %v, got %v", tc.want, got)
			}
		})
	}
}
