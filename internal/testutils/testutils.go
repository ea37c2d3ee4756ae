package testutils

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/example/aviary/internal/telemetry"
)

// TestLogger creates a logger for testing that can be silenced
func TestLogger(prefix string, silent bool) *log.Logger {
	if silent {
		return log.New(io.Discard, prefix, log.LstdFlags)
	}
	return log.New(os.Stdout, prefix, log.LstdFlags)
}

// SampleRecords returns a minute buffer of valid telemetry records for
// testing the aggregator and batch writer.
func SampleRecords(schema telemetry.Schema) []*telemetry.Record {
	base := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	rows := [][]float64{
		{50, 300},
		{55, 310},
		{45, 305},
	}
	records := make([]*telemetry.Record, 0, len(rows))
	for i, row := range rows {
		records = append(records, telemetry.NewRecord(schema, row, base.Add(time.Duration(i)*time.Second)))
	}
	return records
}

// SampleAggregate returns one aggregated record for testing the sinks.
func SampleAggregate() telemetry.Aggregate {
	return telemetry.Aggregate{
		Values: map[string]string{
			"lights_on_time_min":     "45.0",
			"lights_on_time_max":     "55.0",
			"lights_on_time_median":  "50.0",
			"lights_off_time_min":    "300.0",
			"lights_off_time_max":    "310.0",
			"lights_off_time_median": "305.0",
		},
		DateTime: time.Date(2026, 8, 30, 9, 1, 0, 0, time.UTC).Format(telemetry.TimestampLayout),
	}
}

// SetupTestEnvironment sets up common environment variables for testing
func SetupTestEnvironment() {
	os.Setenv("DATA_OUTPUT_BASE_PATH", "/tmp/aviary-test")
	os.Setenv("CAGE_ID", "7")
	os.Setenv("BIRD_NAME", "testbird")
	os.Setenv("TIMEZONE", "UTC")
}

// CleanupTestEnvironment cleans up test environment variables
func CleanupTestEnvironment() {
	os.Unsetenv("DATA_OUTPUT_BASE_PATH")
	os.Unsetenv("CAGE_ID")
	os.Unsetenv("BIRD_NAME")
	os.Unsetenv("TIMEZONE")
	os.Unsetenv("SUNRISE")
	os.Unsetenv("SUNSET")
	os.Unsetenv("STABLE_DATE")
	os.Unsetenv("DAYS_OFFSET")
}
