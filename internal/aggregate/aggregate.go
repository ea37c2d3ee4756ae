package aggregate

import (
	"fmt"
	"log"
	"sort"
	"strconv"
	"time"

	"github.com/example/aviary/internal/metrics"
	"github.com/example/aviary/internal/telemetry"
)

// Minute reduces one minute's worth of records to min/max/median per sensor
// field, formatted as text, stamped with the aggregation time (not any
// sample's own timestamp).
//
// Aggregation never fails the loop: a field absent from the whole batch is
// logged together with the full input dump and simply left out of the result,
// so a best-effort aggregate always comes back.
func Minute(records []*telemetry.Record, schema telemetry.Schema, logger *log.Logger) telemetry.Aggregate {
	agg := telemetry.Aggregate{
		Values:   make(map[string]string, 3*schema.SensorFieldCount()),
		DateTime: time.Now().Format(telemetry.TimestampLayout),
	}

	status := "ok"
	for _, field := range schema.SensorFields() {
		values := collect(records, field)
		if len(values) == 0 {
			logger.Printf("Failed aggregating data, field %q missing from all %d records:", field, len(records))
			for _, rec := range records {
				logger.Printf("  %v (%s)", rec.Values, rec.DateTime)
			}
			status = "partial"
			continue
		}
		agg.Values[field+"_min"] = formatValue(minOf(values))
		agg.Values[field+"_max"] = formatValue(maxOf(values))
		agg.Values[field+"_median"] = formatValue(median(values))
	}
	metrics.RecordAggregation(status)

	return agg
}

func collect(records []*telemetry.Record, field string) []float64 {
	values := make([]float64, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		if v, ok := rec.Values[field]; ok {
			values = append(values, v)
		}
	}
	return values
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// median is the numeric median: the middle value for odd counts, the mean of
// the two middle values for even counts.
func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// formatValue renders aggregates the way the historical logs did: integral
// values keep a trailing .0, everything else uses the shortest exact form.
func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%.1f", v)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
