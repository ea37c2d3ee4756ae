package influx

import (
	"context"
	"fmt"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"

	"github.com/example/aviary/internal/telemetry"
)

// AggregateWriter mirrors aggregated minute records to InfluxDB so the lab's
// Grafana dashboards can plot cage history without parsing the CSV dumps.
type AggregateWriter struct {
	client   influxdb2.Client
	org      string
	bucket   string
	cageID   string
	birdName string
}

// NewAggregateWriter connects to InfluxDB. The cage and bird identifiers tag
// every written point.
func NewAggregateWriter(url, token, org, bucket, cageID, birdName string) *AggregateWriter {
	client := influxdb2.NewClient(url, token)
	return &AggregateWriter{
		client:   client,
		org:      org,
		bucket:   bucket,
		cageID:   cageID,
		birdName: birdName,
	}
}

// WriteAggregate writes one point per sensor field carrying that field's
// min/max/median. Values that fail to parse back to numbers (possible after a
// partial aggregation) are skipped rather than failing the write.
func (aw *AggregateWriter) WriteAggregate(agg telemetry.Aggregate, schema telemetry.Schema) error {
	ts, err := time.ParseInLocation(telemetry.TimestampLayout, agg.DateTime, time.Local)
	if err != nil {
		ts = time.Now()
	}

	writeAPI := aw.client.WriteAPIBlocking(aw.org, aw.bucket)
	for _, field := range schema.SensorFields() {
		fields := map[string]interface{}{}
		for _, suffix := range []string{"min", "max", "median"} {
			raw, ok := agg.Values[field+"_"+suffix]
			if !ok {
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				continue
			}
			fields[suffix] = v
		}
		if len(fields) == 0 {
			continue
		}

		p := influxdb2.NewPoint(
			field,
			map[string]string{
				"cage_id":   aw.cageID,
				"bird_name": aw.birdName,
			},
			fields,
			ts,
		)
		if err := writeAPI.WritePoint(context.Background(), p); err != nil {
			return err
		}
	}
	return nil
}

// DeleteAllData removes every point in the bucket. Used by the prune tool.
func (aw *AggregateWriter) DeleteAllData() error {
	return aw.deleteRange(time.Unix(0, 0), time.Now(), "")
}

// DeleteBefore removes points older than the cutoff. Used by the prune tool
// to keep the mirror aligned with the on-disk retention window.
func (aw *AggregateWriter) DeleteBefore(cutoff time.Time) error {
	return aw.deleteRange(time.Unix(0, 0), cutoff, "")
}

// DeleteField removes points for one sensor field's measurement.
func (aw *AggregateWriter) DeleteField(field string) error {
	return aw.deleteRange(time.Unix(0, 0), time.Now(), fmt.Sprintf(`_measurement="%s"`, field))
}

func (aw *AggregateWriter) deleteRange(start, stop time.Time, predicate string) error {
	deleteAPI := aw.client.DeleteAPI()
	return deleteAPI.DeleteWithName(context.Background(), aw.org, aw.bucket, start, stop, predicate)
}

func (aw *AggregateWriter) Close() {
	aw.client.Close()
}
