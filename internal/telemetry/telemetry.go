package telemetry

import "time"

// TimestampField is the name of the schema field the daemon fills in locally.
// It must always be the last field of the schema: the device sends every field
// except this one, and the reader verifies arity by counting the rest.
const TimestampField = "dateTime"

// TimestampLayout matches the timestamp format the original cage logs used.
const TimestampLayout = "2006_01_02_15_04_05.000000"

// DefaultSchema is the field set the sensor board reports, timestamp last.
var DefaultSchema = Schema{"lights_on_time", "lights_off_time", TimestampField}

// Schema is the fixed, ordered set of field names expected in every record.
type Schema []string

// SensorFields returns the schema fields the device actually sends, i.e.
// everything except the locally appended timestamp.
func (s Schema) SensorFields() []string {
	fields := make([]string, 0, len(s))
	for _, f := range s {
		if f != TimestampField {
			fields = append(fields, f)
		}
	}
	return fields
}

// SensorFieldCount is the number of values one telemetry line must carry.
func (s Schema) SensorFieldCount() int {
	return len(s.SensorFields())
}

// Record is one validated telemetry sample: every sensor field of the schema
// mapped to its value, plus the formatted local read timestamp.
type Record struct {
	Values   map[string]float64
	DateTime string
}

// NewRecord zips the schema's sensor fields with values. The caller must have
// verified the arity already; a mismatch here returns a nil record.
func NewRecord(schema Schema, values []float64, readAt time.Time) *Record {
	fields := schema.SensorFields()
	if len(values) != len(fields) {
		return nil
	}
	rec := &Record{
		Values:   make(map[string]float64, len(fields)),
		DateTime: readAt.Format(TimestampLayout),
	}
	for i, f := range fields {
		rec.Values[f] = values[i]
	}
	return rec
}

// Aggregate is one minute's worth of samples reduced to min/max/median per
// sensor field, each formatted as text, plus the aggregation timestamp.
type Aggregate struct {
	Values   map[string]string `json:"values"`
	DateTime string            `json:"dateTime"`
}

// Columns returns the CSV column order for aggregates built from the schema:
// min, max, median per sensor field in schema order, timestamp last.
func (s Schema) Columns() []string {
	cols := make([]string, 0, 3*s.SensorFieldCount()+1)
	for _, f := range s.SensorFields() {
		cols = append(cols, f+"_min", f+"_max", f+"_median")
	}
	return append(cols, TimestampField)
}

// Row serializes an aggregate in the given column order. Missing values
// (from a partial aggregation) come out as empty cells.
func (a Aggregate) Row(columns []string) []string {
	row := make([]string, 0, len(columns))
	for _, col := range columns {
		if col == TimestampField {
			row = append(row, a.DateTime)
			continue
		}
		row = append(row, a.Values[col])
	}
	return row
}
