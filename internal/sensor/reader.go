package sensor

import (
	"fmt"
	"log"
	"time"

	"github.com/example/aviary/internal/metrics"
	"github.com/example/aviary/internal/telemetry"
)

// Reader pulls one validated telemetry record per call from the transport.
type Reader struct {
	transport Transport
	schema    telemetry.Schema
	logger    *log.Logger

	buf []byte
}

// NewReader wraps a connected transport. The transport's read timeout bounds
// every ReadSample call.
func NewReader(transport Transport, schema telemetry.Schema, logger *log.Logger) *Reader {
	return &Reader{
		transport: transport,
		schema:    schema,
		logger:    logger,
		buf:       make([]byte, 0, 128),
	}
}

// ReadSample reads exactly one line, timestamps it, parses it and verifies
// the field count against the schema. A nil record means the sample was
// rejected (logged with the raw payload) and the caller should simply retry
// on the next tick; no rejection is ever fatal.
func (r *Reader) ReadSample() *telemetry.Record {
	readAt := time.Now()

	raw, err := r.readLine()
	if err != nil {
		r.logger.Printf("Failed reading data from the sensor board: %v", err)
		metrics.RecordSampleRead("read_error")
		return nil
	}

	values, err := ParseLine(raw)
	if err != nil {
		r.logger.Printf("Failed parsing a row, ignoring this record (raw data was %q): %v", raw, err)
		metrics.RecordSampleRead("parse_error")
		return nil
	}

	if len(values) != r.schema.SensorFieldCount() {
		r.logger.Printf("Unexpected field count %d (want %d), ignoring this record (raw data was %q)",
			len(values), r.schema.SensorFieldCount(), raw)
		metrics.RecordSampleRead("arity_mismatch")
		return nil
	}

	metrics.RecordSampleRead("ok")
	return telemetry.NewRecord(r.schema, values, readAt)
}

// readLine accumulates bytes until a newline. The serial library returns a
// zero-byte read when the per-read timeout expires; with no newline in hand
// that counts as a failed read. Bytes past a newline are kept for the next
// call so a chatty board never corrupts framing.
func (r *Reader) readLine() ([]byte, error) {
	if line, ok := r.takeBuffered(); ok {
		return line, nil
	}
	chunk := make([]byte, 64)
	for {
		n, err := r.transport.Read(chunk)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, fmt.Errorf("read timed out before a full line arrived")
		}
		r.buf = append(r.buf, chunk[:n]...)
		if line, ok := r.takeBuffered(); ok {
			return line, nil
		}
	}
}

func (r *Reader) takeBuffered() ([]byte, bool) {
	for i, b := range r.buf {
		if b == '\n' {
			line := make([]byte, i+1)
			copy(line, r.buf[:i+1])
			r.buf = append(r.buf[:0], r.buf[i+1:]...)
			return line, true
		}
	}
	return nil, false
}
