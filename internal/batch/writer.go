package batch

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/example/aviary/internal/metrics"
	"github.com/example/aviary/internal/schedule"
	"github.com/example/aviary/internal/telemetry"
)

// DefaultFlushDelay is how long aggregates accumulate before a dump, unless
// the operator configures otherwise.
const DefaultFlushDelay = 3 * time.Minute

// Writer accumulates aggregated minute records and dumps them to a fresh CSV
// file once the flush delay has elapsed. The flush is time-gated, never
// count-gated: a batch with a single record still flushes when it is due.
//
// Writer owns file naming entirely, including which scheduling-mode suffix
// the filename carries.
type Writer struct {
	outputDir  string
	cageID     string
	birdName   string
	mode       schedule.Mode
	flushDelay time.Duration
	schema     telemetry.Schema
	logger     *log.Logger

	records    []telemetry.Aggregate
	batchStart time.Time
}

// NewWriter creates a batch writer. The scheduling mode is resolved once at
// config-load time and fixed for the writer's lifetime.
func NewWriter(outputDir, cageID, birdName string, mode schedule.Mode, flushDelay time.Duration, schema telemetry.Schema, logger *log.Logger) *Writer {
	if flushDelay <= 0 {
		flushDelay = DefaultFlushDelay
	}
	return &Writer{
		outputDir:  outputDir,
		cageID:     cageID,
		birdName:   birdName,
		mode:       mode,
		flushDelay: flushDelay,
		schema:     schema,
		logger:     logger,
		batchStart: time.Now(),
	}
}

// Add appends one aggregated record to the pending batch.
func (w *Writer) Add(agg telemetry.Aggregate) {
	w.records = append(w.records, agg)
	metrics.SetBatchSize(len(w.records))
}

// Len reports how many aggregates are pending.
func (w *Writer) Len() int {
	return len(w.records)
}

// Due reports whether the flush delay has elapsed since the batch started.
func (w *Writer) Due(now time.Time) bool {
	return now.Sub(w.batchStart) >= w.flushDelay
}

// Filename encodes the cage, bird, write time and the active scheduling-mode
// suffix, e.g. cage_3_rocky_20260830_14_05_02_manually_set.csv.
func (w *Writer) Filename(now time.Time) string {
	return fmt.Sprintf("cage_%s_%s_%s_%s.csv",
		w.cageID, w.birdName, now.Format("20060102_15_04_05"), w.mode.FileSuffix())
}

// Flush serializes every pending aggregate to a new CSV file in the output
// directory, then resets the batch and its start time. No atomic-write
// guarantee: these dumps are continuously re-created and human-supervised.
func (w *Writer) Flush(now time.Time) (string, error) {
	start := time.Now()
	path := filepath.Join(w.outputDir, w.Filename(now))

	if err := w.writeFile(path); err != nil {
		metrics.RecordFlush("error", time.Since(start))
		return "", err
	}

	w.logger.Printf("Successfully wrote %d aggregated records to %s", len(w.records), path)
	metrics.RecordFlush("success", time.Since(start))

	w.records = w.records[:0]
	w.batchStart = now
	metrics.SetBatchSize(0)
	return path, nil
}

func (w *Writer) writeFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating batch file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	columns := w.schema.Columns()

	// Leading index column, matching the historical dump layout.
	header := append([]string{""}, columns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing batch header: %w", err)
	}
	for i, agg := range w.records {
		row := append([]string{strconv.Itoa(i)}, agg.Row(columns)...)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing batch row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing batch file: %w", err)
	}
	return nil
}
