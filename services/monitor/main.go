package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/example/aviary/config"
	"github.com/example/aviary/internal/aggregate"
	"github.com/example/aviary/internal/batch"
	"github.com/example/aviary/internal/influx"
	"github.com/example/aviary/internal/lights"
	"github.com/example/aviary/internal/metrics"
	"github.com/example/aviary/internal/notify"
	"github.com/example/aviary/internal/schedule"
	"github.com/example/aviary/internal/security"
	"github.com/example/aviary/internal/sensor"
	"github.com/example/aviary/internal/shared"
	"github.com/example/aviary/internal/telemetry"
	_ "github.com/example/aviary/services/monitor/docs"
)

// @title Aviary Monitor API
// @version 1.0
// @description Status API for the cage monitor daemon: sensor sampling, minute aggregation, hourly CSV dumps and light scheduling.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description API Key authentication using X-API-Key header

// @host localhost:8080
// @BasePath /
type MonitorService struct {
	logger   *log.Logger
	config   config.Config
	mode     schedule.Mode
	location *time.Location

	transport  sensor.Transport
	portPath   string
	schema     telemetry.Schema
	reader     *sensor.Reader
	writer     *batch.Writer
	controller *lights.Controller
	notifier   notify.Notifier
	feed       shared.Feed
	mirror     *influx.AggregateWriter

	lightState lights.State

	// Guards the status snapshot read by the HTTP handlers.
	mu            sync.Mutex
	lastAggregate *telemetry.Aggregate
	pendingCount  int
}

func NewMonitorService(configPath string) *MonitorService {
	logger := log.New(os.Stdout, "[monitor-service] ", log.LstdFlags)
	logger.Println("Hello! This is the cage monitor daemon")

	// Initialize Prometheus metrics
	metrics.InitMetrics("monitor-service")
	logger.Println("Prometheus metrics initialized")

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("Failed loading configuration: %v", err)
	}

	mode, err := cfg.ScheduleMode()
	if err != nil {
		logger.Fatalf("Failed resolving the scheduling mode: %v", err)
	}
	logger.Printf("Scheduling mode resolved: %s", mode.FileSuffix())

	location, err := cfg.Location()
	if err != nil {
		logger.Fatalf("Failed initializing the location object: %v", err)
	}
	logger.Printf("Successfully initialized location (%s, %.4f/%.4f)", cfg.Timezone, cfg.Latitude, cfg.Longitude)

	if err := os.MkdirAll(cfg.DataOutputBasePath, 0755); err != nil {
		logger.Fatalf("Failed creating the data output directory %s: %v", cfg.DataOutputBasePath, err)
	}

	transport, portPath, err := sensor.Discover(logger, cfg.DevicePaths, cfg.BaudRate, cfg.ReadTimeout)
	if err != nil {
		logger.Fatalf("Failed connecting to the serial device: %v", err)
	}
	logger.Println("Successfully connected to the serial device")

	notifier := notify.FromConfig(cfg.SlackToken, cfg.SlackChannel, logger)

	var feed shared.Feed
	switch cfg.FeedKind {
	case "redis":
		feed, err = shared.NewRedisStreamFeed(cfg.RedisAddr, cfg.FeedTopic)
		if err != nil {
			logger.Fatalf("Failed to create Redis stream feed: %v", err)
		}
		logger.Printf("Using Redis stream feed at %s, stream=%s", cfg.RedisAddr, cfg.FeedTopic)
	case "http":
		feed = shared.NewHTTPFeed(cfg.FeedURL)
		logger.Printf("Using HTTP feed at %s, topic=%s", cfg.FeedURL, cfg.FeedTopic)
	default:
		logger.Println("Live aggregate feed disabled")
	}

	var mirror *influx.AggregateWriter
	if cfg.InfluxEnabled {
		mirror = influx.NewAggregateWriter(cfg.InfluxDBURL, cfg.InfluxDBToken, cfg.InfluxDBOrg, cfg.InfluxDBBucket, string(cfg.CageID), cfg.BirdName)
		logger.Printf("Mirroring aggregates to InfluxDB at %s", cfg.InfluxDBURL)
	}

	schema := telemetry.DefaultSchema

	return &MonitorService{
		logger:     logger,
		config:     cfg,
		mode:       mode,
		location:   location,
		transport:  transport,
		portPath:   portPath,
		schema:     schema,
		reader:     sensor.NewReader(transport, schema, logger),
		writer:     batch.NewWriter(cfg.DataOutputBasePath, string(cfg.CageID), cfg.BirdName, mode, cfg.FlushDelay(), schema, logger),
		controller: lights.NewController(transport, mode, cfg.Latitude, cfg.Longitude, location, notifier, logger),
		notifier:   notifier,
		feed:       feed,
		mirror:     mirror,
		lightState: lights.StateUnknown,
	}
}

func (ms *MonitorService) Start() {
	ms.logger.Println("Starting monitor service...")

	mux := http.NewServeMux()

	mux.HandleFunc("/health", metrics.HTTPMiddleware("monitor-service", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	}))

	// Add Prometheus metrics endpoint
	mux.Handle("/metrics", metrics.MetricsHandler())

	// Swagger endpoint (public for documentation)
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	mux.HandleFunc("/api/v1/status", metrics.HTTPMiddleware("monitor-service", ms.handleStatus))

	go func() {
		ms.logger.Printf("Starting HTTP server on port %s", ms.config.Port)
		if err := http.ListenAndServe(":"+ms.config.Port, security.APIKeyMiddleware(mux)); err != nil {
			ms.logger.Printf("HTTP server error: %v", err)
		}
	}()

	go ms.runLoop()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	ms.logger.Println("Shutting down monitor service...")
}

// runLoop is the daemon's heart: drive the lights, sample for one minute,
// aggregate, batch and flush. It never terminates on its own; every per-tick
// failure is logged and skipped.
func (ms *MonitorService) runLoop() {
	for {
		now := time.Now()
		ms.logger.Printf("Current time is %s", now.In(ms.location).Format(time.RFC3339))

		ms.setLightState(ms.controller.Tick(context.Background(), now, ms.getLightState()))

		if !ms.config.DataReadingAndSaving {
			ms.logger.Println("Data recording is disabled, sleeping for an hour")
			time.Sleep(time.Hour)
			continue
		}

		records := ms.collectMinute()
		if len(records) == 0 {
			ms.logger.Println("No valid samples this minute, skipping aggregation")
			continue
		}

		agg := aggregate.Minute(records, ms.schema, ms.logger)
		ms.logger.Printf("Successfully aggregated %d samples", len(records))
		ms.handleAggregate(agg)
	}
}

// collectMinute reads one sample per tick until the minute window elapses.
// Rejected samples are skipped; the reader has already logged them.
func (ms *MonitorService) collectMinute() []*telemetry.Record {
	var records []*telemetry.Record
	start := time.Now()
	for {
		if rec := ms.reader.ReadSample(); rec != nil {
			records = append(records, rec)
		}
		if time.Since(start) >= ms.config.MinuteWindow {
			ms.logger.Println("Finished collecting data for 1 minute")
			return records
		}
		time.Sleep(ms.config.SampleInterval)
	}
}

func (ms *MonitorService) handleAggregate(agg telemetry.Aggregate) {
	ms.writer.Add(agg)

	ms.mu.Lock()
	ms.lastAggregate = &agg
	ms.pendingCount = ms.writer.Len()
	ms.mu.Unlock()

	now := time.Now()
	if ms.writer.Due(now) {
		ms.logger.Printf("%d minutes have passed, writing data to disk", ms.config.FileWriteDelayMins)
		if _, err := ms.writer.Flush(now); err != nil {
			ms.logger.Printf("Failed writing the batch to disk: %v", err)
		} else {
			ms.mu.Lock()
			ms.pendingCount = 0
			ms.mu.Unlock()
		}
	}

	if ms.feed != nil {
		body, err := json.Marshal(feedMessage{
			CageID:   string(ms.config.CageID),
			BirdName: ms.config.BirdName,
			Values:   agg.Values,
			DateTime: agg.DateTime,
		})
		if err == nil {
			err = ms.feed.Publish(ms.config.FeedTopic, body)
		}
		if err != nil {
			ms.logger.Printf("Failed publishing aggregate to the live feed: %v", err)
			metrics.RecordFeedPublish("error")
		} else {
			metrics.RecordFeedPublish("success")
		}
	}

	if ms.mirror != nil {
		if err := ms.mirror.WriteAggregate(agg, ms.schema); err != nil {
			ms.logger.Printf("Failed to write aggregate to InfluxDB: %v", err)
			metrics.RecordInfluxWrite("error")
		} else {
			metrics.RecordInfluxWrite("success")
		}
	}
}

// feedMessage is the JSON shape published to the live feed.
type feedMessage struct {
	CageID   string            `json:"cage_id"`
	BirdName string            `json:"bird_name"`
	Values   map[string]string `json:"values"`
	DateTime string            `json:"dateTime"`
}

func (ms *MonitorService) getLightState() lights.State {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.lightState
}

func (ms *MonitorService) setLightState(s lights.State) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.lightState = s
}

func (ms *MonitorService) Close() {
	if ms.feed != nil {
		ms.feed.Close()
	}
	if ms.mirror != nil {
		ms.mirror.Close()
	}
	ms.transport.Close()
}

func main() {
	configPath := flag.String("config", "", "Path to the YAML config file (optional, env vars override)")
	flag.Parse()

	service := NewMonitorService(*configPath)
	defer service.Close()
	service.Start()
}
