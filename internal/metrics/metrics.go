package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Sampling metrics
	SamplesRead = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sensor_samples_read_total",
			Help: "Total number of sample read attempts by outcome",
		},
		[]string{"status"},
	)

	MinuteAggregations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minute_aggregations_total",
			Help: "Total number of minute aggregations by outcome",
		},
		[]string{"status"},
	)

	// Batch metrics
	BatchFlushes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_flushes_total",
			Help: "Total number of batch flushes to disk",
		},
		[]string{"status"},
	)

	BatchSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "batch_pending_aggregates",
			Help: "Number of aggregated records waiting for the next flush",
		},
	)

	FlushDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "batch_flush_duration_seconds",
			Help:    "Duration of batch flushes to disk in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Light control metrics
	LightSwitches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "light_switches_total",
			Help: "Total number of light switch commands sent",
		},
		[]string{"state"},
	)

	LightState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "light_state",
			Help: "Current light state (1 = on, 0 = off)",
		},
	)

	// Downstream sink metrics
	FeedPublishes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_publishes_total",
			Help: "Total number of aggregates published to the live feed",
		},
		[]string{"status"},
	)

	InfluxWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "influx_writes_total",
			Help: "Total number of aggregate mirror writes to InfluxDB",
		},
		[]string{"status"},
	)

	// HTTP metrics
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "endpoint", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "endpoint"},
	)

	// Service health metrics
	ServiceHealth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "service_health",
			Help: "Health status of the service (1 = healthy, 0 = unhealthy)",
		},
		[]string{"service"},
	)
)

// InitMetrics registers all metrics with Prometheus
func InitMetrics(serviceName string) {
	prometheus.MustRegister(
		SamplesRead,
		MinuteAggregations,
		BatchFlushes,
		BatchSize,
		FlushDuration,
		LightSwitches,
		LightState,
		FeedPublishes,
		InfluxWrites,
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ServiceHealth,
	)

	// Set initial health status
	ServiceHealth.WithLabelValues(serviceName).Set(1)
}

// HTTPMiddleware creates a middleware for HTTP metrics collection
func HTTPMiddleware(serviceName string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a wrapper to capture status code
		wrapper := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start).Seconds()
		statusCode := wrapper.statusCode

		HTTPRequestsTotal.WithLabelValues(
			serviceName,
			r.Method,
			r.URL.Path,
			http.StatusText(statusCode),
		).Inc()

		HTTPRequestDuration.WithLabelValues(
			serviceName,
			r.Method,
			r.URL.Path,
		).Observe(duration)
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// MetricsHandler returns the Prometheus metrics handler
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RecordSampleRead records the outcome of one sample read attempt
func RecordSampleRead(status string) {
	SamplesRead.WithLabelValues(status).Inc()
}

// RecordAggregation records the outcome of one minute aggregation
func RecordAggregation(status string) {
	MinuteAggregations.WithLabelValues(status).Inc()
}

// RecordFlush records the outcome and duration of one batch flush
func RecordFlush(status string, duration time.Duration) {
	BatchFlushes.WithLabelValues(status).Inc()
	FlushDuration.Observe(duration.Seconds())
}

// SetBatchSize sets the number of aggregates pending flush
func SetBatchSize(count int) {
	BatchSize.Set(float64(count))
}

// RecordLightSwitch records a light switch command and the resulting state
func RecordLightSwitch(on bool) {
	if on {
		LightSwitches.WithLabelValues("on").Inc()
		LightState.Set(1)
	} else {
		LightSwitches.WithLabelValues("off").Inc()
		LightState.Set(0)
	}
}

// RecordFeedPublish records an aggregate publish attempt to the live feed
func RecordFeedPublish(status string) {
	FeedPublishes.WithLabelValues(status).Inc()
}

// RecordInfluxWrite records an aggregate mirror write to InfluxDB
func RecordInfluxWrite(status string) {
	InfluxWrites.WithLabelValues(status).Inc()
}

// SetServiceHealth sets the service health status
func SetServiceHealth(serviceName string, healthy bool) {
	if healthy {
		ServiceHealth.WithLabelValues(serviceName).Set(1)
	} else {
		ServiceHealth.WithLabelValues(serviceName).Set(0)
	}
}
