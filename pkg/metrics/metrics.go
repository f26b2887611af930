package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	PipelineMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_messages_total",
			Help: "Total number of messages driven through the pipeline (count)",
		},
		[]string{"status"},
	)

	PipelineStepExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_step_executions_total",
			Help: "Total number of step executions by step and status (count)",
		},
		[]string{"step", "status"},
	)

	PipelineStepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_step_duration_ms",
			Help:    "Step execution duration in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"step", "status"},
	)

	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestion_runs_total",
			Help: "Total number of ingestion runs (count)",
		},
		[]string{"status"},
	)

	RunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingestion_run_duration_ms",
			Help:    "Ingestion run duration in milliseconds",
			Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000, 30000, 60000},
		},
		[]string{"status"},
	)

	BatchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingestion_batch_size",
			Help:    "Number of messages fetched per run (count)",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		},
	)

	WatermarkTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ingestion_watermark_timestamp_seconds",
			Help: "Unix timestamp of the persisted ingestion watermark (seconds)",
		},
	)

	ClassificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classifications_total",
			Help: "Total number of classifications by label (count)",
		},
		[]string{"label"},
	)

	ClassifierRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "classifier_retries_total",
			Help: "Total number of classifier call retries (count)",
		},
	)

	AddressCleanRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "address_clean_requests_total",
			Help: "Total number of address cleaning calls by outcome (count)",
		},
		[]string{"status"},
	)

	GeocodeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocode_requests_total",
			Help: "Total number of geocoder lookups (count)",
		},
		[]string{"status"},
	)

	GeocodeCacheHitRate = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "geocode_cache_hit_rate",
			Help: "Cache hit rate for geocoder lookups (ratio, 0.0 to 1.0)",
		},
	)

	PersistedOrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "persisted_orders_total",
			Help: "Total number of order rows written, skipped or failed (count)",
		},
		[]string{"status"},
	)

	PublishedEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "published_events_total",
			Help: "Total number of order events published to the broker (count)",
		},
		[]string{"status"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)
)

func RegisterPipelineMetrics() {
	prometheus.MustRegister(PipelineMessagesTotal)
	prometheus.MustRegister(PipelineStepExecutionsTotal)
	prometheus.MustRegister(PipelineStepDuration)
	prometheus.MustRegister(RunsTotal)
	prometheus.MustRegister(RunDuration)
	prometheus.MustRegister(BatchSize)
	prometheus.MustRegister(WatermarkTimestamp)
}

func RegisterCollaboratorMetrics() {
	prometheus.MustRegister(ClassificationsTotal)
	prometheus.MustRegister(ClassifierRetriesTotal)
	prometheus.MustRegister(AddressCleanRequestsTotal)
	prometheus.MustRegister(GeocodeRequestsTotal)
	prometheus.MustRegister(GeocodeCacheHitRate)
	prometheus.MustRegister(PersistedOrdersTotal)
	prometheus.MustRegister(PublishedEventsTotal)
}

func RegisterCircuitBreakerMetrics() {
	prometheus.MustRegister(CircuitBreakerState)
	prometheus.MustRegister(CircuitBreakerRequests)
	prometheus.MustRegister(CircuitBreakerFailures)
}

func ObserveStepDuration(step string, d time.Duration, status string) {
	PipelineStepDuration.WithLabelValues(step, status).Observe(float64(d.Milliseconds()))
	PipelineStepExecutionsTotal.WithLabelValues(step, status).Inc()
}

func ObserveRunDuration(d time.Duration, status string) {
	RunDuration.WithLabelValues(status).Observe(float64(d.Milliseconds()))
	RunsTotal.WithLabelValues(status).Inc()
}

func SetWatermark(ts time.Time) {
	WatermarkTimestamp.Set(float64(ts.Unix()))
}

func SetGeocodeCacheHitRate(rate float64) {
	GeocodeCacheHitRate.Set(rate)
}
