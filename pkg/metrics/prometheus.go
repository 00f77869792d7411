package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	eventsIngested  *prometheus.CounterVec
	eventsDuplicate *prometheus.CounterVec
	eventsDropped   *prometheus.CounterVec
	signalsEmitted  prometheus.Counter
	evaluations     *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	latency         *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		eventsIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insiderscan_events_ingested_total",
				Help: "Total trade events accepted into the store",
			},
			[]string{"source"},
		),
		eventsDuplicate: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insiderscan_events_duplicate_total",
				Help: "Total trade events rejected as duplicates",
			},
			[]string{"source"},
		),
		eventsDropped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insiderscan_events_dropped_total",
				Help: "Total malformed trade events dropped",
			},
			[]string{"source"},
		),
		signalsEmitted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "insiderscan_signals_emitted_total",
				Help: "Total crossing signals emitted by the detector",
			},
		),
		evaluations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insiderscan_evaluations_total",
				Help: "Signal evaluations by outcome",
			},
			[]string{"outcome"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insiderscan_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "insiderscan_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordEventsIngested records accepted events by ingestion source.
func (r *Recorder) RecordEventsIngested(source string, n int) {
	r.eventsIngested.WithLabelValues(source).Add(float64(n))
}

// RecordEventsDuplicate records idempotent-append duplicates.
func (r *Recorder) RecordEventsDuplicate(source string, n int) {
	r.eventsDuplicate.WithLabelValues(source).Add(float64(n))
}

// RecordEventsDropped records malformed events dropped at ingest.
func (r *Recorder) RecordEventsDropped(source string, n int) {
	r.eventsDropped.WithLabelValues(source).Add(float64(n))
}

// RecordSignals records emitted crossing signals.
func (r *Recorder) RecordSignals(n int) {
	r.signalsEmitted.Add(float64(n))
}

// RecordEvaluation records one signal evaluation outcome.
func (r *Recorder) RecordEvaluation(outcome string) {
	r.evaluations.WithLabelValues(outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
