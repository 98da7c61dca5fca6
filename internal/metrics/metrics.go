// Package metrics provides Prometheus metrics for the mushroom classifier
// service: prediction throughput and latency, schema rejections, confidence
// score distribution, artifact age, and websocket stream activity.
//
// Metrics are registered through a promauto factory so tests can use an
// isolated registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the inference service.
type Metrics struct {
	// Prediction metrics
	PredictionsTotal  prometheus.Counter   // Total predictions served
	PredictionErrors  prometheus.Counter   // Predictions that failed server-side
	SchemaRejections  prometheus.Counter   // Requests rejected for missing/invalid fields
	PredictionLatency prometheus.Histogram // End-to-end prediction latency in seconds
	PredictionScores  prometheus.Histogram // Confidence of the predicted class
	PoisonousTotal    prometheus.Counter   // Predictions that came back poisonous
	BatchSize         prometheus.Histogram // Rows per batch request

	// Artifact metrics
	ArtifactLoads prometheus.Counter // Bundle loads (cold starts)
	ArtifactAge   prometheus.Gauge   // Seconds since the bundle was trained

	// Stream metrics
	StreamConnections prometheus.Gauge   // Open websocket prediction streams
	StreamMessages    prometheus.Counter // Messages answered over streams

	// System metrics
	ErrorsTotal prometheus.Counter // Total errors encountered
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry, keeping tests
// isolated from the global Prometheus state.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		PredictionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total number of predictions served",
		}),
		PredictionErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "prediction_errors_total",
			Help: "Total number of predictions that failed server-side",
		}),
		SchemaRejections: factory.NewCounter(prometheus.CounterOpts{
			Name: "schema_rejections_total",
			Help: "Total number of requests rejected for schema mismatches",
		}),
		PredictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prediction_latency_seconds",
			Help:    "End-to-end prediction latency in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		PredictionScores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prediction_scores",
			Help:    "Distribution of confidence scores for the predicted class",
			Buckets: prometheus.LinearBuckets(0.5, 0.05, 11),
		}),
		PoisonousTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "predictions_poisonous_total",
			Help: "Total number of specimens classified poisonous",
		}),
		BatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "batch_request_size",
			Help:    "Number of specimens per batch prediction request",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		ArtifactLoads: factory.NewCounter(prometheus.CounterOpts{
			Name: "artifact_loads_total",
			Help: "Total number of artifact bundle loads",
		}),
		ArtifactAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "artifact_age_seconds",
			Help: "Age of the loaded artifact bundle in seconds",
		}),
		StreamConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "stream_connections",
			Help: "Number of open websocket prediction streams",
		}),
		StreamMessages: factory.NewCounter(prometheus.CounterOpts{
			Name: "stream_messages_total",
			Help: "Total number of messages answered over prediction streams",
		}),
		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors encountered",
		}),
	}
}
