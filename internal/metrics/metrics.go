// Package metrics exposes Prometheus instrumentation for the conversation
// pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains all Prometheus metrics for the service. Each instance
// carries its own registry so independent instances (one per test, one per
// process) never collide.
type Metrics struct {
	registry *prometheus.Registry

	// Session metrics
	ActiveSessions   prometheus.Gauge
	SessionsStarted  prometheus.Counter
	SessionsFinished prometheus.Counter

	// Audio ingestion metrics
	ChunksReceived  prometheus.Counter
	BytesReceived   prometheus.Counter
	WindowsInFlight prometheus.Gauge

	// Pipeline metrics
	WindowsProcessed      prometheus.Counter
	TranscriptionFailures prometheus.Counter
	AnalysisFailures      prometheus.Counter
	PipelineDuration      prometheus.Histogram
}

// New creates and registers all service metrics on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "steward_active_sessions",
			Help: "Current number of active audio sessions",
		}),
		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "steward_sessions_started_total",
			Help: "Total number of audio sessions accepted",
		}),
		SessionsFinished: factory.NewCounter(prometheus.CounterOpts{
			Name: "steward_sessions_finished_total",
			Help: "Total number of audio sessions closed",
		}),

		ChunksReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "steward_audio_chunks_received_total",
			Help: "Total number of inbound audio chunks",
		}),
		BytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "steward_audio_bytes_received_total",
			Help: "Total inbound audio bytes",
		}),
		WindowsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "steward_windows_in_flight",
			Help: "Windows currently being processed by the pipeline",
		}),

		WindowsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "steward_windows_processed_total",
			Help: "Total number of audio windows run through the pipeline",
		}),
		TranscriptionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "steward_transcription_failures_total",
			Help: "Total number of failed transcription calls",
		}),
		AnalysisFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "steward_analysis_failures_total",
			Help: "Total number of failed analysis calls",
		}),
		PipelineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "steward_window_pipeline_duration_seconds",
			Help:    "End-to-end processing time per window",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Handler serves this instance's registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
