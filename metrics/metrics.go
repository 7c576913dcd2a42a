// Package metrics provides Prometheus instrumentation for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "audio_diary"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	UploadsTotal    prometheus.Counter
	UploadsRejected prometheus.Counter

	PipelineRuns  *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec

	IndexedDocuments prometheus.Counter
}

// Default is the global metrics instance.
var Default = New()

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		UploadsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Total number of accepted audio uploads",
		}),
		UploadsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_rejected_total",
			Help:      "Total number of uploads rejected before a record was created",
		}),
		PipelineRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Total number of pipeline runs by terminal state",
		}, []string{"state"}),
		StageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 180, 300},
		}, []string{"stage"}),
		IndexedDocuments: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "indexed_documents_total",
			Help:      "Total number of documents upserted into the semantic index",
		}),
	}
}
