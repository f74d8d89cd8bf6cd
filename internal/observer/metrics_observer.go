package observer

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	analysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "discovery",
		Subsystem: "analyzer",
		Name:      "analyses_total",
		Help:      "Finished image analyses by outcome.",
	}, []string{"outcome"})

	analysisDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "discovery",
		Subsystem: "analyzer",
		Name:      "analysis_duration_seconds",
		Help:      "Wall time of successful image analyses.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
	})

	transportTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "discovery",
		Subsystem: "analyzer",
		Name:      "transport_total",
		Help:      "Answered model calls by transport strategy.",
	}, []string{"strategy"})

	stageFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "discovery",
		Subsystem: "analyzer",
		Name:      "stage_failures_total",
		Help:      "Failed analyses by the stage that failed.",
	}, []string{"stage"})

	registerOnce sync.Once
)

// RegisterMetrics adds the analyzer collectors to reg. Only the first call
// has any effect.
func RegisterMetrics(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(analysesTotal, analysisDuration, transportTotal, stageFailuresTotal)
	})
}

// MetricsObserver records analysis events as Prometheus metrics
type MetricsObserver struct{}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() Observer {
	return &MetricsObserver{}
}

// OnEvent handles analysis events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	switch event.EventType {
	case AnalysisCompleted:
		analysesTotal.WithLabelValues("success").Inc()
		analysisDuration.Observe(event.ProcessingTime.Seconds())
	case AnalysisFailed:
		analysesTotal.WithLabelValues("failure").Inc()
		stageFailuresTotal.WithLabelValues(string(event.Stage)).Inc()
	case TransportSelected:
		if name, ok := event.Metadata["transport"].(string); ok {
			transportTotal.WithLabelValues(name).Inc()
		}
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}
