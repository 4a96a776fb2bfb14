package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/restaurant-classifier/internal/core/domain"
)

// PipelineMetrics implements ports.PipelineObserver and listens to
// upstream breaker transitions.
type PipelineMetrics struct {
	service string

	resolutionsTotal      *prometheus.CounterVec
	resolutionDuration    prometheus.Histogram
	fetchesTotal          *prometheus.CounterVec
	fetchedCandidates     prometheus.Histogram
	classificationsTotal  *prometheus.CounterVec
	classificationLatency prometheus.Histogram
	upstreamBreakerOpen   *prometheus.GaugeVec
}

func NewPipelineMetrics(service string, reg prometheus.Registerer) *PipelineMetrics {
	resolutionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "resolutions_total",
			Help:      "Coordinate resolutions by source; source is empty when nothing was found.",
		},
		[]string{"service", "source"},
	)
	resolutionDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "pipeline",
			Name:        "resolution_duration_seconds",
			Help:        "Coordinate resolution duration in seconds.",
			Buckets:     []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 4, 8},
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	fetchesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "fetches_total",
			Help:      "Places fetches by status.",
		},
		[]string{"service", "status"},
	)
	fetchedCandidates := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "pipeline",
			Name:        "fetched_candidates",
			Help:        "Candidates per successful fetch after de-duplication.",
			Buckets:     []float64{0, 5, 10, 20, 40, 60, 80},
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	classificationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "classifications_total",
			Help:      "Classifications by category, or by failure kind when failed.",
		},
		[]string{"service", "status", "label"},
	)
	classificationLatency := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "pipeline",
			Name:        "classification_latency_seconds",
			Help:        "Model call latency for successful classifications.",
			Buckets:     []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 45},
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	upstreamBreakerOpen := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "breaker_open",
			Help:      "1 while the breaker for an upstream operation is open or half-open.",
		},
		[]string{"service", "operation"},
	)

	reg.MustRegister(
		resolutionsTotal,
		resolutionDuration,
		fetchesTotal,
		fetchedCandidates,
		classificationsTotal,
		classificationLatency,
		upstreamBreakerOpen,
	)

	return &PipelineMetrics{
		service:               service,
		resolutionsTotal:      resolutionsTotal,
		resolutionDuration:    resolutionDuration,
		fetchesTotal:          fetchesTotal,
		fetchedCandidates:     fetchedCandidates,
		classificationsTotal:  classificationsTotal,
		classificationLatency: classificationLatency,
		upstreamBreakerOpen:   upstreamBreakerOpen,
	}
}

func (m *PipelineMetrics) ObserveResolution(res domain.Resolution) {
	source := string(res.Source)
	if !res.Found() {
		source = "none"
	}
	m.resolutionsTotal.WithLabelValues(m.service, source).Inc()
	m.resolutionDuration.Observe(res.Elapsed.Seconds())
}

func (m *PipelineMetrics) ObserveFetch(candidates int, err error) {
	if err != nil {
		m.fetchesTotal.WithLabelValues(m.service, "error").Inc()
		return
	}
	m.fetchesTotal.WithLabelValues(m.service, "success").Inc()
	m.fetchedCandidates.Observe(float64(candidates))
}

func (m *PipelineMetrics) ObserveClassification(c domain.Classification) {
	if c.Failure != nil {
		m.classificationsTotal.WithLabelValues(m.service, "error", string(c.Failure.Kind)).Inc()
		return
	}
	m.classificationsTotal.WithLabelValues(m.service, "success", string(c.Category)).Inc()
	if c.Latency != nil {
		m.classificationLatency.Observe(c.Latency.Seconds())
	}
}

func (m *PipelineMetrics) ObserveBreakerState(operation, state string) {
	open := 0.0
	if state != "closed" {
		open = 1
	}
	m.upstreamBreakerOpen.WithLabelValues(m.service, operation).Set(open)
}
