// Package telemetry exposes the service's Prometheus metrics.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Telemetry holds the advisory pipeline's metrics. A nil *Telemetry is valid
// and records nothing, so metrics can be disabled without branching at every
// call site.
type Telemetry struct {
	adviceRequests *prometheus.CounterVec
	adviceLatency  prometheus.Histogram
	contextWrites  *prometheus.CounterVec
	contextQueries *prometheus.CounterVec
	modelLatency   prometheus.Histogram
}

// New registers the pipeline metrics on the given registerer.
func New(reg prometheus.Registerer) *Telemetry {
	factory := promauto.With(reg)
	return &Telemetry{
		adviceRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fincoach_advice_requests_total",
			Help: "Advice requests by outcome.",
		}, []string{"outcome"}),
		adviceLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fincoach_advice_latency_seconds",
			Help:    "End-to-end advice pipeline latency.",
			Buckets: prometheus.DefBuckets,
		}),
		contextWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fincoach_context_writes_total",
			Help: "Context documents written by event kind.",
		}, []string{"kind"}),
		contextQueries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fincoach_context_queries_total",
			Help: "Context store queries by outcome.",
		}, []string{"outcome"}),
		modelLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fincoach_model_latency_seconds",
			Help:    "Language model generation latency.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (t *Telemetry) ObserveAdvice(outcome string, seconds float64) {
	if t == nil {
		return
	}
	t.adviceRequests.WithLabelValues(outcome).Inc()
	t.adviceLatency.Observe(seconds)
}

func (t *Telemetry) CountContextWrites(kind string, n int) {
	if t == nil || n <= 0 {
		return
	}
	t.contextWrites.WithLabelValues(kind).Add(float64(n))
}

func (t *Telemetry) CountContextQuery(outcome string) {
	if t == nil {
		return
	}
	t.contextQueries.WithLabelValues(outcome).Inc()
}

func (t *Telemetry) ObserveModelLatency(seconds float64) {
	if t == nil {
		return
	}
	t.modelLatency.Observe(seconds)
}
