// Package metrics provides the Prometheus-backed implementation of the
// store's Recorder hooks.
package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements reflux.Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once             sync.Once
	dispatches       *prom.CounterVec
	dispatchDuration *prom.HistogramVec
	sinkErrors       *prom.CounterVec
	subscribers      prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics
// (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.dispatches = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "reflux",
			Name:      "dispatches_total",
			Help:      "Dispatched actions by action type",
		}, []string{"action"})
		pr.dispatchDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "reflux",
			Name:      "dispatch_duration_seconds",
			Help:      "Duration of a full dispatch including sinks and renders",
			Buckets:   prom.DefBuckets,
		}, []string{"action"})
		pr.sinkErrors = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "reflux",
			Name:      "sink_errors_total",
			Help:      "Sink failures by action type",
		}, []string{"action"})
		pr.subscribers = prom.NewGauge(prom.GaugeOpts{
			Namespace: "reflux",
			Name:      "subscribers",
			Help:      "Currently registered render subscribers",
		})
		reg.MustRegister(pr.dispatches, pr.dispatchDuration, pr.sinkErrors, pr.subscribers)
	})
	return pr
}

func (p *PrometheusRecorder) IncDispatch(actionType string) {
	if p == nil || p.dispatches == nil {
		return
	}
	p.dispatches.WithLabelValues(actionType).Inc()
}

func (p *PrometheusRecorder) ObserveDispatchDuration(actionType string, d time.Duration) {
	if p == nil || p.dispatchDuration == nil {
		return
	}
	p.dispatchDuration.WithLabelValues(actionType).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncSinkError(actionType string) {
	if p == nil || p.sinkErrors == nil {
		return
	}
	p.sinkErrors.WithLabelValues(actionType).Inc()
}

func (p *PrometheusRecorder) SetSubscribers(n int) {
	if p == nil || p.subscribers == nil {
		return
	}
	p.subscribers.Set(float64(n))
}
