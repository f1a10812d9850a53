// Package metrics records Prometheus metrics for agent invocations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/agentic-hr-assistant/server/internal/agent/model"
)

const namespace = "hr_agent"

// Recorder is safe for concurrent use. A nil *Recorder records nothing.
type Recorder struct {
	decisions *prometheus.CounterVec
	refusals  prometheus.Counter
	duration  *prometheus.HistogramVec
	failures  *prometheus.CounterVec
}

// NewRecorder registers the agent metrics with reg.
// Every decision label is exported from the start with a zero count.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	r := &Recorder{
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Turns routed to each handler.",
		}, []string{"decision"}),
		refusals: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guardrail_refusals_total",
			Help:      "Answer turns that ended with the policy refusal message.",
		}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "invocation_duration_seconds",
			Help:      "Duration of one agent invocation.",
			Buckets:   []float64{0.005, 0.05, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"status"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invocation_failures_total",
			Help:      "Agent invocations that returned an error.",
		}, []string{"decision"}),
	}
	for _, d := range model.Decisions {
		r.decisions.WithLabelValues(d.String())
	}
	return r
}

func (r *Recorder) ObserveDecision(d model.Decision) {
	if r == nil {
		return
	}
	r.decisions.WithLabelValues(d.String()).Inc()
}

func (r *Recorder) ObserveRefusal() {
	if r == nil {
		return
	}
	r.refusals.Inc()
}

// ObserveInvocation records latency and, on failure, the decision that was being handled.
func (r *Recorder) ObserveInvocation(d model.Decision, elapsed time.Duration, err error) {
	if r == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
		label := d.String()
		if label == "" {
			label = "none"
		}
		r.failures.WithLabelValues(label).Inc()
	}
	r.duration.WithLabelValues(status).Observe(elapsed.Seconds())
}
