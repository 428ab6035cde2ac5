package gateway

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for gateway decisions.
type Metrics struct {
	DecisionsTotal  *prometheus.CounterVec
	RejectionsTotal *prometheus.CounterVec
	WarningsTotal   *prometheus.CounterVec
}

// NewMetrics creates and registers Prometheus metrics for the gateway.
//
// Uses sync.Once so metrics are only registered once globally, preventing
// "duplicate metrics collector registration" panics when multiple gateways
// are constructed in one process.
//
// Metrics:
//   - gateway_decisions_total{component,outcome} - decisions per validator
//   - gateway_rejections_total{component,class} - rejections by error class
//   - gateway_warnings_total{tool} - advisory warnings on accepted calls
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			DecisionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "gateway_decisions_total",
					Help: "Total validation decisions made by the gateway",
				},
				[]string{"component", "outcome"}, // classifier|querygate|toolgate, accepted|rejected
			),

			RejectionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "gateway_rejections_total",
					Help: "Total rejections by error class",
				},
				[]string{"component", "class"}, // schema|policy|unknown_tool
			),

			WarningsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "gateway_warnings_total",
					Help: "Total advisory warnings attached to accepted tool calls",
				},
				[]string{"tool"},
			),
		}
	})

	return globalMetrics
}

// RecordDecision records one accept/reject outcome for a component.
func (m *Metrics) RecordDecision(component string, accepted bool) {
	outcome := "accepted"
	if !accepted {
		outcome = "rejected"
	}
	m.DecisionsTotal.WithLabelValues(component, outcome).Inc()
}

// RecordRejection records a rejection with its error class.
func (m *Metrics) RecordRejection(component, class string) {
	m.RejectionsTotal.WithLabelValues(component, class).Inc()
}

// RecordWarnings records advisory warnings for an accepted tool call.
func (m *Metrics) RecordWarnings(tool string, count int) {
	if count > 0 {
		m.WarningsTotal.WithLabelValues(tool).Add(float64(count))
	}
}
