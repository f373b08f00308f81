// Package metrics defines the Prometheus collectors for the larder server.
//
// Collectors are registered on the registry passed to New, so tests can use an isolated
// prometheus.NewRegistry(). Every method is safe on a nil *Metrics, which is what
// services receive when metrics are disabled.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "larder"

// Shopping-list merge policies, used as the "policy" label.
const (
	PolicyAdditive = "additive"
	PolicyRaiseTo  = "raise_to"
)

// Metrics holds the server's collectors.
type Metrics struct {
	gatherer prometheus.Gatherer

	// CooksTotal counts cook calls. Labels: outcome (complete, missing).
	CooksTotal *prometheus.CounterVec

	// CookLinesTotal counts processed recipe lines. Labels: status (deducted, missing).
	CookLinesTotal *prometheus.CounterVec

	// ShoppingMergesTotal counts shopping-list writes.
	// Labels: policy (additive, raise_to), result (created, raised, added, unchanged).
	ShoppingMergesTotal *prometheus.CounterVec

	// PlanGenerationsTotal counts generate-from-plan runs.
	PlanGenerationsTotal prometheus.Counter

	// PantryWritesTotal counts pantry mutations. Labels: op (set, adjust).
	PantryWritesTotal *prometheus.CounterVec

	// HTTPRequestDuration measures request latency.
	// Labels: method, route, status.
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
// Passing prometheus.DefaultRegisterer panics if called twice.
func New(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		gatherer: gatherer,

		CooksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "reconcile",
				Name:      "cooks_total",
				Help:      "Cook reconciliations by outcome",
			},
			[]string{"outcome"},
		),

		CookLinesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "reconcile",
				Name:      "cook_lines_total",
				Help:      "Recipe lines processed by cook reconciliation, by status",
			},
			[]string{"status"},
		),

		ShoppingMergesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "shopping",
				Name:      "merges_total",
				Help:      "Shopping-list writes by merge policy and result",
			},
			[]string{"policy", "result"},
		),

		PlanGenerationsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "reconcile",
				Name:      "plan_generations_total",
				Help:      "Shopping-list generations from the meal plan",
			},
		),

		PantryWritesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pantry",
				Name:      "writes_total",
				Help:      "Pantry quantity writes by operation",
			},
			[]string{"op"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"method", "route", "status"},
		),
	}
}

// NewDefault registers the collectors on the process-wide default registry.
func NewDefault() *Metrics {
	return New(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// Handler serves the gathered metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// RecordCook records one cook call and its per-line statuses.
func (m *Metrics) RecordCook(success bool, deducted, missing int) {
	if m == nil {
		return
	}
	outcome := "complete"
	if !success {
		outcome = "missing"
	}
	m.CooksTotal.WithLabelValues(outcome).Inc()
	m.CookLinesTotal.WithLabelValues("deducted").Add(float64(deducted))
	m.CookLinesTotal.WithLabelValues("missing").Add(float64(missing))
}

// RecordShoppingMerge counts n shopping-list writes with the given policy and result.
func (m *Metrics) RecordShoppingMerge(policy, result string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.ShoppingMergesTotal.WithLabelValues(policy, result).Add(float64(n))
}

// RecordPlanGeneration counts one generate-from-plan run.
func (m *Metrics) RecordPlanGeneration() {
	if m == nil {
		return
	}
	m.PlanGenerationsTotal.Inc()
}

// RecordPantryWrite counts one pantry mutation.
func (m *Metrics) RecordPantryWrite(op string) {
	if m == nil {
		return
	}
	m.PantryWritesTotal.WithLabelValues(op).Inc()
}

// ObserveHTTP records the latency of one request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
