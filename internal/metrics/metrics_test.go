package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	reg := prometheus.NewRegistry()
	return New(reg, reg)
}

func TestRecordCook(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordCook(true, 3, 0)
	m.RecordCook(false, 1, 2)

	assert.InDelta(t, 1, testutil.ToFloat64(m.CooksTotal.WithLabelValues("complete")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.CooksTotal.WithLabelValues("missing")), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(m.CookLinesTotal.WithLabelValues("deducted")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.CookLinesTotal.WithLabelValues("missing")), 0)
}

func TestRecordShoppingMerge(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordShoppingMerge(PolicyRaiseTo, "created", 2)
	m.RecordShoppingMerge(PolicyRaiseTo, "raised", 0)
	m.RecordShoppingMerge(PolicyAdditive, "added", 1)

	assert.InDelta(t, 2, testutil.ToFloat64(m.ShoppingMergesTotal.WithLabelValues(PolicyRaiseTo, "created")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ShoppingMergesTotal.WithLabelValues(PolicyAdditive, "added")), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(m.ShoppingMergesTotal), "zero counts create no series")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordCook(true, 1, 0)
		m.RecordShoppingMerge(PolicyAdditive, "added", 1)
		m.RecordPlanGeneration()
		m.RecordPantryWrite("set")
		m.ObserveHTTP(http.MethodGet, "/health", 200, time.Millisecond)
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler(t *testing.T) {
	m := newTestMetrics(t)
	m.RecordPantryWrite("adjust")
	m.RecordPlanGeneration()
	m.ObserveHTTP(http.MethodPost, "/api/v1/recipes/{id}/cook", 200, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `larder_pantry_writes_total{op="adjust"} 1`)
	assert.Contains(t, body, "larder_reconcile_plan_generations_total 1")
	assert.Contains(t, body, `larder_http_request_duration_seconds_count{method="POST",route="/api/v1/recipes/{id}/cook",status="200"} 1`)
}
