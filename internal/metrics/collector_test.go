package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecordsEvaluations(t *testing.T) {
	c := NewCollector("test")

	c.RecordEvaluation("two-tailed", "p-value", "Reject")
	c.RecordEvaluation("two-tailed", "p-value", "Reject")
	c.RecordEvaluationError("INVALID_INPUT")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.evaluationsTotal.WithLabelValues("two-tailed", "p-value", "Reject")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.evaluationErrorsTotal.WithLabelValues("INVALID_INPUT")))
}

func TestCollectorHandlerExposesMetrics(t *testing.T) {
	c := NewCollector("test")
	c.RecordHTTPRequest(http.MethodPost, "/calculate", http.StatusOK, 15*time.Millisecond)
	c.ObserveChartRender(5 * time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `test_http_requests_total{method="POST",path="/calculate",status="200"} 1`)
	assert.Contains(t, body, "test_chart_render_duration_seconds_count 1")
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordEvaluation("a", "b", "c")
		c.RecordEvaluationError("X")
		c.ObserveChartRender(time.Second)
		c.RecordHTTPRequest("GET", "/", 200, time.Second)
	})
}
