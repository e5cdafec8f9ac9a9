package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"zhypo/adapters/excel"
	"zhypo/adapters/stats/engine"
	"zhypo/app"
	"zhypo/internal"
	"zhypo/internal/config"
	"zhypo/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Server.GinMode = gin.TestMode
	logger := internal.NewNopLogger()
	collector := metrics.NewCollector("ui_test")

	service := app.NewZTestService(
		engine.NewZTestEngine(),
		app.WithLogger(logger),
		app.WithMetrics(collector),
		app.WithObservationReader(excel.NewDataReader(excel.DefaultExcelConfig(), logger)),
	)
	return NewServer(cfg, service, collector, logger)
}

func postJSON(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/calculate", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestCalculate_StringFieldsFromBrowserClient(t *testing.T) {
	s := newTestServer(t)

	rec := postJSON(t, s, `{
		"sample_mean": "105",
		"population_mean": "100",
		"population_std_dev": "15",
		"sample_size": "36",
		"significance_level": "0.05",
		"test_type": "two-tailed",
		"approach": "p_value"
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	decision := body["decision"].(map[string]interface{})
	assert.Equal(t, "Reject Null Hypothesis", decision["decision"])
	assert.InDelta(t, 0.0455, decision["p_value"].(float64), 1e-4)
	assert.Equal(t, "Test Type: Two-tailed", body["test_type"])
	assert.Contains(t, body["rejection_region"], "Reject Null Hypothesis if Z < -1.9599")
}

func TestCalculate_NumericFieldsAndCriticalValueApproach(t *testing.T) {
	s := newTestServer(t)

	rec := postJSON(t, s, `{
		"sample_mean": 105,
		"population_mean": 100,
		"population_std_dev": 15,
		"sample_size": 36,
		"significance_level": 0.05,
		"test_type": "right-tailed",
		"approach": "critical_value"
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	decision := body["decision"].(map[string]interface{})
	assert.Nil(t, decision["p_value"])
	assert.Equal(t, "Invalid approach", decision["decision"])
	result := body["result"].(map[string]interface{})
	assert.InDelta(t, 1.645, result["critical_value"].(float64), 1e-3)
}

func TestCalculate_ZeroPopulationSD(t *testing.T) {
	s := newTestServer(t)

	rec := postJSON(t, s, `{
		"sample_mean": 105, "population_mean": 100, "population_std_dev": 0,
		"sample_size": 36, "significance_level": 0.05,
		"test_type": "two-tailed", "approach": "p-value"
	}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "INVALID_INPUT", body["code"])
	assert.Contains(t, body["error"], "population_sd")
}

func TestCalculate_MalformedRequests(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"not json", `sample_mean=1`},
		{"missing alpha", `{"sample_mean": 1, "population_mean": 0, "population_std_dev": 1, "sample_size": 3, "test_type": "two-tailed", "approach": "p-value"}`},
		{"non numeric string", `{"sample_mean": "abc", "population_mean": 0, "population_std_dev": 1, "sample_size": 3, "significance_level": 0.05, "test_type": "two-tailed", "approach": "p-value"}`},
		{"fractional sample size", `{"sample_mean": 1, "population_mean": 0, "population_std_dev": 1, "sample_size": 3.5, "significance_level": 0.05, "test_type": "two-tailed", "approach": "p-value"}`},
		{"missing sample stats", `{"population_mean": 0, "population_std_dev": 1, "significance_level": 0.05, "test_type": "two-tailed", "approach": "p-value"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, s, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestCalculate_Observations(t *testing.T) {
	s := newTestServer(t)

	rec := postJSON(t, s, `{
		"population_mean": 100, "population_std_dev": 15, "significance_level": 0.05,
		"test_type": "left_tailed", "approach": "p_value",
		"observations": [95, "97", 99, 101]
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	sample := body["sample"].(map[string]interface{})
	assert.Equal(t, 4.0, sample["size"])
	assert.InDelta(t, 98.0, sample["mean"].(float64), 1e-12)
}

func TestCalculateUpload_CSV(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "scores.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("score\n104\n106\n"))
	require.NoError(t, err)
	for k, v := range map[string]string{
		"population_mean":    "100",
		"population_std_dev": "15",
		"significance_level": "0.05",
		"test_type":          "two-tailed",
		"approach":           "p_value",
		"column":             "score",
	} {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/calculate/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	observations := body["observations"].(map[string]interface{})
	assert.Equal(t, "score", observations["column"])
}

func TestCalculateUpload_MissingFile(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("test_type", "two-tailed"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/calculate/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	postJSON(t, s, `{"sample_mean": 105, "population_mean": 100, "population_std_dev": 15, "sample_size": 36, "significance_level": 0.05, "test_type": "two-tailed", "approach": "p-value"}`)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `ui_test_ztest_evaluations_total{alternative="two-tailed",approach="p-value",decision="Reject"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/calculate", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestFlexInt(t *testing.T) {
	var v flexInt
	require.NoError(t, json.Unmarshal([]byte(`"36"`), &v))
	assert.Equal(t, flexInt(36), v)
	require.NoError(t, json.Unmarshal([]byte(`36.0`), &v))
	assert.Equal(t, flexInt(36), v)
	assert.Error(t, json.Unmarshal([]byte(`"3.5"`), &v))
}

func TestClientLimiter(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := newClientLimiter(1, 2)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"), "burst exhausted")
	assert.True(t, l.allow("10.0.0.2"), "buckets are per client")

	now = now.Add(time.Second)
	assert.True(t, l.allow("10.0.0.1"), "one token refills per second")

	now = now.Add(10 * time.Minute)
	l.allow("10.0.0.3")
	assert.NotContains(t, l.visitors, "10.0.0.1")
	assert.Contains(t, l.visitors, "10.0.0.3")
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Server.GinMode = gin.TestMode
	cfg.Server.RateLimitRPS = 0.001
	cfg.Server.RateLimitBurst = 1
	s := NewServer(cfg, app.NewZTestService(engine.NewZTestEngine(), app.WithLogger(internal.NewNopLogger())), nil, internal.NewNopLogger())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", decode(t, rec)["code"])
}

func TestCalculate_OverflowingInputIsRejected(t *testing.T) {
	s := newTestServer(t)

	rec := postJSON(t, s, `{
		"sample_mean": "1", "population_mean": "0", "population_std_dev": "1e-310",
		"sample_size": "1", "significance_level": "0.05",
		"test_type": "two-tailed", "approach": "p_value"
	}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", decode(t, rec)["code"])

	rec = postJSON(t, s, `{
		"sample_mean": 105, "population_mean": 100, "population_std_dev": 15,
		"sample_size": 36, "significance_level": 1e-20,
		"test_type": "two-tailed", "approach": "p-value"
	}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "significance_level")
}

func TestShutdownBeforeStart(t *testing.T) {
	s := newTestServer(t)

	require.NoError(t, s.Shutdown(context.Background()))
	done := make(chan error, 1)
	go func() { done <- s.Start() }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Shutdown")
	}
}
