// Package metrics exposes Prometheus instrumentation for the z-test service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all service metrics on a private registry. A nil
// *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	evaluationsTotal      *prometheus.CounterVec
	evaluationErrorsTotal *prometheus.CounterVec
	chartRenderDuration   prometheus.Histogram

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewCollector creates a collector whose metrics are prefixed with namespace
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		evaluationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ztest_evaluations_total",
				Help:      "Total number of completed z-test evaluations",
			},
			[]string{"alternative", "approach", "decision"},
		),
		evaluationErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ztest_evaluation_errors_total",
				Help:      "Total number of rejected or failed z-test evaluations",
			},
			[]string{"code"},
		),
		chartRenderDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "chart_render_duration_seconds",
				Help:      "Time spent rendering rejection-region charts",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
			},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

// RecordEvaluation counts one successful evaluation
func (c *Collector) RecordEvaluation(alternative, approach, decision string) {
	if c == nil {
		return
	}
	c.evaluationsTotal.WithLabelValues(alternative, approach, decision).Inc()
}

// RecordEvaluationError counts one failed evaluation by error code
func (c *Collector) RecordEvaluationError(code string) {
	if c == nil {
		return
	}
	c.evaluationErrorsTotal.WithLabelValues(code).Inc()
}

// ObserveChartRender records how long a chart took to render
func (c *Collector) ObserveChartRender(d time.Duration) {
	if c == nil {
		return
	}
	c.chartRenderDuration.Observe(d.Seconds())
}

// RecordHTTPRequest records one served request
func (c *Collector) RecordHTTPRequest(method, path string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
