package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics contains the metrics of the operator API and of outbound
// chat webhook calls.
type HTTPMetrics struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	authOperationsTotal *prometheus.CounterVec

	outboundRequestsTotal   *prometheus.CounterVec
	outboundRequestDuration *prometheus.HistogramVec
}

// NewHTTPMetrics creates and registers new HTTP metrics
func NewHTTPMetrics(registry *prometheus.Registry) (*HTTPMetrics, error) {
	m := &HTTPMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *HTTPMetrics) initMetrics() {
	m.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"}, // path is the route template, e.g. /api/v1/records/:day
	)

	m.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Time taken for HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	m.authOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_auth_operations_total",
			Help: "Total number of authentication operations",
		},
		[]string{"auth_type", "status"}, // status: success, error
	)

	m.outboundRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_outbound_requests_total",
			Help: "Total number of outbound HTTP requests",
		},
		[]string{"method", "host", "status_code"}, // status_code: "error" when no response was received
	)

	m.outboundRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_outbound_request_duration_seconds",
			Help:    "Time taken for outbound HTTP requests",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount12), // 1ms to ~4s
		},
		[]string{"method", "host"},
	)
}

func (m *HTTPMetrics) getCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.authOperationsTotal,
		m.outboundRequestsTotal,
		m.outboundRequestDuration,
	}
}

// Describe implements the Collector interface
func (m *HTTPMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.getCollectors() {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *HTTPMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.getCollectors() {
		collector.Collect(ch)
	}
}

// RecordHTTPRequest records an HTTP request
func (m *HTTPMetrics) RecordHTTPRequest(method, path string, statusCode int, duration float64) {
	m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordAuthOperation records an authentication attempt
func (m *HTTPMetrics) RecordAuthOperation(authType, status string) {
	m.authOperationsTotal.WithLabelValues(authType, status).Inc()
}

// ObserveOutbound records an outbound request. Its signature matches the
// after-response hook of httpclient.Client.
func (m *HTTPMetrics) ObserveOutbound(req *http.Request, resp *http.Response, err error, elapsed time.Duration) {
	code := StatusError
	if err == nil && resp != nil {
		code = strconv.Itoa(resp.StatusCode)
	}
	m.outboundRequestsTotal.WithLabelValues(req.Method, req.URL.Host, code).Inc()
	m.outboundRequestDuration.WithLabelValues(req.Method, req.URL.Host).Observe(elapsed.Seconds())
}
