// Package observability exposes the Prometheus metrics of the attendance
// service. Error telemetry is handled in the telemetry package.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dawnstudy/attendance/internal/logger"
	"github.com/dawnstudy/attendance/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry *prometheus.Registry
	DayCheck *metrics.DayCheckMetrics
	HTTP     *metrics.HTTPMetrics
	MQTT     *metrics.MQTTMetrics
}

// NewMetrics creates a new instance of Metrics on a private registry.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	dayCheckMetrics, err := metrics.NewDayCheckMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create day check metrics: %w", err)
	}

	httpMetrics, err := metrics.NewHTTPMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP metrics: %w", err)
	}

	mqttMetrics, err := metrics.NewMQTTMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create MQTT metrics: %w", err)
	}

	return &Metrics{
		registry: registry,
		DayCheck: dayCheckMetrics,
		HTTP:     httpMetrics,
		MQTT:     mqttMetrics,
	}, nil
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      errorLog{logger.Global().Module("metrics")},
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// errorLog adapts a Logger to promhttp.Logger.
type errorLog struct {
	log logger.Logger
}

func (e errorLog) Println(v ...any) {
	e.log.Error("metrics handler error", logger.String("error", fmt.Sprint(v...)))
}
