package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dawnstudy/attendance/internal/attendance"
)

func TestMetricsHandler(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)

	m.DayCheck.JobCompleted("midday", http.StatusOK, 250*time.Millisecond)
	m.DayCheck.StatusAssigned("midday", attendance.StatusPresent)
	m.HTTP.RecordHTTPRequest(http.MethodPost, "/api/v1/submissions", http.StatusOK, 0.01)
	m.MQTT.UpdateConnectionStatus(true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, `attendance_jobs_total{job="midday",status_code="200"} 1`)
	assert.Contains(t, text, `attendance_status_assignments_total{job="midday",status="present"} 1`)
	assert.Contains(t, text, `http_requests_total{method="POST",path="/api/v1/submissions",status_code="200"} 1`)
	assert.Contains(t, text, "mqtt_connection_status 1")
	assert.Contains(t, text, "go_goroutines")
}

func TestNewMetricsUsesPrivateRegistries(t *testing.T) {
	first, err := NewMetrics()
	require.NoError(t, err)
	second, err := NewMetrics()
	require.NoError(t, err)
	assert.NotSame(t, first.Registry(), second.Registry())
}
