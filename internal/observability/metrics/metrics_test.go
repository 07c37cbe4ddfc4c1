package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dawnstudy/attendance/internal/attendance"
)

func TestDayCheckMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := NewDayCheckMetrics(registry)
	require.NoError(t, err)

	m.JobCompleted("midday", http.StatusOK, time.Second)
	m.JobCompleted("dayend", http.StatusInternalServerError, time.Second)
	m.StatusAssigned("midday", attendance.StatusLate)
	m.StatusAssigned("midday", attendance.StatusLate)
	m.SubmissionRecorded("added")
	m.MemberFailed("midday", "update_status")

	assert.InDelta(t, 1, testutil.ToFloat64(m.jobsTotal.WithLabelValues("midday", "200")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.jobsTotal.WithLabelValues("dayend", "500")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.statusesTotal.WithLabelValues("midday", "late")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.submissions.WithLabelValues("added")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.memberFailures.WithLabelValues("midday", "update_status")), 0)

	assert.Positive(t, testutil.ToFloat64(m.lastSuccessTime.WithLabelValues("midday")))
	assert.Zero(t, testutil.ToFloat64(m.lastSuccessTime.WithLabelValues("dayend")), "failed jobs do not move the success time")
}

func TestDayCheckMetrics_JobDuration(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := NewDayCheckMetrics(registry)
	require.NoError(t, err)

	m.JobCompleted("midday", http.StatusOK, 1500*time.Millisecond)
	m.JobCompleted("midday", http.StatusOK, 500*time.Millisecond)

	families, err := registry.Gather()
	require.NoError(t, err)

	var histogram *dto.Histogram
	for _, mf := range families {
		if mf.GetName() == "attendance_job_duration_seconds" {
			require.Len(t, mf.GetMetric(), 1)
			histogram = mf.GetMetric()[0].GetHistogram()
		}
	}
	require.NotNil(t, histogram)
	assert.Equal(t, uint64(2), histogram.GetSampleCount())
	assert.InDelta(t, 2.0, histogram.GetSampleSum(), 1e-9)
}

func TestDayCheckMetrics_DuplicateRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := NewDayCheckMetrics(registry)
	require.NoError(t, err)
	_, err = NewDayCheckMetrics(registry)
	assert.Error(t, err)
}

func TestHTTPMetrics_ObserveOutbound(t *testing.T) {
	m, err := NewHTTPMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "https://discord.com/api/webhooks/1/x", http.NoBody)
	m.ObserveOutbound(req, &http.Response{StatusCode: http.StatusNoContent}, nil, 20*time.Millisecond)
	m.ObserveOutbound(req, nil, errors.New("connection refused"), time.Millisecond)

	assert.InDelta(t, 1, testutil.ToFloat64(m.outboundRequestsTotal.WithLabelValues("POST", "discord.com", "204")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.outboundRequestsTotal.WithLabelValues("POST", "discord.com", StatusError)), 0)
}

func TestMQTTMetrics(t *testing.T) {
	m, err := NewMQTTMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.UpdateConnectionStatus(true)
	m.RecordMessage("join", StatusSuccess, 80)
	m.IncrementReconnectAttempts()

	assert.InDelta(t, 1, testutil.ToFloat64(m.ConnectionStatus), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.MessagesReceived.WithLabelValues("join", StatusSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ReconnectAttempts), 0)

	m.UpdateConnectionStatus(false)
	assert.Zero(t, testutil.ToFloat64(m.ConnectionStatus))
}
