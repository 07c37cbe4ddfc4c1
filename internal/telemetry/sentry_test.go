package telemetry

import (
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dawnstudy/attendance/internal/conf"
	"github.com/dawnstudy/attendance/internal/errors"
)

func initForTesting(t *testing.T, minPriority string) *mockTransport {
	t.Helper()
	transport := &mockTransport{}
	flush, err := initWithOptions(sentry.ClientOptions{
		Transport:   transport,
		Environment: "test",
		SampleRate:  1.0,
	}, minPriority, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		flush()
		errors.SetTelemetryReporter(nil)
	})
	return transport
}

func TestReportsErrorsAtOrAboveMinPriority(t *testing.T) {
	transport := initForTesting(t, errors.PriorityHigh)

	_ = errors.Newf("post https://discord.com/api/webhooks/1/secret failed").
		Component("discord").
		Category(errors.CategoryNetwork).
		Priority(errors.PriorityCritical).
		Build()
	_ = errors.Newf("unknown member").
		Component("daycheck").
		Category(errors.CategoryValidation).
		Priority(errors.PriorityLow).
		Build()

	events := transport.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "discord", events[0].Tags["component"])
	assert.NotContains(t, events[0].Message, "secret")
	assert.Empty(t, events[0].ServerName)
}

func TestBeforeSendScrubs(t *testing.T) {
	event := &sentry.Event{
		Message:    "dial mqtt://user:pw@broker:1883 failed",
		ServerName: "study-host",
		User:       sentry.User{ID: "me"},
		Exception:  []sentry.Exception{{Value: "GET https://example.com/path?token=x"}},
		Tags:       map[string]string{"hostname": "study-host", "component": "mqtt"},
	}

	got := beforeSend(event, nil)

	assert.NotContains(t, got.Message, "pw@")
	assert.NotContains(t, got.Exception[0].Value, "token=x")
	assert.Empty(t, got.ServerName)
	assert.True(t, got.User.IsEmpty())
	assert.NotContains(t, got.Tags, "hostname")
	assert.Equal(t, "mqtt", got.Tags["component"])
}

func TestInitDisabled(t *testing.T) {
	flush, err := Init(conf.SentrySettings{Enabled: false}, nil)
	require.NoError(t, err)
	flush()
	assert.Nil(t, errors.GetTelemetryReporter())
}
