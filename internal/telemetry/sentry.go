// Package telemetry wires error telemetry: categorized errors built with the
// errors package are reported to Sentry once a reporter is installed.
package telemetry

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/dawnstudy/attendance/internal/buildinfo"
	"github.com/dawnstudy/attendance/internal/conf"
	"github.com/dawnstudy/attendance/internal/errors"
	"github.com/dawnstudy/attendance/internal/logger"
	"github.com/dawnstudy/attendance/internal/privacy"
)

const flushTimeout = 2 * time.Second

// Init starts the Sentry client and installs the error reporter. The
// returned function flushes pending events; it is a no-op when telemetry is
// disabled.
func Init(settings conf.SentrySettings, log logger.Logger) (flush func(), err error) {
	if !settings.Enabled {
		errors.SetTelemetryReporter(nil)
		return func() {}, nil
	}
	return initWithOptions(sentry.ClientOptions{
		Dsn:              settings.DSN,
		Environment:      settings.Environment,
		Release:          buildinfo.Release(),
		SampleRate:       1.0,
		AttachStacktrace: false,
		ServerName:       "",
	}, settings.MinPriority, log)
}

func initWithOptions(opts sentry.ClientOptions, minPriority string, log logger.Logger) (func(), error) {
	opts.BeforeSend = beforeSend
	if err := sentry.Init(opts); err != nil {
		return nil, errors.New(err).
			Component("telemetry").
			Category(errors.CategoryConfiguration).
			Build()
	}
	errors.SetTelemetryReporter(errors.NewSentryReporter(true, minPriority))

	if log != nil {
		log.Info("error telemetry enabled",
			logger.String("environment", opts.Environment),
			logger.String("min_priority", minPriority))
	}
	return Flush, nil
}

// Flush waits for queued events to be delivered.
func Flush() {
	sentry.Flush(flushTimeout)
}

// beforeSend strips host identification and scrubs URLs from every event.
func beforeSend(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	event.User = sentry.User{}
	event.ServerName = ""
	event.Request = nil
	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
	}
	if event.Tags != nil {
		delete(event.Tags, "server_name")
		delete(event.Tags, "hostname")
	}

	event.Message = privacy.ScrubMessage(event.Message)
	for i := range event.Exception {
		event.Exception[i].Value = privacy.ScrubMessage(event.Exception[i].Value)
	}
	return event
}
