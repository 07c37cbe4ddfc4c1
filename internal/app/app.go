// Package app assembles the attendance service from its settings.
package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/dawnstudy/attendance/internal/api"
	"github.com/dawnstudy/attendance/internal/buildinfo"
	"github.com/dawnstudy/attendance/internal/conf"
	"github.com/dawnstudy/attendance/internal/correlator"
	"github.com/dawnstudy/attendance/internal/datastore"
	"github.com/dawnstudy/attendance/internal/daycheck"
	"github.com/dawnstudy/attendance/internal/discord"
	"github.com/dawnstudy/attendance/internal/errors"
	"github.com/dawnstudy/attendance/internal/httpclient"
	"github.com/dawnstudy/attendance/internal/logger"
	"github.com/dawnstudy/attendance/internal/mqtt"
	"github.com/dawnstudy/attendance/internal/notification"
	"github.com/dawnstudy/attendance/internal/observability"
	"github.com/dawnstudy/attendance/internal/observability/metrics"
	"github.com/dawnstudy/attendance/internal/summary"
	"github.com/dawnstudy/attendance/internal/telemetry"
)

// App owns the long-lived components of one process.
type App struct {
	Settings *conf.Settings
	Store    *datastore.Store
	Jobs     *daycheck.Service
	Metrics  *observability.Metrics // nil when metrics are disabled

	client         *httpclient.Client
	log            logger.Logger
	flushTelemetry func()
}

// New opens the store and builds the day jobs with their chat channel,
// alerting and metrics.
func New(ctx context.Context, settings *conf.Settings) (*App, error) {
	log := logger.Global().Module("app")

	flush, err := telemetry.Init(settings.Sentry, logger.Global().Module("telemetry"))
	if err != nil {
		return nil, err
	}
	a := &App{Settings: settings, log: log, flushTelemetry: flush}

	if settings.Metrics.Enabled {
		if a.Metrics, err = observability.NewMetrics(); err != nil {
			_ = a.Close()
			return nil, configError(err)
		}
	}

	policy, err := settings.Policy()
	if err != nil {
		_ = a.Close()
		return nil, configError(err)
	}
	roster, err := settings.Roster()
	if err != nil {
		_ = a.Close()
		return nil, configError(err)
	}

	if a.Store, err = datastore.Open(ctx, settings.Database, logger.Global().Module("datastore")); err != nil {
		_ = a.Close()
		return nil, err
	}

	a.client = httpclient.New(&httpclient.Config{
		DefaultTimeout: settings.Discord.Timeout,
		UserAgent:      buildinfo.Release(),
	})
	if a.Metrics != nil {
		a.client.SetAfterResponseHook(a.Metrics.HTTP.ObserveOutbound)
	}

	webhook, err := discord.NewWebhook(settings.Discord.WebhookURL, settings.Discord.Username, a.client, logger.Global().Module("discord"))
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	publisher := correlator.New(webhook, a.Store, logger.Global().Module("correlator"))

	opts := []daycheck.Option{daycheck.WithLogger(logger.Global().Module("daycheck"))}
	if a.Metrics != nil {
		opts = append(opts, daycheck.WithObserver(a.Metrics.DayCheck))
	}
	if settings.Alerts.Enabled {
		alerter, err := notification.NewAlerter(settings.Alerts, logger.Global().Module("notification"))
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		opts = append(opts, daycheck.WithAlerter(alerter))
	}

	a.Jobs, err = daycheck.New(daycheck.Config{
		Policy:         policy,
		Roster:         roster,
		Renderer:       summary.NewRenderer(settings.Labels(), policy.Location),
		CheckInChannel: settings.CheckIn.ChannelID,
		Concurrency:    settings.Jobs.Concurrency,
	}, a.Store, publisher, opts...)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	log.Debug("application assembled",
		logger.String("version", buildinfo.Version),
		logger.Int("members", len(roster.Members())),
		logger.Bool("metrics", a.Metrics != nil),
		logger.Bool("alerts", settings.Alerts.Enabled))
	return a, nil
}

// Serve runs the HTTP intake and the presence subscriber, whichever are
// enabled, until ctx is done or one of them fails.
func (a *App) Serve(ctx context.Context) error {
	if !a.Settings.API.Enabled && !a.Settings.MQTT.Enabled {
		return errors.Newf("nothing to serve: enable api or mqtt").
			Component("app").
			Category(errors.CategoryConfiguration).
			Build()
	}

	g, ctx := errgroup.WithContext(ctx)

	if a.Settings.API.Enabled {
		opts := []api.ServerOption{api.WithLogger(logger.Global().Module("api"))}
		if a.Metrics != nil {
			opts = append(opts, api.WithMetrics(a.Metrics))
		}
		server, err := api.New(api.ConfigFromSettings(a.Settings), a.Jobs, a.Store, opts...)
		if err != nil {
			return err
		}
		g.Go(func() error { return server.Run(ctx) })
	}

	if a.Settings.MQTT.Enabled {
		var m *metrics.MQTTMetrics
		if a.Metrics != nil {
			m = a.Metrics.MQTT
		}
		sub := mqtt.NewSubscriber(mqtt.ConfigFromSettings(a.Settings.MQTT), a.Store, m, logger.Global().Module("mqtt"))
		g.Go(func() error { return sub.Run(ctx) })
	}

	a.log.Info("attendance service running",
		logger.Bool("api", a.Settings.API.Enabled),
		logger.Bool("mqtt", a.Settings.MQTT.Enabled))
	return g.Wait()
}

// Close releases the store and the HTTP client and flushes telemetry.
func (a *App) Close() error {
	if a.client != nil {
		a.client.Close()
	}
	var err error
	if a.Store != nil {
		if cerr := a.Store.Close(); cerr != nil {
			err = fmt.Errorf("close datastore: %w", cerr)
		}
	}
	if a.flushTelemetry != nil {
		a.flushTelemetry()
	}
	return err
}

func configError(err error) error {
	return errors.New(err).Component("app").Category(errors.CategoryConfiguration).Build()
}
