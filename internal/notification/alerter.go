// Package notification sends operator alerts about failed attendance jobs
// through shoutrrr service URLs.
package notification

import (
	"context"
	"io"
	"log"
	"slices"
	"time"

	"github.com/nicholas-fedor/shoutrrr"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"
	"github.com/patrickmn/go-cache"

	"github.com/dawnstudy/attendance/internal/conf"
	"github.com/dawnstudy/attendance/internal/errors"
	"github.com/dawnstudy/attendance/internal/logger"
	"github.com/dawnstudy/attendance/internal/privacy"
)

const (
	defaultCooldown = 10 * time.Minute
	defaultTimeout  = 10 * time.Second
)

// sender is the part of the shoutrrr router used here.
type sender interface {
	Send(message string, params *stypes.Params) []error
}

// Alerter delivers alerts to every configured service. The same title is
// sent at most once per cooldown window.
type Alerter struct {
	sender   sender
	recent   *cache.Cache
	cooldown time.Duration
	log      logger.Logger
}

// NewAlerter validates the service URLs and builds the sender.
func NewAlerter(settings conf.AlertSettings, l logger.Logger) (*Alerter, error) {
	if len(settings.URLs) == 0 {
		return nil, errors.Newf("at least one alert URL is required").
			Component("notification").
			Category(errors.CategoryConfiguration).
			Build()
	}

	router, err := shoutrrr.CreateSender(slices.Clone(settings.URLs)...)
	if err != nil {
		// shoutrrr errors echo the URL, tokens included
		return nil, errors.New(privacy.WrapError(err)).
			Component("notification").
			Category(errors.CategoryConfiguration).
			Build()
	}
	router.Timeout = defaultTimeout
	router.SetLogger(log.New(io.Discard, "", 0))

	return newAlerter(router, settings.Cooldown, l), nil
}

func newAlerter(s sender, cooldown time.Duration, l logger.Logger) *Alerter {
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	if l == nil {
		l = logger.Global().Module("notification")
	}
	return &Alerter{
		sender:   s,
		recent:   cache.New(cooldown, 2*cooldown),
		cooldown: cooldown,
		log:      l,
	}
}

// Alert sends title and message to every service. Delivery errors are joined
// and scrubbed of URLs.
func (a *Alerter) Alert(ctx context.Context, title, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := a.recent.Add(title, struct{}{}, a.cooldown); err != nil {
		a.log.Debug("alert suppressed within cooldown", logger.String("title", title))
		return nil
	}

	params := stypes.Params{}
	params.SetTitle(title)

	var failed []error
	for _, err := range a.sender.Send(privacy.ScrubMessage(message), &params) {
		if err != nil {
			failed = append(failed, privacy.WrapError(err))
		}
	}
	if len(failed) > 0 {
		// let the next occurrence retry
		a.recent.Delete(title)
		return errors.New(errors.Join(failed...)).
			Component("notification").
			Category(errors.CategoryIntegration).
			Priority(errors.PriorityMedium).
			Context("title", title).
			Build()
	}

	a.log.Info("operator alert sent", logger.String("title", title))
	return nil
}
