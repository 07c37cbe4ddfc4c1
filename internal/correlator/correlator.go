// Package correlator ties a day's chat message(s) to the notification record
// so that later passes can correct what was posted earlier.
package correlator

import (
	"context"
	"time"

	"github.com/dawnstudy/attendance/internal/attendance"
	"github.com/dawnstudy/attendance/internal/datastore"
	"github.com/dawnstudy/attendance/internal/discord"
	"github.com/dawnstudy/attendance/internal/errors"
	"github.com/dawnstudy/attendance/internal/logger"
)

// Channel is the chat channel the correlator posts to.
type Channel interface {
	Send(ctx context.Context, content string) (string, error)
	Edit(ctx context.Context, messageID, content string) error
	Delete(ctx context.Context, messageID string) error
}

// Store persists notification records.
type Store interface {
	GetNotification(ctx context.Context, day attendance.Day, kind string) (datastore.Notification, error)
	PutNotification(ctx context.Context, n datastore.Notification) error
}

// Correlator publishes and amends day messages.
type Correlator struct {
	channel Channel
	store   Store
	log     logger.Logger
	now     func() time.Time
}

// New returns a correlator over channel and store.
func New(channel Channel, store Store, log logger.Logger) *Correlator {
	if log == nil {
		log = logger.Global().Module("correlator")
	}
	return &Correlator{channel: channel, store: store, log: log, now: time.Now}
}

// Publish sends text as a new message and records it for (day, kind). A
// message already recorded for the pair becomes the secondary handle; an older
// secondary is deleted first so at most two handles are tracked.
func (c *Correlator) Publish(ctx context.Context, day attendance.Day, kind, text string) (MessageHandles, error) {
	log := c.log.WithContext(ctx).With(logger.String("day", day.String()), logger.String("kind", kind))

	var previous MessageHandles
	existing, err := c.store.GetNotification(ctx, day, kind)
	switch {
	case err == nil:
		if previous, err = ParseHandles(existing.MessageID); err != nil {
			log.Warn("ignoring unreadable notification record", logger.Error(err))
			previous = MessageHandles{}
		}
	case errors.Is(err, datastore.ErrNotFound):
	default:
		return MessageHandles{}, err
	}

	id, err := c.channel.Send(ctx, text)
	if err != nil {
		return MessageHandles{}, err
	}

	if previous.Secondary != "" {
		c.deleteStale(ctx, log, previous.Secondary)
	}

	handles := MessageHandles{Primary: id, Secondary: previous.Primary}
	if err := c.store.PutNotification(ctx, datastore.Notification{
		Day:       day,
		Kind:      kind,
		MessageID: handles.Encode(),
		SentAt:    c.now(),
	}); err != nil {
		log.Error("message sent but not recorded", logger.String("message_id", id), logger.Error(err))
		return handles, err
	}

	if handles.Secondary != "" {
		log.Info("message re-published, previous one is now a stale duplicate",
			logger.String("message_id", id),
			logger.String("stale_message_id", handles.Secondary))
	} else {
		log.Info("message published", logger.String("message_id", id))
	}
	return handles, nil
}

// Amend rewrites the recorded message of (day, kind) with text. A stale
// secondary is deleted first (already gone is fine), the primary is edited,
// and the record is rewritten without the secondary. A missing record
// returns an error wrapping datastore.ErrNotFound and touches no message.
func (c *Correlator) Amend(ctx context.Context, day attendance.Day, kind, text string) (MessageHandles, error) {
	log := c.log.WithContext(ctx).With(logger.String("day", day.String()), logger.String("kind", kind))

	existing, err := c.store.GetNotification(ctx, day, kind)
	if err != nil {
		return MessageHandles{}, err
	}
	handles, err := ParseHandles(existing.MessageID)
	if err != nil {
		return MessageHandles{}, errors.New(err).
			Component("correlator").
			Category(errors.CategoryState).
			Context("day", day.String()).
			Context("kind", kind).
			Build()
	}

	result := MessageHandles{Primary: handles.Primary}
	if handles.Secondary != "" && !c.deleteStale(ctx, log, handles.Secondary) {
		result.Secondary = handles.Secondary
	}

	if err := c.channel.Edit(ctx, handles.Primary, text); err != nil {
		return handles, err
	}

	if result != handles {
		if err := c.store.PutNotification(ctx, datastore.Notification{
			Day:       day,
			Kind:      kind,
			MessageID: result.Encode(),
			SentAt:    existing.SentAt,
		}); err != nil {
			return result, err
		}
	}

	log.Info("message amended", logger.String("message_id", handles.Primary))
	return result, nil
}

// deleteStale removes a duplicate message and reports whether it is gone.
func (c *Correlator) deleteStale(ctx context.Context, log logger.Logger, messageID string) bool {
	err := c.channel.Delete(ctx, messageID)
	switch {
	case err == nil:
		log.Debug("stale message deleted", logger.String("message_id", messageID))
		return true
	case errors.Is(err, discord.ErrUnknownMessage):
		log.Debug("stale message already gone", logger.String("message_id", messageID))
		return true
	default:
		log.Warn("failed to delete stale message", logger.String("message_id", messageID), logger.Error(err))
		return false
	}
}

// Announce posts text as a standalone message that is never amended.
func (c *Correlator) Announce(ctx context.Context, text string) (string, error) {
	id, err := c.channel.Send(ctx, text)
	if err != nil {
		return "", err
	}
	c.log.WithContext(ctx).Info("announcement posted", logger.String("message_id", id))
	return id, nil
}
