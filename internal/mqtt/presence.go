// Package mqtt subscribes to the presence feed: join and leave events of the
// check-in voice channel published by the chat bot gateway.
package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/dawnstudy/attendance/internal/errors"
)

// Presence event kinds.
const (
	EventJoin  = "join"
	EventLeave = "leave"
)

// Event is the JSON payload of a presence message.
type Event struct {
	Event     string    `json:"event"`
	ChannelID string    `json:"channelId"`
	MemberID  string    `json:"memberId"`
	At        time.Time `json:"at"`
}

// PresenceStore is the part of the record store the feed writes to.
type PresenceStore interface {
	UpsertPresence(ctx context.Context, channelID, memberID string, joinedAt time.Time) error
	DeletePresence(ctx context.Context, channelID, memberID string) error
}

// DecodeEvent parses and validates a presence payload. A join without a
// timestamp is stamped with now.
func DecodeEvent(payload []byte, now time.Time) (Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Event{}, invalidEvent("malformed presence payload: %v", err)
	}
	ev.Event = strings.ToLower(strings.TrimSpace(ev.Event))
	ev.ChannelID = strings.TrimSpace(ev.ChannelID)
	ev.MemberID = strings.TrimSpace(ev.MemberID)

	if ev.ChannelID == "" || ev.MemberID == "" {
		return Event{}, invalidEvent("presence event needs channelId and memberId")
	}
	switch ev.Event {
	case EventJoin:
		if ev.At.IsZero() {
			ev.At = now
		}
	case EventLeave:
	default:
		return Event{}, invalidEvent("unknown presence event %q", ev.Event)
	}
	return ev, nil
}

// Apply writes ev to the store.
func Apply(ctx context.Context, store PresenceStore, ev Event) error {
	if ev.Event == EventJoin {
		return store.UpsertPresence(ctx, ev.ChannelID, ev.MemberID, ev.At)
	}
	return store.DeletePresence(ctx, ev.ChannelID, ev.MemberID)
}

func invalidEvent(format string, args ...any) error {
	return errors.Newf(format, args...).
		Component("mqtt").
		Category(errors.CategoryValidation).
		Priority(errors.PriorityLow).
		Build()
}
