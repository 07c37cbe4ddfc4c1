package datastore

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dawnstudy/attendance/internal/attendance"
	"github.com/dawnstudy/attendance/internal/errors"
)

// Notification kinds.
const (
	KindSummary = "summary"
	KindCheckIn = "checkin"
)

// Notification is the stored correlation between a day and its chat message.
// MessageID is kept in its raw stored form; see the correlator for decoding.
type Notification struct {
	Day       attendance.Day
	Kind      string
	MessageID string
	SentAt    time.Time
	UpdatedAt time.Time
}

// GetNotification returns the notification of kind for day, or an error wrapping ErrNotFound.
func (s *Store) GetNotification(ctx context.Context, day attendance.Day, kind string) (Notification, error) {
	var row NotificationRecord
	err := s.db.WithContext(ctx).
		Where("day = ? AND kind = ?", day.String(), kind).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Notification{}, notFoundError("get_notification", "notification", day.String()+"/"+kind)
	}
	if err != nil {
		return Notification{}, dbError(err, "get_notification", "day", day.String(), "kind", kind)
	}
	return Notification{
		Day:       day,
		Kind:      row.Kind,
		MessageID: row.MessageID,
		SentAt:    row.SentAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}, nil
}

// PutNotification creates or replaces the message id of (day, kind). The
// first SentAt is kept across replacements.
func (s *Store) PutNotification(ctx context.Context, n Notification) error {
	if n.Kind == "" {
		return validationError("notification kind is required", "kind", n.Kind)
	}
	sentAt := n.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now()
	}

	row := NotificationRecord{
		Day:       n.Day.String(),
		Kind:      n.Kind,
		MessageID: n.MessageID,
		SentAt:    sentAt.UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "day"}, {Name: "kind"}},
		DoUpdates: clause.AssignmentColumns([]string{"message_id", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return dbError(err, "put_notification", "day", n.Day.String(), "kind", n.Kind)
	}
	return nil
}
