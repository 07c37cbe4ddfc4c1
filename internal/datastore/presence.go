package datastore

import (
	"context"
	"time"

	"gorm.io/gorm/clause"
)

// Presence is one member currently in a channel.
type Presence struct {
	ChannelID string
	MemberID  string
	JoinedAt  time.Time
}

// UpsertPresence records a join. A member already present keeps the earlier join time.
func (s *Store) UpsertPresence(ctx context.Context, channelID, memberID string, joinedAt time.Time) error {
	row := PresenceEntry{ChannelID: channelID, MemberID: memberID, JoinedAt: joinedAt.UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "channel_id"}, {Name: "member_id"}},
		DoNothing: true,
	}).Create(&row).Error
	if err != nil {
		return dbError(err, "upsert_presence", "channel", channelID, "member", memberID)
	}
	return nil
}

// DeletePresence records a leave. Deleting an absent entry is not an error.
func (s *Store) DeletePresence(ctx context.Context, channelID, memberID string) error {
	err := s.db.WithContext(ctx).
		Where("channel_id = ? AND member_id = ?", channelID, memberID).
		Delete(&PresenceEntry{}).Error
	if err != nil {
		return dbError(err, "delete_presence", "channel", channelID, "member", memberID)
	}
	return nil
}

// ListPresence returns the members currently in channelID, earliest join first.
func (s *Store) ListPresence(ctx context.Context, channelID string) ([]Presence, error) {
	var rows []PresenceEntry
	err := s.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("joined_at, member_id").
		Find(&rows).Error
	if err != nil {
		return nil, dbError(err, "list_presence", "channel", channelID)
	}

	out := make([]Presence, 0, len(rows))
	for _, r := range rows {
		out = append(out, Presence{ChannelID: r.ChannelID, MemberID: r.MemberID, JoinedAt: r.JoinedAt.UTC()})
	}
	return out, nil
}
