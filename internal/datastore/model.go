package datastore

import (
	"time"
)

// AttendanceRecord is the persisted state of one member on one civil day.
type AttendanceRecord struct {
	ID          uint       `gorm:"primaryKey"`
	Day         string     `gorm:"size:10;not null;uniqueIndex:idx_attendance_day_member,priority:1"`
	MemberID    string     `gorm:"size:64;not null;uniqueIndex:idx_attendance_day_member,priority:2"`
	Status      string     `gorm:"size:32;not null;default:''"`
	JoinedAt    *time.Time // first join of the day
	Submissions string     `gorm:"type:text;not null"` // JSON array of problem ids, append-only
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName sets the table name for AttendanceRecord.
func (AttendanceRecord) TableName() string {
	return "attendance_records"
}

// NotificationRecord correlates a day's chat message(s) with the day.
type NotificationRecord struct {
	ID        uint   `gorm:"primaryKey"`
	Day       string `gorm:"size:10;not null;uniqueIndex:idx_notification_day_kind,priority:1"`
	Kind      string `gorm:"size:16;not null;uniqueIndex:idx_notification_day_kind,priority:2"`
	MessageID string `gorm:"size:255;not null"` // scalar id or JSON array [primary, secondary]
	SentAt    time.Time
	UpdatedAt time.Time
}

// TableName sets the table name for NotificationRecord.
func (NotificationRecord) TableName() string {
	return "notification_records"
}

// ProblemSet is the set of valid problem ids for one day.
type ProblemSet struct {
	ID        uint   `gorm:"primaryKey"`
	Day       string `gorm:"size:10;not null;uniqueIndex"`
	Problems  string `gorm:"type:text;not null"` // JSON array
	UpdatedAt time.Time
}

// TableName sets the table name for ProblemSet.
func (ProblemSet) TableName() string {
	return "problem_sets"
}

// PresenceEntry records that a member currently occupies a channel.
type PresenceEntry struct {
	ID        uint      `gorm:"primaryKey"`
	ChannelID string    `gorm:"size:64;not null;uniqueIndex:idx_presence_channel_member,priority:1"`
	MemberID  string    `gorm:"size:64;not null;uniqueIndex:idx_presence_channel_member,priority:2"`
	JoinedAt  time.Time `gorm:"not null"`
}

// TableName sets the table name for PresenceEntry.
func (PresenceEntry) TableName() string {
	return "presence_entries"
}

// models lists every table managed by AutoMigrate.
var models = []any{
	&AttendanceRecord{},
	&NotificationRecord{},
	&ProblemSet{},
	&PresenceEntry{},
}
