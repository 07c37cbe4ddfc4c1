package datastore

import (
	"context"
	"encoding/json"
	"slices"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dawnstudy/attendance/internal/attendance"
	"github.com/dawnstudy/attendance/internal/errors"
)

// Record is the decoded attendance record of one member on one day.
type Record struct {
	Day         attendance.Day
	MemberID    string
	Status      attendance.Status
	JoinedAt    *time.Time
	Submissions []string
}

var dayMemberColumns = []clause.Column{{Name: "day"}, {Name: "member_id"}}

// GetRecord returns the record of member on day, or an error wrapping ErrNotFound.
func (s *Store) GetRecord(ctx context.Context, day attendance.Day, memberID string) (Record, error) {
	var row AttendanceRecord
	err := s.db.WithContext(ctx).
		Where("day = ? AND member_id = ?", day.String(), memberID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Record{}, notFoundError("get_record", "attendance record", day.String()+"/"+memberID)
	}
	if err != nil {
		return Record{}, dbError(err, "get_record", "day", day.String(), "member", memberID)
	}
	return row.decode()
}

// ListRecords returns every record with from <= day <= to, ordered by day.
func (s *Store) ListRecords(ctx context.Context, from, to attendance.Day) ([]Record, error) {
	var rows []AttendanceRecord
	err := s.db.WithContext(ctx).
		Where("day >= ? AND day <= ?", from.String(), to.String()).
		Order("day, member_id").
		Find(&rows).Error
	if err != nil {
		return nil, dbError(err, "list_records", "from", from.String(), "to", to.String())
	}

	records := make([]Record, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].decode()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// UpdateStatus writes only the status column, creating the record if missing.
func (s *Store) UpdateStatus(ctx context.Context, day attendance.Day, memberID string, status attendance.Status) error {
	row := newRow(day, memberID)
	row.Status = string(status)

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   dayMemberColumns,
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return dbError(err, "update_status", "day", day.String(), "member", memberID, "status", string(status))
	}
	return nil
}

// SetJoinedAt records the first join of the day. It is a no-op returning false
// when joinedAt is already set.
func (s *Store) SetJoinedAt(ctx context.Context, day attendance.Day, memberID string, joinedAt time.Time) (bool, error) {
	db := s.db.WithContext(ctx)
	if err := s.ensureRow(db, day, memberID); err != nil {
		return false, dbError(err, "set_joined_at", "day", day.String(), "member", memberID)
	}

	res := db.Model(&AttendanceRecord{}).
		Where("day = ? AND member_id = ? AND joined_at IS NULL", day.String(), memberID).
		Updates(map[string]any{"joined_at": joinedAt.UTC(), "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, dbError(res.Error, "set_joined_at", "day", day.String(), "member", memberID)
	}
	return res.RowsAffected > 0, nil
}

// AppendSubmission appends problemID to the member's submissions for day under
// a row lock. It returns the resulting list and whether problemID was added;
// an already recorded id leaves the list unchanged.
func (s *Store) AppendSubmission(ctx context.Context, day attendance.Day, memberID, problemID string) ([]string, bool, error) {
	var (
		result []string
		added  bool
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensureRow(tx, day, memberID); err != nil {
			return err
		}

		var row AttendanceRecord
		if err := tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
			Where("day = ? AND member_id = ?", day.String(), memberID).
			Take(&row).Error; err != nil {
			return err
		}

		subs, err := decodeList(row.Submissions)
		if err != nil {
			return err
		}
		if slices.Contains(subs, problemID) {
			result = subs
			return nil
		}

		subs = append(subs, problemID)
		encoded, err := encodeList(subs)
		if err != nil {
			return err
		}
		if err := tx.Model(&AttendanceRecord{}).
			Where("id = ?", row.ID).
			Updates(map[string]any{"submissions": encoded, "updated_at": time.Now().UTC()}).Error; err != nil {
			return err
		}

		result, added = subs, true
		return nil
	})
	if err != nil {
		return nil, false, dbError(err, "append_submission", "day", day.String(), "member", memberID, "problem", problemID)
	}
	return result, added, nil
}

// ensureRow inserts an empty record for (day, member) unless one exists.
func (s *Store) ensureRow(db *gorm.DB, day attendance.Day, memberID string) error {
	row := newRow(day, memberID)
	return db.Clauses(clause.OnConflict{Columns: dayMemberColumns, DoNothing: true}).Create(&row).Error
}

func newRow(day attendance.Day, memberID string) AttendanceRecord {
	return AttendanceRecord{
		Day:         day.String(),
		MemberID:    memberID,
		Status:      string(attendance.StatusUnset),
		Submissions: "[]",
	}
}

func (r *AttendanceRecord) decode() (Record, error) {
	day, err := attendance.ParseDay(r.Day)
	if err != nil {
		return Record{}, dbError(err, "decode_record", "id", r.ID)
	}
	status, err := attendance.ParseStatus(r.Status)
	if err != nil {
		return Record{}, dbError(err, "decode_record", "id", r.ID)
	}
	subs, err := decodeList(r.Submissions)
	if err != nil {
		return Record{}, dbError(err, "decode_record", "id", r.ID)
	}

	rec := Record{Day: day, MemberID: r.MemberID, Status: status, Submissions: subs}
	if r.JoinedAt != nil {
		t := r.JoinedAt.UTC()
		rec.JoinedAt = &t
	}
	return rec, nil
}

func decodeList(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
