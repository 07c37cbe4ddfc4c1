package datastore

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dawnstudy/attendance/internal/attendance"
	"github.com/dawnstudy/attendance/internal/errors"
)

// GetProblemSet returns the valid problem ids for day, or an error wrapping ErrNotFound.
func (s *Store) GetProblemSet(ctx context.Context, day attendance.Day) ([]string, error) {
	var row ProblemSet
	err := s.db.WithContext(ctx).Where("day = ?", day.String()).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("get_problem_set", "problem set", day.String())
	}
	if err != nil {
		return nil, dbError(err, "get_problem_set", "day", day.String())
	}

	problems, err := decodeList(row.Problems)
	if err != nil {
		return nil, dbError(err, "get_problem_set", "day", day.String())
	}
	return problems, nil
}

// PutProblemSet replaces the problem ids of day.
func (s *Store) PutProblemSet(ctx context.Context, day attendance.Day, problems []string) error {
	if len(problems) == 0 {
		return validationError("problem set must not be empty", "problems", day.String())
	}
	encoded, err := encodeList(problems)
	if err != nil {
		return dbError(err, "put_problem_set", "day", day.String())
	}

	row := ProblemSet{Day: day.String(), Problems: encoded, UpdatedAt: time.Now().UTC()}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "day"}},
		DoUpdates: clause.AssignmentColumns([]string{"problems", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return dbError(err, "put_problem_set", "day", day.String())
	}
	return nil
}
