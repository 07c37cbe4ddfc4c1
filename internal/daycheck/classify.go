package daycheck

import (
	"context"

	"github.com/dawnstudy/attendance/internal/attendance"
	"github.com/dawnstudy/attendance/internal/datastore"
	"github.com/dawnstudy/attendance/internal/logger"
	"github.com/dawnstudy/attendance/internal/summary"
)

// classifyFunc returns the next status of a member from its stored record.
type classifyFunc func(rec datastore.Record, wildcard bool) attendance.Status

// classifyMembers runs one classification pass over the tracked members.
// A member whose read or write fails is reported in its result and rendered
// with its last known values; the others are unaffected.
func (s *Service) classifyMembers(ctx context.Context, log logger.Logger, job string, day attendance.Day, classify classifyFunc) ([]MemberResult, []summary.Row) {
	members := s.cfg.Roster.Tracked()
	results := make([]MemberResult, len(members))
	rows := make([]summary.Row, len(members))

	s.eachMember(ctx, members, func(ctx context.Context, i int, m attendance.Member) {
		mlog := log.With(logger.String("member", m.ID))
		res := MemberResult{Member: m.ID, Name: m.DisplayName(), Status: attendance.StatusUnset}
		defer func() {
			res.Label = s.cfg.Renderer.Label(res.Status)
			results[i] = res
			rows[i] = summary.Row{Name: res.Name, Status: res.Status, Submissions: res.Submissions, JoinedAt: res.JoinedAt}
		}()

		rec, err := s.loadRecord(ctx, day, m.ID)
		if err != nil {
			mlog.Error("failed to read attendance record", logger.String("operation", "get_record"), logger.Error(err))
			s.observer.MemberFailed(job, "get_record")
			res.Error = err.Error()
			return
		}
		res.Status = rec.Status
		res.Submissions = len(rec.Submissions)
		res.JoinedAt = rec.JoinedAt

		next := classify(rec, s.cfg.Roster.IsWildcard(day, m.ID))
		if next == rec.Status {
			return
		}
		if err := s.store.UpdateStatus(ctx, day, m.ID, next); err != nil {
			mlog.Error("failed to update status",
				logger.String("operation", "update_status"),
				logger.String("status", string(next)),
				logger.Error(err))
			s.observer.MemberFailed(job, "update_status")
			res.Error = err.Error()
			return
		}

		mlog.Debug("status changed", logger.String("from", string(rec.Status)), logger.String("to", string(next)))
		s.observer.StatusAssigned(job, next)
		res.Status = next
		res.Updated = true
	})

	return results, rows
}
