package daycheck

import (
	"context"

	"github.com/dawnstudy/attendance/internal/attendance"
	"github.com/dawnstudy/attendance/internal/datastore"
	"github.com/dawnstudy/attendance/internal/errors"
	"github.com/dawnstudy/attendance/internal/logger"
	"github.com/dawnstudy/attendance/internal/summary"
)

// DayEndReassessment settles the provisional statuses of day and amends the
// day summary posted by MiddayCheck. Without a recorded summary message the
// invocation fails with 500 and no chat call is made.
func (s *Service) DayEndReassessment(ctx context.Context, day attendance.Day) (res Result) {
	ctx, log, finish := s.begin(ctx, JobDayEnd, logger.String("day", day.String()))
	defer func() { finish(&res) }()

	results, rows := s.classifyMembers(ctx, log, JobDayEnd, day, func(rec datastore.Record, wildcard bool) attendance.Status {
		if !rec.Status.IsProvisional() {
			return rec.Status
		}
		return s.cfg.Policy.DayEnd(attendance.Input{
			Status:      rec.Status,
			JoinedAt:    rec.JoinedAt,
			Submissions: len(rec.Submissions),
			Wildcard:    wildcard,
		})
	})

	body := Body{Day: day.String(), Results: results}
	text := s.cfg.Renderer.Daily(day, summary.PhaseDayEnd, rows, s.now())

	handles, err := s.publisher.Amend(ctx, day, datastore.KindSummary, text)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			body.Message = "no summary message recorded for " + day.String()
		} else {
			body.Message = "failed to amend the day summary"
		}
		return fatal(body, err)
	}

	body.Message = "end-of-day reassessment completed"
	body.MessageIDs = handles.Handles()
	return ok(body)
}
