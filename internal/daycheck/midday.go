package daycheck

import (
	"context"

	"github.com/dawnstudy/attendance/internal/attendance"
	"github.com/dawnstudy/attendance/internal/datastore"
	"github.com/dawnstudy/attendance/internal/logger"
	"github.com/dawnstudy/attendance/internal/summary"
)

// MiddayCheck classifies every tracked member for day, persists the new
// statuses and publishes the day summary.
func (s *Service) MiddayCheck(ctx context.Context, day attendance.Day) (res Result) {
	ctx, log, finish := s.begin(ctx, JobMidday, logger.String("day", day.String()))
	defer func() { finish(&res) }()

	results, rows := s.classifyMembers(ctx, log, JobMidday, day, func(rec datastore.Record, wildcard bool) attendance.Status {
		return s.cfg.Policy.Midday(day, attendance.Input{
			Status:      rec.Status,
			JoinedAt:    rec.JoinedAt,
			Submissions: len(rec.Submissions),
			Wildcard:    wildcard,
		})
	})

	body := Body{Day: day.String(), Results: results}
	text := s.cfg.Renderer.Daily(day, summary.PhaseMidday, rows, s.now())

	handles, err := s.publisher.Publish(ctx, day, datastore.KindSummary, text)
	if err != nil {
		body.Message = "failed to publish the day summary"
		return fatal(body, err)
	}

	body.Message = "midday check completed"
	body.MessageIDs = handles.Handles()
	return ok(body)
}
