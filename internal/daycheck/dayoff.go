package daycheck

import (
	"context"

	"github.com/dawnstudy/attendance/internal/attendance"
	"github.com/dawnstudy/attendance/internal/logger"
)

// MarkDayOff sets member's status on day to dayoff. Only an unset or
// provisional status may be replaced; marking twice is a no-op.
func (s *Service) MarkDayOff(ctx context.Context, day attendance.Day, memberID string) (res Result) {
	ctx, log, finish := s.begin(ctx, JobDayOff, logger.String("day", day.String()), logger.String("member", memberID))
	defer func() { finish(&res) }()

	body := Body{Day: day.String(), Member: memberID}

	member, found := s.cfg.Roster.Member(memberID)
	if !found {
		body.Message = "day-off rejected"
		return failure(body, invalidInput(ErrUnknownMember, "%q is not on the roster", memberID))
	}

	rec, err := s.loadRecord(ctx, day, member.ID)
	if err != nil {
		body.Message = "failed to read the attendance record"
		return fatal(body, err)
	}

	result := MemberResult{
		Member:      member.ID,
		Name:        member.DisplayName(),
		Status:      rec.Status,
		Submissions: len(rec.Submissions),
		JoinedAt:    rec.JoinedAt,
	}

	switch {
	case rec.Status == attendance.StatusDayOff:
		body.Message = "already marked as day off"
	case rec.Status == attendance.StatusUnset || rec.Status.IsProvisional():
		if err := s.store.UpdateStatus(ctx, day, member.ID, attendance.StatusDayOff); err != nil {
			body.Message = "failed to mark day off"
			return fatal(body, err)
		}
		log.Info("day off marked", logger.String("previous", string(rec.Status)))
		s.observer.StatusAssigned(JobDayOff, attendance.StatusDayOff)
		result.Status = attendance.StatusDayOff
		result.Updated = true
		body.Message = "marked as day off"
	default:
		body.Message = "day-off rejected"
		return failure(body, invalidInput(ErrStatusSettled, "%s is already %s on %s", member.ID, rec.Status, day))
	}

	result.Label = s.cfg.Renderer.Label(result.Status)
	body.Results = []MemberResult{result}
	return ok(body)
}
