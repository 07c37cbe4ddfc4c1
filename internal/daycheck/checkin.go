package daycheck

import (
	"context"

	"github.com/dawnstudy/attendance/internal/attendance"
	"github.com/dawnstudy/attendance/internal/datastore"
	"github.com/dawnstudy/attendance/internal/errors"
	"github.com/dawnstudy/attendance/internal/logger"
)

// CheckIn snapshots the presence channel: every tracked member in it gets a
// joinedAt for day (the first one wins) and a joined/not joined message is
// published as the day's check-in notification.
func (s *Service) CheckIn(ctx context.Context, day attendance.Day) (res Result) {
	ctx, log, finish := s.begin(ctx, JobCheckIn, logger.String("day", day.String()))
	defer func() { finish(&res) }()

	body := Body{Day: day.String()}
	if s.cfg.CheckInChannel == "" {
		body.Message = "check-in channel is not configured"
		return fatal(body, errors.Newf("check-in channel is not configured").
			Component("daycheck").
			Category(errors.CategoryConfiguration).
			Build())
	}

	entries, err := s.store.ListPresence(ctx, s.cfg.CheckInChannel)
	if err != nil {
		body.Message = "failed to read presence"
		return fatal(body, err)
	}
	present := make(map[string]datastore.Presence, len(entries))
	for _, e := range entries {
		present[e.MemberID] = e
	}

	// A member who stayed in the channel overnight joined at the start of day.
	dayStart := day.At(attendance.Clock{}, s.cfg.Policy.Location)

	members := s.cfg.Roster.Tracked()
	results := make([]MemberResult, len(members))
	s.eachMember(ctx, members, func(ctx context.Context, i int, m attendance.Member) {
		res := MemberResult{Member: m.ID, Name: m.DisplayName()}
		defer func() { results[i] = res }()

		entry, ok := present[m.ID]
		if !ok {
			return
		}
		joinedAt := entry.JoinedAt
		if joinedAt.Before(dayStart) {
			joinedAt = dayStart
		}
		res.JoinedAt = &joinedAt

		set, err := s.store.SetJoinedAt(ctx, day, m.ID, joinedAt)
		if err != nil {
			log.Error("failed to record join time",
				logger.String("member", m.ID),
				logger.String("operation", "set_joined_at"),
				logger.Error(err))
			s.observer.MemberFailed(JobCheckIn, "set_joined_at")
			res.Error = err.Error()
			return
		}
		res.Updated = set
	})

	var joined, notJoined []string
	for _, r := range results {
		if r.JoinedAt != nil {
			joined = append(joined, r.Name)
		} else {
			notJoined = append(notJoined, r.Name)
		}
	}
	body.Results = results

	text := s.cfg.Renderer.CheckIn(day, joined, notJoined, s.now())
	handles, err := s.publisher.Publish(ctx, day, datastore.KindCheckIn, text)
	if err != nil {
		body.Message = "failed to publish the check-in snapshot"
		return fatal(body, err)
	}

	body.Message = "check-in recorded"
	body.MessageIDs = handles.Handles()
	return ok(body)
}
