package daycheck

import (
	"context"
	"math"

	"github.com/dawnstudy/attendance/internal/attendance"
	"github.com/dawnstudy/attendance/internal/datastore"
	"github.com/dawnstudy/attendance/internal/logger"
	"github.com/dawnstudy/attendance/internal/summary"
)

// WeeklyReport aggregates Monday to Friday of the week containing day. When
// announce is set the rendered report is posted to the chat channel.
func (s *Service) WeeklyReport(ctx context.Context, day attendance.Day, announce bool) (res Result) {
	ctx, log, finish := s.begin(ctx, JobWeekly, logger.String("day", day.String()))
	defer func() { finish(&res) }()

	monday, friday := day.WeekBounds()
	body := Body{Day: day.String()}

	records, err := s.store.ListRecords(ctx, monday, friday)
	if err != nil {
		body.Message = "failed to read the week's records"
		return fatal(body, err)
	}

	week := buildWeek(monday, friday, s.cfg.Roster.Tracked(), records)
	body.Report = &week

	if announce {
		id, err := s.publisher.Announce(ctx, s.cfg.Renderer.Weekly(week))
		if err != nil {
			body.Message = "failed to post the weekly report"
			return fatal(body, err)
		}
		body.MessageIDs = []string{id}
	}

	log.Info("weekly report built", logger.Int("records", len(records)), logger.Strings("mvps", week.MVPs))
	body.Message = "weekly report for " + monday.String() + " ~ " + friday.String()
	return ok(body)
}

// buildWeek totals the records per member in roster order. Wildcard statuses
// count as their plain counterparts; unsettled days are not counted. The MVPs
// are the members with the most attended days (present or late), ties broken
// by submissions and then all kept.
func buildWeek(from, to attendance.Day, members []attendance.Member, records []datastore.Record) summary.Week {
	index := make(map[string]int, len(members))
	week := summary.Week{From: from, To: to, Members: make([]summary.MemberWeek, len(members))}
	for i, m := range members {
		index[m.ID] = i
		week.Members[i] = summary.MemberWeek{Member: m.ID, Name: m.DisplayName()}
	}

	for _, rec := range records {
		i, ok := index[rec.MemberID]
		if !ok {
			continue
		}
		mw := &week.Members[i]
		mw.Submissions += len(rec.Submissions)
		switch rec.Status {
		case attendance.StatusPresent, attendance.StatusWildcardPresent:
			mw.Present++
		case attendance.StatusLate, attendance.StatusWildcardLate:
			mw.Late++
		case attendance.StatusAbsent:
			mw.Absent++
		case attendance.StatusDayOff:
			mw.DayOff++
		}
	}

	bestAttended, bestSubs := 0, 0
	for i := range week.Members {
		mw := &week.Members[i]
		attended := mw.Present + mw.Late
		if counted := attended + mw.Absent; counted > 0 {
			mw.Rate = math.Round(float64(attended)/float64(counted)*1000) / 10
		}
		if attended > bestAttended || (attended == bestAttended && mw.Submissions > bestSubs) {
			bestAttended, bestSubs = attended, mw.Submissions
		}
	}

	week.MVPs = []string{}
	if bestAttended == 0 && bestSubs == 0 {
		return week
	}
	for _, mw := range week.Members {
		if mw.Present+mw.Late == bestAttended && mw.Submissions == bestSubs {
			week.MVPs = append(week.MVPs, mw.Name)
		}
	}
	return week
}
