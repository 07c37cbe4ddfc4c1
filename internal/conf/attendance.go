package conf

import (
	"fmt"
	"time"

	"github.com/dawnstudy/attendance/internal/attendance"
)

// Policy builds the classification policy from the attendance settings.
func (s *Settings) Policy() (attendance.Policy, error) {
	loc, err := s.Location()
	if err != nil {
		return attendance.Policy{}, err
	}
	d1, err := attendance.ParseClock(s.Attendance.Deadline1)
	if err != nil {
		return attendance.Policy{}, fmt.Errorf("deadline1: %w", err)
	}
	d2, err := attendance.ParseClock(s.Attendance.Deadline2)
	if err != nil {
		return attendance.Policy{}, fmt.Errorf("deadline2: %w", err)
	}

	p := attendance.Policy{
		Location:      loc,
		Deadline1:     d1,
		Deadline2:     d2,
		Quota:         s.Attendance.Quota,
		WildcardQuota: s.Attendance.WildcardQuota,
	}
	if err := p.Validate(); err != nil {
		return attendance.Policy{}, err
	}
	return p, nil
}

// Roster builds the member roster, including dated and weekly wildcards.
func (s *Settings) Roster() (*attendance.Roster, error) {
	members := make([]attendance.Member, 0, len(s.Members))
	for _, m := range s.Members {
		var days []time.Weekday
		for _, name := range m.Wildcard {
			wd, err := attendance.ParseWeekday(name)
			if err != nil {
				return nil, fmt.Errorf("member %q: %w", m.ID, err)
			}
			days = append(days, wd)
		}
		members = append(members, attendance.Member{
			ID:           m.ID,
			Name:         m.Name,
			GitHub:       m.GitHub,
			Tracked:      m.Tracked,
			WildcardDays: days,
		})
	}

	wildcards := make(map[attendance.Day][]string, len(s.Wildcards))
	for key, ids := range s.Wildcards {
		day, err := attendance.ParseDay(key)
		if err != nil {
			return nil, fmt.Errorf("wildcards: %w", err)
		}
		wildcards[day] = ids
	}

	return attendance.NewRoster(members, wildcards)
}

// Labels returns the configured status label overrides keyed by status.
func (s *Settings) Labels() map[attendance.Status]string {
	out := make(map[attendance.Status]string, len(s.Summary.Labels))
	for key, label := range s.Summary.Labels {
		if st, err := attendance.ParseStatus(key); err == nil {
			out[st] = label
		}
	}
	return out
}
