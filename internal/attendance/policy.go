package attendance

import (
	"fmt"
	"time"
)

// DefaultLocation is the civil time zone of the study group (UTC+9).
const DefaultLocation = "Asia/Seoul"

// Policy is the per-deployment classification configuration.
type Policy struct {
	Location      *time.Location
	Deadline1     Clock // joined at or before: eligible for present
	Deadline2     Clock // joined at or before: eligible for ongoing
	Quota         int   // submissions needed for present/late
	WildcardQuota int   // submissions needed by a wildcard member
}

// Validate checks the policy for internal consistency.
func (p Policy) Validate() error {
	if p.Location == nil {
		return fmt.Errorf("policy location is required")
	}
	if p.Deadline1.minutes() >= p.Deadline2.minutes() {
		return fmt.Errorf("deadline1 %s must be earlier than deadline2 %s", p.Deadline1, p.Deadline2)
	}
	if p.Quota < 1 {
		return fmt.Errorf("quota must be at least 1, got %d", p.Quota)
	}
	if p.WildcardQuota < 1 || p.WildcardQuota > p.Quota {
		return fmt.Errorf("wildcard quota must be between 1 and %d, got %d", p.Quota, p.WildcardQuota)
	}
	return nil
}

// Deadlines returns the two thresholds as instants on day.
func (p Policy) Deadlines(day Day) (deadline1, deadline2 time.Time) {
	return day.At(p.Deadline1, p.Location), day.At(p.Deadline2, p.Location)
}

// Today returns the civil day containing now.
func (p Policy) Today(now time.Time) Day {
	return DayOf(now, p.Location)
}
