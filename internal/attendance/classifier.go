package attendance

import "time"

// Input is the per-member state the classifier reads.
type Input struct {
	Status      Status
	JoinedAt    *time.Time // nil: not checked in
	Submissions int
	Wildcard    bool // derived from the roster for the day, never stored
}

// Midday applies the first classification pass for day.
//
// Terminal statuses (including dayoff) are returned unchanged. Otherwise:
// no join is absent; a met quota is present when joined by deadline1 and late
// after it; an unmet quota is ongoing (wildcard_ongoing) when joined by
// deadline2, else absent. Deadlines are inclusive.
func (p Policy) Midday(day Day, in Input) Status {
	if in.Status.IsTerminal() {
		return in.Status
	}
	if in.JoinedAt == nil {
		return StatusAbsent
	}

	deadline1, deadline2 := p.Deadlines(day)
	joined := *in.JoinedAt

	if in.Submissions >= p.Quota {
		if !joined.After(deadline1) {
			return StatusPresent
		}
		return StatusLate
	}

	if !joined.After(deadline2) {
		if in.Wildcard {
			return StatusWildcardOngoing
		}
		return StatusOngoing
	}
	return StatusAbsent
}

// DayEnd applies the end-of-day pass. Only provisional statuses move; every
// other status is returned unchanged.
func (p Policy) DayEnd(in Input) Status {
	switch in.Status {
	case StatusWildcardOngoing:
		if in.Submissions >= p.WildcardQuota {
			return StatusWildcardPresent
		}
		return StatusAbsent
	case StatusWildcardLate:
		if in.Submissions >= p.WildcardQuota {
			return StatusWildcardLate
		}
		return StatusAbsent
	case StatusLate:
		if in.Submissions >= p.Quota {
			return StatusLate
		}
		return StatusAbsent
	case StatusOngoing:
		if in.Submissions >= p.Quota {
			return StatusPresent
		}
		return StatusAbsent
	default:
		return in.Status
	}
}
