// Package attendance holds the attendance state machine: statuses, civil days,
// deployment policy, the member roster, and the pure classification rules.
package attendance

import "fmt"

// Status is the classification of one member on one civil day.
type Status string

const (
	StatusUnset           Status = "unset"
	StatusOngoing         Status = "ongoing"
	StatusLate            Status = "late"
	StatusPresent         Status = "present"
	StatusAbsent          Status = "absent"
	StatusDayOff          Status = "dayoff"
	StatusWildcardOngoing Status = "wildcard_ongoing"
	StatusWildcardLate    Status = "wildcard_late"
	StatusWildcardPresent Status = "wildcard_present"
)

// Statuses lists every status in display order.
var Statuses = []Status{
	StatusPresent,
	StatusWildcardPresent,
	StatusLate,
	StatusWildcardLate,
	StatusOngoing,
	StatusWildcardOngoing,
	StatusDayOff,
	StatusAbsent,
	StatusUnset,
}

// ParseStatus converts a stored value into a Status. An empty value is StatusUnset.
func ParseStatus(s string) (Status, error) {
	if s == "" {
		return StatusUnset, nil
	}
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown attendance status %q", s)
}

// IsTerminal reports whether no classification pass may change the status.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusPresent, StatusWildcardPresent, StatusAbsent, StatusDayOff:
		return true
	default:
		return false
	}
}

// IsProvisional reports whether the end-of-day pass re-evaluates the status.
func (s Status) IsProvisional() bool {
	switch s {
	case StatusOngoing, StatusLate, StatusWildcardOngoing, StatusWildcardLate:
		return true
	default:
		return false
	}
}

// IsWildcard reports whether the status is one of the wildcard variants.
func (s Status) IsWildcard() bool {
	switch s {
	case StatusWildcardOngoing, StatusWildcardLate, StatusWildcardPresent:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	return string(s)
}
