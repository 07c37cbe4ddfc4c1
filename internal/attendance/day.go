package attendance

import (
	"fmt"
	"time"
)

// DayLayout is the storage and display format of a civil day.
const DayLayout = "2006-01-02"

// Day is a calendar date in the deployment's fixed civil time zone.
// The zero value is not a valid day.
type Day struct {
	year  int
	month time.Month
	day   int
}

// NewDay returns the civil day for the given date, normalizing overflow
// (e.g. June 31 becomes July 1).
func NewDay(year int, month time.Month, day int) Day {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Day{year: t.Year(), month: t.Month(), day: t.Day()}
}

// DayOf returns the civil day containing t in loc.
func DayOf(t time.Time, loc *time.Location) Day {
	local := t.In(loc)
	return Day{year: local.Year(), month: local.Month(), day: local.Day()}
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return Day{}, fmt.Errorf("invalid day %q: expected YYYY-MM-DD", s)
	}
	return Day{year: t.Year(), month: t.Month(), day: t.Day()}, nil
}

// String formats the day as YYYY-MM-DD.
func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.year, d.month, d.day)
}

// MarshalText implements encoding.TextMarshaler.
func (d Day) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Day) UnmarshalText(text []byte) error {
	parsed, err := ParseDay(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// IsZero reports whether d is the zero Day.
func (d Day) IsZero() bool {
	return d.year == 0 && d.month == 0 && d.day == 0
}

// At returns the instant of the wall clock c on day d in loc.
func (d Day) At(c Clock, loc *time.Location) time.Time {
	return time.Date(d.year, d.month, d.day, c.Hour, c.Minute, 0, 0, loc)
}

// AddDays returns the day n days after d (before, for negative n).
func (d Day) AddDays(n int) Day {
	return NewDay(d.year, d.month, d.day+n)
}

// Weekday returns the day of the week.
func (d Day) Weekday() time.Weekday {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC).Weekday()
}

// Before reports whether d is earlier than other.
func (d Day) Before(other Day) bool {
	return d.String() < other.String()
}

// WeekBounds returns Monday and Friday of the week containing d.
func (d Day) WeekBounds() (monday, friday Day) {
	offset := (int(d.Weekday()) + 6) % 7
	monday = d.AddDays(-offset)
	return monday, monday.AddDays(4)
}

// Clock is a wall-clock time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses an HH:MM string.
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Clock{}, fmt.Errorf("invalid clock %q: expected HH:MM", s)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c Clock) minutes() int {
	return c.Hour*60 + c.Minute
}
