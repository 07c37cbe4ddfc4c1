// Package summary renders the chat messages posted by the day jobs.
package summary

import (
	"fmt"
	"maps"
	"strconv"
	"strings"
	"time"

	"github.com/dawnstudy/attendance/internal/attendance"
)

const (
	clockLayout = "15:04:05"
	blank       = "-"
)

// Phase selects the footer of a daily summary.
type Phase int

const (
	PhaseMidday Phase = iota
	PhaseDayEnd
)

func (p Phase) footerVerb() string {
	if p == PhaseDayEnd {
		return "updated at"
	}
	return "checked at"
}

// DefaultLabels are the study group's labels per status.
var DefaultLabels = map[attendance.Status]string{
	attendance.StatusPresent:         "출석 🟢",
	attendance.StatusWildcardPresent: "출석* 🟢",
	attendance.StatusLate:            "지각 🟠",
	attendance.StatusWildcardLate:    "지각* 🟠",
	attendance.StatusOngoing:         "진행 🟡",
	attendance.StatusWildcardOngoing: "진행* 🟡",
	attendance.StatusDayOff:          "휴무 :white_circle:",
	attendance.StatusAbsent:          "결석 🔴",
	attendance.StatusUnset:           "미정 ⚪",
}

// Row is one member line of a daily summary.
type Row struct {
	Name        string
	Status      attendance.Status
	Submissions int
	JoinedAt    *time.Time
}

// Renderer formats messages with a fixed label set and display zone.
type Renderer struct {
	labels map[attendance.Status]string
	loc    *time.Location
}

// NewRenderer merges overrides onto DefaultLabels. A nil loc renders UTC.
func NewRenderer(overrides map[attendance.Status]string, loc *time.Location) *Renderer {
	labels := maps.Clone(DefaultLabels)
	maps.Copy(labels, overrides)
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{labels: labels, loc: loc}
}

// Label returns the display label of status.
func (r *Renderer) Label(status attendance.Status) string {
	if label, ok := r.labels[status]; ok {
		return label
	}
	return string(status)
}

// Daily renders the day summary: a header, one line per row in order, and a
// footer stamped with at.
func (r *Renderer) Daily(day attendance.Day, phase Phase, rows []Row, at time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## 🗓️ %s\n", day)
	for _, row := range rows {
		count, joined := strconv.Itoa(row.Submissions), blank
		if row.JoinedAt != nil {
			joined = row.JoinedAt.In(r.loc).Format(clockLayout)
		}
		if row.Status == attendance.StatusDayOff {
			count, joined = blank, blank
		}
		fmt.Fprintf(&b, "- %s: %s | submissions: %s | time: %s\n", row.Name, r.Label(row.Status), count, joined)
	}
	fmt.Fprintf(&b, "*%s %s*", phase.footerVerb(), at.In(r.loc).Format(clockLayout))
	return b.String()
}

// CheckIn renders the presence snapshot. Empty sections are omitted.
func (r *Renderer) CheckIn(day attendance.Day, joined, notJoined []string, at time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## ☑️ %s 출석 체크\n", day)
	writeSection(&b, "✅ 출석", joined)
	writeSection(&b, "⏰ 미입장", notJoined)
	fmt.Fprintf(&b, "\n*%s*", at.In(r.loc).Format(clockLayout))
	return b.String()
}

// MemberWeek is one member's totals over a week.
type MemberWeek struct {
	Member      string  `json:"member"`
	Name        string  `json:"name"`
	Present     int     `json:"present"`
	Late        int     `json:"late"`
	Absent      int     `json:"absent"`
	DayOff      int     `json:"dayoff"`
	Submissions int     `json:"submissions"`
	Rate        float64 `json:"rate"` // percent of non-dayoff days attended (present or late)
}

// Week is the weekly report content.
type Week struct {
	From    attendance.Day `json:"from"`
	To      attendance.Day `json:"to"`
	Members []MemberWeek   `json:"members"`
	MVPs    []string       `json:"mvps"`
}

// Weekly renders the weekly report.
func (r *Renderer) Weekly(w Week) string {
	var b strings.Builder
	b.WriteString("## 📊 주간 출석 리포트\n")
	fmt.Fprintf(&b, "📅 기간: %s ~ %s\n\n", w.From, w.To)
	b.WriteString("### 👥 멤버별 통계\n")
	for _, m := range w.Members {
		fmt.Fprintf(&b, "> %s: %s %d · %s %d · %s %d · %s %d | submissions: %d (%.1f%%)\n",
			m.Name,
			r.Label(attendance.StatusPresent), m.Present,
			r.Label(attendance.StatusLate), m.Late,
			r.Label(attendance.StatusAbsent), m.Absent,
			r.Label(attendance.StatusDayOff), m.DayOff,
			m.Submissions, m.Rate)
	}
	mvps := blank
	if len(w.MVPs) > 0 {
		mvps = strings.Join(w.MVPs, ", ")
	}
	fmt.Fprintf(&b, "\n### 🏆 이번 주 MVP: %s", mvps)
	return b.String()
}

func writeSection(b *strings.Builder, title string, names []string) {
	if len(names) == 0 {
		return
	}
	fmt.Fprintf(b, "### %s\n", title)
	for _, n := range names {
		fmt.Fprintf(b, "- %s\n", n)
	}
}
