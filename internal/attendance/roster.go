package attendance

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Member is a study group participant.
type Member struct {
	ID           string
	Name         string
	GitHub       string
	Tracked      bool
	WildcardDays []time.Weekday // standing weekly exemptions
}

// DisplayName returns the name used in summaries.
func (m Member) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	return m.ID
}

// Roster is the immutable participant list of a deployment.
type Roster struct {
	members   []Member
	byID      map[string]int
	byGitHub  map[string]int
	wildcards map[Day]map[string]bool
}

// NewRoster builds a roster. wildcards maps a day to the members exempted on that day.
func NewRoster(members []Member, wildcards map[Day][]string) (*Roster, error) {
	r := &Roster{
		members:   make([]Member, 0, len(members)),
		byID:      make(map[string]int, len(members)),
		byGitHub:  make(map[string]int, len(members)),
		wildcards: make(map[Day]map[string]bool, len(wildcards)),
	}

	for _, m := range members {
		if m.ID == "" {
			return nil, fmt.Errorf("member id is required")
		}
		if _, dup := r.byID[m.ID]; dup {
			return nil, fmt.Errorf("duplicate member id %q", m.ID)
		}
		idx := len(r.members)
		r.members = append(r.members, m)
		r.byID[m.ID] = idx

		if m.GitHub != "" {
			key := r.foldLogin(m.GitHub)
			if other, dup := r.byGitHub[key]; dup {
				return nil, fmt.Errorf("github login %q is mapped to both %q and %q", m.GitHub, r.members[other].ID, m.ID)
			}
			r.byGitHub[key] = idx
		}
	}

	for day, ids := range wildcards {
		set := make(map[string]bool, len(ids))
		for _, id := range ids {
			if _, ok := r.byID[id]; !ok {
				return nil, fmt.Errorf("wildcard on %s names unknown member %q", day, id)
			}
			set[id] = true
		}
		r.wildcards[day] = set
	}

	return r, nil
}

// foldLogin case-folds a GitHub login. A Caser keeps state, so each call gets its own.
func (r *Roster) foldLogin(login string) string {
	return cases.Fold().String(strings.TrimSpace(login))
}

// Members returns every member in configuration order.
func (r *Roster) Members() []Member {
	out := make([]Member, len(r.members))
	copy(out, r.members)
	return out
}

// Tracked returns the members included in daily checks, in configuration order.
func (r *Roster) Tracked() []Member {
	var out []Member
	for _, m := range r.members {
		if m.Tracked {
			out = append(out, m)
		}
	}
	return out
}

// Member looks a member up by id.
func (r *Roster) Member(id string) (Member, bool) {
	idx, ok := r.byID[id]
	if !ok {
		return Member{}, false
	}
	return r.members[idx], true
}

// ResolveSubmitter maps the author of a submission event to a member. The
// GitHub login is matched case-insensitively; a bare member id is accepted too.
func (r *Roster) ResolveSubmitter(author string) (Member, bool) {
	if idx, ok := r.byGitHub[r.foldLogin(author)]; ok {
		return r.members[idx], true
	}
	return r.Member(strings.TrimSpace(author))
}

// DisplayName returns the summary name for id, falling back to the id itself.
func (r *Roster) DisplayName(id string) string {
	if m, ok := r.Member(id); ok {
		return m.DisplayName()
	}
	return id
}

// IsWildcard reports whether member id is exempted from the strict quota on day.
func (r *Roster) IsWildcard(day Day, id string) bool {
	if r.wildcards[day][id] {
		return true
	}
	m, ok := r.Member(id)
	if !ok {
		return false
	}
	wd := day.Weekday()
	for _, d := range m.WildcardDays {
		if d == wd {
			return true
		}
	}
	return false
}

// ParseWeekday parses a three-letter or full English weekday name.
func ParseWeekday(s string) (time.Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if key == name || key == name[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", s)
}
