// Package match searches an attendance grid for windows satisfying every
// group's minimum attendance and ranks the results.
package match

import (
	"fmt"
	"sort"
	"time"

	"github.com/timesync/timesync/internal/domain/grid"
	"github.com/timesync/timesync/internal/domain/model"
)

// maxRecurringRun caps a recurring window at one day so it stays
// representable as a single day/hour span.
const maxRecurringRun = model.HoursPerDay

// Match returns the top count candidate windows, best first. A unit
// qualifies only when every group's attending intersection meets its
// minimum; contiguous qualifying units coalesce only while the exact
// attending composition is unchanged. Zero qualifying windows is a
// successful empty result. count <= 0 means no cap.
func Match(g *grid.Grid, groups []model.Group, count int) ([]model.Candidate, error) {
	if err := Validate(groups); err != nil {
		return nil, err
	}

	members := make([]map[string]struct{}, len(groups))
	for i, grp := range groups {
		members[i] = make(map[string]struct{}, len(grp.MemberIDs))
		for _, id := range grp.MemberIDs {
			members[i][id] = struct{}{}
		}
	}

	var candidates []model.Candidate
	candidates = append(candidates, scanDated(g, groups, members)...)
	candidates = append(candidates, scanRecurring(g, groups, members)...)

	sort.SliceStable(candidates, func(i, j int) bool {
		return better(candidates[i], candidates[j])
	})
	if count > 0 && len(candidates) > count {
		candidates = candidates[:count]
	}
	return candidates, nil
}

// Validate performs the static group checks: a group must have members, and
// its minimum must not exceed its membership. Runs before any grid work.
func Validate(groups []model.Group) error {
	for _, grp := range groups {
		if len(grp.MemberIDs) == 0 {
			return fmt.Errorf("%w: %s", ErrEmptyGroup, grp.Name)
		}
		if grp.MinRequired > len(grp.MemberIDs) {
			return fmt.Errorf("%w: %s requires %d of %d members",
				ErrUnsatisfiableGroup, grp.Name, grp.MinRequired, len(grp.MemberIDs))
		}
	}
	return nil
}

// composition is the exact per-group attending sets at one unit.
type composition [][]string

func (c composition) equal(other composition) bool {
	for i := range c {
		if len(c[i]) != len(other[i]) {
			return false
		}
		for j := range c[i] {
			if c[i][j] != other[i][j] {
				return false
			}
		}
	}
	return true
}

// qualify computes the composition at one unit, or nil when any group falls
// short of its minimum. Attendee lists arrive sorted from the grid, so the
// intersections are sorted too.
func qualify(attendees []string, groups []model.Group, members []map[string]struct{}) composition {
	comp := make(composition, len(groups))
	for i, grp := range groups {
		min := grp.MinRequired
		if min < 1 {
			min = 1
		}
		for _, id := range attendees {
			if _, ok := members[i][id]; ok {
				comp[i] = append(comp[i], id)
			}
		}
		if len(comp[i]) < min {
			return nil
		}
	}
	return comp
}

// run tracks an open window of contiguous qualifying units.
type run struct {
	start, last int64
	comp        composition
}

func scanDated(g *grid.Grid, groups []model.Group, members []map[string]struct{}) []model.Candidate {
	var out []model.Candidate
	var open *run
	flush := func() {
		if open == nil {
			return
		}
		window := model.Dated{
			Start: grid.UnitTime(open.start),
			End:   grid.UnitTime(open.last + 1),
		}
		out = append(out, build(window, groups, open.comp))
		open = nil
	}

	// A dated unit draws from both namespaces: participants who submitted
	// the absolute hour and participants whose weekly template covers it.
	for _, u := range g.DatedUnits() {
		comp := qualify(g.AttendeesAt(grid.UnitTime(u)), groups, members)
		if comp == nil {
			flush()
			continue
		}
		if open != nil && u == open.last+1 && open.comp.equal(comp) {
			open.last = u
			continue
		}
		flush()
		open = &run{start: u, last: u, comp: comp}
	}
	flush()
	return out
}

func scanRecurring(g *grid.Grid, groups []model.Group, members []map[string]struct{}) []model.Candidate {
	var out []model.Candidate
	var open *run
	flush := func() {
		if open == nil {
			return
		}
		window := model.Recurring{
			Day:       weekday(int(open.start)),
			StartHour: int(open.start) % model.HoursPerDay,
			EndHour:   int(open.last+1) % model.HoursPerDay,
		}
		out = append(out, build(window, groups, open.comp))
		open = nil
	}

	// Units coalesce on the linear week-hour axis, so a span crossing
	// midnight stays one window.
	for _, w := range g.RecurringUnits() {
		comp := qualify(g.RecurringAttendees(w), groups, members)
		if comp == nil {
			flush()
			continue
		}
		u := int64(w)
		if open != nil && u == open.last+1 && open.comp.equal(comp) &&
			u-open.start < maxRecurringRun {
			open.last = u
			continue
		}
		flush()
		open = &run{start: u, last: u, comp: comp}
	}
	flush()
	return out
}

func weekday(weekHour int) time.Weekday {
	return time.Weekday(weekHour / model.HoursPerDay)
}

func build(window model.Interval, groups []model.Group, comp composition) model.Candidate {
	per := make([]model.GroupAttendance, len(groups))
	total := 0
	for i, grp := range groups {
		min := grp.MinRequired
		if min < 1 {
			min = 1
		}
		per[i] = model.GroupAttendance{
			GroupID:     grp.ID,
			Name:        grp.Name,
			Attending:   comp[i],
			MinRequired: min,
		}
		total += len(comp[i])
	}
	return model.Candidate{
		Window:   window,
		PerGroup: per,
		Score:    total * window.Units(),
	}
}

// better orders candidates best-first: score descending, then earlier start
// (dated windows before recurring on full ties), then larger combined
// attendance.
func better(a, b model.Candidate) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	ka, sa := startKey(a.Window)
	kb, sb := startKey(b.Window)
	if ka != kb {
		return ka < kb
	}
	if sa != sb {
		return sa < sb
	}
	return a.TotalAttending() > b.TotalAttending()
}

// startKey projects a window onto a comparable (kind, start) pair.
func startKey(w model.Interval) (int, int64) {
	switch v := w.(type) {
	case model.Dated:
		return 0, v.Start.Unix()
	case model.Recurring:
		return 1, int64(int(v.Day)*model.HoursPerDay + v.StartHour)
	}
	return 2, 0
}
