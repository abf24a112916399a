// Package grid aggregates normalized availability into a per-unit attendance
// count, keyed by absolute hour (dated) or week hour (recurring).
//
// A grid is built fresh for one matching request, is purely additive during
// construction and read-only afterwards, so no synchronization is needed.
package grid

import (
	"sort"
	"time"

	"github.com/timesync/timesync/internal/domain/model"
)

// WeekHours is the number of granularity units in one week.
const WeekHours = 7 * model.HoursPerDay

type attendees map[string]struct{}

// Grid maps granularity units to the set of participants available then.
// Dated and recurring units live in separate namespaces.
type Grid struct {
	dated     map[int64]attendees // unix hour -> participants
	recurring map[int]attendees   // week hour (day*24+hour) -> participants
}

// Aggregate expands every interval of every participant into hour units and
// records the owning participant at each unit. Duplicate submissions for the
// same unit collapse by participant id.
func Aggregate(parts []model.ParticipantAvailability) *Grid {
	g := &Grid{
		dated:     make(map[int64]attendees),
		recurring: make(map[int]attendees),
	}
	for _, p := range parts {
		for _, iv := range p.Intervals {
			switch v := iv.(type) {
			case model.Dated:
				for t := v.Start; t.Before(v.End); t = t.Add(time.Hour) {
					g.addDated(unixHour(t), p.ParticipantID)
				}
			case model.Recurring:
				base := int(v.Day)*model.HoursPerDay + v.StartHour
				for i := 0; i < v.Units(); i++ {
					g.addRecurring((base+i)%WeekHours, p.ParticipantID)
				}
			}
		}
	}
	return g
}

func (g *Grid) addDated(u int64, id string) {
	set, ok := g.dated[u]
	if !ok {
		set = make(attendees)
		g.dated[u] = set
	}
	set[id] = struct{}{}
}

func (g *Grid) addRecurring(w int, id string) {
	set, ok := g.recurring[w]
	if !ok {
		set = make(attendees)
		g.recurring[w] = set
	}
	set[id] = struct{}{}
}

// Units reports the total number of populated grid units.
func (g *Grid) Units() int {
	return len(g.dated) + len(g.recurring)
}

// DatedUnits returns the populated dated units in ascending order.
func (g *Grid) DatedUnits() []int64 {
	units := make([]int64, 0, len(g.dated))
	for u := range g.dated {
		units = append(units, u)
	}
	sort.Slice(units, func(i, j int) bool { return units[i] < units[j] })
	return units
}

// RecurringUnits returns the populated week-hour units in ascending order.
func (g *Grid) RecurringUnits() []int {
	units := make([]int, 0, len(g.recurring))
	for w := range g.recurring {
		units = append(units, w)
	}
	sort.Ints(units)
	return units
}

// DatedAttendees returns the participants recorded at a dated unit, sorted.
func (g *Grid) DatedAttendees(u int64) []string {
	return sortedIDs(g.dated[u])
}

// RecurringAttendees returns the participants recorded at a week-hour unit,
// sorted.
func (g *Grid) RecurringAttendees(w int) []string {
	return sortedIDs(g.recurring[w])
}

// AttendeesAt probes both namespaces for the hour unit containing t: the
// absolute unit, plus the recurring unit t projects onto. A participant
// matching via either namespace is counted once.
func (g *Grid) AttendeesAt(t time.Time) []string {
	hour := t.UTC().Truncate(time.Hour)
	union := make(attendees)
	for id := range g.dated[unixHour(hour)] {
		union[id] = struct{}{}
	}
	w := int(hour.Weekday())*model.HoursPerDay + hour.Hour()
	for id := range g.recurring[w] {
		union[id] = struct{}{}
	}
	return sortedIDs(union)
}

// UnitTime converts a dated unit back to its UTC hour.
func UnitTime(u int64) time.Time {
	return time.Unix(u*3600, 0).UTC()
}

func unixHour(t time.Time) int64 {
	return t.Unix() / 3600
}

func sortedIDs(set attendees) []string {
	if len(set) == 0 {
		return nil
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
