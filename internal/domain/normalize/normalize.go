// Package normalize converts raw submitted slots into canonical,
// UTC-anchored, hour-aligned interval sets.
//
// Normalization is deterministic and idempotent: re-normalizing an
// already-normalized set yields the same set.
package normalize

import (
	"fmt"
	"sort"
	"time"

	"github.com/timesync/timesync/internal/domain/model"
)

// Normalize converts slots to canonical intervals using the supplied IANA
// zone, merging contiguous and overlapping entries per representation.
// Dated intervals come first in the result, sorted by start; recurring
// intervals follow, sorted by day then start hour.
func Normalize(slots []model.RawSlot, zone string) ([]model.Interval, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrZoneResolution, zone, err)
	}

	var dated []model.Dated
	var recurring []model.Recurring
	for _, s := range slots {
		if !s.End.After(s.Start) {
			return nil, fmt.Errorf("%w: start=%s end=%s", ErrInvalidSlot,
				s.Start.Format(time.RFC3339), s.End.Format(time.RFC3339))
		}
		start := inZone(s.Start, loc).UTC()
		end := inZone(s.End, loc).UTC()
		if s.Recurring {
			recurring = append(recurring, toRecurring(start, end))
		} else {
			dated = append(dated, model.Dated{
				Start: floorHour(start),
				End:   ceilHour(end),
			})
		}
	}

	out := make([]model.Interval, 0, len(dated)+len(recurring))
	for _, d := range mergeDated(dated) {
		out = append(out, d)
	}
	for _, r := range mergeRecurring(recurring) {
		out = append(out, r)
	}
	return out, nil
}

// inZone reinterprets the wall-clock fields of t in loc.
func inZone(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
}

func floorHour(t time.Time) time.Time {
	return t.Truncate(time.Hour)
}

func ceilHour(t time.Time) time.Time {
	f := t.Truncate(time.Hour)
	if f.Equal(t) {
		return f
	}
	return f.Add(time.Hour)
}

// toRecurring projects a converted template span onto its UTC weekday/hour
// form. An end hour at or before the start hour wraps past midnight and is
// kept as a single wrapping interval.
func toRecurring(start, end time.Time) model.Recurring {
	s := floorHour(start)
	e := ceilHour(end)
	return model.Recurring{
		Day:       s.Weekday(),
		StartHour: s.Hour(),
		EndHour:   e.Hour(),
	}
}

func mergeDated(in []model.Dated) []model.Dated {
	if len(in) == 0 {
		return nil
	}
	sort.Slice(in, func(i, j int) bool { return in[i].Start.Before(in[j].Start) })

	out := []model.Dated{in[0]}
	for _, d := range in[1:] {
		last := &out[len(out)-1]
		if !d.Start.After(last.End) {
			// Adjacent or overlapping: union.
			if d.End.After(last.End) {
				last.End = d.End
			}
			continue
		}
		out = append(out, d)
	}
	return out
}

// span is a recurring interval in linear hour space relative to its day;
// end may exceed 24 when the interval wraps past midnight.
type span struct {
	start, end int
}

func mergeRecurring(in []model.Recurring) []model.Recurring {
	if len(in) == 0 {
		return nil
	}

	byDay := make(map[time.Weekday][]span)
	for _, r := range in {
		s := span{start: r.StartHour, end: r.EndHour}
		if r.Wraps() {
			s.end += model.HoursPerDay
		}
		byDay[r.Day] = append(byDay[r.Day], s)
	}

	var out []model.Recurring
	for day := time.Sunday; day <= time.Saturday; day++ {
		spans, ok := byDay[day]
		if !ok {
			continue
		}
		sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
		merged := []span{spans[0]}
		for _, s := range spans[1:] {
			last := &merged[len(merged)-1]
			if s.start <= last.end {
				if s.end > last.end {
					last.end = s.end
				}
				continue
			}
			merged = append(merged, s)
		}
		for _, s := range merged {
			out = append(out, model.Recurring{
				Day:       day,
				StartHour: s.start,
				EndHour:   s.end % model.HoursPerDay,
			})
		}
	}
	return out
}
