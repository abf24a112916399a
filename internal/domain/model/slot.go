// Package model contains domain models passed between layers.
package model

import "time"

// HoursPerDay is the number of granularity units in one day.
// One hour is the smallest schedulable increment.
const HoursPerDay = 24

// RawSlot is an availability span as submitted, before normalization.
// Start and End carry wall-clock values interpreted in Timezone.
// In recurring mode they encode a weekly day/time template rather than
// an absolute date.
type RawSlot struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Recurring bool      `json:"is_recurring"`
	Timezone  string    `json:"timezone"`
}

// Interval is a canonical, UTC-anchored, hour-aligned availability span.
// It is a closed sum type: Dated and Recurring are the only variants, and
// consumers are expected to type-switch over both.
type Interval interface {
	// Units reports the interval length in granularity units.
	Units() int

	sealedInterval()
}

// Dated is an absolute closed-open [Start, End) span in UTC.
type Dated struct {
	Start time.Time
	End   time.Time
}

func (d Dated) sealedInterval() {}

// Units reports the span length in hours.
func (d Dated) Units() int {
	return int(d.End.Sub(d.Start) / time.Hour)
}

// Contains reports whether the hour unit starting at t falls inside the span.
func (d Dated) Contains(t time.Time) bool {
	return !t.Before(d.Start) && t.Before(d.End)
}

// Recurring is a weekly day-of-week/hour-of-day span. EndHour less than or
// equal to StartHour means the span wraps past midnight into the next
// calendar day (22:00-02:00 covers four hours across two days).
type Recurring struct {
	Day       time.Weekday
	StartHour int
	EndHour   int
}

func (r Recurring) sealedInterval() {}

// Wraps reports whether the span crosses midnight.
func (r Recurring) Wraps() bool {
	return r.EndHour <= r.StartHour
}

// Units reports the span length in hours, wrap-aware.
func (r Recurring) Units() int {
	if r.Wraps() {
		return HoursPerDay - r.StartHour + r.EndHour
	}
	return r.EndHour - r.StartHour
}

// ParticipantAvailability owns one participant identity and the normalized
// intervals derived from their submitted slots. Immutable once built for a
// given matching request.
type ParticipantAvailability struct {
	ParticipantID string
	Intervals     []Interval
}
