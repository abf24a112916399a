package model

import "github.com/google/uuid"

// GroupAttendance lists the members of one group available for a candidate
// window, along with the quorum the group must reach to confirm it.
type GroupAttendance struct {
	GroupID     uuid.UUID
	Name        string
	Attending   []string
	MinRequired int
}

// Candidate is a ranked proposed meeting window satisfying every group's
// minimum attendance. Immutable; shared by reference into confirmation
// sessions.
type Candidate struct {
	Window   Interval
	PerGroup []GroupAttendance
	Score    int
}

// TotalAttending sums attendance across all groups. A participant present in
// several groups counts once per group; the tie-break in ranking relies on
// this combined figure.
func (c Candidate) TotalAttending() int {
	total := 0
	for _, g := range c.PerGroup {
		total += len(g.Attending)
	}
	return total
}

// Eligible returns the deduplicated participant ids across all groups of the
// candidate. These are the only identities whose confirmations count.
func (c Candidate) Eligible() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, g := range c.PerGroup {
		for _, id := range g.Attending {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
