package model

import "github.com/google/uuid"

// Group is a named set of participant identities with a minimum attendance
// requirement for matching.
type Group struct {
	ID          uuid.UUID
	Name        string
	MemberIDs   []string
	MinRequired int
}

// MemberSchedule is the read-only storage snapshot the matching pipeline
// consumes per group member.
type MemberSchedule struct {
	ParticipantID string
	Timezone      string
	Slots         []RawSlot
}

// MatchRequest is one availability match computation over stored groups.
type MatchRequest struct {
	GroupIDs    []uuid.UUID
	MinPerGroup int // 0 keeps each group's stored minimum
	Count       int // 0 applies the service default
}
