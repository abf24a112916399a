// Package repository provides the read-only Directory the matching pipeline
// consumes: group definitions and per-member schedule snapshots. The core
// never writes through it.
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/timesync/timesync/internal/domain/model"
)

// Directory provides read access to groups and member schedules.
type Directory interface {
	// Group returns the group definition, with MinRequired defaulted to 1
	// when storage carries no explicit minimum.
	// Returns ErrGroupNotFound for unknown ids.
	Group(ctx context.Context, id uuid.UUID) (model.Group, error)

	// MemberSchedule returns the raw slots and timezone for one participant.
	// Returns ErrMemberNotFound when the participant has no schedule.
	MemberSchedule(ctx context.Context, participantID string) (model.MemberSchedule, error)
}
