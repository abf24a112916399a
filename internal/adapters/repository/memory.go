package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/timesync/timesync/internal/domain/model"
)

// MemoryDirectory is an in-memory Directory for tests and standalone runs.
type MemoryDirectory struct {
	mu      sync.RWMutex
	groups  map[uuid.UUID]model.Group
	members map[string]model.MemberSchedule
}

// NewMemoryDirectory creates an empty in-memory directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		groups:  make(map[uuid.UUID]model.Group),
		members: make(map[string]model.MemberSchedule),
	}
}

// PutGroup stores or replaces a group definition.
func (d *MemoryDirectory) PutGroup(g model.Group) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.groups[g.ID] = g
}

// PutMemberSchedule stores or replaces a member's schedule snapshot.
func (d *MemoryDirectory) PutMemberSchedule(ms model.MemberSchedule) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.members[ms.ParticipantID] = ms
}

// Group implements Directory.
func (d *MemoryDirectory) Group(_ context.Context, id uuid.UUID) (model.Group, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	g, ok := d.groups[id]
	if !ok {
		return model.Group{}, fmt.Errorf("%w: %s", ErrGroupNotFound, id)
	}
	if g.MinRequired < 1 {
		g.MinRequired = 1
	}
	return g, nil
}

// MemberSchedule implements Directory.
func (d *MemoryDirectory) MemberSchedule(_ context.Context, participantID string) (model.MemberSchedule, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ms, ok := d.members[participantID]
	if !ok {
		return model.MemberSchedule{}, fmt.Errorf("%w: %s", ErrMemberNotFound, participantID)
	}
	return ms, nil
}
