package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/timesync/timesync/internal/domain/model"
	"github.com/timesync/timesync/pkg/metrics"
)

// Pool tuning constants.
const (
	maxConnLifetime = 5 * time.Minute
	maxConnIdleTime = 1 * time.Minute
)

// PostgresDirectory reads groups and schedules from the persistence layer
// (schedules, time_slots, discord_users, discord_groups, group_members).
type PostgresDirectory struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects a directory to the given database URL.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresDirectory, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConnLifetime = maxConnLifetime
	cfg.MaxConnIdleTime = maxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return &PostgresDirectory{pool: pool}, nil
}

// Close releases the connection pool.
func (d *PostgresDirectory) Close() {
	d.pool.Close()
}

// Ping verifies connectivity.
func (d *PostgresDirectory) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return d.pool.Ping(ctx)
}

// Group implements Directory. Storage carries no per-group minimum, so
// MinRequired defaults to 1; the matching request may override it.
func (d *PostgresDirectory) Group(ctx context.Context, id uuid.UUID) (model.Group, error) {
	start := time.Now()
	defer func() {
		metrics.RecordDirectoryLatency(float64(time.Since(start).Milliseconds()))
	}()

	row := d.pool.QueryRow(ctx, `SELECT id, name FROM discord_groups WHERE id=$1`, id)
	g := model.Group{MinRequired: 1}
	if err := row.Scan(&g.ID, &g.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Group{}, fmt.Errorf("%w: %s", ErrGroupNotFound, id)
		}
		metrics.RecordDirectoryError()
		return model.Group{}, fmt.Errorf("query group: %w", err)
	}

	rows, err := d.pool.Query(ctx,
		`SELECT discord_id FROM group_members WHERE group_id=$1 ORDER BY discord_id`, id)
	if err != nil {
		metrics.RecordDirectoryError()
		return model.Group{}, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var memberID string
		if err := rows.Scan(&memberID); err != nil {
			metrics.RecordDirectoryError()
			return model.Group{}, fmt.Errorf("scan member: %w", err)
		}
		g.MemberIDs = append(g.MemberIDs, memberID)
	}
	if err := rows.Err(); err != nil {
		metrics.RecordDirectoryError()
		return model.Group{}, fmt.Errorf("iterate members: %w", err)
	}
	return g, nil
}

// MemberSchedule implements Directory. Participants without a linked
// schedule report ErrMemberNotFound.
func (d *PostgresDirectory) MemberSchedule(ctx context.Context, participantID string) (model.MemberSchedule, error) {
	start := time.Now()
	defer func() {
		metrics.RecordDirectoryLatency(float64(time.Since(start).Milliseconds()))
	}()

	row := d.pool.QueryRow(ctx, `
		SELECT s.id, COALESCE(s.timezone, 'UTC')
		FROM discord_users u
		JOIN schedules s ON s.id = u.schedule_id
		WHERE u.discord_id = $1
	`, participantID)

	var scheduleID uuid.UUID
	ms := model.MemberSchedule{ParticipantID: participantID}
	if err := row.Scan(&scheduleID, &ms.Timezone); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.MemberSchedule{}, fmt.Errorf("%w: %s", ErrMemberNotFound, participantID)
		}
		metrics.RecordDirectoryError()
		return model.MemberSchedule{}, fmt.Errorf("query schedule: %w", err)
	}

	rows, err := d.pool.Query(ctx, `
		SELECT start_time, end_time, COALESCE(is_recurring, false)
		FROM time_slots
		WHERE schedule_id = $1
		ORDER BY start_time
	`, scheduleID)
	if err != nil {
		metrics.RecordDirectoryError()
		return model.MemberSchedule{}, fmt.Errorf("query slots: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		slot := model.RawSlot{Timezone: ms.Timezone}
		if err := rows.Scan(&slot.Start, &slot.End, &slot.Recurring); err != nil {
			metrics.RecordDirectoryError()
			return model.MemberSchedule{}, fmt.Errorf("scan slot: %w", err)
		}
		ms.Slots = append(ms.Slots, slot)
	}
	if err := rows.Err(); err != nil {
		metrics.RecordDirectoryError()
		return model.MemberSchedule{}, fmt.Errorf("iterate slots: %w", err)
	}
	return ms, nil
}
