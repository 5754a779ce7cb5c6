// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"minigame-bot/internal/model"
	"minigame-bot/internal/reminder"
)

// ErrReminderNotFound is returned for unknown reminder ids.
var ErrReminderNotFound = reminder.ErrNotFound

const reminderColumns = `id, chat_id, body, due_at_ms, status, created_at, sent_at`

// ReminderRepository persists reminders in PostgreSQL.
type ReminderRepository struct {
	pool *pgxpool.Pool
}

// NewReminderRepository creates a new ReminderRepository instance.
func NewReminderRepository(pool *pgxpool.Pool) *ReminderRepository {
	return &ReminderRepository{pool: pool}
}

func scanReminder(row pgx.Row) (*model.Reminder, error) {
	var r model.Reminder
	err := row.Scan(
		&r.ID,
		&r.ChatID,
		&r.Body,
		&r.DueAtMs,
		&r.Status,
		&r.CreatedAt,
		&r.SentAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Add inserts a pending reminder with a fresh id.
func (r *ReminderRepository) Add(ctx context.Context, chatID, body string, dueAtMs int64) (*model.Reminder, error) {
	const query = `
		INSERT INTO reminders (id, chat_id, body, due_at_ms, status, created_at)
		VALUES ($1, $2, $3, $4, 'pending', NOW())
		RETURNING ` + reminderColumns

	rec, err := scanReminder(r.pool.QueryRow(ctx, query, uuid.NewString(), chatID, body, dueAtMs))
	if err != nil {
		return nil, fmt.Errorf("failed to add reminder: %w", err)
	}
	return rec, nil
}

// GetByID retrieves a reminder by id.
// Returns ErrReminderNotFound if it does not exist.
func (r *ReminderRepository) GetByID(ctx context.Context, id string) (*model.Reminder, error) {
	const query = `SELECT ` + reminderColumns + ` FROM reminders WHERE id = $1`

	rec, err := scanReminder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReminderNotFound
		}
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}
	return rec, nil
}

func (r *ReminderRepository) list(ctx context.Context, query string, args ...any) ([]*model.Reminder, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()

	out := make([]*model.Reminder, 0)
	for rows.Next() {
		rec, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminders: %w", err)
	}
	return out, nil
}

// ListPending returns every pending reminder, earliest first.
func (r *ReminderRepository) ListPending(ctx context.Context) ([]*model.Reminder, error) {
	return r.list(ctx, `
		SELECT `+reminderColumns+` FROM reminders
		WHERE status = 'pending'
		ORDER BY due_at_ms ASC, created_at ASC
	`)
}

// ListPendingByChat returns the chat's pending reminders, earliest first.
func (r *ReminderRepository) ListPendingByChat(ctx context.Context, chatID string) ([]*model.Reminder, error) {
	return r.list(ctx, `
		SELECT `+reminderColumns+` FROM reminders
		WHERE status = 'pending' AND chat_id = $1
		ORDER BY due_at_ms ASC, created_at ASC
	`, chatID)
}

// ListPendingDue returns pending reminders due at or before now.
func (r *ReminderRepository) ListPendingDue(ctx context.Context, now time.Time) ([]*model.Reminder, error) {
	return r.list(ctx, `
		SELECT `+reminderColumns+` FROM reminders
		WHERE status = 'pending' AND due_at_ms <= $1
		ORDER BY due_at_ms ASC
	`, now.UnixMilli())
}

// ListPendingFuture returns pending reminders due after now.
func (r *ReminderRepository) ListPendingFuture(ctx context.Context, now time.Time) ([]*model.Reminder, error) {
	return r.list(ctx, `
		SELECT `+reminderColumns+` FROM reminders
		WHERE status = 'pending' AND due_at_ms > $1
		ORDER BY due_at_ms ASC
	`, now.UnixMilli())
}

// MarkSent moves a pending reminder to sent.
func (r *ReminderRepository) MarkSent(ctx context.Context, id string) error {
	return r.transition(ctx, `
		UPDATE reminders SET status = 'sent', sent_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, id)
}

// Cancel moves a pending reminder to cancelled.
func (r *ReminderRepository) Cancel(ctx context.Context, id string) error {
	return r.transition(ctx, `
		UPDATE reminders SET status = 'cancelled'
		WHERE id = $1 AND status = 'pending'
	`, id)
}

// transition applies a pending-only update. Terminal records are left as
// they are; only an unknown id is an error.
func (r *ReminderRepository) transition(ctx context.Context, query, id string) error {
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to update reminder: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM reminders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check reminder: %w", err)
	}
	if !exists {
		return ErrReminderNotFound
	}
	return nil
}
