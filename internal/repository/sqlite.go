package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"minigame-bot/internal/model"
)

// SQLiteReminderRepository persists reminders in SQLite. Timestamps are
// stored as unix milliseconds.
type SQLiteReminderRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteReminderRepository creates a new SQLiteReminderRepository instance.
func NewSQLiteReminderRepository(db *sql.DB) *SQLiteReminderRepository {
	return &SQLiteReminderRepository{db: db, now: time.Now}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteReminder(row rowScanner) (*model.Reminder, error) {
	var (
		r         model.Reminder
		status    string
		createdAt int64
		sentAt    sql.NullInt64
	)
	if err := row.Scan(&r.ID, &r.ChatID, &r.Body, &r.DueAtMs, &status, &createdAt, &sentAt); err != nil {
		return nil, err
	}
	r.Status = model.ReminderStatus(status)
	r.CreatedAt = time.UnixMilli(createdAt)
	if sentAt.Valid {
		t := time.UnixMilli(sentAt.Int64)
		r.SentAt = &t
	}
	return &r, nil
}

// Add inserts a pending reminder with a fresh id.
func (r *SQLiteReminderRepository) Add(ctx context.Context, chatID, body string, dueAtMs int64) (*model.Reminder, error) {
	rec := &model.Reminder{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Body:      body,
		DueAtMs:   dueAtMs,
		Status:    model.ReminderPending,
		CreatedAt: time.UnixMilli(r.now().UnixMilli()),
	}
	const query = `
		INSERT INTO reminders (id, chat_id, body, due_at_ms, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.ChatID, rec.Body, rec.DueAtMs, string(rec.Status), rec.CreatedAt.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to add reminder: %w", err)
	}
	return rec, nil
}

// GetByID retrieves a reminder by id.
// Returns ErrReminderNotFound if it does not exist.
func (r *SQLiteReminderRepository) GetByID(ctx context.Context, id string) (*model.Reminder, error) {
	const query = `SELECT ` + reminderColumns + ` FROM reminders WHERE id = ?`

	rec, err := scanSQLiteReminder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReminderNotFound
		}
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}
	return rec, nil
}

func (r *SQLiteReminderRepository) list(ctx context.Context, query string, args ...any) ([]*model.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()

	out := make([]*model.Reminder, 0)
	for rows.Next() {
		rec, err := scanSQLiteReminder(rows)
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
func (r *SQLiteReminderRepository) ListPending(ctx context.Context) ([]*model.Reminder, error) {
	return r.list(ctx, `
		SELECT `+reminderColumns+` FROM reminders
		WHERE status = 'pending'
		ORDER BY due_at_ms ASC, created_at ASC`)
}

// ListPendingByChat returns the chat's pending reminders, earliest first.
func (r *SQLiteReminderRepository) ListPendingByChat(ctx context.Context, chatID string) ([]*model.Reminder, error) {
	return r.list(ctx, `
		SELECT `+reminderColumns+` FROM reminders
		WHERE status = 'pending' AND chat_id = ?
		ORDER BY due_at_ms ASC, created_at ASC`, chatID)
}

// ListPendingDue returns pending reminders due at or before now.
func (r *SQLiteReminderRepository) ListPendingDue(ctx context.Context, now time.Time) ([]*model.Reminder, error) {
	return r.list(ctx, `
		SELECT `+reminderColumns+` FROM reminders
		WHERE status = 'pending' AND due_at_ms <= ?
		ORDER BY due_at_ms ASC`, now.UnixMilli())
}

// ListPendingFuture returns pending reminders due after now.
func (r *SQLiteReminderRepository) ListPendingFuture(ctx context.Context, now time.Time) ([]*model.Reminder, error) {
	return r.list(ctx, `
		SELECT `+reminderColumns+` FROM reminders
		WHERE status = 'pending' AND due_at_ms > ?
		ORDER BY due_at_ms ASC`, now.UnixMilli())
}

// MarkSent moves a pending reminder to sent.
func (r *SQLiteReminderRepository) MarkSent(ctx context.Context, id string) error {
	return r.transition(ctx, `
		UPDATE reminders SET status = 'sent', sent_at = ?
		WHERE id = ? AND status = 'pending'`, r.now().UnixMilli(), id)
}

// Cancel moves a pending reminder to cancelled.
func (r *SQLiteReminderRepository) Cancel(ctx context.Context, id string) error {
	return r.transition(ctx, `
		UPDATE reminders SET status = 'cancelled'
		WHERE id = ? AND status = 'pending'`, id)
}

func (r *SQLiteReminderRepository) transition(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update reminder: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	id := args[len(args)-1]
	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM reminders WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check reminder: %w", err)
	}
	if exists == 0 {
		return ErrReminderNotFound
	}
	return nil
}

// SQLiteSettingsRepository persists chat switches in SQLite.
type SQLiteSettingsRepository struct {
	db *sql.DB
}

// NewSQLiteSettingsRepository creates a new SQLiteSettingsRepository instance.
func NewSQLiteSettingsRepository(db *sql.DB) *SQLiteSettingsRepository {
	return &SQLiteSettingsRepository{db: db}
}

// Get returns the chat's switch. found is false when it was never set.
func (r *SQLiteSettingsRepository) Get(ctx context.Context, chatID string) (enabled, found bool, err error) {
	var v int
	err = r.db.QueryRowContext(ctx, `SELECT enabled FROM chat_settings WHERE chat_id = ?`, chatID).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, false, nil
		}
		return false, false, fmt.Errorf("failed to get chat setting: %w", err)
	}
	return v != 0, true, nil
}

// Set stores the chat's switch.
func (r *SQLiteSettingsRepository) Set(ctx context.Context, chatID string, enabled bool) error {
	const query = `
		INSERT INTO chat_settings (chat_id, enabled, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			enabled = excluded.enabled,
			updated_at = excluded.updated_at`

	v := 0
	if enabled {
		v = 1
	}
	if _, err := r.db.ExecContext(ctx, query, chatID, v, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("failed to set chat setting: %w", err)
	}
	return nil
}

// All returns every stored switch.
func (r *SQLiteSettingsRepository) All(ctx context.Context) ([]model.ChatSetting, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT chat_id, enabled, updated_at FROM chat_settings ORDER BY chat_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat settings: %w", err)
	}
	defer rows.Close()

	var out []model.ChatSetting
	for rows.Next() {
		var (
			s         model.ChatSetting
			v         int
			updatedAt int64
		)
		if err := rows.Scan(&s.ChatID, &v, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat setting: %w", err)
		}
		s.Enabled = v != 0
		s.UpdatedAt = time.UnixMilli(updatedAt)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat settings: %w", err)
	}
	return out, nil
}
