package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"minigame-bot/internal/model"
)

// SettingsRepository persists per-chat and global on/off switches in
// PostgreSQL. The global switch lives under model.GlobalSettingKey.
type SettingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository creates a new SettingsRepository instance.
func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// Get returns the chat's switch. found is false when it was never set.
func (r *SettingsRepository) Get(ctx context.Context, chatID string) (enabled, found bool, err error) {
	const query = `SELECT enabled FROM chat_settings WHERE chat_id = $1`

	err = r.pool.QueryRow(ctx, query, chatID).Scan(&enabled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, false, nil
		}
		return false, false, fmt.Errorf("failed to get chat setting: %w", err)
	}
	return enabled, true, nil
}

// Set stores the chat's switch.
func (r *SettingsRepository) Set(ctx context.Context, chatID string, enabled bool) error {
	const query = `
		INSERT INTO chat_settings (chat_id, enabled, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (chat_id) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			updated_at = NOW()
	`
	if _, err := r.pool.Exec(ctx, query, chatID, enabled); err != nil {
		return fmt.Errorf("failed to set chat setting: %w", err)
	}
	return nil
}

// All returns every stored switch.
func (r *SettingsRepository) All(ctx context.Context) ([]model.ChatSetting, error) {
	const query = `SELECT chat_id, enabled, updated_at FROM chat_settings ORDER BY chat_id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat settings: %w", err)
	}
	defer rows.Close()

	var out []model.ChatSetting
	for rows.Next() {
		var s model.ChatSetting
		if err := rows.Scan(&s.ChatID, &s.Enabled, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat setting: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat settings: %w", err)
	}
	return out, nil
}
