// Package repository provides data access layer implementations.
// PostgreSQL tests use testcontainers-go; SQLite tests use a temp file.
package repository

import (
	"context"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"minigame-bot/internal/config"
	"minigame-bot/internal/model"
	"minigame-bot/internal/pkg/db"
	"minigame-bot/internal/reminder"
)

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}

// setupTestDB creates a PostgreSQL container, applies the embedded
// migrations and returns a connection pool.
// Skips the test if Docker is not available
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg := &config.DatabaseConfig{
		Driver:   config.DriverPostgres,
		Host:     host,
		Port:     port.Int(),
		User:     "testuser",
		Password: "testpass",
		Name:     "testdb",
	}
	require.NoError(t, db.Migrate(cfg, db.Up))

	pool, err := pgxpool.New(ctx, cfg.DSN())
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// setupSQLite opens a migrated database in a temp dir.
func setupSQLite(t *testing.T) *db.SQLite {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bot.db")
	cfg := &config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: path}
	require.NoError(t, db.Migrate(cfg, db.Up))

	handle, err := db.OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = handle.Close() })
	return handle
}

type settingsStore interface {
	Get(ctx context.Context, chatID string) (bool, bool, error)
	Set(ctx context.Context, chatID string, enabled bool) error
	All(ctx context.Context) ([]model.ChatSetting, error)
}

// backends runs fn against every reminder store implementation.
func reminderBackends(t *testing.T, fn func(t *testing.T, store reminder.Store)) {
	t.Run("sqlite", func(t *testing.T) {
		fn(t, NewSQLiteReminderRepository(setupSQLite(t).DB))
	})
	t.Run("postgres", func(t *testing.T) {
		pool, cleanup := setupTestDB(t)
		defer cleanup()
		fn(t, NewReminderRepository(pool))
	})
}

func settingsBackends(t *testing.T, fn func(t *testing.T, store settingsStore)) {
	t.Run("sqlite", func(t *testing.T) {
		fn(t, NewSQLiteSettingsRepository(setupSQLite(t).DB))
	})
	t.Run("postgres", func(t *testing.T) {
		pool, cleanup := setupTestDB(t)
		defer cleanup()
		fn(t, NewSettingsRepository(pool))
	})
}

// ============================================================================
// Reminder repository tests
// ============================================================================

func TestReminderRepository_AddAndGet(t *testing.T) {
	reminderBackends(t, func(t *testing.T, store reminder.Store) {
		ctx := context.Background()

		rec, err := store.Add(ctx, "chat-1", "drink water", 1_700_000_000_000)
		require.NoError(t, err)
		assert.NotEmpty(t, rec.ID)
		assert.Equal(t, model.ReminderPending, rec.Status)
		assert.Nil(t, rec.SentAt)

		got, err := store.GetByID(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, "chat-1", got.ChatID)
		assert.Equal(t, "drink water", got.Body)
		assert.Equal(t, int64(1_700_000_000_000), got.DueAtMs)

		_, err = store.GetByID(ctx, "does-not-exist")
		assert.ErrorIs(t, err, ErrReminderNotFound)
	})
}

func TestReminderRepository_ListPendingByChatSorted(t *testing.T) {
	reminderBackends(t, func(t *testing.T, store reminder.Store) {
		ctx := context.Background()

		late, err := store.Add(ctx, "c", "late", 3000)
		require.NoError(t, err)
		early, err := store.Add(ctx, "c", "early", 1000)
		require.NoError(t, err)
		_, err = store.Add(ctx, "other", "elsewhere", 2000)
		require.NoError(t, err)

		rows, err := store.ListPendingByChat(ctx, "c")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, early.ID, rows[0].ID)
		assert.Equal(t, late.ID, rows[1].ID)

		all, err := store.ListPending(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)

		due, err := store.ListPendingDue(ctx, time.UnixMilli(2000))
		require.NoError(t, err)
		assert.Len(t, due, 2)

		future, err := store.ListPendingFuture(ctx, time.UnixMilli(2000))
		require.NoError(t, err)
		require.Len(t, future, 1)
		assert.Equal(t, late.ID, future[0].ID)
	})
}

func TestReminderRepository_Transitions(t *testing.T) {
	reminderBackends(t, func(t *testing.T, store reminder.Store) {
		ctx := context.Background()

		sent, err := store.Add(ctx, "c", "a", 1000)
		require.NoError(t, err)
		cancelled, err := store.Add(ctx, "c", "b", 2000)
		require.NoError(t, err)

		require.NoError(t, store.MarkSent(ctx, sent.ID))
		require.NoError(t, store.Cancel(ctx, cancelled.ID))

		got, err := store.GetByID(ctx, sent.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ReminderSent, got.Status)
		assert.NotNil(t, got.SentAt)

		// Terminal records never change again.
		require.NoError(t, store.Cancel(ctx, sent.ID))
		require.NoError(t, store.MarkSent(ctx, cancelled.ID))

		got, err = store.GetByID(ctx, sent.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ReminderSent, got.Status)
		got, err = store.GetByID(ctx, cancelled.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ReminderCancelled, got.Status)
		assert.Nil(t, got.SentAt)

		rows, err := store.ListPending(ctx)
		require.NoError(t, err)
		assert.Empty(t, rows)

		assert.ErrorIs(t, store.Cancel(ctx, "missing"), ErrReminderNotFound)
	})
}

// ============================================================================
// Settings repository tests
// ============================================================================

func TestSettingsRepository_SetAndGet(t *testing.T) {
	settingsBackends(t, func(t *testing.T, store settingsStore) {
		ctx := context.Background()

		_, found, err := store.Get(ctx, model.GlobalSettingKey)
		require.NoError(t, err)
		assert.False(t, found)

		require.NoError(t, store.Set(ctx, model.GlobalSettingKey, false))
		require.NoError(t, store.Set(ctx, "chat-1", true))
		require.NoError(t, store.Set(ctx, "chat-1", false))

		enabled, found, err := store.Get(ctx, "chat-1")
		require.NoError(t, err)
		assert.True(t, found)
		assert.False(t, enabled)

		all, err := store.All(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		ids := []string{all[0].ChatID, all[1].ChatID}
		assert.ElementsMatch(t, []string{model.GlobalSettingKey, "chat-1"}, ids)
	})
}

func TestMigrateDownAndUpAgain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.db")
	cfg := &config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: path}

	require.NoError(t, db.Migrate(cfg, db.Up))
	require.NoError(t, db.Migrate(cfg, db.Up), "second up is a no-op")
	require.NoError(t, db.Migrate(cfg, db.Down))
	require.NoError(t, db.Migrate(cfg, db.Up))
}
