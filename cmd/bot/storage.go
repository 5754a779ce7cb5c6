package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"minigame-bot/internal/config"
	"minigame-bot/internal/pkg/db"
	"minigame-bot/internal/reminder"
	"minigame-bot/internal/repository"
	"minigame-bot/internal/server"
	"minigame-bot/internal/service"
)

// storage is the backend selected by database.driver.
type storage struct {
	reminders reminder.Store
	settings  service.SettingsStore
	health    server.HealthChecker
	close     func()
}

// openStorage connects to the configured backend and brings its schema up
// to date.
func openStorage(ctx context.Context, cfg *config.DatabaseConfig) (*storage, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(cfg, db.Up); err != nil {
			pool.Close()
			return nil, err
		}
		return &storage{
			reminders: repository.NewReminderRepository(pool.Pool),
			settings:  repository.NewSettingsRepository(pool.Pool),
			health:    pool,
			close:     pool.Close,
		}, nil

	case config.DriverSQLite:
		// Opening first creates the directory the migrator expects.
		lite, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(cfg, db.Up); err != nil {
			_ = lite.Close()
			return nil, err
		}
		return &storage{
			reminders: repository.NewSQLiteReminderRepository(lite.DB),
			settings:  repository.NewSQLiteSettingsRepository(lite.DB),
			health:    lite,
			close: func() {
				if err := lite.Close(); err != nil {
					log.Warn().Err(err).Msg("Failed to close SQLite database")
				}
			},
		}, nil

	case config.DriverMemory:
		log.Warn().Msg("Using in-memory storage; reminders and switches are lost on restart")
		return &storage{
			reminders: reminder.NewMemoryStore(),
			close:     func() {},
		}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
