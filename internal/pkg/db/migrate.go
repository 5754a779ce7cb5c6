package db

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog/log"

	"minigame-bot/internal/config"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationFS embed.FS

// Direction selects which way Migrate moves the schema.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// MigrationURL returns the golang-migrate database URL for cfg.
func MigrationURL(cfg *config.DatabaseConfig) (string, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return fmt.Sprintf(
			"pgx5://%s:%s@%s:%d/%s?sslmode=disable",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name,
		), nil
	case config.DriverSQLite:
		return "sqlite://" + cfg.SQLitePath, nil
	default:
		return "", fmt.Errorf("no migrations for driver %q", cfg.Driver)
	}
}

func migrationSource(driver string) (fs.FS, error) {
	switch driver {
	case config.DriverPostgres:
		return fs.Sub(migrationFS, "migrations/postgres")
	case config.DriverSQLite:
		return fs.Sub(migrationFS, "migrations/sqlite")
	default:
		return nil, fmt.Errorf("no migrations for driver %q", driver)
	}
}

// Migrate applies the embedded migrations for cfg.Driver in direction dir.
// An already current schema is not an error.
func Migrate(cfg *config.DatabaseConfig, dir Direction) error {
	sub, err := migrationSource(cfg.Driver)
	if err != nil {
		return err
	}
	src, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	url, err := MigrationURL(cfg)
	if err != nil {
		return err
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			log.Warn().AnErr("source_err", srcErr).AnErr("db_err", dbErr).Msg("Failed to close migrator")
		}
	}()

	fromVer, _, _ := m.Version()
	start := time.Now()

	switch dir {
	case Up:
		err = m.Up()
	case Down:
		err = m.Down()
	default:
		return fmt.Errorf("unknown migration direction %q", dir)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration %s failed: %w", dir, err)
	}

	toVer, dirty, _ := m.Version()
	log.Info().
		Str("driver", cfg.Driver).
		Str("direction", string(dir)).
		Uint("from_version", fromVer).
		Uint("to_version", toVer).
		Bool("dirty", dirty).
		Dur("took", time.Since(start)).
		Msg("Migrations applied")
	return nil
}
