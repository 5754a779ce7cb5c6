package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// SQLite wraps a file-backed SQLite handle.
type SQLite struct {
	*sql.DB
	path string
}

// sqliteDSN enables WAL and a busy timeout so concurrent writers wait
// instead of failing with SQLITE_BUSY.
func sqliteDSN(path string) string {
	return path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
}

// OpenSQLite opens (creating if needed) the database file at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	handle, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	handle.SetMaxOpenConns(4)
	handle.SetMaxIdleConns(2)
	handle.SetConnMaxLifetime(5 * time.Minute)

	if err := handle.PingContext(ctx); err != nil {
		_ = handle.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	log.Info().Str("path", path).Msg("Opened SQLite database")
	return &SQLite{DB: handle, path: path}, nil
}

// Path returns the database file path.
func (s *SQLite) Path() string {
	return s.path
}

// HealthCheck pings the database.
func (s *SQLite) HealthCheck(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// Close closes the handle.
func (s *SQLite) Close() error {
	err := s.DB.Close()
	log.Info().Str("path", s.path).Msg("SQLite database closed")
	return err
}
