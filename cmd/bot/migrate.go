package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"minigame-bot/internal/config"
	"minigame-bot/internal/pkg/db"
)

func newMigrateCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back the database schema",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(db.Up), string(db.Down)},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			dir := db.Up
			if len(args) == 1 {
				dir = db.Direction(args[0])
			}
			if dir != db.Up && dir != db.Down {
				return fmt.Errorf("unknown direction %q, want up or down", args[0])
			}
			if cfg.Database.Driver == config.DriverMemory {
				log.Info().Msg("Memory driver has no schema, nothing to migrate")
				return nil
			}
			if cfg.Database.Driver == config.DriverSQLite {
				// The migrator expects the database directory to exist.
				lite, err := db.OpenSQLite(cmd.Context(), cfg.Database.SQLitePath)
				if err != nil {
					return err
				}
				_ = lite.Close()
			}
			return db.Migrate(&cfg.Database, dir)
		},
	}
}
