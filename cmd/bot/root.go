package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"minigame-bot/internal/config"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configDir string

	cmd := &cobra.Command{
		Use:           "minigame-bot",
		Short:         "Telegram chat bot with mini-games and reminders",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configDir, "config", "config", "Directory holding config.yaml and .env.")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(configDir)
		if err != nil {
			return nil, err
		}
		setupLogger(&cfg.Log)
		return cfg, nil
	}

	runCmd := newRunCmd(load)
	cmd.AddCommand(runCmd)
	cmd.AddCommand(newMigrateCmd(load))
	cmd.AddCommand(newVersionCmd())

	// Running without a subcommand starts the bot.
	cmd.RunE = runCmd.RunE
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "minigame-bot %s\n", strings.TrimSpace(version))
			if c := strings.TrimSpace(commit); c != "" && c != "none" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "commit: %s\n", c)
			}
			return nil
		},
	}
}

// setupLogger configures the global zerolog logger.
func setupLogger(cfg *config.LogConfig) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}
