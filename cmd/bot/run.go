package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"minigame-bot/internal/bot"
	"minigame-bot/internal/config"
	"minigame-bot/internal/command"
	"minigame-bot/internal/game"
	"minigame-bot/internal/game/akinator"
	"minigame-bot/internal/game/guess"
	"minigame-bot/internal/game/quiz"
	"minigame-bot/internal/game/tictactoe"
	"minigame-bot/internal/handler"
	"minigame-bot/internal/pkg/lock"
	"minigame-bot/internal/reminder"
	"minigame-bot/internal/server"
	"minigame-bot/internal/service"
	"minigame-bot/internal/session"
	"minigame-bot/internal/status"
)

const shutdownTimeout = 10 * time.Second

func newRunCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to Telegram and serve commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			log.Info().Str("driver", cfg.Database.Driver).Msg("Configuration loaded successfully")
			return run(cmd.Context(), cfg)
		},
	}
}

func run(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.close()

	control := service.NewControlService(store.settings)
	if err := control.Load(ctx); err != nil {
		return err
	}

	registry := command.NewRegistry(lock.NewChatLock())
	telegramBot, err := bot.New(&bot.Dependencies{
		Config:   cfg,
		Registry: registry,
		Control:  control,
	})
	if err != nil {
		return err
	}

	scheduler := reminder.NewScheduler(store.reminders)
	defer scheduler.Stop()

	akiClient := akinator.NewHTTPClient(
		&http.Client{Timeout: cfg.Games.Akinator.Timeout},
		cfg.Games.Akinator.BaseURLTemplate,
	)
	akiHandler := handler.NewAkinatorHandler(
		akinator.NewManager(akiClient, nil, &akinator.Config{DefaultRegion: cfg.Games.Akinator.DefaultRegion}),
		telegramBot,
	)
	tttHandler := handler.NewTicTacToeHandler(
		session.NewMemoryStore[*tictactoe.Session](),
		&tictactoe.Config{TurnTimeout: cfg.Games.TTTTurnTimeout},
		telegramBot,
		telegramBot.Identity,
	)
	quizHandler := handler.NewQuizHandler(quiz.New(nil, nil), telegramBot)
	guessHandler := handler.NewGuessHandler(guess.New(nil), telegramBot)

	// Earlier providers win a digit when several games are open in one chat.
	router := game.NewRouter(akiHandler, tttHandler, quizHandler, guessHandler)
	collector := status.NewCollector(router, scheduler)

	if err := handler.RegisterAll(registry, router,
		akiHandler,
		tttHandler,
		quizHandler,
		guessHandler,
		handler.NewReminderHandler(service.NewReminderService(store.reminders, scheduler), telegramBot),
		handler.NewControlHandler(control, collector, telegramBot),
	); err != nil {
		return err
	}

	if err := scheduler.Bind(ctx, telegramBot); err != nil {
		return fmt.Errorf("failed to arm pending reminders: %w", err)
	}

	var httpServer *server.Server
	if cfg.HTTP.Addr != "" {
		httpServer = server.New(cfg.HTTP.Addr, store.health, collector)
		go func() {
			if err := httpServer.Start(); err != nil {
				log.Error().Err(err).Msg("Status server failed")
			}
		}()
	}

	go telegramBot.Start()
	log.Info().Int("commands", len(registry.Triggers())).Msg("Bot started")

	<-ctx.Done()
	log.Info().Msg("Shutting down...")

	telegramBot.Stop()
	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Status server shutdown failed")
		}
	}

	log.Info().Msg("Shutdown complete")
	return nil
}
