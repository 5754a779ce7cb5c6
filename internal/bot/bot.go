// Package bot connects the command registry to Telegram through telebot.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"minigame-bot/internal/chat"
	"minigame-bot/internal/command"
	"minigame-bot/internal/config"
	"minigame-bot/internal/service"
)

// Bot wraps the telebot instance and feeds its updates to the registry.
type Bot struct {
	bot      *tele.Bot
	cfg      *config.Config
	registry *command.Registry
	control  *service.ControlService
	users    *directory
	ctx      context.Context
	cancel   context.CancelFunc
}

// Dependencies holds what the bot needs to dispatch updates.
type Dependencies struct {
	Config   *config.Config
	Registry *command.Registry
	Control  *service.ControlService
	// Offline skips the getMe call; used in tests.
	Offline bool
}

// New creates a new Bot instance with the given dependencies. Handlers may
// be added to the registry after New returns.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	timeout := deps.Config.Bot.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	pref := tele.Settings{
		Token:   deps.Config.Bot.Token,
		Poller:  &tele.LongPoller{Timeout: timeout},
		Offline: deps.Offline,
		OnError: func(err error, c tele.Context) {
			log.Error().Err(err).Msg("Telegram handler error")
		},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &Bot{
		bot:      teleBot,
		cfg:      deps.Config,
		registry: deps.Registry,
		control:  deps.Control,
		users:    newDirectory(),
		ctx:      ctx,
		cancel:   cancel,
	}

	b.registerMiddleware()
	b.registerHandlers()

	return b, nil
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(LoggingMiddleware())
	if b.control != nil {
		b.bot.Use(ControlMiddleware(b.control))
	}
}

// registerHandlers routes every text-bearing update to dispatch.
func (b *Bot) registerHandlers() {
	for _, endpoint := range []string{tele.OnText, tele.OnPhoto, tele.OnVideo, tele.OnDocument, tele.OnAnimation} {
		b.bot.Handle(endpoint, b.handleMessage)
	}
	b.bot.Handle(tele.OnCallback, b.handleCallback)
}

func (b *Bot) handleMessage(c tele.Context) error {
	ev, ok := eventFromMessage(c.Message(), b.users, b.cfg.IsOwner)
	if !ok {
		return nil
	}
	b.registry.Dispatch(b.ctx, ev)
	return nil
}

func (b *Bot) handleCallback(c tele.Context) error {
	// Clear the button spinner first; the reply comes as a new message.
	if err := c.Respond(); err != nil {
		log.Debug().Err(err).Msg("Failed to answer callback")
	}

	ev, ok := eventFromCallback(c.Callback(), b.cfg.IsOwner)
	if !ok {
		return nil
	}
	b.registry.Dispatch(b.ctx, ev)
	return nil
}

// Identity returns the bot account as a chat participant.
func (b *Bot) Identity() chat.Participant {
	if b.bot.Me == nil || b.bot.Me.ID == 0 {
		return chat.Participant{ID: "bot", Name: "bot"}
	}
	return participant(b.bot.Me)
}

// Start starts polling. It blocks until Stop is called.
func (b *Bot) Start() {
	log.Info().Str("username", b.Identity().Name).Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops polling and cancels the dispatch context.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
	b.cancel()
}
