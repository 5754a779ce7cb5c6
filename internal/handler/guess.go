package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"minigame-bot/internal/chat"
	"minigame-bot/internal/command"
	"minigame-bot/internal/game/guess"
)

// GuessHandler serves the number guessing game.
type GuessHandler struct {
	base
	game *guess.Game
}

// NewGuessHandler creates a new GuessHandler.
func NewGuessHandler(g *guess.Game, sender chat.Sender) *GuessHandler {
	return &GuessHandler{base: base{sender: sender}, game: g}
}

// Register binds !tebak.
func (h *GuessHandler) Register(reg *command.Registry) error {
	return reg.Register("!tebak", h.handleTebak)
}

// handleTebak starts a game, or with an argument guesses directly.
func (h *GuessHandler) handleTebak(ctx context.Context, ev chat.Event) error {
	if args := command.Args(ev.Text); len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return nil
		}
		res, err := h.game.Guess(ev.ChatID, n, true)
		if errors.Is(err, guess.ErrOutOfRange) {
			return nil
		}
		if err != nil {
			return err
		}
		return h.sendResult(ctx, ev, res)
	}

	if !h.game.Start(ev.ChatID) {
		return nil
	}
	return h.reply(ctx, ev, lines(
		"🎯 Number guess started!",
		fmt.Sprintf("I picked a number from %d to %d.", guess.MinTarget, guess.MaxTarget),
		"Guess with !1 … !9 or !tebak <n>.",
	))
}

func (h *GuessHandler) sendResult(ctx context.Context, ev chat.Event, res guess.Result) error {
	switch res.Verdict {
	case guess.VerdictCorrect:
		return h.reply(ctx, ev, fmt.Sprintf("🎉 Correct! The number was %d. Attempts: %d", res.Target, res.Attempts))
	case guess.VerdictTooLow:
		return h.reply(ctx, ev, fmt.Sprintf("%d is too low ⬆️", res.Guess))
	default:
		return h.reply(ctx, ev, fmt.Sprintf("%d is too high ⬇️", res.Guess))
	}
}

// Name implements game.Provider.
func (h *GuessHandler) Name() string { return h.game.Name() }

// HasSession implements game.Provider.
func (h *GuessHandler) HasSession(chatID string) bool { return h.game.HasSession(chatID) }

// ActiveSessions implements game.SessionCounter.
func (h *GuessHandler) ActiveSessions() int { return h.game.ActiveSessions() }

// HandleDigit implements game.Provider. A bare digit never starts a game.
func (h *GuessHandler) HandleDigit(ctx context.Context, ev chat.Event, n int) (bool, error) {
	res, err := h.game.Guess(ev.ChatID, n, false)
	if errors.Is(err, guess.ErrNoSession) {
		return false, nil
	}
	if err != nil {
		return true, err
	}
	return true, h.sendResult(ctx, ev, res)
}
