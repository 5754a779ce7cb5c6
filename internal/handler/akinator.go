package handler

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog/log"

	"minigame-bot/internal/chat"
	"minigame-bot/internal/command"
	"minigame-bot/internal/game/akinator"
)

// AkinatorHandler serves the 20-questions game.
type AkinatorHandler struct {
	base
	manager *akinator.Manager
}

// NewAkinatorHandler creates a new AkinatorHandler.
func NewAkinatorHandler(m *akinator.Manager, sender chat.Sender) *AkinatorHandler {
	return &AkinatorHandler{base: base{sender: sender}, manager: m}
}

// Register binds !akinator.
func (h *AkinatorHandler) Register(reg *command.Registry) error {
	return reg.Register("!akinator", h.handleAkinator)
}

func (h *AkinatorHandler) handleAkinator(ctx context.Context, ev chat.Event) error {
	arg := ""
	if args := command.Args(ev.Text); len(args) > 0 {
		arg = args[0]
	}
	sub := strings.ToLower(arg)

	switch {
	case akinator.IsStopWord(sub):
		h.manager.Stop(ev.ChatID)
		return h.reply(ctx, ev, "Akinator stopped.")
	case sub == "back":
		snap, err := h.manager.Back(ctx, ev.ChatID)
		if errors.Is(err, akinator.ErrNoSession) {
			return nil
		}
		if err != nil {
			return err
		}
		return h.sendQuestion(ctx, ev, snap, "")
	}

	snap, created, err := h.manager.Start(ctx, ev.ChatID, arg)
	if err != nil {
		return fmt.Errorf("failed to start akinator: %w", err)
	}
	header := ""
	if created {
		header = "Akinator started!"
	}
	return h.sendQuestion(ctx, ev, snap, header)
}

func (h *AkinatorHandler) sendQuestion(ctx context.Context, ev chat.Event, snap akinator.Snapshot, header string) error {
	question := snap.Question
	if question == "" {
		question = "(question unavailable)"
	}

	labels := make([]string, len(akinator.Answers))
	legend := make([]string, len(akinator.Answers))
	for i, a := range akinator.Answers {
		labels[i] = a.Label
		legend[i] = fmt.Sprintf("!%d = %s", a.Digit, a.Label)
	}

	msg := chat.Reply(ev, paragraphs(
		header,
		lines(
			fmt.Sprintf("Question #%d, progress %d%%", snap.Step+1, int(math.Round(snap.Progress))),
			"Q: "+question,
		),
		lines(
			"Answer with:",
			strings.Join(legend, " | "),
			"Commands: !akinator back | !akinator stop",
		),
	))
	msg.Choices = digitChoices("Answers", "Answer", labels)
	return h.send(ctx, msg)
}

// Name implements game.Provider.
func (h *AkinatorHandler) Name() string { return h.manager.Name() }

// HasSession implements game.Provider.
func (h *AkinatorHandler) HasSession(chatID string) bool { return h.manager.HasSession(chatID) }

// ActiveSessions implements game.SessionCounter.
func (h *AkinatorHandler) ActiveSessions() int { return h.manager.ActiveSessions() }

// HandleDigit implements game.Provider. While a session exists every digit is
// consumed, including ones that are not answer codes.
func (h *AkinatorHandler) HandleDigit(ctx context.Context, ev chat.Event, n int) (bool, error) {
	res, err := h.manager.Answer(ctx, ev.ChatID, n)
	if errors.Is(err, akinator.ErrNoSession) {
		return false, nil
	}
	if err != nil {
		return true, err
	}

	switch {
	case res.Ignored, !res.Finished:
		return true, h.sendQuestion(ctx, ev, res.Snapshot, "")
	case res.GuessErr != nil:
		log.Error().Err(res.GuessErr).Str("chat_id", ev.ChatID).Msg("Akinator guess failed")
		return true, nil
	}

	name := res.Guess.Name
	if name == "" {
		name = "Unknown"
	}
	return true, h.reply(ctx, ev, lines("My guess: "+name, res.Guess.Description, res.Guess.PhotoURL))
}
