package handler

import (
	"context"
	"errors"
	"fmt"

	"minigame-bot/internal/chat"
	"minigame-bot/internal/command"
	"minigame-bot/internal/game/quiz"
)

// QuizHandler serves the trivia quiz.
type QuizHandler struct {
	base
	game *quiz.Game
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(g *quiz.Game, sender chat.Sender) *QuizHandler {
	return &QuizHandler{base: base{sender: sender}, game: g}
}

// Register binds !kuis.
func (h *QuizHandler) Register(reg *command.Registry) error {
	return reg.Register("!kuis", h.handleKuis)
}

// handleKuis opens a question, re-sends the open one, or stops silently.
func (h *QuizHandler) handleKuis(ctx context.Context, ev chat.Event) error {
	if quiz.IsStopWord(command.SubCommand(ev.Text)) {
		h.game.Stop(ev.ChatID)
		return nil
	}

	q, _, err := h.game.Start(ev.ChatID)
	if err != nil {
		return fmt.Errorf("failed to start quiz: %w", err)
	}
	return h.sendQuestion(ctx, ev, q)
}

func (h *QuizHandler) sendQuestion(ctx context.Context, ev chat.Event, q quiz.Question) error {
	opts := make([]string, len(q.Options))
	for i, o := range q.Options {
		opts[i] = fmt.Sprintf("%d. %s", i+1, o)
	}

	msg := chat.Reply(ev, paragraphs(
		"🧠 Trivia Quiz",
		lines(q.Text, lines(opts...)),
		lines("Answer with !1 / !2 / !3 / !4", "Stop: !kuis stop"),
	))
	msg.Choices = digitChoices("Options", "Answer", q.Options)
	return h.send(ctx, msg)
}

// Name implements game.Provider.
func (h *QuizHandler) Name() string { return h.game.Name() }

// HasSession implements game.Provider.
func (h *QuizHandler) HasSession(chatID string) bool { return h.game.HasSession(chatID) }

// ActiveSessions implements game.SessionCounter.
func (h *QuizHandler) ActiveSessions() int { return h.game.ActiveSessions() }

// HandleDigit implements game.Provider. Any digit other than the right
// option counts as a wrong answer.
func (h *QuizHandler) HandleDigit(ctx context.Context, ev chat.Event, n int) (bool, error) {
	ans, err := h.game.Answer(ev.ChatID, n)
	if errors.Is(err, quiz.ErrNoSession) {
		return false, nil
	}
	if err != nil {
		return true, err
	}
	if ans.Correct {
		return true, h.reply(ctx, ev, "Correct! ✅ Answer: "+ans.Question.CorrectOption())
	}
	return true, h.reply(ctx, ev, "Wrong. Try again!")
}
