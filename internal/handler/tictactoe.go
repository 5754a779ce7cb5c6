package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"minigame-bot/internal/chat"
	"minigame-bot/internal/command"
	"minigame-bot/internal/game/tictactoe"
	"minigame-bot/internal/session"
)

// TicTacToeHandler serves tic-tac-toe in groups and direct chats.
type TicTacToeHandler struct {
	base
	game        *tictactoe.Game
	botIdentity func() chat.Participant
	turnTimeout time.Duration
}

// NewTicTacToeHandler creates the handler and its game. botIdentity names the
// bot account used as the opponent in direct chats.
func NewTicTacToeHandler(store session.Store[*tictactoe.Session], cfg *tictactoe.Config, sender chat.Sender, botIdentity func() chat.Participant) *TicTacToeHandler {
	h := &TicTacToeHandler{
		base:        base{sender: sender},
		botIdentity: botIdentity,
		turnTimeout: tictactoe.DefaultTurnTimeout,
	}
	if cfg != nil && cfg.TurnTimeout > 0 {
		h.turnTimeout = cfg.TurnTimeout
	}
	h.game = tictactoe.New(store, cfg, h.onTimeout)
	return h
}

// Game exposes the underlying game.
func (h *TicTacToeHandler) Game() *tictactoe.Game {
	return h.game
}

// Register binds !ttt, !ttt-move and !ttt-help.
func (h *TicTacToeHandler) Register(reg *command.Registry) error {
	return registerEach(reg, map[string]command.Handler{
		"!ttt":      h.handleTTT,
		"!ttt-move": h.handleMove,
		"!ttt-help": h.handleHelp,
	})
}

func (h *TicTacToeHandler) handleTTT(ctx context.Context, ev chat.Event) error {
	switch command.SubCommand(ev.Text) {
	case "resign", "stop":
		return h.handleResign(ctx, ev)
	}

	if view, ok := h.game.Get(ev.ChatID); ok {
		return h.sendBoard(ctx, ev, view, "")
	}

	if ev.IsGroup {
		opponent, ok := firstOther(ev)
		if !ok {
			return nil
		}
		view, created, err := h.game.StartGroup(ev.ChatID, ev.Sender(), opponent)
		if errors.Is(err, tictactoe.ErrInvalidOpponent) {
			return nil
		}
		if err != nil {
			return err
		}
		if !created {
			return h.sendBoard(ctx, ev, view, "")
		}
		intro := lines(
			"Tic-Tac-Toe started!",
			fmt.Sprintf("X: %s | O: %s", chat.Mention(view.X), chat.Mention(view.O)),
			"Turn: "+chat.Mention(view.Turn),
			"Pick a cell:",
		)
		return h.sendBoard(ctx, ev, view, intro)
	}

	if h.botIdentity == nil {
		return nil
	}
	view, created, err := h.game.StartDM(ev.ChatID, ev.Sender(), h.botIdentity())
	if errors.Is(err, tictactoe.ErrInvalidOpponent) {
		return nil
	}
	if err != nil {
		return err
	}
	if !created {
		return h.sendBoard(ctx, ev, view, "")
	}
	intro := lines(
		"Tic-Tac-Toe vs Bot started!",
		fmt.Sprintf("You: %s (X) | Bot: %s (O)", chat.Mention(view.X), chat.Mention(view.O)),
		"Turn: "+chat.Mention(view.Turn),
		"Pick a cell:",
	)
	return h.sendBoard(ctx, ev, view, intro)
}

// firstOther returns the first mentioned participant who is not the sender.
func firstOther(ev chat.Event) (chat.Participant, bool) {
	for _, p := range ev.Mentions {
		if p.ID != ev.SenderID {
			return p, true
		}
	}
	return chat.Participant{}, false
}

func (h *TicTacToeHandler) handleResign(ctx context.Context, ev chat.Event) error {
	view, err := h.game.Resign(ev.ChatID, ev.SenderID)
	if errors.Is(err, tictactoe.ErrNoSession) || errors.Is(err, tictactoe.ErrNotPlayer) {
		return nil
	}
	if err != nil {
		return err
	}
	return h.send(ctx, chat.Message{
		ChatID:   ev.ChatID,
		Text:     fmt.Sprintf("Game over. %s resigned.", chat.Mention(ev.Sender())),
		Mentions: view.Participants(),
	})
}

// handleMove serves list replies ("!ttt-move 5") and typed moves.
func (h *TicTacToeHandler) handleMove(ctx context.Context, ev chat.Event) error {
	args := command.Args(ev.Text)
	if len(args) == 0 {
		return nil
	}
	cell, err := strconv.Atoi(args[0])
	if err != nil {
		return nil
	}
	_, err = h.move(ctx, ev, cell)
	return err
}

func (h *TicTacToeHandler) handleHelp(ctx context.Context, ev chat.Event) error {
	return h.reply(ctx, ev, lines(
		"Tic-Tac-Toe help:",
		"- Group: !ttt @user to challenge someone.",
		"- Direct chat: !ttt to play against the bot.",
		"- Pick a cell from the list the bot sends, or with !1 … !9.",
		"- Give up: !ttt resign (or !ttt stop).",
		fmt.Sprintf("- A turn times out after %s.", h.turnTimeout),
	))
}

// move applies a cell for the sender. It reports false when the chat has no
// game or it is not the sender's turn, so the digit may go elsewhere.
func (h *TicTacToeHandler) move(ctx context.Context, ev chat.Event, cell int) (bool, error) {
	res, err := h.game.Move(ev.ChatID, ev.SenderID, cell)
	switch {
	case errors.Is(err, tictactoe.ErrNoSession), errors.Is(err, tictactoe.ErrNotYourTurn):
		return false, nil
	case errors.Is(err, tictactoe.ErrInvalidCell):
		return true, nil
	case err != nil:
		return true, err
	}

	view := res.View
	switch res.Kind {
	case tictactoe.MoveOccupied:
		return true, h.sendBoard(ctx, ev, view, "That cell is taken, pick another.")
	case tictactoe.MoveWin:
		text := fmt.Sprintf("Winner: %s (%s)", chat.Mention(view.Player(res.Winner)), res.Winner)
		if view.IsDM && res.Winner == tictactoe.O {
			text = fmt.Sprintf("Bot wins (%s)! It played %d.", res.Winner, res.BotCell)
		}
		return true, h.announceEnd(ctx, ev.ChatID, view, text)
	case tictactoe.MoveDraw:
		return true, h.announceEnd(ctx, ev.ChatID, view, "Draw!")
	}

	header := fmt.Sprintf("Turn: %s (%s)", chat.Mention(view.Turn), view.TurnMark)
	if res.BotCell > 0 {
		header = fmt.Sprintf("Bot played %d. Your turn (%s).", res.BotCell, view.TurnMark)
	}
	return true, h.sendBoard(ctx, ev, view, header)
}

func (h *TicTacToeHandler) sendBoard(ctx context.Context, ev chat.Event, view tictactoe.View, header string) error {
	open := view.Board.OpenCells()
	rows := make([]chat.Choice, len(open))
	for i, n := range open {
		rows[i] = chat.Choice{
			Label: fmt.Sprintf("Cell %d", n),
			Value: command.DigitTrigger(n),
		}
	}
	return h.send(ctx, chat.Message{
		ChatID:    ev.ChatID,
		Text:      lines(header, tictactoe.Render(view.Board)),
		Mentions:  view.Participants(),
		QuotedRef: ev.MessageRef,
		Choices: &chat.Choices{
			Title:  fmt.Sprintf("Turn %s", view.TurnMark),
			Button: "Pick a cell",
			Rows:   rows,
		},
	})
}

func (h *TicTacToeHandler) announceEnd(ctx context.Context, chatID string, view tictactoe.View, text string) error {
	return h.send(ctx, chat.Message{
		ChatID:   chatID,
		Text:     lines(text, tictactoe.Render(view.Board)),
		Mentions: view.Participants(),
	})
}

func (h *TicTacToeHandler) onTimeout(res tictactoe.TimeoutResult) {
	text := fmt.Sprintf("Time's up! Winner: %s", chat.Mention(res.Winner))
	if err := h.announceEnd(context.Background(), res.ChatID, res.View, text); err != nil {
		log.Error().Err(err).Str("chat_id", res.ChatID).Msg("Failed to announce tic-tac-toe timeout")
	}
}

// Name implements game.Provider.
func (h *TicTacToeHandler) Name() string { return h.game.Name() }

// HasSession implements game.Provider.
func (h *TicTacToeHandler) HasSession(chatID string) bool { return h.game.HasSession(chatID) }

// ActiveSessions implements game.SessionCounter.
func (h *TicTacToeHandler) ActiveSessions() int { return h.game.ActiveSessions() }

// HandleDigit implements game.Provider.
func (h *TicTacToeHandler) HandleDigit(ctx context.Context, ev chat.Event, n int) (bool, error) {
	return h.move(ctx, ev, n)
}
