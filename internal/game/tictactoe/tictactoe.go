// Package tictactoe implements chat tic-tac-toe: two humans in a group, or a
// human against the bot in a direct chat, with a per-turn timeout.
package tictactoe

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"minigame-bot/internal/chat"
	"minigame-bot/internal/session"
)

// DefaultTurnTimeout bounds how long a player may take for one move.
const DefaultTurnTimeout = 2 * time.Minute

// Errors for tic-tac-toe.
var (
	ErrNoSession       = errors.New("no tic-tac-toe game in this chat")
	ErrInvalidOpponent = errors.New("opponent must be another participant")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrNotPlayer       = errors.New("not a player in this game")
	ErrInvalidCell     = errors.New("cell must be between 1 and 9")
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusEnded      Status = "ended"
)

// Session is one chat's game. X always moves first.
type Session struct {
	Players   map[Mark]chat.Participant
	Board     Board
	Turn      string // participant id holding the turn; always Players[TurnMark].ID
	TurnMark  Mark
	Status    Status
	IsDM      bool
	CreatedAt time.Time

	timer session.Task
}

func (s *Session) setTurn(m Mark) {
	s.TurnMark = m
	s.Turn = s.Players[m].ID
}

// IsPlayer reports whether participantID plays in s.
func (s *Session) IsPlayer(participantID string) bool {
	return s.Players[X].ID == participantID || s.Players[O].ID == participantID
}

// MarkOf returns the mark played by participantID.
func (s *Session) MarkOf(participantID string) (Mark, bool) {
	switch participantID {
	case s.Players[X].ID:
		return X, true
	case s.Players[O].ID:
		return O, true
	}
	return Empty, false
}

func (s *Session) view() View {
	return View{
		X:        s.Players[X],
		O:        s.Players[O],
		Board:    s.Board,
		Turn:     s.Players[s.TurnMark],
		TurnMark: s.TurnMark,
		IsDM:     s.IsDM,
	}
}

// View is an immutable copy of a session handed to callers.
type View struct {
	X        chat.Participant
	O        chat.Participant
	Board    Board
	Turn     chat.Participant
	TurnMark Mark
	IsDM     bool
}

// Player returns the participant playing m.
func (v View) Player(m Mark) chat.Participant {
	if m == O {
		return v.O
	}
	return v.X
}

// Participants returns both player ids, X first.
func (v View) Participants() []string {
	return []string{v.X.ID, v.O.ID}
}

// MoveKind classifies the result of a move.
type MoveKind int

const (
	// MoveOccupied means the cell was taken; the turn is not consumed.
	MoveOccupied MoveKind = iota
	// MoveContinue means the game goes on.
	MoveContinue
	// MoveWin means the game ended with a winner.
	MoveWin
	// MoveDraw means the board filled up with no winner.
	MoveDraw
)

// MoveResult describes a move and, in direct chats, the bot's reply move.
type MoveResult struct {
	Kind    MoveKind
	Winner  Mark
	BotCell int // 1-based, 0 when the bot did not move
	View    View
}

// TimeoutResult is reported when a turn expires.
type TimeoutResult struct {
	ChatID string
	Winner chat.Participant
	Loser  chat.Participant
	View   View
}

// Config holds game settings.
type Config struct {
	TurnTimeout time.Duration
}

// Game owns every chat's tic-tac-toe session.
type Game struct {
	store     session.Store[*Session]
	timeout   time.Duration
	onTimeout func(TimeoutResult)
	rng       func() float64
	now       func() time.Time
	mu        sync.Mutex
}

// New creates a game. onTimeout is called, outside the game lock, after an
// expired turn has ended a session.
func New(store session.Store[*Session], cfg *Config, onTimeout func(TimeoutResult)) *Game {
	if store == nil {
		store = session.NewMemoryStore[*Session]()
	}
	timeout := DefaultTurnTimeout
	if cfg != nil && cfg.TurnTimeout > 0 {
		timeout = cfg.TurnTimeout
	}
	return &Game{
		store:     store,
		timeout:   timeout,
		onTimeout: onTimeout,
		rng:       rand.Float64,
		now:       time.Now,
	}
}

// SetRand replaces the coin used to pick the first mover in groups.
func (g *Game) SetRand(f func() float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rng = f
}

// Name identifies the game.
func (g *Game) Name() string {
	return "tictactoe"
}

// HasSession reports whether chatID has a game in progress.
func (g *Game) HasSession(chatID string) bool {
	return g.store.Has(chatID)
}

// ActiveSessions returns the number of running games.
func (g *Game) ActiveSessions() int {
	return g.store.Len()
}

// Get returns a copy of the chat's game.
func (g *Game) Get(chatID string) (View, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.store.Get(chatID)
	if !ok {
		return View{}, false
	}
	return s.view(), true
}

// StartGroup starts a game between two humans; X is chosen by coin flip.
// If a game is already running its view is returned with created=false.
func (g *Game) StartGroup(chatID string, challenger, opponent chat.Participant) (View, bool, error) {
	if challenger.ID == "" || opponent.ID == "" || challenger.ID == opponent.ID {
		return View{}, false, ErrInvalidOpponent
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if s, ok := g.store.Get(chatID); ok {
		return s.view(), false, nil
	}

	x, o := challenger, opponent
	if g.rng() >= 0.5 {
		x, o = opponent, challenger
	}
	return g.createLocked(chatID, x, o, false), true, nil
}

// StartDM starts a game against the bot. The human is always X.
func (g *Game) StartDM(chatID string, human, bot chat.Participant) (View, bool, error) {
	if human.ID == "" || bot.ID == "" || human.ID == bot.ID {
		return View{}, false, ErrInvalidOpponent
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if s, ok := g.store.Get(chatID); ok {
		return s.view(), false, nil
	}
	return g.createLocked(chatID, human, bot, true), true, nil
}

func (g *Game) createLocked(chatID string, x, o chat.Participant, isDM bool) View {
	s := &Session{
		Players:   map[Mark]chat.Participant{X: x, O: o},
		Status:    StatusInProgress,
		IsDM:      isDM,
		CreatedAt: g.now(),
	}
	s.setTurn(X)
	g.store.Set(chatID, s)
	g.armLocked(chatID, s)
	return s.view()
}

// Move places the current player's mark on cell (1..9).
func (g *Game) Move(chatID, participantID string, cell int) (MoveResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.store.Get(chatID)
	if !ok || s.Status != StatusInProgress {
		return MoveResult{}, ErrNoSession
	}
	if s.Turn != participantID {
		return MoveResult{}, ErrNotYourTurn
	}
	if cell < 1 || cell > 9 {
		return MoveResult{}, ErrInvalidCell
	}

	idx := cell - 1
	if s.Board[idx] != Empty {
		return MoveResult{Kind: MoveOccupied, View: s.view()}, nil
	}

	s.Board[idx] = s.TurnMark
	if res, done := g.settleLocked(chatID, s); done {
		return res, nil
	}

	s.setTurn(s.TurnMark.Other())
	g.armLocked(chatID, s)

	res := MoveResult{Kind: MoveContinue}
	if s.IsDM && s.TurnMark == O {
		if i, ok := BotMove(s.Board, O); ok {
			s.Board[i] = O
			res.BotCell = i + 1
			if end, done := g.settleLocked(chatID, s); done {
				end.BotCell = res.BotCell
				return end, nil
			}
		}
		s.setTurn(X)
		g.armLocked(chatID, s)
	}
	res.View = s.view()
	return res, nil
}

// settleLocked ends the session if the board is decided.
func (g *Game) settleLocked(chatID string, s *Session) (MoveResult, bool) {
	switch out := Evaluate(s.Board); out {
	case XWins, OWins:
		g.endLocked(chatID, s)
		return MoveResult{Kind: MoveWin, Winner: out.Winner(), View: s.view()}, true
	case Draw:
		g.endLocked(chatID, s)
		return MoveResult{Kind: MoveDraw, View: s.view()}, true
	}
	return MoveResult{}, false
}

// Resign ends the game on behalf of a player.
func (g *Game) Resign(chatID, participantID string) (View, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.store.Get(chatID)
	if !ok {
		return View{}, ErrNoSession
	}
	if !s.IsPlayer(participantID) {
		return View{}, ErrNotPlayer
	}
	g.endLocked(chatID, s)
	return s.view(), nil
}

func (g *Game) endLocked(chatID string, s *Session) {
	s.timer.Cancel()
	s.Status = StatusEnded
	g.store.Delete(chatID)
}

func (g *Game) armLocked(chatID string, s *Session) {
	s.timer.Arm(g.timeout, func(gen uint64) {
		g.expire(chatID, s, gen)
	})
}

// expire ends s if its timer generation is still current. The player who
// did not hold the turn wins.
func (g *Game) expire(chatID string, s *Session, gen uint64) {
	g.mu.Lock()
	current, ok := g.store.Get(chatID)
	if !ok || current != s || !s.timer.Current(gen) {
		g.mu.Unlock()
		return
	}
	loser := s.TurnMark
	result := TimeoutResult{
		ChatID: chatID,
		Winner: s.Players[loser.Other()],
		Loser:  s.Players[loser],
		View:   s.view(),
	}
	g.endLocked(chatID, s)
	g.mu.Unlock()

	if g.onTimeout != nil {
		g.onTimeout(result)
	}
}
