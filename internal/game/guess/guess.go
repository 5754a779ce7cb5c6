// Package guess implements the number guessing game: the bot picks a number
// in 1..10 and the chat guesses until it is found.
package guess

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"minigame-bot/internal/session"
)

// Target range, inclusive.
const (
	MinTarget = 1
	MaxTarget = 10
)

// ErrNoSession is returned when a guess arrives for a chat without a game.
var ErrNoSession = errors.New("no number guessing session in this chat")

// ErrOutOfRange is returned for guesses outside MinTarget..MaxTarget.
var ErrOutOfRange = errors.New("guess must be between 1 and 10")

// Session is one chat's running game.
type Session struct {
	Target    int
	Attempts  int
	StartedAt time.Time
}

// Verdict classifies a guess.
type Verdict int

const (
	VerdictTooLow Verdict = iota
	VerdictTooHigh
	VerdictCorrect
)

// Result describes the outcome of a guess.
type Result struct {
	Verdict  Verdict
	Guess    int
	Target   int // only meaningful when Verdict is VerdictCorrect
	Attempts int
}

// Game owns the guessing sessions of every chat.
type Game struct {
	store session.Store[*Session]
	rng   func(n int) int
	now   func() time.Time
	mu    sync.Mutex
}

// New creates a game backed by store. A nil store gets an in-memory one.
func New(store session.Store[*Session]) *Game {
	if store == nil {
		store = session.NewMemoryStore[*Session]()
	}
	return &Game{
		store: store,
		rng:   rand.Intn,
		now:   time.Now,
	}
}

// SetRand replaces the random source; intn must return values in [0, n).
func (g *Game) SetRand(intn func(n int) int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rng = intn
}

// Name identifies the game.
func (g *Game) Name() string {
	return "guess"
}

// HasSession reports whether chatID has a game running.
func (g *Game) HasSession(chatID string) bool {
	return g.store.Has(chatID)
}

// ActiveSessions returns the number of running games.
func (g *Game) ActiveSessions() int {
	return g.store.Len()
}

// Start creates a session unless one exists. It reports whether a new
// session was created; an existing session is left untouched.
func (g *Game) Start(chatID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.store.Has(chatID) {
		return false
	}
	g.startLocked(chatID)
	return true
}

func (g *Game) startLocked(chatID string) *Session {
	s := &Session{
		Target:    g.rng(MaxTarget-MinTarget+1) + MinTarget,
		StartedAt: g.now(),
	}
	g.store.Set(chatID, s)
	return s
}

// Guess evaluates n against the chat's target. When create is true a missing
// session is started first; otherwise ErrNoSession is returned.
// A correct guess removes the session.
func (g *Game) Guess(chatID string, n int, create bool) (Result, error) {
	if n < MinTarget || n > MaxTarget {
		return Result{}, ErrOutOfRange
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.store.Get(chatID)
	if !ok {
		if !create {
			return Result{}, ErrNoSession
		}
		s = g.startLocked(chatID)
	}

	s.Attempts++
	res := Result{Guess: n, Attempts: s.Attempts}
	switch {
	case n == s.Target:
		res.Verdict = VerdictCorrect
		res.Target = s.Target
		g.store.Delete(chatID)
	case n < s.Target:
		res.Verdict = VerdictTooLow
	default:
		res.Verdict = VerdictTooHigh
	}
	return res, nil
}

// Stop removes the chat's session, reporting whether one existed.
func (g *Game) Stop(chatID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.store.Has(chatID) {
		return false
	}
	g.store.Delete(chatID)
	return true
}
