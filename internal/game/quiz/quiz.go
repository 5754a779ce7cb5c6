// Package quiz implements a multiple-choice trivia game. A chat gets one
// question at a time and keeps it until the right option is picked.
package quiz

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"minigame-bot/internal/session"
)

// OptionCount is the number of options every question carries.
const OptionCount = 4

//go:embed questions.yaml
var defaultBankYAML []byte

// Errors for the quiz.
var (
	ErrNoSession     = errors.New("no quiz in this chat")
	ErrEmptyBank     = errors.New("question bank is empty")
	ErrInvalidOption = errors.New("option out of range")
)

// Question is one immutable bank entry.
type Question struct {
	Text    string   `yaml:"question"`
	Options []string `yaml:"options"`
	Answer  int      `yaml:"answer"` // zero-based
}

// CorrectOption returns the text of the right option.
func (q Question) CorrectOption() string {
	return q.Options[q.Answer]
}

func (q Question) validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return errors.New("question text is empty")
	}
	if len(q.Options) != OptionCount {
		return fmt.Errorf("want %d options, got %d", OptionCount, len(q.Options))
	}
	if q.Answer < 0 || q.Answer >= OptionCount {
		return fmt.Errorf("answer index %d out of range", q.Answer)
	}
	return nil
}

// ParseBank decodes and validates a YAML question list.
func ParseBank(data []byte) ([]Question, error) {
	var bank []Question
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("failed to parse question bank: %w", err)
	}
	if len(bank) == 0 {
		return nil, ErrEmptyBank
	}
	for i, q := range bank {
		if err := q.validate(); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	return bank, nil
}

// DefaultBank returns the embedded question bank.
func DefaultBank() []Question {
	bank, err := ParseBank(defaultBankYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded question bank: %v", err))
	}
	return bank
}

// Session is one chat's open question.
type Session struct {
	QuestionIndex int
	StartedAt     time.Time
}

// Answer is the outcome of picking an option.
type Answer struct {
	Correct  bool
	Question Question
}

// Game owns the quiz sessions of every chat.
type Game struct {
	bank  []Question
	store session.Store[*Session]
	rng   func(n int) int
	now   func() time.Time
	mu    sync.Mutex
}

// New creates a game over bank. A nil bank uses DefaultBank and a nil store
// an in-memory one.
func New(bank []Question, store session.Store[*Session]) *Game {
	if bank == nil {
		bank = DefaultBank()
	}
	if store == nil {
		store = session.NewMemoryStore[*Session]()
	}
	return &Game{
		bank:  bank,
		store: store,
		rng:   rand.Intn,
		now:   time.Now,
	}
}

// SetRand replaces the question picker; intn must return values in [0, n).
func (g *Game) SetRand(intn func(n int) int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rng = intn
}

// Name identifies the game.
func (g *Game) Name() string {
	return "quiz"
}

// HasSession reports whether chatID has an open question.
func (g *Game) HasSession(chatID string) bool {
	return g.store.Has(chatID)
}

// ActiveSessions returns the number of open questions.
func (g *Game) ActiveSessions() int {
	return g.store.Len()
}

// Start opens a question for chatID. When one is already open it is
// returned unchanged with created=false.
func (g *Game) Start(chatID string) (Question, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if s, ok := g.store.Get(chatID); ok {
		return g.bank[s.QuestionIndex], false, nil
	}
	if len(g.bank) == 0 {
		return Question{}, false, ErrEmptyBank
	}

	idx := g.rng(len(g.bank))
	g.store.Set(chatID, &Session{QuestionIndex: idx, StartedAt: g.now()})
	return g.bank[idx], true, nil
}

// Answer checks a 1-based option. A correct answer closes the session; a
// wrong one keeps the same question open.
func (g *Game) Answer(chatID string, option int) (Answer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.store.Get(chatID)
	if !ok {
		return Answer{}, ErrNoSession
	}
	if s.QuestionIndex < 0 || s.QuestionIndex >= len(g.bank) {
		g.store.Delete(chatID)
		return Answer{}, ErrNoSession
	}

	q := g.bank[s.QuestionIndex]
	if option-1 == q.Answer {
		g.store.Delete(chatID)
		return Answer{Correct: true, Question: q}, nil
	}
	return Answer{Question: q}, nil
}

// Stop closes the chat's quiz. It reports whether one was open.
func (g *Game) Stop(chatID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.store.Has(chatID) {
		return false
	}
	g.store.Delete(chatID)
	return true
}

// IsStopWord reports whether sub ends a quiz.
func IsStopWord(sub string) bool {
	switch strings.ToLower(sub) {
	case "stop", "end", "selesai":
		return true
	}
	return false
}
