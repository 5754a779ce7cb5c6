// Package akinator adapts a 20-questions style guessing service to chat
// sessions: it translates digit answers into protocol steps and decides when
// to ask for a final guess.
package akinator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"minigame-bot/internal/session"
)

// Finalize thresholds. Either one triggers the final guess.
const (
	GuessProgress = 90.0
	MaxSteps      = 60
)

// Errors for the entity guess game.
var (
	ErrNoSession        = errors.New("no akinator session in this chat")
	ErrAccessDenied     = errors.New("akinator region denied access")
	ErrAllRegionsDenied = errors.New("akinator denied access for all fallback regions")
	ErrNoGuess          = errors.New("akinator has no guess yet")
	ErrBackUnsupported  = errors.New("akinator cannot go back")
)

// AnswerCode is one of the five fixed protocol answers.
type AnswerCode int

// Answer codes in protocol order.
const (
	AnswerYes AnswerCode = iota
	AnswerNo
	AnswerDontKnow
	AnswerProbably
	AnswerProbablyNot
)

// Answers lists the codes selectable with !1..!5, in digit order.
var Answers = []struct {
	Digit int
	Code  AnswerCode
	Label string
}{
	{1, AnswerYes, "Yes"},
	{2, AnswerNo, "No"},
	{3, AnswerDontKnow, "Don't know"},
	{4, AnswerProbably, "Probably"},
	{5, AnswerProbablyNot, "Probably not"},
}

// AnswerForDigit maps a chat digit to an answer code.
func AnswerForDigit(n int) (AnswerCode, bool) {
	for _, a := range Answers {
		if a.Digit == n {
			return a.Code, true
		}
	}
	return 0, false
}

// Guess is the entity the service settled on.
type Guess struct {
	Name        string
	Description string
	PhotoURL    string
}

// Game is one running protocol game.
type Game interface {
	Question() string
	Step() int
	Progress() float64
	Answer(ctx context.Context, code AnswerCode) error
	Back(ctx context.Context) error
	Guess(ctx context.Context) (Guess, error)
}

// Client starts protocol games for a region.
type Client interface {
	Start(ctx context.Context, region string) (Game, error)
}

// DefaultRegion is used when nothing else is configured.
const DefaultRegion = "en"

var allowedRegions = map[string]bool{
	"en": true, "ar": true, "cn": true, "de": true, "es": true, "fr": true,
	"il": true, "it": true, "jp": true, "kr": true, "nl": true, "pl": true,
	"pt": true, "ru": true, "tr": true, "id": true,
}

// fallbackRegions are tried, in order, after the requested region is denied.
var fallbackRegions = []string{"id", "es", "fr", "de", "pt", "tr", "ru", "nl"}

// NormalizeRegion lower-cases token and returns it if it is a known region,
// otherwise def (or DefaultRegion when def is unknown too).
func NormalizeRegion(token, def string) string {
	t := strings.ToLower(strings.TrimSpace(token))
	if allowedRegions[t] {
		return t
	}
	d := strings.ToLower(strings.TrimSpace(def))
	if allowedRegions[d] {
		return d
	}
	return DefaultRegion
}

// RegionOrder returns the deduplicated regions tried for a start request.
func RegionOrder(first string) []string {
	seen := make(map[string]bool, len(fallbackRegions)+1)
	out := make([]string, 0, len(fallbackRegions)+1)
	for _, r := range append([]string{first}, fallbackRegions...) {
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

// Session binds a protocol game to a chat.
type Session struct {
	Game   Game
	Region string
}

// Snapshot is what handlers render after each step.
type Snapshot struct {
	Question string
	Step     int
	Progress float64
	Region   string
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		Question: s.Game.Question(),
		Step:     s.Game.Step(),
		Progress: s.Game.Progress(),
		Region:   s.Region,
	}
}

// StepResult is the outcome of answering a question.
type StepResult struct {
	// Ignored is set for digits that are not answer codes; the question is
	// simply asked again.
	Ignored  bool
	Finished bool
	Guess    Guess
	// GuessErr is set when the final guess could not be fetched. The session
	// is gone either way.
	GuessErr error
	Snapshot Snapshot
}

// Config holds adapter settings.
type Config struct {
	DefaultRegion string
}

// Manager owns the entity guess sessions of every chat.
type Manager struct {
	client        Client
	store         session.Store[*Session]
	defaultRegion string
	mu            sync.Mutex
}

// NewManager creates a manager using client for new games.
func NewManager(client Client, store session.Store[*Session], cfg *Config) *Manager {
	if store == nil {
		store = session.NewMemoryStore[*Session]()
	}
	def := DefaultRegion
	if cfg != nil {
		def = NormalizeRegion(cfg.DefaultRegion, DefaultRegion)
	}
	return &Manager{
		client:        client,
		store:         store,
		defaultRegion: def,
	}
}

// Name identifies the game.
func (m *Manager) Name() string {
	return "akinator"
}

// HasSession reports whether chatID has a running game.
func (m *Manager) HasSession(chatID string) bool {
	return m.store.Has(chatID)
}

// ActiveSessions returns the number of running games.
func (m *Manager) ActiveSessions() int {
	return m.store.Len()
}

// Current returns the chat's question without changing anything.
func (m *Manager) Current(chatID string) (Snapshot, bool) {
	s, ok := m.get(chatID)
	if !ok {
		return Snapshot{}, false
	}
	return s.snapshot(), true
}

// Start begins a game for chatID. An existing game is returned with
// created=false. Regions are tried in RegionOrder, moving on only when a
// region denies access; any other error aborts. The manager lock is not held
// during protocol calls.
func (m *Manager) Start(ctx context.Context, chatID, region string) (Snapshot, bool, error) {
	if s, ok := m.get(chatID); ok {
		return s.snapshot(), false, nil
	}

	first := NormalizeRegion(region, m.defaultRegion)
	for _, r := range RegionOrder(first) {
		game, err := m.client.Start(ctx, r)
		if err == nil {
			return m.install(chatID, &Session{Game: game, Region: r})
		}
		if !errors.Is(err, ErrAccessDenied) {
			return Snapshot{}, false, fmt.Errorf("failed to start akinator in region %s: %w", r, err)
		}
		log.Warn().
			Str("chat_id", chatID).
			Str("region", r).
			Msg("Akinator start denied for region, trying next")
	}
	return Snapshot{}, false, ErrAllRegionsDenied
}

// install stores s unless another start won the race for chatID.
func (m *Manager) install(chatID string, s *Session) (Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.store.Get(chatID); ok {
		return existing.snapshot(), false, nil
	}
	m.store.Set(chatID, s)
	return s.snapshot(), true, nil
}

func (m *Manager) get(chatID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Get(chatID)
}

// Answer applies digit n. Once progress reaches GuessProgress or the step
// count passes MaxSteps the final guess is requested and the session is
// removed whether or not the guess succeeded.
func (m *Manager) Answer(ctx context.Context, chatID string, n int) (StepResult, error) {
	s, ok := m.get(chatID)
	if !ok {
		return StepResult{}, ErrNoSession
	}

	code, ok := AnswerForDigit(n)
	if !ok {
		return StepResult{Ignored: true, Snapshot: s.snapshot()}, nil
	}
	if err := s.Game.Answer(ctx, code); err != nil {
		return StepResult{Snapshot: s.snapshot()}, fmt.Errorf("failed to answer akinator step: %w", err)
	}

	if s.Game.Progress() < GuessProgress && s.Game.Step() <= MaxSteps {
		return StepResult{Snapshot: s.snapshot()}, nil
	}

	// The game may have been stopped while the answer was in flight.
	if !m.remove(chatID, s) {
		return StepResult{}, ErrNoSession
	}
	res := StepResult{Finished: true, Snapshot: s.snapshot()}
	g, err := s.Game.Guess(ctx)
	if err != nil {
		res.GuessErr = err
		return res, nil
	}
	res.Guess = g
	return res, nil
}

// remove deletes chatID's session if it is still s.
func (m *Manager) remove(chatID string, s *Session) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.store.Get(chatID)
	if !ok || current != s {
		return false
	}
	m.store.Delete(chatID)
	return true
}

// Back rewinds one step when the game supports it. Rewind errors are
// ignored; the current question is returned either way.
func (m *Manager) Back(ctx context.Context, chatID string) (Snapshot, error) {
	s, ok := m.get(chatID)
	if !ok {
		return Snapshot{}, ErrNoSession
	}
	if err := s.Game.Back(ctx); err != nil {
		log.Debug().Err(err).Str("chat_id", chatID).Msg("Akinator back failed")
	}
	return s.snapshot(), nil
}

// Stop removes the chat's game. It reports whether one existed.
func (m *Manager) Stop(chatID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.store.Has(chatID) {
		return false
	}
	m.store.Delete(chatID)
	return true
}

// IsStopWord reports whether sub ends a game.
func IsStopWord(sub string) bool {
	switch strings.ToLower(sub) {
	case "stop", "end", "quit":
		return true
	}
	return false
}
