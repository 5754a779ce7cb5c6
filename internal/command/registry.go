// Package command maps textual triggers to handlers and dispatches inbound
// events to them.
package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"minigame-bot/internal/chat"
	"minigame-bot/internal/pkg/lock"
)

// Handler executes a command for an inbound event. Returned errors are logged
// by Dispatch and never reach the transport.
type Handler func(ctx context.Context, ev chat.Event) error

// Registry errors.
var (
	ErrEmptyTrigger    = errors.New("command trigger cannot be empty")
	ErrNilHandler      = errors.New("cannot register nil handler")
	ErrReservedTrigger = errors.New("trigger is reserved for the numeric router")
)

// Registry holds handlers keyed by lower-cased trigger.
type Registry struct {
	handlers map[string]Handler
	chatLock *lock.ChatLock
	mu       sync.RWMutex
}

// NewRegistry creates an empty registry. Handlers for the same chat are
// serialized through chatLock; a nil lock gets a private one.
func NewRegistry(chatLock *lock.ChatLock) *Registry {
	if chatLock == nil {
		chatLock = lock.NewChatLock()
	}
	return &Registry{
		handlers: make(map[string]Handler),
		chatLock: chatLock,
	}
}

// Register binds trigger to h, replacing any previous handler.
func (r *Registry) Register(trigger string, h Handler) error {
	key := normalize(trigger)
	if IsDigitTrigger(key) {
		return fmt.Errorf("%w: %s", ErrReservedTrigger, key)
	}
	return r.set(key, h)
}

// RegisterDigit binds !n for n in 1..9. Only the numeric router calls this.
func (r *Registry) RegisterDigit(n int, h Handler) error {
	if n < 1 || n > 9 {
		return fmt.Errorf("digit %d out of range", n)
	}
	return r.set(DigitTrigger(n), h)
}

func (r *Registry) set(key string, h Handler) error {
	if key == "" {
		return ErrEmptyTrigger
	}
	if h == nil {
		return ErrNilHandler
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[key] = h
	return nil
}

// Lookup returns the handler for the first token of raw.
func (r *Registry) Lookup(raw string) (Handler, bool) {
	key := FirstToken(raw)
	if key == "" {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[key]
	return h, ok
}

// Triggers returns all registered triggers in sorted order.
func (r *Registry) Triggers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.handlers))
	for k := range r.handlers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Dispatch runs the handler matching ev.Text. It reports whether a handler
// was found. Handler errors and panics are logged and swallowed.
func (r *Registry) Dispatch(ctx context.Context, ev chat.Event) bool {
	h, ok := r.Lookup(ev.Text)
	if !ok {
		return false
	}

	r.chatLock.Lock(ev.ChatID)
	defer r.chatLock.Unlock(ev.ChatID)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Interface("panic", rec).
				Str("chat_id", ev.ChatID).
				Str("command", FirstToken(ev.Text)).
				Msg("Recovered from panic in command handler")
		}
	}()

	if err := h(ctx, ev); err != nil {
		log.Error().
			Err(err).
			Str("chat_id", ev.ChatID).
			Str("user_id", ev.SenderID).
			Str("command", FirstToken(ev.Text)).
			Msg("Command failed")
	}
	return true
}

// FirstToken returns the lower-cased first whitespace-delimited token.
func FirstToken(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// Args returns the whitespace-delimited tokens after the trigger.
func Args(raw string) []string {
	fields := strings.Fields(raw)
	if len(fields) <= 1 {
		return nil
	}
	return fields[1:]
}

// SubCommand returns the lower-cased first argument, or "".
func SubCommand(raw string) string {
	args := Args(raw)
	if len(args) == 0 {
		return ""
	}
	return strings.ToLower(args[0])
}

// DigitTrigger returns the numeric trigger for n, e.g. "!3".
func DigitTrigger(n int) string {
	return fmt.Sprintf("!%d", n)
}

// IsDigitTrigger reports whether key is one of !1..!9.
func IsDigitTrigger(key string) bool {
	return len(key) == 2 && key[0] == '!' && key[1] >= '1' && key[1] <= '9'
}

func normalize(trigger string) string {
	return strings.ToLower(strings.TrimSpace(trigger))
}
