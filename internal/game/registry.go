package game

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"minigame-bot/internal/chat"
	"minigame-bot/internal/command"
)

// Router forwards digit commands to the first provider, in declared order,
// that has a session in the chat.
type Router struct {
	providers []Provider
	mu        sync.RWMutex
}

// NewRouter creates a router. Order is priority: earlier providers win.
func NewRouter(providers ...Provider) *Router {
	return &Router{providers: providers}
}

// Add appends a provider with the lowest priority so far.
func (r *Router) Add(p Provider) error {
	if p == nil {
		return fmt.Errorf("cannot add nil provider")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = append(r.providers, p)
	return nil
}

// Providers returns a copy of the providers in priority order.
func (r *Router) Providers() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

// Route delivers digit n for ev. It returns the name of the provider that
// consumed it, or "" when nothing did.
func (r *Router) Route(ctx context.Context, ev chat.Event, n int) (string, error) {
	for _, p := range r.Providers() {
		if !p.HasSession(ev.ChatID) {
			continue
		}
		handled, err := p.HandleDigit(ctx, ev, n)
		if err != nil {
			return p.Name(), fmt.Errorf("%s digit %d: %w", p.Name(), n, err)
		}
		if handled {
			return p.Name(), nil
		}
	}
	return "", nil
}

// Install registers !1..!9 on reg.
func (r *Router) Install(reg *command.Registry) error {
	for n := 1; n <= 9; n++ {
		digit := n
		err := reg.RegisterDigit(digit, func(ctx context.Context, ev chat.Event) error {
			name, err := r.Route(ctx, ev, digit)
			if name != "" {
				log.Debug().
					Str("chat_id", ev.ChatID).
					Int("digit", digit).
					Str("game", name).
					Msg("Digit routed")
			}
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ActiveSessions returns the session count per provider name, for providers
// that expose it.
func (r *Router) ActiveSessions() map[string]int {
	out := make(map[string]int)
	for _, p := range r.Providers() {
		if c, ok := p.(SessionCounter); ok {
			out[p.Name()] = c.ActiveSessions()
		}
	}
	return out
}
