// Package game defines the contract between the numeric router and the
// mini-games that accept bare digit answers.
package game

import (
	"context"

	"minigame-bot/internal/chat"
)

// Provider is a mini-game that can consume a digit command (!1..!9).
type Provider interface {
	// Name identifies the game in logs.
	Name() string

	// HasSession reports whether chatID has an active session of this game.
	HasSession(chatID string) bool

	// HandleDigit applies digit n to the chat's session.
	// Returns:
	//   - true if the digit was consumed and no later provider may see it
	//   - false to let the router try the next provider with a session
	HandleDigit(ctx context.Context, ev chat.Event, n int) (bool, error)
}

// SessionCounter is implemented by providers that can report how many
// sessions they hold.
type SessionCounter interface {
	ActiveSessions() int
}
