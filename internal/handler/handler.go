// Package handler implements the chat commands: it parses arguments, calls
// the game and reminder packages and renders their results as messages.
package handler

import (
	"context"
	"fmt"
	"strings"

	"minigame-bot/internal/chat"
	"minigame-bot/internal/command"
	"minigame-bot/internal/game"
)

// Registrar is implemented by every handler group.
type Registrar interface {
	Register(reg *command.Registry) error
}

// base carries the outbound side shared by all handlers.
type base struct {
	sender chat.Sender
}

func (b base) reply(ctx context.Context, ev chat.Event, text string) error {
	return b.sender.Send(ctx, chat.Reply(ev, text))
}

func (b base) send(ctx context.Context, msg chat.Message) error {
	return b.sender.Send(ctx, msg)
}

// RegisterAll registers every group on reg and installs router's digit
// commands.
func RegisterAll(reg *command.Registry, router *game.Router, groups ...Registrar) error {
	for _, g := range groups {
		if err := g.Register(reg); err != nil {
			return fmt.Errorf("failed to register %T: %w", g, err)
		}
	}
	if router != nil {
		if err := router.Install(reg); err != nil {
			return fmt.Errorf("failed to install digit router: %w", err)
		}
	}
	return nil
}

func registerEach(reg *command.Registry, routes map[string]command.Handler) error {
	for trigger, h := range routes {
		if err := reg.Register(trigger, h); err != nil {
			return fmt.Errorf("%s: %w", trigger, err)
		}
	}
	return nil
}

func lines(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n")
}

// paragraphs joins the non-empty blocks with a blank line between them.
func paragraphs(blocks ...string) string {
	out := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b != "" {
			out = append(out, b)
		}
	}
	return strings.Join(out, "\n\n")
}

func digitChoices(title, button string, labels []string) *chat.Choices {
	rows := make([]chat.Choice, len(labels))
	for i, l := range labels {
		rows[i] = chat.Choice{Label: l, Value: command.DigitTrigger(i + 1)}
	}
	return &chat.Choices{Title: title, Button: button, Rows: rows}
}
