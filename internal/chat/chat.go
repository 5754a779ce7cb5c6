// Package chat defines the transport-neutral shapes exchanged between the
// messaging platform and the command handlers.
package chat

import (
	"context"
	"time"
)

// Participant identifies a user inside a chat.
type Participant struct {
	ID   string
	Name string
}

// Event is an inbound text-like message. Captions, button replies and list
// replies all arrive here as plain Text.
type Event struct {
	ChatID     string
	SenderID   string
	SenderName string
	Text       string
	IsFromSelf bool // sent by the bot owner account
	IsGroup    bool
	Mentions   []Participant
	MessageRef string
	SentAt     time.Time
}

// Sender returns the event author as a Participant.
func (e Event) Sender() Participant {
	return Participant{ID: e.SenderID, Name: e.SenderName}
}

// Choice is one selectable row. Value is submitted back as a command.
type Choice struct {
	Label string
	Value string
}

// Choices is a selectable list attached to a message.
type Choices struct {
	Title  string
	Button string
	Rows   []Choice
}

// Message is an outbound message.
type Message struct {
	ChatID    string
	Text      string
	Mentions  []string
	QuotedRef string
	Choices   *Choices
}

// Sender delivers outbound messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Reply builds a message answering ev in the same chat.
func Reply(ev Event, text string) Message {
	return Message{ChatID: ev.ChatID, Text: text, QuotedRef: ev.MessageRef}
}

// Mention renders a participant reference for message text.
func Mention(p Participant) string {
	if p.Name != "" {
		return "@" + p.Name
	}
	return "@" + p.ID
}
