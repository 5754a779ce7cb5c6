// Package model defines the durable records of the minigame bot.
package model

import "time"

// ReminderStatus is the lifecycle state of a reminder.
type ReminderStatus string

// Reminder statuses. Sent and cancelled are terminal.
const (
	ReminderPending   ReminderStatus = "pending"
	ReminderSent      ReminderStatus = "sent"
	ReminderCancelled ReminderStatus = "cancelled"
)

// Reminder is a scheduled one-shot message for a chat.
type Reminder struct {
	ID        string         `db:"id"`
	ChatID    string         `db:"chat_id"`
	Body      string         `db:"body"`
	DueAtMs   int64          `db:"due_at_ms"`
	Status    ReminderStatus `db:"status"`
	CreatedAt time.Time      `db:"created_at"`
	SentAt    *time.Time     `db:"sent_at"`
}

// DueAt returns the due time as a time.Time in the local zone.
func (r *Reminder) DueAt() time.Time {
	return time.UnixMilli(r.DueAtMs)
}

// IsPending reports whether the reminder can still be delivered or cancelled.
func (r *Reminder) IsPending() bool {
	return r.Status == ReminderPending
}

// ChatSetting stores whether the bot answers in a chat.
type ChatSetting struct {
	ChatID    string    `db:"chat_id"`
	Enabled   bool      `db:"enabled"`
	UpdatedAt time.Time `db:"updated_at"`
}

// GlobalSettingKey is the chat_settings row holding the global switch.
const GlobalSettingKey = "*"
