// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"minigame-bot/internal/model"
	"minigame-bot/internal/reminder"
)

// ErrReminderNotCancellable is returned when the id or index does not name a
// pending reminder of the requesting chat.
var ErrReminderNotCancellable = errors.New("no pending reminder with that id in this chat")

// ReminderService handles setting, listing and cancelling reminders.
type ReminderService struct {
	store     reminder.Store
	scheduler *reminder.Scheduler
	now       func() time.Time
}

// NewReminderService creates a new ReminderService instance.
func NewReminderService(store reminder.Store, scheduler *reminder.Scheduler) *ReminderService {
	return &ReminderService{
		store:     store,
		scheduler: scheduler,
		now:       time.Now,
	}
}

// Set stores a reminder for the next args.Hour:args.Minute and arms it.
func (s *ReminderService) Set(ctx context.Context, chatID string, args reminder.Args) (*model.Reminder, error) {
	due := reminder.NextOccurrence(s.now(), args.Hour, args.Minute)

	rec, err := s.store.Add(ctx, chatID, args.Body, due.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to save reminder: %w", err)
	}

	if _, err := s.scheduler.Schedule(rec); err != nil {
		// The record is durable; the next Bind arms it.
		log.Warn().Err(err).Str("reminder_id", rec.ID).Msg("Reminder saved but not armed")
	}
	return rec, nil
}

// ListPending returns up to limit pending reminders of the chat, earliest
// first, and the total pending count.
func (s *ReminderService) ListPending(ctx context.Context, chatID string, limit int) ([]*model.Reminder, int, error) {
	rows, err := s.store.ListPendingByChat(ctx, chatID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reminders: %w", err)
	}
	total := len(rows)
	if limit > 0 && total > limit {
		rows = rows[:limit]
	}
	return rows, total, nil
}

// Cancel cancels a pending reminder of chatID. ref is either the reminder id
// or its 1-based position in ListPending order.
func (s *ReminderService) Cancel(ctx context.Context, chatID, ref string) (*model.Reminder, error) {
	id := ref
	if idx, err := strconv.Atoi(ref); err == nil {
		rows, err := s.store.ListPendingByChat(ctx, chatID)
		if err != nil {
			return nil, fmt.Errorf("failed to list reminders: %w", err)
		}
		if idx < 1 || idx > len(rows) {
			return nil, ErrReminderNotCancellable
		}
		id = rows[idx-1].ID
	}

	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, reminder.ErrNotFound) {
			return nil, ErrReminderNotCancellable
		}
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}
	if rec.ChatID != chatID || !rec.IsPending() {
		return nil, ErrReminderNotCancellable
	}

	if err := s.store.Cancel(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to cancel reminder: %w", err)
	}
	s.scheduler.CancelScheduled(id)
	rec.Status = model.ReminderCancelled
	return rec, nil
}
