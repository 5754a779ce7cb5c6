package handler

import (
	"context"
	"errors"
	"fmt"

	"minigame-bot/internal/chat"
	"minigame-bot/internal/command"
	"minigame-bot/internal/reminder"
	"minigame-bot/internal/service"
)

// ReminderListLimit caps the rows shown by !reminder-list.
const ReminderListLimit = 20

// ReminderHandler serves the owner-only reminder commands.
type ReminderHandler struct {
	base
	service *service.ReminderService
}

// NewReminderHandler creates a new ReminderHandler.
func NewReminderHandler(svc *service.ReminderService, sender chat.Sender) *ReminderHandler {
	return &ReminderHandler{base: base{sender: sender}, service: svc}
}

// Register binds !reminder, !reminder-list and !reminder-cancel.
func (h *ReminderHandler) Register(reg *command.Registry) error {
	return registerEach(reg, map[string]command.Handler{
		"!reminder":        ownerOnly(h.handleSet),
		"!reminder-list":   ownerOnly(h.handleList),
		"!reminder-cancel": ownerOnly(h.handleCancel),
	})
}

// ownerOnly drops events that were not sent by the bot owner.
func ownerOnly(next command.Handler) command.Handler {
	return func(ctx context.Context, ev chat.Event) error {
		if !ev.IsFromSelf {
			return nil
		}
		return next(ctx, ev)
	}
}

func (h *ReminderHandler) handleSet(ctx context.Context, ev chat.Event) error {
	args, ok := reminder.ParseArgs(ev.Text)
	if !ok {
		return nil
	}

	if _, err := h.service.Set(ctx, ev.ChatID, args); err != nil {
		return err
	}
	return h.reply(ctx, ev, fmt.Sprintf("Reminder set: %s\nAt %02d:%02d", args.Body, args.Hour, args.Minute))
}

func (h *ReminderHandler) handleList(ctx context.Context, ev chat.Event) error {
	rows, total, err := h.service.ListPending(ctx, ev.ChatID, ReminderListLimit)
	if err != nil {
		return err
	}
	if total == 0 {
		return nil
	}

	out := make([]string, 0, len(rows)+2)
	out = append(out, "Pending reminders:")
	for i, r := range rows {
		out = append(out, fmt.Sprintf("%d. [%s] %s (id: %s)", i+1, r.DueAt().Format("02/01 15:04"), r.Body, r.ID))
	}
	if total > len(rows) {
		out = append(out, fmt.Sprintf("(+%d more)", total-len(rows)))
	}
	return h.reply(ctx, ev, lines(out...))
}

func (h *ReminderHandler) handleCancel(ctx context.Context, ev chat.Event) error {
	args := command.Args(ev.Text)
	if len(args) == 0 {
		return nil
	}

	rec, err := h.service.Cancel(ctx, ev.ChatID, args[0])
	if errors.Is(err, service.ErrReminderNotCancellable) {
		return nil
	}
	if err != nil {
		return err
	}
	return h.reply(ctx, ev, "Reminder cancelled: "+rec.Body)
}
