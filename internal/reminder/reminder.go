// Package reminder schedules one-shot chat reminders persisted in a Store.
package reminder

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"minigame-bot/internal/model"
)

// Store persists reminder records. Records are never deleted; every
// mutation is a status transition away from pending.
type Store interface {
	Add(ctx context.Context, chatID, body string, dueAtMs int64) (*model.Reminder, error)
	GetByID(ctx context.Context, id string) (*model.Reminder, error)
	ListPending(ctx context.Context) ([]*model.Reminder, error)
	// ListPendingByChat is sorted by due time, earliest first.
	ListPendingByChat(ctx context.Context, chatID string) ([]*model.Reminder, error)
	ListPendingDue(ctx context.Context, now time.Time) ([]*model.Reminder, error)
	ListPendingFuture(ctx context.Context, now time.Time) ([]*model.Reminder, error)
	MarkSent(ctx context.Context, id string) error
	Cancel(ctx context.Context, id string) error
}

var timeTokenRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// Args is a parsed set-reminder command.
type Args struct {
	Body   string
	Hour   int
	Minute int
}

// ParseArgs parses "!reminder <body...> <H:MM>". The time must be the last
// token and the body must not be empty.
func ParseArgs(text string) (Args, bool) {
	parts := strings.Fields(text)
	if len(parts) < 3 || strings.ToLower(parts[0]) != "!reminder" {
		return Args{}, false
	}

	m := timeTokenRe.FindStringSubmatch(parts[len(parts)-1])
	if m == nil {
		return Args{}, false
	}
	hh, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if hh > 23 || mm > 59 {
		return Args{}, false
	}

	body := strings.TrimSpace(strings.Join(parts[1:len(parts)-1], " "))
	if body == "" {
		return Args{}, false
	}
	return Args{Body: body, Hour: hh, Minute: mm}, true
}

// NextOccurrence returns the next hh:mm on now's wall clock. A time at or
// before now rolls over to the following day.
func NextOccurrence(now time.Time, hh, mm int) time.Time {
	target := time.Date(now.Year(), now.Month(), now.Day(), hh, mm, 0, 0, now.Location())
	if !target.After(now) {
		target = time.Date(now.Year(), now.Month(), now.Day()+1, hh, mm, 0, 0, now.Location())
	}
	return target
}
