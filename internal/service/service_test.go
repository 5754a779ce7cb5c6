package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"minigame-bot/internal/chat"
	"minigame-bot/internal/model"
	"minigame-bot/internal/reminder"
)

type nopSender struct{}

func (nopSender) Send(context.Context, chat.Message) error { return nil }

func newReminderService(t *testing.T, now time.Time) (*ReminderService, *reminder.MemoryStore, *reminder.Scheduler) {
	t.Helper()
	store := reminder.NewMemoryStore()
	sched := reminder.NewScheduler(store)
	require.NoError(t, sched.Bind(context.Background(), nopSender{}))
	t.Cleanup(sched.Stop)

	svc := NewReminderService(store, sched)
	svc.now = func() time.Time { return now }
	return svc, store, sched
}

func TestReminderSetArmsAndRollsOver(t *testing.T) {
	now := time.Date(2026, 5, 1, 20, 0, 0, 0, time.Local)
	svc, _, sched := newReminderService(t, now)

	rec, err := svc.Set(context.Background(), "c", reminder.Args{Body: "sleep", Hour: 8, Minute: 0})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 5, 2, 8, 0, 0, 0, time.Local).UnixMilli(), rec.DueAtMs)
	assert.True(t, sched.Armed(rec.ID))
}

// TestReminderDueWindowProperty: the due time is always after now and at
// most one day ahead.
func TestReminderDueWindowProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		now := time.Unix(rapid.Int64Range(1_600_000_000, 1_900_000_000).Draw(rt, "now"), 0)
		svc, _, _ := newReminderService(t, now)
		args := reminder.Args{
			Body:   "x",
			Hour:   rapid.IntRange(0, 23).Draw(rt, "hh"),
			Minute: rapid.IntRange(0, 59).Draw(rt, "mm"),
		}
		rec, err := svc.Set(context.Background(), "c", args)
		if err != nil {
			rt.Fatal(err)
		}
		delta := rec.DueAt().Sub(now)
		if delta <= 0 || delta > 25*time.Hour {
			rt.Fatalf("due %v is %v from now", rec.DueAt(), delta)
		}
	})
}

func TestReminderListPendingLimit(t *testing.T) {
	svc, store, _ := newReminderService(t, time.Now())
	ctx := context.Background()
	for i := 0; i < 25; i++ {
		_, err := store.Add(ctx, "c", "r", int64(1000+i))
		require.NoError(t, err)
	}

	rows, total, err := svc.ListPending(ctx, "c", 20)
	require.NoError(t, err)
	assert.Len(t, rows, 20)
	assert.Equal(t, 25, total)
	assert.Equal(t, int64(1000), rows[0].DueAtMs)
}

func TestReminderCancelByIndexAndID(t *testing.T) {
	now := time.Now()
	svc, store, sched := newReminderService(t, now)
	ctx := context.Background()

	first, err := svc.Set(ctx, "c", reminder.Args{Body: "a", Hour: 1, Minute: 0})
	require.NoError(t, err)
	second, err := store.Add(ctx, "c", "b", first.DueAtMs+1)
	require.NoError(t, err)

	got, err := svc.Cancel(ctx, "c", "1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.False(t, sched.Armed(first.ID))

	stored, err := store.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReminderCancelled, stored.Status)

	got, err = svc.Cancel(ctx, "c", second.ID)
	require.NoError(t, err)
	assert.Equal(t, "b", got.Body)
}

func TestReminderCancelRejections(t *testing.T) {
	svc, store, _ := newReminderService(t, time.Now())
	ctx := context.Background()
	rec, err := store.Add(ctx, "c", "a", 1000)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, "other-chat", rec.ID)
	assert.ErrorIs(t, err, ErrReminderNotCancellable)

	_, err = svc.Cancel(ctx, "c", "5")
	assert.ErrorIs(t, err, ErrReminderNotCancellable)

	_, err = svc.Cancel(ctx, "c", "nope")
	assert.ErrorIs(t, err, ErrReminderNotCancellable)

	require.NoError(t, store.MarkSent(ctx, rec.ID))
	_, err = svc.Cancel(ctx, "c", rec.ID)
	assert.ErrorIs(t, err, ErrReminderNotCancellable)
}

type memSettings struct {
	rows map[string]bool
	err  error
}

func (m *memSettings) Get(_ context.Context, id string) (bool, bool, error) {
	v, ok := m.rows[id]
	return v, ok, m.err
}

func (m *memSettings) Set(_ context.Context, id string, enabled bool) error {
	if m.err != nil {
		return m.err
	}
	m.rows[id] = enabled
	return nil
}

func (m *memSettings) All(context.Context) ([]model.ChatSetting, error) {
	out := make([]model.ChatSetting, 0, len(m.rows))
	for id, v := range m.rows {
		out = append(out, model.ChatSetting{ChatID: id, Enabled: v})
	}
	return out, m.err
}

func TestControlServiceSwitches(t *testing.T) {
	ctx := context.Background()
	store := &memSettings{rows: map[string]bool{}}
	svc := NewControlService(store)

	assert.True(t, svc.Enabled("c"))

	require.NoError(t, svc.SetChat(ctx, "c", false))
	assert.False(t, svc.Enabled("c"))
	assert.True(t, svc.Enabled("d"))

	require.NoError(t, svc.SetGlobal(ctx, false))
	assert.False(t, svc.Enabled("d"))

	reloaded := NewControlService(store)
	require.NoError(t, reloaded.Load(ctx))
	global, chatOn := reloaded.State("c")
	assert.False(t, global)
	assert.False(t, chatOn)
}

func TestControlServiceStoreFailureKeepsState(t *testing.T) {
	store := &memSettings{rows: map[string]bool{}, err: errors.New("disk full")}
	svc := NewControlService(store)

	assert.Error(t, svc.SetGlobal(context.Background(), false))
	assert.True(t, svc.Enabled("c"))
}

func TestControlServiceWithoutStore(t *testing.T) {
	svc := NewControlService(nil)
	require.NoError(t, svc.Load(context.Background()))
	require.NoError(t, svc.SetChat(context.Background(), "c", false))
	assert.False(t, svc.Enabled("c"))
}
