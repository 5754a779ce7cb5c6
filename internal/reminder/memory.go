package reminder

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"minigame-bot/internal/model"
)

// ErrNotFound is returned by MemoryStore for unknown ids.
var ErrNotFound = errors.New("reminder not found")

// MemoryStore is a process-local Store. Records do not survive a restart.
type MemoryStore struct {
	records map[string]*model.Reminder
	now     func() time.Time
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*model.Reminder),
		now:     time.Now,
	}
}

func (m *MemoryStore) Add(_ context.Context, chatID, body string, dueAtMs int64) (*model.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := &model.Reminder{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Body:      body,
		DueAtMs:   dueAtMs,
		Status:    model.ReminderPending,
		CreatedAt: m.now(),
	}
	m.records[r.ID] = r
	cp := *r
	return &cp, nil
}

func (m *MemoryStore) GetByID(_ context.Context, id string) (*model.Reminder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MemoryStore) filter(keep func(*model.Reminder) bool) []*model.Reminder {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*model.Reminder, 0)
	for _, r := range m.records {
		if r.IsPending() && keep(r) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DueAtMs != out[j].DueAtMs {
			return out[i].DueAtMs < out[j].DueAtMs
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (m *MemoryStore) ListPending(context.Context) ([]*model.Reminder, error) {
	return m.filter(func(*model.Reminder) bool { return true }), nil
}

func (m *MemoryStore) ListPendingByChat(_ context.Context, chatID string) ([]*model.Reminder, error) {
	return m.filter(func(r *model.Reminder) bool { return r.ChatID == chatID }), nil
}

func (m *MemoryStore) ListPendingDue(_ context.Context, now time.Time) ([]*model.Reminder, error) {
	ms := now.UnixMilli()
	return m.filter(func(r *model.Reminder) bool { return r.DueAtMs <= ms }), nil
}

func (m *MemoryStore) ListPendingFuture(_ context.Context, now time.Time) ([]*model.Reminder, error) {
	ms := now.UnixMilli()
	return m.filter(func(r *model.Reminder) bool { return r.DueAtMs > ms }), nil
}

// MarkSent moves a pending record to sent. Terminal records are left alone.
func (m *MemoryStore) MarkSent(_ context.Context, id string) error {
	return m.transition(id, model.ReminderSent)
}

// Cancel moves a pending record to cancelled. Terminal records are left alone.
func (m *MemoryStore) Cancel(_ context.Context, id string) error {
	return m.transition(id, model.ReminderCancelled)
}

func (m *MemoryStore) transition(id string, to model.ReminderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[id]
	if !ok {
		return ErrNotFound
	}
	if !r.IsPending() {
		return nil
	}
	r.Status = to
	if to == model.ReminderSent {
		now := m.now()
		r.SentAt = &now
	}
	return nil
}
