package reminder

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"minigame-bot/internal/chat"
	"minigame-bot/internal/model"
)

// ErrNotBound is returned when scheduling before Bind supplied a sender.
var ErrNotBound = errors.New("reminder scheduler is not bound to a sender")

// DeliveryPrefix is prepended to every delivered reminder body.
const DeliveryPrefix = "Reminder: "

// markSentTimeout bounds the status update after a successful send.
const markSentTimeout = 5 * time.Second

// Scheduler keeps one armed timer per pending reminder id. An id whose
// delivery was attempted is never armed again by this process.
type Scheduler struct {
	store     Store
	sender    chat.Sender
	timers    map[string]*time.Timer
	attempted map[string]bool
	stopped   bool
	now       func() time.Time
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
}

// NewScheduler creates an unbound scheduler over store.
func NewScheduler(store Store) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		store:     store,
		timers:    make(map[string]*time.Timer),
		attempted: make(map[string]bool),
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Bind sets the sender and arms every pending reminder not armed yet.
// Calling it again only picks up reminders that are still unarmed.
func (s *Scheduler) Bind(ctx context.Context, sender chat.Sender) error {
	s.mu.Lock()
	s.sender = sender
	s.mu.Unlock()

	pending, err := s.store.ListPending(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load pending reminders")
		return err
	}

	armed := 0
	for _, r := range pending {
		ok, err := s.Schedule(r)
		if err != nil {
			return err
		}
		if ok {
			armed++
		}
	}
	log.Info().Int("pending", len(pending)).Int("armed", armed).Msg("Reminder scheduler bound")
	return nil
}

// Schedule arms delivery of r after max(0, due-now). It reports false unless
// r is pending with no armed timer and no delivery attempt in this process.
func (s *Scheduler) Schedule(r *model.Reminder) (bool, error) {
	if r == nil || !r.IsPending() {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sender == nil {
		return false, ErrNotBound
	}
	if _, ok := s.timers[r.ID]; ok || s.attempted[r.ID] {
		return false, nil
	}
	if s.stopped {
		return false, nil
	}

	delay := r.DueAt().Sub(s.now())
	if delay < 0 {
		delay = 0
	}
	rec := *r
	sender := s.sender
	s.wg.Add(1)
	s.timers[r.ID] = time.AfterFunc(delay, func() {
		defer s.wg.Done()
		s.deliver(&rec, sender)
	})
	return true, nil
}

// deliver sends the reminder and marks it sent. On send failure the record
// stays pending; it is armed again only by the next Bind after a restart.
func (s *Scheduler) deliver(r *model.Reminder, sender chat.Sender) {
	s.mu.Lock()
	s.attempted[r.ID] = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.timers, r.ID)
		s.mu.Unlock()
	}()

	err := sender.Send(s.ctx, chat.Message{ChatID: r.ChatID, Text: DeliveryPrefix + r.Body})
	if err != nil {
		log.Error().
			Err(err).
			Str("reminder_id", r.ID).
			Str("chat_id", r.ChatID).
			Msg("Reminder delivery failed")
		return
	}
	// The message is out; record it even if shutdown has begun.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), markSentTimeout)
	defer cancel()
	if err := s.store.MarkSent(ctx, r.ID); err != nil {
		log.Error().
			Err(err).
			Str("reminder_id", r.ID).
			Msg("Failed to mark reminder sent")
		return
	}
	log.Info().Str("reminder_id", r.ID).Str("chat_id", r.ChatID).Msg("Reminder delivered")
}

// CancelScheduled disarms id. The stored status is left untouched.
func (s *Scheduler) CancelScheduled(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.timers[id]
	if !ok {
		return false
	}
	if t.Stop() {
		s.wg.Done()
	}
	delete(s.timers, id)
	return true
}

// Armed reports whether id has a pending delivery.
func (s *Scheduler) Armed(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[id]
	return ok
}

// ArmedCount returns how many deliveries are pending.
func (s *Scheduler) ArmedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop disarms every pending delivery and waits for running ones to
// finish before cancelling the delivery context.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for id, t := range s.timers {
		if t.Stop() {
			s.wg.Done()
			delete(s.timers, id)
		}
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.cancel()
}
