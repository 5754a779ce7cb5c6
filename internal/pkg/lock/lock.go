// Package lock provides per-chat locking so that handlers and callbacks for
// the same chat never interleave.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLockTimeout is returned when a chat lock cannot be acquired in time.
var ErrLockTimeout = errors.New("chat lock acquisition timeout")

// chatMutex wraps a mutex with a reference count of holders and waiters.
type chatMutex struct {
	mu       sync.Mutex
	refCount int
}

// ChatLock hands out one mutex per chat id. Entries are dropped once no
// goroutine holds or waits for them.
type ChatLock struct {
	mu    sync.Mutex
	locks map[string]*chatMutex
}

// NewChatLock creates a new ChatLock instance.
func NewChatLock() *ChatLock {
	return &ChatLock{locks: make(map[string]*chatMutex)}
}

// acquire returns the mutex for chatID and registers the caller as a user.
func (cl *ChatLock) acquire(chatID string) *chatMutex {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	m, ok := cl.locks[chatID]
	if !ok {
		m = &chatMutex{}
		cl.locks[chatID] = m
	}
	m.refCount++
	return m
}

// release drops the caller's reference and forgets idle entries.
func (cl *ChatLock) release(chatID string, m *chatMutex) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	m.refCount--
	if m.refCount <= 0 {
		delete(cl.locks, chatID)
	}
}

// Lock blocks until the chat's lock is held.
func (cl *ChatLock) Lock(chatID string) {
	cl.acquire(chatID).mu.Lock()
}

// Unlock releases the chat's lock. Unlocking a chat that is not locked is a no-op.
func (cl *ChatLock) Unlock(chatID string) {
	cl.mu.Lock()
	m, ok := cl.locks[chatID]
	cl.mu.Unlock()
	if !ok {
		return
	}
	m.mu.Unlock()
	cl.release(chatID, m)
}

// TryLock attempts to acquire the lock without blocking.
func (cl *ChatLock) TryLock(chatID string) bool {
	m := cl.acquire(chatID)
	if m.mu.TryLock() {
		return true
	}
	cl.release(chatID, m)
	return false
}

// LockWithTimeout waits for the lock until timeout or ctx cancellation.
func (cl *ChatLock) LockWithTimeout(ctx context.Context, chatID string, timeout time.Duration) bool {
	m := cl.acquire(chatID)

	done := make(chan struct{})
	go func() {
		m.mu.Lock()
		close(done)
	}()

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case <-done:
		return true
	case <-timeoutCtx.Done():
		// The waiter still gets the mutex eventually; hand it straight back.
		go func() {
			<-done
			m.mu.Unlock()
			cl.release(chatID, m)
		}()
		return false
	}
}

// WithLock executes fn while holding the chat's lock.
func (cl *ChatLock) WithLock(chatID string, fn func() error) error {
	cl.Lock(chatID)
	defer cl.Unlock(chatID)
	return fn()
}

// WithLockContext is WithLock with a bounded wait.
func (cl *ChatLock) WithLockContext(ctx context.Context, chatID string, timeout time.Duration, fn func() error) error {
	if !cl.LockWithTimeout(ctx, chatID, timeout) {
		return ErrLockTimeout
	}
	defer cl.Unlock(chatID)

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fn()
	}
}

// Len returns the number of chats currently tracked.
func (cl *ChatLock) Len() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return len(cl.locks)
}
