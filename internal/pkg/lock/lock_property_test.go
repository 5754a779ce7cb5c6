package lock

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// TestChatLockSerializesProperty checks that concurrent read-modify-write
// steps on one chat produce the sequential result.
func TestChatLockSerializesProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numOps := rapid.IntRange(2, 30).Draw(t, "numOps")
		chatID := fmt.Sprintf("chat-%d", rapid.IntRange(1, 1000).Draw(t, "chat"))

		cl := NewChatLock()
		counter := 0

		var wg sync.WaitGroup
		wg.Add(numOps)
		for i := 0; i < numOps; i++ {
			go func() {
				defer wg.Done()
				_ = cl.WithLock(chatID, func() error {
					current := counter
					counter = current + 1
					return nil
				})
			}()
		}
		wg.Wait()

		if counter != numOps {
			t.Fatalf("expected %d, got %d", numOps, counter)
		}
		if cl.Len() != 0 {
			t.Fatalf("expected idle entries to be dropped, %d left", cl.Len())
		}
	})
}

// TestIndependentChatsProperty checks that different chats do not block each other.
func TestIndependentChatsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numChats := rapid.IntRange(2, 8).Draw(t, "numChats")
		cl := NewChatLock()

		for i := 0; i < numChats; i++ {
			cl.Lock(fmt.Sprintf("chat-%d", i))
		}
		for i := 0; i < numChats; i++ {
			id := fmt.Sprintf("chat-%d", i)
			if cl.TryLock(id) {
				t.Fatalf("chat %s should already be locked", id)
			}
		}
		if !cl.TryLock("other") {
			t.Fatal("an unrelated chat must be lockable")
		}
		cl.Unlock("other")
		for i := 0; i < numChats; i++ {
			cl.Unlock(fmt.Sprintf("chat-%d", i))
		}
	})
}

func TestTryLockSingleWinner(t *testing.T) {
	cl := NewChatLock()
	var wins atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	cl.Lock("g")
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if cl.TryLock("g") {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()
	assert.Equal(t, int32(0), wins.Load())
	cl.Unlock("g")
	assert.True(t, cl.TryLock("g"))
	cl.Unlock("g")
}

func TestWithLockContextTimeout(t *testing.T) {
	cl := NewChatLock()
	cl.Lock("busy")

	err := cl.WithLockContext(context.Background(), "busy", 20*time.Millisecond, func() error {
		t.Fatal("fn must not run without the lock")
		return nil
	})
	assert.ErrorIs(t, err, ErrLockTimeout)

	cl.Unlock("busy")
	assert.Eventually(t, func() bool {
		if cl.TryLock("busy") {
			cl.Unlock("busy")
			return true
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

func TestUnlockUnknownChatIsNoop(t *testing.T) {
	cl := NewChatLock()
	assert.NotPanics(t, func() { cl.Unlock("nobody") })
}
