package session

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore[int]()

	assert.False(t, s.Has("a"))
	_, ok := s.Get("a")
	assert.False(t, ok)

	s.Set("a", 1)
	s.Set("b", 2)
	v, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, s.Len())

	s.Set("a", 3)
	v, _ = s.Get("a")
	assert.Equal(t, 3, v)

	s.Delete("a")
	assert.False(t, s.Has("a"))
	assert.Equal(t, 1, s.Len())

	s.Delete("missing")
	assert.Equal(t, 1, s.Len())
}

func TestTaskFires(t *testing.T) {
	var task Task
	fired := make(chan uint64, 1)

	gen := task.Arm(10*time.Millisecond, func(g uint64) { fired <- g })

	select {
	case g := <-fired:
		assert.Equal(t, gen, g)
		assert.True(t, task.Current(g))
	case <-time.After(time.Second):
		t.Fatal("task did not fire")
	}
}

func TestTaskRearmCancelsPrevious(t *testing.T) {
	var task Task
	var count atomic.Int32

	task.Arm(30*time.Millisecond, func(uint64) { count.Add(1) })
	second := task.Arm(60*time.Millisecond, func(g uint64) {
		if task.Current(g) {
			count.Add(10)
		}
	})

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(10), count.Load())
	assert.True(t, task.Current(second))
}

func TestTaskCancel(t *testing.T) {
	var task Task
	var count atomic.Int32

	gen := task.Arm(20*time.Millisecond, func(uint64) { count.Add(1) })
	assert.True(t, task.Armed())
	task.Cancel()
	assert.False(t, task.Armed())
	assert.False(t, task.Current(gen))

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), count.Load())
}
