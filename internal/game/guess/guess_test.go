package guess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func fixed(target int) func(int) int {
	return func(int) int { return target - MinTarget }
}

// TestFirstAttemptCorrectProperty: for every target, guessing it first time
// reports one attempt and ends the session.
func TestFirstAttemptCorrectProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		target := rapid.IntRange(MinTarget, MaxTarget).Draw(t, "target")
		g := New(nil)
		g.SetRand(fixed(target))

		if !g.Start("chat") {
			t.Fatal("expected a new session")
		}
		res, err := g.Guess("chat", target, false)
		if err != nil {
			t.Fatalf("guess failed: %v", err)
		}
		if res.Verdict != VerdictCorrect || res.Attempts != 1 || res.Target != target {
			t.Fatalf("unexpected result %+v", res)
		}
		if g.HasSession("chat") {
			t.Fatal("session must be removed after a correct guess")
		}
		if _, err := g.Guess("chat", target, false); err != ErrNoSession {
			t.Fatalf("expected ErrNoSession, got %v", err)
		}
	})
}

func TestTargetAlwaysInRangeProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g := New(nil)
		chatID := rapid.StringMatching(`[a-z0-9]{1,12}`).Draw(t, "chatID")
		g.Start(chatID)
		s, ok := g.store.Get(chatID)
		if !ok {
			t.Fatal("session missing")
		}
		if s.Target < MinTarget || s.Target > MaxTarget {
			t.Fatalf("target %d out of range", s.Target)
		}
	})
}

func TestStartIsNoopWhenRunning(t *testing.T) {
	g := New(nil)
	g.SetRand(fixed(4))
	require.True(t, g.Start("c"))

	_, err := g.Guess("c", 2, false)
	require.NoError(t, err)

	g.SetRand(fixed(9))
	assert.False(t, g.Start("c"))
	s, _ := g.store.Get("c")
	assert.Equal(t, 4, s.Target)
	assert.Equal(t, 1, s.Attempts)
}

func TestHints(t *testing.T) {
	g := New(nil)
	g.SetRand(fixed(6))
	g.Start("c")

	res, err := g.Guess("c", 3, false)
	require.NoError(t, err)
	assert.Equal(t, VerdictTooLow, res.Verdict)

	res, err = g.Guess("c", 8, false)
	require.NoError(t, err)
	assert.Equal(t, VerdictTooHigh, res.Verdict)
	assert.Equal(t, 2, res.Attempts)

	res, err = g.Guess("c", 6, false)
	require.NoError(t, err)
	assert.Equal(t, VerdictCorrect, res.Verdict)
	assert.Equal(t, 3, res.Attempts)
	assert.False(t, g.HasSession("c"))
}

func TestGuessWithoutSession(t *testing.T) {
	g := New(nil)
	_, err := g.Guess("c", 5, false)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.False(t, g.HasSession("c"))

	g.SetRand(fixed(5))
	res, err := g.Guess("c", 5, true)
	require.NoError(t, err)
	assert.Equal(t, VerdictCorrect, res.Verdict)
	assert.Equal(t, 1, res.Attempts)
}

func TestGuessOutOfRange(t *testing.T) {
	g := New(nil)
	g.Start("c")
	_, err := g.Guess("c", 0, false)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = g.Guess("c", 11, false)
	assert.ErrorIs(t, err, ErrOutOfRange)
	s, _ := g.store.Get("c")
	assert.Equal(t, 0, s.Attempts)
}
