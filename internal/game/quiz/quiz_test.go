package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDefaultBankIsValid(t *testing.T) {
	bank := DefaultBank()
	require.Len(t, bank, 10)
	for _, q := range bank {
		assert.Len(t, q.Options, OptionCount)
		assert.NotEmpty(t, q.CorrectOption())
	}
	assert.Equal(t, "Jakarta", bank[0].CorrectOption())
}

func TestParseBankRejectsBadEntries(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", "[]"},
		{"three options", "- question: q\n  options: [a, b, c]\n  answer: 0\n"},
		{"answer out of range", "- question: q\n  options: [a, b, c, d]\n  answer: 4\n"},
		{"blank text", "- question: ' '\n  options: [a, b, c, d]\n  answer: 0\n"},
		{"not yaml", "{{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBank([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestStartReturnsExistingQuestion(t *testing.T) {
	g := New(nil, nil)
	g.SetRand(func(int) int { return 3 })

	q, created, err := g.Start("c")
	require.NoError(t, err)
	assert.True(t, created)

	g.SetRand(func(int) int { return 7 })
	again, created, err := g.Start("c")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, q, again)
}

// TestAnswerProperty: the correct 1-based option closes the session; any
// other option keeps the same question and the same right answer.
func TestAnswerProperty(t *testing.T) {
	bank := DefaultBank()
	rapid.Check(t, func(t *rapid.T) {
		idx := rapid.IntRange(0, len(bank)-1).Draw(t, "question")
		wrong := rapid.IntRange(1, 9).Filter(func(n int) bool {
			return n-1 != bank[idx].Answer
		}).Draw(t, "wrong")

		g := New(bank, nil)
		g.SetRand(func(int) int { return idx })
		if _, _, err := g.Start("c"); err != nil {
			t.Fatal(err)
		}

		res, err := g.Answer("c", wrong)
		if err != nil {
			t.Fatal(err)
		}
		if res.Correct || !g.HasSession("c") {
			t.Fatalf("wrong option %d closed the quiz", wrong)
		}
		if res.Question.Text != bank[idx].Text {
			t.Fatal("question changed after a wrong answer")
		}

		res, err = g.Answer("c", bank[idx].Answer+1)
		if err != nil {
			t.Fatal(err)
		}
		if !res.Correct || g.HasSession("c") {
			t.Fatal("correct option did not close the quiz")
		}
	})
}

func TestAnswerWithoutSession(t *testing.T) {
	g := New(nil, nil)
	_, err := g.Answer("c", 1)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestStop(t *testing.T) {
	g := New(nil, nil)
	assert.False(t, g.Stop("c"))
	_, _, err := g.Start("c")
	require.NoError(t, err)
	assert.True(t, g.Stop("c"))
	assert.False(t, g.HasSession("c"))
}

func TestIsStopWord(t *testing.T) {
	for _, w := range []string{"stop", "END", "selesai"} {
		assert.True(t, IsStopWord(w), w)
	}
	assert.False(t, IsStopWord("go"))
	assert.False(t, IsStopWord(""))
}
