package akinator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const startPage = `<html><script>
var game = { session: '42', signature: 'abc123' };
</script>
<p class="question-text" id="question-label">Is your character a &quot;real&quot; person?</p>
</html>`

func TestHTTPClientPlaysAGame(t *testing.T) {
	var answers []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		switch r.URL.Path {
		case "/game":
			_, _ = w.Write([]byte(startPage))
		case "/answer":
			assert.Equal(t, "42", r.PostForm.Get("session"))
			assert.Equal(t, "abc123", r.PostForm.Get("signature"))
			answers = append(answers, r.PostForm.Get("answer"))
			if len(answers) == 1 {
				_, _ = w.Write([]byte(`{"completion":"OK","step":"1","progression":"40.5","question":"Is it a woman?"}`))
				return
			}
			_, _ = w.Write([]byte(`{"completion":"OK","id_proposition":"7","name_proposition":"Ada Lovelace","description_proposition":"Mathematician","photo":"https://example.com/ada.jpg"}`))
		case "/cancel_answer":
			_, _ = w.Write([]byte(`{"completion":"OK","step":"0","progression":"10","question":"Is your character a real person?"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.Client(), srv.URL)
	game, err := c.Start(context.Background(), "en")
	require.NoError(t, err)
	assert.Equal(t, `Is your character a "real" person?`, game.Question())
	assert.Equal(t, 0, game.Step())

	require.NoError(t, game.Answer(context.Background(), AnswerYes))
	assert.Equal(t, 1, game.Step())
	assert.InDelta(t, 40.5, game.Progress(), 0.001)
	assert.Equal(t, "Is it a woman?", game.Question())

	require.NoError(t, game.Back(context.Background()))
	assert.Equal(t, 0, game.Step())

	require.NoError(t, game.Answer(context.Background(), AnswerProbably))
	assert.Equal(t, []string{"0", "3"}, answers)
	assert.GreaterOrEqual(t, game.Progress(), GuessProgress)

	g, err := game.Guess(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", g.Name)
	assert.Equal(t, "Mathematician", g.Description)
}

func TestHTTPClientRequestsGuessAtStepCeiling(t *testing.T) {
	var listCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		switch r.URL.Path {
		case "/game":
			_, _ = w.Write([]byte(startPage))
		case "/answer":
			_, _ = w.Write([]byte(`{"completion":"OK","step":"61","progression":"35","question":"Does it fly?"}`))
		case "/list":
			listCalls++
			assert.Equal(t, "61", r.PostForm.Get("step"))
			assert.Equal(t, "42", r.PostForm.Get("session"))
			_, _ = w.Write([]byte(`{"completion":"OK","id_proposition":"9","name_proposition":"Pikachu","description_proposition":"Pokemon","photo":"https://example.com/p.jpg"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.Client(), srv.URL)
	m := NewManager(client, nil, nil)
	_, _, err := m.Start(context.Background(), "c", "en")
	require.NoError(t, err)

	res, err := m.Answer(context.Background(), "c", 1)
	require.NoError(t, err)
	assert.True(t, res.Finished)
	require.NoError(t, res.GuessErr)
	assert.Equal(t, "Pikachu", res.Guess.Name)
	assert.Equal(t, "https://example.com/p.jpg", res.Guess.PhotoURL)
	assert.Equal(t, 1, listCalls)
	assert.False(t, m.HasSession("c"))
}

func TestHTTPClientGuessWithoutProposition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/game":
			_, _ = w.Write([]byte(startPage))
		case "/list":
			_, _ = w.Write([]byte(`{"completion":"OK","step":"0","progression":"0"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	game, err := NewHTTPClient(srv.Client(), srv.URL).Start(context.Background(), "en")
	require.NoError(t, err)
	_, err = game.Guess(context.Background())
	assert.ErrorIs(t, err, ErrNoGuess)
}

func TestHTTPClientMapsForbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.Client(), srv.URL).Start(context.Background(), "en")
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestHTTPClientSubstitutesRegion(t *testing.T) {
	c := NewHTTPClient(nil, "https://{region}.example.com/")
	assert.Equal(t, "https://fr.example.com", c.origin("fr"))
	assert.True(t, strings.HasPrefix(NewHTTPClient(nil, "").origin("id"), "https://id."))
}
