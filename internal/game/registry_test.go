package game

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minigame-bot/internal/chat"
	"minigame-bot/internal/command"
)

type stubProvider struct {
	name     string
	sessions map[string]bool
	handled  bool
	err      error
	got      []int
}

func (p *stubProvider) Name() string                  { return p.name }
func (p *stubProvider) HasSession(chatID string) bool { return p.sessions[chatID] }
func (p *stubProvider) ActiveSessions() int           { return len(p.sessions) }

func (p *stubProvider) HandleDigit(_ context.Context, _ chat.Event, n int) (bool, error) {
	p.got = append(p.got, n)
	return p.handled, p.err
}

func stub(name string, handled bool, chats ...string) *stubProvider {
	p := &stubProvider{name: name, handled: handled, sessions: map[string]bool{}}
	for _, c := range chats {
		p.sessions[c] = true
	}
	return p
}

func TestRouteFirstProviderWithSessionWins(t *testing.T) {
	entity := stub("akinator", true, "c")
	ttt := stub("tictactoe", true, "c")
	num := stub("guess", true, "c")
	r := NewRouter(entity, ttt, num)

	name, err := r.Route(context.Background(), chat.Event{ChatID: "c"}, 2)
	require.NoError(t, err)
	assert.Equal(t, "akinator", name)
	assert.Equal(t, []int{2}, entity.got)
	assert.Empty(t, ttt.got)
	assert.Empty(t, num.got)
}

func TestRouteSkipsProvidersWithoutSession(t *testing.T) {
	entity := stub("akinator", true)
	ttt := stub("tictactoe", true, "c")
	r := NewRouter(entity, ttt)

	name, err := r.Route(context.Background(), chat.Event{ChatID: "c"}, 7)
	require.NoError(t, err)
	assert.Equal(t, "tictactoe", name)
	assert.Empty(t, entity.got)
}

func TestRouteFallsThroughWhenDeclined(t *testing.T) {
	ttt := stub("tictactoe", false, "c")
	num := stub("guess", true, "c")
	r := NewRouter(ttt, num)

	name, err := r.Route(context.Background(), chat.Event{ChatID: "c"}, 3)
	require.NoError(t, err)
	assert.Equal(t, "guess", name)
	assert.Equal(t, []int{3}, ttt.got)
	assert.Equal(t, []int{3}, num.got)
}

func TestRouteNoSessionIsSilent(t *testing.T) {
	r := NewRouter(stub("a", true), stub("b", true))
	name, err := r.Route(context.Background(), chat.Event{ChatID: "c"}, 1)
	assert.NoError(t, err)
	assert.Empty(t, name)
}

func TestRouteErrorStopsChain(t *testing.T) {
	entity := stub("akinator", true, "c")
	entity.err = errors.New("upstream")
	ttt := stub("tictactoe", true, "c")
	r := NewRouter(entity, ttt)

	name, err := r.Route(context.Background(), chat.Event{ChatID: "c"}, 1)
	assert.Error(t, err)
	assert.Equal(t, "akinator", name)
	assert.Empty(t, ttt.got)
}

func TestInstallRegistersAllDigits(t *testing.T) {
	p := stub("guess", true, "c")
	r := NewRouter()
	require.NoError(t, r.Add(p))
	assert.Error(t, r.Add(nil))

	reg := command.NewRegistry(nil)
	require.NoError(t, r.Install(reg))

	for n := 1; n <= 9; n++ {
		assert.True(t, reg.Dispatch(context.Background(), chat.Event{ChatID: "c", Text: command.DigitTrigger(n)}))
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9}, p.got)
}

func TestActiveSessions(t *testing.T) {
	r := NewRouter(stub("a", true, "x", "y"), stub("b", true))
	assert.Equal(t, map[string]int{"a": 2, "b": 0}, r.ActiveSessions())
}
