package counter

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/reflux"
)

// Walks the canonical scenario: init renders "0", two increments render
// "1" then "2", an unknown action leaves the count at 2 but still
// renders.
func TestCounterScenario(t *testing.T) {
	var display bytes.Buffer
	store := reflux.New(Reduce)
	store.Subscribe(reflux.WriterSubscriber[State](&display, Render))
	ctx := context.Background()

	require.NoError(t, store.Init(ctx))
	state, ok := store.State()
	require.True(t, ok)
	assert.Equal(t, State{Count: 0}, state)

	require.NoError(t, store.Dispatch(ctx, Increment()))
	state, _ = store.State()
	assert.Equal(t, State{Count: 1}, state)

	require.NoError(t, store.Dispatch(ctx, Increment()))
	state, _ = store.State()
	assert.Equal(t, State{Count: 2}, state)

	require.NoError(t, store.Dispatch(ctx, reflux.NewAction("unknown", nil)))
	state, _ = store.State()
	assert.Equal(t, State{Count: 2}, state, "unknown action must not change state")

	lines := strings.Split(strings.TrimSpace(display.String()), "\n")
	assert.Equal(t, []string{"0", "1", "2", "2"}, lines)
}

func TestReduceSubstitutesDefaultOnAbsentState(t *testing.T) {
	state := Reduce(nil, reflux.InitAction())
	assert.Equal(t, DefaultState(), state)

	// Increment from absent state counts from the default.
	state = Reduce(nil, Increment())
	assert.Equal(t, State{Count: 1}, state)
}

func TestReduceIsPure(t *testing.T) {
	prev := State{Count: 7}
	act := Increment()

	a := Reduce(&prev, act)
	b := Reduce(&prev, act)

	assert.Equal(t, a, b)
	assert.Equal(t, State{Count: 7}, prev, "input state must not be mutated")
	assert.Equal(t, 8, a.Count)
}

func TestSnapshotIsIdentity(t *testing.T) {
	prev := State{Count: 3}
	next := Reduce(&prev, Snapshot(prev))
	assert.Equal(t, prev, next)
}

func TestRender(t *testing.T) {
	assert.Equal(t, "0", Render(State{}))
	assert.Equal(t, "42", Render(State{Count: 42}))
}
