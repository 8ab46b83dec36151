package reflux

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testState struct {
	Count int
}

const actionIncrement = "test/increment"

func testReducer(prev *testState, act Action) testState {
	if prev == nil {
		prev = &testState{}
	}
	switch act.Type {
	case actionIncrement:
		return testState{Count: prev.Count + 1}
	default:
		return *prev
	}
}

func TestInitMaterializesDefaultStateAndRendersOnce(t *testing.T) {
	store := New(testReducer)

	var renders []testState
	store.Subscribe(func(s testState) { renders = append(renders, s) })

	_, ok := store.State()
	require.False(t, ok, "state must be undefined before the first dispatch")

	require.NoError(t, store.Init(context.Background()))

	state, ok := store.State()
	require.True(t, ok)
	assert.Equal(t, testState{Count: 0}, state)
	require.Len(t, renders, 1)
	assert.Equal(t, testState{Count: 0}, renders[0])
}

func TestNIncrementsYieldCountN(t *testing.T) {
	store := New(testReducer)
	ctx := context.Background()
	require.NoError(t, store.Init(ctx))

	const n = 17
	for i := 0; i < n; i++ {
		require.NoError(t, store.Dispatch(ctx, NewAction(actionIncrement, nil)))
	}

	state, ok := store.State()
	require.True(t, ok)
	assert.Equal(t, n, state.Count)
}

func TestUnrecognizedActionIsIdentityButStillRenders(t *testing.T) {
	store := New(testReducer)
	ctx := context.Background()

	renders := 0
	store.Subscribe(func(testState) { renders++ })

	require.NoError(t, store.Init(ctx))
	require.NoError(t, store.Dispatch(ctx, NewAction(actionIncrement, nil)))
	require.NoError(t, store.Dispatch(ctx, NewAction("test/unknown", nil)))

	state, _ := store.State()
	assert.Equal(t, 1, state.Count, "unknown action must leave state unchanged")
	assert.Equal(t, 3, renders, "render runs on every dispatch, changed or not")
}

func TestReducerReceivesNilExactlyOnce(t *testing.T) {
	var nilCalls int
	reducer := func(prev *testState, act Action) testState {
		if prev == nil {
			nilCalls++
			prev = &testState{}
		}
		return *prev
	}

	store := New(reducer)
	ctx := context.Background()
	require.NoError(t, store.Init(ctx))
	require.NoError(t, store.Dispatch(ctx, NewAction("test/unknown", nil)))
	require.NoError(t, store.Dispatch(ctx, NewAction("test/unknown", nil)))

	assert.Equal(t, 1, nilCalls, "only the first dispatch sees absent state")
}

func TestReducerPurity(t *testing.T) {
	prev := testState{Count: 4}
	act := NewAction(actionIncrement, nil)

	a := testReducer(&prev, act)
	b := testReducer(&prev, act)

	assert.Equal(t, a, b, "same inputs must produce structurally equal results")
	assert.Equal(t, testState{Count: 4}, prev, "reducer must not mutate the previous state")
	assert.Equal(t, 5, a.Count)
}

func TestSubscribersNotifiedInRegistrationOrder(t *testing.T) {
	store := New(testReducer)

	var order []string
	store.Subscribe(func(testState) { order = append(order, "first") })
	store.Subscribe(func(testState) { order = append(order, "second") })

	require.NoError(t, store.Init(context.Background()))
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestUnsubscribeStopsRenders(t *testing.T) {
	store := New(testReducer)
	ctx := context.Background()

	renders := 0
	unsubscribe := store.Subscribe(func(testState) { renders++ })

	require.NoError(t, store.Init(ctx))
	unsubscribe()
	require.NoError(t, store.Dispatch(ctx, NewAction(actionIncrement, nil)))

	assert.Equal(t, 1, renders)
}

type failingSink struct{ err error }

func (f failingSink) Record(context.Context, Action) error { return f.err }

type capturingSink struct{ actions []Action }

func (c *capturingSink) Record(_ context.Context, act Action) error {
	c.actions = append(c.actions, act)
	return nil
}

func TestSinkReceivesEveryAction(t *testing.T) {
	sink := &capturingSink{}
	store := New(testReducer, WithSink[testState](sink))
	ctx := context.Background()

	require.NoError(t, store.Init(ctx))
	require.NoError(t, store.Dispatch(ctx, NewAction(actionIncrement, nil)))

	require.Len(t, sink.actions, 2)
	assert.Equal(t, ActionInit, sink.actions[0].Type)
	assert.Equal(t, actionIncrement, sink.actions[1].Type)
	assert.NotEmpty(t, sink.actions[1].ID)
	assert.False(t, sink.actions[1].Timestamp.IsZero())
}

func TestSinkErrorsAreJoinedAndReported(t *testing.T) {
	errA := errors.New("sink a down")
	errB := errors.New("sink b down")
	store := New(testReducer,
		WithSink[testState](failingSink{err: errA}),
		WithSink[testState](failingSink{err: errB}),
	)
	ctx := context.Background()

	renders := 0
	store.Subscribe(func(testState) { renders++ })

	err := store.Init(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)

	state, ok := store.State()
	require.True(t, ok, "transition applies even when sinks fail")
	assert.Equal(t, 0, state.Count)
	assert.Equal(t, 1, renders, "render still runs when sinks fail")
}

type countingRecorder struct {
	dispatches  int
	durations   int
	sinkErrors  int
	subscribers int
}

func (r *countingRecorder) IncDispatch(string)                            { r.dispatches++ }
func (r *countingRecorder) ObserveDispatchDuration(string, time.Duration) { r.durations++ }
func (r *countingRecorder) IncSinkError(string)                           { r.sinkErrors++ }
func (r *countingRecorder) SetSubscribers(n int)                          { r.subscribers = n }

func TestRecorderHooks(t *testing.T) {
	rec := &countingRecorder{}
	store := New(testReducer,
		WithRecorder[testState](rec),
		WithSink[testState](failingSink{err: errors.New("down")}),
	)
	ctx := context.Background()

	unsubscribe := store.Subscribe(func(testState) {})
	assert.Equal(t, 1, rec.subscribers)

	_ = store.Init(ctx)
	_ = store.Dispatch(ctx, NewAction(actionIncrement, nil))

	assert.Equal(t, 2, rec.dispatches)
	assert.Equal(t, 2, rec.durations)
	assert.Equal(t, 2, rec.sinkErrors)

	unsubscribe()
	assert.Equal(t, 0, rec.subscribers)
}
