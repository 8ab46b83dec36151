package reflux

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Sink receives every dispatched action after the reducer has run.
// Implementations persist or forward actions (journal, bus). A sink
// error does not roll back the state transition; Dispatch reports it
// to the caller after all sinks and subscribers have been notified.
type Sink interface {
	Record(ctx context.Context, act Action) error
}

// Recorder receives observability hooks from the store. Implementations
// must be safe for nil receivers so injection stays optional.
type Recorder interface {
	IncDispatch(actionType string)
	ObserveDispatchDuration(actionType string, d time.Duration)
	IncSinkError(actionType string)
	SetSubscribers(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics
// are not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncDispatch(string)                            {}
func (NoopRecorder) ObserveDispatchDuration(string, time.Duration) {}
func (NoopRecorder) IncSinkError(string)                           {}
func (NoopRecorder) SetSubscribers(int)                            {}

// Option configures a Store.
type Option[S any] func(*Store[S])

// WithSink attaches a sink that records every dispatched action.
func WithSink[S any](sink Sink) Option[S] {
	return func(s *Store[S]) {
		s.sinks = append(s.sinks, sink)
	}
}

// WithRecorder attaches an observability recorder.
func WithRecorder[S any](rec Recorder) Option[S] {
	return func(s *Store[S]) {
		if rec != nil {
			s.recorder = rec
		}
	}
}

type subscription[S any] struct {
	id int
	fn SubscriberFunc[S]
}

// Store is an explicit state container: one state value, one reducer,
// any number of render subscribers. All transitions go through
// Dispatch; there is no other writer.
type Store[S any] struct {
	dispatchMu sync.Mutex // serializes dispatch end to end, including renders

	mu     sync.RWMutex // guards state and subs
	state  *S
	subs   []subscription[S]
	nextID int

	reducer  Reducer[S]
	sinks    []Sink
	recorder Recorder
}

// New creates a store for the given reducer. The store holds no state
// until the first dispatch; call Init to bootstrap via the sentinel
// initialization action.
func New[S any](reducer Reducer[S], opts ...Option[S]) *Store[S] {
	s := &Store[S]{
		reducer:  reducer,
		recorder: NoopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init performs the initial dispatch: the sentinel ActionInit flows
// through the same path as every other action, materializing the
// reducer's default state and triggering the first render.
func (s *Store[S]) Init(ctx context.Context) error {
	return s.Dispatch(ctx, InitAction())
}

// Dispatch applies the reducer to the current state and the given
// action, stores the result, records the action on every sink, and
// notifies every subscriber with the new state. Subscribers run on
// every dispatch, including identity transitions. Dispatch is
// non-reentrant: subscribers and sinks must not dispatch.
//
// The returned error only ever comes from sinks; the reduce and render
// path cannot fail.
func (s *Store[S]) Dispatch(ctx context.Context, act Action) error {
	if act.Timestamp.IsZero() {
		act.Timestamp = time.Now()
	}
	start := time.Now()

	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	next := s.reducer(s.state, act)
	s.state = &next
	subs := make([]subscription[S], len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Record(ctx, act); err != nil {
			s.recorder.IncSinkError(act.Type)
			errs = append(errs, err)
		}
	}

	for _, sub := range subs {
		sub.fn(next)
	}

	s.recorder.IncDispatch(act.Type)
	s.recorder.ObserveDispatchDuration(act.Type, time.Since(start))

	return errors.Join(errs...)
}

// State returns a snapshot of the current state. The second result is
// false before the first dispatch; state is guaranteed defined only
// after at least one dispatch.
func (s *Store[S]) State() (S, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		var zero S
		return zero, false
	}
	return *s.state, true
}

// Subscribe registers a render subscriber. Subscribers are notified in
// registration order after every state assignment. The returned
// function removes the subscription.
func (s *Store[S]) Subscribe(fn SubscriberFunc[S]) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscription[S]{id: id, fn: fn})
	n := len(s.subs)
	s.mu.Unlock()
	s.recorder.SetSubscribers(n)

	return func() {
		s.mu.Lock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				break
			}
		}
		n := len(s.subs)
		s.mu.Unlock()
		s.recorder.SetSubscribers(n)
	}
}
