// Package counter is the reference reducer domain: a single
// monotonically incremented count.
package counter

import (
	"strconv"

	"git.home.luguber.info/inful/reflux"
)

// ActionIncrement increments the count by one. Every other action type
// (including the init sentinel) is an identity transition.
const ActionIncrement = "counter/increment"

// ActionSnapshot is an identity action carrying the current state as
// payload. The daemon dispatches it on a schedule so journaled
// sessions contain periodic checkpoints.
const ActionSnapshot = "counter/snapshot"

// State holds the counter value. Count starts at zero and never
// decreases.
type State struct {
	Count int `json:"count"`
}

// DefaultState is the state materialized by the first dispatch.
func DefaultState() State {
	return State{}
}

// Reduce is the counter reducer. A nil prev means no dispatch has
// happened yet; the default state is substituted here, never by the
// caller.
func Reduce(prev *State, act reflux.Action) State {
	if prev == nil {
		def := DefaultState()
		prev = &def
	}
	switch act.Type {
	case ActionIncrement:
		return State{Count: prev.Count + 1}
	default:
		return *prev
	}
}

// Increment returns a fresh increment action.
func Increment() reflux.Action {
	return reflux.NewAction(ActionIncrement, nil)
}

// Snapshot returns a checkpoint action carrying the given state.
func Snapshot(state State) reflux.Action {
	return reflux.NewAction(ActionSnapshot, state)
}

// Render projects the state as text, for WriterSubscriber.
func Render(state State) string {
	return strconv.Itoa(state.Count)
}
