package reflux

// Reducer computes the next state from the previous state and an
// action. prev is nil exactly once, on the very first dispatch; the
// reducer must substitute its own default state in that case (never
// the caller). A reducer must be pure: it returns a fresh value and
// never mutates *prev. Unrecognized action types are not errors; the
// reducer returns the previous state unchanged (or the default, if
// prev was nil).
type Reducer[S any] func(prev *S, act Action) S
