// Package reflux is a minimal reducer-based state container.
//
// A Store holds a single application state value and exposes one entry
// point, Dispatch. Every dispatch runs a pure Reducer over the current
// state and the given Action, stores the result, and notifies every
// subscriber with the new state. Subscribers are the render surface:
// they are re-run in full on every dispatch, whether or not the state
// changed.
//
// State is materialized lazily by the first dispatch. Store.Init
// dispatches a sentinel action (ActionInit) through the exact same code
// path as every later transition; the reducer sees a nil previous state
// on that first call and substitutes its default. There is no separate
// initialization branch anywhere else, and reading state before the
// first dispatch is unsupported (State reports false until then).
//
// Basic usage:
//
//	type Counter struct{ Count int }
//
//	reduce := func(prev *Counter, act reflux.Action) Counter {
//		if prev == nil {
//			prev = &Counter{}
//		}
//		switch act.Type {
//		case "counter/increment":
//			return Counter{Count: prev.Count + 1}
//		default:
//			return *prev
//		}
//	}
//
//	store := reflux.New(reduce)
//	store.Subscribe(reflux.WriterSubscriber[Counter](os.Stdout, func(s Counter) string {
//		return strconv.Itoa(s.Count)
//	}))
//	_ = store.Init(ctx)
//	_ = store.Dispatch(ctx, reflux.NewAction("counter/increment", nil))
//
// Durable journaling, an action bus, and metrics live in internal
// packages and attach to a Store through the Sink and Recorder hooks.
package reflux
