package reflux

import (
	"fmt"
	"io"
	"log/slog"
)

// SubscriberFunc projects the current state onto a display surface.
// It is called with the new state after every dispatch and must not
// dispatch itself.
type SubscriberFunc[S any] func(state S)

// WriterSubscriber renders state as a line of text on w using the
// given projection. Write errors are ignored; rendering is a
// best-effort side effect.
func WriterSubscriber[S any](w io.Writer, project func(S) string) SubscriberFunc[S] {
	return func(state S) {
		_, _ = fmt.Fprintln(w, project(state))
	}
}

// SlogSubscriber renders state as a structured log record.
func SlogSubscriber[S any](logger *slog.Logger, msg string) SubscriberFunc[S] {
	if logger == nil {
		logger = slog.Default()
	}
	return func(state S) {
		logger.Info(msg, "state", state)
	}
}
