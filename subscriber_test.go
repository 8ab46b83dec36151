package reflux

import (
	"bytes"
	"context"
	"log/slog"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterSubscriberRendersProjection(t *testing.T) {
	var buf bytes.Buffer
	store := New(testReducer)
	store.Subscribe(WriterSubscriber[testState](&buf, func(s testState) string {
		return strconv.Itoa(s.Count)
	}))
	ctx := context.Background()

	require.NoError(t, store.Init(ctx))
	require.NoError(t, store.Dispatch(ctx, NewAction(actionIncrement, nil)))
	require.NoError(t, store.Dispatch(ctx, NewAction(actionIncrement, nil)))
	require.NoError(t, store.Dispatch(ctx, NewAction("test/unknown", nil)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{"0", "1", "2", "2"}, lines)
}

func TestSlogSubscriberLogsState(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	store := New(testReducer)
	store.Subscribe(SlogSubscriber[testState](logger, "state changed"))

	require.NoError(t, store.Init(context.Background()))

	out := buf.String()
	assert.Contains(t, out, "state changed")
	assert.Contains(t, out, "Count:0")
}

func TestSlogSubscriberNilLoggerFallsBackToDefault(t *testing.T) {
	sub := SlogSubscriber[testState](nil, "render")
	// Must not panic when invoked.
	sub(testState{Count: 1})
}
