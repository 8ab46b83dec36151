package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/reflux"
	"git.home.luguber.info/inful/reflux/internal/counter"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	act := reflux.NewAction(counter.ActionSnapshot, counter.State{Count: 5})

	data, err := EncodeAction(act)
	require.NoError(t, err)

	decoded, err := DecodeAction(data)
	require.NoError(t, err)

	assert.Equal(t, act.ID, decoded.ID)
	assert.Equal(t, act.Type, decoded.Type)
	assert.WithinDuration(t, act.Timestamp, decoded.Timestamp, time.Millisecond)
	// Payload comes back as generic JSON, keyed by the struct's tags.
	assert.Equal(t, map[string]any{"count": float64(5)}, decoded.Payload)
}

func TestEncodeOmitsNilPayload(t *testing.T) {
	data, err := EncodeAction(reflux.InitAction())
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"payload"`)

	decoded, err := DecodeAction(data)
	require.NoError(t, err)
	assert.Nil(t, decoded.Payload)
	assert.Equal(t, reflux.ActionInit, decoded.Type)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := DecodeAction([]byte("not json"))
	require.Error(t, err)
}

func TestSubscriberDispatchesDecodedActions(t *testing.T) {
	store := reflux.New(counter.Reduce)
	sub := &Subscriber{subject: "test", target: store}
	ctx := context.Background()

	initData, err := EncodeAction(reflux.InitAction())
	require.NoError(t, err)
	incData, err := EncodeAction(counter.Increment())
	require.NoError(t, err)

	require.NoError(t, sub.dispatchMessage(ctx, initData))
	require.NoError(t, sub.dispatchMessage(ctx, incData))
	require.NoError(t, sub.dispatchMessage(ctx, incData))
	require.Error(t, sub.dispatchMessage(ctx, []byte("{broken")))

	state, ok := store.State()
	require.True(t, ok)
	assert.Equal(t, counter.State{Count: 2}, state)
}

func TestNewSubscriberRequiresTarget(t *testing.T) {
	_, err := NewSubscriber("nats://127.0.0.1:4222", "test", nil)
	require.Error(t, err)
}
