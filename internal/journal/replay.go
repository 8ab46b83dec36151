package journal

import (
	"context"
	"encoding/json"
	"fmt"

	"git.home.luguber.info/inful/reflux"
)

// Replay folds a journaled session back through a reducer and returns
// the resulting state and the number of actions applied. Actions flow
// through a real store, so any given subscribers render exactly as
// they did in the original session.
func Replay[S any](ctx context.Context, j Journal, sessionID string, reducer reflux.Reducer[S], subscribers ...reflux.SubscriberFunc[S]) (S, int, error) {
	var zero S

	entries, err := j.GetBySession(ctx, sessionID)
	if err != nil {
		return zero, 0, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	if len(entries) == 0 {
		return zero, 0, fmt.Errorf("replay session %s: %w", sessionID, ErrSessionNotFound)
	}

	store := reflux.New(reducer)
	for _, sub := range subscribers {
		store.Subscribe(sub)
	}

	for _, entry := range entries {
		act := reflux.Action{
			ID:        entry.Metadata["action_id"],
			Type:      entry.Type,
			Timestamp: entry.Timestamp,
		}
		if len(entry.Payload) > 0 {
			var payload any
			if err := json.Unmarshal(entry.Payload, &payload); err != nil {
				return zero, 0, fmt.Errorf("unmarshal payload for action %d: %w", entry.ID, err)
			}
			act.Payload = payload
		}

		if err := store.Dispatch(ctx, act); err != nil {
			return zero, 0, fmt.Errorf("replay action %d: %w", entry.ID, err)
		}
	}

	state, ok := store.State()
	if !ok {
		// Unreachable: at least one action was dispatched above.
		return zero, 0, fmt.Errorf("replay session %s: no state materialized", sessionID)
	}
	return state, len(entries), nil
}
