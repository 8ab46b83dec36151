// Package bus publishes dispatched actions on NATS and dispatches
// actions received from remote publishers into a local store.
package bus

import (
	"encoding/json"
	"fmt"
	"time"

	"git.home.luguber.info/inful/reflux"
)

// Envelope is the wire form of an action on the bus.
type Envelope struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// EncodeAction marshals an action into its wire form.
func EncodeAction(act reflux.Action) ([]byte, error) {
	env := Envelope{
		ID:        act.ID,
		Type:      act.Type,
		Timestamp: act.Timestamp,
	}
	if act.Payload != nil {
		payload, err := json.Marshal(act.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal action payload: %w", err)
		}
		env.Payload = payload
	}

	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return data, nil
}

// DecodeAction unmarshals a wire envelope back into an action. The
// payload stays generic (any JSON value); reducers discriminate on the
// type tag, not the payload shape.
func DecodeAction(data []byte) (reflux.Action, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return reflux.Action{}, fmt.Errorf("unmarshal envelope: %w", err)
	}

	act := reflux.Action{
		ID:        env.ID,
		Type:      env.Type,
		Timestamp: env.Timestamp,
	}
	if len(env.Payload) > 0 {
		var payload any
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return reflux.Action{}, fmt.Errorf("unmarshal payload: %w", err)
		}
		act.Payload = payload
	}
	return act, nil
}
