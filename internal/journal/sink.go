package journal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/reflux"
)

// Sink journals every dispatched action under a session ID. It
// implements reflux.Sink.
type Sink struct {
	journal Journal
	session string
}

// NewSink creates a journaling sink. An empty sessionID gets a fresh
// UUID so every run is replayable on its own.
func NewSink(j Journal, sessionID string) *Sink {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return &Sink{journal: j, session: sessionID}
}

// SessionID returns the session this sink journals under.
func (s *Sink) SessionID() string {
	return s.session
}

// Record journals one dispatched action.
func (s *Sink) Record(ctx context.Context, act reflux.Action) error {
	var payload []byte
	if act.Payload != nil {
		var err error
		payload, err = json.Marshal(act.Payload)
		if err != nil {
			return fmt.Errorf("marshal action payload: %w", err)
		}
	}

	metadata := map[string]string{"action_id": act.ID}
	if err := s.journal.Append(ctx, s.session, act.Type, payload, metadata); err != nil {
		return fmt.Errorf("journal action %s: %w", act.Type, err)
	}
	return nil
}
