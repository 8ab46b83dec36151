package reflux

import (
	"time"

	"github.com/google/uuid"
)

// ActionInit is the sentinel action type dispatched by Store.Init. It
// exists only to trigger the reducer's default-state branch and the
// first render; reducers treat it like any unrecognized type.
const ActionInit = "@@reflux/init"

// Action is a tagged description of an intended state transition.
// Type is the discriminator reducers switch on; Payload carries
// optional action data. ID and Timestamp identify the action in the
// journal and on the bus.
type Action struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewAction creates an action with a fresh ID and timestamp.
func NewAction(actionType string, payload any) Action {
	return Action{
		ID:        uuid.NewString(),
		Type:      actionType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// InitAction returns the sentinel initialization action.
func InitAction() Action {
	return NewAction(ActionInit, nil)
}
