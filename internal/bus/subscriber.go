package bus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/reflux"
)

// Dispatcher is the store-side surface the subscriber feeds into.
type Dispatcher interface {
	Dispatch(ctx context.Context, act reflux.Action) error
}

// Subscriber listens on a NATS subject and dispatches received actions
// into a local store. Decode or dispatch failures are logged, never
// fatal: a malformed remote action must not take the daemon down.
type Subscriber struct {
	conn    *nats.Conn
	sub     *nats.Subscription
	subject string
	target  Dispatcher
}

// NewSubscriber connects to NATS; call Start to begin dispatching.
func NewSubscriber(url, subject string, target Dispatcher) (*Subscriber, error) {
	if target == nil {
		return nil, fmt.Errorf("subscriber requires a dispatch target")
	}

	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &Subscriber{conn: conn, subject: subject, target: target}, nil
}

// Start subscribes and dispatches incoming actions until Close.
func (s *Subscriber) Start(ctx context.Context) error {
	sub, err := s.conn.Subscribe(s.subject, func(msg *nats.Msg) {
		if err := s.dispatchMessage(ctx, msg.Data); err != nil {
			slog.Error("Failed to dispatch bus action", "subject", s.subject, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", s.subject, err)
	}

	s.sub = sub
	slog.Info("Action bus subscriber started", "subject", s.subject)
	return nil
}

// dispatchMessage decodes one wire message and dispatches it.
func (s *Subscriber) dispatchMessage(ctx context.Context, data []byte) error {
	act, err := DecodeAction(data)
	if err != nil {
		return err
	}
	return s.target.Dispatch(ctx, act)
}

// Close drains the subscription and closes the connection.
func (s *Subscriber) Close() error {
	if s.sub != nil {
		if err := s.sub.Unsubscribe(); err != nil {
			slog.Warn("Failed to unsubscribe from action bus", "error", err)
		}
	}
	if s.conn != nil {
		s.conn.Close()
	}
	return nil
}
