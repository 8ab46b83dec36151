package bus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/reflux"
)

// Publisher forwards every dispatched action onto a NATS subject. It
// implements reflux.Sink. Actions are fire-and-forget; core NATS
// publish is enough and no stream has to exist on the server.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// NewPublisher connects to NATS and returns a publishing sink.
func NewPublisher(url, subject string) (*Publisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	slog.Info("Action bus publisher connected", "url", url, "subject", subject)

	return &Publisher{conn: conn, subject: subject}, nil
}

// Record publishes one dispatched action.
func (p *Publisher) Record(_ context.Context, act reflux.Action) error {
	data, err := EncodeAction(act)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish action %s: %w", act.Type, err)
	}

	slog.Debug("Published action", "type", act.Type, "id", act.ID)
	return nil
}

// Close closes the NATS connection.
func (p *Publisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}
