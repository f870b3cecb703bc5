package events

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/vinayprograms/agentkit/logging"
)

// NATSPublisher forwards lifecycle events to a NATS subject so other
// processes can observe delegated runs. Publish failures are logged
// and dropped; event delivery must never fail a run.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	logger  *logging.Logger
}

// NewNATSPublisher connects to the given server URL. Subject is the
// base subject; the event kind is appended (e.g. "delegate.events.started").
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("delegate"))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &NATSPublisher{
		conn:    conn,
		subject: subject,
		logger:  logging.New().WithComponent("events"),
	}, nil
}

func (p *NATSPublisher) Emit(e Envelope) {
	data, err := json.Marshal(e)
	if err != nil {
		p.logger.Warn("event marshal failed", map[string]interface{}{
			"kind":  e.Kind,
			"error": err.Error(),
		})
		return
	}
	subject := p.subject + "." + e.Kind
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Warn("event publish failed", map[string]interface{}{
			"subject": subject,
			"error":   err.Error(),
		})
	}
}

// Close flushes pending publishes and closes the connection.
func (p *NATSPublisher) Close() {
	if p.conn != nil {
		if err := p.conn.Drain(); err != nil {
			p.conn.Close()
		}
	}
}
