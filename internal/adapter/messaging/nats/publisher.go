package nats

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kehillahub/gemach-directory/internal/directory/domain"
)

// Publisher emits listing lifecycle events. The wire payload wraps the
// domain event with the subject and emission time so consumers can
// replay it without NATS metadata.
type Publisher struct {
	conn *nats.Conn
}

type eventEnvelope struct {
	Subject   string    `json:"subject"`
	EmittedAt time.Time `json:"emitted_at"`
	domain.ListingEvent
}

func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: conn}, nil
}

func (p *Publisher) Publish(_ context.Context, subject string, event domain.ListingEvent) error {
	data, err := json.Marshal(eventEnvelope{
		Subject:      subject,
		EmittedAt:    time.Now().UTC(),
		ListingEvent: event,
	})
	if err != nil {
		return err
	}
	return p.conn.Publish(subject, data)
}

func (p *Publisher) Close() {
	p.conn.Close()
}
