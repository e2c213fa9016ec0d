package nats

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/pkg/events"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	StreamName    = "EVENTS"
	subjectPrefix = "events."
)

// Publisher handles sending events to the NATS bus.
type Publisher struct {
	nc *nats.Conn
	js jetstream.JetStream
}

func connect(url string) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}
	return nc, js, nil
}

// NewPublisher connects and makes sure the EVENTS stream exists.
func NewPublisher(url string) (*Publisher, error) {
	nc, js, err := connect(url)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Limits retention: the in-app notifier and any other consumer each see every event.
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{subjectPrefix + ">"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
	})
	if err != nil {
		log.Printf("Warn: Failed to ensure stream '%s': %v", StreamName, err)
	}

	return &Publisher{nc: nc, js: js}, nil
}

// envelope is the wire shape; the type travels with the payload so consumers do not have
// to parse it back out of the subject.
type envelope struct {
	Type       string                 `json:"type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data"`
}

func Encode(event events.Event) ([]byte, error) {
	return json.Marshal(envelope{Type: event.EventType(), OccurredAt: event.Timestamp(), Data: event.Payload()})
}

func Decode(data []byte) (events.BaseEvent, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return events.BaseEvent{}, err
	}
	return events.BaseEvent{Type: env.Type, Data: env.Data, OccurredAt: env.OccurredAt}, nil
}

// Publish sends an event to NATS on events.<TYPE>.
func (p *Publisher) Publish(ctx context.Context, event events.Event) error {
	data, err := Encode(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	subject := subjectPrefix + event.EventType()
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish event to subject %s: %w", subject, err)
	}
	return nil
}

// Close closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
