package nats

import (
	"context"
	"fmt"
	"sync"

	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/pkg/logger"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	subscriberModule = "NatsSubscriber"
	maxDeliver       = 10
)

// EventHandler processes one decoded event. A returned error asks for redelivery.
type EventHandler func(ctx context.Context, event events.Event) error

// Subscriber consumes domain events through durable JetStream consumers.
type Subscriber struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger logger.ILogger

	mu        sync.Mutex
	consuming []jetstream.ConsumeContext
}

func NewSubscriber(url string, log logger.ILogger) (*Subscriber, error) {
	nc, js, err := connect(url)
	if err != nil {
		return nil, err
	}
	return &Subscriber{nc: nc, js: js, logger: log}, nil
}

// Subscribe binds handler to a durable consumer so events published while the service
// was down are still seen.
func (s *Subscriber) Subscribe(subject string, durableName string, handler EventHandler) error {
	ctx := context.Background()

	consumer, err := s.js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    maxDeliver,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer %s: %w", durableName, err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		s.handle(msg, handler)
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming %s: %w", subject, err)
	}

	s.mu.Lock()
	s.consuming = append(s.consuming, cc)
	s.mu.Unlock()

	s.logger.Info(subscriberModule, "Subscribed", map[string]interface{}{
		"subject": subject,
		"durable": durableName,
	})
	return nil
}

// delivery is the part of jetstream.Msg the handler needs.
type delivery interface {
	Data() []byte
	Subject() string
	Ack() error
	Nak() error
	Term() error
}

// handle terminates undecodable messages and naks handler failures.
func (s *Subscriber) handle(msg delivery, handler EventHandler) {
	event, err := Decode(msg.Data())
	if err != nil {
		s.logger.Error(subscriberModule, "Dropping undecodable event", map[string]interface{}{
			"subject": msg.Subject(),
			"error":   err.Error(),
		})
		_ = msg.Term()
		return
	}

	if err := handler(context.Background(), event); err != nil {
		s.logger.Warn(subscriberModule, "Event handler failed, requesting redelivery", map[string]interface{}{
			"subject": msg.Subject(),
			"type":    event.EventType(),
			"error":   err.Error(),
		})
		_ = msg.Nak()
		return
	}

	_ = msg.Ack()
}

// Close stops every consumer before closing the connection.
func (s *Subscriber) Close() {
	s.mu.Lock()
	for _, cc := range s.consuming {
		cc.Stop()
	}
	s.consuming = nil
	s.mu.Unlock()

	if s.nc != nil {
		s.nc.Close()
	}
}
