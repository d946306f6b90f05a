package nats

import (
	"context"
	"fmt"
	"log"
	"time"

	"chathub/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// EventHandler processes one delivered domain event. A returned error Naks
// the message so JetStream redelivers it.
type EventHandler func(ctx context.Context, event events.Event) error

// Subscriber consumes domain events off the chat events stream.
type Subscriber struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// NewSubscriber opens its own NATS connection rather than sharing
// Publisher's: each durable consumer's redelivery/ack bookkeeping is
// independent of anything a publisher connection does.
func NewSubscriber(url string) (*Subscriber, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &Subscriber{nc: nc, js: js}, nil
}

// Subscribe registers handler against subject under a durable JetStream
// consumer, so a process restart resumes from its own last-acked position
// instead of replaying the whole stream or dropping messages sent while it
// was down.
func (s *Subscriber) Subscribe(subject string, durableName string, handler EventHandler) error {
	ctx := context.Background()

	consumer, err := s.js.CreateOrUpdateConsumer(ctx, chatEventsStream, jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer %s: %w", durableName, err)
	}

	_, err = consumer.Consume(func(msg jetstream.Msg) {
		event, err := events.UnmarshalEvent(msg.Data())
		if err != nil {
			log.Printf("chathub/nats: malformed event on %s: %v", msg.Subject(), err)
			msg.Nak()
			return
		}

		if err := handler(context.Background(), event); err != nil {
			log.Printf("chathub/nats: handler for %s failed: %v", event.EventType(), err)
			msg.Nak()
			return
		}

		msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to start consumer %s: %w", durableName, err)
	}

	log.Printf("chathub/nats: consumer %s subscribed to %s", durableName, subject)
	return nil
}

// Close closes the underlying NATS connection.
func (s *Subscriber) Close() {
	if s.nc != nil {
		s.nc.Close()
	}
}
