// Package presence relays session envelopes across hub instances when the
// hub is horizontally scaled out. It is an optional extension point: with no
// Redis URL configured, Bus.Publish is a no-op and every hub instance is an
// island, which is fine for a single-instance deployment.
package presence

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const channel = "chathub:cluster"

// Delivery is what crosses the wire between hub instances: an already
// encoded envelope and its target. TargetUserID == uuid.Nil means broadcast
// to every session any instance holds locally.
type Delivery struct {
	TargetUserID uuid.UUID       `json:"target_user_id"`
	Envelope     json.RawMessage `json:"envelope"`
}

// Bus publishes local deliveries to every other hub instance and relays
// deliveries originating elsewhere back to a local dispatch function.
type Bus struct {
	rdb *redis.Client
}

// NewBus returns nil, nil when url is empty — callers should treat a nil
// *Bus as "cross-instance relay disabled" rather than special-casing it.
func NewBus(url string) (*Bus, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &Bus{rdb: redis.NewClient(opts)}, nil
}

func (b *Bus) Publish(ctx context.Context, targetUserID uuid.UUID, envelope []byte) {
	if b == nil {
		return
	}
	payload, err := json.Marshal(Delivery{TargetUserID: targetUserID, Envelope: envelope})
	if err != nil {
		log.Printf("presence: marshal delivery: %v", err)
		return
	}
	if err := b.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		log.Printf("presence: publish: %v", err)
	}
}

// Subscribe runs until ctx is cancelled, invoking dispatch for every
// delivery received from another instance.
func (b *Bus) Subscribe(ctx context.Context, dispatch func(Delivery)) {
	if b == nil {
		return
	}
	sub := b.rdb.Subscribe(ctx, channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var d Delivery
			if err := json.Unmarshal([]byte(msg.Payload), &d); err != nil {
				log.Printf("presence: unmarshal delivery: %v", err)
				continue
			}
			dispatch(d)
		}
	}
}

func (b *Bus) Close() error {
	if b == nil {
		return nil
	}
	return b.rdb.Close()
}
