package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"inboxhub/internal/shared"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DeliveryChannel is the Redis pub/sub channel shared by all API instances.
const DeliveryChannel = "inbox:deliveries"

// LocalPublisher hands events straight to the hub of this process. Used when
// Redis is not configured, so only a single instance can push.
type LocalPublisher struct {
	hub *Hub
}

func NewLocalPublisher(hub *Hub) *LocalPublisher {
	return &LocalPublisher{hub: hub}
}

func (p *LocalPublisher) Publish(_ context.Context, events []shared.DeliveryEvent) error {
	p.hub.Deliver(events)
	return nil
}

// RedisBroker publishes delivery events on a Redis channel and, through Run,
// feeds every event received on it to the local hub.
type RedisBroker struct {
	client  *redis.Client
	hub     *Hub
	logger  logrus.FieldLogger
	channel string
}

func NewRedisBroker(client *redis.Client, hub *Hub, logger logrus.FieldLogger) *RedisBroker {
	return &RedisBroker{
		client:  client,
		hub:     hub,
		logger:  logger,
		channel: DeliveryChannel,
	}
}

// Publish sends one message per event in a single pipeline round trip.
func (b *RedisBroker) Publish(ctx context.Context, events []shared.DeliveryEvent) error {
	if len(events) == 0 {
		return nil
	}
	pipe := b.client.Pipeline()
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("encode delivery event: %w", err)
		}
		pipe.Publish(ctx, b.channel, payload)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish %d delivery events: %w", len(events), err)
	}
	return nil
}

// Run subscribes to the delivery channel and blocks until ctx is done or
// the subscription fails.
func (b *RedisBroker) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	// wait for the subscription to be confirmed
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	b.logger.WithField("channel", b.channel).Info("delivery_broker_subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("subscription to %s closed", b.channel)
			}
			event, err := EventFromJSON([]byte(msg.Payload))
			if err != nil {
				b.logger.WithError(err).Warn("delivery_event_decode_failed")
				continue
			}
			b.hub.Deliver([]shared.DeliveryEvent{*event})
		}
	}
}
