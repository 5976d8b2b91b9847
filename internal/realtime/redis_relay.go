package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

type relayEnvelope struct {
	Group   string          `json:"group"`
	Payload json.RawMessage `json:"payload"`
}

// RedisRelay fans pushes out across instances. Every instance subscribes to
// one channel and delivers received payloads to its local registry.
type RedisRelay struct {
	client  *redis.Client
	channel string
	local   *Registry
}

func NewRedisRelay(client *redis.Client, channel string, local *Registry) *RedisRelay {
	return &RedisRelay{client: client, channel: channel, local: local}
}

// Publish hands the payload to redis. Receivers are counted on the
// subscribing side, so the result is always DeliveryUnknown.
func (r *RedisRelay) Publish(ctx context.Context, group string, payload []byte) (int, error) {
	data, err := json.Marshal(relayEnvelope{Group: group, Payload: payload})
	if err != nil {
		return 0, err
	}
	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		return 0, fmt.Errorf("failed to publish to %s: %w", r.channel, err)
	}
	return DeliveryUnknown, nil
}

// Run subscribes to the relay channel until ctx is cancelled.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", r.channel, err)
	}
	log.Printf("relay subscribed to %s", r.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.handleMessage(msg.Payload)
		}
	}
}

func (r *RedisRelay) handleMessage(raw string) int {
	var env relayEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		log.Printf("discarding malformed relay message: %v", err)
		return 0
	}
	return r.local.Deliver(env.Group, env.Payload)
}
