package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/heartline/heartline/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const subscriptionBuffer = 100

// envelope is what travels on a Redis channel
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// RedisMessageBroker implements MessageBroker using Redis pub/sub
type RedisMessageBroker struct {
	client *redis.Client
}

func NewRedisMessageBroker(redisURL string) (*RedisMessageBroker, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return &RedisMessageBroker{client: client}, nil
}

// Client exposes the underlying connection for presence and rate limiting
func (r *RedisMessageBroker) Client() *redis.Client {
	return r.client
}

func (r *RedisMessageBroker) Publish(ctx context.Context, channel, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event, err)
	}

	raw, err := json.Marshal(envelope{Event: event, Data: data})
	if err != nil {
		return err
	}

	return r.client.Publish(ctx, channel, raw).Err()
}

// Subscribe returns once Redis has confirmed the subscription, so events
// published afterwards are guaranteed to be delivered.
func (r *RedisMessageBroker) Subscribe(ctx context.Context, channels ...string) (Subscription, error) {
	pubsub := r.client.Subscribe(ctx, channels...)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, err
	}

	sub := &redisSubscription{
		pubsub: pubsub,
		events: make(chan Event, subscriptionBuffer),
	}
	go sub.pump()

	return sub, nil
}

func (r *RedisMessageBroker) Close() error {
	return r.client.Close()
}

type redisSubscription struct {
	pubsub *redis.PubSub
	events chan Event
}

func (s *redisSubscription) pump() {
	defer close(s.events)

	for redisMsg := range s.pubsub.Channel() {
		var env envelope
		if err := json.Unmarshal([]byte(redisMsg.Payload), &env); err != nil {
			logger.Log.Warn("Dropping malformed broker payload",
				zap.String("channel", redisMsg.Channel),
				zap.Error(err),
			)
			continue
		}

		s.events <- Event{
			Channel: redisMsg.Channel,
			Event:   env.Event,
			Data:    env.Data,
		}
	}
}

func (s *redisSubscription) Events() <-chan Event {
	return s.events
}

func (s *redisSubscription) Close() error {
	return s.pubsub.Close()
}
