package broker

import (
	"context"
	"encoding/json"
)

// Event is a message delivered on a channel
type Event struct {
	Channel string          `json:"channel"`
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data"`
}

// Publisher is the server-side half of the broker. Services only need this.
type Publisher interface {
	Publish(ctx context.Context, channel, event string, payload any) error
}

// Subscription streams events of the channels it was opened for
type Subscription interface {
	Events() <-chan Event
	Close() error
}

// MessageBroker is the notification side-channel. It never holds
// authoritative state: the database is the source of truth.
type MessageBroker interface {
	Publisher
	Subscribe(ctx context.Context, channels ...string) (Subscription, error)
	Close() error
}
