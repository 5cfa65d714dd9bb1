package realtime

import "encoding/json"

// Frame types sent by clients over the WebSocket gateway
const (
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
)

// Gateway system events, sent without a channel
const (
	EventConnectionEstablished = "connection_established"
	EventSubscriptionError     = "subscription_error"
)

// EventSubscribed confirms a non-presence subscription on its own channel.
// Presence channels confirm with EventSubscriptionSucceeded instead.
const EventSubscribed = "subscription_succeeded"

// ClientFrame is a subscribe or unsubscribe request
type ClientFrame struct {
	Type        string `json:"type"`
	Channel     string `json:"channel"`
	Auth        string `json:"auth,omitempty"`
	ChannelData string `json:"channel_data,omitempty"`
}

// ServerFrame carries one event to the client
type ServerFrame struct {
	Channel string          `json:"channel,omitempty"`
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type ConnectionEstablished struct {
	SocketID string `json:"socket_id"`
}

type SubscriptionError struct {
	Channel string `json:"channel"`
	Error   string `json:"error"`
}
