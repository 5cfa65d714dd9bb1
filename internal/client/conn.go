package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/heartline/heartline/internal/realtime"
	"github.com/heartline/heartline/pkg/logger"
	"go.uber.org/zap"
)

const (
	writeWait     = 10 * time.Second
	handshakeWait = 10 * time.Second
	authTimeout   = 10 * time.Second
)

var ErrClosed = errors.New("connection closed")

// Authorizer obtains the signature needed to join private and presence channels
type Authorizer interface {
	Authorize(ctx context.Context, socketID, channel string) (*realtime.ChannelAuth, error)
}

// Conn is a gateway connection. It implements Subscriber.
type Conn struct {
	ws       *websocket.Conn
	socketID string
	auth     Authorizer

	writeMu sync.Mutex

	mu       sync.Mutex
	channels map[string]*bindings

	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to the gateway and waits for the socket id
func Dial(ctx context.Context, url string, header http.Header, auth Authorizer) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("dial gateway: %w", err)
	}

	ws.SetReadDeadline(time.Now().Add(handshakeWait))
	var hello realtime.ServerFrame
	if err := ws.ReadJSON(&hello); err != nil {
		ws.Close()
		return nil, fmt.Errorf("read handshake: %w", err)
	}
	if hello.Event != realtime.EventConnectionEstablished {
		ws.Close()
		return nil, fmt.Errorf("unexpected handshake event %q", hello.Event)
	}
	var established realtime.ConnectionEstablished
	if err := json.Unmarshal(hello.Data, &established); err != nil {
		ws.Close()
		return nil, fmt.Errorf("decode handshake: %w", err)
	}
	ws.SetReadDeadline(time.Time{})

	c := &Conn{
		ws:       ws,
		socketID: established.SocketID,
		auth:     auth,
		channels: map[string]*bindings{},
		done:     make(chan struct{}),
	}
	go c.readLoop()

	return c, nil
}

func (c *Conn) SocketID() string {
	return c.socketID
}

// Done is closed when the connection drops
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Subscribe joins channel, signing the request first when the channel needs
// it. Subscribing twice returns the existing handle.
func (c *Conn) Subscribe(channel string) (Channel, error) {
	c.mu.Lock()
	if ch, ok := c.channels[channel]; ok {
		c.mu.Unlock()
		return ch, nil
	}
	ch := newBindings(channel)
	c.channels[channel] = ch
	c.mu.Unlock()

	frame := realtime.ClientFrame{Type: realtime.FrameSubscribe, Channel: channel}
	if realtime.RequiresAuth(channel) {
		if c.auth == nil {
			c.forget(channel)
			return nil, fmt.Errorf("subscribe %s: no authorizer", channel)
		}
		ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
		auth, err := c.auth.Authorize(ctx, c.socketID, channel)
		cancel()
		if err != nil {
			c.forget(channel)
			return nil, fmt.Errorf("authorize %s: %w", channel, err)
		}
		frame.Auth = auth.Auth
		frame.ChannelData = auth.ChannelData
	}

	if err := c.write(frame); err != nil {
		c.forget(channel)
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}
	return ch, nil
}

// Unsubscribe leaves channel and drops its handlers
func (c *Conn) Unsubscribe(channel string) {
	if !c.forget(channel) {
		return
	}
	if err := c.write(realtime.ClientFrame{Type: realtime.FrameUnsubscribe, Channel: channel}); err != nil {
		logger.Log.Debug("Unsubscribe not sent", zap.String("channel", channel), zap.Error(err))
	}
}

func (c *Conn) Close() error {
	c.writeMu.Lock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()

	c.closeOnce.Do(func() { close(c.done) })
	return c.ws.Close()
}

func (c *Conn) forget(channel string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.channels[channel]
	delete(c.channels, channel)
	return ok
}

func (c *Conn) write(frame realtime.ClientFrame) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(frame)
}

func (c *Conn) readLoop() {
	defer c.closeOnce.Do(func() { close(c.done) })

	for {
		var frame realtime.ServerFrame
		if err := c.ws.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Log.Warn("Gateway connection lost", zap.Error(err))
			}
			return
		}

		if frame.Event == realtime.EventSubscriptionError {
			var subErr realtime.SubscriptionError
			_ = json.Unmarshal(frame.Data, &subErr)
			logger.Log.Warn("Subscription rejected",
				zap.String("channel", subErr.Channel),
				zap.String("error", subErr.Error),
			)
			// the owner of the handle learns it is no longer subscribed
			c.mu.Lock()
			ch := c.channels[subErr.Channel]
			delete(c.channels, subErr.Channel)
			c.mu.Unlock()
			if ch != nil {
				ch.dispatch(realtime.EventSubscriptionError, frame.Data)
			}
			continue
		}

		c.mu.Lock()
		ch := c.channels[frame.Channel]
		c.mu.Unlock()
		if ch != nil {
			ch.dispatch(frame.Event, frame.Data)
		}
	}
}
