package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/heartline/heartline/internal/broker"
	"github.com/heartline/heartline/internal/middleware"
	"github.com/heartline/heartline/internal/realtime"
	"github.com/heartline/heartline/pkg/logger"
	"go.uber.org/zap"
)

const (
	maxSessionLifetime = 15 * time.Minute
	writeWait          = 10 * time.Second // Time allowed to write a message to the peer
	pongWait           = 60 * time.Second
	pingPeriod         = (pongWait * 9) / 10 // 54 seconds
	maxMessageSize     = 16 * 1024           // client frames are tiny
)

var errNotParticipant = errors.New("not a participant of this conversation")

// WebSocketHandler is the realtime gateway. Each socket subscribes to
// broker channels on behalf of one signed-in user and receives their events
// as {channel, event, data} frames.
type WebSocketHandler struct {
	broker   broker.MessageBroker
	presence *broker.PresenceRegistry
	signer   *realtime.Signer
	clients  map[*websocket.Conn]*Client
	mu       sync.RWMutex
}

type Client struct {
	conn        *websocket.Conn
	socketID    string
	userID      string
	connectedAt time.Time

	writeMu sync.Mutex

	subsMu sync.Mutex
	subs   map[string]broker.Subscription
	online bool // joined the presence channel
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS already restricts the browser origins
	},
}

func NewWebSocketHandler(
	messageBroker broker.MessageBroker,
	presence *broker.PresenceRegistry,
	signer *realtime.Signer,
) *WebSocketHandler {
	return &WebSocketHandler{
		broker:   messageBroker,
		presence: presence,
		signer:   signer,
		clients:  make(map[*websocket.Conn]*Client),
	}
}

// GET /api/ws
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	// Get claims from context (set by AuthMiddleware)
	claims, err := middleware.CurrentUser(c)
	if err != nil {
		respondError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.Warn("Failed to upgrade connection", zap.Error(err))
		return
	}

	client := &Client{
		conn:        conn,
		socketID:    uuid.NewString(),
		userID:      claims.UserID,
		connectedAt: time.Now(),
		subs:        make(map[string]broker.Subscription),
	}

	h.mu.Lock()
	h.clients[conn] = client
	total := len(h.clients)
	h.mu.Unlock()

	logger.Log.Info("Client connected",
		zap.String("user_id", client.userID),
		zap.String("socket_id", client.socketID),
		zap.Int("total", total),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		h.removeClient(client)
	}()

	if err := h.sendSystem(client, realtime.EventConnectionEstablished, realtime.ConnectionEstablished{
		SocketID: client.socketID,
	}); err != nil {
		return
	}

	h.handleClient(ctx, client)
}

// ConnectedClients returns the number of open sockets on this node
func (h *WebSocketHandler) ConnectedClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// handleClient reads subscribe/unsubscribe frames until the socket closes
func (h *WebSocketHandler) handleClient(ctx context.Context, client *Client) {
	client.conn.SetReadLimit(maxMessageSize)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	sessionTimer := time.AfterFunc(maxSessionLifetime, func() {
		logger.Log.Info("Session expired", zap.String("user_id", client.userID))
		h.closeClientGracefully(client, "session expired after 15 minutes")
	})
	defer sessionTimer.Stop()

	done := make(chan struct{})
	defer close(done)

	go h.pingClient(client, ticker, done)

	for {
		var frame realtime.ClientFrame
		if err := client.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Log.Warn("WebSocket error", zap.String("user_id", client.userID), zap.Error(err))
			}
			return
		}

		switch frame.Type {
		case realtime.FrameSubscribe:
			if err := h.subscribe(ctx, client, frame); err != nil {
				logger.Log.Warn("Subscription rejected",
					zap.String("user_id", client.userID),
					zap.String("channel", frame.Channel),
					zap.Error(err),
				)
				h.sendSystem(client, realtime.EventSubscriptionError, realtime.SubscriptionError{
					Channel: frame.Channel,
					Error:   err.Error(),
				})
			}

		case realtime.FrameUnsubscribe:
			h.unsubscribe(ctx, client, frame.Channel)

		default:
			h.sendSystem(client, realtime.EventSubscriptionError, realtime.SubscriptionError{
				Channel: frame.Channel,
				Error:   "unknown frame type",
			})
		}
	}
}

// authorizeFrame checks the right to join a channel. Conversation channels
// are open to their two participants; private and presence channels need a
// signature from the auth endpoint for this very socket.
func (h *WebSocketHandler) authorizeFrame(client *Client, frame realtime.ClientFrame) error {
	if !realtime.RequiresAuth(frame.Channel) {
		if !realtime.IsParticipant(frame.Channel, client.userID) {
			return errNotParticipant
		}
		return nil
	}

	member, err := h.signer.Verify(client.socketID, frame.Channel, realtime.ChannelAuth{
		Auth:        frame.Auth,
		ChannelData: frame.ChannelData,
	})
	if err != nil {
		return err
	}

	if realtime.IsPrivate(frame.Channel) && frame.Channel != realtime.PersonalChannel(client.userID) {
		return realtime.ErrChannelForbidden
	}
	if realtime.IsPresence(frame.Channel) && (member == nil || member.UserID != client.userID) {
		return realtime.ErrChannelForbidden
	}
	return nil
}

func (h *WebSocketHandler) subscribe(ctx context.Context, client *Client, frame realtime.ClientFrame) error {
	if err := h.authorizeFrame(client, frame); err != nil {
		return err
	}

	client.subsMu.Lock()
	_, exists := client.subs[frame.Channel]
	client.subsMu.Unlock()
	if exists {
		return nil
	}

	sub, err := h.broker.Subscribe(ctx, frame.Channel)
	if err != nil {
		return err
	}

	client.subsMu.Lock()
	client.subs[frame.Channel] = sub
	client.subsMu.Unlock()

	go h.forward(client, sub)

	if realtime.IsPresence(frame.Channel) {
		return h.joinPresence(ctx, client, frame.Channel)
	}

	h.send(client, realtime.ServerFrame{Channel: frame.Channel, Event: realtime.EventSubscribed})
	return nil
}

// joinPresence registers the connection, announces the user when this is
// their first connection and sends the current roster to this socket only.
func (h *WebSocketHandler) joinPresence(ctx context.Context, client *Client, channel string) error {
	first, err := h.presence.Join(ctx, client.userID)
	if err != nil {
		return err
	}

	client.subsMu.Lock()
	client.online = true
	client.subsMu.Unlock()

	if first {
		if err := h.broker.Publish(ctx, channel, realtime.EventMemberAdded, client.userID); err != nil {
			logger.Log.Warn("Presence announce failed", zap.String("user_id", client.userID), zap.Error(err))
		}
	}

	members, err := h.presence.Members(ctx)
	if err != nil {
		return err
	}

	data, err := json.Marshal(members)
	if err != nil {
		return err
	}
	h.send(client, realtime.ServerFrame{
		Channel: channel,
		Event:   realtime.EventSubscriptionSucceeded,
		Data:    data,
	})
	return nil
}

func (h *WebSocketHandler) unsubscribe(ctx context.Context, client *Client, channel string) {
	client.subsMu.Lock()
	sub, ok := client.subs[channel]
	delete(client.subs, channel)
	leave := ok && realtime.IsPresence(channel) && client.online
	if leave {
		client.online = false
	}
	client.subsMu.Unlock()

	if !ok {
		return
	}
	sub.Close()

	if leave {
		h.leavePresence(ctx, client.userID)
	}
}

func (h *WebSocketHandler) leavePresence(ctx context.Context, userID string) {
	last, err := h.presence.Leave(ctx, userID)
	if err != nil {
		logger.Log.Warn("Presence leave failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if !last {
		return
	}
	if err := h.broker.Publish(ctx, realtime.PresenceChannel, realtime.EventMemberRemoved, userID); err != nil {
		logger.Log.Warn("Presence announce failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// forward copies broker events to the socket until the subscription closes
func (h *WebSocketHandler) forward(client *Client, sub broker.Subscription) {
	for ev := range sub.Events() {
		h.send(client, realtime.ServerFrame{
			Channel: ev.Channel,
			Event:   ev.Event,
			Data:    ev.Data,
		})
	}
}

func (h *WebSocketHandler) send(client *Client, frame realtime.ServerFrame) error {
	client.writeMu.Lock()
	defer client.writeMu.Unlock()

	client.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := client.conn.WriteJSON(frame); err != nil {
		logger.Log.Debug("Failed to send frame",
			zap.String("socket_id", client.socketID),
			zap.String("event", frame.Event),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (h *WebSocketHandler) sendSystem(client *Client, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return h.send(client, realtime.ServerFrame{Event: event, Data: data})
}

func (h *WebSocketHandler) pingClient(client *Client, ticker *time.Ticker, done <-chan struct{}) {
	for {
		select {
		case <-ticker.C:
			client.writeMu.Lock()
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := client.conn.WriteMessage(websocket.PingMessage, nil)
			client.writeMu.Unlock()
			if err != nil {
				logger.Log.Debug("Ping failed", zap.String("user_id", client.userID), zap.Error(err))
				return
			}

		case <-done:
			// handleClient exited, stop pinging
			return
		}
	}
}

func (h *WebSocketHandler) closeClientGracefully(client *Client, reason string) {
	client.writeMu.Lock()
	defer client.writeMu.Unlock()

	// Send WebSocket close frame; the read loop ends when the peer answers
	client.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := client.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason),
	); err != nil {
		logger.Log.Debug("Failed to send close frame", zap.Error(err))
	}
}

// removeClient closes every subscription and leaves presence. It runs with a
// fresh context because the connection context is already cancelled.
func (h *WebSocketHandler) removeClient(client *Client) {
	client.subsMu.Lock()
	subs := client.subs
	client.subs = map[string]broker.Subscription{}
	online := client.online
	client.online = false
	client.subsMu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}

	if online {
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		h.leavePresence(ctx, client.userID)
		cancel()
	}

	client.conn.Close()

	h.mu.Lock()
	delete(h.clients, client.conn)
	remaining := len(h.clients)
	h.mu.Unlock()

	logger.Log.Info("Client disconnected",
		zap.String("user_id", client.userID),
		zap.Duration("session", time.Since(client.connectedAt).Round(time.Second)),
		zap.Int("remaining", remaining),
	)
}
