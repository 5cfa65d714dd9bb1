package client

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/heartline/heartline/internal/realtime"
	"github.com/heartline/heartline/pkg/logger"
	"go.uber.org/zap"
)

// Thread keeps the open conversation in sync with its channel
type Thread struct {
	messages *Store[[]Message]
	now      func() time.Time

	mu       sync.Mutex
	sub      Subscriber
	chatID   string
	channel  Channel
	bindings map[string]BindingID
	rejected *atomic.Bool
}

// NewThread seeds the thread with the messages loaded from the server
func NewThread(initial []Message) *Thread {
	if initial == nil {
		initial = []Message{}
	}
	return &Thread{
		messages: NewStore(initial),
		now:      time.Now,
	}
}

func (t *Thread) Messages() *Store[[]Message] {
	return t.messages
}

// ChatID is the channel currently followed, empty when closed
func (t *Thread) ChatID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.chatID
}

// Open follows chatID, leaving the previously open chat first, and shows
// initial, the messages loaded from the server for that chat. Opening the
// chat that is already open is a no-op unless the gateway refused it.
func (t *Thread) Open(sub Subscriber, chatID string, initial []Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.channel != nil && t.chatID == chatID && !t.rejected.Load() {
		return nil
	}
	t.closeLocked()

	if initial == nil {
		initial = []Message{}
	}
	t.messages.Set(initial)

	ch, err := sub.Subscribe(chatID)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", chatID, err)
	}

	rejected := &atomic.Bool{}
	t.sub = sub
	t.chatID = chatID
	t.channel = ch
	t.rejected = rejected
	t.bindings = map[string]BindingID{
		realtime.EventSubscriptionError: ch.Bind(realtime.EventSubscriptionError, func(json.RawMessage) {
			logger.Log.Warn("Thread subscription refused", zap.String("chat", chatID))
			rejected.Store(true)
		}),
		realtime.EventMessageNew: ch.Bind(realtime.EventMessageNew, func(data json.RawMessage) {
			var msg Message
			if err := json.Unmarshal(data, &msg); err != nil {
				logger.Log.Warn("Bad message:new payload", zap.String("chat", chatID), zap.Error(err))
				return
			}
			t.AddMessage(msg)
		}),
		realtime.EventMessageRead: ch.Bind(realtime.EventMessageRead, func(data json.RawMessage) {
			var ids []string
			if err := json.Unmarshal(data, &ids); err != nil {
				logger.Log.Warn("Bad message:read payload", zap.String("chat", chatID), zap.Error(err))
				return
			}
			t.MarkRead(ids)
		}),
	}
	return nil
}

// Close unbinds the handlers and leaves the channel
func (t *Thread) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeLocked()
}

func (t *Thread) closeLocked() {
	if t.channel == nil {
		return
	}
	for event, id := range t.bindings {
		t.channel.Unbind(event, id)
	}
	t.sub.Unsubscribe(t.chatID)

	t.sub = nil
	t.chatID = ""
	t.channel = nil
	t.bindings = nil
	t.rejected = nil
}

// AddMessage appends msg unless a message with the same id is already
// shown. Redelivered events are therefore harmless.
func (t *Thread) AddMessage(msg Message) {
	t.messages.Update(func(prev []Message) []Message {
		if slices.ContainsFunc(prev, func(m Message) bool { return m.ID == msg.ID }) {
			return prev
		}
		next := slices.Clone(prev)
		return append(next, msg)
	})
}

// MarkRead stamps the given messages as read now. Messages that already
// carry a read time keep it.
func (t *Thread) MarkRead(ids []string) {
	if len(ids) == 0 {
		return
	}
	stamp := t.now().UTC().Format(time.RFC3339)

	t.messages.Update(func(prev []Message) []Message {
		next := slices.Clone(prev)
		for i := range next {
			if next[i].DateRead == nil && slices.Contains(ids, next[i].ID) {
				read := stamp
				next[i].DateRead = &read
			}
		}
		return next
	})
}
