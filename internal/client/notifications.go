package client

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/heartline/heartline/internal/realtime"
	"github.com/heartline/heartline/pkg/logger"
	"go.uber.org/zap"
)

const maxRecentLikes = 20

// Notifications follows the user's personal channel: it counts unread
// messages and keeps the latest likes.
type Notifications struct {
	unread *Store[int]
	likes  *Store[[]Like]

	mu           sync.Mutex
	activeSender string
	sub          Subscriber
	channelName  string
	channel      Channel
	bindings     map[string]BindingID
	rejected     *atomic.Bool
}

func NewNotifications(initialUnread int) *Notifications {
	return &Notifications{
		unread: NewStore(initialUnread),
		likes:  NewStore([]Like{}),
	}
}

func (n *Notifications) Unread() *Store[int] {
	return n.unread
}

func (n *Notifications) Likes() *Store[[]Like] {
	return n.likes
}

// SetActiveThread names the counterpart of the open thread. Their messages
// are already on screen and do not count as unread. Empty clears it.
func (n *Notifications) SetActiveThread(otherUserID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.activeSender = otherUserID
}

// MarkedRead lowers the unread count after a thread was read
func (n *Notifications) MarkedRead(count int) {
	n.unread.Update(func(prev int) int {
		return max(prev-count, 0)
	})
}

func (n *Notifications) Start(sub Subscriber, userID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.channel != nil && !n.rejected.Load() {
		return nil
	}
	n.stopLocked()

	name := realtime.PersonalChannel(userID)
	ch, err := sub.Subscribe(name)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", name, err)
	}

	rejected := &atomic.Bool{}
	n.sub = sub
	n.channelName = name
	n.channel = ch
	n.rejected = rejected
	n.bindings = map[string]BindingID{
		realtime.EventSubscriptionError: ch.Bind(realtime.EventSubscriptionError, func(json.RawMessage) {
			logger.Log.Warn("Personal channel subscription refused", zap.String("channel", name))
			rejected.Store(true)
		}),
		realtime.EventMessageNew: ch.Bind(realtime.EventMessageNew, func(data json.RawMessage) {
			var msg Message
			if err := json.Unmarshal(data, &msg); err != nil {
				logger.Log.Warn("Bad message:new payload", zap.Error(err))
				return
			}
			n.onMessage(msg)
		}),
		realtime.EventLikeNew: ch.Bind(realtime.EventLikeNew, func(data json.RawMessage) {
			var like Like
			if err := json.Unmarshal(data, &like); err != nil {
				logger.Log.Warn("Bad like:new payload", zap.Error(err))
				return
			}
			n.onLike(like)
		}),
	}
	return nil
}

func (n *Notifications) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stopLocked()
}

func (n *Notifications) stopLocked() {
	if n.channel == nil {
		return
	}
	for event, id := range n.bindings {
		n.channel.Unbind(event, id)
	}
	n.sub.Unsubscribe(n.channelName)

	n.sub = nil
	n.channel = nil
	n.bindings = nil
	n.rejected = nil
}

func (n *Notifications) onMessage(msg Message) {
	n.mu.Lock()
	active := n.activeSender
	n.mu.Unlock()

	if active != "" && msg.SenderID == active {
		return
	}
	n.unread.Update(func(prev int) int { return prev + 1 })
}

func (n *Notifications) onLike(like Like) {
	n.likes.Update(func(prev []Like) []Like {
		next := append([]Like{like}, prev...)
		if len(next) > maxRecentLikes {
			next = next[:maxRecentLikes]
		}
		return slices.Clip(next)
	})
}
