package client

import (
	"context"
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

const touchTimeout = 5 * time.Second

// Toucher records that the current member is active
type Toucher interface {
	TouchLastActive(ctx context.Context) error
}

// PresenceTracker mirrors who is online from the global presence channel
type PresenceTracker struct {
	members *Store[[]string]
	toucher Toucher

	mu       sync.Mutex
	sub      Subscriber
	channel  Channel
	bindings map[string]BindingID
	rejected *atomic.Bool
}

func NewPresenceTracker(toucher Toucher) *PresenceTracker {
	return &PresenceTracker{
		members: NewStore([]string{}),
		toucher: toucher,
	}
}

// Members is the observable set of online user ids
func (p *PresenceTracker) Members() *Store[[]string] {
	return p.members
}

// IsOnline reports whether userID is in the current set
func (p *PresenceTracker) IsOnline(userID string) bool {
	return slices.Contains(p.members.Get(), userID)
}

// Start subscribes to the presence channel. Calling it again while started
// does nothing, unless the gateway refused the subscription.
func (p *PresenceTracker) Start(sub Subscriber) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil && !p.rejected.Load() {
		return nil
	}
	p.stopLocked()

	ch, err := sub.Subscribe(realtime.PresenceChannel)
	if err != nil {
		return fmt.Errorf("subscribe presence: %w", err)
	}

	rejected := &atomic.Bool{}
	p.sub = sub
	p.channel = ch
	p.rejected = rejected
	p.bindings = map[string]BindingID{
		realtime.EventSubscriptionError: ch.Bind(realtime.EventSubscriptionError, func(json.RawMessage) {
			logger.Log.Warn("Presence subscription refused")
			rejected.Store(true)
		}),
		realtime.EventSubscriptionSucceeded: ch.Bind(realtime.EventSubscriptionSucceeded, func(data json.RawMessage) {
			var ids []string
			if err := json.Unmarshal(data, &ids); err != nil {
				logger.Log.Warn("Bad presence snapshot", zap.Error(err))
				return
			}
			p.OnSubscriptionSucceeded(ids)
		}),
		realtime.EventMemberAdded: ch.Bind(realtime.EventMemberAdded, func(data json.RawMessage) {
			var id string
			if err := json.Unmarshal(data, &id); err == nil {
				p.OnMemberAdded(id)
			}
		}),
		realtime.EventMemberRemoved: ch.Bind(realtime.EventMemberRemoved, func(data json.RawMessage) {
			var id string
			if err := json.Unmarshal(data, &id); err == nil {
				p.OnMemberRemoved(id)
			}
		}),
	}
	return nil
}

// Stop unbinds the handlers and leaves the channel
func (p *PresenceTracker) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *PresenceTracker) stopLocked() {
	if p.channel == nil {
		return
	}
	for event, id := range p.bindings {
		p.channel.Unbind(event, id)
	}
	p.sub.Unsubscribe(realtime.PresenceChannel)

	p.channel = nil
	p.sub = nil
	p.bindings = nil
	p.rejected = nil
}

// OnSubscriptionSucceeded replaces the set with the snapshot and touches the
// member's last-active time in the background.
func (p *PresenceTracker) OnSubscriptionSucceeded(ids []string) {
	snapshot := make([]string, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(snapshot, id) {
			snapshot = append(snapshot, id)
		}
	}
	p.members.Set(snapshot)

	if p.toucher == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), touchTimeout)
		defer cancel()
		if err := p.toucher.TouchLastActive(ctx); err != nil {
			logger.Log.Warn("Failed to update last active", zap.Error(err))
		}
	}()
}

func (p *PresenceTracker) OnMemberAdded(id string) {
	p.members.Update(func(prev []string) []string {
		if slices.Contains(prev, id) {
			return prev
		}
		next := slices.Clone(prev)
		return append(next, id)
	})
}

func (p *PresenceTracker) OnMemberRemoved(id string) {
	p.members.Update(func(prev []string) []string {
		if !slices.Contains(prev, id) {
			return prev
		}
		return slices.DeleteFunc(slices.Clone(prev), func(s string) bool { return s == id })
	})
}
