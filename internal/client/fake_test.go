package client

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/heartline/heartline/internal/realtime"
)

// fakeSubscriber hands out in-memory channels and lets tests emit events
type fakeSubscriber struct {
	mu           sync.Mutex
	channels     map[string]*bindings
	subscribes   map[string]int
	unsubscribes map[string]int
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{
		channels:     map[string]*bindings{},
		subscribes:   map[string]int{},
		unsubscribes: map[string]int{},
	}
}

func (f *fakeSubscriber) Subscribe(channel string) (Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribes[channel]++
	if ch, ok := f.channels[channel]; ok {
		return ch, nil
	}
	ch := newBindings(channel)
	f.channels[channel] = ch
	return ch, nil
}

func (f *fakeSubscriber) Unsubscribe(channel string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubscribes[channel]++
	delete(f.channels, channel)
}

func (f *fakeSubscriber) emit(t *testing.T, channel, event string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	f.mu.Lock()
	ch := f.channels[channel]
	f.mu.Unlock()
	if ch != nil {
		ch.dispatch(event, data)
	}
}

// reject drops channel the way a gateway refusal does and tells its handle
func (f *fakeSubscriber) reject(channel string) {
	f.mu.Lock()
	ch := f.channels[channel]
	delete(f.channels, channel)
	f.mu.Unlock()
	if ch != nil {
		ch.dispatch(realtime.EventSubscriptionError, []byte(`{"channel":"`+channel+`","error":"forbidden"}`))
	}
}

func (f *fakeSubscriber) bound(channel string) int {
	f.mu.Lock()
	ch := f.channels[channel]
	f.mu.Unlock()
	if ch == nil {
		return 0
	}
	return ch.count()
}

type fakeToucher struct {
	calls atomic.Int32
	err   error
	done  chan struct{}
}

func newFakeToucher(err error) *fakeToucher {
	return &fakeToucher{err: err, done: make(chan struct{}, 8)}
}

func (f *fakeToucher) TouchLastActive(ctx context.Context) error {
	f.calls.Add(1)
	f.done <- struct{}{}
	return f.err
}
