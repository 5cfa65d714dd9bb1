package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// ErrPublishFailed is returned by a RecordingPublisher set to fail
var ErrPublishFailed = errors.New("publish failed")

// Published is one recorded publish, payload kept as JSON
type Published struct {
	Channel string
	Event   string
	Payload json.RawMessage
}

// RecordingPublisher captures publishes in memory instead of hitting a broker
type RecordingPublisher struct {
	mu     sync.Mutex
	calls  []Published
	failOn map[string]bool
	fail   bool
}

func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{failOn: map[string]bool{}}
}

func (p *RecordingPublisher) Publish(ctx context.Context, channel, event string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.fail || p.failOn[channel] {
		return ErrPublishFailed
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	p.calls = append(p.calls, Published{Channel: channel, Event: event, Payload: data})
	return nil
}

// FailAll makes every following publish fail
func (p *RecordingPublisher) FailAll(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail = fail
}

// FailChannel makes publishes on one channel fail
func (p *RecordingPublisher) FailChannel(channel string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failOn[channel] = true
}

func (p *RecordingPublisher) Calls() []Published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Published(nil), p.calls...)
}

func (p *RecordingPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = nil
}
