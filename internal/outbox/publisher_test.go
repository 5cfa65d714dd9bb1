package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyBroker struct {
	mu        sync.Mutex
	fail      bool
	published []string
	payloads  []string
}

func (b *flakyBroker) Publish(ctx context.Context, channel, event string, payload any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail {
		return errors.New("broker unavailable")
	}
	data, _ := json.Marshal(payload)
	b.published = append(b.published, channel+"|"+event)
	b.payloads = append(b.payloads, string(data))
	return nil
}

func TestPublisher_PassThrough(t *testing.T) {
	b := &flakyBroker{}
	p := NewPublisher(b, newTestJournal(t))

	require.NoError(t, p.Publish(context.Background(), "u1-u2", "message:new", "hi"))
	assert.Equal(t, []string{"u1-u2|message:new"}, b.published)

	entries, err := p.journal.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPublisher_JournalsFailures(t *testing.T) {
	b := &flakyBroker{fail: true}
	p := NewPublisher(b, newTestJournal(t))

	err := p.Publish(context.Background(), "private-u2", "message:new", map[string]string{"id": "m1"})
	assert.NoError(t, err)

	entries, err := p.journal.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "private-u2", entries[0].Channel)
}

func TestPublisher_ReplayDeliversAndRemoves(t *testing.T) {
	b := &flakyBroker{fail: true}
	p := NewPublisher(b, newTestJournal(t))
	ctx := context.Background()

	require.NoError(t, p.Publish(ctx, "u1-u2", "message:new", map[string]string{"id": "m1"}))
	require.NoError(t, p.Publish(ctx, "u1-u2", "message:read", []string{"m1"}))

	// still down: nothing delivered, nothing removed
	n, err := p.Replay(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	b.fail = false
	n, err = p.Replay(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"u1-u2|message:new", "u1-u2|message:read"}, b.published)
	assert.JSONEq(t, `{"id":"m1"}`, b.payloads[0])

	entries, err := p.journal.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}
