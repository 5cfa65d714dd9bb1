package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestBroker(t *testing.T) (*RedisMessageBroker, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	b, err := NewRedisMessageBroker(fmt.Sprintf("redis://%s", mr.Addr()))
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })

	return b, mr
}

func receive(t *testing.T, sub Subscription) Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "subscription closed unexpectedly")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestRedisBroker_PublishSubscribe(t *testing.T) {
	b, _ := setupTestBroker(t)
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, "u1-u2")
	require.NoError(t, err)
	defer sub.Close()

	payload := map[string]string{"text": "hello"}
	require.NoError(t, b.Publish(ctx, "u1-u2", "message:new", payload))

	ev := receive(t, sub)
	assert.Equal(t, "u1-u2", ev.Channel)
	assert.Equal(t, "message:new", ev.Event)

	var got map[string]string
	require.NoError(t, json.Unmarshal(ev.Data, &got))
	assert.Equal(t, payload, got)
}

func TestRedisBroker_ChannelsAreIsolated(t *testing.T) {
	b, _ := setupTestBroker(t)
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, "private-u2")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, b.Publish(ctx, "private-u3", "like:new", "ignored"))
	require.NoError(t, b.Publish(ctx, "private-u2", "like:new", "kept"))

	ev := receive(t, sub)
	assert.Equal(t, "private-u2", ev.Channel)
	assert.JSONEq(t, `"kept"`, string(ev.Data))
}

func TestRedisBroker_PublishUnmarshalablePayload(t *testing.T) {
	b, _ := setupTestBroker(t)

	err := b.Publish(context.Background(), "c", "e", make(chan int))
	assert.Error(t, err)
}

func TestRedisBroker_PublishAfterServerDown(t *testing.T) {
	b, mr := setupTestBroker(t)
	mr.Close()

	err := b.Publish(context.Background(), "c", "e", "x")
	assert.Error(t, err)
}

func TestNewRedisMessageBroker_InvalidURL(t *testing.T) {
	_, err := NewRedisMessageBroker("not-a-url")
	assert.Error(t, err)
}

func TestPresenceRegistry_JoinLeave(t *testing.T) {
	b, _ := setupTestBroker(t)
	ctx := context.Background()
	p := NewPresenceRegistry(b.Client())

	first, err := p.Join(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, first)

	// second tab of the same user
	first, err = p.Join(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, first)

	_, err = p.Join(ctx, "u2")
	require.NoError(t, err)

	members, err := p.Members(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u1", "u2"}, members)

	last, err := p.Leave(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, last)

	last, err = p.Leave(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, last)

	members, err = p.Members(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, members)
}

func TestPresenceRegistry_LeaveRacingJoinKeepsMember(t *testing.T) {
	b, _ := setupTestBroker(t)
	ctx := context.Background()
	p := NewPresenceRegistry(b.Client())

	for round := 0; round < 200; round++ {
		_, err := p.Join(ctx, "u1")
		require.NoError(t, err)

		// one tab closes while another opens
		var wg sync.WaitGroup
		var last, first bool
		var leaveErr, joinErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			last, leaveErr = p.Leave(ctx, "u1")
		}()
		go func() {
			defer wg.Done()
			first, joinErr = p.Join(ctx, "u1")
		}()
		wg.Wait()
		require.NoError(t, leaveErr)
		require.NoError(t, joinErr)

		members, err := p.Members(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"u1"}, members, "round %d", round)
		// a removal is announced only when a fresh join follows it
		require.Equal(t, last, first, "round %d", round)

		last, err = p.Leave(ctx, "u1")
		require.NoError(t, err)
		require.True(t, last, "round %d", round)
	}
}

func TestPresenceRegistry_LeaveUnknownUser(t *testing.T) {
	b, _ := setupTestBroker(t)
	ctx := context.Background()
	p := NewPresenceRegistry(b.Client())

	last, err := p.Leave(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, last)

	members, err := p.Members(ctx)
	require.NoError(t, err)
	assert.Empty(t, members)
}
