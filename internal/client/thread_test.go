package client

import (
	"testing"
	"time"

	"github.com/heartline/heartline/internal/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThread_AppendsAndDedupes(t *testing.T) {
	sub := newFakeSubscriber()
	th := NewThread(nil)
	require.NoError(t, th.Open(sub, "u1-u2", []Message{{ID: "m1", Text: "hi"}}))

	sub.emit(t, "u1-u2", realtime.EventMessageNew, Message{ID: "m2", Text: "hello"})
	sub.emit(t, "u1-u2", realtime.EventMessageNew, Message{ID: "m2", Text: "hello"})

	msgs := th.Messages().Get()
	require.Len(t, msgs, 2)
	assert.Equal(t, "m2", msgs[1].ID)
}

func TestThread_MarkReadIsSetOnce(t *testing.T) {
	earlier := "2024-01-01T00:00:00Z"
	th := NewThread(nil)
	th.now = func() time.Time { return time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC) }

	sub := newFakeSubscriber()
	require.NoError(t, th.Open(sub, "u1-u2", []Message{{ID: "m1"}, {ID: "m2", DateRead: &earlier}, {ID: "m3"}}))
	sub.emit(t, "u1-u2", realtime.EventMessageRead, []string{"m1", "m2"})

	msgs := th.Messages().Get()
	require.NotNil(t, msgs[0].DateRead)
	assert.Equal(t, "2025-01-01T12:00:00Z", *msgs[0].DateRead)
	assert.Equal(t, earlier, *msgs[1].DateRead)
	assert.Nil(t, msgs[2].DateRead)
}

func TestThread_DoesNotMutatePreviousSnapshot(t *testing.T) {
	th := NewThread([]Message{{ID: "m1"}})
	before := th.Messages().Get()

	th.MarkRead([]string{"m1"})
	assert.Nil(t, before[0].DateRead)
	assert.NotNil(t, th.Messages().Get()[0].DateRead)
}

func TestThread_SwitchingChatsLeavesPrevious(t *testing.T) {
	sub := newFakeSubscriber()
	th := NewThread(nil)

	require.NoError(t, th.Open(sub, "u1-u2", []Message{{ID: "a1"}}))
	sub.emit(t, "u1-u2", realtime.EventMessageNew, Message{ID: "a2"})
	require.Len(t, th.Messages().Get(), 2)

	// reopening the same chat keeps what is shown
	require.NoError(t, th.Open(sub, "u1-u2", nil))
	assert.Equal(t, 1, sub.subscribes["u1-u2"])
	assert.Len(t, th.Messages().Get(), 2)

	first := sub.channels["u1-u2"]
	require.NoError(t, th.Open(sub, "u1-u3", []Message{{ID: "b0"}}))
	assert.Equal(t, "u1-u3", th.ChatID())
	assert.Equal(t, 1, sub.unsubscribes["u1-u2"])
	assert.Equal(t, 0, first.count())

	sub.emit(t, "u1-u3", realtime.EventMessageNew, Message{ID: "b1"})
	ids := []string{}
	for _, m := range th.Messages().Get() {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"b0", "b1"}, ids)

	// the old chat no longer feeds this thread
	first.dispatch(realtime.EventMessageNew, []byte(`{"id":"stale"}`))
	assert.Len(t, th.Messages().Get(), 2)

	th.Close()
	assert.Equal(t, 1, sub.unsubscribes["u1-u3"])
	assert.Equal(t, "", th.ChatID())
}

func TestThread_SwitchingToEmptyChat(t *testing.T) {
	sub := newFakeSubscriber()
	th := NewThread(nil)

	require.NoError(t, th.Open(sub, "u1-u2", []Message{{ID: "a1"}}))
	require.NoError(t, th.Open(sub, "u1-u3", nil))
	assert.Empty(t, th.Messages().Get())
}

func TestThread_RefusedChatCanBeReopened(t *testing.T) {
	sub := newFakeSubscriber()
	th := NewThread(nil)

	require.NoError(t, th.Open(sub, "u1-u2", nil))
	sub.reject("u1-u2")

	require.NoError(t, th.Open(sub, "u1-u2", nil))
	assert.Equal(t, 2, sub.subscribes["u1-u2"])
	assert.Equal(t, "u1-u2", th.ChatID())

	// the new subscription feeds the thread
	sub.emit(t, "u1-u2", realtime.EventMessageNew, Message{ID: "m1"})
	assert.Len(t, th.Messages().Get(), 1)
}

func TestThread_BadPayloadIgnored(t *testing.T) {
	sub := newFakeSubscriber()
	th := NewThread(nil)
	require.NoError(t, th.Open(sub, "u1-u2", nil))

	sub.channels["u1-u2"].dispatch(realtime.EventMessageNew, []byte(`not json`))
	assert.Empty(t, th.Messages().Get())
}
