package client

import (
	"fmt"
	"testing"

	"github.com/heartline/heartline/internal/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifications_CountsUnread(t *testing.T) {
	sub := newFakeSubscriber()
	n := NewNotifications(2)
	require.NoError(t, n.Start(sub, "u2"))

	sub.emit(t, "private-u2", realtime.EventMessageNew, Message{ID: "m1", SenderID: "u1"})
	assert.Equal(t, 3, n.Unread().Get())

	// the open thread's messages are already visible
	n.SetActiveThread("u1")
	sub.emit(t, "private-u2", realtime.EventMessageNew, Message{ID: "m2", SenderID: "u1"})
	assert.Equal(t, 3, n.Unread().Get())

	sub.emit(t, "private-u2", realtime.EventMessageNew, Message{ID: "m3", SenderID: "u3"})
	assert.Equal(t, 4, n.Unread().Get())

	n.MarkedRead(10)
	assert.Equal(t, 0, n.Unread().Get())
}

func TestNotifications_Likes(t *testing.T) {
	sub := newFakeSubscriber()
	n := NewNotifications(0)
	require.NoError(t, n.Start(sub, "u2"))

	for i := 0; i < maxRecentLikes+5; i++ {
		sub.emit(t, "private-u2", realtime.EventLikeNew, Like{Name: "Fan", UserID: fmt.Sprintf("u%d", i)})
	}

	likes := n.Likes().Get()
	assert.Len(t, likes, maxRecentLikes)
	assert.Equal(t, fmt.Sprintf("u%d", maxRecentLikes+4), likes[0].UserID)
}

func TestNotifications_Stop(t *testing.T) {
	sub := newFakeSubscriber()
	n := NewNotifications(0)
	require.NoError(t, n.Start(sub, "u2"))
	require.NoError(t, n.Start(sub, "u2"))
	assert.Equal(t, 1, sub.subscribes["private-u2"])

	ch := sub.channels["private-u2"]
	n.Stop()
	assert.Equal(t, 0, ch.count())
	assert.Equal(t, 1, sub.unsubscribes["private-u2"])
}

func TestNotifications_RefusedSubscriptionRestarts(t *testing.T) {
	sub := newFakeSubscriber()
	n := NewNotifications(0)
	require.NoError(t, n.Start(sub, "u2"))

	sub.reject("private-u2")
	require.NoError(t, n.Start(sub, "u2"))
	assert.Equal(t, 2, sub.subscribes["private-u2"])

	sub.emit(t, "private-u2", realtime.EventMessageNew, Message{ID: "m1", SenderID: "u1"})
	assert.Equal(t, 1, n.Unread().Get())
}
