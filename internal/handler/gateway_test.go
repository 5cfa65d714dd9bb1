package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/heartline/heartline/internal/client"
	"github.com/heartline/heartline/internal/models"
	"github.com/heartline/heartline/internal/realtime"
	"github.com/heartline/heartline/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventually = 3 * time.Second

func (s *HandlerIntegrationTestSuite) wsURL() string {
	return "ws" + strings.TrimPrefix(s.server.URL, "http") + "/api/ws"
}

// dial opens a gateway connection for user and closes it with the test
func (s *HandlerIntegrationTestSuite) dial(user *models.User) *client.Conn {
	token := s.tokenFor(user)
	header := http.Header{"Authorization": {"Bearer " + token}}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := client.Dial(ctx, s.wsURL(), header, client.NewAPI(s.server.URL, token))
	require.NoError(s.T(), err)
	require.NotEmpty(s.T(), conn.SocketID())
	s.T().Cleanup(func() { conn.Close() })
	return conn
}

// waitSubscribed blocks until the gateway holds a broker subscription on channel
func (s *HandlerIntegrationTestSuite) waitSubscribed(channel string, n int) {
	require.Eventually(s.T(), func() bool {
		return s.testRedis.Server.PubSubNumSub(channel)[channel] == n
	}, eventually, 10*time.Millisecond, "subscription on %s", channel)
}

func (s *HandlerIntegrationTestSuite) TestGatewayConversationEvents() {
	u1 := testutil.CreateTestUser(s.T(), s.testDB.DB, "u1", "Lisa", "lisa@test.com", models.RoleMember)
	u2 := testutil.CreateTestUser(s.T(), s.testDB.DB, "u2", "Karen", "karen@test.com", models.RoleMember)

	conn := s.dial(u1)
	chatID := realtime.ConversationChannel("u1", "u2")

	thread := client.NewThread(nil)
	require.NoError(s.T(), thread.Open(conn, chatID, nil))
	defer thread.Close()
	s.waitSubscribed(chatID, 1)

	// u2 writes to u1: the thread appends it
	w := s.request(http.MethodPost, "/api/messages/u1", s.tokenFor(u2), map[string]string{"text": "hey"})
	require.Equal(s.T(), http.StatusCreated, w.Code)

	require.Eventually(s.T(), func() bool {
		return len(thread.Messages().Get()) == 1
	}, eventually, 10*time.Millisecond)
	msg := thread.Messages().Get()[0]
	assert.Equal(s.T(), "hey", msg.Text)
	assert.Equal(s.T(), "Karen", msg.SenderName)
	assert.Nil(s.T(), msg.DateRead)

	// u1 reads the thread: the read receipt reaches the open thread
	w = s.request(http.MethodGet, "/api/messages/thread/u2", s.tokenFor(u1), nil)
	require.Equal(s.T(), http.StatusOK, w.Code)

	require.Eventually(s.T(), func() bool {
		return thread.Messages().Get()[0].DateRead != nil
	}, eventually, 10*time.Millisecond)
}

func (s *HandlerIntegrationTestSuite) TestGatewayPersonalChannel() {
	u1 := testutil.CreateTestUser(s.T(), s.testDB.DB, "u1", "Lisa", "lisa@test.com", models.RoleMember)
	u2 := testutil.CreateTestUser(s.T(), s.testDB.DB, "u2", "Karen", "karen@test.com", models.RoleMember)

	conn := s.dial(u2)
	notifications := client.NewNotifications(0)
	require.NoError(s.T(), notifications.Start(conn, "u2"))
	defer notifications.Stop()
	s.waitSubscribed(realtime.PersonalChannel("u2"), 1)

	w := s.request(http.MethodPost, "/api/messages/u2", s.tokenFor(u1), map[string]string{"text": "hi"})
	require.Equal(s.T(), http.StatusCreated, w.Code)

	w = s.request(http.MethodPost, "/api/likes/u2", s.tokenFor(u1), map[string]bool{"isLiked": false})
	require.Equal(s.T(), http.StatusNoContent, w.Code)

	require.Eventually(s.T(), func() bool {
		return notifications.Unread().Get() == 1 && len(notifications.Likes().Get()) == 1
	}, eventually, 10*time.Millisecond)
	assert.Equal(s.T(), "u1", notifications.Likes().Get()[0].UserID)
	assert.Equal(s.T(), "Lisa", notifications.Likes().Get()[0].Name)
}

func (s *HandlerIntegrationTestSuite) TestGatewayPresence() {
	u1 := testutil.CreateTestUser(s.T(), s.testDB.DB, "u1", "Lisa", "lisa@test.com", models.RoleMember)
	u2 := testutil.CreateTestUser(s.T(), s.testDB.DB, "u2", "Karen", "karen@test.com", models.RoleMember)

	conn1 := s.dial(u1)
	tracker1 := client.NewPresenceTracker(client.NewAPI(s.server.URL, s.tokenFor(u1)))
	require.NoError(s.T(), tracker1.Start(conn1))
	defer tracker1.Stop()

	require.Eventually(s.T(), func() bool {
		return tracker1.IsOnline("u1")
	}, eventually, 10*time.Millisecond)

	conn2 := s.dial(u2)
	tracker2 := client.NewPresenceTracker(client.NewAPI(s.server.URL, s.tokenFor(u2)))
	require.NoError(s.T(), tracker2.Start(conn2))

	// the newcomer gets the snapshot, the others get member_added
	require.Eventually(s.T(), func() bool {
		return tracker2.IsOnline("u1") && tracker2.IsOnline("u2") && tracker1.IsOnline("u2")
	}, eventually, 10*time.Millisecond)

	// last connection of u2 gone: member_removed
	tracker2.Stop()
	conn2.Close()

	require.Eventually(s.T(), func() bool {
		return !tracker1.IsOnline("u2")
	}, eventually, 10*time.Millisecond)
	assert.True(s.T(), tracker1.IsOnline("u1"))
}

func (s *HandlerIntegrationTestSuite) TestGatewayPresenceCountsConnections() {
	u1 := testutil.CreateTestUser(s.T(), s.testDB.DB, "u1", "Lisa", "lisa@test.com", models.RoleMember)
	u2 := testutil.CreateTestUser(s.T(), s.testDB.DB, "u2", "Karen", "karen@test.com", models.RoleMember)

	watcher := s.dial(u1)
	tracker := client.NewPresenceTracker(nil)
	require.NoError(s.T(), tracker.Start(watcher))
	defer tracker.Stop()

	// u2 in two tabs
	tab1, tab2 := s.dial(u2), s.dial(u2)
	for _, tab := range []*client.Conn{tab1, tab2} {
		_, err := tab.Subscribe(realtime.PresenceChannel)
		require.NoError(s.T(), err)
	}
	require.Eventually(s.T(), func() bool {
		return tracker.IsOnline("u2")
	}, eventually, 10*time.Millisecond)
	s.waitSubscribed(realtime.PresenceChannel, 3)

	tab1.Close()
	s.waitSubscribed(realtime.PresenceChannel, 2)
	assert.True(s.T(), tracker.IsOnline("u2"))

	tab2.Close()
	require.Eventually(s.T(), func() bool {
		return !tracker.IsOnline("u2")
	}, eventually, 10*time.Millisecond)
}

func (s *HandlerIntegrationTestSuite) TestGatewayRejectsUnauthorizedSubscriptions() {
	u3 := testutil.CreateTestUser(s.T(), s.testDB.DB, "u3", "Ana", "ana@test.com", models.RoleMember)

	header := http.Header{"Authorization": {"Bearer " + s.tokenFor(u3)}}
	ws, _, err := websocket.DefaultDialer.Dial(s.wsURL(), header)
	require.NoError(s.T(), err)
	defer ws.Close()
	ws.SetReadDeadline(time.Now().Add(5 * time.Second))

	var hello realtime.ServerFrame
	require.NoError(s.T(), ws.ReadJSON(&hello))
	require.Equal(s.T(), realtime.EventConnectionEstablished, hello.Event)

	cases := []realtime.ClientFrame{
		// someone else's conversation
		{Type: realtime.FrameSubscribe, Channel: realtime.ConversationChannel("u1", "u2")},
		// someone else's personal channel, unsigned
		{Type: realtime.FrameSubscribe, Channel: realtime.PersonalChannel("u1")},
		// own personal channel with a forged signature
		{Type: realtime.FrameSubscribe, Channel: realtime.PersonalChannel("u3"), Auth: testAppKey + ":deadbeef"},
	}

	for _, frame := range cases {
		require.NoError(s.T(), ws.WriteJSON(frame))

		var reply realtime.ServerFrame
		require.NoError(s.T(), ws.ReadJSON(&reply))
		assert.Equal(s.T(), realtime.EventSubscriptionError, reply.Event, frame.Channel)

		var subErr realtime.SubscriptionError
		require.NoError(s.T(), json.Unmarshal(reply.Data, &subErr))
		assert.Equal(s.T(), frame.Channel, subErr.Channel)
	}

	// a correctly signed request for the own channel is accepted
	var socket realtime.ConnectionEstablished
	require.NoError(s.T(), json.Unmarshal(hello.Data, &socket))
	auth, err := realtime.NewSigner(testAppKey, testAppSecret).Authorize(socket.SocketID, realtime.PersonalChannel("u3"), "u3")
	require.NoError(s.T(), err)

	require.NoError(s.T(), ws.WriteJSON(realtime.ClientFrame{
		Type:    realtime.FrameSubscribe,
		Channel: realtime.PersonalChannel("u3"),
		Auth:    auth.Auth,
	}))

	var reply realtime.ServerFrame
	require.NoError(s.T(), ws.ReadJSON(&reply))
	assert.Equal(s.T(), realtime.EventSubscribed, reply.Event)
	assert.Equal(s.T(), realtime.PersonalChannel("u3"), reply.Channel)
}

func (s *HandlerIntegrationTestSuite) TestGatewayRefusalReachesChannelHandle() {
	u3 := testutil.CreateTestUser(s.T(), s.testDB.DB, "u3", "Ana", "ana@test.com", models.RoleMember)
	conn := s.dial(u3)
	foreign := realtime.ConversationChannel("u1", "u2")

	ch, err := conn.Subscribe(foreign)
	require.NoError(s.T(), err)

	refused := make(chan realtime.SubscriptionError, 1)
	ch.Bind(realtime.EventSubscriptionError, func(data json.RawMessage) {
		var subErr realtime.SubscriptionError
		if json.Unmarshal(data, &subErr) == nil {
			refused <- subErr
		}
	})

	select {
	case subErr := <-refused:
		assert.Equal(s.T(), foreign, subErr.Channel)
	case <-time.After(eventually):
		s.T().Fatal("refusal never reached the channel handle")
	}

	// the refused channel is forgotten, a new attempt starts over
	again, err := conn.Subscribe(foreign)
	require.NoError(s.T(), err)
	assert.NotSame(s.T(), ch, again)
}
