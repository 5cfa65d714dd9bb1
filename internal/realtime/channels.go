// Package realtime holds the addressing rules shared by the server and the
// client: channel names, event names and channel authorization signatures.
package realtime

import "strings"

const (
	// PrivatePrefix marks channels that need a signed authorization to join
	PrivatePrefix = "private-"
	// PresencePrefix marks channels whose membership is tracked
	PresencePrefix = "presence-"
	// PresenceChannel is the single global "who is online" channel
	PresenceChannel = PresencePrefix + "heartline"

	conversationSeparator = "-"
)

// Event names on the wire. Clients bind on these exact strings.
const (
	EventMessageNew  = "message:new"
	EventMessageRead = "message:read"
	EventLikeNew     = "like:new"

	EventSubscriptionSucceeded = "presence:subscription_succeeded"
	EventMemberAdded           = "presence:member_added"
	EventMemberRemoved         = "presence:member_removed"
)

// ConversationChannel returns the channel shared by both participants of a
// thread. The smaller id always comes first so the name does not depend on
// who opened the conversation.
func ConversationChannel(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + conversationSeparator + b
}

// PersonalChannel is the private notification channel of a single user
func PersonalChannel(userID string) string {
	return PrivatePrefix + userID
}

func IsPrivate(channel string) bool {
	return strings.HasPrefix(channel, PrivatePrefix)
}

func IsPresence(channel string) bool {
	return strings.HasPrefix(channel, PresencePrefix)
}

// RequiresAuth reports whether joining the channel needs a signed authorization
func RequiresAuth(channel string) bool {
	return IsPrivate(channel) || IsPresence(channel)
}

// IsParticipant reports whether userID is one side of a conversation channel
func IsParticipant(channel, userID string) bool {
	return strings.HasPrefix(channel, userID+conversationSeparator) ||
		strings.HasSuffix(channel, conversationSeparator+userID)
}
