package realtime

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
)

var (
	ErrChannelForbidden = errors.New("channel access forbidden")
	ErrInvalidSignature = errors.New("invalid channel signature")
)

// PresenceMember is the channel_data attached to a presence authorization
type PresenceMember struct {
	UserID string `json:"user_id"`
}

// ChannelAuth is the payload returned by the authorization endpoint and sent
// back by the client when subscribing.
type ChannelAuth struct {
	Auth        string `json:"auth"`
	ChannelData string `json:"channel_data,omitempty"`
}

// Signer produces and verifies channel authorizations with an app key/secret pair
type Signer struct {
	key    string
	secret []byte
}

func NewSigner(key, secret string) *Signer {
	return &Signer{key: key, secret: []byte(secret)}
}

// Authorize signs socketID:channel for userID. Personal channels can only be
// joined by their owner; presence channels carry the user id as channel data.
func (s *Signer) Authorize(socketID, channel, userID string) (*ChannelAuth, error) {
	if IsPrivate(channel) && channel != PersonalChannel(userID) {
		return nil, ErrChannelForbidden
	}

	var channelData string
	if IsPresence(channel) {
		data, err := json.Marshal(PresenceMember{UserID: userID})
		if err != nil {
			return nil, err
		}
		channelData = string(data)
	}

	return &ChannelAuth{
		Auth:        s.key + ":" + s.sign(socketID, channel, channelData),
		ChannelData: channelData,
	}, nil
}

// Verify checks an authorization produced by Authorize for the same socket
// and channel, and returns the presence member when there is one.
func (s *Signer) Verify(socketID, channel string, auth ChannelAuth) (*PresenceMember, error) {
	key, sig, ok := strings.Cut(auth.Auth, ":")
	if !ok || key != s.key {
		return nil, ErrInvalidSignature
	}

	expected := s.sign(socketID, channel, auth.ChannelData)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return nil, ErrInvalidSignature
	}

	if auth.ChannelData == "" {
		return nil, nil
	}
	var member PresenceMember
	if err := json.Unmarshal([]byte(auth.ChannelData), &member); err != nil {
		return nil, ErrInvalidSignature
	}
	return &member, nil
}

func (s *Signer) sign(socketID, channel, channelData string) string {
	toSign := socketID + ":" + channel
	if channelData != "" {
		toSign += ":" + channelData
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(toSign))
	return hex.EncodeToString(mac.Sum(nil))
}
