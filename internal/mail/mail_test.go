package mail

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerificationEmail(t *testing.T) {
	msg := VerificationEmail("ana@example.com", "abc 123", "http://localhost:3000/")

	assert.Equal(t, "ana@example.com", msg.To)
	assert.Equal(t, "Verify your email address", msg.Subject)
	assert.Contains(t, msg.HTML, `href="http://localhost:3000/verify-email?token=abc+123"`)
}

func TestPasswordResetEmail(t *testing.T) {
	msg := PasswordResetEmail("ana@example.com", "tok", "https://heartline.app")
	assert.Contains(t, msg.HTML, `href="https://heartline.app/reset-password?token=tok"`)
}

func TestSMTPSender_Send(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Port: 2525, From: "no-reply@heartline.local"})

	var gotAddr string
	var gotTo []string
	var gotBody []byte
	s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotBody = addr, to, msg
		assert.Nil(t, a)
		return nil
	}

	require.NoError(t, s.Send(context.Background(), Message{To: "bob@example.com", Subject: "Hi", HTML: "<p>x</p>"}))
	assert.Equal(t, "smtp.example.com:2525", gotAddr)
	assert.Equal(t, []string{"bob@example.com"}, gotTo)
	assert.Contains(t, string(gotBody), "Subject: Hi\r\n")
	assert.Contains(t, string(gotBody), "\r\n\r\n<p>x</p>")
}

func TestSMTPSender_SendError(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "h", Port: 25, Username: "u", Password: "p"})
	s.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("refused") }

	err := s.Send(context.Background(), Message{To: "x@example.com"})
	assert.ErrorContains(t, err, "refused")
}

func TestLogSender(t *testing.T) {
	assert.NoError(t, LogSender{}.Send(context.Background(), Message{To: "x@example.com"}))
}
