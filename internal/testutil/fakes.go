package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/heartline/heartline/internal/mail"
	"github.com/heartline/heartline/internal/storage"
)

// FakeImageHost stores uploads in memory
type FakeImageHost struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Deleted []string
	next    int
}

func NewFakeImageHost() *FakeImageHost {
	return &FakeImageHost{Objects: map[string][]byte{}}
}

func (h *FakeImageHost) Upload(ctx context.Context, data []byte, contentType string) (*storage.UploadResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.next++
	id := fmt.Sprintf("members/test-%d", h.next)
	h.Objects[id] = data
	return &storage.UploadResult{SecureURL: "https://img.test/" + id, PublicID: id}, nil
}

func (h *FakeImageHost) Delete(ctx context.Context, publicID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.Objects, publicID)
	h.Deleted = append(h.Deleted, publicID)
	return nil
}

func (h *FakeImageHost) SignUpload(ctx context.Context, params map[string]string) (*storage.SignedUpload, error) {
	id := params["public_id"]
	if id == "" {
		id = "members/signed"
	}
	return &storage.SignedUpload{
		PublicID:  id,
		UploadURL: "https://upload.test/" + id,
		SecureURL: "https://img.test/" + id,
		Signature: storage.SignParams(params, "test-secret"),
	}, nil
}

// RecordingMailer keeps sent emails instead of delivering them
type RecordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (m *RecordingMailer) Send(ctx context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *RecordingMailer) Sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}

// Reset forgets every recorded email
func (m *RecordingMailer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}
