package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Message struct {
	ID          string     `gorm:"type:varchar(36);primaryKey"`
	Text        string     `gorm:"type:text;not null"`
	CreatedAt   time.Time  `gorm:"index"`
	DateRead    *time.Time // set once, never cleared
	SenderID    string     `gorm:"type:varchar(36);not null;index"`
	RecipientID string     `gorm:"type:varchar(36);not null;index"`

	// Per-party soft delete; the row is removed once both are true
	SenderDeleted    bool `gorm:"default:false"`
	RecipientDeleted bool `gorm:"default:false"`

	Sender    User `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE"`
	Recipient User `gorm:"foreignKey:RecipientID;constraint:OnDelete:CASCADE"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// Viewer is the role the acting user plays in a message: the outbox shows
// messages as their sender, the inbox as their recipient.
type Viewer int

const (
	ViewerSender Viewer = iota + 1
	ViewerRecipient
)

// ViewerFromContainer maps the "outbox"/"inbox" view names onto a Viewer
func ViewerFromContainer(container string) Viewer {
	if container == "outbox" {
		return ViewerSender
	}
	return ViewerRecipient
}

func (v Viewer) String() string {
	switch v {
	case ViewerSender:
		return "outbox"
	case ViewerRecipient:
		return "inbox"
	default:
		return "unknown"
	}
}

// UserColumn is the column holding the viewer's own id
func (v Viewer) UserColumn() string {
	if v == ViewerSender {
		return "sender_id"
	}
	return "recipient_id"
}

// DeletedColumn is the soft-delete flag owned by the viewer
func (v Viewer) DeletedColumn() string {
	if v == ViewerSender {
		return "sender_deleted"
	}
	return "recipient_deleted"
}

// DeletedBy reports whether the viewer has soft-deleted m
func (v Viewer) DeletedBy(m *Message) bool {
	if v == ViewerSender {
		return m.SenderDeleted
	}
	return m.RecipientDeleted
}
