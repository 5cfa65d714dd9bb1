package service

import (
	"time"

	"github.com/heartline/heartline/internal/models"
)

// MessageDto is the display projection of a message, shared by the HTTP
// responses and the message:new realtime payload.
type MessageDto struct {
	ID             string  `json:"id"`
	Text           string  `json:"text"`
	Created        string  `json:"created"`
	DateRead       *string `json:"dateRead"`
	SenderID       string  `json:"senderId"`
	SenderName     string  `json:"senderName"`
	SenderImage    *string `json:"senderImage"`
	RecipientID    string  `json:"recipientId"`
	RecipientName  string  `json:"recipientName"`
	RecipientImage *string `json:"recipientImage"`
}

// LikeNotification is the like:new payload
type LikeNotification struct {
	Name   string  `json:"name"`
	Image  *string `json:"image"`
	UserID string  `json:"userId"`
}

// MessagesPage is one page of an inbox or outbox listing
type MessagesPage struct {
	Messages   []MessageDto `json:"messages"`
	NextCursor *string      `json:"nextCursor"`
}

// PaginatedResponse wraps a page of items with the total match count
type PaginatedResponse[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func toMessageDto(m models.Message) MessageDto {
	dto := MessageDto{
		ID:             m.ID,
		Text:           m.Text,
		Created:        formatTime(m.CreatedAt),
		SenderID:       m.SenderID,
		SenderName:     m.Sender.Name,
		SenderImage:    m.Sender.Image,
		RecipientID:    m.RecipientID,
		RecipientName:  m.Recipient.Name,
		RecipientImage: m.Recipient.Image,
	}
	if m.DateRead != nil {
		read := formatTime(*m.DateRead)
		dto.DateRead = &read
	}
	return dto
}
