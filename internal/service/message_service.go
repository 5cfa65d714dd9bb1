package service

import (
	"context"
	"fmt"
	"time"

	"github.com/heartline/heartline/internal/broker"
	"github.com/heartline/heartline/internal/models"
	"github.com/heartline/heartline/internal/realtime"
	"github.com/heartline/heartline/internal/repository"
	"github.com/heartline/heartline/pkg/logger"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
)

// SendMessageInput is the chat form
type SendMessageInput struct {
	Text string `json:"text" validate:"required,max=5000"`
}

type MessageService struct {
	messageRepo *repository.MessageRepository // for database
	publisher   broker.Publisher              // for realtime fan-out
	now         func() time.Time
}

func NewMessageService(messageRepo *repository.MessageRepository, publisher broker.Publisher) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		publisher:   publisher,
		now:         time.Now,
	}
}

// SendMessage stores a message and announces it on the conversation channel
// and on the recipient's personal channel. Nothing is published when the
// insert fails; a failed publish does not undo the insert.
func (s *MessageService) SendMessage(ctx context.Context, senderID, recipientID, text string) (*MessageDto, error) {
	if err := validateStruct(SendMessageInput{Text: text}); err != nil {
		return nil, err
	}

	msg := &models.Message{
		Text:        text,
		SenderID:    senderID,
		RecipientID: recipientID,
	}
	if err := s.messageRepo.CreateMessage(ctx, msg); err != nil {
		logger.Log.Error("Failed to create message",
			zap.String("sender_id", senderID),
			zap.String("recipient_id", recipientID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("create message: %w", err)
	}

	stored, err := s.messageRepo.GetMessageByID(ctx, msg.ID)
	if err != nil {
		return nil, fmt.Errorf("load message: %w", err)
	}
	if stored == nil {
		return nil, ErrMessageNotFound
	}

	dto := toMessageDto(*stored)

	publishQuietly(ctx, s.publisher, realtime.ConversationChannel(senderID, recipientID), realtime.EventMessageNew, dto)
	publishQuietly(ctx, s.publisher, realtime.PersonalChannel(recipientID), realtime.EventMessageNew, dto)

	logger.Log.Debug("Message sent",
		zap.String("message_id", dto.ID),
		zap.String("sender_id", senderID),
		zap.String("recipient_id", recipientID),
	)

	return &dto, nil
}

// GetMessageThread returns the conversation as seen by currentUserID and
// marks as read what the other user sent to them. The ids stamped by this
// call go out as message:read so the sender's open thread can catch up.
func (s *MessageService) GetMessageThread(ctx context.Context, currentUserID, otherUserID string) ([]MessageDto, error) {
	messages, err := s.messageRepo.GetThread(ctx, currentUserID, otherUserID)
	if err != nil {
		logger.Log.Error("Failed to fetch message thread",
			zap.String("user_id", currentUserID),
			zap.String("other_user_id", otherUserID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("fetch thread: %w", err)
	}

	readIDs := lo.FilterMap(messages, func(m models.Message, _ int) (string, bool) {
		return m.ID, m.DateRead == nil && m.RecipientID == currentUserID && m.SenderID == otherUserID
	})
	if readIDs == nil {
		readIDs = []string{}
	}

	if len(readIDs) > 0 {
		now := s.now()
		if _, err := s.messageRepo.MarkRead(ctx, readIDs, now); err != nil {
			logger.Log.Error("Failed to mark messages read",
				zap.String("user_id", currentUserID),
				zap.Int("count", len(readIDs)),
				zap.Error(err),
			)
			return nil, fmt.Errorf("mark read: %w", err)
		}

		unread := lo.SliceToMap(readIDs, func(id string) (string, struct{}) { return id, struct{}{} })
		for i := range messages {
			if _, ok := unread[messages[i].ID]; ok {
				messages[i].DateRead = &now
			}
		}
	}

	publishQuietly(ctx, s.publisher, realtime.ConversationChannel(currentUserID, otherUserID), realtime.EventMessageRead, readIDs)

	return lo.Map(messages, func(m models.Message, _ int) MessageDto { return toMessageDto(m) }), nil
}

// GetMessagesByContainer pages through the inbox or outbox, newest first
func (s *MessageService) GetMessagesByContainer(ctx context.Context, userID string, viewer models.Viewer, cursor *time.Time, limit int) (*MessagesPage, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	limit = min(limit, maxPageSize)

	// one extra row tells whether another page exists
	messages, err := s.messageRepo.ListByContainer(ctx, userID, viewer, cursor, limit+1)
	if err != nil {
		logger.Log.Error("Failed to list messages",
			zap.String("user_id", userID),
			zap.String("container", viewer.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list %s: %w", viewer, err)
	}

	page := &MessagesPage{}
	if len(messages) > limit {
		messages = messages[:limit]
		next := messages[limit-1].CreatedAt.UTC().Format(time.RFC3339Nano)
		page.NextCursor = &next
	}
	page.Messages = lo.Map(messages, func(m models.Message, _ int) MessageDto { return toMessageDto(m) })

	return page, nil
}

// DeleteMessage soft-deletes a message for the acting party, chosen by the
// view the user deletes from, then purges every message of that user that
// both parties have deleted.
func (s *MessageService) DeleteMessage(ctx context.Context, messageID, userID string, viewer models.Viewer) error {
	affected, err := s.messageRepo.SoftDelete(ctx, messageID, userID, viewer)
	if err != nil {
		logger.Log.Error("Failed to soft delete message",
			zap.String("message_id", messageID),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return fmt.Errorf("soft delete: %w", err)
	}
	if affected == 0 {
		return ErrMessageNotFound
	}

	purged, err := s.messageRepo.PurgeDeletedForUser(ctx, userID)
	if err != nil {
		logger.Log.Error("Failed to purge deleted messages",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return fmt.Errorf("purge: %w", err)
	}

	logger.Log.Info("Message deleted",
		zap.String("message_id", messageID),
		zap.String("user_id", userID),
		zap.String("container", viewer.String()),
		zap.Int64("purged", purged),
	)

	return nil
}

func (s *MessageService) GetUnreadMessageCount(ctx context.Context, userID string) (int64, error) {
	return s.messageRepo.CountUnread(ctx, userID)
}
