package repository

import (
	"context"
	"errors"
	"time"

	"github.com/heartline/heartline/internal/models"
	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// withParticipants preloads the display fields of both participants only
func withParticipants(db *gorm.DB) *gorm.DB {
	project := func(tx *gorm.DB) *gorm.DB {
		return tx.Select("id", "name", "image")
	}
	return db.Preload("Sender", project).Preload("Recipient", project)
}

func (r *MessageRepository) CreateMessage(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// GetMessageByID retrieves a message with its participants projected
func (r *MessageRepository) GetMessageByID(ctx context.Context, id string) (*models.Message, error) {
	var message models.Message
	err := withParticipants(r.db.WithContext(ctx)).Where("id = ?", id).First(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &message, nil
}

// GetThread returns the conversation between userID and otherID, oldest
// first, hiding only what userID deleted. The other party's flag is ignored.
func (r *MessageRepository) GetThread(ctx context.Context, userID, otherID string) ([]models.Message, error) {
	messages := []models.Message{}
	err := withParticipants(r.db.WithContext(ctx)).
		Where("(sender_id = ? AND recipient_id = ? AND sender_deleted = ?) OR (sender_id = ? AND recipient_id = ? AND recipient_deleted = ?)",
			userID, otherID, false,
			otherID, userID, false,
		).
		Order("created_at ASC").
		Find(&messages).Error
	return messages, err
}

// MarkRead stamps dateRead on the given messages. Already read rows keep
// their original timestamp.
func (r *MessageRepository) MarkRead(ctx context.Context, ids []string, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("id IN ? AND date_read IS NULL", ids).
		Update("date_read", at)
	return res.RowsAffected, res.Error
}

// ListByContainer pages through a user's inbox or outbox, newest first.
// cursor is exclusive: only messages created before it are returned.
func (r *MessageRepository) ListByContainer(ctx context.Context, userID string, viewer models.Viewer, cursor *time.Time, limit int) ([]models.Message, error) {
	query := withParticipants(r.db.WithContext(ctx)).
		Where(viewer.UserColumn()+" = ?", userID).
		Where(viewer.DeletedColumn()+" = ?", false)

	if cursor != nil {
		query = query.Where("created_at < ?", *cursor)
	}

	messages := []models.Message{}
	err := query.Order("created_at DESC").Limit(limit).Find(&messages).Error
	return messages, err
}

// SoftDelete flips the viewer's flag on a message where userID holds that
// role, returning how many rows matched.
func (r *MessageRepository) SoftDelete(ctx context.Context, messageID, userID string, viewer models.Viewer) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("id = ?", messageID).
		Where(viewer.UserColumn()+" = ?", userID).
		Update(viewer.DeletedColumn(), true)
	return res.RowsAffected, res.Error
}

// PurgeDeletedForUser hard-deletes every message involving userID that both
// parties have soft-deleted.
func (r *MessageRepository) PurgeDeletedForUser(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("(sender_id = ? OR recipient_id = ?) AND sender_deleted = ? AND recipient_deleted = ?",
			userID, userID, true, true).
		Delete(&models.Message{})
	return res.RowsAffected, res.Error
}

func (r *MessageRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("recipient_id = ? AND date_read IS NULL AND recipient_deleted = ?", userID, false).
		Count(&count).Error
	return count, err
}
