package repository

import (
	"context"

	"github.com/heartline/heartline/internal/models"
	"gorm.io/gorm"
)

type LikeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) *LikeRepository {
	return &LikeRepository{db: db}
}

func (r *LikeRepository) Create(ctx context.Context, sourceUserID, targetUserID string) error {
	return r.db.WithContext(ctx).Create(&models.Like{
		SourceUserID: sourceUserID,
		TargetUserID: targetUserID,
	}).Error
}

// Delete removes the like identified by its composite key
func (r *LikeRepository) Delete(ctx context.Context, sourceUserID, targetUserID string) error {
	return r.db.WithContext(ctx).
		Where("source_user_id = ? AND target_user_id = ?", sourceUserID, targetUserID).
		Delete(&models.Like{}).Error
}

func (r *LikeRepository) Count(ctx context.Context, sourceUserID, targetUserID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("source_user_id = ? AND target_user_id = ?", sourceUserID, targetUserID).
		Count(&count).Error
	return count, err
}

// TargetIDs lists the users liked by sourceUserID
func (r *LikeRepository) TargetIDs(ctx context.Context, sourceUserID string) ([]string, error) {
	ids := []string{}
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("source_user_id = ?", sourceUserID).
		Pluck("target_user_id", &ids).Error
	return ids, err
}

// SourceIDs lists the users who liked targetUserID
func (r *LikeRepository) SourceIDs(ctx context.Context, targetUserID string) ([]string, error) {
	ids := []string{}
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("target_user_id = ?", targetUserID).
		Pluck("source_user_id", &ids).Error
	return ids, err
}
