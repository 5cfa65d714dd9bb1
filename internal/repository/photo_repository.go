package repository

import (
	"context"
	"errors"

	"github.com/heartline/heartline/internal/models"
	"gorm.io/gorm"
)

type PhotoRepository struct {
	db *gorm.DB
}

func NewPhotoRepository(db *gorm.DB) *PhotoRepository {
	return &PhotoRepository{db: db}
}

func (r *PhotoRepository) Create(ctx context.Context, photo *models.Photo) error {
	return r.db.WithContext(ctx).Create(photo).Error
}

func (r *PhotoRepository) GetByID(ctx context.Context, id string) (*models.Photo, error) {
	var photo models.Photo
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&photo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &photo, nil
}

// ListByMember returns a member's photos; unapproved ones only when asked
func (r *PhotoRepository) ListByMember(ctx context.Context, memberID string, includeUnapproved bool) ([]models.Photo, error) {
	query := r.db.WithContext(ctx).Where("member_id = ?", memberID)
	if !includeUnapproved {
		query = query.Where("is_approved = ?", true)
	}

	photos := []models.Photo{}
	err := query.Find(&photos).Error
	return photos, err
}

func (r *PhotoRepository) ListUnapproved(ctx context.Context) ([]models.Photo, error) {
	photos := []models.Photo{}
	err := r.db.WithContext(ctx).Where("is_approved = ?", false).Find(&photos).Error
	return photos, err
}

func (r *PhotoRepository) Approve(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&models.Photo{}).
		Where("id = ?", id).
		Update("is_approved", true).Error
}

func (r *PhotoRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&models.Photo{}, "id = ?", id).Error
}
