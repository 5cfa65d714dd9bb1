package repository

import (
	"context"
	"errors"
	"time"

	"github.com/heartline/heartline/internal/models"
	"gorm.io/gorm"
)

// MemberFilter narrows the member listing
type MemberFilter struct {
	ExcludeUserID string
	BornAfter     time.Time // youngest allowed age bound
	BornBefore    time.Time // oldest allowed age bound
	Genders       []string
	OrderBy       string // "updated" (last active) or "created"
	WithPhoto     bool
	Offset        int
	Limit         int
}

type MemberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

func (r *MemberRepository) GetByUserID(ctx context.Context, userID string) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func (r *MemberRepository) GetByID(ctx context.Context, id string) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func (r *MemberRepository) GetByUserIDs(ctx context.Context, userIDs []string) ([]models.Member, error) {
	members := []models.Member{}
	if len(userIDs) == 0 {
		return members, nil
	}
	err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&members).Error
	return members, err
}

// List returns one page of members plus the total matching count
func (r *MemberRepository) List(ctx context.Context, f MemberFilter) ([]models.Member, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Member{})

	if f.ExcludeUserID != "" {
		query = query.Where("user_id <> ?", f.ExcludeUserID)
	}
	if !f.BornAfter.IsZero() {
		query = query.Where("date_of_birth >= ?", f.BornAfter)
	}
	if !f.BornBefore.IsZero() {
		query = query.Where("date_of_birth <= ?", f.BornBefore)
	}
	if len(f.Genders) > 0 {
		query = query.Where("gender IN ?", f.Genders)
	}
	if f.WithPhoto {
		query = query.Where("image IS NOT NULL")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "last_active DESC"
	if f.OrderBy == "created" {
		order = "created_at DESC"
	}

	members := []models.Member{}
	err := query.Order(order).Offset(f.Offset).Limit(f.Limit).Find(&members).Error
	if err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

// UpdateProfile applies the editable profile fields
func (r *MemberRepository) UpdateProfile(ctx context.Context, userID string, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Member{}).
		Where("user_id = ?", userID).
		Updates(fields).Error
}

func (r *MemberRepository) TouchLastActive(ctx context.Context, userID string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Member{}).
		Where("user_id = ?", userID).
		Update("last_active", at).Error
}
