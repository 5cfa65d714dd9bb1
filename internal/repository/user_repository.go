package repository

import (
	"context"
	"errors"
	"time"

	"github.com/heartline/heartline/internal/models"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateWithMember stores a user and their profile in one transaction
func (r *UserRepository) CreateWithMember(ctx context.Context, user *models.User, member *models.Member) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		if member == nil {
			return nil
		}
		member.UserID = user.ID
		return tx.Create(member).Error
	})
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) MarkEmailVerified(ctx context.Context, email string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).
		Update("email_verified", at).Error
}

func (r *UserRepository) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).
		Update("password_hash", passwordHash).Error
}

func (r *UserRepository) UpdateName(ctx context.Context, id, name string) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("name", name).Error
}

// SetImage points the user's and the member's avatar at url (nil clears it)
func (r *UserRepository) SetImage(ctx context.Context, userID string, url *string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", userID).Update("image", url).Error; err != nil {
			return err
		}
		return tx.Model(&models.Member{}).Where("user_id = ?", userID).Update("image", url).Error
	})
}

// GetAllUsers returns every user, newest first
func (r *UserRepository) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
