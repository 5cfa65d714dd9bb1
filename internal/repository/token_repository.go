package repository

import (
	"context"
	"errors"

	"github.com/heartline/heartline/internal/models"
	"gorm.io/gorm"
)

type TokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Replace deletes every token for the email and stores the new one atomically
func (r *TokenRepository) Replace(ctx context.Context, token *models.Token) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", token.Email).Delete(&models.Token{}).Error; err != nil {
			return err
		}
		return tx.Create(token).Error
	})
}

func (r *TokenRepository) GetByValue(ctx context.Context, value string) (*models.Token, error) {
	var token models.Token
	err := r.db.WithContext(ctx).Where("token = ?", value).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &token, nil
}

func (r *TokenRepository) CountByEmail(ctx context.Context, email string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Token{}).Where("email = ?", email).Count(&count).Error
	return count, err
}

func (r *TokenRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&models.Token{}, "id = ?", id).Error
}
