package service

import (
	"context"
	"fmt"
	"time"

	"github.com/heartline/heartline/internal/models"
	"github.com/heartline/heartline/internal/repository"
	"github.com/heartline/heartline/internal/utils"
)

const (
	tokenBytes    = 32
	tokenLifetime = 24 * time.Hour
)

// TokenService issues the single-use tokens behind emailed links
type TokenService struct {
	tokenRepo *repository.TokenRepository
	now       func() time.Time
}

func NewTokenService(tokenRepo *repository.TokenRepository) *TokenService {
	return &TokenService{tokenRepo: tokenRepo, now: time.Now}
}

// GenerateToken replaces any token held by email with a fresh one
func (s *TokenService) GenerateToken(ctx context.Context, email string, tokenType models.TokenType) (*models.Token, error) {
	value, err := utils.RandomToken(tokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	token := &models.Token{
		Email:   email,
		Token:   value,
		Expires: s.now().Add(tokenLifetime),
		Type:    tokenType,
	}
	if err := s.tokenRepo.Replace(ctx, token); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}
	return token, nil
}

// Consume checks a token of the given type and deletes it
func (s *TokenService) Consume(ctx context.Context, value string, tokenType models.TokenType) (*models.Token, error) {
	token, err := s.tokenRepo.GetByValue(ctx, value)
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}
	if token == nil || token.Type != tokenType {
		return nil, ErrInvalidToken
	}
	if token.IsExpired(s.now()) {
		return nil, ErrTokenExpired
	}

	if err := s.tokenRepo.Delete(ctx, token.ID); err != nil {
		return nil, fmt.Errorf("delete token: %w", err)
	}
	return token, nil
}
