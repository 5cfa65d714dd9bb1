package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TokenType string

const (
	TokenTypeVerification  TokenType = "VERIFICATION"
	TokenTypePasswordReset TokenType = "PASSWORD_RESET"
)

// Token is a short-lived email token. At most one exists per email.
type Token struct {
	ID      string    `gorm:"type:varchar(36);primaryKey"`
	Email   string    `gorm:"type:varchar(100);not null;index"`
	Token   string    `gorm:"type:varchar(128);uniqueIndex;not null"`
	Expires time.Time `gorm:"not null"`
	Type    TokenType `gorm:"type:varchar(20);not null"`
}

func (t *Token) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

func (t *Token) IsExpired(now time.Time) bool {
	return now.After(t.Expires)
}
