package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleMember Role = "MEMBER"
	RoleAdmin  Role = "ADMIN"
)

type User struct {
	ID              string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name            string     `gorm:"type:varchar(100);not null" json:"name"`
	Email           string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	PasswordHash    string     `gorm:"type:varchar(255)" json:"-"` // Never expose password hash in JSON
	EmailVerified   *time.Time `json:"emailVerified,omitempty"`
	Image           *string    `json:"image,omitempty"`
	Role            Role       `gorm:"type:varchar(20);not null;default:'MEMBER'" json:"role"`
	ProfileComplete bool       `gorm:"default:false" json:"profileComplete"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`

	Member *Member `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"member,omitempty"`
}

// BeforeCreate assigns a random id when the caller did not provide one
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// IsVerified reports whether the email verification step has been completed
func (u *User) IsVerified() bool {
	return u.EmailVerified != nil
}
