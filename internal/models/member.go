package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Member is the dating profile attached 1:1 to a User
type Member struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID      string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"userId"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	DateOfBirth time.Time `gorm:"not null;index" json:"dateOfBirth"`
	Gender      string    `gorm:"type:varchar(20);not null;index" json:"gender"`
	Description string    `gorm:"type:text" json:"description"`
	City        string    `gorm:"type:varchar(100)" json:"city"`
	Country     string    `gorm:"type:varchar(100)" json:"country"`
	Image       *string   `json:"image,omitempty"`
	LastActive  time.Time `gorm:"index" json:"lastActive"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Photos []Photo `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE" json:"photos,omitempty"`
}

func (m *Member) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.LastActive.IsZero() {
		m.LastActive = time.Now()
	}
	return nil
}

// Age returns the member's age in whole years at the given instant
func (m *Member) Age(at time.Time) int {
	age := at.Year() - m.DateOfBirth.Year()
	if at.YearDay() < m.DateOfBirth.YearDay() {
		age--
	}
	return age
}
