package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Photo belongs to exactly one Member.
// User uploads start unapproved; seed data is created approved.
type Photo struct {
	ID         string  `gorm:"type:varchar(36);primaryKey" json:"id"`
	URL        string  `gorm:"type:text;not null" json:"url"`
	PublicID   *string `gorm:"type:varchar(255)" json:"publicId,omitempty"`
	IsApproved bool    `gorm:"default:false;index" json:"isApproved"`
	MemberID   string  `gorm:"type:varchar(36);not null;index" json:"memberId"`
}

func (p *Photo) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
