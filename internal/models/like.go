package models

// Like is a directed edge between two users, keyed on the pair
type Like struct {
	SourceUserID string `gorm:"type:varchar(36);primaryKey" json:"sourceUserId"`
	TargetUserID string `gorm:"type:varchar(36);primaryKey;index" json:"targetUserId"`
}
