package testutil

import (
	"testing"
	"time"

	"github.com/heartline/heartline/internal/models"
	"github.com/heartline/heartline/internal/utils"
	"gorm.io/gorm"
)

// TestPassword is the plain password of every fixture user
const TestPassword = "Test123456"

// CreateTestUser stores a verified user with a member profile
func CreateTestUser(t *testing.T, db *gorm.DB, id, name, email string, role models.Role) *models.User {
	t.Helper()

	hashed, err := utils.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	verified := time.Now()
	user := &models.User{
		ID:              id,
		Name:            name,
		Email:           email,
		PasswordHash:    hashed,
		EmailVerified:   &verified,
		Role:            role,
		ProfileComplete: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", name, err)
	}

	member := &models.Member{
		UserID:      user.ID,
		Name:        name,
		DateOfBirth: time.Date(1995, time.March, 10, 0, 0, 0, 0, time.UTC),
		Gender:      "female",
		City:        "Lisbon",
		Country:     "Portugal",
		Description: "Fixture member",
	}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("Failed to create member %s: %v", name, err)
	}
	user.Member = member

	return user
}

// SetTestImage gives both the user and the member an avatar
func SetTestImage(t *testing.T, db *gorm.DB, user *models.User, url string) {
	t.Helper()
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Update("image", url).Error; err != nil {
		t.Fatalf("Failed to set user image: %v", err)
	}
	if err := db.Model(&models.Member{}).Where("user_id = ?", user.ID).Update("image", url).Error; err != nil {
		t.Fatalf("Failed to set member image: %v", err)
	}
	user.Image = &url
}

// CreateTestMessage stores a message directly, bypassing the service
func CreateTestMessage(t *testing.T, db *gorm.DB, senderID, recipientID, text string, created time.Time) *models.Message {
	t.Helper()
	msg := &models.Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		Text:        text,
		CreatedAt:   created,
	}
	if err := db.Create(msg).Error; err != nil {
		t.Fatalf("Failed to create message: %v", err)
	}
	return msg
}

// CreateTestPhoto stores a photo for a member
func CreateTestPhoto(t *testing.T, db *gorm.DB, memberID, url string, approved bool) *models.Photo {
	t.Helper()
	publicID := "public-" + url
	photo := &models.Photo{
		URL:        url,
		PublicID:   &publicID,
		IsApproved: approved,
		MemberID:   memberID,
	}
	if err := db.Create(photo).Error; err != nil {
		t.Fatalf("Failed to create photo: %v", err)
	}
	return photo
}
