package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/heartline/heartline/internal/config"
	"github.com/heartline/heartline/internal/database"
	"github.com/heartline/heartline/internal/models"
	"github.com/heartline/heartline/internal/repository"
	"github.com/heartline/heartline/internal/utils"
	"github.com/heartline/heartline/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type sampleMember struct {
	name        string
	email       string
	gender      string
	dateOfBirth string
	city        string
	country     string
	description string
	image       string
}

var sampleMembers = []sampleMember{
	{"Lisa", "lisa@test.com", "female", "1994-02-21", "London", "UK", "Runner, reader, terrible at karaoke.", "https://randomuser.me/api/portraits/women/1.jpg"},
	{"Karen", "karen@test.com", "female", "1990-07-09", "Manchester", "UK", "Looking for someone to share long walks and short queues.", "https://randomuser.me/api/portraits/women/2.jpg"},
	{"Ana", "ana@test.com", "female", "1998-11-30", "Lisbon", "Portugal", "Pastel de nata connoisseur.", "https://randomuser.me/api/portraits/women/3.jpg"},
	{"Todd", "todd@test.com", "male", "1992-04-15", "Dublin", "Ireland", "Weekend climber, weekday coder.", "https://randomuser.me/api/portraits/men/1.jpg"},
	{"Porter", "porter@test.com", "male", "1987-09-03", "Edinburgh", "UK", "I cook better than I dance.", "https://randomuser.me/api/portraits/men/2.jpg"},
	{"Mateo", "mateo@test.com", "male", "1996-01-12", "Madrid", "Spain", "Football on Sundays, museums on Saturdays.", "https://randomuser.me/api/portraits/men/3.jpg"},
}

func main() {
	if err := logger.Init(true); err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load()
	db, err := database.Connect(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to connect database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Log.Fatal("Failed to migrate database", zap.Error(err))
	}

	ctx := context.Background()
	userRepo := repository.NewUserRepository(db)

	// Get admin credentials from env
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		logger.Log.Fatal("Missing environment variables: ADMIN_EMAIL, ADMIN_PASSWORD")
	}

	samplePassword := os.Getenv("SEED_PASSWORD")
	if samplePassword == "" {
		samplePassword = "password"
	}

	if err := seedUser(ctx, userRepo, sampleMember{
		name:        "Admin",
		email:       adminEmail,
		gender:      "female",
		dateOfBirth: "1990-01-01",
		city:        "London",
		country:     "UK",
		description: "Moderator account",
	}, adminPassword, models.RoleAdmin); err != nil {
		logger.Log.Fatal("Failed to seed admin", zap.Error(err))
	}

	for _, sample := range sampleMembers {
		if err := seedUser(ctx, userRepo, sample, samplePassword, models.RoleMember); err != nil {
			logger.Log.Fatal("Failed to seed member", zap.String("email", sample.email), zap.Error(err))
		}
	}

	if err := seedPhotos(db); err != nil {
		logger.Log.Fatal("Failed to seed photos", zap.Error(err))
	}

	logger.Log.Info("Seed completed", zap.Int("members", len(sampleMembers)))
}

// seedUser creates a verified account with its profile, skipping existing emails
func seedUser(ctx context.Context, userRepo *repository.UserRepository, sample sampleMember, password string, role models.Role) error {
	existing, err := userRepo.GetUserByEmail(ctx, sample.email)
	if err != nil {
		return err
	}
	if existing != nil {
		logger.Log.Info("User already exists", zap.String("email", sample.email))
		return nil
	}

	// Hash password using utils.HashPassword (Argon2id)
	passwordHash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	dob, err := time.Parse(time.DateOnly, sample.dateOfBirth)
	if err != nil {
		return err
	}

	verified := time.Now()
	user := &models.User{
		Name:            sample.name,
		Email:           sample.email,
		PasswordHash:    passwordHash,
		EmailVerified:   &verified,
		Role:            role,
		ProfileComplete: true,
	}
	member := &models.Member{
		Name:        sample.name,
		DateOfBirth: dob,
		Gender:      sample.gender,
		Description: sample.description,
		City:        sample.city,
		Country:     sample.country,
	}
	if sample.image != "" {
		user.Image = &sample.image
		member.Image = &sample.image
	}

	if err := userRepo.CreateWithMember(ctx, user, member); err != nil {
		return err
	}

	logger.Log.Info("User created",
		zap.String("email", user.Email),
		zap.String("role", string(user.Role)),
	)
	return nil
}

// seedPhotos gives every member with an avatar a matching approved photo
func seedPhotos(db *gorm.DB) error {
	var members []models.Member
	if err := db.Where("image IS NOT NULL").Find(&members).Error; err != nil {
		return err
	}

	for _, member := range members {
		var photo models.Photo
		err := db.Where("member_id = ? AND url = ?", member.ID, *member.Image).First(&photo).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		photo = models.Photo{
			URL:        *member.Image,
			IsApproved: true,
			MemberID:   member.ID,
		}
		if err := db.Create(&photo).Error; err != nil {
			return err
		}
	}
	return nil
}
