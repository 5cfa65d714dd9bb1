package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/heartline/heartline/internal/mail"
	"github.com/heartline/heartline/internal/models"
	"github.com/heartline/heartline/internal/repository"
	"github.com/heartline/heartline/internal/utils"
	"github.com/heartline/heartline/pkg/logger"
	"go.uber.org/zap"
)

// RegisterInput is the sign-up form: account plus the initial profile
type RegisterInput struct {
	Name        string    `json:"name" validate:"required,max=100"`
	Email       string    `json:"email" validate:"required,email,max=100"`
	Password    string    `json:"password" validate:"required,min=6,max=128"`
	Gender      string    `json:"gender" validate:"required,oneof=male female"`
	DateOfBirth time.Time `json:"dateOfBirth" validate:"required"`
	Description string    `json:"description" validate:"required"`
	City        string    `json:"city" validate:"required,max=100"`
	Country     string    `json:"country" validate:"required,max=100"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ResetPasswordInput struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

type AuthService struct {
	userRepo      *repository.UserRepository
	tokens        *TokenService
	mailer        mail.Sender
	jwtSecret     string
	jwtExpiration time.Duration
	appBaseURL    string
	now           func() time.Time
}

func NewAuthService(
	userRepo *repository.UserRepository,
	tokens *TokenService,
	mailer mail.Sender,
	jwtSecret string,
	jwtExpiration time.Duration,
	appBaseURL string,
) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		tokens:        tokens,
		mailer:        mailer,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		appBaseURL:    appBaseURL,
		now:           time.Now,
	}
}

// Register creates the user and their member profile, then emails a
// verification link. The account cannot log in until verified.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	start := time.Now()
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	// 1. Validate input
	if err := validateStruct(input); err != nil {
		logger.Log.Warn("Registration validation failed",
			zap.String("email", input.Email),
			zap.Error(err),
		)
		return nil, err
	}

	// 2. Check if email already exists
	existing, err := s.userRepo.GetUserByEmail(ctx, input.Email)
	if err != nil {
		logger.Log.Error("Failed to check email existence",
			zap.String("email", input.Email),
			zap.Error(err),
		)
		return nil, err
	}
	if existing != nil {
		logger.Log.Warn("Email already exists", zap.String("email", input.Email))
		return nil, ErrEmailAlreadyExists
	}

	// 3. Hash password (Argon2)
	hashStart := time.Now()
	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		logger.Log.Error("Failed to hash password", zap.Error(err))
		return nil, err
	}
	hashDuration := time.Since(hashStart)

	// 4. Create user with member profile
	user := &models.User{
		Name:            input.Name,
		Email:           input.Email,
		PasswordHash:    hashed,
		Role:            models.RoleMember,
		ProfileComplete: true,
	}
	member := &models.Member{
		Name:        input.Name,
		DateOfBirth: input.DateOfBirth,
		Gender:      input.Gender,
		Description: input.Description,
		City:        input.City,
		Country:     input.Country,
	}
	if err := s.userRepo.CreateWithMember(ctx, user, member); err != nil {
		logger.Log.Error("Failed to create user in database",
			zap.String("email", input.Email),
			zap.Error(err),
		)
		return nil, err
	}

	// 5. Send verification email
	if err := s.sendVerification(ctx, user.Email); err != nil {
		return nil, err
	}

	logger.Log.Info("User registered successfully",
		zap.String("user_id", user.ID),
		zap.String("email", user.Email),
		zap.Duration("hash_duration", hashDuration),
		zap.Duration("total_duration", time.Since(start)),
	)

	return user, nil
}

// Login checks the credentials and issues a session token. An unverified
// account gets a fresh verification email and ErrEmailNotVerified.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*models.User, string, error) {
	start := time.Now()
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if err := validateStruct(input); err != nil {
		return nil, "", err
	}

	// 1. Get user by email
	user, err := s.userRepo.GetUserByEmail(ctx, input.Email)
	if err != nil {
		logger.Log.Error("Failed to get user by email",
			zap.String("email", input.Email),
			zap.Error(err),
		)
		return nil, "", err
	}
	if user == nil || user.PasswordHash == "" {
		logger.Log.Warn("Login failed: user not found", zap.String("email", input.Email))
		return nil, "", ErrInvalidCredentials
	}

	// 2. Verify password
	verifyStart := time.Now()
	valid, err := utils.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		logger.Log.Error("Failed to verify password",
			zap.String("email", input.Email),
			zap.Error(err),
		)
		return nil, "", err
	}
	verifyDuration := time.Since(verifyStart)

	if !valid {
		logger.Log.Warn("Login failed: invalid password",
			zap.String("email", input.Email),
			zap.String("user_id", user.ID),
		)
		return nil, "", ErrInvalidCredentials
	}

	// 3. Require a verified email
	if !user.IsVerified() {
		if err := s.sendVerification(ctx, user.Email); err != nil {
			return nil, "", err
		}
		return nil, "", ErrEmailNotVerified
	}

	// 4. Generate JWT token
	token, err := utils.GenerateToken(user, s.jwtSecret, s.jwtExpiration)
	if err != nil {
		logger.Log.Error("Failed to generate JWT token",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
		return nil, "", err
	}

	logger.Log.Info("User logged in successfully",
		zap.String("user_id", user.ID),
		zap.Duration("password_verify_duration", verifyDuration),
		zap.Duration("total_duration", time.Since(start)),
	)

	return user, token, nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, value string) error {
	token, err := s.tokens.Consume(ctx, value, models.TokenTypeVerification)
	if err != nil {
		return err
	}

	user, err := s.userRepo.GetUserByEmail(ctx, token.Email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err := s.userRepo.MarkEmailVerified(ctx, user.Email, s.now()); err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}

	logger.Log.Info("Email verified", zap.String("user_id", user.ID))
	return nil
}

// RequestPasswordReset emails a reset link. Unknown addresses get ErrUserNotFound.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	token, err := s.tokens.GenerateToken(ctx, email, models.TokenTypePasswordReset)
	if err != nil {
		return err
	}

	if err := s.mailer.Send(ctx, mail.PasswordResetEmail(email, token.Token, s.appBaseURL)); err != nil {
		logger.Log.Error("Failed to send password reset email",
			zap.String("email", email),
			zap.Error(err),
		)
		return fmt.Errorf("send reset email: %w", err)
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	if err := validateStruct(input); err != nil {
		return err
	}

	token, err := s.tokens.Consume(ctx, input.Token, models.TokenTypePasswordReset)
	if err != nil {
		return err
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, token.Email, hashed); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	logger.Log.Info("Password reset", zap.String("email", token.Email))
	return nil
}

// GetAllUsers returns every account, newest first
func (s *AuthService) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.userRepo.GetAllUsers(ctx)
	if err != nil {
		logger.Log.Error("Failed to fetch all users", zap.Error(err))
		return nil, err
	}
	return users, nil
}

func (s *AuthService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *AuthService) sendVerification(ctx context.Context, email string) error {
	token, err := s.tokens.GenerateToken(ctx, email, models.TokenTypeVerification)
	if err != nil {
		logger.Log.Error("Failed to generate verification token",
			zap.String("email", email),
			zap.Error(err),
		)
		return err
	}

	if err := s.mailer.Send(ctx, mail.VerificationEmail(email, token.Token, s.appBaseURL)); err != nil {
		logger.Log.Error("Failed to send verification email",
			zap.String("email", email),
			zap.Error(err),
		)
		return fmt.Errorf("send verification email: %w", err)
	}
	return nil
}
