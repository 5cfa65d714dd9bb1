package service_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/heartline/heartline/internal/models"
	"github.com/heartline/heartline/internal/repository"
	"github.com/heartline/heartline/internal/service"
	"github.com/heartline/heartline/internal/testutil"
	"github.com/heartline/heartline/internal/utils"
	"github.com/heartline/heartline/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var tokenInLink = regexp.MustCompile(`token=([0-9a-f]+)`)

type AuthServiceTestSuite struct {
	suite.Suite
	testDB      *testutil.TestDatabase
	mailer      *testutil.RecordingMailer
	authService *service.AuthService
}

func (s *AuthServiceTestSuite) SetupSuite() {
	logger.Init(false)
	s.testDB = testutil.SetupTestDatabase(s.T())
}

func (s *AuthServiceTestSuite) TearDownSuite() {
	s.testDB.Teardown(s.T())
}

func (s *AuthServiceTestSuite) SetupTest() {
	testutil.CleanDatabase(s.T(), s.testDB.DB)

	s.mailer = &testutil.RecordingMailer{}
	tokens := service.NewTokenService(repository.NewTokenRepository(s.testDB.DB))
	s.authService = service.NewAuthService(
		repository.NewUserRepository(s.testDB.DB),
		tokens,
		s.mailer,
		"test-secret",
		time.Hour,
		"http://localhost:3000",
	)
}

func (s *AuthServiceTestSuite) registerInput(email string) service.RegisterInput {
	return service.RegisterInput{
		Name:        "Ana",
		Email:       email,
		Password:    "secret123",
		Gender:      "female",
		DateOfBirth: time.Date(1996, time.May, 4, 0, 0, 0, 0, time.UTC),
		Description: "Hello there",
		City:        "Lisbon",
		Country:     "Portugal",
	}
}

// lastToken pulls the token out of the most recent email
func (s *AuthServiceTestSuite) lastToken() string {
	sent := s.mailer.Sent()
	require.NotEmpty(s.T(), sent)
	match := tokenInLink.FindStringSubmatch(sent[len(sent)-1].HTML)
	require.Len(s.T(), match, 2)
	return match[1]
}

func (s *AuthServiceTestSuite) TestRegisterVerifyLogin() {
	ctx := context.Background()

	user, err := s.authService.Register(ctx, s.registerInput("Ana@Example.com "))
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "ana@example.com", user.Email)
	assert.Equal(s.T(), models.RoleMember, user.Role)

	var member models.Member
	require.NoError(s.T(), s.testDB.DB.First(&member, "user_id = ?", user.ID).Error)
	assert.Equal(s.T(), "Lisbon", member.City)

	// unverified login sends a fresh link
	_, _, err = s.authService.Login(ctx, service.LoginInput{Email: "ana@example.com", Password: "secret123"})
	assert.ErrorIs(s.T(), err, service.ErrEmailNotVerified)
	assert.Len(s.T(), s.mailer.Sent(), 2)

	require.NoError(s.T(), s.authService.VerifyEmail(ctx, s.lastToken()))

	loggedIn, token, err := s.authService.Login(ctx, service.LoginInput{Email: "ana@example.com", Password: "secret123"})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), user.ID, loggedIn.ID)

	claims, err := utils.ValidateToken(token, "test-secret")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), user.ID, claims.UserID)
}

func (s *AuthServiceTestSuite) TestRegisterDuplicateEmail() {
	testutil.CreateTestUser(s.T(), s.testDB.DB, "u1", "Alice", "alice@example.com", models.RoleMember)

	_, err := s.authService.Register(context.Background(), s.registerInput("alice@example.com"))
	assert.ErrorIs(s.T(), err, service.ErrEmailAlreadyExists)
}

func (s *AuthServiceTestSuite) TestRegisterValidation() {
	input := s.registerInput("not-an-email")
	input.Password = "123"

	_, err := s.authService.Register(context.Background(), input)
	verr, ok := service.AsValidationError(err)
	require.True(s.T(), ok)
	assert.Contains(s.T(), verr.Fields, "email")
	assert.Contains(s.T(), verr.Fields, "password")
}

func (s *AuthServiceTestSuite) TestLoginInvalidCredentials() {
	testutil.CreateTestUser(s.T(), s.testDB.DB, "u1", "Alice", "alice@example.com", models.RoleMember)

	_, _, err := s.authService.Login(context.Background(), service.LoginInput{Email: "alice@example.com", Password: "wrong"})
	assert.ErrorIs(s.T(), err, service.ErrInvalidCredentials)

	_, _, err = s.authService.Login(context.Background(), service.LoginInput{Email: "nobody@example.com", Password: "wrong"})
	assert.ErrorIs(s.T(), err, service.ErrInvalidCredentials)
}

func (s *AuthServiceTestSuite) TestOnlyLatestTokenIsValid() {
	ctx := context.Background()
	_, err := s.authService.Register(ctx, s.registerInput("ana@example.com"))
	require.NoError(s.T(), err)
	first := s.lastToken()

	_, _, err = s.authService.Login(ctx, service.LoginInput{Email: "ana@example.com", Password: "secret123"})
	require.ErrorIs(s.T(), err, service.ErrEmailNotVerified)

	assert.ErrorIs(s.T(), s.authService.VerifyEmail(ctx, first), service.ErrInvalidToken)
	assert.NoError(s.T(), s.authService.VerifyEmail(ctx, s.lastToken()))

	var count int64
	s.testDB.DB.Model(&models.Token{}).Where("email = ?", "ana@example.com").Count(&count)
	assert.Equal(s.T(), int64(0), count)
}

func (s *AuthServiceTestSuite) TestExpiredToken() {
	s.testDB.DB.Create(&models.Token{
		Email:   "ana@example.com",
		Token:   "stale",
		Expires: time.Now().Add(-time.Minute),
		Type:    models.TokenTypeVerification,
	})

	assert.ErrorIs(s.T(), s.authService.VerifyEmail(context.Background(), "stale"), service.ErrTokenExpired)
}

func (s *AuthServiceTestSuite) TestPasswordReset() {
	ctx := context.Background()
	testutil.CreateTestUser(s.T(), s.testDB.DB, "u1", "Alice", "alice@example.com", models.RoleMember)

	assert.ErrorIs(s.T(), s.authService.RequestPasswordReset(ctx, "nobody@example.com"), service.ErrUserNotFound)

	require.NoError(s.T(), s.authService.RequestPasswordReset(ctx, "alice@example.com"))
	token := s.lastToken()

	// a reset token cannot verify an email
	assert.ErrorIs(s.T(), s.authService.VerifyEmail(ctx, token), service.ErrInvalidToken)

	require.NoError(s.T(), s.authService.ResetPassword(ctx, service.ResetPasswordInput{Token: token, Password: "newpass123"}))

	_, _, err := s.authService.Login(ctx, service.LoginInput{Email: "alice@example.com", Password: "newpass123"})
	assert.NoError(s.T(), err)

	err = s.authService.ResetPassword(ctx, service.ResetPasswordInput{Token: token, Password: "again12345"})
	assert.ErrorIs(s.T(), err, service.ErrInvalidToken)
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
