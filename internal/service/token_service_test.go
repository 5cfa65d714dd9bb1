package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/heartline/heartline/internal/models"
	"github.com/heartline/heartline/internal/repository"
	"github.com/heartline/heartline/internal/service"
	"github.com/heartline/heartline/internal/testutil"
	"github.com/heartline/heartline/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type TokenServiceTestSuite struct {
	suite.Suite
	testDB       *testutil.TestDatabase
	tokenRepo    *repository.TokenRepository
	tokenService *service.TokenService
}

func (s *TokenServiceTestSuite) SetupSuite() {
	logger.Init(false)
	s.testDB = testutil.SetupTestDatabase(s.T())
	s.tokenRepo = repository.NewTokenRepository(s.testDB.DB)
	s.tokenService = service.NewTokenService(s.tokenRepo)
}

func (s *TokenServiceTestSuite) TearDownSuite() {
	s.testDB.Teardown(s.T())
}

func (s *TokenServiceTestSuite) SetupTest() {
	testutil.CleanDatabase(s.T(), s.testDB.DB)
}

func (s *TokenServiceTestSuite) TestGenerateReplacesPreviousToken() {
	ctx := context.Background()

	first, err := s.tokenService.GenerateToken(ctx, "lisa@test.com", models.TokenTypeVerification)
	require.NoError(s.T(), err)
	second, err := s.tokenService.GenerateToken(ctx, "lisa@test.com", models.TokenTypePasswordReset)
	require.NoError(s.T(), err)

	assert.Len(s.T(), second.Token, 64)
	assert.NotEqual(s.T(), first.Token, second.Token)
	assert.WithinDuration(s.T(), time.Now().Add(24*time.Hour), second.Expires, time.Minute)

	count, err := s.tokenRepo.CountByEmail(ctx, "lisa@test.com")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), count)

	_, err = s.tokenService.Consume(ctx, first.Token, models.TokenTypeVerification)
	assert.ErrorIs(s.T(), err, service.ErrInvalidToken)
}

func (s *TokenServiceTestSuite) TestConsumeIsSingleUse() {
	ctx := context.Background()
	token, err := s.tokenService.GenerateToken(ctx, "lisa@test.com", models.TokenTypeVerification)
	require.NoError(s.T(), err)

	// wrong purpose
	_, err = s.tokenService.Consume(ctx, token.Token, models.TokenTypePasswordReset)
	assert.ErrorIs(s.T(), err, service.ErrInvalidToken)

	consumed, err := s.tokenService.Consume(ctx, token.Token, models.TokenTypeVerification)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "lisa@test.com", consumed.Email)

	_, err = s.tokenService.Consume(ctx, token.Token, models.TokenTypeVerification)
	assert.ErrorIs(s.T(), err, service.ErrInvalidToken)

	count, err := s.tokenRepo.CountByEmail(ctx, "lisa@test.com")
	require.NoError(s.T(), err)
	assert.Zero(s.T(), count)
}

func (s *TokenServiceTestSuite) TestConsumeExpired() {
	ctx := context.Background()
	expired := &models.Token{
		Email:   "lisa@test.com",
		Token:   "abc123",
		Expires: time.Now().Add(-time.Minute),
		Type:    models.TokenTypeVerification,
	}
	require.NoError(s.T(), s.tokenRepo.Replace(ctx, expired))

	_, err := s.tokenService.Consume(ctx, "abc123", models.TokenTypeVerification)
	assert.ErrorIs(s.T(), err, service.ErrTokenExpired)
}

func TestTokenServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TokenServiceTestSuite))
}
