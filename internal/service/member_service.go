package service

import (
	"context"
	"fmt"
	"time"

	"github.com/heartline/heartline/internal/models"
	"github.com/heartline/heartline/internal/repository"
	"github.com/heartline/heartline/pkg/logger"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// MemberParams are the browse filters. Zero values fall back to defaults.
type MemberParams struct {
	MinAge     int      `form:"minAge" json:"minAge" validate:"omitempty,min=18,max=100"`
	MaxAge     int      `form:"maxAge" json:"maxAge" validate:"omitempty,min=18,max=100"`
	Gender     []string `form:"gender" json:"gender" validate:"omitempty,dive,oneof=male female"`
	OrderBy    string   `form:"orderBy" json:"orderBy" validate:"omitempty,oneof=updated created"`
	WithPhoto  *bool    `form:"withPhoto" json:"withPhoto"`
	PageNumber int      `form:"pageNumber" json:"pageNumber" validate:"omitempty,min=1"`
	PageSize   int      `form:"pageSize" json:"pageSize" validate:"omitempty,min=1,max=50"`
}

// WithDefaults fills the unset filters
func (p MemberParams) WithDefaults() MemberParams {
	if p.MinAge == 0 {
		p.MinAge = 18
	}
	if p.MaxAge == 0 {
		p.MaxAge = 100
	}
	if len(p.Gender) == 0 {
		p.Gender = []string{"male", "female"}
	}
	if p.OrderBy == "" {
		p.OrderBy = "updated"
	}
	if p.WithPhoto == nil {
		p.WithPhoto = lo.ToPtr(true)
	}
	if p.PageNumber == 0 {
		p.PageNumber = 1
	}
	if p.PageSize == 0 {
		p.PageSize = 12
	}
	return p
}

// UpdateMemberInput holds the editable profile fields
type UpdateMemberInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"required"`
	City        string `json:"city" validate:"required,max=100"`
	Country     string `json:"country" validate:"required,max=100"`
}

type MemberService struct {
	memberRepo *repository.MemberRepository
	photoRepo  *repository.PhotoRepository
	userRepo   *repository.UserRepository
	now        func() time.Time
}

func NewMemberService(
	memberRepo *repository.MemberRepository,
	photoRepo *repository.PhotoRepository,
	userRepo *repository.UserRepository,
) *MemberService {
	return &MemberService{
		memberRepo: memberRepo,
		photoRepo:  photoRepo,
		userRepo:   userRepo,
		now:        time.Now,
	}
}

// GetMembers lists everyone but userID matching the filters
func (s *MemberService) GetMembers(ctx context.Context, userID string, params MemberParams) (*PaginatedResponse[models.Member], error) {
	if err := validateStruct(params); err != nil {
		return nil, err
	}
	p := params.WithDefaults()

	// someone who is exactly maxAge still counts, so go back maxAge+1 years
	now := s.now().UTC()
	filter := repository.MemberFilter{
		ExcludeUserID: userID,
		BornAfter:     now.AddDate(-(p.MaxAge + 1), 0, 0),
		BornBefore:    now.AddDate(-p.MinAge, 0, 0),
		Genders:       p.Gender,
		OrderBy:       p.OrderBy,
		WithPhoto:     *p.WithPhoto,
		Offset:        (p.PageNumber - 1) * p.PageSize,
		Limit:         p.PageSize,
	}

	members, total, err := s.memberRepo.List(ctx, filter)
	if err != nil {
		logger.Log.Error("Failed to list members", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("list members: %w", err)
	}

	return &PaginatedResponse[models.Member]{Items: members, TotalCount: total}, nil
}

func (s *MemberService) GetMemberByUserID(ctx context.Context, userID string) (*models.Member, error) {
	member, err := s.memberRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}
	return member, nil
}

// GetMemberPhotos returns approved photos, plus pending ones when
// includeUnapproved (the owner or an admin looking)
func (s *MemberService) GetMemberPhotos(ctx context.Context, userID string, includeUnapproved bool) ([]models.Photo, error) {
	member, err := s.GetMemberByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.photoRepo.ListByMember(ctx, member.ID, includeUnapproved)
}

// UpdateMemberProfile edits the profile and keeps the user's display name in sync
func (s *MemberService) UpdateMemberProfile(ctx context.Context, userID string, input UpdateMemberInput) (*models.Member, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	if _, err := s.GetMemberByUserID(ctx, userID); err != nil {
		return nil, err
	}

	err := s.memberRepo.UpdateProfile(ctx, userID, map[string]any{
		"name":        input.Name,
		"description": input.Description,
		"city":        input.City,
		"country":     input.Country,
	})
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if err := s.userRepo.UpdateName(ctx, userID, input.Name); err != nil {
		return nil, fmt.Errorf("update user name: %w", err)
	}

	logger.Log.Info("Member profile updated", zap.String("user_id", userID))

	return s.GetMemberByUserID(ctx, userID)
}

func (s *MemberService) UpdateLastActive(ctx context.Context, userID string) error {
	if err := s.memberRepo.TouchLastActive(ctx, userID, s.now()); err != nil {
		return fmt.Errorf("update last active: %w", err)
	}
	return nil
}
