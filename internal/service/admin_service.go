package service

import (
	"context"
	"fmt"

	"github.com/heartline/heartline/internal/models"
	"github.com/heartline/heartline/internal/repository"
	"github.com/heartline/heartline/internal/storage"
	"github.com/heartline/heartline/pkg/logger"
	"go.uber.org/zap"
)

// AdminService moderates uploaded photos. Every call checks the role itself
// so it stays safe behind any route.
type AdminService struct {
	photoRepo  *repository.PhotoRepository
	memberRepo *repository.MemberRepository
	userRepo   *repository.UserRepository
	images     storage.ImageHost
}

func NewAdminService(
	photoRepo *repository.PhotoRepository,
	memberRepo *repository.MemberRepository,
	userRepo *repository.UserRepository,
	images storage.ImageHost,
) *AdminService {
	return &AdminService{
		photoRepo:  photoRepo,
		memberRepo: memberRepo,
		userRepo:   userRepo,
		images:     images,
	}
}

func (s *AdminService) GetUnapprovedPhotos(ctx context.Context, role models.Role) ([]models.Photo, error) {
	if role != models.RoleAdmin {
		return nil, ErrForbidden
	}
	return s.photoRepo.ListUnapproved(ctx)
}

// ApprovePhoto approves the photo and makes it the avatar of a member who has none
func (s *AdminService) ApprovePhoto(ctx context.Context, role models.Role, photoID string) error {
	if role != models.RoleAdmin {
		return ErrForbidden
	}

	photo, member, err := s.photoWithMember(ctx, photoID)
	if err != nil {
		return err
	}

	if err := s.photoRepo.Approve(ctx, photo.ID); err != nil {
		return fmt.Errorf("approve photo: %w", err)
	}

	if member.Image == nil {
		if err := s.userRepo.SetImage(ctx, member.UserID, &photo.URL); err != nil {
			return fmt.Errorf("set main image: %w", err)
		}
	}

	logger.Log.Info("Photo approved", zap.String("photo_id", photo.ID))
	return nil
}

func (s *AdminService) RejectPhoto(ctx context.Context, role models.Role, photoID string) error {
	if role != models.RoleAdmin {
		return ErrForbidden
	}

	photo, member, err := s.photoWithMember(ctx, photoID)
	if err != nil {
		return err
	}

	if err := removePhoto(ctx, s.images, s.photoRepo, s.userRepo, member.UserID, photo); err != nil {
		return err
	}

	logger.Log.Info("Photo rejected", zap.String("photo_id", photo.ID))
	return nil
}

func (s *AdminService) photoWithMember(ctx context.Context, photoID string) (*models.Photo, *models.Member, error) {
	photo, err := s.photoRepo.GetByID(ctx, photoID)
	if err != nil {
		return nil, nil, fmt.Errorf("get photo: %w", err)
	}
	if photo == nil {
		return nil, nil, ErrPhotoNotFound
	}

	member, err := s.memberRepo.GetByID(ctx, photo.MemberID)
	if err != nil {
		return nil, nil, fmt.Errorf("get member: %w", err)
	}
	if member == nil {
		return nil, nil, ErrMemberNotFound
	}
	return photo, member, nil
}
