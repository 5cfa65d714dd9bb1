package service

import (
	"context"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/heartline/heartline/internal/models"
	"github.com/heartline/heartline/internal/repository"
	"github.com/heartline/heartline/internal/storage"
	"github.com/heartline/heartline/pkg/logger"
	"go.uber.org/zap"
)

// MaxImageSize caps a single upload
const MaxImageSize = 5 << 20

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

type PhotoService struct {
	photoRepo  *repository.PhotoRepository
	memberRepo *repository.MemberRepository
	userRepo   *repository.UserRepository
	images     storage.ImageHost
}

func NewPhotoService(
	photoRepo *repository.PhotoRepository,
	memberRepo *repository.MemberRepository,
	userRepo *repository.UserRepository,
	images storage.ImageHost,
) *PhotoService {
	return &PhotoService{
		photoRepo:  photoRepo,
		memberRepo: memberRepo,
		userRepo:   userRepo,
		images:     images,
	}
}

// AddImage uploads an image for the user's member profile. New photos wait
// for moderation before anyone else can see them.
func (s *PhotoService) AddImage(ctx context.Context, userID string, data []byte) (*models.Photo, error) {
	if len(data) > MaxImageSize {
		return nil, ErrImageTooLarge
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), allowedImageTypes...) {
		logger.Log.Warn("Rejected upload",
			zap.String("user_id", userID),
			zap.String("mime", mtype.String()),
		)
		return nil, ErrUnsupportedImage
	}

	member, err := s.memberRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}

	uploaded, err := s.images.Upload(ctx, data, mtype.String())
	if err != nil {
		logger.Log.Error("Image upload failed", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("upload image: %w", err)
	}

	photo := &models.Photo{
		URL:      uploaded.SecureURL,
		PublicID: &uploaded.PublicID,
		MemberID: member.ID,
	}
	if err := s.photoRepo.Create(ctx, photo); err != nil {
		return nil, fmt.Errorf("create photo: %w", err)
	}

	logger.Log.Info("Photo added",
		zap.String("user_id", userID),
		zap.String("photo_id", photo.ID),
	)
	return photo, nil
}

// SetMainImage makes an approved photo the user's avatar
func (s *PhotoService) SetMainImage(ctx context.Context, userID, photoID string) error {
	photo, err := s.ownedPhoto(ctx, userID, photoID)
	if err != nil {
		return err
	}
	if !photo.IsApproved {
		return ErrPhotoNotApproved
	}

	if err := s.userRepo.SetImage(ctx, userID, &photo.URL); err != nil {
		return fmt.Errorf("set main image: %w", err)
	}
	return nil
}

// DeleteImage removes the photo remotely and locally. Deleting the current
// avatar clears it.
func (s *PhotoService) DeleteImage(ctx context.Context, userID, photoID string) error {
	photo, err := s.ownedPhoto(ctx, userID, photoID)
	if err != nil {
		return err
	}
	return removePhoto(ctx, s.images, s.photoRepo, s.userRepo, userID, photo)
}

// SignUpload lets the browser upload straight to the image host
func (s *PhotoService) SignUpload(ctx context.Context, params map[string]string) (*storage.SignedUpload, error) {
	return s.images.SignUpload(ctx, params)
}

func (s *PhotoService) ownedPhoto(ctx context.Context, userID, photoID string) (*models.Photo, error) {
	member, err := s.memberRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}

	photo, err := s.photoRepo.GetByID(ctx, photoID)
	if err != nil {
		return nil, fmt.Errorf("get photo: %w", err)
	}
	if photo == nil || photo.MemberID != member.ID {
		return nil, ErrPhotoNotFound
	}
	return photo, nil
}

// removePhoto deletes the remote asset and the row, then clears the
// owner's avatar if it pointed at this photo.
func removePhoto(
	ctx context.Context,
	images storage.ImageHost,
	photoRepo *repository.PhotoRepository,
	userRepo *repository.UserRepository,
	ownerUserID string,
	photo *models.Photo,
) error {
	if photo.PublicID != nil {
		if err := images.Delete(ctx, *photo.PublicID); err != nil {
			logger.Log.Error("Remote image delete failed",
				zap.String("photo_id", photo.ID),
				zap.Error(err),
			)
			return fmt.Errorf("delete remote image: %w", err)
		}
	}

	if err := photoRepo.Delete(ctx, photo.ID); err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}

	owner, err := userRepo.GetUserByID(ctx, ownerUserID)
	if err != nil {
		return fmt.Errorf("load owner: %w", err)
	}
	if owner != nil && owner.Image != nil && *owner.Image == photo.URL {
		if err := userRepo.SetImage(ctx, ownerUserID, nil); err != nil {
			return fmt.Errorf("clear main image: %w", err)
		}
	}
	return nil
}
