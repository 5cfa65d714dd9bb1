package service

import (
	"context"
	"fmt"

	"github.com/heartline/heartline/internal/broker"
	"github.com/heartline/heartline/internal/models"
	"github.com/heartline/heartline/internal/realtime"
	"github.com/heartline/heartline/internal/repository"
	"github.com/heartline/heartline/pkg/logger"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// LikeListType selects which side of the like graph FetchLikedMembers walks
type LikeListType string

const (
	LikeListSource LikeListType = "source" // members I liked
	LikeListTarget LikeListType = "target" // members who liked me
	LikeListMutual LikeListType = "mutual"
)

type LikeService struct {
	likeRepo   *repository.LikeRepository
	userRepo   *repository.UserRepository
	memberRepo *repository.MemberRepository
	publisher  broker.Publisher
}

func NewLikeService(
	likeRepo *repository.LikeRepository,
	userRepo *repository.UserRepository,
	memberRepo *repository.MemberRepository,
	publisher broker.Publisher,
) *LikeService {
	return &LikeService{
		likeRepo:   likeRepo,
		userRepo:   userRepo,
		memberRepo: memberRepo,
		publisher:  publisher,
	}
}

// ToggleLike removes the like when isLiked, otherwise creates it and tells
// the target on their personal channel who liked them.
func (s *LikeService) ToggleLike(ctx context.Context, sourceUserID, targetUserID string, isLiked bool) error {
	if sourceUserID == targetUserID {
		return ErrCannotLikeSelf
	}

	if isLiked {
		if err := s.likeRepo.Delete(ctx, sourceUserID, targetUserID); err != nil {
			return fmt.Errorf("delete like: %w", err)
		}
		return nil
	}

	source, err := s.userRepo.GetUserByID(ctx, sourceUserID)
	if err != nil {
		return fmt.Errorf("load source user: %w", err)
	}
	if source == nil {
		return ErrUserNotFound
	}

	if err := s.likeRepo.Create(ctx, sourceUserID, targetUserID); err != nil {
		logger.Log.Error("Failed to create like",
			zap.String("source_user_id", sourceUserID),
			zap.String("target_user_id", targetUserID),
			zap.Error(err),
		)
		return fmt.Errorf("create like: %w", err)
	}

	publishQuietly(ctx, s.publisher, realtime.PersonalChannel(targetUserID), realtime.EventLikeNew, LikeNotification{
		Name:   source.Name,
		Image:  source.Image,
		UserID: source.ID,
	})

	return nil
}

// FetchCurrentUserLikeIDs lists the ids of the users userID has liked
func (s *LikeService) FetchCurrentUserLikeIDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.likeRepo.TargetIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch like ids: %w", err)
	}
	return ids, nil
}

func (s *LikeService) FetchLikedMembers(ctx context.Context, userID string, listType LikeListType) ([]models.Member, error) {
	var ids []string

	switch listType {
	case LikeListTarget:
		sources, err := s.likeRepo.SourceIDs(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("fetch likers: %w", err)
		}
		ids = sources
	case LikeListMutual:
		targets, err := s.likeRepo.TargetIDs(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("fetch liked: %w", err)
		}
		sources, err := s.likeRepo.SourceIDs(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("fetch likers: %w", err)
		}
		ids = lo.Intersect(targets, sources)
	default:
		targets, err := s.likeRepo.TargetIDs(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("fetch liked: %w", err)
		}
		ids = targets
	}

	return s.memberRepo.GetByUserIDs(ctx, ids)
}
