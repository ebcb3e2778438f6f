package service

import (
	"context"

	notificationService "socialhub/internal/domain/notification/service"
	"socialhub/internal/domain/social/model"
	"socialhub/internal/domain/social/repository"
	userModel "socialhub/internal/domain/user/model"
	"socialhub/pkg/apperror"
	"socialhub/pkg/logger"
	"socialhub/pkg/metrics"
	"socialhub/pkg/utils"

	"go.uber.org/zap"
)

// ErrSelfFollow 不能关注自己
var ErrSelfFollow = apperror.New(apperror.InvalidArgument, "cannot follow yourself")

// UserCache 用户资料缓存失效
type UserCache interface {
	Invalidate(ctx context.Context, ids ...string)
}

type SocialService interface {
	Follow(ctx context.Context, followerID, followeeID string) error
	Unfollow(ctx context.Context, followerID, followeeID string) error
	Status(ctx context.Context, viewerID, userID string) (*model.FollowStatus, error)
	CountFollowers(ctx context.Context, userID string) (int64, error)
	CountFollowing(ctx context.Context, userID string) (int64, error)
	ListFollowers(ctx context.Context, userID string, page, limit int) ([]userModel.User, int64, error)
	ListFollowing(ctx context.Context, userID string, page, limit int) ([]userModel.User, int64, error)
}

type socialService struct {
	repo      repository.FollowRepository
	publisher notificationService.Publisher
	users     UserCache
}

func NewSocialService(repo repository.FollowRepository, publisher notificationService.Publisher, users UserCache) SocialService {
	return &socialService{repo: repo, publisher: publisher, users: users}
}

// Follow 幂等：已关注时不重复计数、不发通知
func (s *socialService) Follow(ctx context.Context, followerID, followeeID string) error {
	if followerID == followeeID {
		return ErrSelfFollow
	}

	n, err := s.repo.Follow(ctx, followerID, followeeID)
	if err != nil {
		return err
	}
	if n == nil {
		return nil
	}

	s.users.Invalidate(ctx, followerID, followeeID)
	s.publisher.Publish(n)
	metrics.GetGlobalCollector().RecordDomainEvent("follow")
	logger.Log.Debug("followed", zap.String("follower", followerID), zap.String("followee", followeeID))
	return nil
}

// Unfollow 幂等：未关注时无任何变化
func (s *socialService) Unfollow(ctx context.Context, followerID, followeeID string) error {
	if followerID == followeeID {
		return ErrSelfFollow
	}

	n, err := s.repo.Unfollow(ctx, followerID, followeeID)
	if err != nil {
		return err
	}
	if n == nil {
		return nil
	}

	s.users.Invalidate(ctx, followerID, followeeID)
	s.publisher.Publish(n)
	metrics.GetGlobalCollector().RecordDomainEvent("unfollow")
	return nil
}

func (s *socialService) Status(ctx context.Context, viewerID, userID string) (*model.FollowStatus, error) {
	followers, following, err := s.repo.Counts(ctx, userID)
	if err != nil {
		return nil, err
	}
	status := &model.FollowStatus{FollowerCount: followers, FollowingCount: following}
	if viewerID != "" && viewerID != userID {
		if status.Following, err = s.repo.IsFollowing(ctx, viewerID, userID); err != nil {
			return nil, err
		}
	}
	return status, nil
}

func (s *socialService) CountFollowers(ctx context.Context, userID string) (int64, error) {
	followers, _, err := s.repo.Counts(ctx, userID)
	return followers, err
}

func (s *socialService) CountFollowing(ctx context.Context, userID string) (int64, error) {
	_, following, err := s.repo.Counts(ctx, userID)
	return following, err
}

func (s *socialService) ListFollowers(ctx context.Context, userID string, page, limit int) ([]userModel.User, int64, error) {
	offset, limit := utils.Offset(page, limit)
	users, total, err := s.repo.ListFollowers(ctx, userID, offset, limit)
	return publicUsers(users), total, err
}

func (s *socialService) ListFollowing(ctx context.Context, userID string, page, limit int) ([]userModel.User, int64, error) {
	offset, limit := utils.Offset(page, limit)
	users, total, err := s.repo.ListFollowing(ctx, userID, offset, limit)
	return publicUsers(users), total, err
}

func publicUsers(users []userModel.User) []userModel.User {
	for i := range users {
		users[i] = *users[i].Public()
	}
	return users
}
