package repository

import (
	"context"

	notificationModel "socialhub/internal/domain/notification/model"
	notificationRepo "socialhub/internal/domain/notification/repository"
	"socialhub/internal/domain/social/model"
	userModel "socialhub/internal/domain/user/model"
	userRepo "socialhub/internal/domain/user/repository"
	"socialhub/pkg/database"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FollowRepository interface {
	// Follow 已关注时返回 nil 通知
	Follow(ctx context.Context, followerID, followeeID string) (*notificationModel.Notification, error)
	// Unfollow 未关注时返回 nil 通知
	Unfollow(ctx context.Context, followerID, followeeID string) (*notificationModel.Notification, error)
	IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error)
	Counts(ctx context.Context, userID string) (followers int64, following int64, err error)
	ListFollowers(ctx context.Context, userID string, offset, limit int) ([]userModel.User, int64, error)
	ListFollowing(ctx context.Context, userID string, offset, limit int) ([]userModel.User, int64, error)
}

type followRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

// 计数器递减，最小为 0
func decrement(col string) clause.Expr {
	return gorm.Expr("CASE WHEN " + col + " > 0 THEN " + col + " - 1 ELSE 0 END")
}

func increment(col string) clause.Expr {
	return gorm.Expr(col + " + 1")
}

func (r *followRepository) Follow(ctx context.Context, followerID, followeeID string) (*notificationModel.Notification, error) {
	var notification *notificationModel.Notification

	err := database.WithRetry(ctx, r.db, func(tx *gorm.DB) error {
		notification = nil

		var n int64
		if err := tx.Model(&userModel.User{}).Where("id IN ?", []string{followerID, followeeID}).Count(&n).Error; err != nil {
			return err
		}
		if n != 2 {
			return userRepo.ErrUserNotFound
		}

		edge := &model.Follow{FollowerID: followerID, FolloweeID: followeeID}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(edge)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// 已关注
			return nil
		}

		if err := tx.Model(&userModel.User{}).Where("id = ?", followerID).
			UpdateColumn("following_count", increment("following_count")).Error; err != nil {
			return err
		}
		if err := tx.Model(&userModel.User{}).Where("id = ?", followeeID).
			UpdateColumn("follower_count", increment("follower_count")).Error; err != nil {
			return err
		}

		notification = &notificationModel.Notification{
			RecipientID: followeeID,
			ActorID:     followerID,
			Type:        notificationModel.TypeFollow,
		}
		return notificationRepo.Create(tx, notification)
	})
	if err != nil {
		return nil, err
	}
	return notification, nil
}

func (r *followRepository) Unfollow(ctx context.Context, followerID, followeeID string) (*notificationModel.Notification, error) {
	var notification *notificationModel.Notification

	err := database.WithRetry(ctx, r.db, func(tx *gorm.DB) error {
		notification = nil

		result := tx.Where("follower_id = ? AND followee_id = ?", followerID, followeeID).Delete(&model.Follow{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// 未关注
			return nil
		}

		if err := tx.Model(&userModel.User{}).Where("id = ?", followerID).
			UpdateColumn("following_count", decrement("following_count")).Error; err != nil {
			return err
		}
		if err := tx.Model(&userModel.User{}).Where("id = ?", followeeID).
			UpdateColumn("follower_count", decrement("follower_count")).Error; err != nil {
			return err
		}

		notification = &notificationModel.Notification{
			RecipientID: followeeID,
			ActorID:     followerID,
			Type:        notificationModel.TypeUnfollow,
		}
		return notificationRepo.Create(tx, notification)
	})
	if err != nil {
		return nil, err
	}
	return notification, nil
}

func (r *followRepository) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&n).Error
	return n > 0, database.Classify(err)
}

func (r *followRepository) Counts(ctx context.Context, userID string) (int64, int64, error) {
	var u userModel.User
	err := r.db.WithContext(ctx).Select("id", "follower_count", "following_count").
		Where("id = ?", userID).First(&u).Error
	if err != nil {
		return 0, 0, database.Classify(database.NotFoundAs(err, userRepo.ErrUserNotFound))
	}
	return u.FollowerCount, u.FollowingCount, nil
}

func (r *followRepository) ListFollowers(ctx context.Context, userID string, offset, limit int) ([]userModel.User, int64, error) {
	return r.list(ctx, "follows.follower_id = users.id", "follows.followee_id = ?", userID, offset, limit)
}

func (r *followRepository) ListFollowing(ctx context.Context, userID string, offset, limit int) ([]userModel.User, int64, error) {
	return r.list(ctx, "follows.followee_id = users.id", "follows.follower_id = ?", userID, offset, limit)
}

func (r *followRepository) list(ctx context.Context, on, where, userID string, offset, limit int) ([]userModel.User, int64, error) {
	var users []userModel.User
	var total int64

	query := r.db.WithContext(ctx).Model(&userModel.User{}).
		Joins("JOIN follows ON "+on).
		Where(where, userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, database.Classify(err)
	}
	if err := query.Select("users.*").Order("follows.created_at desc").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, database.Classify(err)
	}
	return users, total, nil
}
