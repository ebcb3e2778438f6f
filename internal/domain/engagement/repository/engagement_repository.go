package repository

import (
	"context"

	"socialhub/internal/domain/engagement/model"
	notificationModel "socialhub/internal/domain/notification/model"
	notificationRepo "socialhub/internal/domain/notification/repository"
	userModel "socialhub/internal/domain/user/model"
	"socialhub/pkg/apperror"
	"socialhub/pkg/database"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrPostNotFound 帖子不存在
	ErrPostNotFound = apperror.New(apperror.NotFound, "post not found")
	// ErrCommentNotFound 评论不存在
	ErrCommentNotFound = apperror.New(apperror.NotFound, "comment not found")
	// ErrNotAuthor 只有作者可以修改或删除
	ErrNotAuthor = apperror.New(apperror.Forbidden, "only the author can do this")
)

// 通知中评论内容的最大长度
const commentPreviewLen = 100

type EngagementRepository interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPost(ctx context.Context, id string) (*model.Post, error)
	UpdatePost(ctx context.Context, requesterID, id string, fields map[string]interface{}) (*model.Post, error)
	DeletePost(ctx context.Context, requesterID, id string) error
	ListUserPosts(ctx context.Context, authorID string, offset, limit int) ([]model.Post, int64, error)
	Feed(ctx context.Context, userID string, offset, limit int) ([]model.Post, int64, error)
	LikedPostIDs(ctx context.Context, userID string, postIDs []string) (map[string]bool, error)

	// ToggleLike 只有点赞 (非取消) 且非自己的帖子时返回通知
	ToggleLike(ctx context.Context, userID, postID string) (*model.LikeResult, *notificationModel.Notification, error)
	ListLikers(ctx context.Context, postID string, offset, limit int) ([]userModel.User, int64, error)

	// AddComment 评论自己的帖子时不返回通知
	AddComment(ctx context.Context, comment *model.Comment) (*notificationModel.Notification, error)
	ListComments(ctx context.Context, postID string, offset, limit int) ([]model.Comment, int64, error)
	DeleteComment(ctx context.Context, requesterID, commentID string) error
}

type engagementRepository struct {
	db *gorm.DB
}

func NewEngagementRepository(db *gorm.DB) EngagementRepository {
	return &engagementRepository{db: db}
}

func decrement(col string) clause.Expr {
	return gorm.Expr("CASE WHEN " + col + " > 0 THEN " + col + " - 1 ELSE 0 END")
}

func increment(col string) clause.Expr {
	return gorm.Expr(col + " + 1")
}

// --- Post ---

func (r *engagementRepository) CreatePost(ctx context.Context, post *model.Post) error {
	return database.Classify(r.db.WithContext(ctx).Create(post).Error)
}

func (r *engagementRepository) GetPost(ctx context.Context, id string) (*model.Post, error) {
	var post model.Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		return nil, database.Classify(database.NotFoundAs(err, ErrPostNotFound))
	}
	return &post, nil
}

func loadPost(tx *gorm.DB, id string, columns ...string) (*model.Post, error) {
	var post model.Post
	q := tx
	if len(columns) > 0 {
		q = q.Select(columns)
	}
	if err := q.Where("id = ?", id).First(&post).Error; err != nil {
		return nil, database.NotFoundAs(err, ErrPostNotFound)
	}
	return &post, nil
}

func (r *engagementRepository) UpdatePost(ctx context.Context, requesterID, id string, fields map[string]interface{}) (*model.Post, error) {
	var post *model.Post
	err := database.WithRetry(ctx, r.db, func(tx *gorm.DB) error {
		p, err := loadPost(tx, id, "id", "author_id")
		if err != nil {
			return err
		}
		if p.AuthorID != requesterID {
			return ErrNotAuthor
		}
		if err := tx.Model(&model.Post{}).Where("id = ?", id).Updates(fields).Error; err != nil {
			return err
		}
		post, err = loadPost(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (r *engagementRepository) DeletePost(ctx context.Context, requesterID, id string) error {
	return database.WithRetry(ctx, r.db, func(tx *gorm.DB) error {
		p, err := loadPost(tx, id, "id", "author_id")
		if err != nil {
			return err
		}
		if p.AuthorID != requesterID {
			return ErrNotAuthor
		}
		return DeletePostTx(tx, id)
	})
}

// DeletePostTx 在调用方事务中删除帖子及其点赞、评论、通知和举报
func DeletePostTx(tx *gorm.DB, postID string) error {
	if err := tx.Where("post_id = ?", postID).Delete(&model.Like{}).Error; err != nil {
		return err
	}
	if err := tx.Where("post_id = ?", postID).Delete(&notificationModel.Notification{}).Error; err != nil {
		return err
	}
	if err := tx.Exec(
		"DELETE FROM reports WHERE target_kind = ? AND target_id IN (SELECT id FROM comments WHERE post_id = ?)",
		"comment", postID,
	).Error; err != nil {
		return err
	}
	if err := tx.Where("post_id = ?", postID).Delete(&model.Comment{}).Error; err != nil {
		return err
	}
	if err := tx.Exec("DELETE FROM reports WHERE target_kind = ? AND target_id = ?", "post", postID).Error; err != nil {
		return err
	}

	result := tx.Where("id = ?", postID).Delete(&model.Post{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *engagementRepository) ListUserPosts(ctx context.Context, authorID string, offset, limit int) ([]model.Post, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Post{}).Where("author_id = ?", authorID)
	return listPosts(query, offset, limit)
}

// Feed 自己与已关注用户的帖子，按时间倒序
func (r *engagementRepository) Feed(ctx context.Context, userID string, offset, limit int) ([]model.Post, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Post{}).
		Where("author_id = ? OR author_id IN (SELECT followee_id FROM follows WHERE follower_id = ?)", userID, userID)
	return listPosts(query, offset, limit)
}

func listPosts(query *gorm.DB, offset, limit int) ([]model.Post, int64, error) {
	var posts []model.Post
	var total int64

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, database.Classify(err)
	}
	if err := query.Order("created_at desc").Order("id").Offset(offset).Limit(limit).Find(&posts).Error; err != nil {
		return nil, 0, database.Classify(err)
	}
	return posts, total, nil
}

func (r *engagementRepository) LikedPostIDs(ctx context.Context, userID string, postIDs []string) (map[string]bool, error) {
	liked := make(map[string]bool, len(postIDs))
	if userID == "" || len(postIDs) == 0 {
		return liked, nil
	}

	var ids []string
	err := r.db.WithContext(ctx).Model(&model.Like{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, database.Classify(err)
	}
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

// --- Like ---

// ToggleLike 点赞关系与 like_count 在同一事务中变更，计数器使用原地 ±1
func (r *engagementRepository) ToggleLike(ctx context.Context, userID, postID string) (*model.LikeResult, *notificationModel.Notification, error) {
	var (
		result       model.LikeResult
		notification *notificationModel.Notification
	)

	err := database.WithRetry(ctx, r.db, func(tx *gorm.DB) error {
		notification = nil

		post, err := loadPost(tx, postID, "id", "author_id")
		if err != nil {
			return err
		}

		del := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&model.Like{})
		if del.Error != nil {
			return del.Error
		}

		if del.RowsAffected > 0 {
			result.Liked = false
			if err := tx.Model(&model.Post{}).Where("id = ?", postID).
				UpdateColumn("like_count", decrement("like_count")).Error; err != nil {
				return err
			}
		} else {
			ins := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.Like{PostID: postID, UserID: userID})
			if ins.Error != nil {
				return ins.Error
			}
			if ins.RowsAffected == 0 {
				// 并发的同一用户点赞已先插入
				return database.ErrConcurrentUpdate
			}
			result.Liked = true
			if err := tx.Model(&model.Post{}).Where("id = ?", postID).
				UpdateColumn("like_count", increment("like_count")).Error; err != nil {
				return err
			}
			if post.AuthorID != userID {
				notification = &notificationModel.Notification{
					RecipientID: post.AuthorID,
					ActorID:     userID,
					Type:        notificationModel.TypeLike,
					PostID:      &postID,
				}
				if err := notificationRepo.Create(tx, notification); err != nil {
					return err
				}
			}
		}

		updated, err := loadPost(tx, postID, "id", "like_count")
		if err != nil {
			return err
		}
		result.LikeCount = updated.LikeCount
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &result, notification, nil
}

func (r *engagementRepository) ListLikers(ctx context.Context, postID string, offset, limit int) ([]userModel.User, int64, error) {
	var users []userModel.User
	var total int64

	query := r.db.WithContext(ctx).Model(&userModel.User{}).
		Joins("JOIN likes ON likes.user_id = users.id").
		Where("likes.post_id = ?", postID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, database.Classify(err)
	}
	if err := query.Select("users.*").Order("likes.created_at desc").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, database.Classify(err)
	}
	return users, total, nil
}

// --- Comment ---

func (r *engagementRepository) AddComment(ctx context.Context, comment *model.Comment) (*notificationModel.Notification, error) {
	var notification *notificationModel.Notification

	err := database.WithRetry(ctx, r.db, func(tx *gorm.DB) error {
		notification = nil
		comment.ID = ""

		post, err := loadPost(tx, comment.PostID, "id", "author_id")
		if err != nil {
			return err
		}
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Post{}).Where("id = ?", comment.PostID).
			UpdateColumn("comment_count", increment("comment_count")).Error; err != nil {
			return err
		}

		if post.AuthorID == comment.AuthorID {
			return nil
		}
		notification = &notificationModel.Notification{
			RecipientID: post.AuthorID,
			ActorID:     comment.AuthorID,
			Type:        notificationModel.TypeComment,
			PostID:      &comment.PostID,
			CommentID:   &comment.ID,
			Content:     preview(comment.Content),
		}
		return notificationRepo.Create(tx, notification)
	})
	if err != nil {
		return nil, err
	}
	return notification, nil
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= commentPreviewLen {
		return s
	}
	return string(r[:commentPreviewLen]) + "…"
}

func (r *engagementRepository) ListComments(ctx context.Context, postID string, offset, limit int) ([]model.Comment, int64, error) {
	var comments []model.Comment
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Comment{}).Where("post_id = ?", postID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, database.Classify(err)
	}
	if err := query.Order("created_at asc").Order("id").Offset(offset).Limit(limit).Find(&comments).Error; err != nil {
		return nil, 0, database.Classify(err)
	}
	return comments, total, nil
}

func (r *engagementRepository) DeleteComment(ctx context.Context, requesterID, commentID string) error {
	return database.WithRetry(ctx, r.db, func(tx *gorm.DB) error {
		comment, err := LoadComment(tx, commentID)
		if err != nil {
			return err
		}
		if comment.AuthorID != requesterID {
			return ErrNotAuthor
		}
		return DeleteCommentTx(tx, comment)
	})
}

// LoadComment 在调用方事务中读取评论
func LoadComment(tx *gorm.DB, id string) (*model.Comment, error) {
	var comment model.Comment
	if err := tx.Where("id = ?", id).First(&comment).Error; err != nil {
		return nil, database.NotFoundAs(err, ErrCommentNotFound)
	}
	return &comment, nil
}

// DeleteCommentTx 在调用方事务中删除评论，comment_count 最小为 0
func DeleteCommentTx(tx *gorm.DB, comment *model.Comment) error {
	result := tx.Where("id = ?", comment.ID).Delete(&model.Comment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCommentNotFound
	}
	if err := tx.Model(&model.Post{}).Where("id = ?", comment.PostID).
		UpdateColumn("comment_count", decrement("comment_count")).Error; err != nil {
		return err
	}
	if err := tx.Where("comment_id = ?", comment.ID).Delete(&notificationModel.Notification{}).Error; err != nil {
		return err
	}
	return tx.Exec("DELETE FROM reports WHERE target_kind = ? AND target_id = ?", "comment", comment.ID).Error
}
