package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"socialhub/internal/domain/engagement/model"
	"socialhub/internal/domain/engagement/repository"
	notificationService "socialhub/internal/domain/notification/service"
	userModel "socialhub/internal/domain/user/model"
	"socialhub/pkg/apperror"
	"socialhub/pkg/logger"
	"socialhub/pkg/metrics"
	"socialhub/pkg/utils"

	"go.uber.org/zap"
)

const (
	MaxPostLength    = 2000
	MaxCommentLength = 1000
)

var (
	// ErrEmptyPost 内容和图片不能同时为空
	ErrEmptyPost = apperror.New(apperror.InvalidArgument, "post needs content or an image")
	// ErrEmptyComment 评论内容为空
	ErrEmptyComment = apperror.New(apperror.InvalidArgument, "comment content is required")
	// ErrContentTooLong 内容超长
	ErrContentTooLong = apperror.New(apperror.InvalidArgument, "content is too long")
)

// PostInput 创建/更新帖子，更新为整体替换
type PostInput struct {
	Content  string
	ImageRef string
	Location string
}

type EngagementService interface {
	CreatePost(ctx context.Context, authorID string, in PostInput) (*model.Post, error)
	GetPost(ctx context.Context, viewerID, postID string) (*model.Post, error)
	UpdatePost(ctx context.Context, requesterID, postID string, in PostInput) (*model.Post, error)
	DeletePost(ctx context.Context, requesterID, postID string) error
	ListUserPosts(ctx context.Context, viewerID, authorID string, page, limit int) ([]model.Post, int64, error)
	Feed(ctx context.Context, viewerID string, page, limit int) ([]model.Post, int64, error)

	ToggleLike(ctx context.Context, userID, postID string) (*model.LikeResult, error)
	ListLikers(ctx context.Context, postID string, page, limit int) ([]userModel.User, int64, error)

	AddComment(ctx context.Context, userID, postID, content string) (*model.Comment, error)
	ListComments(ctx context.Context, postID string, page, limit int) ([]model.Comment, int64, error)
	DeleteComment(ctx context.Context, requesterID, commentID string) error
}

type engagementService struct {
	repo      repository.EngagementRepository
	publisher notificationService.Publisher
}

func NewEngagementService(repo repository.EngagementRepository, publisher notificationService.Publisher) EngagementService {
	return &engagementService{repo: repo, publisher: publisher}
}

func normalizePost(in PostInput) (PostInput, error) {
	in.Content = strings.TrimSpace(in.Content)
	in.ImageRef = strings.TrimSpace(in.ImageRef)
	in.Location = strings.TrimSpace(in.Location)
	if in.Content == "" && in.ImageRef == "" {
		return in, ErrEmptyPost
	}
	if utf8.RuneCountInString(in.Content) > MaxPostLength {
		return in, ErrContentTooLong
	}
	return in, nil
}

func (s *engagementService) CreatePost(ctx context.Context, authorID string, in PostInput) (*model.Post, error) {
	in, err := normalizePost(in)
	if err != nil {
		return nil, err
	}

	post := &model.Post{
		AuthorID: authorID,
		Content:  in.Content,
		ImageRef: in.ImageRef,
		Location: in.Location,
	}
	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	metrics.GetGlobalCollector().RecordDomainEvent("post_created")
	return post, nil
}

func (s *engagementService) GetPost(ctx context.Context, viewerID, postID string) (*model.Post, error) {
	post, err := s.repo.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	posts := []model.Post{*post}
	if err := s.markLiked(ctx, viewerID, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

func (s *engagementService) UpdatePost(ctx context.Context, requesterID, postID string, in PostInput) (*model.Post, error) {
	in, err := normalizePost(in)
	if err != nil {
		return nil, err
	}
	return s.repo.UpdatePost(ctx, requesterID, postID, map[string]interface{}{
		"content":   in.Content,
		"image_ref": in.ImageRef,
		"location":  in.Location,
	})
}

func (s *engagementService) DeletePost(ctx context.Context, requesterID, postID string) error {
	if err := s.repo.DeletePost(ctx, requesterID, postID); err != nil {
		return err
	}
	metrics.GetGlobalCollector().RecordDomainEvent("post_deleted")
	return nil
}

func (s *engagementService) ListUserPosts(ctx context.Context, viewerID, authorID string, page, limit int) ([]model.Post, int64, error) {
	offset, limit := utils.Offset(page, limit)
	posts, total, err := s.repo.ListUserPosts(ctx, authorID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, s.markLiked(ctx, viewerID, posts)
}

func (s *engagementService) Feed(ctx context.Context, viewerID string, page, limit int) ([]model.Post, int64, error) {
	offset, limit := utils.Offset(page, limit)
	posts, total, err := s.repo.Feed(ctx, viewerID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, s.markLiked(ctx, viewerID, posts)
}

// markLiked 一次查询填充 LikedByMe
func (s *engagementService) markLiked(ctx context.Context, viewerID string, posts []model.Post) error {
	if viewerID == "" || len(posts) == 0 {
		return nil
	}
	ids := make([]string, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}
	liked, err := s.repo.LikedPostIDs(ctx, viewerID, ids)
	if err != nil {
		return err
	}
	for i := range posts {
		posts[i].LikedByMe = liked[posts[i].ID]
	}
	return nil
}

func (s *engagementService) ToggleLike(ctx context.Context, userID, postID string) (*model.LikeResult, error) {
	result, n, err := s.repo.ToggleLike(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if n != nil {
		s.publisher.Publish(n)
	}

	event := "unlike"
	if result.Liked {
		event = "like"
	}
	metrics.GetGlobalCollector().RecordDomainEvent(event)
	logger.Log.Debug("like toggled",
		zap.String("user_id", userID),
		zap.String("post_id", postID),
		zap.Bool("liked", result.Liked),
		zap.Int64("like_count", result.LikeCount),
	)
	return result, nil
}

func (s *engagementService) ListLikers(ctx context.Context, postID string, page, limit int) ([]userModel.User, int64, error) {
	offset, limit := utils.Offset(page, limit)
	users, total, err := s.repo.ListLikers(ctx, postID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	for i := range users {
		users[i] = *users[i].Public()
	}
	return users, total, nil
}

func (s *engagementService) AddComment(ctx context.Context, userID, postID, content string) (*model.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyComment
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return nil, ErrContentTooLong
	}

	comment := &model.Comment{PostID: postID, AuthorID: userID, Content: content}
	n, err := s.repo.AddComment(ctx, comment)
	if err != nil {
		return nil, err
	}
	if n != nil {
		s.publisher.Publish(n)
	}
	metrics.GetGlobalCollector().RecordDomainEvent("comment")
	return comment, nil
}

func (s *engagementService) ListComments(ctx context.Context, postID string, page, limit int) ([]model.Comment, int64, error) {
	if _, err := s.repo.GetPost(ctx, postID); err != nil {
		return nil, 0, err
	}
	offset, limit := utils.Offset(page, limit)
	return s.repo.ListComments(ctx, postID, offset, limit)
}

func (s *engagementService) DeleteComment(ctx context.Context, requesterID, commentID string) error {
	if err := s.repo.DeleteComment(ctx, requesterID, commentID); err != nil {
		return err
	}
	metrics.GetGlobalCollector().RecordDomainEvent("comment_deleted")
	return nil
}
