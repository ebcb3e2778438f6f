package service

import (
	"context"

	"socialhub/internal/domain/notification/model"
	"socialhub/internal/domain/notification/repository"
	"socialhub/pkg/apperror"
	"socialhub/pkg/utils"
)

const maxMarkRead = 100

type NotificationService interface {
	List(ctx context.Context, recipientID string, unreadOnly bool, page, limit int) ([]model.Notification, int64, error)
	UnreadCount(ctx context.Context, recipientID string) (int64, error)
	// MarkRead ids 为空时标记全部已读
	MarkRead(ctx context.Context, recipientID string, ids []string) (int64, error)
}

type notificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

func (s *notificationService) List(ctx context.Context, recipientID string, unreadOnly bool, page, limit int) ([]model.Notification, int64, error) {
	offset, limit := utils.Offset(page, limit)
	return s.repo.List(ctx, recipientID, unreadOnly, offset, limit)
}

func (s *notificationService) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	return s.repo.UnreadCount(ctx, recipientID)
}

func (s *notificationService) MarkRead(ctx context.Context, recipientID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return s.repo.MarkAllRead(ctx, recipientID)
	}
	if len(ids) > maxMarkRead {
		return 0, apperror.New(apperror.InvalidArgument, "too many ids")
	}
	return s.repo.MarkRead(ctx, recipientID, ids)
}
