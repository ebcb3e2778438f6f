package service

import (
	"context"
	"strings"

	"socialhub/internal/domain/moderation/model"
	"socialhub/internal/domain/moderation/repository"
	notificationService "socialhub/internal/domain/notification/service"
	userModel "socialhub/internal/domain/user/model"
	"socialhub/pkg/apperror"
	"socialhub/pkg/logger"
	"socialhub/pkg/metrics"
	"socialhub/pkg/utils"

	"go.uber.org/zap"
)

var (
	ErrNotStaff       = apperror.New(apperror.Forbidden, "moderator or admin role required")
	ErrNotAdmin       = apperror.New(apperror.Forbidden, "admin role required")
	ErrAdminProtected = apperror.New(apperror.Forbidden, "moderators cannot act on admins")
	ErrSelfAction     = apperror.New(apperror.InvalidArgument, "cannot perform this action on yourself")
	ErrEmptyReason    = apperror.New(apperror.InvalidArgument, "reason is required")
	ErrUnknownKind    = apperror.New(apperror.InvalidArgument, "target kind must be post, comment or profile")
)

// RoleResolver 从存储读取当前角色
type RoleResolver interface {
	ResolveRole(ctx context.Context, userID string) (string, error)
}

// UserCache 用户资料缓存失效
type UserCache interface {
	Invalidate(ctx context.Context, ids ...string)
}

type ModerationService interface {
	SubmitReport(ctx context.Context, reporterID, targetKind, targetID, reason string) (*model.Report, error)
	ListReports(ctx context.Context, moderatorID string, filter model.ReportFilter, page, limit int) ([]model.Report, int64, error)
	DismissReport(ctx context.Context, moderatorID, reportID string) error
	ResolveReport(ctx context.Context, moderatorID, reportID, reason string, removeContent bool) (*model.Warning, error)

	IssueWarning(ctx context.Context, moderatorID, targetUserID, reason string) (*model.Warning, error)
	ListWarnings(ctx context.Context, moderatorID, targetUserID string, page, limit int) ([]model.Warning, int64, error)

	SuspendUser(ctx context.Context, moderatorID, targetUserID string) error
	UnsuspendUser(ctx context.Context, moderatorID, targetUserID string) error
	DeleteUser(ctx context.Context, adminID, targetUserID string) error

	ListReportedUsers(ctx context.Context, moderatorID string, page, limit int) ([]model.ReportedUser, int64, error)
	Dashboard(ctx context.Context, moderatorID string) (*model.Dashboard, error)
}

type moderationService struct {
	repo      repository.ModerationRepository
	roles     RoleResolver
	publisher notificationService.Publisher
	users     UserCache
}

func NewModerationService(
	repo repository.ModerationRepository,
	roles RoleResolver,
	publisher notificationService.Publisher,
	users UserCache,
) ModerationService {
	return &moderationService{repo: repo, roles: roles, publisher: publisher, users: users}
}

// requireRole 角色不满足或操作者不存在时一律 Forbidden
func (s *moderationService) requireRole(ctx context.Context, actorID string, denied error, allowed ...string) (string, error) {
	role, err := s.roles.ResolveRole(ctx, actorID)
	if err != nil {
		if apperror.KindOf(err) == apperror.NotFound {
			return "", denied
		}
		return "", err
	}
	for _, r := range allowed {
		if role == r {
			return role, nil
		}
	}
	return "", denied
}

func (s *moderationService) requireStaff(ctx context.Context, actorID string) (string, error) {
	return s.requireRole(ctx, actorID, ErrNotStaff, userModel.RoleModerator, userModel.RoleAdmin)
}

// checkTarget moderator 不能处理 admin
func (s *moderationService) checkTarget(ctx context.Context, actorRole, targetUserID string) error {
	targetRole, err := s.roles.ResolveRole(ctx, targetUserID)
	if err != nil {
		return err
	}
	if actorRole != userModel.RoleAdmin && targetRole == userModel.RoleAdmin {
		return ErrAdminProtected
	}
	return nil
}

func (s *moderationService) SubmitReport(ctx context.Context, reporterID, targetKind, targetID, reason string) (*model.Report, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrEmptyReason
	}
	if !model.ValidTargetKind(targetKind) {
		return nil, ErrUnknownKind
	}

	report, created, err := s.repo.SubmitReport(ctx, &model.Report{
		TargetKind: targetKind,
		TargetID:   targetID,
		ReporterID: reporterID,
		Reason:     reason,
	})
	if err != nil {
		return nil, err
	}
	if created {
		metrics.GetGlobalCollector().RecordDomainEvent("report")
	}
	return report, nil
}

func (s *moderationService) ListReports(ctx context.Context, moderatorID string, filter model.ReportFilter, page, limit int) ([]model.Report, int64, error) {
	if _, err := s.requireStaff(ctx, moderatorID); err != nil {
		return nil, 0, err
	}
	offset, limit := utils.Offset(page, limit)
	return s.repo.ListReports(ctx, filter, offset, limit)
}

func (s *moderationService) DismissReport(ctx context.Context, moderatorID, reportID string) error {
	if _, err := s.requireStaff(ctx, moderatorID); err != nil {
		return err
	}
	if err := s.repo.DismissReport(ctx, reportID); err != nil {
		return err
	}
	metrics.GetGlobalCollector().RecordDomainEvent("report_dismissed")
	return nil
}

func (s *moderationService) ResolveReport(ctx context.Context, moderatorID, reportID, reason string, removeContent bool) (*model.Warning, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrEmptyReason
	}
	role, err := s.requireStaff(ctx, moderatorID)
	if err != nil {
		return nil, err
	}

	report, err := s.repo.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report.TargetUserID == moderatorID {
		return nil, ErrSelfAction
	}
	if err := s.checkTarget(ctx, role, report.TargetUserID); err != nil {
		return nil, err
	}

	result, err := s.repo.ResolveReport(ctx, moderatorID, reportID, reason, removeContent)
	if err != nil {
		return nil, err
	}
	s.afterWarning(ctx, result)
	logger.Log.Info("report resolved",
		zap.String("report_id", reportID),
		zap.String("moderator_id", moderatorID),
		zap.Bool("content_removed", removeContent),
	)
	return result.Warning, nil
}

func (s *moderationService) IssueWarning(ctx context.Context, moderatorID, targetUserID, reason string) (*model.Warning, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrEmptyReason
	}
	role, err := s.requireStaff(ctx, moderatorID)
	if err != nil {
		return nil, err
	}
	if targetUserID == moderatorID {
		return nil, ErrSelfAction
	}
	if err := s.checkTarget(ctx, role, targetUserID); err != nil {
		return nil, err
	}

	result, err := s.repo.IssueWarning(ctx, moderatorID, targetUserID, reason)
	if err != nil {
		return nil, err
	}
	s.afterWarning(ctx, result)
	return result.Warning, nil
}

func (s *moderationService) afterWarning(ctx context.Context, result *repository.WarningResult) {
	s.users.Invalidate(ctx, result.Warning.UserID)
	s.publisher.Publish(result.Notification)
	metrics.GetGlobalCollector().RecordDomainEvent("warning")
}

func (s *moderationService) ListWarnings(ctx context.Context, moderatorID, targetUserID string, page, limit int) ([]model.Warning, int64, error) {
	if _, err := s.requireStaff(ctx, moderatorID); err != nil {
		return nil, 0, err
	}
	offset, limit := utils.Offset(page, limit)
	return s.repo.ListWarnings(ctx, targetUserID, offset, limit)
}

// SuspendUser 角色置为 suspended，原角色不保留
func (s *moderationService) SuspendUser(ctx context.Context, moderatorID, targetUserID string) error {
	if moderatorID == targetUserID {
		return ErrSelfAction
	}
	role, err := s.requireStaff(ctx, moderatorID)
	if err != nil {
		return err
	}
	if err := s.checkTarget(ctx, role, targetUserID); err != nil {
		return err
	}

	if err := s.repo.SetRole(ctx, targetUserID, userModel.RoleSuspended, ""); err != nil {
		return err
	}
	s.users.Invalidate(ctx, targetUserID)
	metrics.GetGlobalCollector().RecordDomainEvent("suspend")
	logger.Log.Info("user suspended", zap.String("user_id", targetUserID), zap.String("moderator_id", moderatorID))
	return nil
}

// UnsuspendUser 恢复为 user，无论封禁前是什么角色
func (s *moderationService) UnsuspendUser(ctx context.Context, moderatorID, targetUserID string) error {
	if _, err := s.requireStaff(ctx, moderatorID); err != nil {
		return err
	}

	if err := s.repo.SetRole(ctx, targetUserID, userModel.RoleUser, userModel.RoleSuspended); err != nil {
		return err
	}
	s.users.Invalidate(ctx, targetUserID)
	metrics.GetGlobalCollector().RecordDomainEvent("unsuspend")
	logger.Log.Info("user unsuspended", zap.String("user_id", targetUserID), zap.String("moderator_id", moderatorID))
	return nil
}

func (s *moderationService) DeleteUser(ctx context.Context, adminID, targetUserID string) error {
	if adminID == targetUserID {
		return ErrSelfAction
	}
	if _, err := s.requireRole(ctx, adminID, ErrNotAdmin, userModel.RoleAdmin); err != nil {
		return err
	}

	affected, err := s.repo.DeleteUser(ctx, targetUserID)
	if err != nil {
		return err
	}
	s.users.Invalidate(ctx, append(affected, targetUserID)...)
	metrics.GetGlobalCollector().RecordDomainEvent("user_deleted")
	logger.Log.Warn("user deleted", zap.String("user_id", targetUserID), zap.String("admin_id", adminID))
	return nil
}

func (s *moderationService) ListReportedUsers(ctx context.Context, moderatorID string, page, limit int) ([]model.ReportedUser, int64, error) {
	if _, err := s.requireStaff(ctx, moderatorID); err != nil {
		return nil, 0, err
	}
	offset, limit := utils.Offset(page, limit)
	return s.repo.ListReportedUsers(ctx, offset, limit)
}

func (s *moderationService) Dashboard(ctx context.Context, moderatorID string) (*model.Dashboard, error) {
	if _, err := s.requireStaff(ctx, moderatorID); err != nil {
		return nil, err
	}
	return s.repo.Dashboard(ctx)
}
