package repository

import (
	"context"
	"errors"

	engagementModel "socialhub/internal/domain/engagement/model"
	engagementRepo "socialhub/internal/domain/engagement/repository"
	"socialhub/internal/domain/moderation/model"
	notificationModel "socialhub/internal/domain/notification/model"
	notificationRepo "socialhub/internal/domain/notification/repository"
	socialModel "socialhub/internal/domain/social/model"
	userModel "socialhub/internal/domain/user/model"
	userRepo "socialhub/internal/domain/user/repository"
	"socialhub/pkg/apperror"
	"socialhub/pkg/database"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrReportNotFound = apperror.New(apperror.NotFound, "report not found")
	ErrTargetNotFound = apperror.New(apperror.NotFound, "reported content not found")
	ErrSelfReport     = apperror.New(apperror.InvalidArgument, "cannot report your own content")
	// ErrWarningLimit 已达到警告上限
	ErrWarningLimit = apperror.New(apperror.PreconditionFailed, "user already has the maximum number of warnings")
	ErrReportClosed = apperror.New(apperror.PreconditionFailed, "report is no longer pending")
	ErrNotSuspended = apperror.New(apperror.PreconditionFailed, "user is not suspended")
)

// WarningResult 警告及随之产生的通知
type WarningResult struct {
	Warning      *model.Warning
	Notification *notificationModel.Notification
}

type ModerationRepository interface {
	// SubmitReport 同一举报人对同一对象已有待处理举报时返回已有记录，created 为 false
	SubmitReport(ctx context.Context, report *model.Report) (result *model.Report, created bool, err error)
	GetReport(ctx context.Context, id string) (*model.Report, error)
	ListReports(ctx context.Context, filter model.ReportFilter, offset, limit int) ([]model.Report, int64, error)
	DismissReport(ctx context.Context, id string) error
	ResolveReport(ctx context.Context, issuerID, reportID, reason string, removeContent bool) (*WarningResult, error)

	IssueWarning(ctx context.Context, issuerID, userID, reason string) (*WarningResult, error)
	ListWarnings(ctx context.Context, userID string, offset, limit int) ([]model.Warning, int64, error)

	// SetRole expect 非空时只在当前角色等于 expect 时更新
	SetRole(ctx context.Context, userID, role, expect string) error
	// DeleteUser 返回计数器被修复的其他用户
	DeleteUser(ctx context.Context, userID string) (affected []string, err error)

	ListReportedUsers(ctx context.Context, offset, limit int) ([]model.ReportedUser, int64, error)
	Dashboard(ctx context.Context) (*model.Dashboard, error)
}

type moderationRepository struct {
	db *gorm.DB
}

func NewModerationRepository(db *gorm.DB) ModerationRepository {
	return &moderationRepository{db: db}
}

func decrement(col string) interface{} {
	return gorm.Expr("CASE WHEN " + col + " > 0 THEN " + col + " - 1 ELSE 0 END")
}

// --- Report ---

// targetOwner 解析被举报对象的所有者
func targetOwner(tx *gorm.DB, kind, id string) (string, error) {
	var owner string
	var err error
	switch kind {
	case model.TargetProfile:
		var u userModel.User
		err = tx.Select("id").Where("id = ?", id).First(&u).Error
		owner = u.ID
	case model.TargetPost:
		var p engagementModel.Post
		err = tx.Select("id", "author_id").Where("id = ?", id).First(&p).Error
		owner = p.AuthorID
	case model.TargetComment:
		var c engagementModel.Comment
		err = tx.Select("id", "author_id").Where("id = ?", id).First(&c).Error
		owner = c.AuthorID
	default:
		return "", apperror.New(apperror.InvalidArgument, "unknown report target kind")
	}
	if err != nil {
		return "", database.NotFoundAs(err, ErrTargetNotFound)
	}
	return owner, nil
}

func (r *moderationRepository) SubmitReport(ctx context.Context, report *model.Report) (*model.Report, bool, error) {
	var (
		result  *model.Report
		created bool
	)
	err := database.WithRetry(ctx, r.db, func(tx *gorm.DB) error {
		result, created = nil, false

		owner, err := targetOwner(tx, report.TargetKind, report.TargetID)
		if err != nil {
			return err
		}
		if owner == report.ReporterID {
			return ErrSelfReport
		}

		// 部分唯一索引 idx_reports_pending 保证并发提交只插入一行
		report.ID = ""
		report.TargetUserID = owner
		report.Status = model.StatusPending
		ins := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(report)
		if ins.Error != nil {
			return ins.Error
		}
		if ins.RowsAffected == 0 {
			var existing model.Report
			err := tx.Where("reporter_id = ? AND target_kind = ? AND target_id = ? AND status = ?",
				report.ReporterID, report.TargetKind, report.TargetID, model.StatusPending).
				First(&existing).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// 冲突的举报刚被处理
				return database.ErrConcurrentUpdate
			}
			if err != nil {
				return err
			}
			result = &existing
			return nil
		}
		result, created = report, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, created, nil
}

func (r *moderationRepository) GetReport(ctx context.Context, id string) (*model.Report, error) {
	var report model.Report
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&report).Error; err != nil {
		return nil, database.Classify(database.NotFoundAs(err, ErrReportNotFound))
	}
	return &report, nil
}

func (r *moderationRepository) ListReports(ctx context.Context, filter model.ReportFilter, offset, limit int) ([]model.Report, int64, error) {
	var reports []model.Report
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Report{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Kind != "" {
		query = query.Where("target_kind = ?", filter.Kind)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, database.Classify(err)
	}
	if err := query.Order("created_at desc").Order("id").Offset(offset).Limit(limit).Find(&reports).Error; err != nil {
		return nil, 0, database.Classify(err)
	}
	return reports, total, nil
}

// DismissReport 驳回举报，已驳回时无变化
func (r *moderationRepository) DismissReport(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&model.Report{}).Where("id = ?", id).Update("status", model.StatusReviewed)
	if result.Error != nil {
		return database.Classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrReportNotFound
	}
	return nil
}

// ResolveReport 警告被举报人并删除举报，可选删除被举报内容。警告失败时整个事务回滚，举报保持 pending
func (r *moderationRepository) ResolveReport(ctx context.Context, issuerID, reportID, reason string, removeContent bool) (*WarningResult, error) {
	var result *WarningResult
	err := database.WithRetry(ctx, r.db, func(tx *gorm.DB) error {
		var report model.Report
		if err := tx.Where("id = ?", reportID).First(&report).Error; err != nil {
			return database.NotFoundAs(err, ErrReportNotFound)
		}
		if report.Status != model.StatusPending {
			return ErrReportClosed
		}

		var err error
		if result, err = IssueWarningTx(tx, issuerID, report.TargetUserID, reason); err != nil {
			return err
		}

		if removeContent {
			if err := removeTarget(tx, report.TargetKind, report.TargetID); err != nil {
				return err
			}
		}
		return tx.Where("id = ?", report.ID).Delete(&model.Report{}).Error
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// removeTarget 内容已被删除时忽略
func removeTarget(tx *gorm.DB, kind, id string) error {
	var err error
	switch kind {
	case model.TargetPost:
		err = engagementRepo.DeletePostTx(tx, id)
	case model.TargetComment:
		var comment *engagementModel.Comment
		if comment, err = engagementRepo.LoadComment(tx, id); err == nil {
			err = engagementRepo.DeleteCommentTx(tx, comment)
		}
	}
	if apperror.KindOf(err) == apperror.NotFound {
		return nil
	}
	return err
}

// --- Warning ---

func (r *moderationRepository) IssueWarning(ctx context.Context, issuerID, userID, reason string) (*WarningResult, error) {
	var result *WarningResult
	err := database.WithRetry(ctx, r.db, func(tx *gorm.DB) error {
		var err error
		result, err = IssueWarningTx(tx, issuerID, userID, reason)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// IssueWarningTx 在调用方事务中发出警告。warning_count 的上限由条件更新保证
func IssueWarningTx(tx *gorm.DB, issuerID, userID, reason string) (*WarningResult, error) {
	res := tx.Model(&userModel.User{}).
		Where("id = ? AND warning_count < ?", userID, userModel.MaxWarnings).
		UpdateColumn("warning_count", gorm.Expr("warning_count + 1"))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := tx.Model(&userModel.User{}).Where("id = ?", userID).Count(&n).Error; err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, userRepo.ErrUserNotFound
		}
		return nil, ErrWarningLimit
	}

	warning := &model.Warning{UserID: userID, IssuerID: issuerID, Reason: reason}
	if err := tx.Create(warning).Error; err != nil {
		return nil, err
	}
	notification := &notificationModel.Notification{
		RecipientID: userID,
		ActorID:     issuerID,
		Type:        notificationModel.TypeReport,
		Content:     reason,
	}
	if err := notificationRepo.Create(tx, notification); err != nil {
		return nil, err
	}
	return &WarningResult{Warning: warning, Notification: notification}, nil
}

func (r *moderationRepository) ListWarnings(ctx context.Context, userID string, offset, limit int) ([]model.Warning, int64, error) {
	var warnings []model.Warning
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Warning{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, database.Classify(err)
	}
	if err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&warnings).Error; err != nil {
		return nil, 0, database.Classify(err)
	}
	return warnings, total, nil
}

// --- User ---

func (r *moderationRepository) SetRole(ctx context.Context, userID, role, expect string) error {
	query := r.db.WithContext(ctx).Model(&userModel.User{}).Where("id = ?", userID)
	if expect != "" {
		query = query.Where("role = ?", expect)
	}
	res := query.Update("role", role)
	if res.Error != nil {
		return database.Classify(res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var n int64
	if err := r.db.WithContext(ctx).Model(&userModel.User{}).Where("id = ?", userID).Count(&n).Error; err != nil {
		return database.Classify(err)
	}
	if n == 0 {
		return userRepo.ErrUserNotFound
	}
	if expect == userModel.RoleSuspended {
		return ErrNotSuspended
	}
	return nil
}

// DeleteUser 删除用户及其全部数据，并修复其他用户/帖子上的计数器
func (r *moderationRepository) DeleteUser(ctx context.Context, userID string) ([]string, error) {
	var affected []string
	err := database.WithRetry(ctx, r.db, func(tx *gorm.DB) error {
		affected = nil

		var n int64
		if err := tx.Model(&userModel.User{}).Where("id = ?", userID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return userRepo.ErrUserNotFound
		}

		// 自己的帖子 (连带其点赞、评论、通知、举报)
		var postIDs []string
		if err := tx.Model(&engagementModel.Post{}).Where("author_id = ?", userID).Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		for _, id := range postIDs {
			if err := engagementRepo.DeletePostTx(tx, id); err != nil {
				return err
			}
		}

		// 对他人帖子的点赞，每帖最多一条
		if err := tx.Model(&engagementModel.Post{}).
			Where("id IN (?)", tx.Model(&engagementModel.Like{}).Select("post_id").Where("user_id = ?", userID)).
			UpdateColumn("like_count", decrement("like_count")).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&engagementModel.Like{}).Error; err != nil {
			return err
		}

		// 对他人帖子的评论
		var comments []engagementModel.Comment
		if err := tx.Where("author_id = ?", userID).Find(&comments).Error; err != nil {
			return err
		}
		for i := range comments {
			if err := engagementRepo.DeleteCommentTx(tx, &comments[i]); err != nil {
				return err
			}
		}

		// 关注关系
		if err := tx.Model(&socialModel.Follow{}).Where("follower_id = ?", userID).Pluck("followee_id", &affected).Error; err != nil {
			return err
		}
		var followers []string
		if err := tx.Model(&socialModel.Follow{}).Where("followee_id = ?", userID).Pluck("follower_id", &followers).Error; err != nil {
			return err
		}
		affected = append(affected, followers...)

		if err := tx.Model(&userModel.User{}).
			Where("id IN (?)", tx.Model(&socialModel.Follow{}).Select("followee_id").Where("follower_id = ?", userID)).
			UpdateColumn("follower_count", decrement("follower_count")).Error; err != nil {
			return err
		}
		if err := tx.Model(&userModel.User{}).
			Where("id IN (?)", tx.Model(&socialModel.Follow{}).Select("follower_id").Where("followee_id = ?", userID)).
			UpdateColumn("following_count", decrement("following_count")).Error; err != nil {
			return err
		}
		if err := tx.Where("follower_id = ? OR followee_id = ?", userID, userID).Delete(&socialModel.Follow{}).Error; err != nil {
			return err
		}

		if err := tx.Where("reporter_id = ? OR target_user_id = ?", userID, userID).Delete(&model.Report{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&model.Warning{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipient_id = ? OR actor_id = ?", userID, userID).Delete(&notificationModel.Notification{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", userID).Delete(&userModel.User{}).Error
	})
	if err != nil {
		return nil, err
	}
	return affected, nil
}

// --- Dashboard ---

// ListReportedUsers 一次 GROUP BY 查询得到每个被举报用户的待处理举报数
func (r *moderationRepository) ListReportedUsers(ctx context.Context, offset, limit int) ([]model.ReportedUser, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Report{}).
		Where("status = ?", model.StatusPending).
		Distinct("target_user_id").
		Count(&total).Error; err != nil {
		return nil, 0, database.Classify(err)
	}

	var users []model.ReportedUser
	err := r.db.WithContext(ctx).Table("reports").
		Select("reports.target_user_id AS user_id, users.username, users.role, users.warning_count, COUNT(*) AS pending_reports").
		Joins("JOIN users ON users.id = reports.target_user_id").
		Where("reports.status = ?", model.StatusPending).
		Group("reports.target_user_id, users.username, users.role, users.warning_count").
		Order("pending_reports DESC").Order("user_id").
		Offset(offset).Limit(limit).
		Scan(&users).Error
	if err != nil {
		return nil, 0, database.Classify(err)
	}
	return users, total, nil
}

func (r *moderationRepository) Dashboard(ctx context.Context) (*model.Dashboard, error) {
	var d model.Dashboard
	db := r.db.WithContext(ctx)

	if err := db.Model(&userModel.User{}).Count(&d.Users).Error; err != nil {
		return nil, database.Classify(err)
	}
	if err := db.Model(&engagementModel.Post{}).Count(&d.Posts).Error; err != nil {
		return nil, database.Classify(err)
	}
	if err := db.Model(&model.Report{}).Where("status = ?", model.StatusPending).Count(&d.PendingReports).Error; err != nil {
		return nil, database.Classify(err)
	}
	if err := db.Model(&userModel.User{}).Where("role = ?", userModel.RoleSuspended).Count(&d.SuspendedUsers).Error; err != nil {
		return nil, database.Classify(err)
	}
	return &d, nil
}
