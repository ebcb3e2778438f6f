package model

import (
	baseModel "socialhub/pkg/model"
)

// 举报对象类型
const (
	TargetPost    = "post"
	TargetComment = "comment"
	TargetProfile = "profile"
)

// 举报状态。处理 (警告/删除内容) 后的举报直接删除，不保留状态
const (
	StatusPending  = "pending"
	StatusReviewed = "reviewed"
)

// ValidTargetKind 是否为支持的举报对象
func ValidTargetKind(kind string) bool {
	switch kind {
	case TargetPost, TargetComment, TargetProfile:
		return true
	}
	return false
}

// Report 举报。同一举报人对同一对象最多一条待处理举报 (idx_reports_pending)
type Report struct {
	baseModel.BaseModel
	TargetKind   string `gorm:"size:16;not null;index:idx_reports_target,priority:1;uniqueIndex:idx_reports_pending,priority:2" json:"targetKind"`
	TargetID     string `gorm:"type:uuid;not null;index:idx_reports_target,priority:2;uniqueIndex:idx_reports_pending,priority:3" json:"targetId"`
	TargetUserID string `gorm:"type:uuid;not null;index" json:"targetUserId"`
	ReporterID   string `gorm:"type:uuid;not null;index;uniqueIndex:idx_reports_pending,priority:1,where:status = 'pending'" json:"reporterId"`
	Reason       string `gorm:"type:text;not null" json:"reason"`
	Status       string `gorm:"size:16;not null;index" json:"status"`
}

// Warning 警告记录，只追加
type Warning struct {
	baseModel.BaseModel
	UserID   string `gorm:"type:uuid;not null;index" json:"userId"`
	IssuerID string `gorm:"type:uuid;not null" json:"issuerId"`
	Reason   string `gorm:"type:text;not null" json:"reason"`
}

// ReportedUser 被举报用户及其待处理举报数
type ReportedUser struct {
	UserID         string `json:"userId"`
	Username       string `json:"username"`
	Role           string `json:"role"`
	WarningCount   int    `json:"warningCount"`
	PendingReports int64  `json:"pendingReports"`
}

// Dashboard 管理后台概览
type Dashboard struct {
	Users          int64 `json:"users"`
	Posts          int64 `json:"posts"`
	PendingReports int64 `json:"pendingReports"`
	SuspendedUsers int64 `json:"suspendedUsers"`
}

// ReportFilter 举报列表过滤条件，空值表示不过滤
type ReportFilter struct {
	Status string
	Kind   string
}
