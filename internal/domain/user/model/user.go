package model

import (
	baseModel "socialhub/pkg/model"
)

// 角色
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
	RoleSuspended = "suspended"
)

// MaxWarnings 单个用户最多可收到的警告数
const MaxWarnings = 2

// User 用户模型
type User struct {
	baseModel.BaseModel
	Username        string `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email           string `gorm:"size:255;uniqueIndex;not null" json:"email,omitempty"` // 创建后不可修改
	PhoneNumber     string `gorm:"size:32;uniqueIndex;not null" json:"phoneNumber,omitempty"`
	Gender          string `gorm:"size:16" json:"gender"`
	Bio             string `gorm:"size:500" json:"bio"`
	ProfileImageRef string `json:"profileImageRef"`
	Role            string `gorm:"size:16;index" json:"role"`
	WarningCount    int    `gorm:"not null" json:"warningCount"`
	FollowerCount   int64  `gorm:"not null" json:"followerCount"`
	FollowingCount  int64  `gorm:"not null" json:"followingCount"`
}

// EffectiveRole 空角色视为普通用户
func (u *User) EffectiveRole() string {
	if u.Role == "" {
		return RoleUser
	}
	return u.Role
}

// Public 返回对其他用户可见的资料 (隐藏联系方式)
func (u *User) Public() *User {
	cp := *u
	cp.Email = ""
	cp.PhoneNumber = ""
	cp.Role = u.EffectiveRole()
	return &cp
}

// IsStaff moderator 或 admin
func IsStaff(role string) bool {
	return role == RoleModerator || role == RoleAdmin
}
