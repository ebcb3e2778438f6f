package model

import (
	"fmt"

	baseModel "socialhub/pkg/model"
)

// 通知类型
const (
	TypeFollow   = "follow"
	TypeUnfollow = "unfollow"
	TypeLike     = "like"
	TypeComment  = "comment"
	TypeReport   = "report"
)

// Notification 通知，与引起它的写操作在同一事务中创建
type Notification struct {
	baseModel.BaseModel
	RecipientID string  `gorm:"type:uuid;not null;index:idx_notifications_recipient,priority:1" json:"recipientId"`
	ActorID     string  `gorm:"type:uuid;not null;index" json:"actorId"`
	Type        string  `gorm:"size:16;not null" json:"type"`
	PostID      *string `gorm:"type:uuid;index" json:"postId,omitempty"`
	CommentID   *string `gorm:"type:uuid;index" json:"commentId,omitempty"`
	Content     string  `json:"content,omitempty"`
	Read        bool    `gorm:"not null;index:idx_notifications_recipient,priority:2" json:"read"`
}

// Message 推送文案
func (n *Notification) Message() string {
	switch n.Type {
	case TypeFollow:
		return "started following you"
	case TypeUnfollow:
		return "unfollowed you"
	case TypeLike:
		return "liked your post"
	case TypeComment:
		if n.Content != "" {
			return fmt.Sprintf("commented: %s", n.Content)
		}
		return "commented on your post"
	case TypeReport:
		if n.Content != "" {
			return fmt.Sprintf("You received a warning: %s", n.Content)
		}
		return "You received a warning"
	}
	return n.Type
}
