package model

import (
	"time"

	baseModel "socialhub/pkg/model"
)

// Post 帖子
type Post struct {
	baseModel.BaseModel
	AuthorID     string `gorm:"type:uuid;not null;index" json:"authorId"`
	Content      string `gorm:"type:text" json:"content"`
	ImageRef     string `json:"imageRef"`
	Location     string `gorm:"size:255" json:"location"`
	LikeCount    int64  `gorm:"not null" json:"likeCount"`
	CommentCount int64  `gorm:"not null" json:"commentCount"`

	// LikedByMe 按当前查看者计算，不落库
	LikedByMe bool `gorm:"-" json:"likedByMe"`
}

// Like 点赞，(post_id, user_id) 唯一
type Like struct {
	PostID    string    `gorm:"type:uuid;primaryKey" json:"postId"`
	UserID    string    `gorm:"type:uuid;primaryKey;index" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Comment 评论
type Comment struct {
	baseModel.BaseModel
	PostID   string `gorm:"type:uuid;not null;index" json:"postId"`
	AuthorID string `gorm:"type:uuid;not null;index" json:"authorId"`
	Content  string `gorm:"type:text;not null" json:"content"`
}

// LikeResult 点赞切换结果
type LikeResult struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"likeCount"`
}
