package model

import "time"

// Follow 关注关系，一行同时表示 follower 的 following 与 followee 的 followers
type Follow struct {
	FollowerID string    `gorm:"type:uuid;primaryKey" json:"followerId"`
	FolloweeID string    `gorm:"type:uuid;primaryKey;index" json:"followeeId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// FollowStatus 关注状态与计数
type FollowStatus struct {
	Following      bool  `json:"following"`
	FollowerCount  int64 `json:"followerCount"`
	FollowingCount int64 `json:"followingCount"`
}
