// Package testutil 仓库层测试使用的 SQLite 数据库
package testutil

import (
	"fmt"
	"path/filepath"
	"testing"

	engagementModel "socialhub/internal/domain/engagement/model"
	moderationModel "socialhub/internal/domain/moderation/model"
	notificationModel "socialhub/internal/domain/notification/model"
	socialModel "socialhub/internal/domain/social/model"
	userModel "socialhub/internal/domain/user/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models 所有需要建表的模型
func Models() []interface{} {
	return []interface{}{
		&userModel.User{},
		&socialModel.Follow{},
		&engagementModel.Post{},
		&engagementModel.Like{},
		&engagementModel.Comment{},
		&moderationModel.Report{},
		&moderationModel.Warning{},
		&notificationModel.Notification{},
	}
}

// NewDB 在临时目录中创建 SQLite 数据库并建表。
// 单连接：事务被串行化，适合确定性断言。
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	return open(t, "", 1)
}

// NewConcurrentDB 多连接 + WAL，并发事务会真正争用写锁并触发重试
func NewConcurrentDB(t *testing.T, conns int) *gorm.DB {
	t.Helper()
	return open(t, "&_journal_mode=WAL", conns)
}

func open(t *testing.T, extra string, conns int) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?_foreign_keys=off&_busy_timeout=5000%s", filepath.Join(t.TempDir(), "test.db"), extra)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(conns)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(Models()...))
	return db
}

// CreateUser 创建测试用户
func CreateUser(t *testing.T, db *gorm.DB, username, role string) *userModel.User {
	t.Helper()
	u := &userModel.User{
		Username:    username,
		Email:       username + "@example.com",
		PhoneNumber: fmt.Sprintf("+1%010d", uuid.New().ID()),
		Role:        role,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}
