package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"socialhub/internal/pkg/config"
	"socialhub/pkg/apperror"
	"socialhub/pkg/logger"
	"socialhub/pkg/metrics"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultMaxAttempts = 5
	retryBackoff       = 10 * time.Millisecond
)

// ErrConcurrentUpdate 事务内检测到并发修改，整笔事务需要重试
var ErrConcurrentUpdate = apperror.New(apperror.Conflict, "concurrent update detected")

// WithRetry 在事务中执行 fn，遇到序列化失败、死锁或锁冲突时整体重试。
// Conflict 不会返回给调用方：重试耗尽后转换为 Unavailable。
func WithRetry(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	attempts := config.GlobalConfig.Database.MaxRetries
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = Classify(db.WithContext(ctx).Transaction(fn))
		if !apperror.Is(err, apperror.Conflict) {
			if apperror.Is(err, apperror.Unavailable) {
				metrics.GetGlobalCollector().RecordDBError("unavailable")
			}
			return err
		}

		metrics.GetGlobalCollector().RecordTxRetry()
		logger.Log.Debug("transaction conflict, retrying",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return apperror.Wrap(apperror.Unavailable, ctx.Err(), "request cancelled")
		case <-time.After(time.Duration(attempt) * retryBackoff):
		}
	}
	return apperror.Wrap(apperror.Unavailable, err, "transaction kept conflicting")
}

// Classify 将存储层错误归类。已归类的错误原样返回。
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperror.Wrap(apperror.NotFound, err, "record not found")
	case pgCode(err) == "22P02":
		// invalid_text_representation: 非法 uuid 等
		return apperror.Wrap(apperror.InvalidArgument, err, "malformed identifier")
	case errors.Is(err, gorm.ErrForeignKeyViolated), pgCode(err) == "23503":
		// 引用的记录已被并发删除
		return apperror.Wrap(apperror.NotFound, err, "referenced record not found")
	case isRetryable(err):
		return apperror.Wrap(apperror.Conflict, err, "concurrent update")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperror.Wrap(apperror.InvalidArgument, err, "record already exists")
	}
	return apperror.Wrap(apperror.Unavailable, err, "storage error")
}

// NotFoundAs 把 gorm.ErrRecordNotFound 替换为具体的业务错误
func NotFoundAs(err, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isRetryable(err error) bool {
	if code := pgCode(err); code != "" {
		// serialization_failure, deadlock_detected
		return code == "40001" || code == "40P01"
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "deadlock detected")
}
