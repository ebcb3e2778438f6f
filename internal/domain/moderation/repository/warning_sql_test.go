package repository

import (
	"context"
	"regexp"
	"testing"

	"socialhub/internal/domain/moderation/model"
	userModel "socialhub/internal/domain/user/model"
	"socialhub/pkg/apperror"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

// 警告上限必须由单条条件 UPDATE 保证
func TestIssueWarningTxGuardedUpdate(t *testing.T) {
	guarded := regexp.QuoteMeta(`UPDATE "users" SET "warning_count"=warning_count + 1 WHERE id = $1 AND warning_count < $2`)
	exists := regexp.QuoteMeta(`SELECT count(*) FROM "users" WHERE id = $1`)

	t.Run("Cap reached", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(guarded).
			WithArgs("u1", userModel.MaxWarnings).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(exists).
			WithArgs("u1").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		_, err := IssueWarningTx(db, "mod", "u1", "spam")
		assert.ErrorIs(t, err, ErrWarningLimit)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown user", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(guarded).
			WithArgs("ghost", userModel.MaxWarnings).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(exists).
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		_, err := IssueWarningTx(db, "mod", "ghost", "spam")
		assert.Equal(t, apperror.NotFound, apperror.KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// 重复举报依赖唯一索引 + ON CONFLICT DO NOTHING，冲突时读回已有举报
func TestSubmitReportInsertsOnConflictDoNothing(t *testing.T) {
	const (
		postID     = "11111111-1111-1111-1111-111111111111"
		authorID   = "22222222-2222-2222-2222-222222222222"
		reporterID = "33333333-3333-3333-3333-333333333333"
		existingID = "44444444-4444-4444-4444-444444444444"
	)
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM "posts" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "author_id"}).AddRow(postID, authorID))
	mock.ExpectExec(`INSERT INTO "reports" .+ ON CONFLICT DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT \* FROM "reports" WHERE reporter_id = \$1 AND target_kind = \$2 AND target_id = \$3 AND status = \$4`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "target_kind", "target_id", "target_user_id", "reporter_id", "reason", "status"}).
			AddRow(existingID, model.TargetPost, postID, authorID, reporterID, "spam", model.StatusPending))
	mock.ExpectCommit()

	got, created, err := NewModerationRepository(db).SubmitReport(context.Background(), &model.Report{
		TargetKind: model.TargetPost, TargetID: postID, ReporterID: reporterID, Reason: "again",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, existingID, got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
