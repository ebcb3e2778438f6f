package service

import (
	"context"
	"errors"
	"testing"

	engagementModel "socialhub/internal/domain/engagement/model"
	"socialhub/internal/domain/moderation/model"
	"socialhub/internal/domain/moderation/repository"
	notificationModel "socialhub/internal/domain/notification/model"
	userModel "socialhub/internal/domain/user/model"
	userRepo "socialhub/internal/domain/user/repository"
	userService "socialhub/internal/domain/user/service"
	"socialhub/internal/pkg/testutil"
	"socialhub/pkg/apperror"
	"socialhub/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubRoles map[string]string

func (s stubRoles) ResolveRole(ctx context.Context, userID string) (string, error) {
	role, ok := s[userID]
	if !ok {
		return "", userRepo.ErrUserNotFound
	}
	return role, nil
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(notifications ...*notificationModel.Notification) {
	m.Called(notifications)
}

type nopCache struct{}

func (nopCache) Invalidate(context.Context, ...string) {}

func newService(t *testing.T) (ModerationService, *MockPublisher, func(username, role string) *userModel.User) {
	db := testutil.NewDB(t)
	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything).Maybe()

	svc := NewModerationService(
		repository.NewModerationRepository(db),
		userService.NewRoleResolver(userRepo.NewUserRepository(db)),
		pub,
		userService.NewProfileCache(cache.NewMemoryCache()),
	)
	create := func(username, role string) *userModel.User {
		return testutil.CreateUser(t, db, username, role)
	}
	return svc, pub, create
}

func TestRoleRules(t *testing.T) {
	ctx := context.Background()
	roles := stubRoles{
		"admin": userModel.RoleAdmin,
		"mod":   userModel.RoleModerator,
		"user":  userModel.RoleUser,
	}
	svc := NewModerationService(nil, roles, new(MockPublisher), nopCache{})

	t.Run("Plain user cannot moderate", func(t *testing.T) {
		err := svc.SuspendUser(ctx, "user", "mod")
		assert.ErrorIs(t, err, ErrNotStaff)
	})

	t.Run("Unknown actor fails closed", func(t *testing.T) {
		_, err := svc.IssueWarning(ctx, "ghost", "user", "spam")
		assert.ErrorIs(t, err, ErrNotStaff)
		assert.Equal(t, apperror.Forbidden, apperror.KindOf(err))
	})

	t.Run("Moderator cannot act on admin", func(t *testing.T) {
		err := svc.SuspendUser(ctx, "mod", "admin")
		assert.ErrorIs(t, err, ErrAdminProtected)

		_, err = svc.IssueWarning(ctx, "mod", "admin", "rude")
		assert.ErrorIs(t, err, ErrAdminProtected)
	})

	t.Run("Nobody suspends themselves", func(t *testing.T) {
		err := svc.SuspendUser(ctx, "admin", "admin")
		assert.ErrorIs(t, err, ErrSelfAction)
	})

	t.Run("Nobody warns themselves", func(t *testing.T) {
		_, err := svc.IssueWarning(ctx, "mod", "mod", "spam")
		assert.ErrorIs(t, err, ErrSelfAction)
	})

	t.Run("Only admins delete users", func(t *testing.T) {
		err := svc.DeleteUser(ctx, "mod", "user")
		assert.ErrorIs(t, err, ErrNotAdmin)
	})

	t.Run("Reason is required", func(t *testing.T) {
		_, err := svc.IssueWarning(ctx, "mod", "user", "  ")
		assert.ErrorIs(t, err, ErrEmptyReason)
	})

	t.Run("Unknown report kind", func(t *testing.T) {
		_, err := svc.SubmitReport(ctx, "user", "video", "x", "bad")
		assert.ErrorIs(t, err, ErrUnknownKind)
	})
}

func TestReportToWarningScenario(t *testing.T) {
	ctx := context.Background()
	svc, pub, create := newService(t)

	mod := create("mod", userModel.RoleModerator)
	target := create("target", userModel.RoleUser)
	reporter := create("reporter", userModel.RoleUser)

	report, err := svc.SubmitReport(ctx, reporter.ID, model.TargetProfile, target.ID, "spam account")
	require.NoError(t, err)

	warning, err := svc.ResolveReport(ctx, mod.ID, report.ID, "spam", false)
	require.NoError(t, err)
	assert.Equal(t, target.ID, warning.UserID)
	assert.Equal(t, "spam", warning.Reason)

	reports, total, err := svc.ListReports(ctx, mod.ID, model.ReportFilter{}, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, reports)

	warnings, total, err := svc.ListWarnings(ctx, mod.ID, target.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, warnings, 1)

	pub.AssertCalled(t, "Publish", mock.MatchedBy(func(ns []*notificationModel.Notification) bool {
		return len(ns) == 1 && ns[0].RecipientID == target.ID && ns[0].Type == notificationModel.TypeReport && ns[0].Content == "spam"
	}))
}

func TestResolveReportAgainstSelf(t *testing.T) {
	ctx := context.Background()
	svc, _, create := newService(t)

	mod := create("mod", userModel.RoleModerator)
	admin := create("admin", userModel.RoleAdmin)
	reporter := create("reporter", userModel.RoleUser)

	report, err := svc.SubmitReport(ctx, reporter.ID, model.TargetProfile, mod.ID, "abusive")
	require.NoError(t, err)

	_, err = svc.ResolveReport(ctx, mod.ID, report.ID, "abusive", false)
	assert.ErrorIs(t, err, ErrSelfAction)

	pending, total, err := svc.ListReports(ctx, admin.ID, model.ReportFilter{Status: model.StatusPending}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, pending, 1)
	assert.Equal(t, report.ID, pending[0].ID)

	warning, err := svc.ResolveReport(ctx, admin.ID, report.ID, "abusive", false)
	require.NoError(t, err)
	assert.Equal(t, mod.ID, warning.UserID)
}

func TestWarningCapThroughService(t *testing.T) {
	ctx := context.Background()
	svc, _, create := newService(t)

	mod := create("mod", userModel.RoleModerator)
	target := create("target", userModel.RoleUser)

	for i := 0; i < userModel.MaxWarnings; i++ {
		_, err := svc.IssueWarning(ctx, mod.ID, target.ID, "spam")
		require.NoError(t, err)
	}
	_, err := svc.IssueWarning(ctx, mod.ID, target.ID, "spam")
	assert.Equal(t, apperror.PreconditionFailed, apperror.KindOf(err))
}

// 封禁再解封后角色恢复为 user 而不是原来的 moderator
func TestSuspendRoundTripIsLossy(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	roles := userService.NewRoleResolver(userRepo.NewUserRepository(db))
	svc := NewModerationService(repository.NewModerationRepository(db), roles, new(MockPublisher), nopCache{})

	admin := testutil.CreateUser(t, db, "admin", userModel.RoleAdmin)
	mod := testutil.CreateUser(t, db, "mod", userModel.RoleModerator)

	require.NoError(t, svc.SuspendUser(ctx, admin.ID, mod.ID))
	role, err := roles.ResolveRole(ctx, mod.ID)
	require.NoError(t, err)
	assert.Equal(t, userModel.RoleSuspended, role)

	// 被封禁的 moderator 不再具有管理权限
	_, err = svc.Dashboard(ctx, mod.ID)
	assert.ErrorIs(t, err, ErrNotStaff)

	require.NoError(t, svc.UnsuspendUser(ctx, admin.ID, mod.ID))
	role, err = roles.ResolveRole(ctx, mod.ID)
	require.NoError(t, err)
	assert.Equal(t, userModel.RoleUser, role)

	err = svc.UnsuspendUser(ctx, admin.ID, mod.ID)
	assert.ErrorIs(t, err, repository.ErrNotSuspended)
}

func TestDeleteUserRemovesContent(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewModerationService(
		repository.NewModerationRepository(db),
		userService.NewRoleResolver(userRepo.NewUserRepository(db)),
		new(MockPublisher),
		nopCache{},
	)

	admin := testutil.CreateUser(t, db, "admin", userModel.RoleAdmin)
	target := testutil.CreateUser(t, db, "target", userModel.RoleUser)
	require.NoError(t, db.Create(&engagementModel.Post{AuthorID: target.ID, Content: "bye"}).Error)

	require.NoError(t, svc.DeleteUser(ctx, admin.ID, target.ID))

	var posts int64
	require.NoError(t, db.Model(&engagementModel.Post{}).Count(&posts).Error)
	assert.Zero(t, posts)

	err := svc.DeleteUser(ctx, admin.ID, target.ID)
	assert.True(t, errors.Is(err, userRepo.ErrUserNotFound))
}
