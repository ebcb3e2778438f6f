package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	engagementModel "socialhub/internal/domain/engagement/model"
	"socialhub/internal/domain/moderation/model"
	notificationModel "socialhub/internal/domain/notification/model"
	socialModel "socialhub/internal/domain/social/model"
	userModel "socialhub/internal/domain/user/model"
	"socialhub/internal/pkg/testutil"
	"socialhub/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func reloadUser(t *testing.T, db *gorm.DB, id string) *userModel.User {
	t.Helper()
	var u userModel.User
	require.NoError(t, db.First(&u, "id = ?", id).Error)
	return &u
}

func count(t *testing.T, db *gorm.DB, m interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(m).Where(query, args...).Count(&n).Error)
	return n
}

func createPost(t *testing.T, db *gorm.DB, authorID string) *engagementModel.Post {
	t.Helper()
	p := &engagementModel.Post{AuthorID: authorID, Content: "post by " + authorID}
	require.NoError(t, db.Create(p).Error)
	return p
}

func TestIssueWarningCap(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewModerationRepository(db)

	mod := testutil.CreateUser(t, db, "mod", userModel.RoleModerator)
	target := testutil.CreateUser(t, db, "target", userModel.RoleUser)

	for i := 1; i <= userModel.MaxWarnings; i++ {
		res, err := repo.IssueWarning(ctx, mod.ID, target.ID, "spam")
		require.NoError(t, err)
		assert.Equal(t, target.ID, res.Warning.UserID)
		assert.Equal(t, notificationModel.TypeReport, res.Notification.Type)
		assert.Equal(t, i, reloadUser(t, db, target.ID).WarningCount)
	}

	_, err := repo.IssueWarning(ctx, mod.ID, target.ID, "again")
	assert.ErrorIs(t, err, ErrWarningLimit)
	assert.Equal(t, apperror.PreconditionFailed, apperror.KindOf(err))
	assert.Equal(t, userModel.MaxWarnings, reloadUser(t, db, target.ID).WarningCount)
	assert.EqualValues(t, userModel.MaxWarnings, count(t, db, &model.Warning{}, "user_id = ?", target.ID))

	_, err = repo.IssueWarning(ctx, mod.ID, "00000000-0000-0000-0000-000000000000", "ghost")
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err))
}

// 并发警告时 warning_count 与警告记录数一致且不超过上限
func TestIssueWarningConcurrent(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewConcurrentDB(t, 8)
	repo := NewModerationRepository(db)

	mod := testutil.CreateUser(t, db, "mod", userModel.RoleModerator)
	target := testutil.CreateUser(t, db, "target", userModel.RoleUser)

	const n = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		issued  int
		limited int
		bad     []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.IssueWarning(ctx, mod.ID, target.ID, fmt.Sprintf("spam %d", i))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				issued++
			case apperror.Is(err, apperror.PreconditionFailed):
				limited++
			case apperror.Is(err, apperror.Unavailable):
			default:
				bad = append(bad, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Empty(t, bad)
	assert.LessOrEqual(t, issued, userModel.MaxWarnings)
	if limited > 0 {
		assert.Equal(t, userModel.MaxWarnings, issued)
	}
	got := reloadUser(t, db, target.ID).WarningCount
	assert.Equal(t, issued, got)
	assert.LessOrEqual(t, got, userModel.MaxWarnings)
	assert.EqualValues(t, issued, count(t, db, &model.Warning{}, "user_id = ?", target.ID))
}

// 同一举报并发提交只落一行，成功的调用拿到同一条举报
func TestSubmitReportConcurrent(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewConcurrentDB(t, 8)
	repo := NewModerationRepository(db)

	author := testutil.CreateUser(t, db, "author", userModel.RoleUser)
	reporter := testutil.CreateUser(t, db, "reporter", userModel.RoleUser)
	post := createPost(t, db, author.ID)

	const n = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ids     = map[string]bool{}
		created int
		bad     []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, isNew, err := repo.SubmitReport(ctx, &model.Report{
				TargetKind: model.TargetPost, TargetID: post.ID, ReporterID: reporter.ID, Reason: "spam",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ids[r.ID] = true
				if isNew {
					created++
				}
			case apperror.Is(err, apperror.Unavailable):
			default:
				bad = append(bad, err)
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, bad)
	assert.LessOrEqual(t, created, 1)
	assert.LessOrEqual(t, len(ids), 1)
	assert.EqualValues(t, created, count(t, db, &model.Report{}, "target_id = ?", post.ID))
}

func TestSubmitReport(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewModerationRepository(db)

	author := testutil.CreateUser(t, db, "author", userModel.RoleUser)
	reporter := testutil.CreateUser(t, db, "reporter", userModel.RoleUser)
	post := createPost(t, db, author.ID)

	first, created, err := repo.SubmitReport(ctx, &model.Report{
		TargetKind: model.TargetPost, TargetID: post.ID, ReporterID: reporter.ID, Reason: "spam",
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, author.ID, first.TargetUserID)
	assert.Equal(t, model.StatusPending, first.Status)

	t.Run("Duplicate pending report is idempotent", func(t *testing.T) {
		again, created, err := repo.SubmitReport(ctx, &model.Report{
			TargetKind: model.TargetPost, TargetID: post.ID, ReporterID: reporter.ID, Reason: "still spam",
		})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, again.ID)
		assert.EqualValues(t, 1, count(t, db, &model.Report{}, "target_id = ?", post.ID))
	})

	t.Run("Self report is rejected", func(t *testing.T) {
		_, _, err := repo.SubmitReport(ctx, &model.Report{
			TargetKind: model.TargetProfile, TargetID: reporter.ID, ReporterID: reporter.ID, Reason: "me",
		})
		assert.ErrorIs(t, err, ErrSelfReport)
	})

	t.Run("Missing target", func(t *testing.T) {
		_, _, err := repo.SubmitReport(ctx, &model.Report{
			TargetKind: model.TargetComment, TargetID: "00000000-0000-0000-0000-000000000000", ReporterID: reporter.ID, Reason: "?",
		})
		assert.ErrorIs(t, err, ErrTargetNotFound)
	})

	t.Run("Dismiss marks reviewed", func(t *testing.T) {
		require.NoError(t, repo.DismissReport(ctx, first.ID))
		got, err := repo.GetReport(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusReviewed, got.Status)

		// 已驳回的举报不再视为重复
		_, created, err := repo.SubmitReport(ctx, &model.Report{
			TargetKind: model.TargetPost, TargetID: post.ID, ReporterID: reporter.ID, Reason: "spam",
		})
		require.NoError(t, err)
		assert.True(t, created)
	})
}

func TestResolveReport(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewModerationRepository(db)

	mod := testutil.CreateUser(t, db, "mod", userModel.RoleModerator)
	author := testutil.CreateUser(t, db, "author", userModel.RoleUser)
	reporter := testutil.CreateUser(t, db, "reporter", userModel.RoleUser)

	submit := func(kind, id string) *model.Report {
		r, _, err := repo.SubmitReport(ctx, &model.Report{TargetKind: kind, TargetID: id, ReporterID: reporter.ID, Reason: "bad"})
		require.NoError(t, err)
		return r
	}

	t.Run("Report then warning", func(t *testing.T) {
		post := createPost(t, db, author.ID)
		report := submit(model.TargetPost, post.ID)

		res, err := repo.ResolveReport(ctx, mod.ID, report.ID, "spam", false)
		require.NoError(t, err)
		assert.Equal(t, "spam", res.Notification.Content)

		assert.Equal(t, 1, reloadUser(t, db, author.ID).WarningCount)
		_, err = repo.GetReport(ctx, report.ID)
		assert.ErrorIs(t, err, ErrReportNotFound)
		assert.EqualValues(t, 1, count(t, db, &notificationModel.Notification{},
			"recipient_id = ? AND type = ?", author.ID, notificationModel.TypeReport))
		assert.EqualValues(t, 1, count(t, db, &engagementModel.Post{}, "id = ?", post.ID))
	})

	t.Run("Remove content deletes the post", func(t *testing.T) {
		post := createPost(t, db, author.ID)
		report := submit(model.TargetPost, post.ID)

		_, err := repo.ResolveReport(ctx, mod.ID, report.ID, "offensive", true)
		require.NoError(t, err)
		assert.Zero(t, count(t, db, &engagementModel.Post{}, "id = ?", post.ID))
		assert.Zero(t, count(t, db, &model.Report{}, "id = ?", report.ID))
	})

	t.Run("Cap reached leaves the report pending", func(t *testing.T) {
		post := createPost(t, db, author.ID)
		report := submit(model.TargetPost, post.ID)

		_, err := repo.ResolveReport(ctx, mod.ID, report.ID, "third", true)
		assert.ErrorIs(t, err, ErrWarningLimit)

		got, err := repo.GetReport(ctx, report.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusPending, got.Status)
		assert.EqualValues(t, 1, count(t, db, &engagementModel.Post{}, "id = ?", post.ID))
		assert.Equal(t, userModel.MaxWarnings, reloadUser(t, db, author.ID).WarningCount)
	})

	t.Run("Reviewed report cannot be resolved", func(t *testing.T) {
		other := testutil.CreateUser(t, db, "other", userModel.RoleUser)
		report := submit(model.TargetProfile, other.ID)
		require.NoError(t, repo.DismissReport(ctx, report.ID))

		_, err := repo.ResolveReport(ctx, mod.ID, report.ID, "late", false)
		assert.ErrorIs(t, err, ErrReportClosed)
		assert.Zero(t, reloadUser(t, db, other.ID).WarningCount)
	})
}

func TestSetRole(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewModerationRepository(db)

	mod := testutil.CreateUser(t, db, "mod", userModel.RoleModerator)

	err := repo.SetRole(ctx, mod.ID, userModel.RoleUser, userModel.RoleSuspended)
	assert.ErrorIs(t, err, ErrNotSuspended)
	assert.Equal(t, userModel.RoleModerator, reloadUser(t, db, mod.ID).Role)

	require.NoError(t, repo.SetRole(ctx, mod.ID, userModel.RoleSuspended, ""))
	require.NoError(t, repo.SetRole(ctx, mod.ID, userModel.RoleUser, userModel.RoleSuspended))
	assert.Equal(t, userModel.RoleUser, reloadUser(t, db, mod.ID).Role)

	err = repo.SetRole(ctx, "00000000-0000-0000-0000-000000000000", userModel.RoleSuspended, "")
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err))
}

func TestDeleteUserCascade(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewModerationRepository(db)

	gone := testutil.CreateUser(t, db, "gone", userModel.RoleUser)
	stay := testutil.CreateUser(t, db, "stay", userModel.RoleUser)
	fan := testutil.CreateUser(t, db, "fan", userModel.RoleUser)

	// gone <-> stay, fan -> gone
	require.NoError(t, db.Create(&socialModel.Follow{FollowerID: gone.ID, FolloweeID: stay.ID}).Error)
	require.NoError(t, db.Create(&socialModel.Follow{FollowerID: stay.ID, FolloweeID: gone.ID}).Error)
	require.NoError(t, db.Create(&socialModel.Follow{FollowerID: fan.ID, FolloweeID: gone.ID}).Error)
	db.Model(&userModel.User{}).Where("id = ?", stay.ID).Updates(map[string]interface{}{"follower_count": 1, "following_count": 1})
	db.Model(&userModel.User{}).Where("id = ?", fan.ID).Update("following_count", 1)

	ownPost := createPost(t, db, gone.ID)
	stayPost := createPost(t, db, stay.ID)
	require.NoError(t, db.Create(&engagementModel.Like{PostID: stayPost.ID, UserID: gone.ID}).Error)
	require.NoError(t, db.Create(&engagementModel.Like{PostID: ownPost.ID, UserID: stay.ID}).Error)
	require.NoError(t, db.Create(&engagementModel.Comment{PostID: stayPost.ID, AuthorID: gone.ID, Content: "a"}).Error)
	require.NoError(t, db.Create(&engagementModel.Comment{PostID: stayPost.ID, AuthorID: gone.ID, Content: "b"}).Error)
	require.NoError(t, db.Create(&engagementModel.Comment{PostID: stayPost.ID, AuthorID: fan.ID, Content: "c"}).Error)
	db.Model(&engagementModel.Post{}).Where("id = ?", stayPost.ID).Updates(map[string]interface{}{"like_count": 1, "comment_count": 3})
	require.NoError(t, db.Create(&notificationModel.Notification{RecipientID: stay.ID, ActorID: gone.ID, Type: notificationModel.TypeFollow}).Error)

	_, _, err := repo.SubmitReport(ctx, &model.Report{TargetKind: model.TargetProfile, TargetID: gone.ID, ReporterID: fan.ID, Reason: "x"})
	require.NoError(t, err)

	affected, err := repo.DeleteUser(ctx, gone.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{stay.ID, stay.ID, fan.ID}, affected)

	assert.Zero(t, count(t, db, &userModel.User{}, "id = ?", gone.ID))
	assert.Zero(t, count(t, db, &engagementModel.Post{}, "author_id = ?", gone.ID))
	assert.Zero(t, count(t, db, &engagementModel.Like{}, "post_id = ? OR user_id = ?", ownPost.ID, gone.ID))
	assert.Zero(t, count(t, db, &engagementModel.Comment{}, "author_id = ?", gone.ID))
	assert.Zero(t, count(t, db, &socialModel.Follow{}, "follower_id = ? OR followee_id = ?", gone.ID, gone.ID))
	assert.Zero(t, count(t, db, &model.Report{}, "target_user_id = ?", gone.ID))
	assert.Zero(t, count(t, db, &notificationModel.Notification{}, "actor_id = ?", gone.ID))

	s := reloadUser(t, db, stay.ID)
	assert.Zero(t, s.FollowerCount)
	assert.Zero(t, s.FollowingCount)
	assert.Zero(t, reloadUser(t, db, fan.ID).FollowingCount)

	var p engagementModel.Post
	require.NoError(t, db.First(&p, "id = ?", stayPost.ID).Error)
	assert.Zero(t, p.LikeCount)
	assert.EqualValues(t, 1, p.CommentCount)

	_, err = repo.DeleteUser(ctx, gone.ID)
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err))
}

func TestReportedUsersAndDashboard(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewModerationRepository(db)

	a := testutil.CreateUser(t, db, "a", userModel.RoleUser)
	b := testutil.CreateUser(t, db, "b", userModel.RoleSuspended)
	r1 := testutil.CreateUser(t, db, "r1", userModel.RoleUser)
	r2 := testutil.CreateUser(t, db, "r2", userModel.RoleUser)

	postA := createPost(t, db, a.ID)
	for _, reporter := range []*userModel.User{r1, r2} {
		_, _, err := repo.SubmitReport(ctx, &model.Report{TargetKind: model.TargetPost, TargetID: postA.ID, ReporterID: reporter.ID, Reason: "x"})
		require.NoError(t, err)
	}
	_, _, err := repo.SubmitReport(ctx, &model.Report{TargetKind: model.TargetProfile, TargetID: b.ID, ReporterID: r1.ID, Reason: "x"})
	require.NoError(t, err)

	users, total, err := repo.ListReportedUsers(ctx, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, users, 2)
	assert.Equal(t, a.ID, users[0].UserID)
	assert.Equal(t, "a", users[0].Username)
	assert.EqualValues(t, 2, users[0].PendingReports)
	assert.Equal(t, b.ID, users[1].UserID)
	assert.EqualValues(t, 1, users[1].PendingReports)

	d, err := repo.Dashboard(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, d.Users)
	assert.EqualValues(t, 1, d.Posts)
	assert.EqualValues(t, 3, d.PendingReports)
	assert.EqualValues(t, 1, d.SuspendedUsers)

	reports, total, err := repo.ListReports(ctx, model.ReportFilter{Kind: model.TargetProfile}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, b.ID, reports[0].TargetUserID)
}
