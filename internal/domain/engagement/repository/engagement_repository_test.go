package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"socialhub/internal/domain/engagement/model"
	notificationModel "socialhub/internal/domain/notification/model"
	socialModel "socialhub/internal/domain/social/model"
	userModel "socialhub/internal/domain/user/model"
	"socialhub/internal/pkg/testutil"
	"socialhub/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createPost(t *testing.T, repo EngagementRepository, authorID, content string) *model.Post {
	t.Helper()
	post := &model.Post{AuthorID: authorID, Content: content}
	require.NoError(t, repo.CreatePost(context.Background(), post))
	return post
}

func countRows(t *testing.T, db *gorm.DB, m interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(m).Where(query, args...).Count(&n).Error)
	return n
}

func TestToggleLike(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewEngagementRepository(db)

	author := testutil.CreateUser(t, db, "author", userModel.RoleUser)
	fan := testutil.CreateUser(t, db, "fan", userModel.RoleUser)
	post := createPost(t, repo, author.ID, "hello")

	t.Run("Like then unlike restores state", func(t *testing.T) {
		res, n, err := repo.ToggleLike(ctx, fan.ID, post.ID)
		require.NoError(t, err)
		assert.True(t, res.Liked)
		assert.EqualValues(t, 1, res.LikeCount)
		require.NotNil(t, n)
		assert.Equal(t, notificationModel.TypeLike, n.Type)
		assert.Equal(t, author.ID, n.RecipientID)

		liked, err := repo.LikedPostIDs(ctx, fan.ID, []string{post.ID})
		require.NoError(t, err)
		assert.True(t, liked[post.ID])

		res, n, err = repo.ToggleLike(ctx, fan.ID, post.ID)
		require.NoError(t, err)
		assert.False(t, res.Liked)
		assert.EqualValues(t, 0, res.LikeCount)
		assert.Nil(t, n)

		liked, err = repo.LikedPostIDs(ctx, fan.ID, []string{post.ID})
		require.NoError(t, err)
		assert.False(t, liked[post.ID])
		assert.EqualValues(t, 0, countRows(t, db, &model.Like{}, "post_id = ?", post.ID))
	})

	t.Run("Self like sends no notification", func(t *testing.T) {
		res, n, err := repo.ToggleLike(ctx, author.ID, post.ID)
		require.NoError(t, err)
		assert.True(t, res.Liked)
		assert.Nil(t, n)

		_, _, err = repo.ToggleLike(ctx, author.ID, post.ID)
		require.NoError(t, err)
	})

	t.Run("Unknown post", func(t *testing.T) {
		_, _, err := repo.ToggleLike(ctx, fan.ID, "00000000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, ErrPostNotFound)
		assert.Equal(t, apperror.NotFound, apperror.KindOf(err))
	})
}

func TestToggleLikeConcurrent(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewConcurrentDB(t, 8)
	repo := NewEngagementRepository(db)

	author := testutil.CreateUser(t, db, "author", userModel.RoleUser)
	post := createPost(t, repo, author.ID, "popular")

	const n = 20
	likers := make([]*userModel.User, n)
	for i := range likers {
		likers[i] = testutil.CreateUser(t, db, fmt.Sprintf("liker%d", i), userModel.RoleUser)
	}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ok  int
		bad []error
	)
	for _, u := range likers {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			res, _, err := repo.ToggleLike(ctx, userID, post.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && res.Liked:
				ok++
			case apperror.Is(err, apperror.Unavailable):
				// 重试耗尽，整笔事务已回滚
			default:
				bad = append(bad, err)
			}
		}(u.ID)
	}
	wg.Wait()

	assert.Empty(t, bad)
	assert.Positive(t, ok)

	got, err := repo.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, ok, got.LikeCount)
	assert.EqualValues(t, ok, countRows(t, db, &model.Like{}, "post_id = ?", post.ID))
}

func TestComments(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewEngagementRepository(db)

	author := testutil.CreateUser(t, db, "author", userModel.RoleUser)
	other := testutil.CreateUser(t, db, "other", userModel.RoleUser)
	post := createPost(t, repo, author.ID, "discuss")

	comment := &model.Comment{PostID: post.ID, AuthorID: other.ID, Content: "nice"}
	n, err := repo.AddComment(ctx, comment)
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, notificationModel.TypeComment, n.Type)
	assert.Equal(t, "nice", n.Content)
	require.NotNil(t, n.CommentID)
	assert.Equal(t, comment.ID, *n.CommentID)

	own := &model.Comment{PostID: post.ID, AuthorID: author.ID, Content: "thanks"}
	n, err = repo.AddComment(ctx, own)
	require.NoError(t, err)
	assert.Nil(t, n)

	got, err := repo.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.CommentCount)

	comments, total, err := repo.ListComments(ctx, post.ID, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, comments, 2)

	t.Run("Only the comment author can delete", func(t *testing.T) {
		err := repo.DeleteComment(ctx, author.ID, comment.ID)
		assert.ErrorIs(t, err, ErrNotAuthor)
		assert.Equal(t, apperror.Forbidden, apperror.KindOf(err))
	})

	t.Run("Delete decrements and removes its notification", func(t *testing.T) {
		require.NoError(t, repo.DeleteComment(ctx, other.ID, comment.ID))

		got, err := repo.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, got.CommentCount)
		assert.EqualValues(t, 0, countRows(t, db, &notificationModel.Notification{}, "comment_id = ?", comment.ID))

		err = repo.DeleteComment(ctx, other.ID, comment.ID)
		assert.ErrorIs(t, err, ErrCommentNotFound)
	})

	t.Run("Comment count is floored at zero", func(t *testing.T) {
		require.NoError(t, db.Model(&model.Post{}).Where("id = ?", post.ID).Update("comment_count", 0).Error)
		require.NoError(t, repo.DeleteComment(ctx, author.ID, own.ID))

		got, err := repo.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 0, got.CommentCount)
	})

	t.Run("Comment on unknown post", func(t *testing.T) {
		_, err := repo.AddComment(ctx, &model.Comment{PostID: "00000000-0000-0000-0000-000000000000", AuthorID: other.ID, Content: "?"})
		assert.ErrorIs(t, err, ErrPostNotFound)
	})
}

func TestDeletePost(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewEngagementRepository(db)

	author := testutil.CreateUser(t, db, "author", userModel.RoleUser)
	other := testutil.CreateUser(t, db, "other", userModel.RoleUser)
	post := createPost(t, repo, author.ID, "short lived")

	_, _, err := repo.ToggleLike(ctx, other.ID, post.ID)
	require.NoError(t, err)
	comment := &model.Comment{PostID: post.ID, AuthorID: other.ID, Content: "hmm"}
	_, err = repo.AddComment(ctx, comment)
	require.NoError(t, err)
	require.NoError(t, db.Exec(
		"INSERT INTO reports (id, target_kind, target_id, target_user_id, reporter_id, reason, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)",
		"11111111-1111-1111-1111-111111111111", "post", post.ID, author.ID, other.ID, "spam", "pending",
	).Error)

	t.Run("Non-owner is forbidden", func(t *testing.T) {
		err := repo.DeletePost(ctx, other.ID, post.ID)
		assert.ErrorIs(t, err, ErrNotAuthor)

		_, err = repo.GetPost(ctx, post.ID)
		assert.NoError(t, err)
	})

	t.Run("Owner delete cascades", func(t *testing.T) {
		require.NoError(t, repo.DeletePost(ctx, author.ID, post.ID))

		_, err := repo.GetPost(ctx, post.ID)
		assert.ErrorIs(t, err, ErrPostNotFound)

		posts, total, err := repo.ListUserPosts(ctx, author.ID, 0, 10)
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, posts)

		assert.Zero(t, countRows(t, db, &model.Like{}, "post_id = ?", post.ID))
		assert.Zero(t, countRows(t, db, &model.Comment{}, "post_id = ?", post.ID))
		assert.Zero(t, countRows(t, db, &notificationModel.Notification{}, "post_id = ?", post.ID))

		var reports int64
		require.NoError(t, db.Raw("SELECT COUNT(*) FROM reports WHERE target_id = ?", post.ID).Scan(&reports).Error)
		assert.Zero(t, reports)
	})

	t.Run("Deleting again is NotFound", func(t *testing.T) {
		err := repo.DeletePost(ctx, author.ID, post.ID)
		assert.Equal(t, apperror.NotFound, apperror.KindOf(err))
	})
}

func TestFeed(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewEngagementRepository(db)

	me := testutil.CreateUser(t, db, "me", userModel.RoleUser)
	friend := testutil.CreateUser(t, db, "friend", userModel.RoleUser)
	stranger := testutil.CreateUser(t, db, "stranger", userModel.RoleUser)
	require.NoError(t, db.Create(&socialModel.Follow{FollowerID: me.ID, FolloweeID: friend.ID}).Error)

	mine := createPost(t, repo, me.ID, "mine")
	theirs := createPost(t, repo, friend.ID, "theirs")
	createPost(t, repo, stranger.ID, "unseen")

	posts, total, err := repo.Feed(ctx, me.ID, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	ids := []string{}
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	assert.ElementsMatch(t, []string{mine.ID, theirs.ID}, ids)
}

func TestUpdatePost(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewEngagementRepository(db)

	author := testutil.CreateUser(t, db, "author", userModel.RoleUser)
	other := testutil.CreateUser(t, db, "other", userModel.RoleUser)
	post := createPost(t, repo, author.ID, "draft")

	_, err := repo.UpdatePost(ctx, other.ID, post.ID, map[string]interface{}{"content": "hijack"})
	assert.ErrorIs(t, err, ErrNotAuthor)

	updated, err := repo.UpdatePost(ctx, author.ID, post.ID, map[string]interface{}{
		"content":   "final",
		"image_ref": "posts/a.png",
		"location":  "Berlin",
	})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Content)
	assert.Equal(t, "posts/a.png", updated.ImageRef)
	assert.Equal(t, "Berlin", updated.Location)
}
