package repository

import (
	"context"
	"testing"

	"socialhub/internal/domain/user/model"
	"socialhub/internal/pkg/testutil"
	"socialhub/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)

	u := &model.User{Username: "alice", Email: "alice@example.com", PhoneNumber: "+15550000001"}
	require.NoError(t, repo.Create(ctx, u))
	require.NotEmpty(t, u.ID)

	t.Run("Lookups", func(t *testing.T) {
		got, err := repo.GetByPhone(ctx, "+15550000001")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)

		got, err = repo.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)

		_, err = repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("Duplicate username", func(t *testing.T) {
		err := repo.Create(ctx, &model.User{Username: "alice", Email: "other@example.com", PhoneNumber: "+15550000002"})
		assert.ErrorIs(t, err, ErrUserTaken)
		assert.Equal(t, apperror.InvalidArgument, apperror.KindOf(err))
	})

	t.Run("Empty role reads as user", func(t *testing.T) {
		role, err := repo.GetRole(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RoleUser, role)

		_, err = repo.GetRole(ctx, "00000000-0000-0000-0000-000000000000")
		assert.Equal(t, apperror.NotFound, apperror.KindOf(err))
	})

	t.Run("UpdateProfile", func(t *testing.T) {
		require.NoError(t, repo.UpdateProfile(ctx, u.ID, map[string]interface{}{"bio": "hi"}))
		got, err := repo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "hi", got.Bio)
		assert.Equal(t, "alice@example.com", got.Email)

		err = repo.UpdateProfile(ctx, "00000000-0000-0000-0000-000000000000", map[string]interface{}{"bio": "x"})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("List", func(t *testing.T) {
		users, total, err := repo.GetList(ctx, 0, 10)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Len(t, users, 1)
	})
}
