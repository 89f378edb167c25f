package db

import (
	"context"
	"testing"
	"time"

	"github.com/safe4law/safe4law/internal/identity/entity"
	"github.com/safe4law/safe4law/internal/pkg/goerror"
	"github.com/safe4law/safe4law/internal/pkg/instrument"
	"github.com/safe4law/safe4law/internal/pkg/pgtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDB_Integration(t *testing.T) {
	pool := pgtest.Postgres(t)
	repo := NewDB(pool, instrument.NewNoop())
	ctx := context.Background()
	now := time.Now().UTC()

	ada := entity.NewUser{ID: 1, FirstName: "Ada", LastName: "Lovelace", Email: "ada@x.com",
		Gender: entity.GenderFemale, Country: "UK", PasswordHash: "h-ada"}
	alan := entity.NewUser{ID: 2, FirstName: "Alan", LastName: "Turing", Email: "alan@x.com",
		Gender: entity.GenderMale, Country: "UK", PasswordHash: "h-alan"}

	t.Run("CreateRegistration", func(t *testing.T) {
		require.NoError(t, repo.CreateRegistration(ctx, ada, entity.VerificationToken{UserID: 1, TokenHash: "t-ada", ExpiresAt: now.Add(time.Hour)}))
		require.NoError(t, repo.CreateRegistration(ctx, alan, entity.VerificationToken{UserID: 2, TokenHash: "t-alan", ExpiresAt: now.Add(-time.Minute)}))

		dup := ada
		dup.ID = 3
		err := repo.CreateRegistration(ctx, dup, entity.VerificationToken{UserID: 3, TokenHash: "t-dup", ExpiresAt: now})
		assert.ErrorIs(t, err, goerror.ErrConflict)
	})

	t.Run("VerifyEmail", func(t *testing.T) {
		_, err := repo.VerifyEmail(ctx, "t-alan", now)
		assert.ErrorIs(t, err, goerror.ErrNotFound)

		id, err := repo.VerifyEmail(ctx, "t-ada", now)
		require.NoError(t, err)
		assert.Equal(t, int64(1), id)

		_, err = repo.VerifyEmail(ctx, "t-ada", now)
		assert.ErrorIs(t, err, goerror.ErrNotFound)

		cred, err := repo.GetCredentialByEmail(ctx, "ada@x.com")
		require.NoError(t, err)
		assert.True(t, cred.EmailVerified)
		assert.Equal(t, "h-ada", cred.PasswordHash)
	})

	t.Run("SaveVerificationTokenReplaces", func(t *testing.T) {
		require.NoError(t, repo.SaveVerificationToken(ctx, entity.VerificationToken{UserID: 2, TokenHash: "t-alan-2", ExpiresAt: now.Add(time.Hour)}))

		id, err := repo.VerifyEmail(ctx, "t-alan-2", now)
		require.NoError(t, err)
		assert.Equal(t, int64(2), id)
	})

	t.Run("UpdateProfile", func(t *testing.T) {
		country := "France"
		u, err := repo.UpdateProfile(ctx, 1, entity.ProfilePatch{Country: &country})
		require.NoError(t, err)
		assert.Equal(t, "France", u.Country)
		assert.Equal(t, "Ada", u.FirstName)
		assert.Equal(t, entity.GenderFemale, u.Gender)

		_, err = repo.UpdateProfile(ctx, 99, entity.ProfilePatch{Country: &country})
		assert.ErrorIs(t, err, goerror.ErrNotFound)
	})

	t.Run("UpdatePassword", func(t *testing.T) {
		require.NoError(t, repo.UpdatePassword(ctx, 2, "h-new"))

		cred, err := repo.GetCredentialByID(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, "h-new", cred.PasswordHash)

		assert.ErrorIs(t, repo.UpdatePassword(ctx, 99, "x"), goerror.ErrNotFound)
	})

	t.Run("ListDirectory", func(t *testing.T) {
		entries, total, err := repo.ListDirectory(ctx, entity.DirectoryFilter{ExcludeID: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, entries, 1)
		assert.Equal(t, "Alan", entries[0].FirstName)

		entries, total, err = repo.ListDirectory(ctx, entity.DirectoryFilter{ExcludeID: 99, Search: "love", Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, entries, 1)
		assert.Equal(t, int64(1), entries[0].ID)
	})
}
