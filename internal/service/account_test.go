package service

import (
	"Go_Attach/internal/repo"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccounts(t *testing.T) *Accounts {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "accounts.db"))
	require.NoError(t, err)
	require.NoError(t, repo.AutoMigrate(db))
	return NewAccounts(db)
}

func TestCreateAndAuthenticate(t *testing.T) {
	accounts := newAccounts(t)
	ctx := context.Background()

	account, err := accounts.Create(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", account.Password)
	assert.True(t, account.IsActive)

	found, err := accounts.Authenticate(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, account.ID, found.ID)

	_, err = accounts.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = accounts.Authenticate(ctx, "bob", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateDuplicateAccount(t *testing.T) {
	accounts := newAccounts(t)
	ctx := context.Background()

	_, err := accounts.Create(ctx, "alice", "one")
	require.NoError(t, err)
	_, err = accounts.Create(ctx, "alice", "two")
	assert.ErrorIs(t, err, ErrAccountExists)
}

func TestCreateAccountValidation(t *testing.T) {
	accounts := newAccounts(t)

	_, err := accounts.Create(context.Background(), " ", "pw")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "username in body: Required", verr.Message())
}
