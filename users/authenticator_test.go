package users

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/adminauth/password"
)

func testHasher(t *testing.T) password.Hasher {
	t.Helper()
	h, err := password.NewArgon2(password.Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	require.NoError(t, err)
	return password.NewMulti(h)
}

func TestCredentialsAuthenticator(t *testing.T) {
	hasher := testHasher(t)
	hash, err := hasher.Hash("admin123")
	require.NoError(t, err)

	store := NewMemoryStore(
		User{Principal: Principal{UserID: "1", Username: "admin", Roles: []string{"admin"}}, PasswordHash: hash, Status: StatusActive},
		User{Principal: Principal{UserID: "2", Username: "locked"}, PasswordHash: hash, Status: StatusDisabled},
		User{Principal: Principal{UserID: "3", Username: "gone"}, PasswordHash: hash, Status: StatusActive, Deleted: true},
	)
	auth := NewCredentialsAuthenticator(store, hasher, nil)
	ctx := context.Background()

	p, err := auth.Authenticate(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, "1", p.UserID)
	assert.Equal(t, []string{"admin"}, p.Roles)

	_, err = auth.Authenticate(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, ErrBadCredentials)

	_, err = auth.Authenticate(ctx, "nobody", "admin123")
	assert.ErrorIs(t, err, ErrBadCredentials, "unknown user must look like a bad password")

	_, err = auth.Authenticate(ctx, "locked", "admin123")
	var accErr *AccountError
	require.True(t, errors.As(err, &accErr))
	assert.Equal(t, KeyAccountDisabled, accErr.MessageKey())

	_, err = auth.Authenticate(ctx, "gone", "admin123")
	require.True(t, errors.As(err, &accErr))
	assert.Equal(t, KeyAccountDeleted, accErr.MessageKey())
}

type failingStore struct{}

func (failingStore) UserByUsername(context.Context, string) (*User, error) {
	return nil, errors.New("db down")
}

func TestCredentialsAuthenticatorStoreFailure(t *testing.T) {
	auth := NewCredentialsAuthenticator(failingStore{}, testHasher(t), nil)

	_, err := auth.Authenticate(context.Background(), "admin", "admin123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrBadCredentials)
}

func TestLoadMemoryStore(t *testing.T) {
	doc := `
users:
  - id: "1"
    username: admin
    nickname: Admin
    password_hash: $2a$10$7JB720yubVSZvUI0rEqK/.VqGOZTH.ulu33dHOiBE8ByOhJIrdAu2
    roles: [admin]
    permissions: ["*:*:*"]
  - username: ry
    password_hash: $2a$10$7JB720yubVSZvUI0rEqK/.VqGOZTH.ulu33dHOiBE8ByOhJIrdAu2
    disabled: true
`
	store, err := LoadMemoryStore(strings.NewReader(doc))
	require.NoError(t, err)

	admin, err := store.UserByUsername(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, "Admin", admin.Nickname)
	assert.Equal(t, []string{"*:*:*"}, admin.Permissions)

	ry, err := store.UserByUsername(context.Background(), "ry")
	require.NoError(t, err)
	assert.Equal(t, "ry", ry.UserID)
	assert.Equal(t, StatusDisabled, ry.Status)

	_, err = LoadMemoryStore(strings.NewReader("users:\n  - username: x\n"))
	assert.Error(t, err)
}
