package users

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrBadCredentials covers unknown usernames and wrong passwords.
	ErrBadCredentials = errors.New("bad credentials")
	// ErrUserNotFound is returned by stores; authenticators translate it.
	ErrUserNotFound = errors.New("user not found")
)

// Status mirrors the sys_user status column.
type Status string

const (
	StatusActive   Status = "0"
	StatusDisabled Status = "1"
)

// Principal is an authenticated user together with its grants.
type Principal struct {
	UserID      string
	Username    string
	Nickname    string
	DeptID      string
	Roles       []string
	Permissions []string
}

// User is a stored account.
type User struct {
	Principal
	PasswordHash string
	Status       Status
	Deleted      bool
}

// Store looks up accounts by login name.
type Store interface {
	UserByUsername(ctx context.Context, username string) (*User, error)
}

// Authenticator is the credential check used by the login flow.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*Principal, error)
}

// AccountError rejects an existing account for a reason other than its
// password. Key names the user-facing message.
type AccountError struct {
	Key      string
	Username string
}

func (e *AccountError) Error() string {
	return fmt.Sprintf("account %q rejected: %s", e.Username, e.Key)
}

// MessageKey returns the i18n key describing the rejection.
func (e *AccountError) MessageKey() string {
	return e.Key
}

const (
	KeyAccountDisabled = "user.blocked"
	KeyAccountDeleted  = "user.password.delete"
)
