package users

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/MrEthical07/adminauth/password"
)

// CredentialsAuthenticator checks a password against the stored hash.
type CredentialsAuthenticator struct {
	store    Store
	verifier password.Verifier
	logger   *zap.Logger
}

func NewCredentialsAuthenticator(store Store, verifier password.Verifier, logger *zap.Logger) *CredentialsAuthenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CredentialsAuthenticator{store: store, verifier: verifier, logger: logger}
}

func (a *CredentialsAuthenticator) Authenticate(ctx context.Context, username, pass string) (*Principal, error) {
	u, err := a.store.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			a.logger.Debug("login user not found", zap.String("username", username))
			return nil, ErrBadCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	switch {
	case u.Deleted:
		return nil, &AccountError{Key: KeyAccountDeleted, Username: username}
	case u.Status == StatusDisabled:
		return nil, &AccountError{Key: KeyAccountDisabled, Username: username}
	}

	ok, err := a.verifier.Verify(pass, u.PasswordHash)
	if err != nil {
		a.logger.Warn("stored password hash unreadable", zap.String("username", username), zap.Error(err))
		return nil, ErrBadCredentials
	}
	if !ok {
		return nil, ErrBadCredentials
	}

	p := u.Principal
	return &p, nil
}
