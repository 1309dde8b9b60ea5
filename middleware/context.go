package middleware

import (
	"context"

	"github.com/MrEthical07/adminauth/session"
)

// Identity is the security context installed for an authenticated request.
type Identity struct {
	Session *session.Record
	// Authorities are the permission strings granted to the session.
	Authorities []string
}

type identityContextKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext returns the identity installed by Authenticate.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(*Identity)
	return id, ok && id != nil
}

// SessionFromContext is a shortcut for the identity's session record.
func SessionFromContext(ctx context.Context) (*session.Record, bool) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, false
	}
	return id.Session, id.Session != nil
}
