package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/MrEthical07/adminauth/session"
)

// SessionResolver is the part of the engine Authenticate depends on.
type SessionResolver interface {
	GetSession(ctx context.Context, token string) (*session.Record, error)
	VerifyAndRefresh(ctx context.Context, rec *session.Record) error
}

// TokenConfig says where the bearer token travels.
type TokenConfig struct {
	Header string
	Prefix string
}

// DefaultTokenConfig reads "Authorization: Bearer <token>".
func DefaultTokenConfig() TokenConfig {
	return TokenConfig{Header: "Authorization", Prefix: "Bearer "}
}

// Token extracts the token from r. The prefix is stripped when present; a
// header without it is taken as the raw token.
func (c TokenConfig) Token(r *http.Request) string {
	header := c.Header
	if header == "" {
		header = "Authorization"
	}
	value := strings.TrimSpace(r.Header.Get(header))
	if c.Prefix != "" {
		value = strings.TrimPrefix(value, c.Prefix)
		if p := strings.TrimSpace(c.Prefix); p != "" && strings.EqualFold(value, p) {
			return ""
		}
	}
	return strings.TrimSpace(value)
}

// Authenticate installs an Identity for requests carrying a live session
// token and refreshes that session when it is close to expiry. It never
// writes a response: missing, invalid or expired tokens, and cache
// failures, leave the request unauthenticated for downstream guards.
func Authenticate(resolver SessionResolver, cfg TokenConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, already := IdentityFromContext(r.Context()); already {
				next.ServeHTTP(w, r)
				return
			}
			token := cfg.Token(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			rec, err := resolver.GetSession(ctx, token)
			if err != nil {
				logger.Warn("session lookup failed", zap.String("path", r.URL.Path), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if rec == nil {
				next.ServeHTTP(w, r)
				return
			}

			if err := resolver.VerifyAndRefresh(ctx, rec); err != nil {
				logger.Warn("session refresh failed",
					zap.String("username", rec.Username),
					zap.Error(err),
				)
			}

			id := &Identity{Session: rec, Authorities: rec.Permissions}
			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, id)))
		})
	}
}
