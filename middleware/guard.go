package middleware

import (
	"net/http"
)

// RequireAuthenticated rejects requests without an Identity. deny writes the
// rejection; nil selects a 401 JSON envelope.
func RequireAuthenticated(deny http.HandlerFunc) func(http.Handler) http.Handler {
	if deny == nil {
		deny = func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, http.StatusUnauthorized, "authentication required")
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := IdentityFromContext(r.Context()); !ok {
				deny(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission rejects identities lacking perm with 403.
func RequirePermission(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec, ok := SessionFromContext(r.Context())
			if !ok {
				writeEnvelope(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !rec.HasPermission(perm) {
				writeEnvelope(w, http.StatusForbidden, "permission denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
