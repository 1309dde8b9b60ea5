// Package jwt signs and verifies the bearer tokens handed to clients after
// login. A token carries nothing but the session id under the
// login_user_key claim; expiry is governed by the session record in the
// cache, not by the token.
package jwt
