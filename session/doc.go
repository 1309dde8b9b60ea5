// Package session owns the server-side login session: the [Record] stored in
// the cache under login_tokens:<sid>, and the [Manager] that creates, looks
// up, refreshes and revokes it.
//
// # Lifecycle
//
// A record is written at login with a TTL equal to the configured token
// lifetime. Authenticated requests call [Manager.VerifyAndRefresh], which
// re-stamps and re-persists the record once fewer than [RefreshWindow] remain.
// Logout deletes it. A token whose record is gone is simply unauthenticated.
//
// # Architecture boundaries
//
// The package does not verify credentials or decide permissions. Token
// signing is delegated to a [TokenCodec] and client metadata resolution to
// caller-supplied functions.
package session
