// Package adminauth authenticates operators of an admin backend.
//
// A login presents a username, a password and the answer to a CAPTCHA. On
// success the Engine stores a session record in Redis under
// login_tokens:<sid> and returns a JWT whose only claim, login_user_key,
// names that record. A token is valid while its signature verifies and its
// record exists; the record is extended when a request arrives within 20
// minutes of expiry.
//
// Build an Engine with New:
//
//	argon, _ := password.NewArgon2(password.DefaultConfig())
//	engine, err := adminauth.New().
//		WithConfig(cfg).
//		WithRedis(rdb).
//		WithAuthenticator(users.NewCredentialsAuthenticator(store, password.NewMulti(argon), logger)).
//		WithLogger(logger).
//		Build()
//
// The middleware package resolves tokens per request through the Engine and
// the httpapi package exposes the login endpoints.
package adminauth
