package rate

import "errors"

var (
	// ErrRateLimited means the username has no login attempts left.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps Redis transport failures.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
