package rate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const loginFailurePrefix = "pwd_err_cnt:"

// DefaultOpTimeout bounds one limiter round trip when Config.OpTimeout is unset.
const DefaultOpTimeout = 3 * time.Second

// Config holds the lockout policy.
type Config struct {
	MaxLoginAttempts int
	LockDuration     time.Duration
	OpTimeout        time.Duration
}

// Limiter enforces the failed-login budget.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a Limiter backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = DefaultOpTimeout
	}
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// Config returns the policy the limiter enforces.
func (l *Limiter) Config() Config {
	return l.config
}

// CheckLogin returns ErrRateLimited once username has used up its attempts.
func (l *Limiter) CheckLogin(ctx context.Context, username string) error {
	count, err := l.attempts(ctx, username)
	if err != nil {
		return err
	}
	if count >= l.config.MaxLoginAttempts {
		return ErrRateLimited
	}
	return nil
}

// IncrementLogin records one failed attempt. It returns ErrRateLimited when
// this failure spent the last attempt.
//
// The counter is created with its TTL and incremented in one MULTI block, so
// a key can never outlive the lock window. The window is fixed from the
// first failure.
func (l *Limiter) IncrementLogin(ctx context.Context, username string) error {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	key := loginKey(username)
	var incr *redis.IntCmd
	_, err := l.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, l.config.LockDuration)
		incr = pipe.Incr(ctx, key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if incr.Val() >= int64(l.config.MaxLoginAttempts) {
		return ErrRateLimited
	}
	return nil
}

// ResetLogin clears the counter after a successful login.
func (l *Limiter) ResetLogin(ctx context.Context, username string) error {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()
	if err := l.redis.Del(ctx, loginKey(username)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (l *Limiter) attempts(ctx context.Context, username string) (int, error) {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()
	count, err := l.redis.Get(ctx, loginKey(username)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return count, nil
}

func (l *Limiter) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, l.config.OpTimeout)
}

// Usernames are case-insensitive for lockout purposes.
func loginKey(username string) string {
	return loginFailurePrefix + strings.ToLower(strings.TrimSpace(username))
}
