package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable wraps every transport failure returned by a Client.
var ErrUnavailable = errors.New("cache unavailable")

// Client is the key-value capability used by the captcha and session stores.
type Client interface {
	// Get returns the value stored under key. A missing key is reported as
	// found == false with a nil error.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Delete is idempotent.
	Delete(ctx context.Context, key string) error
}
