// Package captcha issues and consumes single-use verification codes kept in
// the cache under captcha_codes:<uuid>.
package captcha

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/adminauth/cache"
	"github.com/MrEthical07/adminauth/internal"
)

const (
	DefaultKeyPrefix = "captcha_codes:"
	DefaultTTL       = 2 * time.Minute
	DefaultLength    = 4
)

// Config tunes a Store. Zero values select the defaults above.
type Config struct {
	KeyPrefix string
	TTL       time.Duration
	Length    int
}

// Store issues codes and consumes them exactly once.
type Store struct {
	cache  cache.Client
	cfg    Config
	newID  func() string
	newKey func(int) (string, error)
}

func NewStore(c cache.Client, cfg Config) *Store {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Length <= 0 {
		cfg.Length = DefaultLength
	}
	return &Store{
		cache:  c,
		cfg:    cfg,
		newID:  func() string { return uuid.NewString() },
		newKey: internal.NewNumericCode,
	}
}

// Issue stores a fresh code and returns the uuid the client must echo back
// with its answer.
func (s *Store) Issue(ctx context.Context) (id, code string, err error) {
	code, err = s.newKey(s.cfg.Length)
	if err != nil {
		return "", "", err
	}
	id = s.newID()
	if err := s.cache.Set(ctx, s.cfg.KeyPrefix+id, code, s.cfg.TTL); err != nil {
		return "", "", err
	}
	return id, code, nil
}

// Consume looks up the code for id and deletes the entry before returning,
// whether or not the caller's answer will match. found is false when the
// entry has expired or was already used.
func (s *Store) Consume(ctx context.Context, id string) (code string, found bool, err error) {
	if id == "" {
		return "", false, nil
	}
	key := s.cfg.KeyPrefix + id

	code, found, err = s.cache.Get(ctx, key)
	if err != nil {
		return "", false, err
	}
	if delErr := s.cache.Delete(ctx, key); delErr != nil {
		return "", false, errors.Join(errors.New("captcha entry not invalidated"), delErr)
	}
	return code, found, nil
}
