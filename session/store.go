package session

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/adminauth/cache"
)

// DefaultKeyPrefix namespaces session records in the cache.
const DefaultKeyPrefix = "login_tokens:"

// ErrNotFound is returned by Store.Get when no record exists for the id.
var ErrNotFound = errors.New("session not found")

// Store persists records in a cache.Client.
type Store struct {
	cache  cache.Client
	prefix string
}

func NewStore(c cache.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Store{
		cache:  c,
		prefix: prefix,
	}
}

func (s *Store) key(sessionID string) string {
	return s.prefix + sessionID
}

// Save writes r, replacing any existing record with the same id.
func (s *Store) Save(ctx context.Context, r *Record, ttl time.Duration) error {
	data, err := Encode(r)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, s.key(r.SessionID), string(data), ttl)
}

func (s *Store) Get(ctx context.Context, sessionID string) (*Record, error) {
	raw, found, err := s.cache.Get(ctx, s.key(sessionID))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return Decode([]byte(raw))
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	return s.cache.Delete(ctx, s.key(sessionID))
}
