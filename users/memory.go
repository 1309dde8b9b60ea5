package users

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// MemoryStore keeps accounts in a map. Lookups are case-sensitive, as in
// the sys_user table.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewMemoryStore(users ...User) *MemoryStore {
	s := &MemoryStore{users: make(map[string]User, len(users))}
	for _, u := range users {
		s.Put(u)
	}
	return s
}

// Put inserts or replaces u.
func (s *MemoryStore) Put(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.Username] = u
}

func (s *MemoryStore) UserByUsername(_ context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

type yamlUser struct {
	ID           string   `yaml:"id"`
	Username     string   `yaml:"username"`
	Nickname     string   `yaml:"nickname"`
	DeptID       string   `yaml:"dept_id"`
	PasswordHash string   `yaml:"password_hash"`
	Disabled     bool     `yaml:"disabled"`
	Roles        []string `yaml:"roles"`
	Permissions  []string `yaml:"permissions"`
}

// LoadMemoryStore reads a YAML document of the form
//
//	users:
//	  - id: "1"
//	    username: admin
//	    password_hash: $argon2id$...
//	    roles: [admin]
//	    permissions: ["*:*:*"]
func LoadMemoryStore(r io.Reader) (*MemoryStore, error) {
	var doc struct {
		Users []yamlUser `yaml:"users"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	s := NewMemoryStore()
	for i, yu := range doc.Users {
		if strings.TrimSpace(yu.Username) == "" || yu.PasswordHash == "" {
			return nil, fmt.Errorf("users[%d]: username and password_hash are required", i)
		}
		status := StatusActive
		if yu.Disabled {
			status = StatusDisabled
		}
		id := yu.ID
		if id == "" {
			id = yu.Username
		}
		s.Put(User{
			Principal: Principal{
				UserID:      id,
				Username:    yu.Username,
				Nickname:    yu.Nickname,
				DeptID:      yu.DeptID,
				Roles:       yu.Roles,
				Permissions: yu.Permissions,
			},
			PasswordHash: yu.PasswordHash,
			Status:       status,
		})
	}
	return s, nil
}
