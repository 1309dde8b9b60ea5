package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/adminauth/internal"
)

// RefreshWindow is how close to expiry a record must be before
// VerifyAndRefresh extends it.
const RefreshWindow = 20 * time.Minute

// TokenCodec turns a session id into a signed bearer token and back.
type TokenCodec interface {
	Issue(sessionID string) (string, error)
	SessionID(token string) (string, error)
}

// ManagerConfig tunes a Manager. Only TTL is required.
type ManagerConfig struct {
	TTL time.Duration

	Now          func() time.Time
	NewSessionID func() (string, error)
	// Locate maps a client IP to a human readable location.
	Locate func(ip string) string
	// ParseUserAgent maps a raw User-Agent header to browser and OS names.
	ParseUserAgent func(raw string) (browser, os string)
}

// Manager implements the session lifecycle on top of a Store and a TokenCodec.
type Manager struct {
	store *Store
	codec TokenCodec
	cfg   ManagerConfig
}

func NewManager(store *Store, codec TokenCodec, cfg ManagerConfig) (*Manager, error) {
	if store == nil || codec == nil {
		return nil, errors.New("session manager requires store and token codec")
	}
	if cfg.TTL <= RefreshWindow {
		return nil, fmt.Errorf("session TTL %s must exceed refresh window %s", cfg.TTL, RefreshWindow)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewSessionID == nil {
		cfg.NewSessionID = func() (string, error) {
			sid, err := internal.NewSessionID()
			if err != nil {
				return "", err
			}
			return sid.String(), nil
		}
	}
	return &Manager{store: store, codec: codec, cfg: cfg}, nil
}

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.cfg.TTL
}

// CreateToken persists a new record for lc and returns the signed token
// naming it.
func (m *Manager) CreateToken(ctx context.Context, lc LoginContext) (string, error) {
	sid, err := m.cfg.NewSessionID()
	if err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}

	rec := &Record{
		SessionID:   sid,
		UserID:      lc.UserID,
		Username:    lc.Username,
		Nickname:    lc.Nickname,
		DeptID:      lc.DeptID,
		Roles:       dedupe(lc.Roles),
		Permissions: dedupe(lc.Permissions),
		IPAddress:   lc.IPAddress,
	}
	if m.cfg.Locate != nil {
		rec.LoginLocation = m.cfg.Locate(lc.IPAddress)
	}
	if m.cfg.ParseUserAgent != nil {
		rec.Browser, rec.OS = m.cfg.ParseUserAgent(lc.UserAgent)
	}

	if err := m.Refresh(ctx, rec); err != nil {
		return "", err
	}
	return m.codec.Issue(sid)
}

// GetSession resolves token to its record. An invalid signature or a missing
// record yields (nil, nil); only cache transport failures are errors.
func (m *Manager) GetSession(ctx context.Context, token string) (*Record, error) {
	if token == "" {
		return nil, nil
	}
	sid, err := m.codec.SessionID(token)
	if err != nil {
		return nil, nil
	}

	rec, err := m.store.Get(ctx, sid)
	switch {
	case err == nil:
		return rec, nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrCorruptRecord):
		return nil, nil
	default:
		return nil, err
	}
}

// VerifyAndRefresh extends rec when it expires within RefreshWindow and is a
// no-op otherwise.
func (m *Manager) VerifyAndRefresh(ctx context.Context, rec *Record) error {
	if rec == nil {
		return nil
	}
	remaining := time.Duration(rec.ExpireTime-m.cfg.Now().UnixMilli()) * time.Millisecond
	if remaining > RefreshWindow {
		return nil
	}
	return m.Refresh(ctx, rec)
}

// Refresh re-stamps rec with the current time and a full TTL and persists it.
func (m *Manager) Refresh(ctx context.Context, rec *Record) error {
	now := m.cfg.Now().UnixMilli()
	rec.LoginTime = now
	rec.ExpireTime = now + m.cfg.TTL.Milliseconds()
	return m.store.Save(ctx, rec, m.cfg.TTL)
}

// UpdatePermissions replaces the role and permission sets of a live session.
func (m *Manager) UpdatePermissions(ctx context.Context, rec *Record, roles, permissions []string) error {
	if rec == nil {
		return errors.New("nil session record")
	}
	rec.Roles = dedupe(roles)
	rec.Permissions = dedupe(permissions)
	return m.Refresh(ctx, rec)
}

// Revoke deletes the record named by token. A token that does not verify has
// nothing to revoke.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	sid, err := m.codec.SessionID(token)
	if err != nil {
		return nil
	}
	return m.store.Delete(ctx, sid)
}

// RevokeSession deletes the record with the given id.
func (m *Manager) RevokeSession(ctx context.Context, sessionID string) error {
	return m.store.Delete(ctx, sessionID)
}
