package flows

import (
	"context"

	"github.com/MrEthical07/adminauth/session"
)

// LogoutDeps captures logout dependencies.
type LogoutDeps struct {
	GetSession    func(ctx context.Context, token string) (*session.Record, error)
	RevokeSession func(ctx context.Context, sessionID string) error
	EmitAudit     func(ctx context.Context, rec AuditRecord)
}

// RunLogout deletes the session named by token and records a logout event.
// An unknown or invalid token is not an error; the returned record is nil.
func RunLogout(ctx context.Context, token, ip, userAgent string, deps LogoutDeps) (*session.Record, error) {
	rec, err := deps.GetSession(ctx, token)
	if err != nil || rec == nil {
		return nil, err
	}
	if err := deps.RevokeSession(ctx, rec.SessionID); err != nil {
		return rec, err
	}
	if deps.EmitAudit != nil {
		deps.EmitAudit(ctx, AuditRecord{
			Username:   rec.Username,
			Success:    true,
			Logout:     true,
			MessageKey: MsgLogoutSuccess,
			IP:         ip,
			UserAgent:  userAgent,
		})
	}
	return rec, nil
}
