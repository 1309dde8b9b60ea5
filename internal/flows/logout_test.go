package flows

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/adminauth/session"
)

func TestRunLogout(t *testing.T) {
	var revoked []string
	var audits []AuditRecord
	deps := LogoutDeps{
		GetSession: func(_ context.Context, token string) (*session.Record, error) {
			if token != "good" {
				return nil, nil
			}
			return &session.Record{SessionID: "sid-1", Username: "admin"}, nil
		},
		RevokeSession: func(_ context.Context, sid string) error {
			revoked = append(revoked, sid)
			return nil
		},
		EmitAudit: func(_ context.Context, rec AuditRecord) { audits = append(audits, rec) },
	}

	rec, err := RunLogout(context.Background(), "good", "127.0.0.1", "ua", deps)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, []string{"sid-1"}, revoked)
	require.Len(t, audits, 1)
	assert.True(t, audits[0].Logout)
	assert.Equal(t, MsgLogoutSuccess, audits[0].MessageKey)

	rec, err = RunLogout(context.Background(), "bogus", "", "", deps)
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Len(t, audits, 1)
}
