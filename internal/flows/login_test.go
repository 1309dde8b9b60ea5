package flows

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/adminauth/session"
	"github.com/MrEthical07/adminauth/users"
)

var errLocked = errors.New("locked")

type loginHarness struct {
	captcha  map[string]string
	failures map[string]int
	audits   []AuditRecord
	metrics  []LoginKind
	created  []session.LoginContext
	authErr  error
	tokenErr error
	capErr   error
}

func newHarness() *loginHarness {
	return &loginHarness{
		captcha:  map[string]string{"u1": "1234"},
		failures: map[string]int{},
	}
}

func (h *loginHarness) deps() LoginDeps {
	return LoginDeps{
		CaptchaEnabled: true,
		LockMinutes:    10,
		ConsumeCaptcha: func(_ context.Context, id string) (string, bool, error) {
			if h.capErr != nil {
				return "", false, h.capErr
			}
			code, ok := h.captcha[id]
			delete(h.captcha, id)
			return code, ok, nil
		},
		CheckLoginRate: func(_ context.Context, username string) error {
			if h.failures[username] >= 3 {
				return errLocked
			}
			return nil
		},
		IncrementLoginRate: func(_ context.Context, username string) error {
			h.failures[username]++
			return nil
		},
		ResetLoginRate: func(_ context.Context, username string) error {
			delete(h.failures, username)
			return nil
		},
		IsRateLimited: func(err error) bool { return errors.Is(err, errLocked) },
		Authenticate: func(_ context.Context, username, password string) (*users.Principal, error) {
			if h.authErr != nil {
				return nil, h.authErr
			}
			if username != "admin" || password != "admin123" {
				return nil, users.ErrBadCredentials
			}
			return &users.Principal{UserID: "1", Username: "admin", Roles: []string{"admin"}, Permissions: []string{"*:*:*"}}, nil
		},
		CreateToken: func(_ context.Context, lc session.LoginContext) (string, error) {
			if h.tokenErr != nil {
				return "", h.tokenErr
			}
			h.created = append(h.created, lc)
			return "tok", nil
		},
		EmitAudit: func(_ context.Context, rec AuditRecord) { h.audits = append(h.audits, rec) },
		MetricInc: func(k LoginKind) { h.metrics = append(h.metrics, k) },
	}
}

func TestRunLoginSuccess(t *testing.T) {
	h := newHarness()
	h.failures["admin"] = 2

	res := RunLogin(context.Background(), LoginRequest{
		Username: "admin", Password: "admin123", Code: "1234", UUID: "u1", IP: "10.0.0.1", UserAgent: "curl/8",
	}, h.deps())

	require.Equal(t, KindOK, res.Kind)
	assert.Equal(t, "tok", res.Token)
	require.Len(t, h.audits, 1)
	assert.True(t, h.audits[0].Success)
	assert.Equal(t, MsgLoginSuccess, h.audits[0].MessageKey)
	assert.Equal(t, "10.0.0.1", h.audits[0].IP)
	require.Len(t, h.created, 1)
	assert.Equal(t, "10.0.0.1", h.created[0].IPAddress)
	assert.Equal(t, []string{"*:*:*"}, h.created[0].Permissions)
	assert.NotContains(t, h.failures, "admin")
	assert.NotContains(t, h.captcha, "u1")
	assert.Equal(t, []LoginKind{KindOK}, h.metrics)
}

func TestRunLoginCaptchaCodeIsCaseInsensitive(t *testing.T) {
	h := newHarness()
	h.captcha["u2"] = "ab3d"

	res := RunLogin(context.Background(), LoginRequest{Username: "admin", Password: "admin123", Code: " AB3D ", UUID: "u2"}, h.deps())
	assert.Equal(t, KindOK, res.Kind)
}

func TestRunLoginFailures(t *testing.T) {
	cases := []struct {
		name  string
		setup func(h *loginHarness)
		req   LoginRequest
		kind  LoginKind
		key   string
	}{
		{
			name: "captcha expired",
			req:  LoginRequest{Username: "admin", Password: "admin123", Code: "1234", UUID: "missing"},
			kind: KindCaptchaExpired,
			key:  MsgCaptchaExpired,
		},
		{
			name: "captcha mismatch",
			req:  LoginRequest{Username: "admin", Password: "admin123", Code: "9999", UUID: "u1"},
			kind: KindCaptchaInvalid,
			key:  MsgCaptchaInvalid,
		},
		{
			name:  "captcha store down",
			setup: func(h *loginHarness) { h.capErr = errors.New("dial tcp") },
			req:   LoginRequest{Username: "admin", Password: "admin123", Code: "1234", UUID: "u1"},
			kind:  KindAuthenticationError,
			key:   MsgUnavailable,
		},
		{
			name: "bad password",
			req:  LoginRequest{Username: "admin", Password: "nope", Code: "1234", UUID: "u1"},
			kind: KindCredentialsInvalid,
			key:  MsgPasswordMismatch,
		},
		{
			name:  "locked",
			setup: func(h *loginHarness) { h.failures["admin"] = 3 },
			req:   LoginRequest{Username: "admin", Password: "admin123", Code: "1234", UUID: "u1"},
			kind:  KindRateLimited,
			key:   MsgRetryLimit,
		},
		{
			name:  "account disabled",
			setup: func(h *loginHarness) { h.authErr = &users.AccountError{Key: users.KeyAccountDisabled, Username: "admin"} },
			req:   LoginRequest{Username: "admin", Password: "admin123", Code: "1234", UUID: "u1"},
			kind:  KindAuthenticationError,
			key:   users.KeyAccountDisabled,
		},
		{
			name:  "user store failure",
			setup: func(h *loginHarness) { h.authErr = errors.New("db gone") },
			req:   LoginRequest{Username: "admin", Password: "admin123", Code: "1234", UUID: "u1"},
			kind:  KindAuthenticationError,
			key:   MsgLoginError,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness()
			if tc.setup != nil {
				tc.setup(h)
			}
			res := RunLogin(context.Background(), tc.req, h.deps())

			assert.Equal(t, tc.kind, res.Kind)
			assert.Equal(t, tc.key, res.MessageKey)
			assert.Empty(t, res.Token)
			require.Len(t, h.audits, 1, "exactly one audit event per attempt")
			assert.False(t, h.audits[0].Success)
			assert.Equal(t, tc.key, h.audits[0].MessageKey)
			assert.Empty(t, h.created)
			assert.Equal(t, []LoginKind{tc.kind}, h.metrics)
		})
	}
}

func TestRunLoginCaptchaIsSingleUse(t *testing.T) {
	h := newHarness()
	deps := h.deps()

	first := RunLogin(context.Background(), LoginRequest{Username: "admin", Password: "bad", Code: "1234", UUID: "u1"}, deps)
	second := RunLogin(context.Background(), LoginRequest{Username: "admin", Password: "admin123", Code: "1234", UUID: "u1"}, deps)

	assert.Equal(t, KindCredentialsInvalid, first.Kind)
	assert.Equal(t, KindCaptchaExpired, second.Kind)
}

func TestRunLoginBadPasswordCountsTowardsLockout(t *testing.T) {
	h := newHarness()
	deps := h.deps()
	deps.CaptchaEnabled = false

	for i := 0; i < 3; i++ {
		res := RunLogin(context.Background(), LoginRequest{Username: "admin", Password: "bad"}, deps)
		require.Equal(t, KindCredentialsInvalid, res.Kind)
	}
	res := RunLogin(context.Background(), LoginRequest{Username: "admin", Password: "admin123"}, deps)
	assert.Equal(t, KindRateLimited, res.Kind)
	assert.Equal(t, map[string]any{"minutes": 10}, res.Args)
}

func TestRunLoginTokenFailureAfterSuccessAudit(t *testing.T) {
	h := newHarness()
	h.tokenErr = errors.New("redis down")

	res := RunLogin(context.Background(), LoginRequest{Username: "admin", Password: "admin123", Code: "1234", UUID: "u1"}, h.deps())

	assert.Equal(t, KindAuthenticationError, res.Kind)
	assert.ErrorIs(t, res.Err, h.tokenErr)
	require.Len(t, h.audits, 1)
	assert.True(t, h.audits[0].Success)
}

func TestRunLoginNotReady(t *testing.T) {
	var audits []AuditRecord
	var kinds []LoginKind
	res := RunLogin(context.Background(), LoginRequest{Username: "admin", IP: "10.0.0.1"}, LoginDeps{
		EmitAudit: func(_ context.Context, rec AuditRecord) { audits = append(audits, rec) },
		MetricInc: func(k LoginKind) { kinds = append(kinds, k) },
	})
	assert.Equal(t, KindAuthenticationError, res.Kind)
	assert.ErrorIs(t, res.Err, ErrNotReady)

	require.Len(t, audits, 1)
	assert.False(t, audits[0].Success)
	assert.Equal(t, "admin", audits[0].Username)
	assert.Equal(t, MsgLoginError, audits[0].MessageKey)
	assert.Equal(t, "10.0.0.1", audits[0].IP)
	assert.Equal(t, []LoginKind{KindAuthenticationError}, kinds)
}

func TestLoginKindString(t *testing.T) {
	assert.Equal(t, "ok", KindOK.String())
	assert.Equal(t, "rate_limited", KindRateLimited.String())
	assert.Equal(t, "authentication_error", KindAuthenticationError.String())
}
