package flows

import (
	"context"
	"errors"
	"strings"

	"github.com/MrEthical07/adminauth/session"
	"github.com/MrEthical07/adminauth/users"
)

// LoginKind tags the outcome of a login attempt.
type LoginKind int

const (
	KindOK LoginKind = iota
	KindCaptchaExpired
	KindCaptchaInvalid
	KindCredentialsInvalid
	KindAuthenticationError
	KindRateLimited
)

func (k LoginKind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindCaptchaExpired:
		return "captcha_expired"
	case KindCaptchaInvalid:
		return "captcha_invalid"
	case KindCredentialsInvalid:
		return "credentials_invalid"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "authentication_error"
	}
}

// Message keys used by the login flow.
const (
	MsgCaptchaExpired   = "user.jcaptcha.expire"
	MsgCaptchaInvalid   = "user.jcaptcha.error"
	MsgPasswordMismatch = "user.password.not.match"
	MsgRetryLimit       = "user.password.retry.limit.exceed"
	MsgLoginSuccess     = "user.login.success"
	MsgLoginError       = "user.login.error"
	MsgUnavailable      = "user.login.unavailable"
	MsgLogoutSuccess    = "user.logout.success"
)

// ErrNotReady is returned when required dependencies are missing.
var ErrNotReady = errors.New("login flow not ready")

// LoginRequest is one login attempt together with client metadata.
type LoginRequest struct {
	Username  string
	Password  string
	Code      string
	UUID      string
	IP        string
	UserAgent string
}

// LoginResult is the tagged outcome. Token is set only for KindOK.
// MessageKey and Args describe the outcome for the user; Err carries the
// underlying cause of KindAuthenticationError.
type LoginResult struct {
	Token      string
	Kind       LoginKind
	MessageKey string
	Args       map[string]any
	Err        error
}

// AuditRecord is what the login flow reports for every attempt.
type AuditRecord struct {
	Username   string
	Success    bool
	Logout     bool
	MessageKey string
	Args       map[string]any
	IP         string
	UserAgent  string
}

// LoginDeps captures login dependencies. Nil rate-limit functions disable
// the lockout; nil EmitAudit and MetricInc are no-ops.
type LoginDeps struct {
	CaptchaEnabled bool
	LockMinutes    int

	ConsumeCaptcha     func(ctx context.Context, uuid string) (code string, found bool, err error)
	CheckLoginRate     func(ctx context.Context, username string) error
	IncrementLoginRate func(ctx context.Context, username string) error
	ResetLoginRate     func(ctx context.Context, username string) error
	IsRateLimited      func(error) bool

	Authenticate func(ctx context.Context, username, password string) (*users.Principal, error)
	CreateToken  func(ctx context.Context, lc session.LoginContext) (string, error)

	EmitAudit func(ctx context.Context, rec AuditRecord)
	MetricInc func(LoginKind)
	Warn      func(msg string, err error)
}

// RunLogin validates the CAPTCHA, checks credentials and creates a session.
// Every outcome emits exactly one audit record.
func RunLogin(ctx context.Context, req LoginRequest, deps LoginDeps) LoginResult {
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, AuditRecord) {}
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(LoginKind) {}
	}
	if deps.Warn == nil {
		deps.Warn = func(string, error) {}
	}
	if deps.IsRateLimited == nil {
		deps.IsRateLimited = func(error) bool { return false }
	}
	fail := func(kind LoginKind, key string, args map[string]any, cause error) LoginResult {
		deps.EmitAudit(ctx, AuditRecord{
			Username:   req.Username,
			MessageKey: key,
			Args:       args,
			IP:         req.IP,
			UserAgent:  req.UserAgent,
		})
		deps.MetricInc(kind)
		return LoginResult{Kind: kind, MessageKey: key, Args: args, Err: cause}
	}

	if deps.Authenticate == nil || deps.CreateToken == nil || (deps.CaptchaEnabled && deps.ConsumeCaptcha == nil) {
		return fail(KindAuthenticationError, MsgLoginError, nil, ErrNotReady)
	}

	if deps.CaptchaEnabled {
		// The entry is deleted before the comparison so a code can be tried once.
		code, found, err := deps.ConsumeCaptcha(ctx, req.UUID)
		if err != nil {
			return fail(KindAuthenticationError, MsgUnavailable, nil, err)
		}
		if !found {
			return fail(KindCaptchaExpired, MsgCaptchaExpired, nil, nil)
		}
		if !strings.EqualFold(strings.TrimSpace(req.Code), code) {
			return fail(KindCaptchaInvalid, MsgCaptchaInvalid, nil, nil)
		}
	}

	if deps.CheckLoginRate != nil {
		if err := deps.CheckLoginRate(ctx, req.Username); err != nil {
			if deps.IsRateLimited(err) {
				return fail(KindRateLimited, MsgRetryLimit, map[string]any{"minutes": deps.LockMinutes}, err)
			}
			return fail(KindAuthenticationError, MsgUnavailable, nil, err)
		}
	}

	principal, err := deps.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrBadCredentials) {
			if deps.IncrementLoginRate != nil {
				if incErr := deps.IncrementLoginRate(ctx, req.Username); incErr != nil && !deps.IsRateLimited(incErr) {
					deps.Warn("failed to record login failure", incErr)
				}
			}
			return fail(KindCredentialsInvalid, MsgPasswordMismatch, nil, err)
		}
		return fail(KindAuthenticationError, failureKey(err), map[string]any{"username": req.Username}, err)
	}

	if deps.ResetLoginRate != nil {
		if err := deps.ResetLoginRate(ctx, req.Username); err != nil {
			deps.Warn("failed to reset login failures", err)
		}
	}

	deps.EmitAudit(ctx, AuditRecord{
		Username:   req.Username,
		Success:    true,
		MessageKey: MsgLoginSuccess,
		IP:         req.IP,
		UserAgent:  req.UserAgent,
	})

	token, err := deps.CreateToken(ctx, session.LoginContext{
		UserID:      principal.UserID,
		Username:    principal.Username,
		Nickname:    principal.Nickname,
		DeptID:      principal.DeptID,
		Roles:       principal.Roles,
		Permissions: principal.Permissions,
		IPAddress:   req.IP,
		UserAgent:   req.UserAgent,
	})
	if err != nil {
		deps.MetricInc(KindAuthenticationError)
		return LoginResult{Kind: KindAuthenticationError, MessageKey: MsgUnavailable, Err: err}
	}

	deps.MetricInc(KindOK)
	return LoginResult{Token: token, Kind: KindOK, MessageKey: MsgLoginSuccess}
}

// failureKey picks the message for an authentication failure that is not a
// credential mismatch.
func failureKey(err error) string {
	var keyed interface{ MessageKey() string }
	if errors.As(err, &keyed) && keyed.MessageKey() != "" {
		return keyed.MessageKey()
	}
	return MsgLoginError
}
