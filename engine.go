package adminauth

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/MrEthical07/adminauth/cache"
	"github.com/MrEthical07/adminauth/captcha"
	"github.com/MrEthical07/adminauth/i18n"
	"github.com/MrEthical07/adminauth/internal/audit"
	"github.com/MrEthical07/adminauth/internal/flows"
	"github.com/MrEthical07/adminauth/internal/rate"
	"github.com/MrEthical07/adminauth/session"
	"github.com/MrEthical07/adminauth/users"
)

// Engine is the authentication facade. Build one with New; it is safe for
// concurrent use.
type Engine struct {
	config   Config
	logger   *zap.Logger
	cache    cache.Client
	sessions *session.Manager
	captchas *captcha.Store
	renderer captcha.Renderer
	limiter  *rate.Limiter
	auth     users.Authenticator
	audit    *audit.Dispatcher
	messages *i18n.Bundle
	metrics  *Metrics
}

// LoginRequest is one login attempt. IP and UserAgent fall back to the
// values attached with WithClientIP and WithUserAgent.
type LoginRequest struct {
	Username  string
	Password  string
	Code      string
	UUID      string
	IP        string
	UserAgent string
}

// Captcha is the challenge handed to a client. When Enabled is false the
// login form needs no code and the other fields are empty.
type Captcha struct {
	Enabled bool
	UUID    string
	Image   string
}

// Close stops the audit dispatcher after draining queued events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped counts login log events discarded because the buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// Config returns a copy of the validated configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Messages returns the message catalog used for audit entries and responses.
func (e *Engine) Messages() *i18n.Bundle {
	return e.messages
}

// Metrics returns the engine's collectors.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// Logger returns the engine's logger.
func (e *Engine) Logger() *zap.Logger {
	return e.logger
}

// Ping checks the cache connection.
func (e *Engine) Ping(ctx context.Context) error {
	if p, ok := e.cache.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Login checks the CAPTCHA and the credentials and returns a session token.
//
// Failures are ErrCaptchaExpired, ErrCaptchaInvalid, ErrCredentialsInvalid
// and ErrLoginRateLimited (wrapped in *LoginError), or *AuthenticationError.
// Every attempt is written to the login log exactly once.
func (e *Engine) Login(ctx context.Context, req LoginRequest) (string, error) {
	if e == nil || e.sessions == nil || e.auth == nil {
		return "", ErrEngineNotReady
	}
	if req.IP == "" {
		req.IP = clientIPFromContext(ctx)
	}
	if req.UserAgent == "" {
		req.UserAgent = userAgentFromContext(ctx)
	}

	res := flows.RunLogin(ctx, flows.LoginRequest(req), e.loginDeps())

	switch res.Kind {
	case flows.KindOK:
		return res.Token, nil
	case flows.KindCaptchaExpired:
		return "", &LoginError{Sentinel: ErrCaptchaExpired, Key: res.MessageKey}
	case flows.KindCaptchaInvalid:
		return "", &LoginError{Sentinel: ErrCaptchaInvalid, Key: res.MessageKey}
	case flows.KindCredentialsInvalid:
		return "", &LoginError{Sentinel: ErrCredentialsInvalid, Key: res.MessageKey}
	case flows.KindRateLimited:
		return "", &LoginError{Sentinel: ErrLoginRateLimited, Key: res.MessageKey, Args: res.Args}
	}

	if errors.Is(res.Err, flows.ErrNotReady) {
		return "", ErrEngineNotReady
	}
	ae := &AuthenticationError{Key: res.MessageKey, Args: res.Args, Err: res.Err}
	if res.Err != nil {
		ae.Detail = res.Err.Error()
	}
	if errors.Is(res.Err, cache.ErrUnavailable) || errors.Is(res.Err, rate.ErrRedisUnavailable) {
		e.logger.Warn("login aborted by cache failure", zap.String("username", req.Username), zap.Error(res.Err))
	}
	return "", ae
}

func (e *Engine) loginDeps() flows.LoginDeps {
	deps := flows.LoginDeps{
		CaptchaEnabled: e.config.Captcha.Enabled,
		LockMinutes:    e.config.Security.LockMinutes,
		Authenticate:   e.auth.Authenticate,
		CreateToken:    e.sessions.CreateToken,
		EmitAudit:      e.emitAudit,
		IsRateLimited:  func(err error) bool { return errors.Is(err, rate.ErrRateLimited) },
		MetricInc: func(k flows.LoginKind) {
			e.metrics.LoginOutcome(k.String())
		},
		Warn: func(msg string, err error) {
			e.logger.Warn(msg, zap.Error(err))
		},
	}
	if e.captchas != nil {
		deps.ConsumeCaptcha = e.captchas.Consume
	}
	if e.limiter != nil && e.config.Security.MaxLoginAttempts > 0 {
		deps.CheckLoginRate = e.limiter.CheckLogin
		deps.IncrementLoginRate = e.limiter.IncrementLogin
		deps.ResetLoginRate = e.limiter.ResetLogin
	}
	return deps
}

// Logout deletes the session named by token and records a logout event. An
// unknown token is not an error.
func (e *Engine) Logout(ctx context.Context, token string) error {
	if e == nil || e.sessions == nil {
		return ErrEngineNotReady
	}
	_, err := flows.RunLogout(ctx, token, clientIPFromContext(ctx), userAgentFromContext(ctx), flows.LogoutDeps{
		GetSession: e.sessions.GetSession,
		RevokeSession: func(ctx context.Context, sid string) error {
			if err := e.sessions.RevokeSession(ctx, sid); err != nil {
				return wrapUnavailable(err)
			}
			e.metrics.SessionRevoked()
			return nil
		},
		EmitAudit: e.emitAudit,
	})
	return err
}

// CreateToken opens a session for an already authenticated user.
func (e *Engine) CreateToken(ctx context.Context, lc session.LoginContext) (string, error) {
	if e == nil || e.sessions == nil {
		return "", ErrEngineNotReady
	}
	token, err := e.sessions.CreateToken(ctx, lc)
	if err != nil {
		return "", wrapUnavailable(err)
	}
	return token, nil
}

// GetSession resolves token to its session record. A token that does not
// verify or whose record is gone yields (nil, nil).
func (e *Engine) GetSession(ctx context.Context, token string) (*session.Record, error) {
	if e == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}
	rec, err := e.sessions.GetSession(ctx, token)
	if err != nil {
		e.logger.Warn("session lookup failed", zap.Error(err))
		return nil, err
	}
	return rec, nil
}

// VerifyAndRefresh extends rec when it expires within 20 minutes.
func (e *Engine) VerifyAndRefresh(ctx context.Context, rec *session.Record) error {
	if e == nil || e.sessions == nil {
		return ErrEngineNotReady
	}
	if rec == nil {
		return nil
	}
	before := rec.ExpireTime
	if err := e.sessions.VerifyAndRefresh(ctx, rec); err != nil {
		return err
	}
	if rec.ExpireTime != before {
		e.metrics.SessionRefreshed()
	}
	return nil
}

// UpdatePermissions replaces the roles and permissions of a live session,
// for use after an administrator edits the user's grants.
func (e *Engine) UpdatePermissions(ctx context.Context, rec *session.Record, roles, permissions []string) error {
	if e == nil || e.sessions == nil {
		return ErrEngineNotReady
	}
	return e.sessions.UpdatePermissions(ctx, rec, roles, permissions)
}

// Revoke deletes the session named by token without writing a login log
// entry.
func (e *Engine) Revoke(ctx context.Context, token string) error {
	if e == nil || e.sessions == nil {
		return ErrEngineNotReady
	}
	if err := e.sessions.Revoke(ctx, token); err != nil {
		return wrapUnavailable(err)
	}
	e.metrics.SessionRevoked()
	return nil
}

// IssueCaptcha creates a CAPTCHA challenge.
func (e *Engine) IssueCaptcha(ctx context.Context) (Captcha, error) {
	if e == nil {
		return Captcha{}, ErrEngineNotReady
	}
	if !e.config.Captcha.Enabled {
		return Captcha{}, nil
	}
	if e.captchas == nil {
		return Captcha{}, ErrEngineNotReady
	}
	id, code, err := e.captchas.Issue(ctx)
	if err != nil {
		return Captcha{}, wrapUnavailable(err)
	}
	img, err := e.renderer.Render(code)
	if err != nil {
		return Captcha{}, err
	}
	return Captcha{Enabled: true, UUID: id, Image: img}, nil
}
