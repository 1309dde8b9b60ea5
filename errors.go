package adminauth

import (
	"errors"
	"fmt"
)

var (
	// ErrCaptchaExpired means the CAPTCHA uuid is unknown, expired or already used.
	ErrCaptchaExpired = errors.New("captcha expired")
	// ErrCaptchaInvalid means the CAPTCHA answer did not match.
	ErrCaptchaInvalid = errors.New("captcha invalid")
	// ErrCredentialsInvalid means the username or password is wrong.
	ErrCredentialsInvalid = errors.New("invalid credentials")
	// ErrLoginRateLimited means the username is locked after repeated failures.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrEngineNotReady is returned when the engine was not built with its dependencies.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrSessionUnavailable wraps cache failures while creating or revoking sessions.
	ErrSessionUnavailable = errors.New("session store unavailable")
)

// AuthenticationError is returned by Login for failures other than the
// sentinel outcomes: disabled or deleted accounts, user store errors and
// cache outages.
type AuthenticationError struct {
	// Key is the message key describing the failure to the user.
	Key string
	// Args fills the placeholders of Key.
	Args map[string]any
	// Detail is a short diagnostic, not meant for end users.
	Detail string
	Err    error
}

func (e *AuthenticationError) Error() string {
	if e.Detail == "" {
		return "authentication failed"
	}
	return "authentication failed: " + e.Detail
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// LoginError pairs one of the login sentinels with the message that
// describes it. errors.Is matches the sentinel.
type LoginError struct {
	Sentinel error
	Key      string
	Args     map[string]any
}

func (e *LoginError) Error() string {
	return e.Sentinel.Error()
}

func (e *LoginError) Unwrap() error {
	return e.Sentinel
}

// MessageOf returns the message key and placeholder values describing a
// Login error. Unknown errors map to the generic login failure.
func MessageOf(err error) (string, map[string]any) {
	var le *LoginError
	if errors.As(err, &le) {
		return le.Key, le.Args
	}
	var ae *AuthenticationError
	if errors.As(err, &ae) && ae.Key != "" {
		return ae.Key, ae.Args
	}
	return "user.login.error", nil
}

func wrapUnavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
}
