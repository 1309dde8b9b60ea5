package adminauth

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"

	"github.com/MrEthical07/adminauth/captcha"
	"github.com/MrEthical07/adminauth/jwt"
	"github.com/MrEthical07/adminauth/session"
)

// EnvPrefix prefixes every environment variable LoadConfig reads.
const EnvPrefix = "ADMINAUTH_"

// Config is the complete engine and server configuration.
type Config struct {
	Token    TokenConfig    `envPrefix:"TOKEN_"`
	Session  SessionConfig  `envPrefix:"SESSION_"`
	Captcha  CaptchaConfig  `envPrefix:"CAPTCHA_"`
	XSS      XSSConfig      `envPrefix:"XSS_"`
	Cache    CacheConfig    `envPrefix:"REDIS_"`
	Audit    AuditConfig    `envPrefix:"AUDIT_"`
	Security SecurityConfig `envPrefix:"LOGIN_"`
	Password PasswordConfig `envPrefix:"PASSWORD_"`
	Location LocationConfig `envPrefix:"LOCATION_"`
	Database DatabaseConfig `envPrefix:"DATABASE_"`
	HTTP     HTTPConfig     `envPrefix:"HTTP_"`
	Log      LogConfig      `envPrefix:"LOG_"`

	// Language is the message language used when a client sends no usable
	// Accept-Language header, and for audit messages.
	Language string `env:"LANGUAGE"`
}

// TokenConfig describes the bearer token.
type TokenConfig struct {
	Header        string `env:"HEADER"`
	Prefix        string `env:"PREFIX"`
	Secret        string `env:"SECRET"`
	SigningMethod string `env:"SIGNING_METHOD"`
	// PrivateKey is a PEM or raw Ed25519 key, used with signing method ed25519.
	PrivateKey string `env:"PRIVATE_KEY"`
	Issuer     string `env:"ISSUER"`
	// ExpireMinutes is the session lifetime. It must exceed the 20 minute
	// refresh window.
	ExpireMinutes int `env:"EXPIRE_MINUTES"`
}

// SessionConfig names where session records live in the cache.
type SessionConfig struct {
	KeyPrefix string `env:"PREFIX"`
}

// CaptchaConfig controls the login CAPTCHA.
type CaptchaConfig struct {
	Enabled       bool   `env:"ENABLED"`
	KeyPrefix     string `env:"PREFIX"`
	ExpireMinutes int    `env:"EXPIRE_MINUTES"`
	Length        int    `env:"LENGTH"`
}

// XSSConfig controls the input sanitizer.
type XSSConfig struct {
	Enabled     bool     `env:"ENABLED"`
	Excludes    []string `env:"EXCLUDES" envSeparator:","`
	URLPatterns []string `env:"URL_PATTERNS" envSeparator:","`
}

// CacheConfig locates the Redis server.
type CacheConfig struct {
	Addr      string        `env:"ADDR"`
	Password  string        `env:"PASSWORD"`
	DB        int           `env:"DB"`
	OpTimeout time.Duration `env:"OP_TIMEOUT"`
}

// AuditConfig controls the login log dispatcher.
type AuditConfig struct {
	Enabled    bool `env:"ENABLED"`
	BufferSize int  `env:"BUFFER_SIZE"`
	// File, when set, appends every event as a JSON line.
	File string `env:"FILE"`
}

// SecurityConfig is the failed-login lockout policy. MaxLoginAttempts of 0
// disables the lockout.
type SecurityConfig struct {
	MaxLoginAttempts int `env:"MAX_ATTEMPTS"`
	LockMinutes      int `env:"LOCK_MINUTES"`
}

// PasswordConfig selects the algorithm for new hashes. Verification accepts
// both algorithms regardless.
type PasswordConfig struct {
	Algorithm  string `env:"ALGORITHM"`
	BcryptCost int    `env:"BCRYPT_COST"`
}

// LocationConfig controls IP geolocation of logins.
type LocationConfig struct {
	Enabled   bool          `env:"ENABLED"`
	LookupURL string        `env:"LOOKUP_URL"`
	Timeout   time.Duration `env:"TIMEOUT"`
}

// DatabaseConfig points at the PostgreSQL database holding sys_user and
// sys_logininfor. An empty URL selects the file-backed user store and
// log-only auditing.
type DatabaseConfig struct {
	URL             string        `env:"URL"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME"`
	// UsersFile and MenusFile are YAML fixtures used without a database.
	UsersFile string `env:"USERS_FILE"`
	MenusFile string `env:"MENUS_FILE"`
}

// HTTPConfig configures the server.
type HTTPConfig struct {
	Addr              string        `env:"ADDR"`
	MaxBodyBytes      int64         `env:"MAX_BODY_BYTES"`
	CORSOrigins       []string      `env:"CORS_ORIGINS" envSeparator:","`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level  string `env:"LEVEL"`
	Format string `env:"FORMAT"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
// Token.Secret has no default and must be supplied.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			Header:        "Authorization",
			Prefix:        "Bearer ",
			SigningMethod: string(jwt.MethodHS512),
			ExpireMinutes: 30,
		},
		Session: SessionConfig{
			KeyPrefix: session.DefaultKeyPrefix,
		},
		Captcha: CaptchaConfig{
			Enabled:       true,
			KeyPrefix:     captcha.DefaultKeyPrefix,
			ExpireMinutes: 2,
			Length:        4,
		},
		XSS: XSSConfig{
			Enabled:     true,
			Excludes:    []string{"/system/notice/*"},
			URLPatterns: []string{"/system/*", "/monitor/*", "/tool/*"},
		},
		Cache: CacheConfig{
			Addr:      "localhost:6379",
			OpTimeout: 3 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 1024,
		},
		Security: SecurityConfig{
			MaxLoginAttempts: 5,
			LockMinutes:      10,
		},
		Password: PasswordConfig{
			Algorithm:  "argon2id",
			BcryptCost: 10,
		},
		Location: LocationConfig{
			Timeout: 3 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		HTTP: HTTPConfig{
			Addr:              ":8080",
			MaxBodyBytes:      10 << 20,
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   15 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Language: "en",
	}
}

// LoadConfig starts from DefaultConfig, loads the given dotenv files (".env"
// when none are named, missing files are ignored), applies ADMINAUTH_*
// environment variables and validates the result.
func LoadConfig(dotenvFiles ...string) (Config, error) {
	if err := godotenv.Load(dotenvFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load dotenv: %w", err)
	}

	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// TokenTTL is the session lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Token.ExpireMinutes) * time.Minute
}

// CaptchaTTL is how long an issued CAPTCHA stays answerable.
func (c *Config) CaptchaTTL() time.Duration {
	return time.Duration(c.Captcha.ExpireMinutes) * time.Minute
}

// LockDuration is how long a username stays locked after too many failures.
func (c *Config) LockDuration() time.Duration {
	return time.Duration(c.Security.LockMinutes) * time.Minute
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	// Token
	switch jwt.SigningMethod(strings.ToLower(c.Token.SigningMethod)) {
	case jwt.MethodHS512, jwt.MethodHS256:
		if c.Token.Secret == "" {
			return errors.New("Token Secret is required")
		}
		if len(c.Token.Secret) < jwt.MinSecretBytes {
			return fmt.Errorf("Token Secret must be at least %d bytes", jwt.MinSecretBytes)
		}
	case jwt.MethodEd25519:
		if c.Token.PrivateKey == "" {
			return errors.New("ed25519 requires Token PrivateKey")
		}
	default:
		return fmt.Errorf("unsupported Token SigningMethod %q", c.Token.SigningMethod)
	}
	if c.Token.Header == "" {
		return errors.New("Token Header must not be empty")
	}
	if c.TokenTTL() <= session.RefreshWindow {
		return fmt.Errorf("Token ExpireMinutes must be greater than %d", int(session.RefreshWindow/time.Minute))
	}

	// Session / CAPTCHA
	if c.Session.KeyPrefix == "" {
		return errors.New("Session KeyPrefix must not be empty")
	}
	if c.Captcha.Enabled {
		if c.Captcha.KeyPrefix == "" {
			return errors.New("Captcha KeyPrefix must not be empty")
		}
		if c.Captcha.ExpireMinutes <= 0 {
			return errors.New("Captcha ExpireMinutes must be > 0")
		}
		if c.Captcha.Length < 1 || c.Captcha.Length > 10 {
			return errors.New("Captcha Length must be between 1 and 10")
		}
	}

	// XSS
	for _, p := range c.XSS.Excludes {
		if _, err := regexp.Compile("^" + strings.TrimSpace(p)); err != nil {
			return fmt.Errorf("XSS exclude %q is not a valid pattern: %w", p, err)
		}
	}

	// Cache
	if c.Cache.Addr == "" {
		return errors.New("Cache Addr must not be empty")
	}
	if c.Cache.OpTimeout <= 0 {
		return errors.New("Cache OpTimeout must be > 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}

	// Security
	if c.Security.MaxLoginAttempts < 0 {
		return errors.New("Security MaxLoginAttempts must be >= 0")
	}
	if c.Security.MaxLoginAttempts > 0 && c.Security.LockMinutes <= 0 {
		return errors.New("Security LockMinutes must be > 0 when MaxLoginAttempts is set")
	}

	// Password
	switch c.Password.Algorithm {
	case "argon2id", "bcrypt":
	default:
		return fmt.Errorf("unsupported Password Algorithm %q", c.Password.Algorithm)
	}

	// HTTP
	if c.HTTP.MaxBodyBytes <= 0 {
		return errors.New("HTTP MaxBodyBytes must be > 0")
	}

	// Log
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("Log Level: %w", err)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return errors.New("Log Format must be 'json' or 'console'")
	}

	if c.Language == "" {
		return errors.New("Language must not be empty")
	}
	return nil
}
