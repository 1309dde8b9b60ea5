package adminauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MrEthical07/adminauth/cache"
	"github.com/MrEthical07/adminauth/captcha"
	"github.com/MrEthical07/adminauth/clientinfo"
	"github.com/MrEthical07/adminauth/i18n"
	"github.com/MrEthical07/adminauth/internal/audit"
	"github.com/MrEthical07/adminauth/internal/rate"
	"github.com/MrEthical07/adminauth/jwt"
	"github.com/MrEthical07/adminauth/session"
	"github.com/MrEthical07/adminauth/users"
)

// Builder assembles an Engine. Configure it during initialization and call
// Build once.
type Builder struct {
	config     Config
	redis      redis.UniversalClient
	auth       users.Authenticator
	auditSink  audit.Sink
	logger     *zap.Logger
	registerer prometheus.Registerer
	locator    clientinfo.Locator
	renderer   captcha.Renderer
	messages   *i18n.Bundle

	built bool
}

// New returns a Builder holding DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis sets the client backing sessions, CAPTCHAs and the lockout
// counter. Required.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithAuthenticator sets the credential check. Required.
func (b *Builder) WithAuthenticator(a users.Authenticator) *Builder {
	b.auth = a
	return b
}

// WithAuditSink sets where login log events go. The default logs them.
func (b *Builder) WithAuditSink(sink audit.Sink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithMetrics registers the engine's collectors on reg.
func (b *Builder) WithMetrics(reg prometheus.Registerer) *Builder {
	b.registerer = reg
	return b
}

// WithLocator overrides the IP geolocation chosen from Config.Location.
func (b *Builder) WithLocator(l clientinfo.Locator) *Builder {
	b.locator = l
	return b
}

// WithCaptchaRenderer sets the CAPTCHA image generator. The default returns
// the code base64 encoded.
func (b *Builder) WithCaptchaRenderer(r captcha.Renderer) *Builder {
	b.renderer = r
	return b
}

// WithMessages overrides the embedded message catalog.
func (b *Builder) WithMessages(m *i18n.Bundle) *Builder {
	b.messages = m
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.auth == nil {
		return nil, errors.New("authenticator required")
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	tokens, err := jwt.NewManager(jwt.Config{
		SigningMethod: jwt.SigningMethod(strings.ToLower(cfg.Token.SigningMethod)),
		Secret:        []byte(cfg.Token.Secret),
		PrivateKey:    []byte(cfg.Token.PrivateKey),
		Issuer:        cfg.Token.Issuer,
	})
	if err != nil {
		return nil, fmt.Errorf("token codec: %w", err)
	}

	locator := b.locator
	if locator == nil {
		if cfg.Location.Enabled {
			hl := clientinfo.NewHTTPLocator(cfg.Location.Timeout, logger)
			if cfg.Location.LookupURL != "" {
				hl.BaseURL = cfg.Location.LookupURL
			}
			locator = hl
		} else {
			locator = clientinfo.StaticLocator{}
		}
	}

	store := cache.NewRedis(b.redis, cfg.Cache.OpTimeout)
	sessions, err := session.NewManager(session.NewStore(store, cfg.Session.KeyPrefix), tokens, session.ManagerConfig{
		TTL: cfg.TokenTTL(),
		Locate: func(ip string) string {
			return locator.Locate(context.Background(), ip)
		},
		ParseUserAgent: clientinfo.BrowserAndOS,
	})
	if err != nil {
		return nil, err
	}

	messages := b.messages
	if messages == nil {
		if messages, err = i18n.New(cfg.Language); err != nil {
			return nil, err
		}
	}

	metrics, err := NewMetrics(b.registerer)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	sink := b.auditSink
	if sink == nil {
		sink = audit.NewLoggerSink(logger)
	}
	dispatcher := audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		Enrich: func(ev *audit.Event) {
			ev.Location = locator.Locate(context.Background(), ev.IP)
			ev.Browser, ev.OS = clientinfo.BrowserAndOS(ev.UserAgent)
		},
	}, sink)
	if dispatcher != nil {
		if err := registerAuditDropped(b.registerer, dispatcher.Dropped); err != nil {
			dispatcher.Close()
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	renderer := b.renderer
	if renderer == nil {
		renderer = captcha.PlainRenderer{}
	}

	e := &Engine{
		config:   cfg,
		logger:   logger,
		cache:    store,
		sessions: sessions,
		renderer: renderer,
		auth:     b.auth,
		audit:    dispatcher,
		messages: messages,
		metrics:  metrics,
		limiter: rate.New(b.redis, rate.Config{
			MaxLoginAttempts: cfg.Security.MaxLoginAttempts,
			LockDuration:     cfg.LockDuration(),
			OpTimeout:        cfg.Cache.OpTimeout,
		}),
	}
	if cfg.Captcha.Enabled {
		e.captchas = captcha.NewStore(store, captcha.Config{
			KeyPrefix: cfg.Captcha.KeyPrefix,
			TTL:       cfg.CaptchaTTL(),
			Length:    cfg.Captcha.Length,
		})
	}

	b.built = true
	return e, nil
}
