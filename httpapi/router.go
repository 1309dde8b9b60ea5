package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/MrEthical07/adminauth"
	"github.com/MrEthical07/adminauth/menu"
	"github.com/MrEthical07/adminauth/middleware"
	"github.com/MrEthical07/adminauth/session"
)

// Engine is the part of *adminauth.Engine the handlers use.
type Engine interface {
	Login(ctx context.Context, req adminauth.LoginRequest) (string, error)
	Logout(ctx context.Context, token string) error
	IssueCaptcha(ctx context.Context) (adminauth.Captcha, error)
	GetSession(ctx context.Context, token string) (*session.Record, error)
	VerifyAndRefresh(ctx context.Context, rec *session.Record) error
	Ping(ctx context.Context) error
}

// Options wires the router.
type Options struct {
	Engine *adminauth.Engine
	Menus  menu.Provider
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// NewRouter builds the HTTP handler. It fails when the XSS configuration
// does not compile.
func NewRouter(opts Options) (http.Handler, error) {
	logger := opts.Logger
	if logger == nil {
		logger = opts.Engine.Logger()
	}
	cfg := opts.Engine.Config()

	xssFilter, err := middleware.NewXSS(middleware.XSSConfig{
		Enabled:     cfg.XSS.Enabled,
		Excludes:    cfg.XSS.Excludes,
		URLPatterns: cfg.XSS.URLPatterns,
		OnSanitize:  opts.Engine.Metrics().XSSSanitized,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	h := &handlers{
		engine:   opts.Engine,
		messages: opts.Engine.Messages(),
		menus:    opts.Menus,
		token:    middleware.TokenConfig{Header: cfg.Token.Header, Prefix: cfg.Token.Prefix},
		validate: newValidator(),
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(logger))
	if len(cfg.HTTP.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.HTTP.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", cfg.Token.Header},
			ExposedHeaders:   []string{"X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(middleware.RepeatableBody(cfg.HTTP.MaxBodyBytes))
	r.Use(xssFilter)
	r.Use(middleware.Authenticate(opts.Engine, h.token, logger))

	r.Get("/healthz", h.health)
	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Post("/login", h.login)
	r.Get("/captchaImage", h.captchaImage)
	r.Post("/logout", h.logout)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuthenticated(h.unauthenticated))
		r.Get("/getInfo", h.getInfo)
		r.Get("/getRouters", h.getRouters)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, failure(http.StatusNotFound, "not found"))
	})

	return r, nil
}
