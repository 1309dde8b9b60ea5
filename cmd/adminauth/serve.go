package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/MrEthical07/adminauth"
	"github.com/MrEthical07/adminauth/httpapi"
	"github.com/MrEthical07/adminauth/internal/audit"
	"github.com/MrEthical07/adminauth/internal/database"
	"github.com/MrEthical07/adminauth/internal/logging"
	"github.com/MrEthical07/adminauth/menu"
	"github.com/MrEthical07/adminauth/password"
	"github.com/MrEthical07/adminauth/users"
)

func newServeCmd() *cobra.Command {
	var initSchema bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := adminauth.LoadConfig(envFiles(cmd)...)
			if err != nil {
				return &configError{err: err}
			}
			logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return &configError{err: err}
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger, initSchema)
		},
	}
	cmd.Flags().BoolVar(&initSchema, "init-schema", false, "create the sys_logininfor table if it does not exist")
	return cmd
}

func serve(ctx context.Context, cfg adminauth.Config, logger *zap.Logger, initSchema bool) error {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.Addr,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.DB,

		// lets per-operation deadlines cut off a stalled connection
		ContextTimeoutEnabled: true,
	})
	defer func() { _ = rdb.Close() }()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect redis %s: %w", cfg.Cache.Addr, err)
	}

	hasher, err := newHasher(cfg.Password.Algorithm, cfg.Password.BcryptCost)
	if err != nil {
		return &configError{err: err}
	}

	var (
		db       *sql.DB
		store    users.Store
		sink     audit.Sink = audit.NewLoggerSink(logger)
		menuTree menu.Provider
	)
	if cfg.Database.URL != "" {
		db, err = database.Open(ctx, database.Config{
			URL:             cfg.Database.URL,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		}, logger)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		if initSchema {
			if _, err := db.ExecContext(ctx, audit.Schema); err != nil {
				return fmt.Errorf("create sys_logininfor: %w", err)
			}
		}
		store = users.NewSQLStore(db, logger)
		sink = audit.MultiSink{sink, audit.NewSQLSink(db, logger)}
	} else {
		if cfg.Database.UsersFile == "" {
			return &configError{err: errors.New("either ADMINAUTH_DATABASE_URL or ADMINAUTH_DATABASE_USERS_FILE is required")}
		}
		f, err := os.Open(cfg.Database.UsersFile)
		if err != nil {
			return err
		}
		mem, err := users.LoadMemoryStore(f)
		_ = f.Close()
		if err != nil {
			return err
		}
		store = mem
		logger.Warn("no database configured, using users file", zap.String("file", cfg.Database.UsersFile))
	}

	if cfg.Audit.File != "" {
		f, err := os.OpenFile(cfg.Audit.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
		if err != nil {
			return fmt.Errorf("open audit file: %w", err)
		}
		defer func() { _ = f.Close() }()
		sink = audit.MultiSink{sink, audit.NewJSONWriterSink(f)}
	}

	menuTree, err = loadMenus(cfg.Database.MenusFile)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	engine, err := adminauth.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithAuthenticator(users.NewCredentialsAuthenticator(store, password.NewMulti(hasher), logger)).
		WithAuditSink(sink).
		WithLogger(logger).
		WithMetrics(reg).
		Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	handler, err := httpapi.NewRouter(httpapi.Options{
		Engine:   engine,
		Menus:    menuTree,
		Gatherer: reg,
		Logger:   logger,
	})
	if err != nil {
		return &configError{err: err}
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// loadMenus reads the route tree for /getRouters. Without a file the tree is
// empty.
func loadMenus(path string) (menu.Provider, error) {
	if path == "" {
		return menu.NewStatic(nil), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return menu.LoadStatic(f)
}
