// Command api is the entry point for the clinic portal auth service.
//
// Startup sequence:
//
//  1. Logger.
//  2. Configuration (fatal on a missing or weak JWT secret).
//  3. Credential store: PostgreSQL (pgxpool) or MongoDB.
//  4. Redis login throttle.
//  5. Audit dispatcher.
//  6. Services, bootstrap superadmin, router.
//  7. HTTP server with graceful shutdown.
//
//	@title						Clinic Portal Auth API
//	@version					1.0
//	@description				Login, session verification and role-based access for the clinic portal.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				"Bearer <token>"
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicportal/portal-auth/internal/api"
	"github.com/clinicportal/portal-auth/internal/api/handler"
	"github.com/clinicportal/portal-auth/internal/core/ports"
	"github.com/clinicportal/portal-auth/internal/core/service"
	"github.com/clinicportal/portal-auth/internal/infrastructure/config"
	mongostore "github.com/clinicportal/portal-auth/internal/infrastructure/db/mongo"
	pgstore "github.com/clinicportal/portal-auth/internal/infrastructure/db/postgres"
	redisstore "github.com/clinicportal/portal-auth/internal/infrastructure/db/redis"
	"github.com/clinicportal/portal-auth/internal/infrastructure/queue"
	"github.com/clinicportal/portal-auth/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// store bundles the repositories of the selected backend.
type store struct {
	accounts ports.AccountRepository
	audit    ports.AuditRepository
	ready    handler.DependencyCheck
	close    func(ctx context.Context)
}

func main() {
	// ── 1. Configuration + logger ─────────────────────────────────────────
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	cfg, cfgErr := config.Load(startupCtx)

	opts := logger.Options{Service: "portal-auth", Level: "info", Pretty: true}
	if cfg != nil {
		opts.Level = cfg.LogLevel
		opts.Pretty = cfg.IsDevelopment()
	}
	log := logger.Init(opts)
	must(log, cfgErr, "load configuration")

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Str("store", cfg.StoreDriver).
		Msg("configuration loaded")

	// ── 2. Credential store ───────────────────────────────────────────────
	st, err := openStore(startupCtx, cfg, log)
	must(log, err, "open credential store")
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		st.close(ctx)
	}()

	readiness := []handler.DependencyCheck{st.ready}

	// ── 3. Redis login throttle (LOGIN_MAX_ATTEMPTS=0 disables it) ─────────
	var throttle ports.LoginThrottle
	if cfg.Login.ThrottleEnabled() {
		rdb, err := redisstore.Connect(startupCtx, redisstore.Config{
			URL:      cfg.Redis.URL,
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		must(log, err, "connect to redis")
		defer func() {
			if cerr := rdb.Close(); cerr != nil {
				log.Error().Err(cerr).Msg("redis close error")
			}
		}()
		throttle = redisstore.NewLoginThrottle(rdb, cfg.Login.MaxAttempts, cfg.Login.LockoutWindow)
		readiness = append(readiness, handler.DependencyCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	} else {
		log.Warn().Msg("login throttle disabled")
	}

	// ── 4. Audit trail ────────────────────────────────────────────────────
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	dispatcher := queue.NewAuditDispatcher(cfg.Audit.Workers, st.audit, logger.Component("audit"))
	dispatcher.Start(rootCtx)

	// ── 5. Services ───────────────────────────────────────────────────────
	tokens, err := service.NewTokenService(cfg.JWTSecret, service.DefaultTokenTTL)
	must(log, err, "initialize token service")

	hasher := service.NewBcryptHasher(cfg.BcryptCost)
	authService := service.NewAuthService(st.accounts, hasher, tokens, throttle, dispatcher, logger.Component("auth"))
	accountService := service.NewAccountService(st.accounts, hasher, dispatcher, logger.Component("accounts"))

	if cfg.Bootstrap.Enabled() {
		err := accountService.EnsureBootstrap(startupCtx, cfg.Bootstrap.Email, cfg.Bootstrap.Password, cfg.Bootstrap.Name)
		must(log, err, "bootstrap superadmin")
	}

	// ── 6. Router ─────────────────────────────────────────────────────────
	e := api.NewRouter(api.Dependencies{
		AuthService:    authService,
		AccountService: accountService,
		Readiness:      readiness,
		AllowedOrigins: cfg.CORSOrigins,
		Log:            logger.Component("http"),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// ── 7. Graceful shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-serverErr:
		log.Error().Err(err).Msg("server error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}

	// Drain queued audit events before the store closes.
	dispatcher.Close()
	log.Info().Msg("server stopped cleanly")
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*store, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("mongo connected")
		return &store{
			accounts: mongostore.NewAccountRepository(db),
			audit:    mongostore.NewAuditRepository(db),
			ready: handler.DependencyCheck{Name: "mongo", Check: func(ctx context.Context) error {
				return client.Ping(ctx, nil)
			}},
			close: func(ctx context.Context) {
				if err := client.Disconnect(ctx); err != nil {
					log.Error().Err(err).Msg("mongo disconnect error")
				}
			},
		}, nil

	default:
		pool, err := pgstore.Connect(ctx, pgstore.Config{URL: cfg.Postgres.URL})
		if err != nil {
			return nil, err
		}
		if err := pgstore.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("postgres connected")
		return &store{
			accounts: pgstore.NewAccountRepository(pool),
			audit:    pgstore.NewAuditRepository(pool),
			ready:    handler.DependencyCheck{Name: "postgres", Check: pool.Ping},
			close:    func(context.Context) { pool.Close() },
		}, nil
	}
}

// must logs and exits on a startup error. After startup every error is
// returned and handled.
func must(log zerolog.Logger, err error, what string) {
	if err != nil {
		log.Fatal().Err(err).Str("step", what).Msg("startup failure")
	}
}
