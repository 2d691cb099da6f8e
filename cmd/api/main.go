package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"hemodilab_backend/internal/auth"
	"hemodilab_backend/internal/auth/session"
	"hemodilab_backend/internal/definitions"
	"hemodilab_backend/internal/events"
	apphttp "hemodilab_backend/internal/http"
	"hemodilab_backend/internal/http/router"
	"hemodilab_backend/internal/mock"
	"hemodilab_backend/internal/mock/handler"
	"hemodilab_backend/internal/mock/notify"
	"hemodilab_backend/internal/mock/openapi"
	"hemodilab_backend/internal/mock/registry"
	"hemodilab_backend/platform/config"
	"hemodilab_backend/platform/db"
	"hemodilab_backend/platform/logger"
	"hemodilab_backend/platform/metrics"
	"hemodilab_backend/platform/redisconn"
	"hemodilab_backend/platform/retry"
	"hemodilab_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr, "authMode", cfg.AuthMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := retry.Do(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if cfg.IsMigrationsEnabled() {
		if err := retry.Do(ctx, log, "database migrations", 5, 2*time.Second, func() error {
			return db.RunMigrations(ctx, pool)
		}); err != nil {
			log.Error("failed to run database migrations", "error", err)
			panic("failed to run database migrations: " + err.Error())
		}
		log.Info("database migrations complete")
	}

	redisClient, closeRedis := initRedis(ctx, cfg, log)
	if closeRedis != nil {
		defer closeRedis()
	}

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	collector := metrics.NewCollector()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	var revoked session.Revocations
	if redisClient != nil {
		revoked = session.NewRedisRevocations(redisClient)
		// Fan definition writes out to mock servers in other processes
		eventBus.Subscribe(events.DefinitionsChangedName, notify.NewPublisher(redisClient, log))
	}

	authModule := auth.NewModule(pool, cfg, revoked, val, log)

	definitionsModule, err := definitions.NewModule(pool, cfg, eventBus, val, log)
	if err != nil {
		log.Error("failed to initialize definitions module", "error", err)
		panic("failed to initialize definitions module: " + err.Error())
	}

	routes := registry.New(definitionsModule.Service(), registry.Options{
		Timeout:  cfg.GetMockRebuildTimeout(),
		Logger:   log,
		Observer: collector,
	})
	generator := openapi.New(
		openapi.Server{URL: strings.TrimRight(cfg.GetAppBaseURL(), "/") + "/api", Description: "HEMODILAB API"},
		openapi.Server{URL: cfg.GetMockBaseURL(), Description: "Mock API server"},
	)
	mockModule := mock.NewModule(handler.Options{
		Registry:  routes,
		Generator: generator,
		Lister:    definitionsModule.Service(),
		Recorder:  collector,
		Logger:    log,
	})
	mockModule.RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:         cfg,
		Logger:         log,
		Health:         pool,
		Metrics:        collector,
		AuthMiddleware: authModule.Gate().Require(),
		Modules: []apphttp.Module{
			authModule,
			definitionsModule,
			mockModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return routes.Run(gctx, cfg.GetMockRebuildInterval())
	})

	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		eventBus.Wait()
		panic("server error: " + err.Error())
	}
	eventBus.Wait()
	log.Info("server stopped")
}

func initRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*redis.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; sessions revoke in memory and mock servers rely on periodic rebuilds")
		return nil, nil
	}

	client, err := redisconn.New(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}
