package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hemodilab_backend/internal/auth/gate"
	"hemodilab_backend/internal/auth/session"
	"hemodilab_backend/internal/definitions/repository"
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

	log := logger.New(cfg.Env).WithComponent("mock-server")
	log.Info("starting mock server", "env", cfg.Env, "addr", cfg.GetMockAddr(), "requireAuth", cfg.IsMockAuthRequired())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	redisClient, closeRedis := initRedis(ctx, cfg, log)
	if closeRedis != nil {
		defer closeRedis()
	}

	var revoked session.Revocations
	if redisClient != nil {
		revoked = session.NewRedisRevocations(redisClient)
	}

	store := repository.New(pool)
	collector := metrics.NewCollector()

	routes := registry.New(store, registry.Options{
		Timeout:  cfg.GetMockRebuildTimeout(),
		Logger:   log,
		Observer: collector,
	})

	h := handler.New(handler.Options{
		Registry:    routes,
		Generator:   openapi.New(openapi.Server{URL: cfg.GetMockBaseURL(), Description: "Mock API server"}),
		Lister:      store,
		Gate:        gate.New(cfg.GetAPIKey(), cfg.GetSessionCookieName(), session.NewManager(cfg, revoked)),
		RequireAuth: cfg.IsMockAuthRequired(),
		Recorder:    collector,
		Logger:      log,
	})

	srv := &http.Server{
		Addr:              cfg.GetMockAddr(),
		Handler:           mock.NewServer(h, mock.ServerOptions{Addr: cfg.GetMockAddr(), Logger: log, Metrics: collector}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return routes.Run(gctx, cfg.GetMockRebuildInterval())
	})

	if redisClient != nil {
		g.Go(func() error {
			err := notify.NewSubscriber(redisClient, log).Run(gctx, func(notify.Message) {
				routes.Trigger()
			})
			if err != nil {
				// Periodic rebuilds keep the table fresh without pub/sub.
				log.Warn("definition change subscription ended", "error", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		log.Info("mock server listening", "addr", cfg.GetMockAddr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("mock server: %w", err)
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
		log.Error("mock server error", "error", err)
		panic("mock server error: " + err.Error())
	}
	log.Info("mock server stopped")
}

func initRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*redis.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; routes refresh on the rebuild interval only")
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
