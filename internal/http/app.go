// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"hemodilab_backend/platform/config"
	"hemodilab_backend/platform/logger"
	"hemodilab_backend/platform/metrics"

	"github.com/gin-gonic/gin"
)

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	// Config holds the HTTP server settings.
	Config config.HTTPConfig
	// Logger is the structured logger.
	Logger *logger.Logger
	// Health is used for readiness checks (DB ping). Optional.
	Health HealthChecker
	// Metrics records request metrics and serves /metrics. Optional.
	Metrics *metrics.Collector
	// AuthMiddleware guards the Protected group.
	AuthMiddleware gin.HandlerFunc
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}
