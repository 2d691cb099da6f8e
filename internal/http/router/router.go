package router

import (
	"context"
	"net/http"
	"time"

	apphttp "hemodilab_backend/internal/http"
	"hemodilab_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

const healthTimeout = 2 * time.Second

// New builds the main API engine and mounts every module.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())

	var observers []httpkit.RequestObserver
	if app.Metrics != nil {
		observers = append(observers, app.Metrics)
	}
	engine.Use(httpkit.RequestLogger(app.Logger, observers...))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(httpkit.CORS(app.Config))

	if app.Metrics != nil {
		handlers := []gin.HandlerFunc{gin.WrapH(app.Metrics.Handler())}
		if app.AuthMiddleware != nil {
			handlers = append([]gin.HandlerFunc{app.AuthMiddleware}, handlers...)
		}
		engine.GET("/metrics", handlers...)
	}

	api := engine.Group("/api")
	api.GET("/health", health(app.Health))

	protected := api.Group("")
	if app.AuthMiddleware != nil {
		protected.Use(app.AuthMiddleware)
	}

	ctx := &apphttp.RouterContext{
		Engine:          engine,
		API:             api,
		Protected:       protected,
		AuthRateLimiter: httpkit.NewAuthRateLimiter(app.Logger),
	}
	for _, module := range app.Modules {
		module.RegisterRoutes(ctx)
		app.Logger.Debug("module routes registered", "module", module.Name())
	}

	return engine
}

func health(checker apphttp.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if checker != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
			defer cancel()
			if err := checker.Ping(ctx); err != nil {
				httpkit.JSON(c, http.StatusServiceUnavailable, gin.H{
					"status":    "unavailable",
					"server":    "api",
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				})
				return
			}
		}

		httpkit.OK(c, gin.H{
			"status":    "ok",
			"server":    "api",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
