package mock

import (
	"net"
	"strings"

	"hemodilab_backend/internal/mock/handler"
	"hemodilab_backend/platform/httpkit"
	"hemodilab_backend/platform/logger"
	"hemodilab_backend/platform/metrics"

	"github.com/gin-gonic/gin"
)

// ServerOptions configures the standalone mock server engine.
type ServerOptions struct {
	Addr    string
	Logger  *logger.Logger
	Metrics *metrics.Collector
}

// NewServer builds the standalone mock server: every definition is public
// at its effective path and under /hemodilab, unless flagged auth.
func NewServer(h *handler.Handler, opts ServerOptions) *gin.Engine {
	engine := gin.New()
	// A definition may be stored with a trailing slash next to a static route.
	engine.RedirectTrailingSlash = false
	engine.Use(gin.Recovery())

	var observers []httpkit.RequestObserver
	if opts.Metrics != nil {
		observers = append(observers, opts.Metrics)
	}
	engine.Use(httpkit.RequestLogger(opts.Logger, observers...))
	engine.Use(httpkit.LocalhostCORS())

	engine.GET("/health", handler.Health(port(opts.Addr)))
	engine.GET("/swagger.json", h.SwaggerJSON)
	engine.GET("/swagger.yaml", h.SwaggerYAML)
	engine.GET("/routes", h.Routes)
	if opts.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	engine.NoRoute(h.Dispatch)
	return engine
}

func port(addr string) string {
	if _, p, err := net.SplitHostPort(addr); err == nil {
		return p
	}
	return strings.TrimPrefix(addr, ":")
}
