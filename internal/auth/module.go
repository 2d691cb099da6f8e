// Package auth provides the authentication bounded context module: users,
// cookie sessions and the gate protecting every non-public API route.
package auth

import (
	"hemodilab_backend/internal/auth/gate"
	"hemodilab_backend/internal/auth/handler"
	"hemodilab_backend/internal/auth/repository"
	"hemodilab_backend/internal/auth/service"
	"hemodilab_backend/internal/auth/session"
	apphttp "hemodilab_backend/internal/http"
	"hemodilab_backend/platform/config"
	"hemodilab_backend/platform/logger"
	"hemodilab_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config combines the settings the auth module reads.
type Config interface {
	config.SessionConfig
	config.APIKeyConfig
}

// Module is the auth bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	gate    *gate.Gate
}

// NewModule creates the auth module. revoked may be nil for an in-memory
// revocation list.
func NewModule(pool *pgxpool.Pool, cfg Config, revoked session.Revocations, val *validator.Validator, log *logger.Logger) *Module {
	return newModule(repository.New(pool), cfg, revoked, val, log)
}

func newModule(repo repository.Repository, cfg Config, revoked session.Revocations, val *validator.Validator, log *logger.Logger) *Module {
	sessions := session.NewManager(cfg, revoked)
	g := gate.New(cfg.GetAPIKey(), cfg.GetSessionCookieName(), sessions)
	svc := service.New(repo, sessions, cfg.IsDemoAuth(), log.WithComponent("auth"))
	h := handler.New(svc, g, val, handler.CookieSettings{
		Name:   cfg.GetSessionCookieName(),
		Secure: cfg.GetSessionCookieSecure(),
	})

	return &Module{handler: h, service: svc, gate: g}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// Gate returns the request gate shared with the router and the mock module.
func (m *Module) Gate() *gate.Gate {
	return m.gate
}

// RegisterRoutes mounts auth routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public auth routes with stricter rate limiting
	ctx.API.POST("/register", ctx.AuthRateLimiter.RateLimit(), m.handler.Register)

	authGroup := ctx.API.Group("/auth")
	authGroup.Use(ctx.AuthRateLimiter.RateLimit())
	authGroup.POST("/sign-in", m.handler.SignIn)
	authGroup.POST("/sign-out", m.handler.SignOut)
	authGroup.GET("/session", m.handler.Session)

	// Protected user routes
	ctx.Protected.PUT("/user/update", m.handler.UpdateUser)
	ctx.Protected.DELETE("/user/delete", m.handler.DeleteUser)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
