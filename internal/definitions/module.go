// Package definitions provides the endpoint definition store module: the
// admin CRUD surface over the response_data table.
package definitions

import (
	"fmt"

	"hemodilab_backend/internal/definitions/handler"
	"hemodilab_backend/internal/definitions/repository"
	"hemodilab_backend/internal/definitions/service"
	"hemodilab_backend/internal/events"
	apphttp "hemodilab_backend/internal/http"
	"hemodilab_backend/platform/config"
	"hemodilab_backend/platform/logger"
	"hemodilab_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the definitions bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the definitions module with all its dependencies.
func NewModule(pool *pgxpool.Pool, cfg config.EntityConfig, bus events.Bus, val *validator.Validator, log *logger.Logger) (*Module, error) {
	return newModule(repository.New(pool), cfg, bus, val, log)
}

func newModule(repo repository.Repository, cfg config.EntityConfig, bus events.Bus, val *validator.Validator, log *logger.Logger) (*Module, error) {
	if err := handler.RegisterRules(val, cfg.GetAllowedEntities()); err != nil {
		return nil, fmt.Errorf("register definition rules: %w", err)
	}

	svc := service.New(repo, bus, log.WithComponent("definitions"))
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "definitions"
}

// Service returns the service layer. The route registry and the OpenAPI
// generator read definitions through it.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts definition routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/definitions")
	group.GET("", m.handler.List)
	group.POST("", m.handler.Create)
	group.GET("/:id", m.handler.GetByID)
	group.PUT("/:id", m.handler.Update)
	group.DELETE("/:id", m.handler.Delete)

	// Alias kept for existing admin clients.
	legacy := ctx.Protected.Group("/response-data")
	legacy.GET("", m.handler.List)
	legacy.POST("", m.handler.Create)
	legacy.PUT("/:id", m.handler.Update)
	legacy.DELETE("/:id", m.handler.Delete)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
