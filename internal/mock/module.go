// Package mock exposes stored definitions as live HTTP endpoints together
// with the OpenAPI document describing them.
package mock

import (
	"context"

	"hemodilab_backend/internal/events"
	apphttp "hemodilab_backend/internal/http"
	"hemodilab_backend/internal/mock/handler"
	"hemodilab_backend/internal/mock/registry"
)

// Module is the mock bounded context module implementing http.Module.
type Module struct {
	handler  *handler.Handler
	registry *registry.Registry
}

// NewModule creates the module. Options.Gate is not consulted on the main
// API: every dynamic route there sits behind the Protected group.
func NewModule(opts handler.Options) *Module {
	return &Module{
		handler:  handler.New(opts),
		registry: opts.Registry,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "mock"
}

// RegisterHandlers subscribes the registry to definition changes so writes
// are served without waiting for the next periodic rebuild.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.DefinitionsChangedName, events.HandlerFunc(func(context.Context, events.Event) error {
		m.registry.Trigger()
		return nil
	}))
}

// RegisterRoutes mounts the gated dynamic routes and documents.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.Any("/hemodilab/*path", m.handler.ServeParam)
	ctx.Protected.GET("/swagger", m.handler.SwaggerJSON)
	ctx.Protected.GET("/swagger.yaml", m.handler.SwaggerYAML)
	ctx.Protected.GET("/routes", m.handler.Routes)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
