package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"hemodilab_backend/internal/definitions/domain"
	"hemodilab_backend/internal/definitions/repository"
	"hemodilab_backend/internal/definitions/transport"
	"hemodilab_backend/internal/events"
	"hemodilab_backend/platform/apperr"
	"hemodilab_backend/platform/logger"
)

const msgInternalError = "Internal server error"

// Service provides business logic for endpoint definitions.
type Service struct {
	repo repository.Repository
	bus  events.Bus
	log  *logger.Logger
}

// New creates a new definitions service.
func New(repo repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// GetByID retrieves a definition by ID.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.DefinitionResponse, error) {
	def, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.DefinitionResponse{}, s.upstream(ctx, "get definition", err)
	}
	return transport.FromDomain(def), nil
}

// List retrieves all definitions, newest first.
func (s *Service) List(ctx context.Context) ([]transport.DefinitionResponse, error) {
	defs, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.upstream(ctx, "list definitions", err)
	}
	return transport.FromDomainList(defs), nil
}

// ListAll returns every definition in store order. It feeds the route
// registry and the OpenAPI generator.
func (s *Service) ListAll(ctx context.Context) ([]domain.Definition, error) {
	defs, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, s.upstream(ctx, "list all definitions", err)
	}
	return defs, nil
}

// Create stores a new definition. The request must already be normalized
// and validated.
func (s *Service) Create(ctx context.Context, req transport.DefinitionRequest) (transport.DefinitionResponse, error) {
	params := toParams(req)
	if err := s.ensureRouteFree(ctx, uuid.Nil, params); err != nil {
		return transport.DefinitionResponse{}, err
	}

	def, err := s.repo.Create(ctx, params)
	if err != nil {
		return transport.DefinitionResponse{}, s.upstream(ctx, "create definition", err)
	}

	s.log.WithContext(ctx).Info("definition created", "id", def.ID, "method", def.Method, "path", def.EffectivePath())
	s.publish(ctx, def.ID, events.DefinitionCreated)
	return transport.FromDomain(def), nil
}

// Update replaces every field of an existing definition.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.DefinitionRequest) (transport.DefinitionResponse, error) {
	params := toParams(req)
	if err := s.ensureRouteFree(ctx, id, params); err != nil {
		return transport.DefinitionResponse{}, err
	}

	def, err := s.repo.Update(ctx, repository.UpdateParams{ID: id, CreateParams: params})
	if err != nil {
		return transport.DefinitionResponse{}, s.upstream(ctx, "update definition", err)
	}

	s.log.WithContext(ctx).Info("definition updated", "id", def.ID, "method", def.Method, "path", def.EffectivePath())
	s.publish(ctx, def.ID, events.DefinitionUpdated)
	return transport.FromDomain(def), nil
}

// Delete removes a definition.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.upstream(ctx, "delete definition", err)
	}

	s.log.WithContext(ctx).Info("definition deleted", "id", id)
	s.publish(ctx, id, events.DefinitionDeleted)
	return nil
}

// ensureRouteFree rejects a write whose (method, effective path) is already
// taken by another definition. self is excluded so an update may keep its
// own route.
func (s *Service) ensureRouteFree(ctx context.Context, self uuid.UUID, params repository.CreateParams) error {
	candidate := domain.Definition{Entity: params.Entity, Method: params.Method, URL: params.URL}
	key := candidate.Key()

	existing, err := s.repo.ListAll(ctx)
	if err != nil {
		return s.upstream(ctx, "check route conflict", err)
	}

	for _, def := range existing {
		if def.ID == self {
			continue
		}
		if def.Key() == key {
			return apperr.Conflict(fmt.Sprintf("A %s route for %s already exists", key.Method, key.Path)).
				WithDetails(map[string]string{"conflictingId": def.ID.String()})
		}
	}
	return nil
}

func (s *Service) publish(ctx context.Context, id uuid.UUID, kind events.ChangeKind) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, events.DefinitionsChanged{
		BaseEvent:    events.NewBaseEvent(),
		DefinitionID: id,
		Kind:         kind,
	})
}

// upstream passes typed domain errors through and turns anything else into
// a generic internal error after logging the cause.
func (s *Service) upstream(ctx context.Context, op string, err error) error {
	if _, ok := apperr.As(err); ok {
		return err
	}
	s.log.WithContext(ctx).DatabaseError(op, err)
	return apperr.Internal(msgInternalError, err).WithOp(op)
}

func toParams(req transport.DefinitionRequest) repository.CreateParams {
	method, ok := domain.ParseMethod(req.Method)
	if !ok {
		method = domain.MethodGet
	}
	return repository.CreateParams{
		Entity:      req.Entity,
		Description: req.Description,
		Method:      method,
		Parameters:  req.Parameters,
		Response:    req.Response,
		Auth:        req.Auth,
		URL:         req.URL,
	}
}
