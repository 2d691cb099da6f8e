package repository

import (
	"context"

	"hemodilab_backend/internal/definitions/domain"

	"github.com/google/uuid"
)

// CreateParams contains the normalized fields of a new definition.
type CreateParams struct {
	Entity      string
	Description string
	Method      domain.Method
	Parameters  string
	Response    string
	Auth        bool
	URL         string
}

// UpdateParams replaces every mutable field of an existing definition.
type UpdateParams struct {
	ID uuid.UUID
	CreateParams
}

// DefinitionReader provides read operations for definitions.
type DefinitionReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Definition, error)
	// List returns definitions newest first, for the admin listing.
	List(ctx context.Context) ([]domain.Definition, error)
	// ListAll returns definitions in store order (oldest first). The route
	// registry and the OpenAPI generator resolve duplicates by this order.
	ListAll(ctx context.Context) ([]domain.Definition, error)
}

// DefinitionWriter provides write operations for definitions.
type DefinitionWriter interface {
	Create(ctx context.Context, params CreateParams) (domain.Definition, error)
	Update(ctx context.Context, params UpdateParams) (domain.Definition, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Repository combines all definition repository operations.
type Repository interface {
	DefinitionReader
	DefinitionWriter
}
