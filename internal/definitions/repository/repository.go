package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hemodilab_backend/internal/definitions/domain"
	"hemodilab_backend/platform/apperr"
)

// NotFoundMessage is returned when a definition id does not exist.
const NotFoundMessage = "Response data not found"

const definitionColumns = `id, entity, description, method, parameters, response, auth, url, created_at, updated_at`

const (
	getDefinitionQuery = `
		SELECT ` + definitionColumns + `
		FROM response_data
		WHERE id = $1`

	listDefinitionsQuery = `
		SELECT ` + definitionColumns + `
		FROM response_data
		ORDER BY created_at DESC, id DESC`

	listAllDefinitionsQuery = `
		SELECT ` + definitionColumns + `
		FROM response_data
		ORDER BY created_at ASC, id ASC`

	createDefinitionQuery = `
		INSERT INTO response_data (entity, description, method, parameters, response, auth, url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + definitionColumns

	updateDefinitionQuery = `
		UPDATE response_data SET
			entity = $2,
			description = $3,
			method = $4,
			parameters = $5,
			response = $6,
			auth = $7,
			url = $8,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + definitionColumns

	deleteDefinitionQuery = `DELETE FROM response_data WHERE id = $1`
)

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new definitions repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetByID retrieves a definition by its ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (domain.Definition, error) {
	def, err := scanDefinition(r.pool.QueryRow(ctx, getDefinitionQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Definition{}, apperr.NotFound(NotFoundMessage)
		}
		return domain.Definition{}, fmt.Errorf("get definition by id: %w", err)
	}
	return def, nil
}

// List retrieves all definitions, newest first.
func (r *Repo) List(ctx context.Context) ([]domain.Definition, error) {
	rows, err := r.pool.Query(ctx, listDefinitionsQuery)
	if err != nil {
		return nil, fmt.Errorf("list definitions: %w", err)
	}
	defer rows.Close()

	return scanDefinitions(rows)
}

// ListAll retrieves all definitions in insertion order.
func (r *Repo) ListAll(ctx context.Context) ([]domain.Definition, error) {
	rows, err := r.pool.Query(ctx, listAllDefinitionsQuery)
	if err != nil {
		return nil, fmt.Errorf("list all definitions: %w", err)
	}
	defer rows.Close()

	return scanDefinitions(rows)
}

// Create inserts a new definition.
func (r *Repo) Create(ctx context.Context, params CreateParams) (domain.Definition, error) {
	def, err := scanDefinition(r.pool.QueryRow(ctx, createDefinitionQuery,
		params.Entity, params.Description, string(params.Method), params.Parameters, params.Response, params.Auth, params.URL,
	))
	if err != nil {
		return domain.Definition{}, fmt.Errorf("create definition: %w", err)
	}
	return def, nil
}

// Update replaces the fields of an existing definition.
func (r *Repo) Update(ctx context.Context, params UpdateParams) (domain.Definition, error) {
	def, err := scanDefinition(r.pool.QueryRow(ctx, updateDefinitionQuery,
		params.ID, params.Entity, params.Description, string(params.Method), params.Parameters, params.Response, params.Auth, params.URL,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Definition{}, apperr.NotFound(NotFoundMessage)
		}
		return domain.Definition{}, fmt.Errorf("update definition: %w", err)
	}
	return def, nil
}

// Delete removes a definition by ID (hard delete).
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, deleteDefinitionQuery, id)
	if err != nil {
		return fmt.Errorf("delete definition: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound(NotFoundMessage)
	}

	return nil
}

func scanDefinition(row pgx.Row) (domain.Definition, error) {
	var def domain.Definition
	var method string

	err := row.Scan(
		&def.ID, &def.Entity, &def.Description, &method, &def.Parameters, &def.Response,
		&def.Auth, &def.URL, &def.CreatedAt, &def.UpdatedAt,
	)
	if err != nil {
		return domain.Definition{}, err
	}

	def.Method = domain.Method(method)
	return def, nil
}

func scanDefinitions(rows pgx.Rows) ([]domain.Definition, error) {
	results := make([]domain.Definition, 0)

	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan definition: %w", err)
		}
		results = append(results, def)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate definitions: %w", err)
	}

	return results, nil
}
