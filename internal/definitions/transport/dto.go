package transport

import (
	"strings"
	"time"

	"hemodilab_backend/internal/definitions/domain"

	"github.com/google/uuid"
)

// DefinitionRequest is the body of create and full-replace requests.
type DefinitionRequest struct {
	Entity      string `json:"entity" validate:"required,entity"`
	Description string `json:"description" validate:"required"`
	Method      string `json:"method" validate:"omitempty,httpmethod"`
	Parameters  string `json:"parameters"`
	Response    string `json:"response" validate:"required"`
	Auth        bool   `json:"auth"`
	URL         string `json:"url"`
}

// Normalize trims free-text fields and applies defaults in place.
// The response body is stored verbatim.
func (r *DefinitionRequest) Normalize() {
	r.Entity = strings.TrimSpace(r.Entity)
	r.Description = strings.TrimSpace(r.Description)
	r.Parameters = strings.TrimSpace(r.Parameters)
	r.URL = strings.TrimSpace(r.URL)
	r.Method = strings.ToUpper(strings.TrimSpace(r.Method))
	if r.Method == "" {
		r.Method = string(domain.MethodGet)
	}
	if strings.TrimSpace(r.Response) == "" {
		r.Response = ""
	}
}

// DefinitionResponse represents a definition in API responses.
type DefinitionResponse struct {
	ID          uuid.UUID `json:"id"`
	Entity      string    `json:"entity"`
	Description string    `json:"description"`
	Method      string    `json:"method"`
	Parameters  string    `json:"parameters"`
	Response    string    `json:"response"`
	Auth        bool      `json:"auth"`
	URL         string    `json:"url"`
	Path        string    `json:"path"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// FromDomain converts a stored definition for output.
func FromDomain(def domain.Definition) DefinitionResponse {
	return DefinitionResponse{
		ID:          def.ID,
		Entity:      def.Entity,
		Description: def.Description,
		Method:      def.Method.String(),
		Parameters:  def.Parameters,
		Response:    def.Response,
		Auth:        def.Auth,
		URL:         def.URL,
		Path:        def.EffectivePath(),
		CreatedAt:   def.CreatedAt,
		UpdatedAt:   def.UpdatedAt,
	}
}

// FromDomainList converts a slice of stored definitions for output.
func FromDomainList(defs []domain.Definition) []DefinitionResponse {
	out := make([]DefinitionResponse, len(defs))
	for i, def := range defs {
		out[i] = FromDomain(def)
	}
	return out
}
