package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"hemodilab_backend/internal/definitions/repository"
	"hemodilab_backend/internal/definitions/service"
	"hemodilab_backend/internal/definitions/transport"
	"hemodilab_backend/platform/httpkit"
	platformvalidator "hemodilab_backend/platform/validator"
)

// Handler handles HTTP requests for endpoint definitions.
type Handler struct {
	svc *service.Service
	val *platformvalidator.Validator
}

const (
	msgInvalidRequest  = "Invalid request body"
	msgRequiredFields  = "Entity, description and response are required"
	msgInvalidEntity   = "Invalid entity. Must be one of the allowed entities"
	msgInvalidMethod   = "Invalid method. Must be GET, POST, PUT or DELETE"
	msgDeleted         = "Response data deleted successfully"
	msgValidationError = "Validation failed"
)

// New creates a new definitions handler.
func New(svc *service.Service, val *platformvalidator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// List retrieves all definitions, newest first.
// GET /api/definitions
func (h *Handler) List(c *gin.Context) {
	result, err := h.svc.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetByID retrieves a definition.
// GET /api/definitions/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.svc.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Create stores a new definition.
// POST /api/definitions
func (h *Handler) Create(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}

	result, err := h.svc.Create(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// Update replaces a definition.
// PUT /api/definitions/:id
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	req, ok := h.bind(c)
	if !ok {
		return
	}

	result, err := h.svc.Update(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Delete removes a definition.
// DELETE /api/definitions/:id
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), id)) {
		return
	}
	httpkit.Message(c, msgDeleted)
}

func (h *Handler) bind(c *gin.Context) (transport.DefinitionRequest, bool) {
	var req transport.DefinitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return req, false
	}
	req.Normalize()

	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, validationMessage(err), platformvalidator.Messages(err))
		return req, false
	}
	return req, true
}

// validationMessage picks the headline for the first failing rule class:
// missing fields first, then entity, then method.
func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return msgValidationError
	}

	var entity, method bool
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			return msgRequiredFields
		case "entity":
			entity = true
		case "httpmethod":
			method = true
		}
	}
	switch {
	case entity:
		return msgInvalidEntity
	case method:
		return msgInvalidMethod
	default:
		return msgValidationError
	}
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		// Unknown ids look the same whether or not they parse.
		httpkit.Error(c, http.StatusNotFound, repository.NotFoundMessage, nil)
		return uuid.UUID{}, false
	}
	return id, true
}
