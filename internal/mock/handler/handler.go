// Package handler serves dynamic routes and the documents derived from the
// definition set.
package handler

import (
	"context"
	"net/http"
	"strings"

	"hemodilab_backend/internal/definitions/domain"
	"hemodilab_backend/internal/mock/openapi"
	"hemodilab_backend/internal/mock/registry"
	"hemodilab_backend/internal/mock/response"
	"hemodilab_backend/platform/httpkit"
	"hemodilab_backend/platform/logger"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gin-gonic/gin"
)

const (
	contentTypeYAML = "application/yaml; charset=utf-8"
	msgInternal     = "Internal server error"
)

// Lister reads every definition in store order.
type Lister interface {
	ListAll(ctx context.Context) ([]domain.Definition, error)
}

// Authorizer is the request predicate applied to protected dynamic routes.
type Authorizer interface {
	IsAuthorized(r *http.Request) bool
}

// Recorder counts dynamic route outcomes.
type Recorder interface {
	DynamicHit(entity string)
	DynamicMiss()
}

// Options configures a Handler.
type Options struct {
	Registry  *registry.Registry
	Generator *openapi.Generator
	Lister    Lister
	// Gate is consulted for definitions flagged auth, or for every route
	// when RequireAuth is set. Nil means no credentials can pass.
	Gate        Authorizer
	RequireAuth bool
	Recorder    Recorder
	Logger      *logger.Logger
}

type Handler struct {
	reg         *registry.Registry
	gen         *openapi.Generator
	defs        Lister
	gate        Authorizer
	requireAuth bool
	rec         Recorder
	log         *logger.Logger
}

func New(opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	return &Handler{
		reg:         opts.Registry,
		gen:         opts.Generator,
		defs:        opts.Lister,
		gate:        opts.Gate,
		requireAuth: opts.RequireAuth,
		rec:         opts.Recorder,
		log:         opts.Logger.WithComponent("mock"),
	}
}

// ServeParam answers a dynamic route whose path is the *path parameter.
// Callers mount it behind their own gate.
func (h *Handler) ServeParam(c *gin.Context) {
	h.write(c, h.handle(c.Request.Method, paramPath(c)))
}

// Dispatch answers any request by its full path, also accepting the
// documented /hemodilab prefix. With RequireAuth every request goes through
// the gate before lookup; otherwise only definitions flagged auth do.
func (h *Handler) Dispatch(c *gin.Context) {
	if h.requireAuth && !h.authorized(c.Request) {
		unauthorized(c)
		return
	}

	path := c.Request.URL.EscapedPath()
	out := h.handle(c.Request.Method, path)
	if !out.found && strings.HasPrefix(path, openapi.PathPrefix+"/") {
		out = h.handle(c.Request.Method, strings.TrimPrefix(path, openapi.PathPrefix))
	}

	if out.found && out.def.Auth && !h.authorized(c.Request) {
		unauthorized(c)
		return
	}
	h.write(c, out)
}

// outcome is one answered dynamic request.
type outcome struct {
	result response.Result
	def    domain.Definition
	found  bool
}

func (h *Handler) handle(rawMethod, path string) outcome {
	method, ok := domain.ParseMethod(rawMethod)
	if !ok {
		return outcome{result: response.NotFound()}
	}
	result, def, found := h.reg.Handle(method, path)
	return outcome{result: result, def: def, found: found}
}

func (h *Handler) authorized(r *http.Request) bool {
	return h.gate != nil && h.gate.IsAuthorized(r)
}

func (h *Handler) write(c *gin.Context, out outcome) {
	if h.rec != nil {
		if out.found {
			h.rec.DynamicHit(out.def.Entity)
		} else {
			h.rec.DynamicMiss()
		}
	}
	c.Data(out.result.Status, out.result.ContentType, out.result.Body)
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, httpkit.ErrorResponse{Error: "Unauthorized"})
}

// paramPath returns the *path parameter still percent-encoded, the form
// stored URLs are kept in.
func paramPath(c *gin.Context) string {
	prefix := strings.TrimSuffix(c.FullPath(), "/*path")
	escaped := c.Request.URL.EscapedPath()
	if prefix != "" && strings.HasPrefix(escaped, prefix+"/") {
		return strings.TrimPrefix(escaped, prefix)
	}
	return c.Param("path")
}

// SwaggerJSON generates the OpenAPI document from a fresh read of the store.
func (h *Handler) SwaggerJSON(c *gin.Context) {
	body, ok := h.render(c, openapi.MarshalJSON)
	if !ok {
		return
	}
	c.Data(http.StatusOK, response.ContentTypeJSON, body)
}

// SwaggerYAML is SwaggerJSON rendered as YAML.
func (h *Handler) SwaggerYAML(c *gin.Context) {
	body, ok := h.render(c, openapi.MarshalYAML)
	if !ok {
		return
	}
	c.Data(http.StatusOK, contentTypeYAML, body)
}

func (h *Handler) render(c *gin.Context, marshal func(*openapi3.T) ([]byte, error)) ([]byte, bool) {
	defs, err := h.defs.ListAll(c.Request.Context())
	if err != nil {
		h.log.DatabaseError("mock.swagger", err)
		httpkit.Error(c, http.StatusInternalServerError, msgInternal, nil)
		return nil, false
	}

	body, err := marshal(h.gen.Generate(defs))
	if err != nil {
		h.log.Error("render openapi document", "error", err)
		httpkit.Error(c, http.StatusInternalServerError, msgInternal, nil)
		return nil, false
	}
	return body, true
}

// Routes reports the published route table.
func (h *Handler) Routes(c *gin.Context) {
	httpkit.OK(c, h.reg.Snapshot())
}

// Health answers the mock server liveness probe.
func Health(port string) gin.HandlerFunc {
	return func(c *gin.Context) {
		httpkit.OK(c, gin.H{"status": "ok", "port": port})
	}
}
