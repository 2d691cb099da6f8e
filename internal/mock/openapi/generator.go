// Package openapi projects the definition set into an OpenAPI 3 document.
package openapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"hemodilab_backend/internal/definitions/domain"
	"hemodilab_backend/internal/mock/response"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

const (
	// Version is the OpenAPI version written into generated documents.
	Version = "3.0.0"
	// PathPrefix is prepended to every effective path in the document.
	PathPrefix = "/hemodilab"

	title       = "HEMODILAB Mock API"
	apiVersion  = "1.0.0"
	description = "Dynamic API endpoints generated from response_data collection"
)

// Server is a base URL advertised in the document.
type Server struct {
	URL         string
	Description string
}

// Generator builds documents for a fixed server list. It keeps no state
// between calls.
type Generator struct {
	servers []Server
}

// New creates a generator advertising servers in the given order.
func New(servers ...Server) *Generator {
	return &Generator{servers: servers}
}

// Generate builds the document for defs, which must be in store order. When
// two definitions share a path and method, the first one is documented, the
// same one the route registry serves.
func (g *Generator) Generate(defs []domain.Definition) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: Version,
		Info: &openapi3.Info{
			Title:       title,
			Version:     apiVersion,
			Description: description,
		},
		Paths: openapi3.NewPaths(),
	}
	for _, s := range g.servers {
		doc.Servers = append(doc.Servers, &openapi3.Server{URL: s.URL, Description: s.Description})
	}

	for _, def := range defs {
		path := PathPrefix + def.EffectivePath()
		item := doc.Paths.Value(path)
		if item == nil {
			item = &openapi3.PathItem{}
			doc.Paths.Set(path, item)
		}
		if item.GetOperation(string(def.Method)) != nil {
			continue
		}
		item.SetOperation(string(def.Method), operation(def))
	}
	return doc
}

func operation(def domain.Definition) *openapi3.Operation {
	op := openapi3.NewOperation()
	op.Tags = []string{def.Entity}
	op.Summary = def.Description
	op.Description = def.Description
	op.OperationID = fmt.Sprintf("%s_%s", def.Method.Lower(), def.ID)

	if def.Parameters != "" {
		op.RequestBody = &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().
				WithDescription(def.Parameters).
				WithRequired(false).
				WithJSONSchema(openapi3.NewObjectSchema()),
		}
	}

	op.Responses = openapi3.NewResponses(
		openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{
			Value: openapi3.NewResponse().
				WithDescription("Success").
				WithJSONSchema(responseSchema(def.Response)),
		}),
	)
	return op
}

func responseSchema(raw string) *openapi3.Schema {
	if value, ok := response.ParseJSON(raw); ok {
		schema := openapi3.NewObjectSchema()
		schema.Example = value
		return schema
	}
	schema := openapi3.NewStringSchema()
	schema.Example = raw
	return schema
}

// MarshalJSON renders doc as JSON.
func MarshalJSON(doc *openapi3.T) ([]byte, error) {
	return json.Marshal(doc)
}

// MarshalYAML renders doc as block-style YAML, keeping the key order of
// the JSON rendering.
func MarshalYAML(doc *openapi3.T) ([]byte, error) {
	raw, err := MarshalJSON(doc)
	if err != nil {
		return nil, err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("decode openapi json: %w", err)
	}
	blockStyle(&node)
	return yaml.Marshal(&node)
}

func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, child := range n.Content {
		blockStyle(child)
	}
}
