// Package domain holds the endpoint definition model shared by the admin
// store, the route registry and the OpenAPI generator.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Method is the HTTP verb a definition answers to.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
)

// Methods lists every supported verb in display order.
var Methods = []Method{MethodGet, MethodPost, MethodPut, MethodDelete}

// ParseMethod accepts a verb in any case. Unsupported verbs return false.
func ParseMethod(raw string) (Method, bool) {
	m := Method(strings.ToUpper(strings.TrimSpace(raw)))
	return m, m.Valid()
}

// Valid reports whether m is one of the supported verbs.
func (m Method) Valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodDelete:
		return true
	default:
		return false
	}
}

// Lower returns the verb in lowercase, as used for OpenAPI operation keys.
func (m Method) Lower() string {
	return strings.ToLower(string(m))
}

func (m Method) String() string { return string(m) }

// Definition is one mock endpoint: where it lives and what it answers.
type Definition struct {
	ID          uuid.UUID
	Entity      string
	Description string
	Method      Method
	Parameters  string
	Response    string
	Auth        bool
	URL         string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RouteKey identifies a dynamic route.
type RouteKey struct {
	Method Method
	Path   string
}

// NormalizeURL trims surrounding whitespace and makes the path absolute.
// It does not fold case, strip trailing slashes or decode escapes.
func NormalizeURL(raw string) string {
	if raw == "" {
		return ""
	}
	normalized := strings.TrimSpace(raw)
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	return normalized
}

// FallbackPath is the path used for an entity when no URL is set.
func FallbackPath(entity string) string {
	return "/api/" + strings.ToLower(entity)
}

// EffectivePath is the path the definition is served at.
func (d Definition) EffectivePath() string {
	if d.URL == "" {
		return NormalizeURL(FallbackPath(d.Entity))
	}
	return NormalizeURL(d.URL)
}

// Key returns the (method, effective path) pair the definition occupies.
func (d Definition) Key() RouteKey {
	return RouteKey{Method: d.Method, Path: d.EffectivePath()}
}
