// Package response turns a stored definition into the HTTP answer served
// for it.
package response

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"hemodilab_backend/internal/definitions/domain"

	"github.com/tidwall/gjson"
)

const (
	ContentTypeJSON = "application/json; charset=utf-8"
	ContentTypeText = "text/plain; charset=utf-8"

	msgEndpointNotFound = "Endpoint not found"
)

// Result is a fully rendered dynamic response.
type Result struct {
	Status      int
	ContentType string
	Body        []byte
	// JSON reports whether the stored response parsed as JSON.
	JSON bool
	// Value is the decoded JSON document (numbers as json.Number), or the
	// raw string when JSON is false.
	Value any
}

// Synthesize renders def.Response. A response that parses as JSON is served
// as JSON; anything else is served verbatim as text. The status is always 200.
func Synthesize(def domain.Definition) Result {
	if value, body, ok := parseJSON(def.Response); ok {
		return Result{
			Status:      http.StatusOK,
			ContentType: ContentTypeJSON,
			Body:        body,
			JSON:        true,
			Value:       value,
		}
	}

	return Result{
		Status:      http.StatusOK,
		ContentType: ContentTypeText,
		Body:        []byte(def.Response),
		Value:       def.Response,
	}
}

// NotFound is the result for a request no definition answers.
func NotFound() Result {
	body, _ := json.Marshal(map[string]string{"error": msgEndpointNotFound})
	return Result{
		Status:      http.StatusNotFound,
		ContentType: ContentTypeJSON,
		Body:        body,
		JSON:        true,
	}
}

// ParseJSON reports whether raw is a JSON document and returns it decoded.
func ParseJSON(raw string) (any, bool) {
	value, _, ok := parseJSON(raw)
	return value, ok
}

func parseJSON(raw string) (any, []byte, bool) {
	if strings.TrimSpace(raw) == "" || !gjson.Valid(raw) {
		return nil, nil, false
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, nil, false
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, []byte(raw)); err != nil {
		return nil, nil, false
	}
	return value, compact.Bytes(), true
}
