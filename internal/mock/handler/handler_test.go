package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"hemodilab_backend/internal/definitions/domain"
	"hemodilab_backend/internal/mock/openapi"
	"hemodilab_backend/internal/mock/registry"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeStore struct {
	mu   sync.Mutex
	defs []domain.Definition
	err  error
}

func (f *fakeStore) ListAll(context.Context) ([]domain.Definition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Definition(nil), f.defs...), f.err
}

type allowGate struct{ allow bool }

func (g allowGate) IsAuthorized(*http.Request) bool { return g.allow }

type countingRecorder struct {
	hits   map[string]int
	misses int
}

func (r *countingRecorder) DynamicHit(entity string) { r.hits[entity]++ }
func (r *countingRecorder) DynamicMiss()             { r.misses++ }

func def(entity string, method domain.Method, url, body string, auth bool) domain.Definition {
	return domain.Definition{
		ID:          uuid.New(),
		Entity:      entity,
		Description: entity + " " + string(method),
		Method:      method,
		URL:         url,
		Response:    body,
		Auth:        auth,
	}
}

func newHandler(t *testing.T, store *fakeStore, opts Options) *Handler {
	t.Helper()
	reg := registry.New(store, registry.Options{})
	if err := reg.Rebuild(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	opts.Registry = reg
	opts.Lister = store
	opts.Generator = openapi.New(openapi.Server{URL: "http://localhost:60341", Description: "mock"})
	return New(opts)
}

func dispatchRouter(h *Handler) *gin.Engine {
	engine := gin.New()
	engine.GET("/swagger.json", h.SwaggerJSON)
	engine.GET("/swagger.yaml", h.SwaggerYAML)
	engine.GET("/routes", h.Routes)
	engine.NoRoute(h.Dispatch)
	return engine
}

func serve(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestDispatchServesEffectiveAndPrefixedPaths(t *testing.T) {
	store := &fakeStore{defs: []domain.Definition{
		def("Patients", domain.MethodGet, "", `{"patients":[1,2]}`, false),
		def("Machines", domain.MethodPost, "machines/status", "running", false),
	}}
	rec := &countingRecorder{hits: map[string]int{}}
	engine := dispatchRouter(newHandler(t, store, Options{Recorder: rec}))

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/api/patients", nil))
	if w.Code != http.StatusOK || w.Body.String() != `{"patients":[1,2]}` {
		t.Fatalf("unexpected response %d %s", w.Code, w.Body.String())
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		t.Fatalf("expected JSON content type, got %q", w.Header().Get("Content-Type"))
	}

	w = serve(engine, httptest.NewRequest(http.MethodPost, "/hemodilab/machines/status", nil))
	if w.Code != http.StatusOK || w.Body.String() != "running" {
		t.Fatalf("unexpected prefixed response %d %s", w.Code, w.Body.String())
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("expected text content type, got %q", w.Header().Get("Content-Type"))
	}

	if rec.hits["Patients"] != 1 || rec.hits["Machines"] != 1 {
		t.Fatalf("unexpected hit counts %v", rec.hits)
	}
}

func TestDispatchMisses(t *testing.T) {
	store := &fakeStore{defs: []domain.Definition{def("Patients", domain.MethodGet, "", `{}`, false)}}
	rec := &countingRecorder{hits: map[string]int{}}
	engine := dispatchRouter(newHandler(t, store, Options{Recorder: rec}))

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodPost, "/api/patients", nil),
		httptest.NewRequest(http.MethodPatch, "/api/patients", nil),
		httptest.NewRequest(http.MethodGet, "/api/patients/", nil),
		httptest.NewRequest(http.MethodGet, "/api/Patients", nil),
	} {
		w := serve(engine, req)
		if w.Code != http.StatusNotFound || w.Body.String() != `{"error":"Endpoint not found"}` {
			t.Fatalf("%s %s: unexpected response %d %s", req.Method, req.URL.Path, w.Code, w.Body.String())
		}
	}
	if rec.misses != 4 {
		t.Fatalf("expected 4 misses, got %d", rec.misses)
	}
}

func TestDispatchAuthFlag(t *testing.T) {
	store := &fakeStore{defs: []domain.Definition{
		def("Patients", domain.MethodGet, "/secret", `{"ok":true}`, true),
		def("Patients", domain.MethodGet, "/open", `{"ok":true}`, false),
	}}

	denied := dispatchRouter(newHandler(t, store, Options{Gate: allowGate{allow: false}}))
	if w := serve(denied, httptest.NewRequest(http.MethodGet, "/secret", nil)); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for auth-flagged route, got %d", w.Code)
	}
	if w := serve(denied, httptest.NewRequest(http.MethodGet, "/open", nil)); w.Code != http.StatusOK {
		t.Fatalf("expected open route to stay public, got %d", w.Code)
	}

	allowed := dispatchRouter(newHandler(t, store, Options{Gate: allowGate{allow: true}}))
	if w := serve(allowed, httptest.NewRequest(http.MethodGet, "/secret", nil)); w.Code != http.StatusOK {
		t.Fatalf("expected authorized request to pass, got %d", w.Code)
	}

	strict := dispatchRouter(newHandler(t, store, Options{Gate: allowGate{allow: false}, RequireAuth: true}))
	if w := serve(strict, httptest.NewRequest(http.MethodGet, "/open", nil)); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected RequireAuth to gate every route, got %d", w.Code)
	}

	noGate := dispatchRouter(newHandler(t, store, Options{}))
	if w := serve(noGate, httptest.NewRequest(http.MethodGet, "/secret", nil)); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected missing gate to deny, got %d", w.Code)
	}
}

func TestDispatchRequireAuthDeniesBeforeLookup(t *testing.T) {
	store := &fakeStore{defs: []domain.Definition{def("Patients", domain.MethodGet, "/open", `{}`, false)}}
	rec := &countingRecorder{hits: map[string]int{}}
	engine := dispatchRouter(newHandler(t, store, Options{Gate: allowGate{allow: false}, RequireAuth: true, Recorder: rec}))

	for _, path := range []string{"/does-not-exist", "/open", "/hemodilab/open"} {
		w := serve(engine, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusUnauthorized || !strings.Contains(w.Body.String(), "Unauthorized") {
			t.Fatalf("%s: expected 401, got %d %s", path, w.Code, w.Body.String())
		}
	}
	if rec.misses != 0 || len(rec.hits) != 0 {
		t.Fatalf("denied requests must not be counted, got hits=%v misses=%d", rec.hits, rec.misses)
	}

	allowed := dispatchRouter(newHandler(t, store, Options{Gate: allowGate{allow: true}, RequireAuth: true}))
	if w := serve(allowed, httptest.NewRequest(http.MethodGet, "/does-not-exist", nil)); w.Code != http.StatusNotFound {
		t.Fatalf("expected authorized miss to be 404, got %d", w.Code)
	}
}

func TestDispatchMatchesEncodedPath(t *testing.T) {
	store := &fakeStore{defs: []domain.Definition{def("LabResults", domain.MethodGet, "/a%20b", `{"encoded":true}`, false)}}
	h := newHandler(t, store, Options{})
	engine := dispatchRouter(h)

	for _, path := range []string{"/a%20b", "/hemodilab/a%20b"} {
		if w := serve(engine, httptest.NewRequest(http.MethodGet, path, nil)); w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d %s", path, w.Code, w.Body.String())
		}
	}

	param := gin.New()
	param.Any("/api/hemodilab/*path", h.ServeParam)
	if w := serve(param, httptest.NewRequest(http.MethodGet, "/api/hemodilab/a%20b", nil)); w.Code != http.StatusOK {
		t.Fatalf("expected 200 through the path parameter, got %d %s", w.Code, w.Body.String())
	}
}

func TestServeParam(t *testing.T) {
	store := &fakeStore{defs: []domain.Definition{def("Sessions", domain.MethodDelete, "/sessions/1", `{"deleted":true}`, false)}}
	h := newHandler(t, store, Options{})

	engine := gin.New()
	engine.Any("/api/hemodilab/*path", h.ServeParam)

	if w := serve(engine, httptest.NewRequest(http.MethodDelete, "/api/hemodilab/sessions/1", nil)); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w := serve(engine, httptest.NewRequest(http.MethodGet, "/api/hemodilab/sessions/1", nil)); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for other method, got %d", w.Code)
	}
}

func TestSwaggerReadsStoreOnEveryRequest(t *testing.T) {
	store := &fakeStore{}
	engine := dispatchRouter(newHandler(t, store, Options{}))

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/swagger.json", nil))
	var doc struct {
		OpenAPI string                    `json:"openapi"`
		Paths   map[string]map[string]any `json:"paths"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.OpenAPI != "3.0.0" || len(doc.Paths) != 0 {
		t.Fatalf("expected empty document, got %+v", doc)
	}

	store.mu.Lock()
	store.defs = []domain.Definition{def("Treatments", domain.MethodPut, "", `{}`, false)}
	store.mu.Unlock()

	w = serve(engine, httptest.NewRequest(http.MethodGet, "/swagger.json", nil))
	doc.Paths = nil
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := doc.Paths["/hemodilab/api/treatments"]["put"]; !ok {
		t.Fatalf("expected new definition in document, got %v", doc.Paths)
	}

	w = serve(engine, httptest.NewRequest(http.MethodGet, "/swagger.yaml", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "/hemodilab/api/treatments:") {
		t.Fatalf("unexpected yaml %d %s", w.Code, w.Body.String())
	}
}

func TestSwaggerStoreFailure(t *testing.T) {
	store := &fakeStore{}
	engine := dispatchRouter(newHandler(t, store, Options{}))
	store.err = errors.New("connection refused")

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/swagger.json", nil))
	if w.Code != http.StatusInternalServerError || strings.Contains(w.Body.String(), "connection refused") {
		t.Fatalf("unexpected response %d %s", w.Code, w.Body.String())
	}
}

func TestRoutesSnapshot(t *testing.T) {
	store := &fakeStore{defs: []domain.Definition{
		def("Patients", domain.MethodGet, "", `{}`, false),
		def("Patients", domain.MethodGet, "", `{"dup":true}`, false),
	}}
	engine := dispatchRouter(newHandler(t, store, Options{}))

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/routes", nil))
	var snap registry.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Generation != 1 || len(snap.Routes) != 1 || len(snap.Shadowed) != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}
