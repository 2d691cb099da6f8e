package mock

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hemodilab_backend/internal/definitions/domain"
	"hemodilab_backend/internal/events"
	"hemodilab_backend/internal/mock/handler"
	"hemodilab_backend/internal/mock/openapi"
	"hemodilab_backend/internal/mock/registry"
	"hemodilab_backend/platform/logger"
	"hemodilab_backend/platform/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticStore struct{ defs []domain.Definition }

func (s staticStore) ListAll(context.Context) ([]domain.Definition, error) { return s.defs, nil }

func newHandler(store staticStore) (*handler.Handler, *registry.Registry) {
	reg := registry.New(store, registry.Options{})
	return handler.New(handler.Options{
		Registry:  reg,
		Generator: openapi.New(),
		Lister:    store,
	}), reg
}

func TestDefinitionChangeTriggersRebuild(t *testing.T) {
	store := staticStore{}
	reg := registry.New(store, registry.Options{})
	module := NewModule(handler.Options{Registry: reg, Generator: openapi.New(), Lister: store})

	bus := events.NewInMemoryBus(logger.Discard())
	module.RegisterHandlers(bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = reg.Run(ctx, time.Hour) }()

	waitForGeneration(t, reg, 1)

	err := bus.PublishSync(ctx, events.DefinitionsChanged{
		BaseEvent:    events.NewBaseEvent(),
		DefinitionID: uuid.New(),
		Kind:         events.DefinitionCreated,
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	waitForGeneration(t, reg, 2)
}

func waitForGeneration(t *testing.T, reg *registry.Registry, want uint64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for reg.Current().Generation() < want {
		if time.Now().After(deadline) {
			t.Fatalf("generation %d never published, at %d", want, reg.Current().Generation())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestServerHealthAndCORS(t *testing.T) {
	h, _ := newHandler(staticStore{})
	engine := NewServer(h, ServerOptions{Addr: ":60341", Logger: logger.Discard(), Metrics: metrics.NewCollector()})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || w.Body.String() != `{"port":"60341","status":"ok"}` {
		t.Fatalf("unexpected health %d %s", w.Code, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodOptions, "/api/patients", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("expected localhost origin to be allowed, got %q", w.Header().Get("Access-Control-Allow-Origin"))
	}
	if w.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatal("expected credentials to be allowed")
	}
}

func TestServerDispatchesDynamicRoutes(t *testing.T) {
	store := staticStore{defs: []domain.Definition{{
		ID:          uuid.New(),
		Entity:      "LabResults",
		Description: "lab results",
		Method:      domain.MethodGet,
		Response:    `[{"hb":11.2}]`,
	}}}
	h, reg := newHandler(store)
	if err := reg.Rebuild(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	engine := NewServer(h, ServerOptions{Addr: ":0", Logger: logger.Discard()})

	for _, path := range []string{"/api/labresults", "/hemodilab/api/labresults"} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK || w.Body.String() != `[{"hb":11.2}]` {
			t.Fatalf("%s: unexpected response %d %s", path, w.Code, w.Body.String())
		}
	}
}

func TestServerServesTrailingSlashDefinition(t *testing.T) {
	store := staticStore{defs: []domain.Definition{{
		ID:       uuid.New(),
		Entity:   "Machines",
		Method:   domain.MethodGet,
		URL:      "/routes/",
		Response: `{"dynamic":true}`,
	}}}
	h, reg := newHandler(store)
	if err := reg.Rebuild(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	engine := NewServer(h, ServerOptions{Addr: ":0", Logger: logger.Discard()})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/routes/", nil))
	if w.Code != http.StatusOK || w.Body.String() != `{"dynamic":true}` {
		t.Fatalf("expected definition at /routes/, got %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/routes", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"/routes/"`) {
		t.Fatalf("expected static routes snapshot, got %d %s", w.Code, w.Body.String())
	}
}

func TestPort(t *testing.T) {
	cases := map[string]string{
		":60341":         "60341",
		"localhost:8080": "8080",
		"0.0.0.0:1":      "1",
	}
	for addr, want := range cases {
		if got := port(addr); got != want {
			t.Fatalf("port(%q): expected %q, got %q", addr, want, got)
		}
	}
}
