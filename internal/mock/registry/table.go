package registry

import (
	"time"

	"hemodilab_backend/internal/definitions/domain"

	"github.com/google/uuid"
)

// Table is an immutable route table built from one definition listing.
type Table struct {
	generation uint64
	builtAt    time.Time
	routes     map[domain.RouteKey]domain.Definition
	order      []domain.RouteKey
	shadowed   []Shadowed
}

// Shadowed records a definition hidden by an earlier one on the same route.
type Shadowed struct {
	ID       uuid.UUID `json:"id"`
	Method   string    `json:"method"`
	Path     string    `json:"path"`
	WinnerID uuid.UUID `json:"winnerId"`
}

// Route describes one entry of a table for diagnostics.
type Route struct {
	Method      string    `json:"method"`
	Path        string    `json:"path"`
	Entity      string    `json:"entity"`
	Description string    `json:"description"`
	Auth        bool      `json:"auth"`
	ID          uuid.UUID `json:"id"`
}

// Snapshot is the diagnostic view of the published table.
type Snapshot struct {
	Generation uint64     `json:"generation"`
	BuiltAt    time.Time  `json:"builtAt"`
	Routes     []Route    `json:"routes"`
	Shadowed   []Shadowed `json:"shadowed"`
}

// NewTable builds a table from defs in store order. The first definition
// for a (method, path) pair wins, as in Match.
func NewTable(generation uint64, defs []domain.Definition) *Table {
	t := &Table{
		generation: generation,
		builtAt:    time.Now(),
		routes:     make(map[domain.RouteKey]domain.Definition, len(defs)),
		order:      make([]domain.RouteKey, 0, len(defs)),
	}

	for _, def := range defs {
		key := def.Key()
		if winner, taken := t.routes[key]; taken {
			t.shadowed = append(t.shadowed, Shadowed{
				ID:       def.ID,
				Method:   string(key.Method),
				Path:     key.Path,
				WinnerID: winner.ID,
			})
			continue
		}
		t.routes[key] = def
		t.order = append(t.order, key)
	}
	return t
}

// Lookup returns the definition serving (method, path).
func (t *Table) Lookup(method domain.Method, path string) (domain.Definition, bool) {
	def, ok := t.routes[domain.RouteKey{Method: method, Path: path}]
	return def, ok
}

// Generation is the rebuild counter the table was published under.
func (t *Table) Generation() uint64 { return t.generation }

// Len is the number of routes.
func (t *Table) Len() int { return len(t.order) }

// Snapshot renders the table for diagnostics.
func (t *Table) Snapshot() Snapshot {
	routes := make([]Route, 0, len(t.order))
	for _, key := range t.order {
		def := t.routes[key]
		routes = append(routes, Route{
			Method:      string(key.Method),
			Path:        key.Path,
			Entity:      def.Entity,
			Description: def.Description,
			Auth:        def.Auth,
			ID:          def.ID,
		})
	}
	shadowed := append([]Shadowed{}, t.shadowed...)
	return Snapshot{
		Generation: t.generation,
		BuiltAt:    t.builtAt,
		Routes:     routes,
		Shadowed:   shadowed,
	}
}
