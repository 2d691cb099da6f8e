// Package registry keeps the live table of dynamic routes. Tables are built
// from the definition store off to the side and published with a single
// atomic pointer store, so request handlers never observe a partial rebuild
// and never take a lock.
package registry

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"hemodilab_backend/internal/definitions/domain"
	"hemodilab_backend/internal/mock/response"
	"hemodilab_backend/platform/logger"
)

// DefaultInterval is the periodic rebuild interval.
const DefaultInterval = 30 * time.Second

// DefaultTimeout bounds one definition listing.
const DefaultTimeout = 5 * time.Second

// Source lists every definition in store order.
type Source interface {
	ListAll(ctx context.Context) ([]domain.Definition, error)
}

// Observer is told about every rebuild outcome.
type Observer interface {
	RebuildSucceeded(generation uint64, routes, shadowed int, took time.Duration)
	RebuildFailed(took time.Duration)
}

// Options configures a Registry.
type Options struct {
	Timeout  time.Duration
	Logger   *logger.Logger
	Observer Observer
}

// Registry owns the published route table.
type Registry struct {
	source   Source
	timeout  time.Duration
	log      *logger.Logger
	observer Observer

	table atomic.Pointer[Table]

	// rebuildMu orders rebuilds so generations publish monotonically.
	rebuildMu  sync.Mutex
	generation uint64

	trigger chan struct{}
}

// New creates a registry with an empty table published.
func New(source Source, opts Options) *Registry {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}

	r := &Registry{
		source:   source,
		timeout:  opts.Timeout,
		log:      opts.Logger.WithComponent("registry"),
		observer: opts.Observer,
		trigger:  make(chan struct{}, 1),
	}
	r.table.Store(NewTable(0, nil))
	return r
}

// Rebuild lists the definitions and publishes a fresh table. On failure the
// previously published table stays in place.
func (r *Registry) Rebuild(ctx context.Context) error {
	r.rebuildMu.Lock()
	defer r.rebuildMu.Unlock()

	start := time.Now()
	listCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defs, err := r.source.ListAll(listCtx)
	cancel()

	if err == nil && errors.Is(listCtx.Err(), context.DeadlineExceeded) {
		err = listCtx.Err()
	}
	if err != nil {
		r.log.RouteTableRebuildFailed(r.generation, err)
		if r.observer != nil {
			r.observer.RebuildFailed(time.Since(start))
		}
		return err
	}

	r.generation++
	table := NewTable(r.generation, defs)
	r.table.Store(table)

	took := time.Since(start)
	r.log.RouteTableRebuilt(table.generation, table.Len(), len(table.shadowed), float64(took.Milliseconds()))
	for _, s := range table.shadowed {
		r.log.Warn("definition shadowed by earlier route",
			"id", s.ID, "method", s.Method, "path", s.Path, "winner_id", s.WinnerID)
	}
	if r.observer != nil {
		r.observer.RebuildSucceeded(table.generation, table.Len(), len(table.shadowed), took)
	}
	return nil
}

// Current returns the published table.
func (r *Registry) Current() *Table {
	return r.table.Load()
}

// Lookup finds the definition serving (method, path) in the published table.
func (r *Registry) Lookup(method domain.Method, path string) (domain.Definition, bool) {
	return r.Current().Lookup(method, path)
}

// Handle answers (method, path) from the published table and reports the
// definition that served it. A miss answers the fixed 404 result.
func (r *Registry) Handle(method domain.Method, path string) (response.Result, domain.Definition, bool) {
	def, ok := r.Lookup(method, path)
	if !ok {
		return response.NotFound(), domain.Definition{}, false
	}
	return response.Synthesize(def), def, true
}

// Snapshot describes the published table.
func (r *Registry) Snapshot() Snapshot {
	return r.Current().Snapshot()
}

// Trigger requests a rebuild from the running loop. Requests made while one
// is already pending are merged.
func (r *Registry) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Run rebuilds immediately, then on every tick of interval and on every
// Trigger, until ctx is cancelled. Rebuild failures are logged and do not
// stop the loop.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	_ = r.Rebuild(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_ = r.Rebuild(ctx)
		case <-r.trigger:
			_ = r.Rebuild(ctx)
		}
	}
}

// Start runs the rebuild loop in the background.
func (r *Registry) Start(ctx context.Context, interval time.Duration) {
	go func() { _ = r.Run(ctx, interval) }()
}
