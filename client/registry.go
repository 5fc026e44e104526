package client

import (
	"sync"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/graphdash/sparqlkit/cache"
	"github.com/graphdash/sparqlkit/flight"
	"github.com/graphdash/sparqlkit/instance"
	"github.com/graphdash/sparqlkit/metrics"
)

// Options configures a Registry and is shared by every client it builds.
type Options struct {
	// Cache is the shared result store. If nil, a default store is
	// created (memory-only unless configured with durable storage).
	Cache *cache.Store

	TracerProvider trace.TracerProvider
	Recorder       *metrics.Recorder
	Logger         *zap.Logger
}

// Registry owns the shared cache and in-flight registry and one Client
// per configured instance. Safe for concurrent use.
type Registry struct {
	opts    Options
	flights *flight.Registry

	mu      sync.RWMutex
	configs map[string]instance.Instance
	clients map[string]*Client
}

// NewRegistry builds clients for the given instances over one shared
// cache and one shared in-flight registry.
func NewRegistry(opts Options, instances map[string]instance.Instance) *Registry {
	if opts.Cache == nil {
		opts.Cache = cache.NewStore(cache.Config{})
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	r := &Registry{
		opts:    opts,
		flights: &flight.Registry{},
		configs: make(map[string]instance.Instance),
		clients: make(map[string]*Client),
	}
	r.Update(instances)
	return r
}

// Client returns the client serving the given instance id.
func (r *Registry) Client(id string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[id]
	return c, ok
}

// Update replaces the instance set, rebuilding clients whose definition
// changed and dropping removed ones. Cached results for changed or
// removed instances are invalidated: a different endpoint or auth setup
// makes previously fetched results unreliable.
func (r *Registry) Update(instances map[string]instance.Instance) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make(map[string]*Client, len(instances))
	nextCfg := make(map[string]instance.Instance, len(instances))

	for id, in := range instances {
		in.ID = id
		in = in.Normalize()
		nextCfg[id] = in

		if prev, ok := r.configs[id]; ok && prev == in {
			next[id] = r.clients[id]
			continue
		}
		if _, existed := r.configs[id]; existed {
			r.invalidateLocked(id)
			r.opts.Logger.Info("client: instance definition changed, cache invalidated",
				zap.String("instance", id))
		}
		next[id] = New(Config{
			Instance:       in,
			Cache:          r.opts.Cache,
			Flights:        r.flights,
			TracerProvider: r.opts.TracerProvider,
			Recorder:       r.opts.Recorder,
			Logger:         r.opts.Logger,
		})
	}

	for id := range r.configs {
		if _, kept := nextCfg[id]; !kept {
			r.invalidateLocked(id)
		}
	}

	r.configs = nextCfg
	r.clients = next
}

func (r *Registry) invalidateLocked(id string) {
	removed := r.opts.Cache.InvalidateInstance(id)
	r.opts.Recorder.ObserveInvalidation(id, removed)
}

// InvalidateInstance removes all cached results for one instance.
func (r *Registry) InvalidateInstance(id string) int {
	removed := r.opts.Cache.InvalidateInstance(id)
	r.opts.Recorder.ObserveInvalidation(id, removed)
	return removed
}

// Clear empties the shared result store and its persisted snapshot.
func (r *Registry) Clear() { r.opts.Cache.Clear() }

// Stats reports the shared result store's shape.
func (r *Registry) Stats() cache.Stats { return r.opts.Cache.Stats() }

// IDs lists the configured instance ids.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	return ids
}
