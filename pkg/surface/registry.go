// Package surface maps surface ids to their commit engines.
//
// The registry is a copy-on-write persistent map published through an atomic
// pointer. Lookups are lock-free and see a consistent set of surfaces;
// registration and removal, which only happen on surface start and teardown,
// are serialized by a mutex and publish a new map version.
package surface

import (
	"cmp"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"src.elv.sh/pkg/persistent/hash"
	"src.elv.sh/pkg/persistent/hashmap"

	"github.com/go-drift/shadowtree/pkg/commit"
	"github.com/go-drift/shadowtree/pkg/errors"
	"github.com/go-drift/shadowtree/pkg/observability"
	"github.com/go-drift/shadowtree/pkg/tree"
)

// Registry holds the commit engine of every live surface.
type Registry struct {
	engines atomic.Pointer[hashmap.Map]
	writeMu sync.Mutex

	logger  zerolog.Logger
	metrics *observability.Metrics
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithMetrics sets the metrics sink for the surface gauge.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{logger: zerolog.Nop()}
	for _, o := range opts {
		o(r)
	}
	empty := hashmap.New(equalSurface, hashSurface)
	r.engines.Store(&empty)
	return r
}

func equalSurface(a, b any) bool {
	return a.(tree.SurfaceID) == b.(tree.SurfaceID)
}

func hashSurface(k any) uint32 {
	return hash.UInt64(uint64(k.(tree.SurfaceID)))
}

func (r *Registry) load() hashmap.Map {
	return *r.engines.Load()
}

// Register adds engine under its surface id. Registering an id twice fails.
func (r *Registry) Register(engine *commit.Engine) error {
	if engine == nil {
		return errors.New("surface.Register", errors.KindInvalidArgument, "nil engine")
	}
	id := engine.SurfaceID()

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	current := r.load()
	if hashmap.HasKey(current, id) {
		return errors.New("surface.Register", errors.KindInvalidArgument, "surface already registered").
			WithSurface(int64(id))
	}
	next := current.Assoc(id, engine)
	r.engines.Store(&next)
	r.metrics.SurfaceRegistered()
	r.logger.Debug().Int64("surface", int64(id)).Msg("surface registered")
	return nil
}

// Unregister removes the surface and returns its engine.
func (r *Registry) Unregister(id tree.SurfaceID) (*commit.Engine, bool) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	current := r.load()
	v, ok := current.Index(id)
	if !ok {
		return nil, false
	}
	next := current.Dissoc(id)
	r.engines.Store(&next)
	r.metrics.SurfaceUnregistered()
	r.logger.Debug().Int64("surface", int64(id)).Msg("surface unregistered")
	return v.(*commit.Engine), true
}

// Get returns the engine for id.
func (r *Registry) Get(id tree.SurfaceID) (*commit.Engine, bool) {
	v, ok := r.load().Index(id)
	if !ok {
		return nil, false
	}
	return v.(*commit.Engine), true
}

// Visit calls fn with the surface's committer if the surface is registered.
// Unknown ids are ignored, which suits fire-and-forget callers racing with
// teardown. Callers that must tell a missing surface apart use VisitOrErr.
func (r *Registry) Visit(id tree.SurfaceID, fn func(commit.Committer)) {
	if e, ok := r.Get(id); ok {
		fn(e)
	}
}

// VisitOrErr is like Visit but reports an unknown id with an error matching
// errors.ErrSurfaceNotFound.
func (r *Registry) VisitOrErr(id tree.SurfaceID, fn func(commit.Committer)) error {
	e, ok := r.Get(id)
	if !ok {
		return errors.New("surface.Visit", errors.KindSurfaceNotFound, "no surface %d", id).
			WithSurface(int64(id))
	}
	fn(e)
	return nil
}

// Len returns the number of registered surfaces.
func (r *Registry) Len() int {
	return r.load().Len()
}

// IDs returns the registered surface ids in ascending order.
func (r *Registry) IDs() []tree.SurfaceID {
	m := r.load()
	ids := make([]tree.SurfaceID, 0, m.Len())
	for it := m.Iterator(); it.HasElem(); it.Next() {
		k, _ := it.Elem()
		ids = append(ids, k.(tree.SurfaceID))
	}
	slices.Sort(ids)
	return ids
}

// Range calls fn for every surface of one consistent registry version, in
// ascending id order, until fn returns false.
func (r *Registry) Range(fn func(commit.Committer) bool) {
	m := r.load()
	engines := make([]*commit.Engine, 0, m.Len())
	for it := m.Iterator(); it.HasElem(); it.Next() {
		_, v := it.Elem()
		engines = append(engines, v.(*commit.Engine))
	}
	slices.SortFunc(engines, func(a, b *commit.Engine) int {
		return cmp.Compare(a.SurfaceID(), b.SurfaceID())
	})
	for _, e := range engines {
		if !fn(e) {
			return
		}
	}
}
