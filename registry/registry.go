// Package registry maps pool names to session pools and activates them
// lazily on first use. It is deliberately thin bookkeeping around the
// pool package.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/richardm90/rm-mapepire-go/errs"
	"github.com/richardm90/rm-mapepire-go/pool"
)

// DefaultMaxPools bounds how many pools may be registered at once.
const DefaultMaxPools = 8

// ErrNotRegistered is returned when a pool name is not known to the registry
var ErrNotRegistered = errors.New("pool not registered")

type entry struct {
	pool    *pool.SessionPool
	once    sync.Once
	initErr error
}

// Registry holds named pools, bounded to a small fixed number.
type Registry struct {
	mu    sync.RWMutex
	max   int
	pools map[string]*entry
}

// New builds a registry capped at maxPools; zero means DefaultMaxPools.
func New(maxPools int) *Registry {
	if maxPools <= 0 {
		maxPools = DefaultMaxPools
	}
	return &Registry{
		max:   maxPools,
		pools: make(map[string]*entry),
	}
}

// Register adds a pool without initializing it. Duplicate names and
// registrations past the capacity are rejected, never silently dropped.
func (r *Registry) Register(p *pool.SessionPool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.pools[p.Name()]; exists {
		return errs.NewDuplicatePoolErr(fmt.Sprintf("pool %s already registered", p.Name()))
	}
	if len(r.pools) >= r.max {
		return errs.NewRegistryFullErr(fmt.Sprintf(
			"registry full: %d pools registered, max %d", len(r.pools), r.max))
	}

	r.pools[p.Name()] = &entry{pool: p}
	return nil
}

// Get returns the named pool, initializing it on first request. A failed
// activation is not cached as permanent: the entry is re-registered so a
// later Get can retry.
func (r *Registry) Get(name string) (*pool.SessionPool, error) {
	r.mu.RLock()
	e, ok := r.pools[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}

	e.once.Do(func() {
		e.initErr = e.pool.Init()
	})
	if e.initErr != nil {
		err := e.initErr
		r.mu.Lock()
		if r.pools[name] == e {
			r.pools[name] = &entry{pool: e.pool}
		}
		r.mu.Unlock()
		return nil, err
	}

	return e.pool, nil
}

// Names returns the registered pool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.pools))
	for name := range r.pools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the current number of registered pools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pools)
}

// RetireAll retires every connection of every registered pool and
// removes the pools, reporting one aggregate failure at the end.
func (r *Registry) RetireAll() error {
	r.mu.Lock()
	pools := make([]*pool.SessionPool, 0, len(r.pools))
	for _, e := range r.pools {
		pools = append(pools, e.pool)
	}
	r.pools = make(map[string]*entry)
	r.mu.Unlock()

	var failures []error
	for _, p := range pools {
		if err := p.RetireAll(); err != nil {
			failures = append(failures, err)
		}
	}
	if len(failures) > 0 {
		return errs.NewAggregateErr(failures)
	}
	return nil
}
