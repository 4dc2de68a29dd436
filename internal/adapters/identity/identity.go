// Package identity assigns stable string ids to items. Ratings are
// keyed by these ids, so an item keeps its history even when its
// display name or location changes.
package identity

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Assigner returns a stable id for an item, creating one if absent.
// Implementations must be idempotent and collision-free within a
// cohort's lifetime.
type Assigner interface {
	IdentityOf(ctx context.Context, item string) string
}

// Registry implements Assigner with an in-memory mapping and UUID
// minting. Known mappings can be seeded at construction so ids survive
// process restarts when the host persists them.
type Registry struct {
	mu    sync.Mutex
	ids   map[string]string
	newID func() string
}

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithSeed preloads known item-to-id mappings.
func WithSeed(ids map[string]string) Option {
	return func(r *Registry) {
		for item, id := range ids {
			r.ids[item] = id
		}
	}
}

// WithIDFunc overrides id minting, e.g. for deterministic tests.
func WithIDFunc(f func() string) Option {
	return func(r *Registry) {
		if f != nil {
			r.newID = f
		}
	}
}

// NewRegistry creates a Registry with configuration options.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		ids:   make(map[string]string),
		newID: uuid.NewString,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// IdentityOf returns the item's stable id, minting and remembering one
// on first sight.
func (r *Registry) IdentityOf(ctx context.Context, item string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.ids[item]; ok {
		return id
	}
	id := r.newID()
	r.ids[item] = id
	return id
}

// Known returns a copy of all current mappings, for hosts that persist
// them.
func (r *Registry) Known() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]string, len(r.ids))
	for item, id := range r.ids {
		out[item] = id
	}
	return out
}
