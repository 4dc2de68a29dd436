// Package resolve computes the current member list of a cohort from
// its membership definition. The core never caches the result; each
// pairing round resolves membership fresh so deleted or moved items
// drop out immediately.
package resolve

import (
	"context"
	"strings"
	"sync"

	"github.com/okian/duelo/internal/domain/cohort"
)

// Resolver returns the ordered list of comparable item ids for a
// cohort definition.
type Resolver interface {
	Resolve(ctx context.Context, def cohort.Definition) ([]string, error)
}

// Item is one resolvable record: a stable id plus the metadata the
// scope kinds filter on.
type Item struct {
	ID   string
	Path string
	Tags []string
}

// InMemoryResolver implements Resolver over a host-fed item index.
// The host environment registers items as it discovers them; the
// resolver only filters.
type InMemoryResolver struct {
	mu    sync.RWMutex
	items []Item
	byID  map[string]int
}

// NewInMemoryResolver creates an empty resolver.
func NewInMemoryResolver() *InMemoryResolver {
	return &InMemoryResolver{byID: make(map[string]int)}
}

// Upsert adds an item or replaces its metadata, preserving discovery
// order for existing items.
func (r *InMemoryResolver) Upsert(item Item) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if idx, ok := r.byID[item.ID]; ok {
		r.items[idx] = item
		return
	}
	r.byID[item.ID] = len(r.items)
	r.items = append(r.items, item)
}

// Remove drops an item from the index.
func (r *InMemoryResolver) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.byID[id]
	if !ok {
		return
	}
	r.items = append(r.items[:idx], r.items[idx+1:]...)
	delete(r.byID, id)
	for i := idx; i < len(r.items); i++ {
		r.byID[r.items[i].ID] = i
	}
}

// Resolve filters the index through the definition's scope. The switch
// covers the closed set of scope kinds; a new kind fails to compile
// until it is handled here.
func (r *InMemoryResolver) Resolve(ctx context.Context, def cohort.Definition) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var match func(Item) bool
	switch s := def.Scope.(type) {
	case cohort.AllScope:
		match = func(Item) bool { return true }
	case cohort.PathScope:
		prefix := strings.TrimSuffix(s.Path, "/")
		match = func(it Item) bool {
			return prefix == "" || it.Path == prefix || strings.HasPrefix(it.Path, prefix+"/")
		}
	case cohort.TagScope:
		want := s.Tags
		match = func(it Item) bool { return hasAllTags(it.Tags, want) }
	case cohort.QueryScope:
		q := strings.ToLower(strings.TrimSpace(s.Query))
		match = func(it Item) bool {
			return q == "" || strings.Contains(strings.ToLower(it.Path), q)
		}
	default:
		return nil, cohort.ErrUnknownKind
	}

	out := make([]string, 0, len(r.items))
	for _, it := range r.items {
		if match(it) {
			out = append(out, it.ID)
		}
	}
	return out, nil
}

// hasAllTags reports whether every wanted tag appears on the item,
// comparing case-insensitively and ignoring '#' prefixes.
func hasAllTags(have, want []string) bool {
	set := make(map[string]struct{}, len(have))
	for _, t := range have {
		set[normalizeTag(t)] = struct{}{}
	}
	for _, t := range want {
		if _, ok := set[normalizeTag(t)]; !ok {
			return false
		}
	}
	return true
}

func normalizeTag(t string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(t), "#"))
}
