// Package cohort defines how a comparison cohort's membership is
// described and how structurally identical descriptions collapse onto
// one canonical key.
//
// Membership shapes are a closed set of scope kinds. Each kind is its
// own type so resolution, key generation, and display handling are all
// forced to account for every kind; there is no open "params" bag.
package cohort

import (
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"
)

// Scope kind tags as persisted in saved data.
const (
	KindAll   = "all"
	KindPath  = "path"
	KindTags  = "tags"
	KindQuery = "query"
)

// Scope describes one way of computing cohort membership.
type Scope interface {
	// Kind returns the persisted kind tag.
	Kind() string

	// CanonicalKey returns a deterministic serialization of the scope.
	// Structurally identical scopes always yield the same key, no
	// matter what order their parameters were discovered in.
	CanonicalKey() string

	// Display returns a human-readable description of the scope.
	Display() string
}

// AllScope covers every known item.
type AllScope struct{}

func (AllScope) Kind() string         { return KindAll }
func (AllScope) CanonicalKey() string { return KindAll }
func (AllScope) Display() string      { return "all items" }

// PathScope covers items located under a path prefix.
type PathScope struct {
	Path string
}

func (s PathScope) Kind() string { return KindPath }

func (s PathScope) CanonicalKey() string {
	return KindPath + ":" + normalizePath(s.Path)
}

func (s PathScope) Display() string {
	return "items under " + normalizePath(s.Path)
}

// TagScope covers items carrying every listed tag.
type TagScope struct {
	Tags []string
}

func (s TagScope) Kind() string { return KindTags }

func (s TagScope) CanonicalKey() string {
	return KindTags + ":" + strings.Join(normalizeTags(s.Tags), ",")
}

func (s TagScope) Display() string {
	return "items tagged " + strings.Join(normalizeTags(s.Tags), ", ")
}

// QueryScope covers items matching a free-form query string.
type QueryScope struct {
	Query string
}

func (s QueryScope) Kind() string { return KindQuery }

func (s QueryScope) CanonicalKey() string {
	return KindQuery + ":" + normalizeQuery(s.Query)
}

func (s QueryScope) Display() string {
	return "items matching " + strings.TrimSpace(s.Query)
}

// normalizePath cleans the path and strips any trailing separator so
// "notes/work/" and "notes/work" collapse onto one key.
func normalizePath(p string) string {
	cleaned := path.Clean(strings.ReplaceAll(p, "\\", "/"))
	if cleaned == "." || cleaned == "/" {
		return ""
	}
	return strings.Trim(cleaned, "/")
}

// normalizeTags lowercases, strips leading '#', deduplicates, and
// sorts so tag order never changes the key.
func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(t), "#"))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// normalizeQuery collapses runs of whitespace.
func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(q), " ")
}

// Definition ties a membership scope to its display label and optional
// per-cohort overrides. Overrides are owned by an external collaborator
// and round-tripped opaquely.
type Definition struct {
	Scope     Scope
	Label     string
	Overrides json.RawMessage
	UpdatedAt time.Time
}

// Key returns the canonical cohort key for this definition.
func (d Definition) Key() string {
	return d.Scope.CanonicalKey()
}

// definitionJSON is the persisted wire shape of a Definition. One flat
// struct with a kind tag keeps the saved format stable while the Go
// side stays a closed union.
type definitionJSON struct {
	Kind      string          `json:"kind"`
	Path      string          `json:"path,omitempty"`
	Tags      []string        `json:"tags,omitempty"`
	Query     string          `json:"query,omitempty"`
	Label     string          `json:"label,omitempty"`
	Overrides json.RawMessage `json:"overrides,omitempty"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// MarshalJSON implements json.Marshaler.
func (d Definition) MarshalJSON() ([]byte, error) {
	w := definitionJSON{
		Kind:      d.Scope.Kind(),
		Label:     d.Label,
		Overrides: d.Overrides,
		UpdatedAt: d.UpdatedAt,
	}
	switch s := d.Scope.(type) {
	case AllScope:
	case PathScope:
		w.Path = s.Path
	case TagScope:
		w.Tags = s.Tags
	case QueryScope:
		w.Query = s.Query
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownKind, d.Scope)
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler. Unknown kinds fail the
// parse; the store treats that as malformed saved data.
func (d *Definition) UnmarshalJSON(data []byte) error {
	var w definitionJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode cohort definition: %w", err)
	}
	switch w.Kind {
	case KindAll:
		d.Scope = AllScope{}
	case KindPath:
		d.Scope = PathScope{Path: w.Path}
	case KindTags:
		d.Scope = TagScope{Tags: w.Tags}
	case KindQuery:
		d.Scope = QueryScope{Query: w.Query}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, w.Kind)
	}
	d.Label = w.Label
	d.Overrides = w.Overrides
	d.UpdatedAt = w.UpdatedAt
	return nil
}
