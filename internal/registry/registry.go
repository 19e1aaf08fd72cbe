// Package registry builds the immutable field-to-relation index shared
// by all resolution requests.
package registry

import (
	"context"
	"fmt"

	orderedmap "github.com/elliotchance/orderedmap/v2"

	"github.com/keuin/daigunyun/internal/config"
)

// Source is one queryable relation as seen by the resolver.
// *relation.Reader is the production implementation.
type Source interface {
	// Name returns the relation's unique name.
	Name() string
	// FieldIDs returns the fields the relation exposes, in declaration order.
	FieldIDs() []string
	// Lookup returns every field value extracted from rows matching
	// field = value, keyed by field id.
	Lookup(ctx context.Context, field, value string) (map[string][]string, error)
}

// Registry routes a field id to the relations exposing it. It is built
// once at startup, never mutated afterwards, and read concurrently by
// all requests without locking.
type Registry struct {
	fields  map[string]config.Field
	byField *orderedmap.OrderedMap[string, []Source]
}

// New indexes the given sources by the fields they expose. Relation
// order is preserved per field so traversal order stays deterministic.
// Referential validity is re-checked defensively even though the config
// loader enforces it: a source exposing an undeclared field is an error.
func New(fields []config.Field, sources []Source) (*Registry, error) {
	declared := make(map[string]config.Field, len(fields))
	for _, f := range fields {
		if _, dup := declared[f.ID]; dup {
			return nil, fmt.Errorf("duplicate field %q", f.ID)
		}
		declared[f.ID] = f
	}

	byField := orderedmap.NewOrderedMap[string, []Source]()
	for _, src := range sources {
		for _, id := range src.FieldIDs() {
			if _, ok := declared[id]; !ok {
				return nil, fmt.Errorf("undeclared field %q used in relation %q", id, src.Name())
			}
			existing, _ := byField.Get(id)
			byField.Set(id, append(existing, src))
		}
	}

	return &Registry{
		fields:  declared,
		byField: byField,
	}, nil
}

// RelationsFor returns the relations exposing field, in declaration
// order. The second return value is false when no relation has the field.
func (r *Registry) RelationsFor(field string) ([]Source, bool) {
	sources, ok := r.byField.Get(field)
	return sources, ok
}

// Distinct reports whether discovered values of field may seed further
// traversal. Unknown fields are treated as non-distinct.
func (r *Registry) Distinct(field string) bool {
	f, ok := r.fields[field]
	return ok && f.Distinct
}

// FieldIDs returns every field exposed by at least one relation, in
// first-exposure order.
func (r *Registry) FieldIDs() []string {
	return r.byField.Keys()
}

// NumFields returns the number of declared fields.
func (r *Registry) NumFields() int {
	return len(r.fields)
}
