// Package txregistry implements the transform entity registry: the
// per-clause-scope table tracking named pattern entities (vertices,
// edges, and plain bound variables) that the clause transformer
// consults to resolve references and enforce redeclaration rules.
// Grounded on
// original_source/src/backend/parser/cypher_transform_entity.c.
package txregistry

import "cyquery/internal/cqlerr"

// EntityKind distinguishes what a registered name refers to.
type EntityKind uint8

const (
	KindVertex EntityKind = iota
	KindEdge
	KindValue // any non-pattern bound name (WITH/UNWIND projections, etc.)
)

// Entity is one registered name's bookkeeping. DeclaredInCurrentClause
// is cleared by NewClauseScope when an entity carries over from an
// enclosing clause (e.g. MATCH variables visible to a following
// WHERE/RETURN). The transform package's CREATE and MERGE transforms
// read it to tell a variable bound by an earlier clause from one bound
// in the current clause.
type Entity struct {
	Name                    string
	Kind                    EntityKind
	DeclaredInCurrentClause bool
	InJoinTree              bool
}

// Registry is the scope-local name table for one clause being
// transformed. It is not safe for concurrent use; each clause
// transform owns its own Registry.
type Registry struct {
	order   []string
	byName  map[string]*Entity
}

func New() *Registry {
	return &Registry{byName: make(map[string]*Entity)}
}

// NewClauseScope derives a child registry for the next clause in a
// chain (e.g. MATCH -> WHERE -> RETURN), carrying over every entity
// but resetting DeclaredInCurrentClause so redeclaration checks apply
// only within the new clause.
func (r *Registry) NewClauseScope() *Registry {
	child := New()
	for _, name := range r.order {
		e := *r.byName[name]
		e.DeclaredInCurrentClause = false
		child.declare(&e)
	}
	return child
}

func (r *Registry) declare(e *Entity) {
	r.order = append(r.order, e.Name)
	r.byName[e.Name] = e
}

// Make registers a brand-new entity. Returns VariableRedeclared if name
// was already declared within the current clause (spec.md §4.2);
// redeclaring across clause boundaries is legal and is how MATCH
// variables stay visible downstream.
func (r *Registry) Make(name string, kind EntityKind) (*Entity, error) {
	if existing, ok := r.byName[name]; ok && existing.DeclaredInCurrentClause {
		return nil, cqlerr.New(cqlerr.VariableRedeclared, "variable %q already declared in this clause", name)
	}
	e := &Entity{Name: name, Kind: kind, DeclaredInCurrentClause: true}
	r.declare(e)
	return e, nil
}

// FindByName looks up a previously declared entity by name.
func (r *Registry) FindByName(name string) (*Entity, bool) {
	e, ok := r.byName[name]
	return e, ok
}

// FindAny returns the first registered entity of the given kind, in
// declaration order, and reports whether there was one.
func (r *Registry) FindAny(kind EntityKind) (*Entity, bool) {
	for _, name := range r.order {
		if e := r.byName[name]; e.Kind == kind {
			return e, true
		}
	}
	return nil, false
}

// GetName is a convenience accessor mirroring the original's
// getName(transform_entity*) helper — trivial here since Entity embeds
// its own name, but kept so callers read the same as the grounding
// source's call sites.
func GetName(e *Entity) string { return e.Name }

// MarkInJoinTree records that e's underlying relation has been wired
// into the query's join tree, the point after which a bare reference
// to e must resolve rather than redeclare.
func (r *Registry) MarkInJoinTree(name string) {
	if e, ok := r.byName[name]; ok {
		e.InJoinTree = true
	}
}

// Names returns every registered name, in declaration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
