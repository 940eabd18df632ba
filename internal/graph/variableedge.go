package graph

import (
	"cyquery/internal/bdm"
	"cyquery/internal/cqlerr"
)

// VariableEdge is the alternating vertex/edge/vertex/.../edge/vertex
// sequence produced by the VLE evaluator for one matched path. It is a
// thin typed view over a bdm.Value of KindPath; Value returns the
// wire-shaped representation for materialization into a query result.
// Grounded on original_source/.../utils/adt/variable_edge.c's
// alternating-sequence layout.
type VariableEdge struct {
	p bdm.Value
}

// VariableEdgeBuilder accumulates one path's vertices and edges as the
// VLE evaluator walks it, then finalizes into a VariableEdge. A fresh
// builder always starts with a vertex (spec.md §4.9: every emitted
// path begins and ends on a vertex).
type VariableEdgeBuilder struct {
	elems []bdm.Value
}

func NewVariableEdgeBuilder(start Vertex) *VariableEdgeBuilder {
	return &VariableEdgeBuilder{elems: []bdm.Value{start.Value()}}
}

// Extend appends one (edge, vertex) hop. Panics if called on a builder
// that has not yet been seeded with a starting vertex — a caller bug,
// not a runtime condition.
func (b *VariableEdgeBuilder) Extend(e Edge, next Vertex) {
	if len(b.elems) == 0 {
		panic("graph: VariableEdgeBuilder.Extend called before NewVariableEdgeBuilder seeded a start vertex")
	}
	b.elems = append(b.elems, e.Value(), next.Value())
}

// Hops reports how many edges have been appended so far.
func (b *VariableEdgeBuilder) Hops() int {
	if len(b.elems) == 0 {
		return 0
	}
	return (len(b.elems) - 1) / 2
}

func (b *VariableEdgeBuilder) Build() VariableEdge {
	return VariableEdge{p: bdm.Path(append([]bdm.Value(nil), b.elems...)...)}
}

// VariableEdgeFromValue wraps an existing KindPath bdm.Value, validating
// the strict V,E,V,...,E,V alternation.
func VariableEdgeFromValue(v bdm.Value) (VariableEdge, error) {
	if v.Kind != bdm.KindPath {
		return VariableEdge{}, cqlerr.New(cqlerr.InternalInvariantViolated, "VariableEdge requires a path value, got %s", v.Kind)
	}
	if len(v.Elems)%2 != 1 {
		return VariableEdge{}, cqlerr.New(cqlerr.InternalInvariantViolated, "path has even element count %d, expected odd V,E,...,V", len(v.Elems))
	}
	for i, e := range v.Elems {
		wantVertex := i%2 == 0
		if wantVertex && e.Kind != bdm.KindVertex {
			return VariableEdge{}, cqlerr.New(cqlerr.InternalInvariantViolated, "path element %d: expected vertex, got %s", i, e.Kind)
		}
		if !wantVertex && e.Kind != bdm.KindEdge {
			return VariableEdge{}, cqlerr.New(cqlerr.InternalInvariantViolated, "path element %d: expected edge, got %s", i, e.Kind)
		}
	}
	return VariableEdge{p: v}, nil
}

func (p VariableEdge) Value() bdm.Value { return p.p }

// Hops returns the number of edges in the path.
func (p VariableEdge) Hops() int { return len(p.p.Elems) / 2 }

// VertexAt returns the i-th vertex (0-indexed along the path, so
// VertexAt(0) is the start and VertexAt(Hops()) is the end).
func (p VariableEdge) VertexAt(i int) Vertex {
	v, _ := VertexFromValue(p.p.Elems[i*2])
	return v
}

// EdgeAt returns the i-th edge (0-indexed, 0..Hops()-1).
func (p VariableEdge) EdgeAt(i int) Edge {
	e, _ := EdgeFromValue(p.p.Elems[i*2+1])
	return e
}

// StartVertex and EndVertex are convenience aliases for the path's
// first and last vertex.
func (p VariableEdge) StartVertex() Vertex { return p.VertexAt(0) }
func (p VariableEdge) EndVertex() Vertex   { return p.VertexAt(p.Hops()) }

// ContainsEdgeID reports whether id appears among the path's edges,
// used by edge-uniqueness enforcement when a candidate edge must not
// repeat within a single match.
func (p VariableEdge) ContainsEdgeID(id GraphID) bool {
	for i := 0; i < p.Hops(); i++ {
		if p.EdgeAt(i).ID() == id {
			return true
		}
	}
	return false
}
