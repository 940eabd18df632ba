// Package graph defines the typed graph-entity wrappers (vertex, edge,
// variable-length path) that sit over internal/bdm's tagged value tree.
// Grounded on original_source/src/include/utils/vertex.h's varlena
// vertex layout and .../utils/adt/variable_edge.c's alternating
// vertex/edge sequence.
package graph

import "cyquery/internal/bdm"

// GraphID identifies a vertex or edge within a single graph. Distinct
// graphs may reuse the same id space; callers that need cross-graph
// identity pair a GraphID with a graph name out of band.
type GraphID int64

// LabelID identifies a vertex or edge label registered in the label
// catalog (internal/labelcat).
type LabelID int64

// Vertex is a property-graph vertex: an id, a label, and a properties
// object. It is a thin typed view over a bdm.Value of KindVertex —
// Value returns the underlying representation for storage or
// transport.
type Vertex struct {
	v bdm.Value
}

// NewVertex builds a Vertex from its id, label, and properties. props
// must be a bdm Object value (or the zero Value, treated as empty).
func NewVertex(id GraphID, label LabelID, props bdm.Value) Vertex {
	if props.Kind == bdm.KindNull {
		props = bdm.Object()
	}
	return Vertex{v: bdm.Vertex(int64(id), int64(label), props)}
}

// VertexFromValue wraps an existing KindVertex bdm.Value, as decoded by
// bdm.Materialize from storage.
func VertexFromValue(v bdm.Value) (Vertex, bool) {
	if v.Kind != bdm.KindVertex {
		return Vertex{}, false
	}
	return Vertex{v: v}, true
}

func (vx Vertex) ID() GraphID       { return GraphID(vx.v.Vertex.GraphID) }
func (vx Vertex) Label() LabelID    { return LabelID(vx.v.Vertex.LabelID) }
func (vx Vertex) Properties() bdm.Value { return vx.v.Vertex.Props }
func (vx Vertex) Value() bdm.Value  { return vx.v }

// WithProperties returns a copy of vx with its properties replaced,
// used by SET/REMOVE clause transforms that produce an updated vertex
// projection rather than mutating storage directly.
func (vx Vertex) WithProperties(props bdm.Value) Vertex {
	return NewVertex(vx.ID(), vx.Label(), props)
}
