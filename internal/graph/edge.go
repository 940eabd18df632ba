package graph

import "cyquery/internal/bdm"

// Edge is a property-graph edge: an id, start/end vertex ids, a label,
// and a properties object. A thin typed view over a bdm.Value of
// KindEdge.
type Edge struct {
	e bdm.Value
}

// NewEdge builds an Edge from its id, endpoints, label, and properties.
func NewEdge(id GraphID, start, end GraphID, label LabelID, props bdm.Value) Edge {
	if props.Kind == bdm.KindNull {
		props = bdm.Object()
	}
	return Edge{e: bdm.Edge(int64(id), int64(start), int64(end), int64(label), props)}
}

// EdgeFromValue wraps an existing KindEdge bdm.Value.
func EdgeFromValue(v bdm.Value) (Edge, bool) {
	if v.Kind != bdm.KindEdge {
		return Edge{}, false
	}
	return Edge{e: v}, true
}

func (e Edge) ID() GraphID           { return GraphID(e.e.Edge.GraphID) }
func (e Edge) StartID() GraphID      { return GraphID(e.e.Edge.StartID) }
func (e Edge) EndID() GraphID        { return GraphID(e.e.Edge.EndID) }
func (e Edge) Label() LabelID        { return LabelID(e.e.Edge.LabelID) }
func (e Edge) Properties() bdm.Value { return e.e.Edge.Props }
func (e Edge) Value() bdm.Value      { return e.e }

// OtherEnd returns the endpoint of e that is not from, for adjacency
// walks where the traversal direction is ambiguous (Cypher's
// direction-agnostic `-[r]-` pattern).
func (e Edge) OtherEnd(from GraphID) (GraphID, bool) {
	switch from {
	case e.StartID():
		return e.EndID(), true
	case e.EndID():
		return e.StartID(), true
	default:
		return 0, false
	}
}

// IsSelfLoop reports whether e's two endpoints are the same vertex.
func (e Edge) IsSelfLoop() bool {
	return e.StartID() == e.EndID()
}
