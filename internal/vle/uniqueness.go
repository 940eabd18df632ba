package vle

import "cyquery/internal/graph"

// EnforceEdgeUniqueness mirrors _ag_enforce_edge_uniqueness: a MATCH
// pattern with more than one relationship variable must bind each to a
// distinct edge. refs may be a graph.GraphID, a graph.Edge, or a
// graph.VariableEdge (whose constituent edges are checked individually
// and whose vertices are skipped, exactly like the original's
// even/odd-index skip over ve->children).
//
// seen is owned by the caller and reused across calls within one query
// evaluation (Open Question decision 4): this function only ever adds
// to it, never allocates it. Call ResetEdgeSeen between independent
// MATCH evaluations instead of allocating a fresh map each time.
func EnforceEdgeUniqueness(seen map[graph.GraphID]struct{}, refs ...any) bool {
	for _, ref := range refs {
		switch v := ref.(type) {
		case graph.GraphID:
			if !markSeen(seen, v) {
				return false
			}
		case graph.Edge:
			if !markSeen(seen, v.ID()) {
				return false
			}
		case graph.VariableEdge:
			for i := 0; i < v.Hops(); i++ {
				if !markSeen(seen, v.EdgeAt(i).ID()) {
					return false
				}
			}
		default:
			panic("vle: EnforceEdgeUniqueness: unsupported ref type")
		}
	}
	return true
}

func markSeen(seen map[graph.GraphID]struct{}, id graph.GraphID) bool {
	if _, found := seen[id]; found {
		return false
	}
	seen[id] = struct{}{}
	return true
}

// ResetEdgeSeen clears a uniqueness scratch map in place so it can be
// reused for the next MATCH pattern's edge-uniqueness check without
// reallocating the underlying map.
func ResetEdgeSeen(seen map[graph.GraphID]struct{}) {
	for id := range seen {
		delete(seen, id)
	}
}
