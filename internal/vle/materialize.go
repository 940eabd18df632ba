package vle

import (
	"context"

	"cyquery/internal/graph"
)

// materialize mirrors build_path_container + create_variable_edge,
// minus the binary container plumbing: since pathQueue already holds
// edge ids in traversal order (oldest first, at the tail), there's no
// need to walk it backwards the way the original did to undo its
// stack's head-first read order. Each step just asks which endpoint of
// the edge isn't the vertex we're standing on, exactly like
// build_path_container's "vid = (vid == start) ? end : start" walk.
func (e *Evaluator) materialize(ctx context.Context) (graph.VariableEdge, bool, error) {
	start, err := e.cache.VertexByID(ctx, e.vsid)
	if err != nil {
		return graph.VariableEdge{}, false, err
	}

	builder := graph.NewVariableEdgeBuilder(start)
	vid := e.vsid

	for _, edgeID := range e.pathQueue {
		ed, err := e.cache.EdgeByID(ctx, edgeID)
		if err != nil {
			return graph.VariableEdge{}, false, err
		}

		next := ed.StartID()
		if vid == ed.StartID() {
			next = ed.EndID()
		}

		nextVertex, err := e.cache.VertexByID(ctx, next)
		if err != nil {
			return graph.VariableEdge{}, false, err
		}

		builder.Extend(ed, nextVertex)
		vid = next
	}

	return builder.Build(), true, nil
}
