package vle

import "cyquery/internal/graph"

// frame is one entry in the DFS candidate stack: an edge that has been
// enumerated as a possible next step but not yet visited. parent is the
// vertex we enumerated it from, carried only when the evaluator's
// direction is ast.DirNone, where the edge's own start/end ids don't
// tell us which way we're traversing it. This merges what the original
// kept as two parallel stacks (dfs_vertex_queue and dfs_edge_queue,
// popped in lockstep) into one, per the Open Question 3 decision: the
// invariant "vertex_queue only moves with direction None" becomes
// structural instead of a conditional pop scattered through Step.
type frame struct {
	edgeID graph.GraphID
	parent *graph.GraphID
}
