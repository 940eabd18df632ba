// Package vle implements the variable-length-edge path evaluator: given
// a start vertex, an end vertex, an edge-label/property constraint, a
// [lo, hi] hop-count range and a traversal direction, it enumerates
// every distinct path between the two vertices one at a time via
// repeated calls to Step, exactly as the source SRF returned one row
// per call.
//
// Grounded function-for-function on
// original_source/src/backend/utils/path_finding/age_vle.c:
// build_vle_context -> New, dfs_find_a_path_between -> Step,
// add_edges -> pushCandidateEdges, get_next_vertex -> nextVertex,
// build_path_container/create_variable_edge -> materialize.
package vle

import (
	"context"

	"cyquery/internal/ast"
	"cyquery/internal/bdm"
	"cyquery/internal/cqlerr"
	"cyquery/internal/gcache"
	"cyquery/internal/graph"
)

// EdgeConstraint filters which edges the evaluator is willing to step
// across. LabelID zero means any label. Properties being the bdm.Value
// zero value means no property filter; otherwise a candidate edge must
// deep-contain Properties (check_edge_constraints' gtype containment
// check against the edge prototype argument).
type EdgeConstraint struct {
	LabelID    graph.LabelID
	Properties bdm.Value
}

func (c EdgeConstraint) hasProperties() bool {
	return c.Properties.Kind != bdm.KindNull
}

// Bounds is the inclusive [Lo, Hi] hop-count range a path must fall
// within to be emitted. HiInfinite means Hi is unbounded (the `*lo..`
// form with no upper bound).
type Bounds struct {
	Lo         int
	Hi         int
	HiInfinite bool
}

// normalizedLo implements Open Question decision 2: lo=0 behaves
// identically to lo=1, since the DFS never emits a zero-length path
// (Step only checks the found condition after crossing at least one
// edge).
func (b Bounds) normalizedLo() int {
	if b.Lo <= 0 {
		return 1
	}
	return b.Lo
}

// Evaluator holds one VLE traversal's DFS state. It is single-use and
// not safe for concurrent calls to Step.
type Evaluator struct {
	cache gcache.Cache

	vsid, veid graph.GraphID
	lo, hi     int
	hiInfinite bool
	dir        ast.Direction
	constraint EdgeConstraint

	visited    map[graph.GraphID]bool
	candidates []frame
	pathQueue  []graph.GraphID
}

// New builds an evaluator and loads the start vertex's incident edges
// into the initial candidate stack. If either endpoint doesn't exist,
// the evaluator is still returned but every Step call will report no
// path found, matching do_vsid_and_veid_exist's vacuous-skip behavior
// rather than surfacing an error.
func New(ctx context.Context, cache gcache.Cache, vsid, veid graph.GraphID, bounds Bounds, dir ast.Direction, constraint EdgeConstraint) (*Evaluator, error) {
	e := &Evaluator{
		cache:      cache,
		vsid:       vsid,
		veid:       veid,
		lo:         bounds.normalizedLo(),
		hi:         bounds.Hi,
		hiInfinite: bounds.HiInfinite,
		dir:        dir,
		constraint: constraint,
		visited:    make(map[graph.GraphID]bool),
	}

	if _, err := cache.VertexByID(ctx, vsid); err != nil {
		if kind, ok := cqlerr.Of(err); ok && kind == cqlerr.NotFound {
			return e, nil
		}
		return nil, err
	}
	if _, err := cache.VertexByID(ctx, veid); err != nil {
		if kind, ok := cqlerr.Of(err); ok && kind == cqlerr.NotFound {
			return e, nil
		}
		return nil, err
	}

	if err := e.pushCandidateEdges(ctx, vsid); err != nil {
		return nil, err
	}
	return e, nil
}

// Step advances the DFS to the next valid path, if any. It returns
// found=false once the search space is exhausted; callers should stop
// calling Step at that point. Each returned VariableEdge is freshly
// materialized from the current path state.
func (e *Evaluator) Step(ctx context.Context) (graph.VariableEdge, bool, error) {
	for len(e.candidates) > 0 {
		if err := ctx.Err(); err != nil {
			return graph.VariableEdge{}, false, err
		}
		top := e.candidates[len(e.candidates)-1]
		edgeID := top.edgeID

		if e.visited[edgeID] {
			if n := len(e.pathQueue); n > 0 && e.pathQueue[n-1] == edgeID {
				e.pathQueue = e.pathQueue[:n-1]
				e.visited[edgeID] = false
			}
			e.candidates = e.candidates[:len(e.candidates)-1]
			continue
		}

		e.visited[edgeID] = true
		e.pathQueue = append(e.pathQueue, edgeID)

		ed, err := e.cache.EdgeByID(ctx, edgeID)
		if err != nil {
			return graph.VariableEdge{}, false, err
		}
		nextVertex, err := e.nextVertex(ed, top.parent)
		if err != nil {
			return graph.VariableEdge{}, false, err
		}

		found := nextVertex == e.veid &&
			len(e.pathQueue) >= e.lo &&
			(e.hiInfinite || len(e.pathQueue) <= e.hi)

		if nextVertex == e.veid && !e.hiInfinite && len(e.pathQueue) > e.hi {
			// Over the upper bound: don't expand past it, but don't
			// drop this frame either. The next Step call will see it
			// as visited and unwind it like any other backtrack.
			continue
		}

		if e.hiInfinite || len(e.pathQueue) < e.hi {
			if err := e.pushCandidateEdges(ctx, nextVertex); err != nil {
				return graph.VariableEdge{}, false, err
			}
		}

		if found {
			return e.materialize(ctx)
		}
	}

	return graph.VariableEdge{}, false, nil
}

// nextVertex mirrors get_next_vertex: Right walks to the edge's end,
// Left walks to its start, and None disambiguates by checking which
// endpoint matches the vertex the edge was enumerated from.
func (e *Evaluator) nextVertex(ed graph.Edge, parent *graph.GraphID) (graph.GraphID, error) {
	switch e.dir {
	case ast.DirRight:
		return ed.EndID(), nil
	case ast.DirLeft:
		return ed.StartID(), nil
	case ast.DirNone:
		if parent == nil {
			return 0, cqlerr.New(cqlerr.InternalInvariantViolated, "vle: undirected edge frame missing parent vertex")
		}
		switch *parent {
		case ed.StartID():
			return ed.EndID(), nil
		case ed.EndID():
			return ed.StartID(), nil
		default:
			return 0, cqlerr.New(cqlerr.InternalInvariantViolated, "vle: edge %d does not touch its parent vertex", ed.ID())
		}
	default:
		return 0, cqlerr.New(cqlerr.InternalInvariantViolated, "vle: unknown edge direction")
	}
}

// pushCandidateEdges mirrors add_edges: enumerate vertexID's incident
// edges for the configured direction (out unless Left, in unless
// Right, self always), skip ones already in the path, and push the
// ones that satisfy the edge constraint.
func (e *Evaluator) pushCandidateEdges(ctx context.Context, vertexID graph.GraphID) error {
	var dirs []gcache.AdjacencyDirection
	if e.dir != ast.DirLeft {
		dirs = append(dirs, gcache.AdjOut)
	}
	if e.dir != ast.DirRight {
		dirs = append(dirs, gcache.AdjIn)
	}
	dirs = append(dirs, gcache.AdjSelf)

	for _, d := range dirs {
		edges, err := e.cache.Adjacency(ctx, vertexID, d, e.constraint.LabelID)
		if err != nil {
			return err
		}
		for _, ed := range edges {
			if e.visited[ed.ID()] {
				continue
			}
			if !e.checkEdgeConstraints(ed) {
				continue
			}
			var parent *graph.GraphID
			if e.dir == ast.DirNone {
				v := vertexID
				parent = &v
			}
			e.candidates = append(e.candidates, frame{edgeID: ed.ID(), parent: parent})
		}
	}
	return nil
}

// checkEdgeConstraints mirrors check_edge_constraints: the label
// filter is applied by the cache query itself (Adjacency's labelID
// argument), so only the property containment check remains here.
func (e *Evaluator) checkEdgeConstraints(ed graph.Edge) bool {
	if !e.constraint.hasProperties() {
		return true
	}
	return bdm.DeepContains(ed.Properties(), e.constraint.Properties)
}
