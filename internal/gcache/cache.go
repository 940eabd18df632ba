// Package gcache declares the read-only graph cache the clause
// transformer and VLE evaluator consume but never implement: bulk
// vertex/edge lookup and adjacency enumeration backed by whichever
// store internal/pgcat, internal/neo4jcat, or internal/oraclecat
// wires up. Grounded on
// original_source/src/backend/utils/path_finding/age_vle.c's
// get_vertex_entry/get_edge_entry/get_vertex_entry_edges_{out,in,self}
// accessors, generalized into a Go interface per spec.md §6's "external
// collaborator, not implemented by the core" note.
package gcache

import (
	"context"

	"cyquery/internal/graph"
)

// AdjacencyDirection selects which side of a vertex's incident edges to
// enumerate.
type AdjacencyDirection uint8

const (
	AdjOut AdjacencyDirection = iota
	AdjIn
	AdjSelf // self-loops, counted once regardless of direction
)

// Cache is the read-only graph data surface the transform and vle
// packages depend on. Implementations own connection pooling and
// caching policy; callers only ever see a fully resolved Vertex/Edge.
type Cache interface {
	// VertexByID returns the vertex with the given id, or NotFound.
	VertexByID(ctx context.Context, id graph.GraphID) (graph.Vertex, error)

	// EdgeByID returns the edge with the given id, or NotFound.
	EdgeByID(ctx context.Context, id graph.GraphID) (graph.Edge, error)

	// Adjacency returns the edges incident to v in the given direction,
	// optionally filtered to a single label (labelID == 0 means "any
	// label"). The VLE evaluator calls this once per visited vertex per
	// hop, so implementations are expected to batch/cache internally.
	Adjacency(ctx context.Context, v graph.GraphID, dir AdjacencyDirection, labelID graph.LabelID) ([]graph.Edge, error)
}
