// Package fake is an in-memory gcache.Cache (and labelcat.Catalog) used
// by internal/vle and internal/transform tests, so those packages can
// exercise real traversal logic against a small fixture graph without
// a database. Grounded on the shape of
// original_source/.../age_vle.c's hash-table-backed vertex/edge lookup.
package fake

import (
	"context"
	"sync"

	"cyquery/internal/cqlerr"
	"cyquery/internal/gcache"
	"cyquery/internal/graph"
	"cyquery/internal/labelcat"
)

// Graph is a mutable in-memory fixture implementing gcache.Cache and
// labelcat.Catalog. Build one with New; the zero value has nil maps and
// is not usable.
type Graph struct {
	mu sync.RWMutex

	vertices map[graph.GraphID]graph.Vertex
	edges    map[graph.GraphID]graph.Edge
	outAdj   map[graph.GraphID][]graph.GraphID // vertex -> edge ids, start==v
	inAdj    map[graph.GraphID][]graph.GraphID // vertex -> edge ids, end==v

	labelsByName map[string]labelcat.Label
	labelsByID   map[graph.LabelID]labelcat.Label
	nextLabelID  graph.LabelID
}

func New() *Graph {
	return &Graph{
		vertices:     make(map[graph.GraphID]graph.Vertex),
		edges:        make(map[graph.GraphID]graph.Edge),
		outAdj:       make(map[graph.GraphID][]graph.GraphID),
		inAdj:        make(map[graph.GraphID][]graph.GraphID),
		labelsByName: make(map[string]labelcat.Label),
		labelsByID:   make(map[graph.LabelID]labelcat.Label),
	}
}

// AddVertex registers v, replacing any existing vertex with the same id.
func (g *Graph) AddVertex(v graph.Vertex) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.vertices[v.ID()] = v
}

// AddEdge registers e and indexes it into both endpoints' adjacency lists.
func (g *Graph) AddEdge(e graph.Edge) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.edges[e.ID()] = e
	g.outAdj[e.StartID()] = append(g.outAdj[e.StartID()], e.ID())
	g.inAdj[e.EndID()] = append(g.inAdj[e.EndID()], e.ID())
}

// RegisterLabel seeds a label by name/kind, assigning it the next id.
func (g *Graph) RegisterLabel(name string, kind labelcat.LabelKind) labelcat.Label {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextLabelID++
	l := labelcat.Label{ID: g.nextLabelID, Name: name, Kind: kind}
	g.labelsByName[name] = l
	g.labelsByID[l.ID] = l
	return l
}

func (g *Graph) VertexByID(_ context.Context, id graph.GraphID) (graph.Vertex, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	v, ok := g.vertices[id]
	if !ok {
		return graph.Vertex{}, cqlerr.New(cqlerr.NotFound, "vertex %d not found", id)
	}
	return v, nil
}

func (g *Graph) EdgeByID(_ context.Context, id graph.GraphID) (graph.Edge, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.edges[id]
	if !ok {
		return graph.Edge{}, cqlerr.New(cqlerr.NotFound, "edge %d not found", id)
	}
	return e, nil
}

func (g *Graph) Adjacency(_ context.Context, v graph.GraphID, dir gcache.AdjacencyDirection, labelID graph.LabelID) ([]graph.Edge, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var ids []graph.GraphID
	switch dir {
	case gcache.AdjOut:
		for _, id := range g.outAdj[v] {
			if e := g.edges[id]; e.StartID() != e.EndID() {
				ids = append(ids, id)
			}
		}
	case gcache.AdjIn:
		for _, id := range g.inAdj[v] {
			if e := g.edges[id]; e.StartID() != e.EndID() {
				ids = append(ids, id)
			}
		}
	case gcache.AdjSelf:
		for _, id := range g.outAdj[v] {
			if e := g.edges[id]; e.StartID() == e.EndID() {
				ids = append(ids, id)
			}
		}
	}

	out := make([]graph.Edge, 0, len(ids))
	for _, id := range ids {
		e := g.edges[id]
		if labelID != 0 && e.Label() != labelID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (g *Graph) LabelByName(_ context.Context, name string) (labelcat.Label, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	l, ok := g.labelsByName[name]
	if !ok {
		return labelcat.Label{}, cqlerr.New(cqlerr.NotFound, "label %q not found", name)
	}
	return l, nil
}

func (g *Graph) LabelByID(_ context.Context, id graph.LabelID) (labelcat.Label, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	l, ok := g.labelsByID[id]
	if !ok {
		return labelcat.Label{}, cqlerr.New(cqlerr.NotFound, "label id %d not found", id)
	}
	return l, nil
}

func (g *Graph) EnsureLabel(ctx context.Context, name string, kind labelcat.LabelKind) (labelcat.Label, error) {
	g.mu.RLock()
	l, ok := g.labelsByName[name]
	g.mu.RUnlock()
	if ok {
		if l.Kind != kind {
			return labelcat.Label{}, cqlerr.New(cqlerr.LabelKindMismatch, "label %q already registered as a different kind", name)
		}
		return l, nil
	}
	return g.RegisterLabel(name, kind), nil
}
