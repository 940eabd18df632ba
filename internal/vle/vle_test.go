package vle_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyquery/internal/ast"
	"cyquery/internal/bdm"
	"cyquery/internal/gcache/fake"
	"cyquery/internal/graph"
	"cyquery/internal/labelcat"
	"cyquery/internal/vle"
)

func twoHopGraph(t *testing.T) (*fake.Graph, graph.GraphID, graph.GraphID, graph.GraphID) {
	t.Helper()
	g := fake.New()
	person := g.RegisterLabel("Person", labelcat.LabelVertex)
	knows := g.RegisterLabel("KNOWS", labelcat.LabelEdge)

	a := graph.NewVertex(1, person.ID, bdm.Object())
	b := graph.NewVertex(2, person.ID, bdm.Object())
	c := graph.NewVertex(3, person.ID, bdm.Object())
	g.AddVertex(a)
	g.AddVertex(b)
	g.AddVertex(c)
	g.AddEdge(graph.NewEdge(10, a.ID(), b.ID(), knows.ID, bdm.Object()))
	g.AddEdge(graph.NewEdge(11, b.ID(), c.ID(), knows.ID, bdm.Object()))
	return g, a.ID(), b.ID(), c.ID()
}

func TestStepFindsTwoHopPath(t *testing.T) {
	ctx := context.Background()
	g, a, _, c := twoHopGraph(t)

	ev, err := vle.New(ctx, g, a, c, vle.Bounds{Lo: 1, HiInfinite: true}, ast.DirRight, vle.EdgeConstraint{})
	require.NoError(t, err)

	path, found, err := ev.Step(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 2, path.Hops())
	assert.Equal(t, a, path.StartVertex().ID())
	assert.Equal(t, c, path.EndVertex().ID())

	_, found, err = ev.Step(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStepRespectsHopBounds(t *testing.T) {
	ctx := context.Background()
	g, a, _, c := twoHopGraph(t)

	// a path of exactly 2 hops exists, but hi=1 excludes it.
	ev, err := vle.New(ctx, g, a, c, vle.Bounds{Lo: 1, Hi: 1}, ast.DirRight, vle.EdgeConstraint{})
	require.NoError(t, err)

	_, found, err := ev.Step(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStepFindsDiamondPaths(t *testing.T) {
	ctx := context.Background()
	g := fake.New()
	v := g.RegisterLabel("V", labelcat.LabelVertex)
	e := g.RegisterLabel("E", labelcat.LabelEdge)

	a := graph.NewVertex(1, v.ID, bdm.Object())
	b := graph.NewVertex(2, v.ID, bdm.Object())
	c := graph.NewVertex(3, v.ID, bdm.Object())
	d := graph.NewVertex(4, v.ID, bdm.Object())
	for _, vx := range []graph.Vertex{a, b, c, d} {
		g.AddVertex(vx)
	}
	g.AddEdge(graph.NewEdge(10, a.ID(), b.ID(), e.ID, bdm.Object()))
	g.AddEdge(graph.NewEdge(11, b.ID(), d.ID(), e.ID, bdm.Object()))
	g.AddEdge(graph.NewEdge(12, a.ID(), c.ID(), e.ID, bdm.Object()))
	g.AddEdge(graph.NewEdge(13, c.ID(), d.ID(), e.ID, bdm.Object()))

	ev, err := vle.New(ctx, g, a.ID(), d.ID(), vle.Bounds{Lo: 1, HiInfinite: true}, ast.DirRight, vle.EdgeConstraint{})
	require.NoError(t, err)

	var found []graph.VariableEdge
	for {
		p, ok, err := ev.Step(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		found = append(found, p)
	}

	require.Len(t, found, 2)
	for _, p := range found {
		assert.Equal(t, 2, p.Hops())
		assert.Equal(t, a.ID(), p.StartVertex().ID())
		assert.Equal(t, d.ID(), p.EndVertex().ID())
	}
}

func TestStepRejectsSelfLoopAsHop(t *testing.T) {
	ctx := context.Background()
	g := fake.New()
	v := g.RegisterLabel("V", labelcat.LabelVertex)
	e := g.RegisterLabel("E", labelcat.LabelEdge)

	a := graph.NewVertex(1, v.ID, bdm.Object())
	b := graph.NewVertex(2, v.ID, bdm.Object())
	g.AddVertex(a)
	g.AddVertex(b)
	g.AddEdge(graph.NewEdge(10, a.ID(), a.ID(), e.ID, bdm.Object())) // self-loop on a
	g.AddEdge(graph.NewEdge(11, a.ID(), b.ID(), e.ID, bdm.Object()))

	ev, err := vle.New(ctx, g, a.ID(), b.ID(), vle.Bounds{Lo: 1, Hi: 1}, ast.DirRight, vle.EdgeConstraint{})
	require.NoError(t, err)

	path, found, err := ev.Step(ctx)
	require.NoError(t, err)
	require.True(t, found)
	// Only one 1-hop path exists (a->b); the self-loop never reaches b.
	assert.Equal(t, 1, path.Hops())
	assert.Equal(t, graph.GraphID(11), path.EdgeAt(0).ID())

	_, found, err = ev.Step(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStepAppliesPropertyConstraint(t *testing.T) {
	ctx := context.Background()
	g := fake.New()
	v := g.RegisterLabel("V", labelcat.LabelVertex)
	e := g.RegisterLabel("E", labelcat.LabelEdge)

	a := graph.NewVertex(1, v.ID, bdm.Object())
	b := graph.NewVertex(2, v.ID, bdm.Object())
	c := graph.NewVertex(3, v.ID, bdm.Object())
	g.AddVertex(a)
	g.AddVertex(b)
	g.AddVertex(c)
	g.AddEdge(graph.NewEdge(10, a.ID(), b.ID(), e.ID, bdm.Object(bdm.Pair{Key: "weight", Val: bdm.Int(1)})))
	g.AddEdge(graph.NewEdge(11, a.ID(), c.ID(), e.ID, bdm.Object(bdm.Pair{Key: "weight", Val: bdm.Int(5)})))

	constraint := vle.EdgeConstraint{Properties: bdm.Object(bdm.Pair{Key: "weight", Val: bdm.Int(5)})}
	ev, err := vle.New(ctx, g, a.ID(), c.ID(), vle.Bounds{Lo: 1, Hi: 1}, ast.DirRight, constraint)
	require.NoError(t, err)

	path, found, err := ev.Step(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, graph.GraphID(11), path.EdgeAt(0).ID())

	_, found, err = ev.Step(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStepUndirectedTraversal(t *testing.T) {
	ctx := context.Background()
	g, a, _, c := twoHopGraph(t) // edges only go a->b->c

	// asking to go from c back to a with DirNone should still find the
	// path by walking the edges against their stored direction.
	ev, err := vle.New(ctx, g, c, a, vle.Bounds{Lo: 1, HiInfinite: true}, ast.DirNone, vle.EdgeConstraint{})
	require.NoError(t, err)

	path, found, err := ev.Step(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 2, path.Hops())
	assert.Equal(t, c, path.StartVertex().ID())
	assert.Equal(t, a, path.EndVertex().ID())
}

func TestStepMissingEndpointFindsNothing(t *testing.T) {
	ctx := context.Background()
	g, a, _, _ := twoHopGraph(t)

	ev, err := vle.New(ctx, g, a, graph.GraphID(999), vle.Bounds{Lo: 1, HiInfinite: true}, ast.DirRight, vle.EdgeConstraint{})
	require.NoError(t, err)

	_, found, err := ev.Step(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestEnforceEdgeUniqueness(t *testing.T) {
	seen := make(map[graph.GraphID]struct{})

	assert.True(t, vle.EnforceEdgeUniqueness(seen, graph.GraphID(1), graph.GraphID(2)))
	assert.False(t, vle.EnforceEdgeUniqueness(seen, graph.GraphID(2), graph.GraphID(3)))

	vle.ResetEdgeSeen(seen)
	assert.True(t, vle.EnforceEdgeUniqueness(seen, graph.GraphID(2), graph.GraphID(3)))
}

func TestEnforceEdgeUniquenessAcrossVariableEdge(t *testing.T) {
	a := graph.NewVertex(1, 0, bdm.Object())
	b := graph.NewVertex(2, 0, bdm.Object())
	c := graph.NewVertex(3, 0, bdm.Object())
	e1 := graph.NewEdge(10, a.ID(), b.ID(), 0, bdm.Object())
	e2 := graph.NewEdge(11, b.ID(), c.ID(), 0, bdm.Object())

	builder := graph.NewVariableEdgeBuilder(a)
	builder.Extend(e1, b)
	builder.Extend(e2, c)
	path := builder.Build()

	seen := make(map[graph.GraphID]struct{})
	assert.True(t, vle.EnforceEdgeUniqueness(seen, path))
	assert.False(t, vle.EnforceEdgeUniqueness(seen, graph.GraphID(10)))
}
