package fake

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyquery/internal/bdm"
	"cyquery/internal/gcache"
	"cyquery/internal/graph"
	"cyquery/internal/labelcat"
)

func TestFakeGraphAdjacency(t *testing.T) {
	g := New()
	person := g.RegisterLabel("Person", labelcat.LabelVertex)
	knows := g.RegisterLabel("KNOWS", labelcat.LabelEdge)

	a := graph.NewVertex(1, person.ID, bdm.Object())
	b := graph.NewVertex(2, person.ID, bdm.Object())
	g.AddVertex(a)
	g.AddVertex(b)
	g.AddEdge(graph.NewEdge(10, a.ID(), b.ID(), knows.ID, bdm.Object()))

	ctx := context.Background()
	out, err := g.Adjacency(ctx, a.ID(), gcache.AdjOut, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, graph.GraphID(10), out[0].ID())

	in, err := g.Adjacency(ctx, b.ID(), gcache.AdjIn, 0)
	require.NoError(t, err)
	require.Len(t, in, 1)

	_, err = g.VertexByID(ctx, 999)
	assert.Error(t, err)
}

func TestFakeGraphEnsureLabelKindMismatch(t *testing.T) {
	g := New()
	g.RegisterLabel("Person", labelcat.LabelVertex)
	_, err := g.EnsureLabel(context.Background(), "Person", labelcat.LabelEdge)
	assert.Error(t, err)
}
