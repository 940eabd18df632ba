package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyquery/internal/bdm"
)

func TestVertexRoundTrip(t *testing.T) {
	v := NewVertex(1, 10, bdm.Object(bdm.Pair{Key: "name", Val: bdm.String("alice")}))
	blob, err := bdm.Build(v.Value())
	require.NoError(t, err)
	mat, err := bdm.Materialize(blob)
	require.NoError(t, err)
	v2, ok := VertexFromValue(mat)
	require.True(t, ok)
	assert.Equal(t, v.ID(), v2.ID())
	assert.Equal(t, v.Label(), v2.Label())
}

func TestEdgeOtherEndAndSelfLoop(t *testing.T) {
	e := NewEdge(100, 1, 2, 5, bdm.Object())
	other, ok := e.OtherEnd(1)
	require.True(t, ok)
	assert.Equal(t, GraphID(2), other)

	_, ok = e.OtherEnd(99)
	assert.False(t, ok)

	loop := NewEdge(101, 1, 1, 5, bdm.Object())
	assert.True(t, loop.IsSelfLoop())
	assert.False(t, e.IsSelfLoop())
}

func TestVariableEdgeBuilderAndAccessors(t *testing.T) {
	a := NewVertex(1, 1, bdm.Object())
	b := NewVertex(2, 1, bdm.Object())
	c := NewVertex(3, 1, bdm.Object())
	e1 := NewEdge(10, 1, 2, 2, bdm.Object())
	e2 := NewEdge(11, 2, 3, 2, bdm.Object())

	builder := NewVariableEdgeBuilder(a)
	builder.Extend(e1, b)
	builder.Extend(e2, c)
	path := builder.Build()

	require.Equal(t, 2, path.Hops())
	assert.Equal(t, GraphID(1), path.StartVertex().ID())
	assert.Equal(t, GraphID(3), path.EndVertex().ID())
	assert.Equal(t, GraphID(10), path.EdgeAt(0).ID())
	assert.True(t, path.ContainsEdgeID(11))
	assert.False(t, path.ContainsEdgeID(999))

	validated, err := VariableEdgeFromValue(path.Value())
	require.NoError(t, err)
	assert.Equal(t, 2, validated.Hops())
}

func TestVariableEdgeFromValueRejectsMalformedAlternation(t *testing.T) {
	bad := bdm.Path(bdm.Int(1), bdm.Int(2))
	_, err := VariableEdgeFromValue(bad)
	require.Error(t, err)
}
