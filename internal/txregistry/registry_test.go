package txregistry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyquery/internal/cqlerr"
)

func TestMakeAndFindByName(t *testing.T) {
	r := New()
	e, err := r.Make("a", KindVertex)
	require.NoError(t, err)
	assert.Equal(t, "a", e.Name)

	got, ok := r.FindByName("a")
	require.True(t, ok)
	assert.Same(t, e, got)
}

func TestMakeRejectsRedeclarationWithinClause(t *testing.T) {
	r := New()
	_, err := r.Make("a", KindVertex)
	require.NoError(t, err)
	_, err = r.Make("a", KindEdge)
	require.Error(t, err)
	kind, ok := cqlerr.Of(err)
	require.True(t, ok)
	assert.Equal(t, cqlerr.VariableRedeclared, kind)
}

func TestNewClauseScopeAllowsCarryOverRedeclaration(t *testing.T) {
	r := New()
	_, err := r.Make("a", KindVertex)
	require.NoError(t, err)

	next := r.NewClauseScope()
	// "a" carried over from MATCH is visible...
	e, ok := next.FindByName("a")
	require.True(t, ok)
	assert.False(t, e.DeclaredInCurrentClause)

	// ...and a later clause (e.g. WITH re-binding the same name) may
	// freshly declare it without tripping redeclaration.
	_, err = next.Make("a", KindValue)
	assert.NoError(t, err)
}

func TestFindAny(t *testing.T) {
	r := New()
	_, ok := r.FindAny(KindVertex)
	assert.False(t, ok)

	_, err := r.Make("n", KindVertex)
	require.NoError(t, err)
	e, ok := r.FindAny(KindVertex)
	require.True(t, ok)
	assert.Equal(t, "n", e.Name)
}

func TestMarkInJoinTree(t *testing.T) {
	r := New()
	e, err := r.Make("n", KindVertex)
	require.NoError(t, err)
	assert.False(t, e.InJoinTree)
	r.MarkInJoinTree("n")
	assert.True(t, e.InJoinTree)
}
