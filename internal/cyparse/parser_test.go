package cyparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyquery/internal/ast"
)

func TestParseSimpleMatchReturn(t *testing.T) {
	q, err := Parse(`MATCH (a:Person)-[r:KNOWS]->(b:Person) WHERE a.age > 21 RETURN a, b.name AS name`)
	require.NoError(t, err)
	require.Len(t, q.Clauses, 2)

	m, ok := q.Clauses[0].(*ast.Match)
	require.True(t, ok)
	require.Len(t, m.Patterns, 1)
	pat := m.Patterns[0]
	require.Len(t, pat.Nodes, 2)
	require.Len(t, pat.Rels, 1)
	assert.Equal(t, []string{"Person"}, pat.Nodes[0].Labels)
	assert.Equal(t, ast.DirRight, pat.Rels[0].Direction)
	assert.Equal(t, []string{"KNOWS"}, pat.Rels[0].Labels)
	require.NotNil(t, m.Where)

	ret, ok := q.Clauses[1].(*ast.Return)
	require.True(t, ok)
	require.Len(t, ret.Items, 2)
	assert.Equal(t, "name", ret.Items[1].Alias)
}

func TestParseVariableLengthPath(t *testing.T) {
	q, err := Parse(`MATCH (a)-[:KNOWS*1..3]->(b) RETURN b`)
	require.NoError(t, err)
	m := q.Clauses[0].(*ast.Match)
	rel := m.Patterns[0].Rels[0]
	require.True(t, rel.HasStar)
	require.NotNil(t, rel.MinHops)
	require.NotNil(t, rel.MaxHops)
	assert.Equal(t, 1, *rel.MinHops)
	assert.Equal(t, 3, *rel.MaxHops)
}

func TestParseUndirectedAndLeftArrow(t *testing.T) {
	q, err := Parse(`MATCH (a)--(b) RETURN a`)
	require.NoError(t, err)
	m := q.Clauses[0].(*ast.Match)
	assert.Equal(t, ast.DirNone, m.Patterns[0].Rels[0].Direction)

	q2, err := Parse(`MATCH (a)<-[r]-(b) RETURN a`)
	require.NoError(t, err)
	m2 := q2.Clauses[0].(*ast.Match)
	assert.Equal(t, ast.DirLeft, m2.Patterns[0].Rels[0].Direction)
	assert.Equal(t, "r", m2.Patterns[0].Rels[0].Variable)
}

func TestParseCreateSetMergeDelete(t *testing.T) {
	_, err := Parse(`CREATE (a:Person {name: "alice", age: 30})`)
	require.NoError(t, err)

	q, err := Parse(`MATCH (a) SET a.age = 31, a:Admin REMOVE a.temp DETACH DELETE a`)
	require.NoError(t, err)
	require.Len(t, q.Clauses, 4)
	set := q.Clauses[1].(*ast.Set)
	require.Len(t, set.Items, 2)
	assert.True(t, set.Items[1].IsAddLabel)
	assert.Equal(t, "Admin", set.Items[1].Label)

	del := q.Clauses[3].(*ast.Delete)
	assert.True(t, del.Detach)
}

func TestParseMergeWithOnCreateOnMatch(t *testing.T) {
	q, err := Parse(`MERGE (a:Person {id: 1}) ON CREATE SET a.created = true ON MATCH SET a.seen = true`)
	require.NoError(t, err)
	m := q.Clauses[0].(*ast.Merge)
	require.Len(t, m.OnCreate, 1)
	require.Len(t, m.OnMatch, 1)
}

func TestParseUnionAll(t *testing.T) {
	q, err := Parse(`MATCH (a) RETURN a.name AS name UNION ALL MATCH (b) RETURN b.name AS name`)
	require.NoError(t, err)
	require.Len(t, q.Clauses, 1)
	u, ok := q.Clauses[0].(*ast.Union)
	require.True(t, ok)
	assert.Equal(t, ast.UnionAll, u.Op)
}

func TestParseUnwind(t *testing.T) {
	q, err := Parse(`UNWIND [1, 2, 3] AS x RETURN x`)
	require.NoError(t, err)
	u, ok := q.Clauses[0].(*ast.Unwind)
	require.True(t, ok)
	assert.Equal(t, "x", u.As)
	lst, ok := u.Expr.(*ast.ListLiteral)
	require.True(t, ok)
	assert.Len(t, lst.Elements, 3)
}
