package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cyquery/internal/ast"
)

func TestClauseKindStripsPackageQualifier(t *testing.T) {
	assert.Equal(t, "Return", clauseKind(&ast.Return{}))
	assert.Equal(t, "Match", clauseKind(&ast.Match{}))
}

func TestVarLengthRelsFindsStarredRelsInMatch(t *testing.T) {
	hop := 3
	match := &ast.Match{
		Patterns: []ast.PathPattern{
			{
				Nodes: []ast.NodePattern{{Variable: "a"}, {Variable: "b"}},
				Rels:  []ast.RelPattern{{Variable: "r", HasStar: true, MaxHops: &hop}},
			},
		},
	}
	rels := varLengthRels(match)
	if assert.Len(t, rels, 1) {
		assert.True(t, rels[0].HasStar)
	}
}

func TestVarLengthRelsIgnoresPlainEdges(t *testing.T) {
	match := &ast.Match{
		Patterns: []ast.PathPattern{
			{
				Nodes: []ast.NodePattern{{Variable: "a"}, {Variable: "b"}},
				Rels:  []ast.RelPattern{{Variable: "r"}},
			},
		},
	}
	assert.Empty(t, varLengthRels(match))
}
