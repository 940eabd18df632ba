package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyquery/internal/ast"
	"cyquery/internal/cqlerr"
	"cyquery/internal/gcache/fake"
	"cyquery/internal/txregistry"
)

// findFunctionCall searches a qual tree (nested BinaryExpr ANDs/ORs)
// for a FunctionCall named name.
func findFunctionCall(e ast.Expr, name string) *ast.FunctionCall {
	switch n := e.(type) {
	case *ast.FunctionCall:
		if n.Name == name {
			return n
		}
		for _, a := range n.Args {
			if fc := findFunctionCall(a, name); fc != nil {
				return fc
			}
		}
		return nil
	case *ast.BinaryExpr:
		if fc := findFunctionCall(n.Left, name); fc != nil {
			return fc
		}
		return findFunctionCall(n.Right, name)
	default:
		return nil
	}
}

func newTestContext() (*Context, *fake.Graph) {
	g := fake.New()
	return NewContext(g, g, 1), g
}

func varExpr(name string) ast.Expr { return &ast.Variable{Name: name} }

func simplePath(aVar, edgeVar, bVar string, dir ast.Direction) ast.PathPattern {
	return ast.PathPattern{
		Nodes: []ast.NodePattern{{Variable: aVar, Labels: []string{"Person"}}, {Variable: bVar, Labels: []string{"Person"}}},
		Rels:  []ast.RelPattern{{Variable: edgeVar, Labels: []string{"KNOWS"}, Direction: dir}},
	}
}

func TestTransformQueryRejectsDeleteAsFirstClause(t *testing.T) {
	ctx, _ := newTestContext()
	q := &ast.Query{Clauses: []ast.Clause{&ast.Delete{Targets: []ast.Expr{varExpr("n")}}}}
	_, err := TransformQuery(context.Background(), ctx, q)
	require.Error(t, err)
	kind, ok := cqlerr.Of(err)
	require.True(t, ok)
	assert.Equal(t, cqlerr.FirstClauseIllegal, kind)
}

func TestTransformMatchThenReturn(t *testing.T) {
	ctx, _ := newTestContext()
	match := &ast.Match{Patterns: []ast.PathPattern{simplePath("a", "r", "b", ast.DirRight)}}
	ret := &ast.Return{Items: []ast.ReturnItem{{Expr: varExpr("a")}, {Expr: varExpr("b")}}}
	q := &ast.Query{Clauses: []ast.Clause{match, ret}}

	out, err := TransformQuery(context.Background(), ctx, q)
	require.NoError(t, err)
	require.Len(t, out.TargetList, 2)
	assert.Equal(t, "a", out.TargetList[0].ResName)
	assert.Equal(t, "b", out.TargetList[1].ResName)
	assert.True(t, out.CanSetTag)
}

func TestMatchProducesEdgeUniquenessPredicateForTwoEdges(t *testing.T) {
	ctx, _ := newTestContext()
	path := ast.PathPattern{
		Nodes: []ast.NodePattern{{Variable: "a"}, {Variable: "b"}, {Variable: "c"}},
		Rels: []ast.RelPattern{
			{Variable: "e", Direction: ast.DirRight},
			{Variable: "f", Direction: ast.DirRight},
		},
	}
	match := &ast.Match{Patterns: []ast.PathPattern{path}}
	out, err := TransformClause(context.Background(), ctx, nil, match)
	require.NoError(t, err)

	fc := findFunctionCall(out.JoinQual, "enforce_edge_uniqueness")
	require.NotNil(t, fc, "expected an enforce_edge_uniqueness predicate in the qual tree")
	assert.Len(t, fc.Args, 2)
}

// findPropertyAccess searches a qual tree for a PropertyAccess on the
// named variable.
func findPropertyAccess(e ast.Expr, varName string) *ast.PropertyAccess {
	switch n := e.(type) {
	case *ast.PropertyAccess:
		if v, ok := n.Target.(*ast.Variable); ok && v.Name == varName {
			return n
		}
		return nil
	case *ast.FunctionCall:
		for _, a := range n.Args {
			if pa := findPropertyAccess(a, varName); pa != nil {
				return pa
			}
		}
		return nil
	case *ast.BinaryExpr:
		if pa := findPropertyAccess(n.Left, varName); pa != nil {
			return pa
		}
		return findPropertyAccess(n.Right, varName)
	default:
		return nil
	}
}

func TestMatchAnonymousVertexUsesLabelIDFilterInsteadOfJoin(t *testing.T) {
	ctx, _ := newTestContext()
	path := ast.PathPattern{
		Nodes: []ast.NodePattern{{Variable: "a", Labels: []string{"Person"}}, {Labels: []string{"Company"}}},
		Rels:  []ast.RelPattern{{Variable: "r", Labels: []string{"WORKS_AT"}, Direction: ast.DirRight}},
	}
	match := &ast.Match{Patterns: []ast.PathPattern{path}}
	out, err := TransformClause(context.Background(), ctx, nil, match)
	require.NoError(t, err)

	fc := findFunctionCall(out.JoinQual, "_extract_label_id")
	require.NotNil(t, fc, "expected a _extract_label_id filter for the anonymous end vertex")

	// the bound start vertex "a" still gets a real id join, not a filter.
	assert.NotNil(t, findPropertyAccess(out.JoinQual, "a"), "expected a real join predicate against the bound start vertex")
}

func TestOptionalMatchProducesLateralLeftJoin(t *testing.T) {
	ctx, _ := newTestContext()
	match := &ast.Match{Patterns: []ast.PathPattern{simplePath("a", "r", "b", ast.DirRight)}}
	prev, err := TransformClause(context.Background(), ctx, nil, match)
	require.NoError(t, err)

	opt := &ast.Match{Optional: true, Patterns: []ast.PathPattern{simplePath("a", "s", "c", ast.DirRight)}}
	out, err := TransformClause(context.Background(), ctx, prev, opt)
	require.NoError(t, err)

	require.Len(t, out.RangeTable, 1)
	assert.Equal(t, RteJoin, out.RangeTable[0].Kind)
	assert.Equal(t, JoinLateralLeft, out.RangeTable[0].JoinType)
}

func TestUnionColumnMismatch(t *testing.T) {
	ctx, _ := newTestContext()
	left := &ast.Query{Clauses: []ast.Clause{&ast.Return{Items: []ast.ReturnItem{{Expr: &ast.Literal{}, Alias: "x"}}}}}
	right := &ast.Query{Clauses: []ast.Clause{&ast.Return{Items: []ast.ReturnItem{
		{Expr: &ast.Literal{}, Alias: "x"},
		{Expr: &ast.Literal{}, Alias: "y"},
	}}}}
	u := &ast.Union{Op: ast.UnionAll, Left: left, Right: right}

	_, err := transformUnion(context.Background(), ctx, u)
	require.Error(t, err)
	kind, ok := cqlerr.Of(err)
	require.True(t, ok)
	assert.Equal(t, cqlerr.UnionColumnMismatch, kind)
}

func TestUnwindDetectsDuplicateAlias(t *testing.T) {
	ctx, _ := newTestContext()
	match := &ast.Match{Patterns: []ast.PathPattern{simplePath("a", "r", "b", ast.DirRight)}}
	ret := &ast.Return{Items: []ast.ReturnItem{{Expr: varExpr("a")}}}
	prevQ := &ast.Query{Clauses: []ast.Clause{match, ret}}
	prev, err := TransformQuery(context.Background(), ctx, prevQ)
	require.NoError(t, err)

	unwind := &ast.Unwind{Expr: &ast.ListLiteral{}, As: "a"}
	_, err = transformUnwind(ctx, prev, unwind)
	require.Error(t, err)
	kind, ok := cqlerr.Of(err)
	require.True(t, ok)
	assert.Equal(t, cqlerr.DuplicateAlias, kind)
}

func TestDeleteResolvesTuplePosition(t *testing.T) {
	ctx, _ := newTestContext()
	prev := &Query{TargetList: []*TargetEntry{{ResName: "n", Resno: 1}}}
	del := &ast.Delete{Targets: []ast.Expr{varExpr("n")}}
	out, err := transformDelete(ctx, prev, del)
	require.NoError(t, err)
	require.NotNil(t, out.DeleteMeta)
	require.Len(t, out.DeleteMeta.Items, 1)
	assert.Equal(t, 1, out.DeleteMeta.Items[0].TuplePosition)
}

func TestCreateRejectsUndirectedRelationship(t *testing.T) {
	ctx, _ := newTestContext()
	path := ast.PathPattern{
		Nodes: []ast.NodePattern{{Variable: "a"}, {Variable: "b"}},
		Rels:  []ast.RelPattern{{Variable: "r", Labels: []string{"KNOWS"}, Direction: ast.DirNone}},
	}
	create := &ast.Create{Patterns: []ast.PathPattern{path}}
	_, err := transformCreate(context.Background(), ctx, nil, create)
	require.Error(t, err)
	kind, ok := cqlerr.Of(err)
	require.True(t, ok)
	assert.Equal(t, cqlerr.DirectedRelationshipRequired, kind)
}

func TestCreateRejectsMissingEdgeLabel(t *testing.T) {
	ctx, _ := newTestContext()
	path := ast.PathPattern{
		Nodes: []ast.NodePattern{{Variable: "a"}, {Variable: "b"}},
		Rels:  []ast.RelPattern{{Variable: "r", Direction: ast.DirRight}},
	}
	create := &ast.Create{Patterns: []ast.PathPattern{path}}
	_, err := transformCreate(context.Background(), ctx, nil, create)
	require.Error(t, err)
	kind, ok := cqlerr.Of(err)
	require.True(t, ok)
	assert.Equal(t, cqlerr.EdgeLabelRequired, kind)
}

func TestSetRejectsFirstClause(t *testing.T) {
	ctx, _ := newTestContext()
	set := &ast.Set{Items: []ast.SetItem{{Target: &ast.PropertyAccess{Target: varExpr("n"), Key: "age"}, Value: &ast.Literal{}}}}
	_, err := transformSet(ctx, nil, set)
	require.Error(t, err)
	kind, ok := cqlerr.Of(err)
	require.True(t, ok)
	assert.Equal(t, cqlerr.FirstClauseIllegal, kind)
}

func TestSetRejectsNestedPropertyPath(t *testing.T) {
	ctx, _ := newTestContext()
	_, err := ctx.Registry.Make("n", txregistry.KindVertex)
	require.NoError(t, err)
	prev := &Query{TargetList: []*TargetEntry{{ResName: "n", Resno: 1}}}

	nested := &ast.PropertyAccess{Target: &ast.PropertyAccess{Target: varExpr("n"), Key: "addr"}, Key: "city"}
	set := &ast.Set{Items: []ast.SetItem{{Target: nested, Value: &ast.Literal{}}}}
	_, err = transformSet(ctx, prev, set)
	require.Error(t, err)
	kind, ok := cqlerr.Of(err)
	require.True(t, ok)
	assert.Equal(t, cqlerr.NestedPropertyUpdateUnsupported, kind)
}

func TestSetRejectsAddPropertiesFromMap(t *testing.T) {
	ctx, _ := newTestContext()
	_, err := ctx.Registry.Make("n", txregistry.KindVertex)
	require.NoError(t, err)
	prev := &Query{TargetList: []*TargetEntry{{ResName: "n", Resno: 1}}}

	set := &ast.Set{Items: []ast.SetItem{{Target: varExpr("n"), Value: &ast.Literal{}, IsMerge: true}}}
	_, err = transformSet(ctx, prev, set)
	require.Error(t, err)
	kind, ok := cqlerr.Of(err)
	require.True(t, ok)
	assert.Equal(t, cqlerr.AddPropertiesFromMapUnsupported, kind)
}

func TestMergeWithNoPreviousClauseBuildsMatchLikeQuery(t *testing.T) {
	ctx, _ := newTestContext()
	merge := &ast.Merge{Pattern: simplePath("a", "r", "b", ast.DirRight)}
	out, err := transformMerge(context.Background(), ctx, nil, merge)
	require.NoError(t, err)
	require.NotNil(t, out.MergeMeta)
	assert.NotNil(t, out.MarkerCall)
	assert.Equal(t, "merge_clause", out.MarkerCall.Name)
}

func TestMergeTreatsVariableBoundInPriorClauseAsExists(t *testing.T) {
	ctx, _ := newTestContext()
	match := &ast.Match{Patterns: []ast.PathPattern{{Nodes: []ast.NodePattern{{Variable: "a", Labels: []string{"Person"}}}}}}
	merge := &ast.Merge{Pattern: simplePath("a", "r", "b", ast.DirRight)}
	q := &ast.Query{Clauses: []ast.Clause{match, merge}}

	out, err := TransformQuery(context.Background(), ctx, q)
	require.NoError(t, err)
	require.NotNil(t, out.MergeMeta)

	var aNode, bNode *TargetNode
	for _, n := range out.MergeMeta.Nodes {
		switch n.VariableName {
		case "a":
			aNode = n
		case "b":
			bNode = n
		}
	}
	require.NotNil(t, aNode)
	require.NotNil(t, bNode)
	assert.False(t, aNode.Insert, "a was bound by the MATCH clause and should only be referenced by id")
	assert.True(t, bNode.Insert, "b is freshly bound by this MERGE and should be an insert candidate")
}

func TestMergeRejectsEdgeWithoutLabel(t *testing.T) {
	ctx, _ := newTestContext()
	path := ast.PathPattern{
		Nodes: []ast.NodePattern{{Variable: "a"}, {Variable: "b"}},
		Rels:  []ast.RelPattern{{Variable: "r", Direction: ast.DirRight}},
	}
	merge := &ast.Merge{Pattern: path}
	_, err := transformMerge(context.Background(), ctx, nil, merge)
	require.Error(t, err)
	kind, ok := cqlerr.Of(err)
	require.True(t, ok)
	assert.Equal(t, cqlerr.EdgeLabelRequired, kind)
}

func TestVLEPatternSynthesizesLateralRangeFunction(t *testing.T) {
	ctx, _ := newTestContext()
	lo, hi := 1, 3
	path := ast.PathPattern{
		Nodes: []ast.NodePattern{{Variable: "a"}, {Variable: "b"}},
		Rels:  []ast.RelPattern{{Variable: "path", Labels: []string{"KNOWS"}, Direction: ast.DirRight, HasStar: true, MinHops: &lo, MaxHops: &hi}},
	}
	match := &ast.Match{Patterns: []ast.PathPattern{path}}
	out, err := transformMatch(context.Background(), ctx, nil, match)
	require.NoError(t, err)
	require.Len(t, out.RangeTable, 1)
	assert.Equal(t, RteFunction, out.RangeTable[0].Kind)
	assert.Equal(t, "vle", out.RangeTable[0].FuncCall.Name)
	assert.Equal(t, []string{"edges"}, out.RangeTable[0].FuncColumns)
}

func TestValidateExprRejectsUndefinedVariable(t *testing.T) {
	ctx, _ := newTestContext()
	err := validateExpr(context.Background(), ctx, varExpr("ghost"))
	require.Error(t, err)
	kind, ok := cqlerr.Of(err)
	require.True(t, ok)
	assert.Equal(t, cqlerr.UndefinedVariable, kind)
}
