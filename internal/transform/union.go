package transform

import (
	"context"

	"cyquery/internal/ast"
	"cyquery/internal/cqlerr"
)

// transformUnion implements spec.md §4.5: each branch is recursively
// transformed as its own full clause chain (becoming a leaf wrapping a
// sub-query), column shape is reconciled by name and count
// (UnionColumnMismatch on a leg-count mismatch), and the combining op
// is recorded in a SetOperationTree. Point 5's recursive-CTE rejection
// is structural here — this AST has no recursive-CTE clause variant to
// reach this function through, so nothing further is needed.
func transformUnion(gctx context.Context, ctx *Context, c *ast.Union) (*Query, error) {
	leftCtx := &Context{Registry: ctx.Registry.NewClauseScope(), Catalog: ctx.Catalog, Cache: ctx.Cache, GraphOID: ctx.GraphOID}
	rightCtx := &Context{Registry: ctx.Registry.NewClauseScope(), Catalog: ctx.Catalog, Cache: ctx.Cache, GraphOID: ctx.GraphOID}

	left, err := TransformQuery(gctx, leftCtx, c.Left)
	if err != nil {
		return nil, err
	}
	right, err := TransformQuery(gctx, rightCtx, c.Right)
	if err != nil {
		return nil, err
	}

	if len(left.TargetList) != len(right.TargetList) {
		return nil, cqlerr.New(cqlerr.UnionColumnMismatch, "union branches have %d and %d columns", len(left.TargetList), len(right.TargetList))
	}
	for i, lte := range left.TargetList {
		rte := right.TargetList[i]
		if lte.ResName != rte.ResName {
			return nil, cqlerr.New(cqlerr.UnionColumnMismatch, "union column %d named %q on the left and %q on the right", i+1, lte.ResName, rte.ResName)
		}
	}

	op := SetOpUnionAll
	if c.Op == ast.UnionDistinct {
		op = SetOpUnion
	}

	reconciled := make([]*TargetEntry, len(left.TargetList))
	for i, lte := range left.TargetList {
		reconciled[i] = &TargetEntry{ResName: lte.ResName, Resno: i + 1}
	}

	return &Query{
		TargetList: reconciled,
		SetOp: &SetOperationTree{
			Op:   op,
			Left: &SetOperationTree{LeafQuery: left},
			Right: &SetOperationTree{LeafQuery: right},
		},
	}, nil
}
