package transform

import (
	"context"

	"cyquery/internal/ast"
	"cyquery/internal/cqlerr"
	"cyquery/internal/gcache"
	"cyquery/internal/labelcat"
	"cyquery/internal/txregistry"
)

// Context is the per-query transformation state threaded through
// every clause transform: the entity registry (reset between clauses
// via NewClauseScope), and the read-only collaborators needed to
// resolve labels and synthesize VLE range functions.
type Context struct {
	Registry *txregistry.Registry
	Catalog  labelcat.Catalog
	Cache    gcache.Cache
	GraphOID int64
}

// NewContext starts a fresh transformation with an empty registry.
func NewContext(catalog labelcat.Catalog, cache gcache.Cache, graphOID int64) *Context {
	return &Context{Registry: txregistry.New(), Catalog: catalog, Cache: cache, GraphOID: graphOID}
}

// TransformQuery transforms a full clause chain in source order,
// threading each clause's output Query as the next clause's "previous
// clause" and clearing the registry's current-clause flags in between
// (spec.md §4.3's "registry carries over, but declared_in_current_clause
// resets" rule).
func TransformQuery(gctx context.Context, ctx *Context, q *ast.Query) (*Query, error) {
	var prev *Query
	for i, clause := range q.Clauses {
		out, err := TransformClause(gctx, ctx, prev, clause)
		if err != nil {
			return nil, err
		}
		if out.CreateMeta != nil && i != len(q.Clauses)-1 {
			out.CreateMeta.Terminal = false
		}
		prev = out
		ctx.Registry = ctx.Registry.NewClauseScope()
	}
	if prev == nil {
		return nil, cqlerr.New(cqlerr.InternalInvariantViolated, "empty clause chain")
	}
	return finalize(prev), nil
}

// TransformClause dispatches one clause to its transform function.
// The exhaustive type switch over ast.Clause's closed sum means a new
// clause kind fails to compile here rather than panicking at runtime.
func TransformClause(gctx context.Context, ctx *Context, prev *Query, clause ast.Clause) (*Query, error) {
	switch c := clause.(type) {
	case *ast.With:
		return transformWith(gctx, ctx, prev, c)
	case *ast.Return:
		return transformReturn(gctx, ctx, prev, c)
	case *ast.Union:
		return transformUnion(gctx, ctx, c)
	case *ast.Match:
		return transformMatch(gctx, ctx, prev, c)
	case *ast.Create:
		return transformCreate(gctx, ctx, prev, c)
	case *ast.Set:
		return transformSet(ctx, prev, c)
	case *ast.Remove:
		return transformRemove(ctx, prev, c)
	case *ast.Delete:
		return transformDelete(ctx, prev, c)
	case *ast.Merge:
		return transformMerge(gctx, ctx, prev, c)
	case *ast.Unwind:
		return transformUnwind(ctx, prev, c)
	default:
		return nil, cqlerr.New(cqlerr.InternalInvariantViolated, "transform: unhandled clause type %T", clause)
	}
}
