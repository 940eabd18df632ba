package transform

import (
	"context"

	"cyquery/internal/ast"
	"cyquery/internal/cqlerr"
)

// transformReturn implements spec.md §4.4: wrap any previous clause as
// a sub-query range-table entry, project each item, derive automatic
// GROUP BY from non-aggregate expressions, resolve ORDER BY against
// the target list, and apply DISTINCT/SKIP/LIMIT.
func transformReturn(gctx context.Context, ctx *Context, prev *Query, c *ast.Return) (*Query, error) {
	return transformProjection(gctx, ctx, prev, c)
}

// transformWith implements the With wrapper described in spec.md
// §4.4's last paragraph: the inner projection is transformed first,
// and if a WHERE is present the projection is wrapped as a further
// sub-query so WHERE applies after grouping/aggregation, matching the
// original's "wrap as subquery, apply WHERE at outer level" rule.
func transformWith(gctx context.Context, ctx *Context, prev *Query, c *ast.With) (*Query, error) {
	var inner *Query
	var err error
	if c.ProjectsStarOnly && prev != nil {
		// `WITH *` passes every column of the previous clause through.
		inner = &Query{RangeTable: []*RangeTblEntry{{Kind: RteSubquery, Name: "_prev", Subquery: prev}}, TargetList: passthroughOf(prev)}
	} else if inner, err = transformProjection(gctx, ctx, prev, &c.Return); err != nil {
		return nil, err
	}
	if c.Where == nil {
		return inner, nil
	}
	if err := validateExpr(gctx, ctx, c.Where); err != nil {
		return nil, err
	}
	rte := &RangeTblEntry{Kind: RteSubquery, Name: "_with", Subquery: inner}
	return &Query{
		RangeTable: []*RangeTblEntry{rte},
		TargetList: passthroughOf(inner),
		JoinQual:   c.Where,
	}, nil
}

func passthroughOf(q *Query) []*TargetEntry {
	out := make([]*TargetEntry, len(q.TargetList))
	for i, te := range q.TargetList {
		out[i] = &TargetEntry{Expr: variableRef(te.ResName), ResName: te.ResName, Resno: i + 1}
	}
	return out
}

func isAggregateCall(e ast.Expr) bool {
	fc, ok := e.(*ast.FunctionCall)
	if !ok {
		return false
	}
	switch fc.Name {
	case "count", "sum", "avg", "min", "max", "collect":
		return true
	}
	return false
}

// transformProjection is the shared body of RETURN and WITH.
func transformProjection(gctx context.Context, ctx *Context, prev *Query, r *ast.Return) (*Query, error) {
	var rangeTable []*RangeTblEntry
	if prev != nil {
		rangeTable = append(rangeTable, &RangeTblEntry{Kind: RteSubquery, Name: "_prev", Subquery: prev})
	}

	var targets []*TargetEntry
	var groupCandidates []ast.Expr
	hasAggregate := false

	for i, item := range r.Items {
		if err := validateExpr(gctx, ctx, item.Expr); err != nil {
			return nil, err
		}
		name := item.Alias
		if name == "" {
			if v, ok := item.Expr.(*ast.Variable); ok {
				name = v.Name
			}
		}
		targets = append(targets, &TargetEntry{Expr: item.Expr, ResName: name, Resno: i + 1})
		if isAggregateCall(item.Expr) {
			hasAggregate = true
		} else {
			groupCandidates = append(groupCandidates, item.Expr)
		}
	}

	var groupBy []GroupItem
	if hasAggregate {
		for _, cand := range groupCandidates {
			if resno := resolveTargetRef(targets, cand); resno != 0 {
				groupBy = append(groupBy, GroupItem{Resno: resno})
			}
		}
	}

	var sortBy []SortItem
	for _, s := range r.OrderBy {
		if err := validateExpr(gctx, ctx, s.Expr); err != nil {
			return nil, err
		}
		resno := resolveTargetRef(targets, s.Expr)
		if resno == 0 {
			if prev != nil && prev.SetOp != nil {
				return nil, cqlerr.New(cqlerr.InvalidUnionOrderBy, "ORDER BY over a UNION must reference an output column")
			}
			return nil, cqlerr.New(cqlerr.InternalInvariantViolated, "ORDER BY expression does not match any target list entry")
		}
		sortBy = append(sortBy, SortItem{Resno: resno, Descending: s.Descending})
	}

	if r.Skip != nil {
		if err := validateExpr(gctx, ctx, r.Skip); err != nil {
			return nil, err
		}
	}
	if r.Limit != nil {
		if err := validateExpr(gctx, ctx, r.Limit); err != nil {
			return nil, err
		}
	}

	return &Query{
		RangeTable: rangeTable,
		TargetList: targets,
		GroupBy:    groupBy,
		SortBy:     sortBy,
		Distinct:   r.Distinct,
		Skip:       r.Skip,
		Limit:      r.Limit,
	}, nil
}

// resolveTargetRef matches e against a target list entry by structural
// equality (spec.md §4.4 point 3's "after stripping implicit
// coercions" — this module has no coercion layer, so a direct
// comparison suffices) or by bare-variable name against a ResName,
// returning its 1-based Resno, or 0 if no entry matches.
func resolveTargetRef(targets []*TargetEntry, e ast.Expr) int {
	if v, ok := e.(*ast.Variable); ok {
		for _, te := range targets {
			if te.ResName == v.Name {
				return te.Resno
			}
		}
	}
	for _, te := range targets {
		if exprEqual(te.Expr, e) {
			return te.Resno
		}
	}
	return 0
}

func exprEqual(a, b ast.Expr) bool {
	switch x := a.(type) {
	case *ast.Variable:
		y, ok := b.(*ast.Variable)
		return ok && x.Name == y.Name
	case *ast.PropertyAccess:
		y, ok := b.(*ast.PropertyAccess)
		return ok && x.Key == y.Key && exprEqual(x.Target, y.Target)
	case *ast.FunctionCall:
		y, ok := b.(*ast.FunctionCall)
		if !ok || x.Name != y.Name || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !exprEqual(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
