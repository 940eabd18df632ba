package transform

import (
	"context"

	"cyquery/internal/ast"
)

// transformMatch implements spec.md §4.6: each comma-joined pattern
// contributes its own range-table slice and join quals, ANDed together
// along with WHERE; OPTIONAL MATCH instead wraps the whole pattern set
// in a single lateral left join against the previous clause's query so
// an unmatched pattern yields NULLs rather than dropping the row,
// grounded on transform_cypher_match's two code paths in
// cypher_clause.c.
func transformMatch(gctx context.Context, ctx *Context, prev *Query, c *ast.Match) (*Query, error) {
	var entries []*TargetEntry
	if prev != nil {
		entries = append(entries, prev.TargetList...)
	}

	var rangeTable []*RangeTblEntry
	var quals []ast.Expr

	for _, pat := range c.Patterns {
		res, err := transformPathPattern(gctx, ctx, pat)
		if err != nil {
			return nil, err
		}
		rangeTable = append(rangeTable, res.RangeTable...)
		quals = append(quals, res.Quals...)
		if res.PathTarget != nil {
			res.PathTarget.Resno = len(entries) + 1
			entries = append(entries, res.PathTarget)
		}
	}

	if c.Where != nil {
		if err := validateExpr(gctx, ctx, c.Where); err != nil {
			return nil, err
		}
		quals = append(quals, c.Where)
	}

	combinedQual := andExprs(quals...)

	out := &Query{
		TargetList: entries,
		RangeTable: rangeTable,
		JoinQual:   combinedQual,
	}

	if c.Optional {
		left := &RangeTblEntry{Kind: RteSubquery, Name: "_prev", Subquery: prev}
		right := &RangeTblEntry{Kind: RteSubquery, Name: "_optional", Subquery: out}
		wrapped := &RangeTblEntry{
			Kind:     RteJoin,
			JoinType: JoinLateralLeft,
			Left:     left,
			Right:    right,
			JoinQual: combinedQual,
		}
		return &Query{
			TargetList: entries,
			RangeTable: []*RangeTblEntry{wrapped},
		}, nil
	}

	return out, nil
}
