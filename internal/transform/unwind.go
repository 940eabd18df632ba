package transform

import (
	"cyquery/internal/ast"
	"cyquery/internal/cqlerr"
	"cyquery/internal/txregistry"
)

// transformUnwind implements spec.md §4.14: UNWIND expr AS name
// becomes a set-returning projection appending one target-list entry
// named `name`, duplicate-checked against the current target list.
func transformUnwind(ctx *Context, prev *Query, c *ast.Unwind) (*Query, error) {
	var targets []*TargetEntry
	var rangeTable []*RangeTblEntry
	if prev != nil {
		targets = append(targets, prev.TargetList...)
		rangeTable = append(rangeTable, &RangeTblEntry{Kind: RteSubquery, Name: "_prev", Subquery: prev})
	}

	for _, te := range targets {
		if te.ResName == c.As {
			return nil, cqlerr.New(cqlerr.DuplicateAlias, "UNWIND alias %q shadows an existing name", c.As)
		}
	}

	if _, err := ctx.Registry.Make(c.As, txregistry.KindValue); err != nil {
		return nil, err
	}

	call := &ast.FunctionCall{Name: "unwind", Args: []ast.Expr{c.Expr}}
	targets = append(targets, &TargetEntry{Expr: call, ResName: c.As, Resno: len(targets) + 1})

	return &Query{
		RangeTable: rangeTable,
		TargetList: targets,
	}, nil
}
