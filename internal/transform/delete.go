package transform

import (
	"cyquery/internal/ast"
	"cyquery/internal/cqlerr"
)

// DeleteItem mirrors spec.md §4.12's items[i] = {variable_name, tuple_position}.
type DeleteItem struct {
	VariableName  string
	TuplePosition int
}

// DeleteMetadata is the payload carried by delete_clause(...).
type DeleteMetadata struct {
	Items  []DeleteItem
	Detach bool
}

// transformDelete implements spec.md §4.12: every target must already
// be a bound column reference, DELETE cannot be the first clause.
func transformDelete(ctx *Context, prev *Query, c *ast.Delete) (*Query, error) {
	if prev == nil {
		return nil, cqlerr.New(cqlerr.FirstClauseIllegal, "DELETE cannot be the first clause")
	}

	meta := &DeleteMetadata{Detach: c.Detach}

	for _, target := range c.Targets {
		v, ok := target.(*ast.Variable)
		if !ok {
			return nil, cqlerr.New(cqlerr.NestedPropertyUpdateUnsupported, "DELETE target must be a bare variable reference")
		}
		resno := 0
		for _, te := range prev.TargetList {
			if te.ResName == v.Name {
				resno = te.Resno
				break
			}
		}
		if resno == 0 {
			return nil, cqlerr.New(cqlerr.UndefinedVariable, "variable %q is not defined", v.Name)
		}
		meta.Items = append(meta.Items, DeleteItem{VariableName: v.Name, TuplePosition: resno})
	}

	return &Query{
		TargetList: append([]*TargetEntry(nil), prev.TargetList...),
		MarkerCall: &ast.FunctionCall{Name: "delete_clause", Args: []ast.Expr{&ast.Parameter{Name: "delete_clause_info"}}},
		DeleteMeta: meta,
	}, nil
}
