package transform

import (
	"cyquery/internal/ast"
	"cyquery/internal/cqlerr"
)

// SetMetadata is the payload carried by set_clause(...).
type SetMetadata struct {
	Items []SetItemMeta
}

type SetItemMeta struct {
	VariableName string
	Property     string
	ValueExpr    ast.Expr
	IsAddLabel   bool
	Label        string
	TuplePosition int
}

// RemoveMetadata is the payload carried by set_clause(remove_clause_info).
type RemoveMetadata struct {
	Items []SetItemMeta
}

// propertyTarget validates a SET/REMOVE target is exactly one level
// deep (variable.property) and that the variable is already bound,
// per spec.md §4.11.
func propertyTarget(ctx *Context, target ast.Expr) (varName, prop string, err error) {
	pa, ok := target.(*ast.PropertyAccess)
	if !ok {
		return "", "", cqlerr.New(cqlerr.NestedPropertyUpdateUnsupported, "SET/REMOVE target must be variable.property")
	}
	v, ok := pa.Target.(*ast.Variable)
	if !ok {
		return "", "", cqlerr.New(cqlerr.NestedPropertyUpdateUnsupported, "property path is more than one segment deep")
	}
	if _, ok := ctx.Registry.FindByName(v.Name); !ok {
		return "", "", cqlerr.New(cqlerr.UndefinedVariable, "variable %q is not defined", v.Name)
	}
	return v.Name, pa.Key, nil
}

// transformSet implements spec.md §4.11's SET half.
func transformSet(ctx *Context, prev *Query, c *ast.Set) (*Query, error) {
	if prev == nil {
		return nil, cqlerr.New(cqlerr.FirstClauseIllegal, "SET cannot be the first clause")
	}

	targets := append([]*TargetEntry(nil), prev.TargetList...)
	meta := &SetMetadata{}
	resno := len(targets)

	for _, item := range c.Items {
		if item.IsMerge {
			return nil, cqlerr.New(cqlerr.AddPropertiesFromMapUnsupported, "n += {...} is not supported")
		}
		if item.IsAddLabel {
			v, ok := item.Target.(*ast.Variable)
			if !ok {
				return nil, cqlerr.New(cqlerr.NestedPropertyUpdateUnsupported, "label add target must be a bare variable")
			}
			if _, ok := ctx.Registry.FindByName(v.Name); !ok {
				return nil, cqlerr.New(cqlerr.UndefinedVariable, "variable %q is not defined", v.Name)
			}
			meta.Items = append(meta.Items, SetItemMeta{VariableName: v.Name, IsAddLabel: true, Label: item.Label})
			continue
		}

		varName, prop, err := propertyTarget(ctx, item.Target)
		if err != nil {
			return nil, err
		}

		// Value expressions are wrapped in a volatility-preserving
		// marker so the executor's projection cannot be pruned away
		// even when the set target is otherwise unreferenced.
		resno++
		wrapped := &ast.FunctionCall{Name: "_preserve_volatile", Args: []ast.Expr{item.Value}}
		targets = append(targets, &TargetEntry{Expr: wrapped, ResName: "", Resno: resno, Junk: true})
		meta.Items = append(meta.Items, SetItemMeta{
			VariableName:  varName,
			Property:      prop,
			ValueExpr:     item.Value,
			TuplePosition: resno,
		})
	}

	return &Query{
		TargetList: targets,
		MarkerCall: &ast.FunctionCall{Name: "set_clause", Args: []ast.Expr{&ast.Parameter{Name: "set_clause_info"}}},
		SetMeta:    meta,
	}, nil
}

// transformRemove implements spec.md §4.11's REMOVE half, the inverse
// of SET with no value expression.
func transformRemove(ctx *Context, prev *Query, c *ast.Remove) (*Query, error) {
	if prev == nil {
		return nil, cqlerr.New(cqlerr.FirstClauseIllegal, "REMOVE cannot be the first clause")
	}

	targets := append([]*TargetEntry(nil), prev.TargetList...)
	meta := &RemoveMetadata{}

	for _, item := range c.Items {
		if item.IsLabel {
			v, ok := item.Target.(*ast.Variable)
			if !ok {
				return nil, cqlerr.New(cqlerr.NestedPropertyUpdateUnsupported, "label remove target must be a bare variable")
			}
			if _, ok := ctx.Registry.FindByName(v.Name); !ok {
				return nil, cqlerr.New(cqlerr.UndefinedVariable, "variable %q is not defined", v.Name)
			}
			meta.Items = append(meta.Items, SetItemMeta{VariableName: v.Name, IsAddLabel: true, Label: item.Label})
			continue
		}

		varName, prop, err := propertyTarget(ctx, item.Target)
		if err != nil {
			return nil, err
		}
		meta.Items = append(meta.Items, SetItemMeta{VariableName: varName, Property: prop})
	}

	return &Query{
		TargetList: targets,
		MarkerCall: &ast.FunctionCall{Name: "set_clause", Args: []ast.Expr{&ast.Parameter{Name: "remove_clause_info"}}},
		RemoveMeta: meta,
	}, nil
}
