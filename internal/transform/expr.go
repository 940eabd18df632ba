package transform

import (
	"context"

	"cyquery/internal/ast"
	"cyquery/internal/cqlerr"
)

// validateExpr walks an already-parsed expression tree and checks the
// one thing the transformer (as opposed to a full type-checker) is
// responsible for per spec.md §4.8: every bare Variable leaf must
// already be registered. "Under a WHERE, only existing variables may
// be referenced — a new binding attempt fails with UndefinedVariable."
// A nested sub-pattern (ast.SubPattern) is not transformed: it is
// rejected with SubPatternPredicateUnsupported.
func validateExpr(gctx context.Context, ctx *Context, e ast.Expr) error {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case *ast.Literal, *ast.Parameter:
		return nil
	case *ast.Variable:
		if _, ok := ctx.Registry.FindByName(n.Name); !ok {
			return cqlerr.New(cqlerr.UndefinedVariable, "variable %q is not defined", n.Name)
		}
		return nil
	case *ast.PropertyAccess:
		return validateExpr(gctx, ctx, n.Target)
	case *ast.PropertyMap:
		for _, v := range n.Values {
			if err := validateExpr(gctx, ctx, v); err != nil {
				return err
			}
		}
		return nil
	case *ast.ListLiteral:
		for _, v := range n.Elements {
			if err := validateExpr(gctx, ctx, v); err != nil {
				return err
			}
		}
		return nil
	case *ast.BinaryExpr:
		if err := validateExpr(gctx, ctx, n.Left); err != nil {
			return err
		}
		return validateExpr(gctx, ctx, n.Right)
	case *ast.UnaryExpr:
		return validateExpr(gctx, ctx, n.Operand)
	case *ast.FunctionCall:
		for _, a := range n.Args {
			if err := validateExpr(gctx, ctx, a); err != nil {
				return err
			}
		}
		return nil
	case *ast.CastExpr:
		return validateExpr(gctx, ctx, n.Operand)
	case *ast.SubPattern:
		// TODO(spec.md §4.7 point 5): a parenthesized pattern used as a
		// predicate needs to become a sub-link expression (an EXISTS
		// wrapping the pattern's own range table and quals) wired into
		// the enclosing qual tree, not just checked for variable
		// validity. internal/cyparse/parser.go does not yet construct
		// ast.SubPattern, so this is unreached; reject explicitly
		// instead of silently approving a predicate that would not be
		// evaluated.
		return cqlerr.New(cqlerr.SubPatternPredicateUnsupported, "pattern predicates are not supported")
	default:
		return cqlerr.New(cqlerr.InternalInvariantViolated, "transform: unhandled expr type %T", e)
	}
}

// andExprs combines a non-empty list of boolean expressions with AND,
// left-associatively, matching how cypher_clause.c folds qual lists.
func andExprs(exprs ...ast.Expr) ast.Expr {
	var filtered []ast.Expr
	for _, e := range exprs {
		if e != nil {
			filtered = append(filtered, e)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	out := filtered[0]
	for _, e := range filtered[1:] {
		out = &ast.BinaryExpr{Op: ast.OpAnd, Left: out, Right: e}
	}
	return out
}

func orExprs(a, b ast.Expr) ast.Expr {
	return &ast.BinaryExpr{Op: ast.OpOr, Left: a, Right: b}
}

func variableRef(name string) *ast.Variable { return &ast.Variable{Name: name} }

func propertyOf(name, key string) *ast.PropertyAccess {
	return &ast.PropertyAccess{Target: variableRef(name), Key: key}
}

func containsExpr(target ast.Expr, literal ast.Expr) ast.Expr {
	return &ast.BinaryExpr{Op: ast.OpContains, Left: target, Right: literal}
}
