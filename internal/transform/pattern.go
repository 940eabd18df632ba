package transform

import (
	"context"
	"fmt"

	"cyquery/internal/ast"
	"cyquery/internal/bdm"
	"cyquery/internal/cqlerr"
	"cyquery/internal/labelcat"
	"cyquery/internal/txregistry"
)

// PatternResult is everything transformPathPattern produces for one
// path: the alternating entity expression list (for build_traversal),
// the boolean quals to AND into the jointree (join quals + property
// containment + edge uniqueness), and any lateral range-table entries
// a VLE hop synthesized.
type PatternResult struct {
	EntityExprs []ast.Expr
	Quals       []ast.Expr
	RangeTable  []*RangeTblEntry
	PathTarget  *TargetEntry // non-nil when the path itself is named
}

func literalInt(v int64) *ast.Literal { return &ast.Literal{Value: bdm.Int(v)} }
func literalStr(v string) *ast.Literal { return &ast.Literal{Value: bdm.String(v)} }

// buildVertexExpr mirrors spec.md §4.8: build_vertex(id, label_name(graph_id, id), properties).
func buildVertexExpr(ctx *Context, alias string) ast.Expr {
	idCol := propertyOf(alias, "id")
	labelCall := &ast.FunctionCall{Name: "label_name", Args: []ast.Expr{literalInt(ctx.GraphOID), idCol}}
	propsCol := propertyOf(alias, "properties")
	return &ast.FunctionCall{Name: "build_vertex", Args: []ast.Expr{idCol, labelCall, propsCol}}
}

// buildEdgeExpr mirrors build_edge(id, start_id, end_id, label_name(graph_id, id), properties).
func buildEdgeExpr(ctx *Context, alias string) ast.Expr {
	idCol := propertyOf(alias, "id")
	labelCall := &ast.FunctionCall{Name: "label_name", Args: []ast.Expr{literalInt(ctx.GraphOID), idCol}}
	return &ast.FunctionCall{Name: "build_edge", Args: []ast.Expr{
		idCol,
		propertyOf(alias, "start_id"),
		propertyOf(alias, "end_id"),
		labelCall,
		propertyOf(alias, "properties"),
	}}
}

func firstLabel(labels []string) string {
	if len(labels) == 0 {
		return ""
	}
	return labels[0]
}

// ensureLabel resolves (or auto-creates) a pattern element's label,
// per spec.md §4.10's "missing labels are auto-created" rule — applied
// uniformly here since MATCH against an as-yet-unseen label is simply
// one that matches nothing, not an error.
func ensureLabel(gctx context.Context, ctx *Context, name string, kind labelcat.LabelKind) (labelcat.Label, error) {
	if name == "" {
		return labelcat.Label{}, nil
	}
	return ctx.Catalog.EnsureLabel(gctx, name, kind)
}

// bindEntity resolves an existing variable or registers a new one,
// enforcing spec.md §4.8's redeclaration rule: re-binding an existing
// name as a different kind, or with any property constraint, is
// VariableRedeclared; otherwise the existing binding is reused as a bare
// variable reference instead of rebuilding its construction expression.
// Labels written on the re-binding are not compared with the existing
// binding's label.
func bindEntity(ctx *Context, name string, kind txregistry.EntityKind, hasNewConstraint bool) (expr ast.Expr, isNew bool, err error) {
	if existing, ok := ctx.Registry.FindByName(name); ok {
		if existing.Kind != kind || hasNewConstraint {
			return nil, false, cqlerr.New(cqlerr.VariableRedeclared, "variable %q already bound to a different shape", name)
		}
		return variableRef(name), false, nil
	}
	if _, err := ctx.Registry.Make(name, kind); err != nil {
		return nil, false, err
	}
	return nil, true, nil
}

var anonCounter int

func anonName(prefix string) string {
	anonCounter++
	return fmt.Sprintf("_%s_%d", prefix, anonCounter)
}

// transformPathPattern implements spec.md §4.7 end to end for one
// path: entity transformation, join-qual synthesis, edge-uniqueness,
// and VLE lateral range-function synthesis.
func transformPathPattern(gctx context.Context, ctx *Context, path ast.PathPattern) (*PatternResult, error) {
	res := &PatternResult{}

	aliases := make([]string, len(path.Nodes))
	for i, node := range path.Nodes {
		aliases[i] = node.Variable
		if aliases[i] == "" {
			adjacentVLE := (i > 0 && path.Rels[i-1].HasStar) || (i < len(path.Rels) && path.Rels[i].HasStar)
			if adjacentVLE {
				aliases[i] = anonName("node")
			}
		}
	}

	var edgeUniquenessRefs []ast.Expr
	var joinQuals []func() ast.Expr
	nodeLabelID := make(map[string]int64, len(path.Nodes))

	for i, node := range path.Nodes {
		named := node.Variable != ""
		alias := aliases[i]
		if alias == "" {
			alias = anonName("node")
			aliases[i] = alias
		}
		hasProps := node.Properties != nil
		var expr ast.Expr
		if named {
			var isNew bool
			var err error
			expr, isNew, err = bindEntity(ctx, alias, txregistry.KindVertex, hasProps)
			if err != nil {
				return nil, err
			}
			if isNew {
				label, err := ensureLabel(gctx, ctx, firstLabel(node.Labels), labelcat.LabelVertex)
				if err != nil {
					return nil, err
				}
				nodeLabelID[alias] = int64(label.ID)
				expr = buildVertexExpr(ctx, alias)
				ctx.Registry.MarkInJoinTree(alias)
			}
		} else {
			label, err := ensureLabel(gctx, ctx, firstLabel(node.Labels), labelcat.LabelVertex)
			if err != nil {
				return nil, err
			}
			nodeLabelID[alias] = int64(label.ID)
			expr = buildVertexExpr(ctx, alias)
		}
		if hasProps {
			res.Quals = append(res.Quals, containsExpr(propertyOf(alias, "properties"), node.Properties))
		}
		res.EntityExprs = append(res.EntityExprs, expr)

		if i >= len(path.Rels) {
			break
		}
		rel := path.Rels[i]

		if rel.HasStar {
			endAlias := aliases[i+1]
			rte, vleExpr, err := synthesizeVLE(ctx, rel, alias, endAlias)
			if err != nil {
				return nil, err
			}
			res.RangeTable = append(res.RangeTable, rte)
			if rel.Variable != "" {
				if _, err := ctx.Registry.Make(rel.Variable, txregistry.KindEdge); err != nil {
					return nil, err
				}
				ctx.Registry.MarkInJoinTree(rel.Variable)
			}
			res.EntityExprs = append(res.EntityExprs, vleExpr)
			edgeUniquenessRefs = append(edgeUniquenessRefs, vleExpr)
			continue
		}

		if rel.Direction == ast.DirNone {
			// undirected single-hop edges are legal under MATCH; the
			// DirectedRelationshipRequired check is CREATE-only,
			// enforced by transformCreate.
		}

		relAlias := rel.Variable
		hasRelProps := rel.Properties != nil
		var relExpr ast.Expr
		if relAlias != "" {
			var isNew bool
			var err error
			relExpr, isNew, err = bindEntity(ctx, relAlias, txregistry.KindEdge, hasRelProps)
			if err != nil {
				return nil, err
			}
			if isNew {
				if _, err := ensureLabel(gctx, ctx, firstLabel(rel.Labels), labelcat.LabelEdge); err != nil {
					return nil, err
				}
				relExpr = buildEdgeExpr(ctx, relAlias)
				ctx.Registry.MarkInJoinTree(relAlias)
			}
		} else {
			relAlias = anonName("edge")
			if _, err := ensureLabel(gctx, ctx, firstLabel(rel.Labels), labelcat.LabelEdge); err != nil {
				return nil, err
			}
			relExpr = buildEdgeExpr(ctx, relAlias)
		}
		if hasRelProps {
			res.Quals = append(res.Quals, containsExpr(propertyOf(relAlias, "properties"), rel.Properties))
		}
		res.EntityExprs = append(res.EntityExprs, relExpr)
		edgeUniquenessRefs = append(edgeUniquenessRefs, variableRef(relAlias))

		dir, node := rel.Direction, i
		joinQuals = append(joinQuals, func() ast.Expr {
			s, e := aliases[node], aliases[node+1]
			return joinQual(ctx, dir, relAlias, s, e, nodeLabelID[s], nodeLabelID[e])
		})
	}

	// join quals are built once every node of the path is bound, so each
	// endpoint's join-tree state and label id are known.
	for _, jq := range joinQuals {
		res.Quals = append(res.Quals, jq())
	}

	if path.Variable != "" {
		res.PathTarget = &TargetEntry{
			Expr:    &ast.FunctionCall{Name: "build_traversal", Args: append([]ast.Expr(nil), res.EntityExprs...)},
			ResName: path.Variable,
		}
		if _, err := ctx.Registry.Make(path.Variable, txregistry.KindValue); err != nil {
			return nil, err
		}
	}

	if len(edgeUniquenessRefs) >= 2 {
		res.Quals = append(res.Quals, &ast.FunctionCall{Name: "enforce_edge_uniqueness", Args: edgeUniquenessRefs})
	}

	return res, nil
}

// joinQual synthesizes the direction-aware predicate described in
// spec.md §4.7 point 3. For each endpoint still not in the join tree
// (anonymous nodes, which bindEntity/MarkInJoinTree never register),
// the id-equality conjunct is replaced by the label-id filter
// `_extract_label_id(e.{start|end}_id) = <label_id>` instead of joining
// against that vertex's row.
func joinQual(ctx *Context, dir ast.Direction, edgeAlias, startAlias, endAlias string, startLabelID, endLabelID int64) ast.Expr {
	startInTree := inJoinTree(ctx, startAlias)
	endInTree := inJoinTree(ctx, endAlias)

	startEq := func(edgeCol string) ast.Expr {
		if startInTree {
			return &ast.BinaryExpr{Op: ast.OpEq, Left: propertyOf(edgeAlias, edgeCol), Right: propertyOf(startAlias, "id")}
		}
		return extractLabelIDFilter(edgeAlias, edgeCol, startLabelID)
	}
	endEq := func(edgeCol string) ast.Expr {
		if endInTree {
			return &ast.BinaryExpr{Op: ast.OpEq, Left: propertyOf(edgeAlias, edgeCol), Right: propertyOf(endAlias, "id")}
		}
		return extractLabelIDFilter(edgeAlias, edgeCol, endLabelID)
	}

	right := &ast.BinaryExpr{Op: ast.OpAnd, Left: startEq("start_id"), Right: endEq("end_id")}
	left := &ast.BinaryExpr{Op: ast.OpAnd, Left: endEq("start_id"), Right: startEq("end_id")}

	switch dir {
	case ast.DirRight:
		return right
	case ast.DirLeft:
		return left
	default:
		return orExprs(right, left)
	}
}

// inJoinTree reports whether alias already has a row bound into the
// join tree; unregistered (anonymous) aliases have not.
func inJoinTree(ctx *Context, alias string) bool {
	e, ok := ctx.Registry.FindByName(alias)
	return ok && e.InJoinTree
}

// extractLabelIDFilter builds `_extract_label_id(e.col) = labelID`, the
// join-avoiding fallback for a vertex this path never bound into the
// jointree.
func extractLabelIDFilter(edgeAlias, edgeCol string, labelID int64) ast.Expr {
	call := &ast.FunctionCall{Name: "_extract_label_id", Args: []ast.Expr{propertyOf(edgeAlias, edgeCol)}}
	return &ast.BinaryExpr{Op: ast.OpEq, Left: call, Right: literalInt(labelID)}
}

// synthesizeVLE implements spec.md §4.7 point 1's VLE branch: a
// lateral range-function call vle(start, end, make_edge_template(...),
// lo, hi, direction) producing a single `edges` column of type
// VariableEdge.
func synthesizeVLE(ctx *Context, rel ast.RelPattern, startAlias, endAlias string) (*RangeTblEntry, ast.Expr, error) {
	lo := 1
	if rel.MinHops != nil {
		lo = *rel.MinHops
	}
	hiExpr := ast.Expr(&ast.Literal{Value: bdm.Null()})
	if rel.MaxHops != nil {
		hiExpr = literalInt(int64(*rel.MaxHops))
	}

	template := &ast.FunctionCall{Name: "make_edge_template", Args: []ast.Expr{
		literalStr(firstLabel(rel.Labels)),
		rel.Properties,
	}}

	call := &ast.FunctionCall{Name: "vle", Args: []ast.Expr{
		propertyOf(startAlias, "id"),
		propertyOf(endAlias, "id"),
		template,
		literalInt(int64(lo)),
		hiExpr,
		literalInt(int64(rel.Direction)),
	}}

	name := rel.Variable
	if name == "" {
		name = anonName("vle")
	}
	rte := &RangeTblEntry{
		Kind:        RteFunction,
		Name:        name,
		FuncCall:    call,
		FuncColumns: []string{"edges"},
	}
	return rte, propertyOf(name, "edges"), nil
}
