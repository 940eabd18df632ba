package transform

import (
	"context"

	"cyquery/internal/ast"
	"cyquery/internal/cqlerr"
)

// MergeMetadata is the payload carried by merge_clause(...). Nodes
// describes the create-fallback shape of the pattern (same descriptor
// type CREATE uses); OnCreate/OnMatch carry the two SET-item lists run
// conditionally by the executor depending on which branch fired.
type MergeMetadata struct {
	GraphOID int64
	Nodes    []*TargetNode
	OnCreate []SetItemMeta
	OnMatch  []SetItemMeta
}

// transformMerge implements spec.md §4.13. Per this module's single-
// resolution design, the pattern is walked exactly once via
// transformPathPattern: that single walk both produces the match-style
// quals used by both code paths below and leaves every pattern entity
// registered, so the create-fallback descriptor pass that follows is
// pure bookkeeping over already-resolved entities rather than a second
// transform of the same pattern (the original's two separate
// transform_cypher_merge_path calls are collapsed into this one).
func transformMerge(gctx context.Context, ctx *Context, prev *Query, c *ast.Merge) (*Query, error) {
	if err := validateMergeEdges(ctx, c.Pattern); err != nil {
		return nil, err
	}

	res, err := transformPathPattern(gctx, ctx, c.Pattern)
	if err != nil {
		return nil, err
	}

	nodes := mergeTargetNodes(ctx, c.Pattern)

	onCreate, createTargets, err := buildSetMetas(ctx, c.OnCreate, 0)
	if err != nil {
		return nil, err
	}
	onMatch, matchTargets, err := buildSetMetas(ctx, c.OnMatch, len(createTargets))
	if err != nil {
		return nil, err
	}

	meta := &MergeMetadata{GraphOID: ctx.GraphOID, Nodes: nodes, OnCreate: onCreate, OnMatch: onMatch}
	marker := &ast.FunctionCall{Name: "merge_clause", Args: []ast.Expr{&ast.Parameter{Name: "merge_clause_info"}}}

	matchRange := append([]*RangeTblEntry(nil), res.RangeTable...)
	matchTarget := append(append([]*TargetEntry(nil), createTargets...), matchTargets...)
	if res.PathTarget != nil {
		res.PathTarget.Resno = len(matchTarget) + 1
		matchTarget = append(matchTarget, res.PathTarget)
	}
	matchQual := andExprs(res.Quals...)

	if prev == nil {
		// No previous clause: the pattern stands alone as a MATCH that
		// the executor falls back to creating from when empty.
		return &Query{
			RangeTable: matchRange,
			JoinQual:   matchQual,
			TargetList: matchTarget,
			MarkerCall: marker,
			MergeMeta:  meta,
		}, nil
	}

	// With a previous clause: a lateral-left-join keeps every previous
	// row even when the merge pattern fails to match, so the
	// create-fallback can fire once per such row.
	left := &RangeTblEntry{Kind: RteSubquery, Name: "_prev", Subquery: prev}
	matchSub := &Query{RangeTable: matchRange, JoinQual: matchQual, TargetList: matchTarget}
	wrapped := &RangeTblEntry{
		Kind:     RteJoin,
		JoinType: JoinLateralLeft,
		Left:     left,
		Right:    &RangeTblEntry{Kind: RteSubquery, Name: "_merge", Subquery: matchSub},
		JoinQual: matchQual,
	}

	combined := append(append([]*TargetEntry(nil), prev.TargetList...), matchTarget...)

	return &Query{
		RangeTable: []*RangeTblEntry{wrapped},
		TargetList: combined,
		MarkerCall: marker,
		MergeMeta:  meta,
	}, nil
}

// validateMergeEdges enforces spec.md §4.13's "edges must be
// newly-bound and must have a label" rule.
func validateMergeEdges(ctx *Context, path ast.PathPattern) error {
	for _, rel := range path.Rels {
		if rel.Variable != "" {
			if _, ok := ctx.Registry.FindByName(rel.Variable); ok {
				return cqlerr.New(cqlerr.VariableRedeclared, "MERGE relationship variable %q is already bound", rel.Variable)
			}
		}
		if len(rel.Labels) == 0 {
			return cqlerr.New(cqlerr.EdgeLabelRequired, "MERGE requires a label on every relationship")
		}
	}
	return nil
}

// mergeTargetNodes builds the create-fallback descriptor list from an
// already-resolved pattern: a node whose variable pre-existed outside
// this MERGE's own pattern (i.e. was declared before this clause) is
// "exists" and only its id is referenced; every edge and every
// not-previously-known vertex is an insert candidate, per spec.md
// §4.13's closing sentence.
func mergeTargetNodes(ctx *Context, path ast.PathPattern) []*TargetNode {
	var nodes []*TargetNode
	for i, n := range path.Nodes {
		name := n.Variable
		insert := true
		if name != "" {
			if e, ok := ctx.Registry.FindByName(name); ok && !e.DeclaredInCurrentClause {
				insert = false
			}
		}
		nodes = append(nodes, &TargetNode{
			Kind:         TargetNodeVertex,
			LabelName:    firstLabel(n.Labels),
			VariableName: name,
			IDExpr:       propertyOf(orAnon(name, i, "node"), "id"),
			IsVariable:   name != "",
			Insert:       insert,
		})
		if i >= len(path.Rels) {
			continue
		}
		rel := path.Rels[i]
		dir := rel.Direction
		nodes = append(nodes, &TargetNode{
			Kind:         TargetNodeEdge,
			LabelName:    firstLabel(rel.Labels),
			VariableName: rel.Variable,
			IDExpr:       propertyOf(orAnon(rel.Variable, i, "edge"), "id"),
			Direction:    &dir,
			IsVariable:   rel.Variable != "",
			Insert:       true,
		})
	}
	return nodes
}

func orAnon(name string, idx int, prefix string) string {
	if name != "" {
		return name
	}
	return anonName(prefix)
}

// buildSetMetas adapts ON CREATE / ON MATCH's SetItem lists (the same
// shape SET uses) into SetItemMeta entries, reusing propertyTarget's
// one-level-deep validation.
func buildSetMetas(ctx *Context, items []ast.SetItem, startResno int) ([]SetItemMeta, []*TargetEntry, error) {
	var metas []SetItemMeta
	var targets []*TargetEntry
	resno := startResno
	for _, item := range items {
		if item.IsMerge {
			return nil, nil, cqlerr.New(cqlerr.AddPropertiesFromMapUnsupported, "n += {...} is not supported")
		}
		if item.IsAddLabel {
			v, ok := item.Target.(*ast.Variable)
			if !ok {
				return nil, nil, cqlerr.New(cqlerr.NestedPropertyUpdateUnsupported, "label add target must be a bare variable")
			}
			metas = append(metas, SetItemMeta{VariableName: v.Name, IsAddLabel: true, Label: item.Label})
			continue
		}
		varName, prop, err := propertyTarget(ctx, item.Target)
		if err != nil {
			return nil, nil, err
		}
		resno++
		wrapped := &ast.FunctionCall{Name: "_preserve_volatile", Args: []ast.Expr{item.Value}}
		targets = append(targets, &TargetEntry{Expr: wrapped, Resno: resno, Junk: true})
		metas = append(metas, SetItemMeta{VariableName: varName, Property: prop, ValueExpr: item.Value, TuplePosition: resno})
	}
	return metas, targets, nil
}
