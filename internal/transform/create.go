package transform

import (
	"context"

	"cyquery/internal/ast"
	"cyquery/internal/cqlerr"
	"cyquery/internal/labelcat"
	"cyquery/internal/txregistry"
)

// TargetNodeKind distinguishes the two target_node descriptor shapes
// spec.md §4.10 describes.
type TargetNodeKind uint8

const (
	TargetNodeVertex TargetNodeKind = iota
	TargetNodeEdge
)

// TargetNode mirrors spec.md §4.10's target_node descriptor.
type TargetNode struct {
	Kind          TargetNodeKind
	LabelName     string
	VariableName  string // empty for an anonymous element
	IDExpr        ast.Expr
	PropertiesExpr ast.Expr
	TuplePosition int
	Direction     *ast.Direction // set only for Kind == TargetNodeEdge

	IsVariable                        bool
	InPathVariable                    bool
	Insert                            bool
	ExistingVariableDeclaredSameClause bool
}

// CreateMetadata is the payload carried by the create_clause(...)
// marker call.
type CreateMetadata struct {
	GraphOID          int64
	Paths             [][]*TargetNode
	HasPreviousClause bool
	Terminal          bool
}

// transformCreate implements spec.md §4.10: each path's elements
// become target_node descriptors (new vertices get a passthrough
// placeholder target-list slot of vertex type so later clauses can
// reference them; edges referencing an already-bound vertex only
// extract that vertex's id), collected into a create_clause metadata
// payload carried as a marker function call alongside passthrough
// columns from any previous clause.
func transformCreate(gctx context.Context, ctx *Context, prev *Query, c *ast.Create) (*Query, error) {
	var targets []*TargetEntry
	if prev != nil {
		targets = append(targets, prev.TargetList...)
	}

	meta := &CreateMetadata{
		GraphOID:          ctx.GraphOID,
		HasPreviousClause: prev != nil,
	}

	for _, path := range c.Patterns {
		nodes, newTargets, err := transformCreatePath(gctx, ctx, path, len(targets))
		if err != nil {
			return nil, err
		}
		meta.Paths = append(meta.Paths, nodes)
		targets = append(targets, newTargets...)
	}

	meta.Terminal = true // TransformQuery flips this false if a later clause follows

	return &Query{
		TargetList: targets,
		MarkerCall: &ast.FunctionCall{Name: "create_clause", Args: []ast.Expr{&ast.Parameter{Name: "create_clause_info"}}},
		CreateMeta: meta,
	}, nil
}

func transformCreatePath(gctx context.Context, ctx *Context, path ast.PathPattern, startResno int) ([]*TargetNode, []*TargetEntry, error) {
	var nodes []*TargetNode
	var newTargets []*TargetEntry
	resno := startResno

	bindVertex := func(n ast.NodePattern) (*TargetNode, error) {
		if n.Properties != nil {
			if containsParameter(n.Properties) {
				return nil, cqlerr.New(cqlerr.ParameterPropertiesUnsupported, "CREATE does not support parameterized properties")
			}
		}
		if existing, ok := ctx.Registry.FindByName(n.Variable); n.Variable != "" && ok {
			if existing.Kind != txregistry.KindVertex || n.Properties != nil {
				return nil, cqlerr.New(cqlerr.VariableRedeclared, "variable %q already bound to a different shape", n.Variable)
			}
			return &TargetNode{
				Kind:                               TargetNodeVertex,
				LabelName:                          firstLabel(n.Labels),
				VariableName:                       n.Variable,
				IDExpr:                             propertyOf(n.Variable, "id"),
				IsVariable:                         true,
				ExistingVariableDeclaredSameClause: existing.DeclaredInCurrentClause,
			}, nil
		}
		label, err := ensureLabel(gctx, ctx, firstLabel(n.Labels), labelcat.LabelVertex)
		if err != nil {
			return nil, err
		}
		_ = label
		name := n.Variable
		if name == "" {
			name = anonName("node")
		} else if _, err := ctx.Registry.Make(name, txregistry.KindVertex); err != nil {
			return nil, err
		}
		resno++
		te := &TargetEntry{Expr: buildVertexExpr(ctx, name), ResName: name, Resno: resno}
		newTargets = append(newTargets, te)
		return &TargetNode{
			Kind:          TargetNodeVertex,
			LabelName:     firstLabel(n.Labels),
			VariableName:  n.Variable,
			IDExpr:        propertyOf(name, "id"),
			PropertiesExpr: n.Properties,
			TuplePosition: resno,
			IsVariable:    n.Variable != "",
			Insert:        true,
		}, nil
	}

	first, err := bindVertex(path.Nodes[0])
	if err != nil {
		return nil, nil, err
	}
	if path.Variable != "" {
		first.InPathVariable = true
	}
	nodes = append(nodes, first)

	for i, rel := range path.Rels {
		if rel.Direction == ast.DirNone {
			return nil, nil, cqlerr.New(cqlerr.DirectedRelationshipRequired, "CREATE requires a directed relationship")
		}
		if len(rel.Labels) == 0 {
			return nil, nil, cqlerr.New(cqlerr.EdgeLabelRequired, "CREATE requires a label on every relationship")
		}
		if rel.Properties != nil && containsParameter(rel.Properties) {
			return nil, nil, cqlerr.New(cqlerr.ParameterPropertiesUnsupported, "CREATE does not support parameterized properties")
		}
		if rel.Variable != "" {
			if _, ok := ctx.Registry.FindByName(rel.Variable); ok {
				return nil, nil, cqlerr.New(cqlerr.VariableRedeclared, "relationship variable %q already bound", rel.Variable)
			}
			if _, err := ctx.Registry.Make(rel.Variable, txregistry.KindEdge); err != nil {
				return nil, nil, err
			}
		}
		name := rel.Variable
		if name == "" {
			name = anonName("edge")
		}
		resno++
		dir := rel.Direction
		te := &TargetEntry{Expr: buildEdgeExpr(ctx, name), ResName: name, Resno: resno}
		newTargets = append(newTargets, te)
		edgeNode := &TargetNode{
			Kind:          TargetNodeEdge,
			LabelName:     firstLabel(rel.Labels),
			VariableName:  rel.Variable,
			IDExpr:        propertyOf(name, "id"),
			PropertiesExpr: rel.Properties,
			TuplePosition: resno,
			Direction:     &dir,
			IsVariable:    rel.Variable != "",
			Insert:        true,
		}
		if path.Variable != "" {
			edgeNode.InPathVariable = true
		}
		nodes = append(nodes, edgeNode)

		endNode, err := bindVertex(path.Nodes[i+1])
		if err != nil {
			return nil, nil, err
		}
		if path.Variable != "" {
			endNode.InPathVariable = true
		}
		nodes = append(nodes, endNode)
	}

	return nodes, newTargets, nil
}

func containsParameter(e ast.Expr) bool {
	switch n := e.(type) {
	case *ast.Parameter:
		return true
	case *ast.PropertyMap:
		for _, v := range n.Values {
			if _, ok := v.(*ast.Parameter); ok {
				continue // parameters are legal as individual map values
			}
			if containsParameter(v) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
