// Package transform turns a clause AST chain (internal/ast) into a
// tree of simplified relational Query nodes, standing in for the
// underlying relational executor that spec.md §1 puts out of scope.
// One file per clause kind, grounded file-for-file on
// original_source/src/backend/parser/cypher_clause.c's
// transform_cypher_* functions; dispatch is a Go type switch over the
// closed ast.Clause sum instead of the original's is_ag_node checks.
package transform

import "cyquery/internal/ast"

// SourceKind mirrors Postgres's Query.querySource enum down to the one
// value this module ever produces: every clause reaching the
// projection/top of a chain sets it to Original (spec.md §4.2).
type SourceKind uint8

const (
	SourceOriginal SourceKind = iota
)

// RteKind distinguishes a Query's range-table entry shapes.
type RteKind uint8

const (
	RteSubquery RteKind = iota
	RteFunction
	RteJoin
)

// JoinKind distinguishes plain inner joins (MATCH) from the lateral
// left joins OPTIONAL MATCH and the previous-clause MERGE path build.
type JoinKind uint8

const (
	JoinInner JoinKind = iota
	JoinLateralLeft
)

// RangeTblEntry is one FROM-clause entry: a transformed sub-query, a
// set-returning function call (the VLE lateral), or a join of two
// other entries.
type RangeTblEntry struct {
	Kind RteKind
	Name string // alias this entry is referenced by

	// RteSubquery
	Subquery *Query

	// RteFunction
	FuncCall    *ast.FunctionCall
	FuncColumns []string

	// RteJoin
	JoinType JoinKind
	Left     *RangeTblEntry
	Right    *RangeTblEntry
	JoinQual ast.Expr
}

// TargetEntry is one projected column. Junk entries exist to carry a
// sort/group key or a marker function call through the plan without
// appearing in the final output row.
type TargetEntry struct {
	Expr    ast.Expr
	ResName string
	Resno   int
	Junk    bool
}

// SortItem orders the final result by the Resno'th target entry.
type SortItem struct {
	Resno      int
	Descending bool
}

// GroupItem groups the final result by the Resno'th target entry.
type GroupItem struct {
	Resno int
}

// SetOpKind is a binary set-operation tree node's combining rule.
type SetOpKind uint8

const (
	SetOpUnion SetOpKind = iota
	SetOpUnionAll
)

// SetOperationTree is UNION's binary tree of leaves (sub-queries) and
// internal set-operation nodes (spec.md §4.4).
type SetOperationTree struct {
	Op    SetOpKind
	Left  *SetOperationTree
	Right *SetOperationTree

	// LeafQuery is set (Left/Right nil) when this node is a leaf
	// wrapping one RETURN branch directly.
	LeafQuery *Query
}

// Query is the simplified relational tree every clause transform
// produces. It is deliberately small: just enough structure (range
// table, join qual, target list, sort/group/distinct, set-operation
// tree, marker call) for the transformer to build against and for
// tests to assert shape against.
type Query struct {
	Source    SourceKind
	CanSetTag bool

	RangeTable []*RangeTblEntry
	JoinQual   ast.Expr

	TargetList []*TargetEntry
	GroupBy    []GroupItem
	SortBy     []SortItem
	Distinct   bool
	Skip       ast.Expr
	Limit      ast.Expr

	// SetOp is non-nil for a UNION query; when set, TargetList still
	// describes the reconciled output column shape but RangeTable is
	// unused (the leaves carry their own).
	SetOp *SetOperationTree

	// MarkerCall carries the create_clause/set_clause/delete_clause/
	// merge_clause marker function the executor keys its side effects
	// off of (spec.md §4.10-§4.13). Nil for pure projection queries.
	MarkerCall *ast.FunctionCall

	// Exactly one of these is non-nil alongside a non-nil MarkerCall,
	// carrying the structured payload the marker call's serialized
	// form stands in for (spec.md §6's "produced to executor" list).
	CreateMeta *CreateMetadata
	SetMeta    *SetMetadata
	RemoveMeta *RemoveMetadata
	DeleteMeta *DeleteMetadata
	MergeMeta  *MergeMetadata
}

// finalize sets the two flags every clause reaching the top of a
// chain carries, per spec.md §4.3.
func finalize(q *Query) *Query {
	q.Source = SourceOriginal
	q.CanSetTag = true
	return q
}
