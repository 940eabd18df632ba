// Package ast defines the clause and pattern AST that the clause
// transformer (internal/transform) consumes. Producing this tree from
// Cypher text is out of scope (spec.md §1); internal/cyparse builds a
// minimal instance of it for tests. Grounded on spec.md §6's clause
// list and on the AST shapes of
// other_examples/...Fnuworsu-rdgDB__pkg-query-ast.go.go and
// ...ritamzico-pgraph__internal-dsl-grammar.go.go.
package ast

// Clause is the closed set of top-level query clauses the transformer
// dispatches on. Each concrete type below implements it via an
// unexported marker method, so a type switch in transform.go is
// exhaustive and the compiler flags any new clause kind left unhandled.
type Clause interface {
	clauseNode()
}

// Query is a chain of clauses as written, in source order (e.g.
// MATCH ... WHERE ... RETURN ... becomes [Match, Return] since WHERE is
// folded into Match.Where).
type Query struct {
	Clauses []Clause
}

type ReturnItem struct {
	Expr  Expr
	Alias string // empty if the item has no AS alias
}

type SortItem struct {
	Expr       Expr
	Descending bool
}

// Return is both RETURN and WITH's shared shape; With additionally
// carries a following Where for the WITH ... WHERE form.
type Return struct {
	Items    []ReturnItem
	Distinct bool
	OrderBy  []SortItem
	Skip     Expr // nil if absent
	Limit    Expr // nil if absent
}

func (*Return) clauseNode() {}

// With is RETURN's non-terminal sibling: it projects and may re-filter
// before the next clause. ProjectsStarOnly supports the bare `WITH *`
// passthrough form.
type With struct {
	Return
	Where           Expr // nil if absent
	ProjectsStarOnly bool
}

func (*With) clauseNode() {}

// UnionOp distinguishes UNION from UNION ALL.
type UnionOp uint8

const (
	UnionDistinct UnionOp = iota
	UnionAll
)

// Union combines two query branches. Per spec.md §4.4, an ORDER BY may
// only appear on the outermost Union (InvalidUnionOrderBy otherwise),
// and both branches' RETURN column lists must match in count and name
// (UnionColumnMismatch otherwise) — both are transform-time checks, not
// AST shape constraints, so they are not encoded in this struct.
type Union struct {
	Op    UnionOp
	Left  *Query
	Right *Query
}

func (*Union) clauseNode() {}

// Match is a MATCH (or OPTIONAL MATCH) clause: one or more comma-joined
// patterns plus an optional WHERE.
type Match struct {
	Optional bool
	Patterns []PathPattern
	Where    Expr // nil if absent
}

func (*Match) clauseNode() {}

// Create is a CREATE clause: one or more comma-joined patterns to
// insert. ParameterProperties/NestedPropertyUpdate restrictions
// (spec.md §4.5/§4.6) are enforced by the transformer against the
// PropertyMap literal shape, not by this struct.
type Create struct {
	Patterns []PathPattern
}

func (*Create) clauseNode() {}

// SetItem is one assignment within a SET clause: either a property
// path (n.prop = expr), a label add on a node, or a properties-from-map
// merge (n = {...} / n += {...}), per spec.md §4.6.
type SetItem struct {
	Target     Expr // the variable or property-access being assigned
	Value      Expr
	IsAddLabel bool
	Label      string // valid only if IsAddLabel
	IsMerge    bool   // n += {...} merges rather than replaces
}

type Set struct {
	Items []SetItem
}

func (*Set) clauseNode() {}

// Remove deletes properties or labels, the inverse of Set's add forms.
type RemoveItem struct {
	Target     Expr
	IsLabel    bool
	Label      string // valid only if IsLabel
}

type Remove struct {
	Items []RemoveItem
}

func (*Remove) clauseNode() {}

// Delete removes vertices/edges bound by prior clauses. Detach allows
// deleting a vertex along with its incident edges.
type Delete struct {
	Targets []Expr
	Detach  bool
}

func (*Delete) clauseNode() {}

// Merge is MATCH-or-CREATE: match Pattern, falling back to creating it
// (and running OnCreate) when no match exists, or running OnMatch when
// one does.
type Merge struct {
	Pattern  PathPattern
	OnCreate []SetItem
	OnMatch  []SetItem
}

func (*Merge) clauseNode() {}

// Unwind expands a list-valued expression into one row per element,
// bound to As.
type Unwind struct {
	Expr Expr
	As   string
}

func (*Unwind) clauseNode() {}
