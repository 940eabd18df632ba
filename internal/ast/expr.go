package ast

import "cyquery/internal/bdm"

// Expr is the closed set of scalar/predicate expression node kinds.
// Like Clause, each concrete type implements an unexported marker
// method so exhaustive type switches in the transformer are
// compiler-checked.
type Expr interface {
	exprNode()
}

// Literal wraps a constant bdm.Value (string, number, bool, null, or a
// literal list/map). List/map literal construction expressions below
// are kept separate from Literal so the transformer can tell a
// parameter-free map literal (legal as CREATE's property map) from one
// containing parameter references (ParameterPropertiesUnsupported).
type Literal struct {
	Value bdm.Value
}

func (*Literal) exprNode() {}

// Parameter is a `$name` query parameter reference. spec.md §4.5
// forbids parameters as an entire pattern's property map
// (ParameterPropertiesUnsupported) but allows them as individual
// property values within a map literal.
type Parameter struct {
	Name string
}

func (*Parameter) exprNode() {}

// Variable is a bare identifier reference to a name bound by an
// earlier clause or pattern element.
type Variable struct {
	Name string
}

func (*Variable) exprNode() {}

// PropertyAccess is `expr.key`. Nested property updates through this
// node (`n.addr.city = ...` as a Set target) are
// NestedPropertyUpdateUnsupported per spec.md §4.6 — Target itself
// must be a Variable, not another PropertyAccess.
type PropertyAccess struct {
	Target Expr
	Key    string
}

func (*PropertyAccess) exprNode() {}

// PropertyMap is a literal `{k: expr, ...}` used as a pattern's
// property map or a map-valued expression. A map containing any
// Parameter among its values (directly, not nested) is legal; a bare
// Parameter used as the entire map is represented as a Parameter node
// instead and is what triggers ParameterPropertiesUnsupported at a
// pattern's Properties slot.
type PropertyMap struct {
	Keys   []string
	Values []Expr
}

func (*PropertyMap) exprNode() {}

// ListLiteral is a literal `[expr, ...]`.
type ListLiteral struct {
	Elements []Expr
}

func (*ListLiteral) exprNode() {}

// BinaryOp is the closed set of infix operators.
type BinaryOp uint8

const (
	OpAnd BinaryOp = iota
	OpOr
	OpXor
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpContains   // @>
	OpIn         // IN
	OpStartsWith
	OpEndsWith
)

type BinaryExpr struct {
	Op          BinaryOp
	Left, Right Expr
}

func (*BinaryExpr) exprNode() {}

// UnaryOp is the closed set of prefix operators.
type UnaryOp uint8

const (
	OpNot UnaryOp = iota
	OpNeg
	OpIsNull
	OpIsNotNull
)

type UnaryExpr struct {
	Op      UnaryOp
	Operand Expr
}

func (*UnaryExpr) exprNode() {}

// FunctionCall is a call to a built-in scalar or aggregate function
// (e.g. count(*), labels(n), type(r)).
type FunctionCall struct {
	Name     string
	Args     []Expr
	Distinct bool // DISTINCT inside an aggregate call, e.g. count(DISTINCT n)
	Star     bool // the count(*) form: Args is empty, Star is true
}

func (*FunctionCall) exprNode() {}

// CastExpr is an explicit type cast, surfaced to internal/bdm.Cast by
// the transformer.
type CastExpr struct {
	Operand Expr
	Target  bdm.Kind
}

func (*CastExpr) exprNode() {}
