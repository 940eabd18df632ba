package cyparse

import (
	"fmt"
	"strconv"

	"cyquery/internal/ast"
	"cyquery/internal/bdm"
)

type parser struct {
	toks []token
	pos  int
}

// Parse tokenizes and parses src into a Query AST.
func Parse(src string) (*ast.Query, error) {
	l := newLexer(src)
	var toks []token
	for {
		t, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, t)
		if t.kind == tokEOF {
			break
		}
	}
	p := &parser{toks: toks}
	return p.parseQuery()
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) atKeyword(kw string) bool {
	t := p.cur()
	return t.kind == tokKeyword && t.text == kw
}

func (p *parser) atPunct(s string) bool {
	t := p.cur()
	return t.kind == tokPunct && t.text == s
}

func (p *parser) expectPunct(s string) error {
	if !p.atPunct(s) {
		return fmt.Errorf("cyparse: line %d: expected %q, got %q", p.cur().line, s, p.cur().text)
	}
	p.advance()
	return nil
}

func (p *parser) expectKeyword(kw string) error {
	if !p.atKeyword(kw) {
		return fmt.Errorf("cyparse: line %d: expected keyword %q, got %q", p.cur().line, kw, p.cur().text)
	}
	p.advance()
	return nil
}

func (p *parser) expectIdent() (string, error) {
	t := p.cur()
	if t.kind != tokIdent {
		return "", fmt.Errorf("cyparse: line %d: expected identifier, got %q", t.line, t.text)
	}
	p.advance()
	return t.text, nil
}

// parseQuery parses a full clause chain, folding UNION[ ALL] branches
// into an ast.Union when present.
func (p *parser) parseQuery() (*ast.Query, error) {
	first, err := p.parseClauseChain()
	if err != nil {
		return nil, err
	}
	if !p.atKeyword("union") {
		return first, nil
	}
	left := first
	for p.atKeyword("union") {
		p.advance()
		op := ast.UnionDistinct
		if p.atKeyword("all") {
			p.advance()
			op = ast.UnionAll
		}
		right, err := p.parseClauseChain()
		if err != nil {
			return nil, err
		}
		left = &ast.Query{Clauses: []ast.Clause{&ast.Union{Op: op, Left: left, Right: right}}}
	}
	return left, nil
}

func (p *parser) parseClauseChain() (*ast.Query, error) {
	var clauses []ast.Clause
	for {
		if p.cur().kind == tokEOF || p.atKeyword("union") {
			break
		}
		c, err := p.parseClause()
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, c)
	}
	return &ast.Query{Clauses: clauses}, nil
}

func (p *parser) parseClause() (ast.Clause, error) {
	switch {
	case p.atKeyword("optional"), p.atKeyword("match"):
		return p.parseMatch()
	case p.atKeyword("return"):
		return p.parseReturn()
	case p.atKeyword("with"):
		return p.parseWith()
	case p.atKeyword("create"):
		return p.parseCreate()
	case p.atKeyword("set"):
		return p.parseSet()
	case p.atKeyword("remove"):
		return p.parseRemove()
	case p.atKeyword("detach"), p.atKeyword("delete"):
		return p.parseDelete()
	case p.atKeyword("merge"):
		return p.parseMerge()
	case p.atKeyword("unwind"):
		return p.parseUnwind()
	default:
		return nil, fmt.Errorf("cyparse: line %d: unexpected token %q starting a clause", p.cur().line, p.cur().text)
	}
}

func (p *parser) parseMatch() (ast.Clause, error) {
	m := &ast.Match{}
	if p.atKeyword("optional") {
		p.advance()
		m.Optional = true
	}
	if err := p.expectKeyword("match"); err != nil {
		return nil, err
	}
	for {
		pat, err := p.parsePathPattern()
		if err != nil {
			return nil, err
		}
		m.Patterns = append(m.Patterns, pat)
		if p.atPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if p.atKeyword("where") {
		p.advance()
		w, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		m.Where = w
	}
	return m, nil
}

func (p *parser) parseReturnBody() (ast.Return, error) {
	var r ast.Return
	if p.atKeyword("distinct") {
		p.advance()
		r.Distinct = true
	}
	for {
		e, err := p.parseExpr()
		if err != nil {
			return r, err
		}
		item := ast.ReturnItem{Expr: e}
		if p.atKeyword("as") {
			p.advance()
			alias, err := p.expectIdent()
			if err != nil {
				return r, err
			}
			item.Alias = alias
		}
		r.Items = append(r.Items, item)
		if p.atPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if p.atKeyword("order") {
		p.advance()
		if err := p.expectKeyword("by"); err != nil {
			return r, err
		}
		for {
			e, err := p.parseExpr()
			if err != nil {
				return r, err
			}
			item := ast.SortItem{Expr: e}
			if p.atKeyword("desc") {
				p.advance()
				item.Descending = true
			} else if p.atKeyword("asc") {
				p.advance()
			}
			r.OrderBy = append(r.OrderBy, item)
			if p.atPunct(",") {
				p.advance()
				continue
			}
			break
		}
	}
	if p.atKeyword("skip") {
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return r, err
		}
		r.Skip = e
	}
	if p.atKeyword("limit") {
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return r, err
		}
		r.Limit = e
	}
	return r, nil
}

func (p *parser) parseReturn() (ast.Clause, error) {
	if err := p.expectKeyword("return"); err != nil {
		return nil, err
	}
	r, err := p.parseReturnBody()
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (p *parser) parseWith() (ast.Clause, error) {
	if err := p.expectKeyword("with"); err != nil {
		return nil, err
	}
	w := &ast.With{}
	if p.atPunct("*") {
		p.advance()
		w.ProjectsStarOnly = true
	} else {
		r, err := p.parseReturnBody()
		if err != nil {
			return nil, err
		}
		w.Return = r
	}
	if p.atKeyword("where") {
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		w.Where = e
	}
	return w, nil
}

func (p *parser) parseCreate() (ast.Clause, error) {
	if err := p.expectKeyword("create"); err != nil {
		return nil, err
	}
	c := &ast.Create{}
	for {
		pat, err := p.parsePathPattern()
		if err != nil {
			return nil, err
		}
		c.Patterns = append(c.Patterns, pat)
		if p.atPunct(",") {
			p.advance()
			continue
		}
		break
	}
	return c, nil
}

func (p *parser) parseSetItem() (ast.SetItem, error) {
	if p.cur().kind == tokIdent && p.peekAheadPunct(1, ":") {
		name, _ := p.expectIdent()
		p.advance() // ':'
		label, err := p.expectIdent()
		if err != nil {
			return ast.SetItem{}, err
		}
		return ast.SetItem{Target: &ast.Variable{Name: name}, IsAddLabel: true, Label: label}, nil
	}
	// The target is a variable or property access; parsing it as a full
	// expression would consume the following '=' as an equality test.
	target, err := p.parsePostfix()
	if err != nil {
		return ast.SetItem{}, err
	}
	merge := false
	if p.atPunct("+=") {
		p.advance()
		merge = true
	} else if err := p.expectPunct("="); err != nil {
		return ast.SetItem{}, err
	}
	val, err := p.parseExpr()
	if err != nil {
		return ast.SetItem{}, err
	}
	return ast.SetItem{Target: target, Value: val, IsMerge: merge}, nil
}

func (p *parser) peekAheadPunct(n int, s string) bool {
	idx := p.pos + n
	if idx >= len(p.toks) {
		return false
	}
	t := p.toks[idx]
	return t.kind == tokPunct && t.text == s
}

func (p *parser) parseSet() (ast.Clause, error) {
	if err := p.expectKeyword("set"); err != nil {
		return nil, err
	}
	s := &ast.Set{}
	for {
		item, err := p.parseSetItem()
		if err != nil {
			return nil, err
		}
		s.Items = append(s.Items, item)
		if p.atPunct(",") {
			p.advance()
			continue
		}
		break
	}
	return s, nil
}

func (p *parser) parseRemove() (ast.Clause, error) {
	if err := p.expectKeyword("remove"); err != nil {
		return nil, err
	}
	r := &ast.Remove{}
	for {
		if p.cur().kind == tokIdent && p.peekAheadPunct(1, ":") {
			name, _ := p.expectIdent()
			p.advance()
			label, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			r.Items = append(r.Items, ast.RemoveItem{Target: &ast.Variable{Name: name}, IsLabel: true, Label: label})
		} else {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			r.Items = append(r.Items, ast.RemoveItem{Target: e})
		}
		if p.atPunct(",") {
			p.advance()
			continue
		}
		break
	}
	return r, nil
}

func (p *parser) parseDelete() (ast.Clause, error) {
	d := &ast.Delete{}
	if p.atKeyword("detach") {
		p.advance()
		d.Detach = true
	}
	if err := p.expectKeyword("delete"); err != nil {
		return nil, err
	}
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		d.Targets = append(d.Targets, e)
		if p.atPunct(",") {
			p.advance()
			continue
		}
		break
	}
	return d, nil
}

func (p *parser) parseMerge() (ast.Clause, error) {
	if err := p.expectKeyword("merge"); err != nil {
		return nil, err
	}
	pat, err := p.parsePathPattern()
	if err != nil {
		return nil, err
	}
	m := &ast.Merge{Pattern: pat}
	for p.atKeyword("on") {
		p.advance()
		switch {
		case p.atKeyword("create"):
			p.advance()
			items, err := p.parseSetItemList()
			if err != nil {
				return nil, err
			}
			m.OnCreate = append(m.OnCreate, items...)
		case p.atKeyword("match"):
			p.advance()
			items, err := p.parseSetItemList()
			if err != nil {
				return nil, err
			}
			m.OnMatch = append(m.OnMatch, items...)
		default:
			return nil, fmt.Errorf("cyparse: line %d: expected CREATE or MATCH after ON", p.cur().line)
		}
	}
	return m, nil
}

func (p *parser) parseSetItemList() ([]ast.SetItem, error) {
	if err := p.expectKeyword("set"); err != nil {
		return nil, err
	}
	var items []ast.SetItem
	for {
		item, err := p.parseSetItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if p.atPunct(",") {
			p.advance()
			continue
		}
		break
	}
	return items, nil
}

func (p *parser) parseUnwind() (ast.Clause, error) {
	if err := p.expectKeyword("unwind"); err != nil {
		return nil, err
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("as"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	return &ast.Unwind{Expr: e, As: name}, nil
}

// --- patterns ---

func (p *parser) parsePathPattern() (ast.PathPattern, error) {
	var pat ast.PathPattern
	if p.cur().kind == tokIdent && p.peekAheadPunct(1, "=") {
		name, _ := p.expectIdent()
		p.advance()
		pat.Variable = name
	}
	node, err := p.parseNodePattern()
	if err != nil {
		return pat, err
	}
	pat.Nodes = append(pat.Nodes, node)
	for p.atPunct("-") || p.atPunct("<-") {
		rel, err := p.parseRelPattern()
		if err != nil {
			return pat, err
		}
		pat.Rels = append(pat.Rels, rel)
		n, err := p.parseNodePattern()
		if err != nil {
			return pat, err
		}
		pat.Nodes = append(pat.Nodes, n)
	}
	return pat, nil
}

func (p *parser) parseNodePattern() (ast.NodePattern, error) {
	var n ast.NodePattern
	if err := p.expectPunct("("); err != nil {
		return n, err
	}
	if p.cur().kind == tokIdent {
		n.Variable, _ = p.expectIdent()
	}
	for p.atPunct(":") {
		p.advance()
		label, err := p.expectIdent()
		if err != nil {
			return n, err
		}
		n.Labels = append(n.Labels, label)
	}
	if p.atPunct("{") {
		m, err := p.parsePropertyMap()
		if err != nil {
			return n, err
		}
		n.Properties = m
	}
	if err := p.expectPunct(")"); err != nil {
		return n, err
	}
	return n, nil
}

// parseRelPattern parses one `-[...]-`, `<-[...]-`, `-[...]->`, or a
// bracketless `--`/`<--`/`-->` relationship slot.
func (p *parser) parseRelPattern() (ast.RelPattern, error) {
	var r ast.RelPattern
	leftArrow := false
	if p.atPunct("<-") {
		p.advance()
		leftArrow = true
	} else if err := p.expectPunct("-"); err != nil {
		return r, err
	}

	if p.atPunct("[") {
		p.advance()
		if p.cur().kind == tokIdent {
			r.Variable, _ = p.expectIdent()
		}
		for p.atPunct(":") {
			p.advance()
			label, err := p.expectIdent()
			if err != nil {
				return r, err
			}
			r.Labels = append(r.Labels, label)
		}
		if p.atPunct("*") {
			p.advance()
			r.HasStar = true
			if p.cur().kind == tokInt {
				lo, _ := strconv.Atoi(p.advance().text)
				r.MinHops = &lo
			}
			if p.atPunct("..") {
				p.advance()
				if p.cur().kind == tokInt {
					hi, _ := strconv.Atoi(p.advance().text)
					r.MaxHops = &hi
				}
			}
		}
		if p.atPunct("{") {
			m, err := p.parsePropertyMap()
			if err != nil {
				return r, err
			}
			r.Properties = m
		}
		if err := p.expectPunct("]"); err != nil {
			return r, err
		}
	}

	if leftArrow {
		if err := p.expectPunct("-"); err != nil {
			return r, err
		}
		r.Direction = ast.DirLeft
		return r, nil
	}
	if p.atPunct("->") {
		p.advance()
		r.Direction = ast.DirRight
		return r, nil
	}
	if err := p.expectPunct("-"); err != nil {
		return r, err
	}
	r.Direction = ast.DirNone
	return r, nil
}

func (p *parser) parsePropertyMap() (*ast.PropertyMap, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	m := &ast.PropertyMap{}
	for !p.atPunct("}") {
		key, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(":"); err != nil {
			return nil, err
		}
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		m.Keys = append(m.Keys, key)
		m.Values = append(m.Values, v)
		if p.atPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return m, nil
}

// --- expressions (precedence climbing) ---

func (p *parser) parseExpr() (ast.Expr, error) { return p.parseOr() }

func (p *parser) parseOr() (ast.Expr, error) {
	left, err := p.parseXor()
	if err != nil {
		return nil, err
	}
	for p.atKeyword("or") {
		p.advance()
		right, err := p.parseXor()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: ast.OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseXor() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.atKeyword("xor") {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: ast.OpXor, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.atKeyword("and") {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: ast.OpAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (ast.Expr, error) {
	if p.atKeyword("not") {
		p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: ast.OpNot, Operand: operand}, nil
	}
	return p.parseComparison()
}

var comparisonOps = map[string]ast.BinaryOp{
	"=": ast.OpEq, "<>": ast.OpNeq, "<": ast.OpLt, "<=": ast.OpLte,
	">": ast.OpGt, ">=": ast.OpGte, "@>": ast.OpContains,
}

func (p *parser) parseComparison() (ast.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		if p.cur().kind == tokPunct {
			if op, ok := comparisonOps[p.cur().text]; ok {
				p.advance()
				right, err := p.parseAdditive()
				if err != nil {
					return nil, err
				}
				left = &ast.BinaryExpr{Op: op, Left: left, Right: right}
				continue
			}
		}
		if p.atKeyword("in") {
			p.advance()
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = &ast.BinaryExpr{Op: ast.OpIn, Left: left, Right: right}
			continue
		}
		if p.atKeyword("is") {
			p.advance()
			neg := false
			if p.atKeyword("not") {
				p.advance()
				neg = true
			}
			if err := p.expectKeyword("null"); err != nil {
				return nil, err
			}
			op := ast.OpIsNull
			if neg {
				op = ast.OpIsNotNull
			}
			left = &ast.UnaryExpr{Op: op, Operand: left}
			continue
		}
		if p.atKeyword("starts") {
			p.advance()
			if err := p.expectKeyword("with"); err != nil {
				return nil, err
			}
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = &ast.BinaryExpr{Op: ast.OpStartsWith, Left: left, Right: right}
			continue
		}
		if p.atKeyword("ends") {
			p.advance()
			if err := p.expectKeyword("with"); err != nil {
				return nil, err
			}
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = &ast.BinaryExpr{Op: ast.OpEndsWith, Left: left, Right: right}
			continue
		}
		if p.atKeyword("contains") {
			p.advance()
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = &ast.BinaryExpr{Op: ast.OpContains, Left: left, Right: right}
			continue
		}
		break
	}
	return left, nil
}

func (p *parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.atPunct("+") || p.atPunct("-") {
		op := ast.OpAdd
		if p.cur().text == "-" {
			op = ast.OpSub
		}
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.atPunct("*") || p.atPunct("/") || p.atPunct("%") {
		var op ast.BinaryOp
		switch p.cur().text {
		case "*":
			op = ast.OpMul
		case "/":
			op = ast.OpDiv
		case "%":
			op = ast.OpMod
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (ast.Expr, error) {
	if p.atPunct("-") {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: ast.OpNeg, Operand: operand}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (ast.Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.atPunct(".") {
		p.advance()
		key, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		e = &ast.PropertyAccess{Target: e, Key: key}
	}
	return e, nil
}

func (p *parser) parsePrimary() (ast.Expr, error) {
	t := p.cur()
	switch t.kind {
	case tokInt:
		p.advance()
		i, _ := strconv.ParseInt(t.text, 10, 64)
		return &ast.Literal{Value: bdm.Int(i)}, nil
	case tokFloat:
		p.advance()
		f, _ := strconv.ParseFloat(t.text, 64)
		return &ast.Literal{Value: bdm.Float(f)}, nil
	case tokString:
		p.advance()
		return &ast.Literal{Value: bdm.String(t.text)}, nil
	case tokParam:
		p.advance()
		return &ast.Parameter{Name: t.text}, nil
	case tokKeyword:
		switch t.text {
		case "true":
			p.advance()
			return &ast.Literal{Value: bdm.Bool_(true)}, nil
		case "false":
			p.advance()
			return &ast.Literal{Value: bdm.Bool_(false)}, nil
		case "null":
			p.advance()
			return &ast.Literal{Value: bdm.Null()}, nil
		}
		return nil, fmt.Errorf("cyparse: line %d: unexpected keyword %q in expression", t.line, t.text)
	case tokIdent:
		name, _ := p.expectIdent()
		if p.atPunct("(") {
			return p.parseFunctionCall(name)
		}
		return &ast.Variable{Name: name}, nil
	case tokPunct:
		switch t.text {
		case "(":
			p.advance()
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			return e, nil
		case "[":
			return p.parseListLiteral()
		case "{":
			return p.parsePropertyMap()
		case "*":
			p.advance()
			return &ast.FunctionCall{Star: true}, nil
		}
	}
	return nil, fmt.Errorf("cyparse: line %d: unexpected token %q", t.line, t.text)
}

func (p *parser) parseFunctionCall(name string) (ast.Expr, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	call := &ast.FunctionCall{Name: name}
	if p.atKeyword("distinct") {
		p.advance()
		call.Distinct = true
	}
	if p.atPunct("*") {
		p.advance()
		call.Star = true
	} else {
		for !p.atPunct(")") {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, e)
			if p.atPunct(",") {
				p.advance()
				continue
			}
			break
		}
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return call, nil
}

func (p *parser) parseListLiteral() (ast.Expr, error) {
	if err := p.expectPunct("["); err != nil {
		return nil, err
	}
	lst := &ast.ListLiteral{}
	for !p.atPunct("]") {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		lst.Elements = append(lst.Elements, e)
		if p.atPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectPunct("]"); err != nil {
		return nil, err
	}
	return lst, nil
}
