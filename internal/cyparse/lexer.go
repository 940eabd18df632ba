// Package cyparse is a small hand-written lexer/parser that turns
// literal Cypher text into ast.Clause chains for package tests and
// cmd/cyparse. It is test/CLI scaffolding, not a SPEC_FULL component:
// the spec places Cypher parsing out of scope (spec.md §1), and the
// pack carries no Cypher grammar to bind (see DESIGN.md, dropped
// go-tree-sitter). It covers the subset of Cypher exercised by this
// repo's own tests and fixtures, not the full grammar.
package cyparse

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokIdent
	tokKeyword
	tokInt
	tokFloat
	tokString
	tokParam
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	line int
}

var keywords = map[string]bool{
	"match": true, "optional": true, "where": true, "return": true,
	"with": true, "create": true, "set": true, "remove": true,
	"delete": true, "detach": true, "merge": true, "unwind": true,
	"union": true, "all": true, "distinct": true, "order": true, "by": true,
	"asc": true, "desc": true, "skip": true, "limit": true, "as": true,
	"and": true, "or": true, "xor": true, "not": true, "in": true,
	"is": true, "null": true, "true": true, "false": true, "on": true,
	"starts": true, "ends": true, "contains": true,
}

type lexer struct {
	src  []rune
	pos  int
	line int
}

func newLexer(src string) *lexer {
	return &lexer{src: []rune(src), line: 1}
}

func (l *lexer) peekRune() (rune, bool) {
	if l.pos >= len(l.src) {
		return 0, false
	}
	return l.src[l.pos], true
}

func (l *lexer) advance() (rune, bool) {
	r, ok := l.peekRune()
	if ok {
		l.pos++
		if r == '\n' {
			l.line++
		}
	}
	return r, ok
}

func (l *lexer) skipSpaceAndComments() {
	for {
		r, ok := l.peekRune()
		if !ok {
			return
		}
		if unicode.IsSpace(r) {
			l.advance()
			continue
		}
		if r == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/' {
			for {
				r, ok := l.peekRune()
				if !ok || r == '\n' {
					break
				}
				l.advance()
			}
			continue
		}
		return
	}
}

func isIdentStart(r rune) bool { return unicode.IsLetter(r) || r == '_' }
func isIdentPart(r rune) bool  { return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' }

func (l *lexer) next() (token, error) {
	l.skipSpaceAndComments()
	line := l.line
	r, ok := l.peekRune()
	if !ok {
		return token{kind: tokEOF, line: line}, nil
	}

	switch {
	case isIdentStart(r):
		start := l.pos
		for {
			r, ok := l.peekRune()
			if !ok || !isIdentPart(r) {
				break
			}
			l.advance()
		}
		text := string(l.src[start:l.pos])
		if keywords[strings.ToLower(text)] {
			return token{kind: tokKeyword, text: strings.ToLower(text), line: line}, nil
		}
		return token{kind: tokIdent, text: text, line: line}, nil

	case unicode.IsDigit(r):
		start := l.pos
		isFloat := false
		for {
			r, ok := l.peekRune()
			if !ok {
				break
			}
			if r == '.' {
				// only a '.' followed by a digit is a decimal point; "1..3"
				// is an int, a range "..", and another int.
				if isFloat || l.pos+1 >= len(l.src) || !unicode.IsDigit(l.src[l.pos+1]) {
					break
				}
				isFloat = true
				l.advance()
				continue
			}
			if !unicode.IsDigit(r) {
				break
			}
			l.advance()
		}
		text := string(l.src[start:l.pos])
		if isFloat {
			return token{kind: tokFloat, text: text, line: line}, nil
		}
		return token{kind: tokInt, text: text, line: line}, nil

	case r == '"' || r == '\'':
		quote := r
		l.advance()
		var sb strings.Builder
		for {
			r, ok := l.advance()
			if !ok {
				return token{}, fmt.Errorf("cyparse: unterminated string at line %d", line)
			}
			if r == quote {
				break
			}
			sb.WriteRune(r)
		}
		return token{kind: tokString, text: sb.String(), line: line}, nil

	case r == '$':
		l.advance()
		start := l.pos
		for {
			r, ok := l.peekRune()
			if !ok || !isIdentPart(r) {
				break
			}
			l.advance()
		}
		return token{kind: tokParam, text: string(l.src[start:l.pos]), line: line}, nil

	default:
		// multi-char punctuation, longest match first
		multi := []string{"->", "<-", "..", "<>", "<=", ">=", "+=", "=~", "@>"}
		rest := string(l.src[l.pos:min(l.pos+3, len(l.src))])
		for _, m := range multi {
			if strings.HasPrefix(rest, m) {
				for range m {
					l.advance()
				}
				return token{kind: tokPunct, text: m, line: line}, nil
			}
		}
		l.advance()
		return token{kind: tokPunct, text: string(r), line: line}, nil
	}
}
