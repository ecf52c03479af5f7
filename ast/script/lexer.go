// Package script implements a small, hand-rolled lexer and parser for the
// declaration-level subset of JavaScript the scanner pipeline cares about:
// class/function/variable declarations, assignment expressions (including
// dotted namespace targets), call expressions, object/array literals, and
// arrow/function expressions. It does not attempt to be a complete
// ECMAScript parser — statement bodies it does not need to look inside are
// consumed as opaque, balanced-brace spans (see parser.go).
//
// This is hand-rolled rather than built on github.com/smacker/go-tree-sitter
// (which does ship a javascript grammar, used elsewhere in the pack) because
// the scanner pipeline needs each class/mixin/behavior/function's JSDoc
// comment bound to the exact declaration it precedes, and the scanners only
// ever need the narrow declaration-level shapes above — both are easiest to
// get right over our own token stream rather than re-deriving them from a
// generic concrete syntax tree's comment/sibling links. ast/markup takes the
// opposite tradeoff (full tree-sitter HTML grammar) because markup has no
// equivalent "narrow declaration slice" to exploit: every element and
// attribute in the document is potentially significant.
package script

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rayantony/polymer-analyzer/ast"
	"github.com/rayantony/polymer-analyzer/reporter"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokNumber
	tokPunct
	tokComment
)

type token struct {
	kind    tokenKind
	text    string
	start   ast.Position
	end     ast.Position
	leading string // nearest preceding /** ... */ comment body, if contiguous
}

type lexer struct {
	src     []byte
	pos     int
	line    int
	col     int
	url     ast.CanonicalURL
	handler *reporter.Handler
}

func newLexer(url ast.CanonicalURL, src []byte, h *reporter.Handler) *lexer {
	return &lexer{src: src, line: 1, col: 1, url: url, handler: h}
}

func (l *lexer) here() ast.Position { return ast.Position{Line: l.line, Col: l.col} }

func (l *lexer) peekByte() (byte, bool) {
	if l.pos >= len(l.src) {
		return 0, false
	}
	return l.src[l.pos], true
}

func (l *lexer) advance() (rune, bool) {
	if l.pos >= len(l.src) {
		return 0, false
	}
	r, size := utf8.DecodeRune(l.src[l.pos:])
	l.pos += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r, true
}

// next returns the next non-whitespace token, attaching the most recent
// contiguous /** ... */ JSDoc comment (if any appeared immediately before
// it, separated only by whitespace) as its leading doc comment.
func (l *lexer) next() token {
	var leadingDoc string
	for {
		l.skipWhitespace()
		b, ok := l.peekByte()
		if !ok {
			return token{kind: tokEOF, start: l.here(), end: l.here(), leading: leadingDoc}
		}
		if b == '/' && l.pos+1 < len(l.src) {
			switch l.src[l.pos+1] {
			case '/':
				l.skipLineComment()
				continue
			case '*':
				text, isDoc := l.skipBlockComment()
				if isDoc {
					leadingDoc = text
				}
				continue
			}
		}
		break
	}
	start := l.here()
	b, _ := l.peekByte()
	switch {
	case isIdentStart(rune(b)):
		text := l.readIdent()
		return token{kind: tokIdent, text: text, start: start, end: l.here(), leading: leadingDoc}
	case b == '"' || b == '\'' || b == '`':
		text := l.readString(b)
		return token{kind: tokString, text: text, start: start, end: l.here(), leading: leadingDoc}
	case isDigit(rune(b)):
		text := l.readNumber()
		return token{kind: tokNumber, text: text, start: start, end: l.here(), leading: leadingDoc}
	default:
		text := l.readPunct()
		return token{kind: tokPunct, text: text, start: start, end: l.here(), leading: leadingDoc}
	}
}

func (l *lexer) skipWhitespace() {
	for {
		b, ok := l.peekByte()
		if !ok {
			return
		}
		if b == ' ' || b == '\t' || b == '\r' || b == '\n' {
			l.advance()
			continue
		}
		return
	}
}

func (l *lexer) skipLineComment() {
	for {
		b, ok := l.peekByte()
		if !ok || b == '\n' {
			return
		}
		l.advance()
	}
}

// skipBlockComment consumes a /* ... */ comment and reports whether it was
// a /** ... */ JSDoc comment, returning its inner text with the leading '*'
// gutters stripped.
func (l *lexer) skipBlockComment() (string, bool) {
	startPos := l.pos
	l.advance() // '/'
	l.advance() // '*'
	isDoc := false
	if b, ok := l.peekByte(); ok && b == '*' {
		if l.pos+1 >= len(l.src) || l.src[l.pos+1] != '/' {
			isDoc = true
		}
	}
	for {
		b, ok := l.peekByte()
		if !ok {
			if l.handler != nil {
				_ = l.handler.Warnf(ast.SourceRange{File: l.url, Start: l.here(), End: l.here()}, "unterminated comment")
			}
			return "", false
		}
		if b == '*' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/' {
			l.advance()
			l.advance()
			break
		}
		l.advance()
	}
	if !isDoc {
		return "", false
	}
	raw := string(l.src[startPos+3 : l.pos-2])
	var lines []string
	for _, ln := range strings.Split(raw, "\n") {
		ln = strings.TrimSpace(ln)
		ln = strings.TrimPrefix(ln, "*")
		lines = append(lines, strings.TrimSpace(ln))
	}
	return strings.Join(lines, "\n"), true
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || isDigit(r)
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func (l *lexer) readIdent() string {
	start := l.pos
	for {
		b, ok := l.peekByte()
		if !ok || !isIdentPart(rune(b)) {
			break
		}
		l.advance()
	}
	return string(l.src[start:l.pos])
}

func (l *lexer) readNumber() string {
	start := l.pos
	for {
		b, ok := l.peekByte()
		if !ok || (!isDigit(rune(b)) && b != '.') {
			break
		}
		l.advance()
	}
	return string(l.src[start:l.pos])
}

func (l *lexer) readString(quote byte) string {
	l.advance() // opening quote
	start := l.pos
	for {
		b, ok := l.peekByte()
		if !ok {
			break
		}
		if b == '\\' {
			l.advance()
			l.advance()
			continue
		}
		if b == quote {
			break
		}
		l.advance()
	}
	text := string(l.src[start:l.pos])
	l.advance() // closing quote
	return text
}

// multiCharPuncts lists the two/three-rune operators we need to recognize
// as single tokens so `=>` and `...` aren't split into `=`,`>`.
var multiCharPuncts = []string{"===", "!==", "=>", "...", "==", "!="}

func (l *lexer) readPunct() string {
	for _, p := range multiCharPuncts {
		if strings.HasPrefix(string(l.src[l.pos:]), p) {
			for range p {
				l.advance()
			}
			return p
		}
	}
	r, _ := l.advance()
	return string(r)
}

// tokenize runs the lexer to completion, returning every token including a
// final tokEOF. The parser operates over this slice by index so that
// speculative lookahead (e.g. deciding whether `(params)` introduces an
// arrow function) can backtrack by simply resetting an int, rather than
// needing pushback support in the lexer itself.
func (l *lexer) tokenize() []token {
	var toks []token
	for {
		t := l.next()
		toks = append(toks, t)
		if t.kind == tokEOF {
			return toks
		}
	}
}

func (l *lexer) errorf(pos ast.Position, format string, args ...any) {
	if l.handler == nil {
		return
	}
	_ = l.handler.Warnf(ast.SourceRange{File: l.url, Start: pos, End: pos}, fmt.Sprintf(format, args...))
}
