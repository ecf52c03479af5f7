// Copyright 2020-2023 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package script

import (
	"github.com/rayantony/polymer-analyzer/ast"
	"github.com/rayantony/polymer-analyzer/reporter"
)

// Parse lexes and parses a declaration-level script document. Errors are
// reported to h as warnings (spec §6: "Parsers may throw a warning-carrying
// error"); Parse itself only returns a non-nil error for conditions that
// make recovery pointless (none today — every recognized failure degrades
// to an OpaqueStmt).
func Parse(url ast.CanonicalURL, src []byte, h *reporter.Handler) (*Program, error) {
	toks := newLexer(url, src, h).tokenize()
	p := &parser{toks: toks, url: url, h: h}
	p.cur = p.toks[0]
	var body []ast.Node
	for p.cur.kind != tokEOF {
		body = append(body, p.parseStatement())
	}
	return &Program{Body: body}, nil
}

// parser holds the full pre-tokenized stream and an index into it, rather
// than pulling tokens from the lexer lazily: speculative lookahead (see
// tryParseArrow) backtracks by resetting idx, which only works if every
// token up to that point is still addressable.
type parser struct {
	toks []token
	idx  int
	cur  token
	url  ast.CanonicalURL
	h    *reporter.Handler
}

func (p *parser) advance() token {
	prev := p.cur
	if p.idx < len(p.toks)-1 {
		p.idx++
	}
	p.cur = p.toks[p.idx]
	return prev
}

func (p *parser) isPunct(text string) bool {
	return p.cur.kind == tokPunct && p.cur.text == text
}

func (p *parser) isKeyword(word string) bool {
	return p.cur.kind == tokIdent && p.cur.text == word
}

func (p *parser) rangeFrom(start ast.Position) ast.SourceRange {
	return ast.SourceRange{File: p.url, Start: start, End: p.cur.start}
}

// --- statements ---

func (p *parser) parseStatement() ast.Node {
	start := p.cur.start
	switch {
	case p.isKeyword("class"):
		return p.parseClassDecl(start)
	case p.isKeyword("function"):
		return p.parseFunctionDecl(start)
	case p.isKeyword("var") || p.isKeyword("let") || p.isKeyword("const"):
		return p.parseVarDecl(start)
	case p.isKeyword("return"):
		return p.parseReturnStmt(start)
	case p.isPunct("{"):
		return p.parseBlock(start)
	case p.isPunct(";"):
		p.advance()
		return &OpaqueStmt{base: base{Rng: p.rangeFrom(start)}, Raw: ";"}
	default:
		return p.parseExprStmtOrOpaque(start)
	}
}

func (p *parser) parseBlock(start ast.Position) *BlockStmt {
	p.advance() // '{'
	var body []ast.Node
	for p.cur.kind != tokEOF && !p.isPunct("}") {
		body = append(body, p.parseStatement())
	}
	if p.isPunct("}") {
		p.advance()
	}
	return &BlockStmt{base: base{Rng: p.rangeFrom(start)}, Body: body}
}

func (p *parser) parseReturnStmt(start ast.Position) *ReturnStmt {
	p.advance() // 'return'
	var arg ast.Node
	if !p.isPunct(";") && !p.isPunct("}") && p.cur.kind != tokEOF {
		arg = p.parseExpr()
	}
	if p.isPunct(";") {
		p.advance()
	}
	return &ReturnStmt{base: base{Rng: p.rangeFrom(start)}, Arg: arg}
}

func (p *parser) parseClassDecl(start ast.Position) *ClassDecl {
	doc := p.cur.leading
	p.advance() // 'class'
	var name *Ident
	if p.cur.kind == tokIdent {
		name = &Ident{base: base{Rng: ast.SourceRange{File: p.url, Start: p.cur.start, End: p.cur.end}}, Name: p.cur.text}
		p.advance()
	}
	var super ast.Node
	if p.isKeyword("extends") {
		p.advance()
		super = p.parseLeftHandSide()
	}
	members := p.parseClassBody()
	return &ClassDecl{base: base{Rng: p.rangeFrom(start), Leading: doc}, Name: name, SuperClass: super, Body: members}
}

func (p *parser) parseClassExpr(start ast.Position, doc string) *ClassExpr {
	p.advance() // 'class'
	var name *Ident
	if p.cur.kind == tokIdent && !p.isKeyword("extends") {
		name = &Ident{base: base{Rng: ast.SourceRange{File: p.url, Start: p.cur.start, End: p.cur.end}}, Name: p.cur.text}
		p.advance()
	}
	var super ast.Node
	if p.isKeyword("extends") {
		p.advance()
		super = p.parseLeftHandSide()
	}
	members := p.parseClassBody()
	return &ClassExpr{base: base{Rng: p.rangeFrom(start), Leading: doc}, Name: name, SuperClass: super, Body: members}
}

func (p *parser) parseClassBody() []ClassMember {
	if !p.isPunct("{") {
		return nil
	}
	p.advance()
	var members []ClassMember
	for p.cur.kind != tokEOF && !p.isPunct("}") {
		if p.isPunct(";") {
			p.advance()
			continue
		}
		members = append(members, p.parseClassMember())
	}
	if p.isPunct("}") {
		p.advance()
	}
	return members
}

func (p *parser) parseClassMember() ClassMember {
	start := p.cur.start
	doc := p.cur.leading
	static := false
	if p.isKeyword("static") {
		static = true
		p.advance()
	}
	kind := "method"
	if p.isKeyword("get") || p.isKeyword("set") {
		// lookahead: `get`/`set` is only an accessor keyword if followed by
		// a name, not immediately by '(' (which would make it the method
		// named "get"/"set" itself).
		word := p.cur.text
		saved := *p
		p.advance()
		if p.cur.kind == tokIdent {
			kind = word
		} else {
			*p = saved
		}
	}
	name := ""
	if p.cur.kind == tokIdent || p.cur.kind == tokString {
		name = p.cur.text
		p.advance()
	}
	if p.isPunct("(") {
		params := p.parseParamList()
		var body *BlockStmt
		if p.isPunct("{") {
			body = p.parseBlock(p.cur.start)
		}
		return ClassMember{base: base{Rng: p.rangeFrom(start), Leading: doc}, Name: name, Static: static, MemberOf: kind, Params: params, Body: body}
	}
	// field, with or without an initializer
	if p.isPunct("=") {
		p.advance()
		p.parseExpr()
	}
	if p.isPunct(";") {
		p.advance()
	}
	return ClassMember{base: base{Rng: p.rangeFrom(start), Leading: doc}, Name: name, Static: static, MemberOf: "field"}
}

func (p *parser) parseParamList() []string {
	p.advance() // '('
	var params []string
	for p.cur.kind != tokEOF && !p.isPunct(")") {
		if p.cur.kind == tokIdent {
			params = append(params, p.cur.text)
			p.advance()
		} else {
			p.advance()
		}
		if p.isPunct(",") {
			p.advance()
		}
	}
	if p.isPunct(")") {
		p.advance()
	}
	return params
}

func (p *parser) parseFunctionDecl(start ast.Position) *FunctionDecl {
	doc := p.cur.leading
	p.advance() // 'function'
	var name *Ident
	if p.cur.kind == tokIdent {
		name = &Ident{base: base{Rng: ast.SourceRange{File: p.url, Start: p.cur.start, End: p.cur.end}}, Name: p.cur.text}
		p.advance()
	}
	params := p.parseParamList()
	var body *BlockStmt
	if p.isPunct("{") {
		body = p.parseBlock(p.cur.start)
	}
	return &FunctionDecl{base: base{Rng: p.rangeFrom(start), Leading: doc}, Name: name, Params: params, Body: body}
}

func (p *parser) parseVarDecl(start ast.Position) *VarDecl {
	doc := p.cur.leading
	declKind := p.cur.text
	p.advance() // var/let/const
	var decls []*VarDeclarator
	for {
		dstart := p.cur.start
		if p.cur.kind != tokIdent {
			break
		}
		name := p.cur.text
		p.advance()
		var init ast.Node
		if p.isPunct("=") {
			p.advance()
			init = p.parseExpr()
		}
		decls = append(decls, &VarDeclarator{base: base{Rng: p.rangeFrom(dstart)}, Name: name, Init: init})
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if p.isPunct(";") {
		p.advance()
	}
	return &VarDecl{base: base{Rng: p.rangeFrom(start), Leading: doc}, DeclKind: declKind, Declarators: decls}
}

// parseExprStmtOrOpaque handles everything parseStatement doesn't
// special-case: assignment/call expression statements (which the scanners
// need), and anything else (if/for/while/try/switch/do/throw/...), which is
// skipped as a balanced, uninterpreted span.
func (p *parser) parseExprStmtOrOpaque(start ast.Position) ast.Node {
	switch p.cur.text {
	case "if", "for", "while", "switch", "try", "do", "else", "throw", "new", "typeof", "delete", "void", "await", "yield":
		return p.skipOpaqueStatement(start)
	}
	doc := p.cur.leading
	expr := p.parseAssignmentLevel()
	if p.isPunct(";") {
		p.advance()
	}
	return &ExprStmt{base: base{Rng: p.rangeFrom(start), Leading: doc}, Expr: expr}
}

// skipOpaqueStatement consumes tokens until it has seen a balanced set of
// braces/parens/brackets and a terminating ';' at depth zero (or a lone
// balanced '{ ... }' block with no trailing semicolon, e.g. `if (x) {...}`).
func (p *parser) skipOpaqueStatement(start ast.Position) *OpaqueStmt {
	depth := 0
	sawBlock := false
	for p.cur.kind != tokEOF {
		switch p.cur.text {
		case "{", "(", "[":
			depth++
			sawBlock = sawBlock || p.cur.text == "{"
		case "}", ")", "]":
			depth--
		case ";":
			if depth <= 0 {
				p.advance()
				return &OpaqueStmt{base: base{Rng: p.rangeFrom(start)}}
			}
		}
		prevWasBlockClose := p.cur.text == "}" && depth == 0
		p.advance()
		if prevWasBlockClose && sawBlock {
			return &OpaqueStmt{base: base{Rng: p.rangeFrom(start)}}
		}
	}
	return &OpaqueStmt{base: base{Rng: p.rangeFrom(start)}}
}

// --- expressions ---

// parseExpr parses one assignment-or-lower expression; used for
// initializers, call arguments, array/object element values, and return
// arguments.
func (p *parser) parseExpr() ast.Node { return p.parseAssignmentLevel() }

func (p *parser) parseAssignmentLevel() ast.Node {
	start := p.cur.start
	doc := p.cur.leading

	if arrow, ok := p.tryParseArrow(start, doc); ok {
		return arrow
	}

	lhs := p.parsePrimary(start, doc)
	if p.isPunct("=") {
		p.advance()
		value := p.parseAssignmentLevel()
		return &AssignExpr{base: base{Rng: p.rangeFrom(start)}, Target: lhs, Value: value}
	}
	return lhs
}

// tryParseArrow attempts `ident => ...` or `(params) => ...`, restoring
// parser state and returning ok=false if the lookahead doesn't pan out.
func (p *parser) tryParseArrow(start ast.Position, doc string) (ast.Node, bool) {
	saved := *p
	var params []string
	switch {
	case p.cur.kind == tokIdent && !isReservedHead(p.cur.text):
		params = []string{p.cur.text}
		p.advance()
	case p.isPunct("("):
		params = p.parseParamList()
	default:
		return nil, false
	}
	if !p.isPunct("=>") {
		*p = saved
		return nil, false
	}
	p.advance() // '=>'
	var body ast.Node
	if p.isPunct("{") {
		body = p.parseBlock(p.cur.start)
	} else {
		body = p.parseAssignmentLevel()
	}
	return &ArrowFunctionExpr{base: base{Rng: p.rangeFrom(start), Leading: doc}, Params: params, Body: body}, true
}

func isReservedHead(word string) bool {
	switch word {
	case "class", "function", "var", "let", "const", "return", "new", "typeof":
		return true
	}
	return false
}

// parsePrimary parses a literal, class/function expression, object/array
// literal, or a left-hand-side reference chain (identifier/member/call).
func (p *parser) parsePrimary(start ast.Position, doc string) ast.Node {
	switch {
	case p.isKeyword("class"):
		return p.parseClassExpr(start, doc)
	case p.isKeyword("function"):
		return p.parseFunctionExprTail(start, doc)
	case p.isKeyword("true"):
		p.advance()
		return &BooleanLit{base: base{Rng: p.rangeFrom(start)}, Value: true}
	case p.isKeyword("false"):
		p.advance()
		return &BooleanLit{base: base{Rng: p.rangeFrom(start)}, Value: false}
	case p.cur.kind == tokString:
		v := p.cur.text
		p.advance()
		return &StringLit{base: base{Rng: p.rangeFrom(start)}, Value: v}
	case p.cur.kind == tokNumber:
		v := p.cur.text
		p.advance()
		return &NumberLit{base: base{Rng: p.rangeFrom(start)}, Value: v}
	case p.isPunct("{"):
		return p.parseObjectExpr(start)
	case p.isPunct("["):
		return p.parseArrayExpr(start)
	case p.isPunct("("):
		p.advance()
		inner := p.parseAssignmentLevel()
		if p.isPunct(")") {
			p.advance()
		}
		return p.parsePostfix(inner, start)
	default:
		return p.parseLeftHandSide()
	}
}

func (p *parser) parseFunctionExprTail(start ast.Position, doc string) *FunctionExpr {
	p.advance() // 'function'
	var name *Ident
	if p.cur.kind == tokIdent {
		name = &Ident{base: base{Rng: ast.SourceRange{File: p.url, Start: p.cur.start, End: p.cur.end}}, Name: p.cur.text}
		p.advance()
	}
	params := p.parseParamList()
	var body *BlockStmt
	if p.isPunct("{") {
		body = p.parseBlock(p.cur.start)
	}
	return &FunctionExpr{base: base{Rng: p.rangeFrom(start), Leading: doc}, Name: name, Params: params, Body: body}
}

// parseLeftHandSide parses an identifier/member-access/call chain, e.g.
// `Polymer.woohoo(function(){...})` or `customElements.define`.
func (p *parser) parseLeftHandSide() ast.Node {
	start := p.cur.start
	if p.cur.kind != tokIdent {
		// unsupported expression form (unary, `new`, etc.); skip it as an
		// opaque balanced span and return a placeholder identifier.
		p.skipBalancedExpr()
		return &Ident{base: base{Rng: p.rangeFrom(start)}, Name: ""}
	}
	var node ast.Node = &Ident{base: base{Rng: ast.SourceRange{File: p.url, Start: p.cur.start, End: p.cur.end}}, Name: p.cur.text}
	p.advance()
	return p.parsePostfix(node, start)
}

func (p *parser) parsePostfix(node ast.Node, start ast.Position) ast.Node {
	for {
		switch {
		case p.isPunct("."):
			p.advance()
			prop := p.cur.text
			if p.cur.kind == tokIdent {
				p.advance()
			}
			node = &MemberExpr{base: base{Rng: p.rangeFrom(start)}, Object: node, Property: prop}
		case p.isPunct("("):
			args := p.parseArgs()
			node = &CallExpr{base: base{Rng: p.rangeFrom(start)}, Callee: node, Args: args}
		default:
			return node
		}
	}
}

func (p *parser) parseArgs() []ast.Node {
	p.advance() // '('
	var args []ast.Node
	for p.cur.kind != tokEOF && !p.isPunct(")") {
		args = append(args, p.parseAssignmentLevel())
		if p.isPunct(",") {
			p.advance()
		}
	}
	if p.isPunct(")") {
		p.advance()
	}
	return args
}

func (p *parser) parseObjectExpr(start ast.Position) *ObjectExpr {
	p.advance() // '{'
	var props []ObjectProp
	for p.cur.kind != tokEOF && !p.isPunct("}") {
		pstart := p.cur.start
		key := p.cur.text
		if p.cur.kind == tokIdent || p.cur.kind == tokString || p.cur.kind == tokNumber {
			p.advance()
		}
		var value ast.Node
		if p.isPunct(":") {
			p.advance()
			value = p.parseAssignmentLevel()
		} else if p.isPunct("(") {
			// shorthand method: `foo() { ... }`
			p.parseParamList()
			if p.isPunct("{") {
				value = p.parseBlock(p.cur.start)
			}
		} else {
			value = &Ident{base: base{Rng: ast.SourceRange{File: p.url, Start: pstart, End: p.cur.start}}, Name: key}
		}
		props = append(props, ObjectProp{Key: key, Value: value, Rng: p.rangeFrom(pstart)})
		if p.isPunct(",") {
			p.advance()
		}
	}
	if p.isPunct("}") {
		p.advance()
	}
	return &ObjectExpr{base: base{Rng: p.rangeFrom(start)}, Properties: props}
}

func (p *parser) parseArrayExpr(start ast.Position) *ArrayExpr {
	p.advance() // '['
	var elems []ast.Node
	for p.cur.kind != tokEOF && !p.isPunct("]") {
		elems = append(elems, p.parseAssignmentLevel())
		if p.isPunct(",") {
			p.advance()
		}
	}
	if p.isPunct("]") {
		p.advance()
	}
	return &ArrayExpr{base: base{Rng: p.rangeFrom(start)}, Elements: elems}
}

// skipBalancedExpr consumes one token, then (unless the next token is ',',
// ';' or a closing bracket) one more token, or the whole balanced
// brace/paren/bracket group if that next token opens one, for expression
// forms we don't model (unary operators, `new X(...)`, template literals,
// etc.).
func (p *parser) skipBalancedExpr() {
	p.advance()
	depth := 0
	for p.cur.kind != tokEOF {
		switch p.cur.text {
		case "{", "(", "[":
			depth++
		case "}", ")", "]":
			if depth == 0 {
				return
			}
			depth--
		case ",", ";":
			if depth == 0 {
				return
			}
		}
		p.advance()
		if depth == 0 {
			return
		}
	}
}
