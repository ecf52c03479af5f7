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

import "github.com/rayantony/polymer-analyzer/ast"

// base is embedded by every script AST node; it supplies Range() and the
// node's raw leading JSDoc comment body (unparsed — scanners call
// ast.ParseJSDoc on it lazily, only for the declarations they care about).
type base struct {
	Rng     ast.SourceRange
	Leading string
}

func (b base) Range() ast.SourceRange { return b.Rng }
func (b base) Doc() string            { return b.Leading }

// Program is the root of a parsed script document.
type Program struct {
	base
	Body []ast.Node
}

// Walk implements ast.Walker: a pre-order traversal over every node this
// package knows how to descend into, matching spec §4.4's "purely
// AST-driven" scanner contract.
func (p *Program) Walk(visit ast.VisitFunc) {
	for _, n := range p.Body {
		walkNode(n, visit)
	}
}

func walkNode(n ast.Node, visit ast.VisitFunc) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	switch v := n.(type) {
	case *ClassDecl:
		walkNode(v.SuperClass, visit)
		for _, m := range v.Body {
			if m.Body != nil {
				walkNode(m.Body, visit)
			}
		}
	case *ClassExpr:
		walkNode(v.SuperClass, visit)
		for _, m := range v.Body {
			if m.Body != nil {
				walkNode(m.Body, visit)
			}
		}
	case *VarDecl:
		for _, d := range v.Declarators {
			walkNode(d, visit)
		}
	case *VarDeclarator:
		walkNode(v.Init, visit)
	case *AssignExpr:
		walkNode(v.Target, visit)
		walkNode(v.Value, visit)
	case *ExprStmt:
		walkNode(v.Expr, visit)
	case *CallExpr:
		walkNode(v.Callee, visit)
		for _, a := range v.Args {
			walkNode(a, visit)
		}
	case *FunctionDecl:
		if v.Body != nil {
			walkNode(v.Body, visit)
		}
	case *FunctionExpr:
		if v.Body != nil {
			walkNode(v.Body, visit)
		}
	case *ArrowFunctionExpr:
		if v.Body != nil {
			walkNode(v.Body, visit)
		}
	case *BlockStmt:
		for _, s := range v.Body {
			walkNode(s, visit)
		}
	case *ReturnStmt:
		walkNode(v.Arg, visit)
	case *ObjectExpr:
		for _, p := range v.Properties {
			walkNode(p.Value, visit)
		}
	case *ArrayExpr:
		for _, e := range v.Elements {
			walkNode(e, visit)
		}
	case *MemberExpr:
		walkNode(v.Object, visit)
	}
}

// Ident is a bare identifier reference.
type Ident struct {
	base
	Name string
}

// MemberExpr is a (possibly chained) dotted reference, e.g. `A.B.C`.
type MemberExpr struct {
	base
	Object   ast.Node
	Property string
}

// DottedName flattens a chain of Ident/MemberExpr into "A.B.C", or reports
// ok=false if it contains anything else (computed access, call, etc.).
func DottedName(n ast.Node) (string, bool) {
	switch v := n.(type) {
	case *Ident:
		return v.Name, true
	case *MemberExpr:
		base, ok := DottedName(v.Object)
		if !ok {
			return "", false
		}
		return base + "." + v.Property, true
	default:
		return "", false
	}
}

// StringLit is a string literal.
type StringLit struct {
	base
	Value string
}

// NumberLit is a numeric literal.
type NumberLit struct {
	base
	Value string
}

// BooleanLit is `true`/`false`.
type BooleanLit struct {
	base
	Value bool
}

// ArrayExpr is an array literal.
type ArrayExpr struct {
	base
	Elements []ast.Node
}

// ObjectExpr is an object literal.
type ObjectExpr struct {
	base
	Properties []ObjectProp
}

// ObjectProp is one `key: value` (or shorthand `key`) entry.
type ObjectProp struct {
	Key      string
	Computed bool
	Value    ast.Node
	Rng      ast.SourceRange
}

// ClassMember is one member of a class body: a method, getter/setter, or
// field.
type ClassMember struct {
	base
	Name     string
	Static   bool
	MemberOf string // "method", "get", "set", "field"
	Params   []string
	Body     *BlockStmt
}

// ClassDecl is `class Name [extends Super] { ... }` as a statement.
type ClassDecl struct {
	base
	Name       *Ident
	SuperClass ast.Node
	Body       []ClassMember
}

// ClassExpr is the same shape used as an expression (assignment RHS, var
// initializer, return value, `customElements.define` argument, etc.).
type ClassExpr struct {
	base
	Name       *Ident // optional
	SuperClass ast.Node
	Body       []ClassMember
}

// FunctionDecl is `function name(params) { ... }` as a statement.
type FunctionDecl struct {
	base
	Name   *Ident
	Params []string
	Body   *BlockStmt
}

// FunctionExpr is the expression form (possibly named), used as a var
// initializer, assignment RHS, or call argument.
type FunctionExpr struct {
	base
	Name   *Ident
	Params []string
	Body   *BlockStmt
}

// ArrowFunctionExpr is `(params) => expr` or `(params) => { ... }`.
type ArrowFunctionExpr struct {
	base
	Params []string
	Body   ast.Node // *BlockStmt, or any expression node
}

// VarDeclarator is one `name = init` binding within a var/let/const
// statement.
type VarDeclarator struct {
	base
	Name string
	Init ast.Node
}

// VarDecl is a `var`/`let`/`const` statement with one or more declarators.
type VarDecl struct {
	base
	DeclKind    string
	Declarators []*VarDeclarator
}

// AssignExpr is `target = value`, where target may be a dotted name.
type AssignExpr struct {
	base
	Target ast.Node
	Value  ast.Node
}

// ExprStmt wraps an expression used as a statement.
type ExprStmt struct {
	base
	Expr ast.Node
}

// CallExpr is `callee(args...)`.
type CallExpr struct {
	base
	Callee ast.Node
	Args   []ast.Node
}

// ReturnStmt is `return [arg];`.
type ReturnStmt struct {
	base
	Arg ast.Node
}

// BlockStmt is a brace-delimited statement list.
type BlockStmt struct {
	base
	Body []ast.Node
}

// OpaqueStmt is a statement the parser recognized the boundaries of (by
// balanced brace/paren/bracket tracking) but did not otherwise model,
// because no scanner needs to look inside it.
type OpaqueStmt struct {
	base
	Raw string
}
