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

package scanner

import (
	"strings"

	"github.com/rayantony/polymer-analyzer/ast"
	"github.com/rayantony/polymer-analyzer/ast/script"
)

// Options configures the script scanners. DefaultPrivate mirrors spec
// §4.4/config: when true, a member with no explicit annotation and no
// underscore prefix is still treated as private.
type Options struct {
	DefaultPrivate bool
}

// classBinding is one syntactic way a class ends up with a name, found by
// walking the whole program once: a `class Name {}` declaration, a `var
// Name = class {}` / `const Name = class {}` declarator, or `Target = class
// {}` where Target is a dotted name (`Polymer.MyElement = class {}`).
type classBinding struct {
	name  string
	node  ast.Node // *script.ClassDecl or *script.ClassExpr
	super ast.Node
	body  []script.ClassMember
	doc   *ast.JSDoc
	rng   ast.SourceRange
}

// defineCall is one `customElements.define(tag, Ctor)` statement.
type defineCall struct {
	tag      string
	ctorName string
}

type scriptBindings struct {
	classes []classBinding
	defines []defineCall
	// mixinCandidates are function-like nodes (FunctionDecl/FunctionExpr/
	// ArrowFunctionExpr) structurally shaped like a mixin: exactly one
	// parameter, whose body declares or returns a class extending that
	// parameter.
	mixinCandidates []mixinCandidate
	behaviors       []behaviorBinding
	namespaces      []namespaceBinding
	functions       []functionBinding
}

type mixinCandidate struct {
	name      string
	params    []string
	body      ast.Node
	doc       *ast.JSDoc
	rng       ast.SourceRange
	classNode ast.Node // the inner class this mixin produces, for dedup
}

type behaviorBinding struct {
	name    string
	value   ast.Node // *script.ObjectExpr or *script.ArrayExpr
	doc     *ast.JSDoc
	rng     ast.SourceRange
}

type namespaceBinding struct {
	name  string
	value *script.ObjectExpr
	doc   *ast.JSDoc
	rng   ast.SourceRange
}

type functionBinding struct {
	name   string
	params []string
	doc    *ast.JSDoc
	rng    ast.SourceRange
}

// collectBindings walks prog once, bucketing every recognized top-level-or-
// nested form. A single walk is enough because Program.Walk already
// descends into function/class bodies, so the wrapped-mixin pattern
// (`function Mixin(base){ class X extends base {}; return X; }`) surfaces
// its inner ClassDecl the same way a top-level one would.
func collectBindings(prog *script.Program) *scriptBindings {
	sb := &scriptBindings{}
	prog.Walk(func(n ast.Node) bool {
		switch v := n.(type) {
		case *script.ClassDecl:
			name := ""
			if v.Name != nil {
				name = v.Name.Name
			}
			sb.classes = append(sb.classes, classBinding{
				name: name, node: v, super: v.SuperClass, body: v.Body,
				doc: docOf(v.Doc()), rng: v.Range(),
			})
		case *script.VarDecl:
			for _, d := range v.Declarators {
				switch init := d.Init.(type) {
				case *script.ClassExpr:
					sb.classes = append(sb.classes, classBinding{
						name: d.Name, node: init, super: init.SuperClass, body: init.Body,
						doc: docOf(v.Doc()), rng: d.Range(),
					})
				case *script.FunctionExpr:
					sb.addMixinCandidate(d.Name, init.Params, init.Body, v.Doc(), d.Range())
				case *script.ArrowFunctionExpr:
					sb.addMixinCandidate(d.Name, init.Params, init.Body, v.Doc(), d.Range())
				case *script.ObjectExpr:
					sb.classifyObjectBinding(d.Name, init, v.Doc(), d.Range())
				case *script.ArrayExpr:
					if doc := docOf(v.Doc()); doc.HasTag("polymerBehavior") {
						sb.behaviors = append(sb.behaviors, behaviorBinding{name: d.Name, value: init, doc: doc, rng: d.Range()})
					}
				}
			}
		case *script.ExprStmt:
			switch expr := v.Expr.(type) {
			case *script.AssignExpr:
				name, ok := script.DottedName(expr.Target)
				if !ok {
					return true
				}
				switch val := expr.Value.(type) {
				case *script.ClassExpr:
					sb.classes = append(sb.classes, classBinding{
						name: name, node: val, super: val.SuperClass, body: val.Body,
						doc: docOf(v.Doc()), rng: v.Range(),
					})
				case *script.FunctionExpr:
					sb.addMixinCandidate(name, val.Params, val.Body, v.Doc(), v.Range())
				case *script.ObjectExpr:
					sb.classifyObjectBinding(name, val, v.Doc(), v.Range())
				case *script.ArrayExpr:
					if doc := docOf(v.Doc()); doc.HasTag("polymerBehavior") {
						sb.behaviors = append(sb.behaviors, behaviorBinding{name: name, value: val, doc: doc, rng: v.Range()})
					}
				case *script.CallExpr:
					// `Target = wrapper(function(base){ ... })` — the mixin
					// lives inside the wrapper call's function argument.
					sb.addMixinFromWrapper(name, val, v.Doc(), v.Range())
				}
			case *script.CallExpr:
				if call := matchDefineCall(expr); call != nil {
					sb.defines = append(sb.defines, *call)
				}
			}
		case *script.FunctionDecl:
			name := ""
			if v.Name != nil {
				name = v.Name.Name
			}
			doc := docOf(v.Doc())
			if doc.HasTag("memberof") {
				sb.functions = append(sb.functions, functionBinding{
					name: name, params: v.Params, doc: doc, rng: v.Range(),
				})
				return true
			}
			// An unannotated top-level function is only interesting to us
			// as a candidate mixin (spec E6 plain-mixin form); a bare
			// utility function with no @memberof isn't surfaced at all
			// (spec §4.4, function scanner requires @memberof).
			sb.addMixinCandidate(name, v.Params, v.Body, v.Doc(), v.Range())
		}
		return true
	})
	return sb
}

func docOf(raw string) *ast.JSDoc {
	if raw == "" {
		return nil
	}
	return ast.ParseJSDoc(raw)
}

// classifyObjectBinding routes an object-literal binding to either the
// namespace scanner or the behavior scanner, based on its JSDoc tag (spec
// §4.4: namespaces carry @namespace, behaviors carry @polymerBehavior).
// Plain data objects with neither tag are ignored.
func (sb *scriptBindings) classifyObjectBinding(name string, obj *script.ObjectExpr, rawDoc string, rng ast.SourceRange) {
	doc := docOf(rawDoc)
	switch {
	case doc.HasTag("namespace"):
		sb.namespaces = append(sb.namespaces, namespaceBinding{name: name, value: obj, doc: doc, rng: rng})
	case doc.HasTag("polymerBehavior"):
		sb.behaviors = append(sb.behaviors, behaviorBinding{name: name, value: obj, doc: doc, rng: rng})
	}
}

// addMixinFromWrapper handles `X = SomeHelper(function(base){ ... })`: the
// structural mixin test is applied to the call's sole function-expression
// argument, with the outer assignment supplying the mixin's name.
func (sb *scriptBindings) addMixinFromWrapper(name string, call *script.CallExpr, rawDoc string, rng ast.SourceRange) {
	if len(call.Args) != 1 {
		return
	}
	fn, ok := call.Args[0].(*script.FunctionExpr)
	if !ok {
		return
	}
	sb.addMixinCandidate(name, fn.Params, fn.Body, rawDoc, rng)
}

func (sb *scriptBindings) addMixinCandidate(name string, params []string, body ast.Node, rawDoc string, rng ast.SourceRange) {
	if len(params) != 1 {
		return
	}
	classNode, ok := mixinClassFromBody(params[0], body)
	if !ok {
		return
	}
	sb.mixinCandidates = append(sb.mixinCandidates, mixinCandidate{
		name: name, params: params, body: body, doc: docOf(rawDoc), rng: rng, classNode: classNode,
	})
}

// mixinClassFromBody implements the structural mixin test (spec §4.4,
// "Mixin scanner"): a single-parameter function whose body is (for an
// arrow's expression body) or contains (for a block body, anywhere a class
// declaration or return statement appears) a class extending that
// parameter by name.
func mixinClassFromBody(param string, body ast.Node) (ast.Node, bool) {
	block, ok := body.(*script.BlockStmt)
	if !ok {
		if cls := classExtendingParam(body, param); cls != nil {
			return cls, true
		}
		return nil, false
	}
	for _, stmt := range block.Body {
		switch s := stmt.(type) {
		case *script.ClassDecl:
			if matchesParam(s.SuperClass, param) {
				return s, true
			}
		case *script.ReturnStmt:
			if cls := classExtendingParam(s.Arg, param); cls != nil {
				return cls, true
			}
		}
	}
	return nil, false
}

func classExtendingParam(n ast.Node, param string) ast.Node {
	switch v := n.(type) {
	case *script.ClassExpr:
		if matchesParam(v.SuperClass, param) {
			return v
		}
	case *script.ClassDecl:
		if matchesParam(v.SuperClass, param) {
			return v
		}
	}
	return nil
}

func matchesParam(superClass ast.Node, param string) bool {
	name, ok := script.DottedName(superClass)
	return ok && name == param
}

// matchDefineCall recognizes `customElements.define("tag-name", Ctor)`.
func matchDefineCall(call *script.CallExpr) *defineCall {
	callee, ok := script.DottedName(call.Callee)
	if !ok || callee != "customElements.define" {
		return nil
	}
	if len(call.Args) < 2 {
		return nil
	}
	tagLit, ok := call.Args[0].(*script.StringLit)
	if !ok {
		return nil
	}
	ctor, ok := script.DottedName(call.Args[1])
	if !ok {
		return nil
	}
	return &defineCall{tag: tagLit.Value, ctorName: ctor}
}

// scanScript runs every script-level scanner over one parsed program and
// returns their features concatenated in spec §4.4's required order:
// classes and (plain or annotated) elements first, then (plain or
// annotated) mixins, then behaviors, then namespaces, then functions. The
// mixin-candidate set is computed once and shared between the class and
// mixin passes so a class claimed by a mixin is never also reported as a
// bare Class (spec E6: "if a class is also a recognized mixin, the mixin
// wins").
func scanScript(prog *script.Program, url ast.CanonicalURL, opts Options) []ast.Feature {
	sb := collectBindings(prog)

	// Every entry in sb.mixinCandidates already passed the structural mixin
	// test in addMixinCandidate/mixinClassFromBody (one parameter, body
	// returns or declares a class extending it) regardless of its function
	// form — declaration, arrow expression body, function expression, or
	// wrapped — so there is nothing left to disambiguate here: accept them
	// all and let the doc tag only decide Plain vs. Annotated kind in
	// scanMixins.
	claimed := make(map[ast.Node]bool, len(sb.mixinCandidates))
	for _, m := range sb.mixinCandidates {
		claimed[m.classNode] = true
	}
	acceptedMixins := sb.mixinCandidates

	var features []ast.Feature
	features = append(features, scanClasses(sb, claimed, url, opts)...)
	features = append(features, scanMixins(acceptedMixins, url, opts)...)
	features = append(features, scanBehaviors(sb.behaviors, url, opts)...)
	features = append(features, scanNamespaces(sb.namespaces, url)...)
	features = append(features, scanFunctions(sb.functions)...)
	return features
}

func scanClasses(sb *scriptBindings, claimed map[ast.Node]bool, url ast.CanonicalURL, opts Options) []ast.Feature {
	defineByCtor := map[string]defineCall{}
	for _, d := range sb.defines {
		defineByCtor[d.ctorName] = d
	}

	var features []ast.Feature
	for _, c := range sb.classes {
		if claimed[c.node] {
			continue
		}
		super, hasSuper, mixinApps := flattenSuperClass(c.super)
		members := extractClassLike(memberSource{classBody: c.body}, opts.DefaultPrivate)
		desc, demos := descFromDoc(c.doc)

		if def, isDefined := defineByCtor[c.name]; isDefined {
			features = append(features, newElement(c, def.tag, ast.ElementPlain, super, hasSuper, mixinApps, members, desc, demos, url, opts))
			continue
		}
		if c.doc.HasTag("customElement") {
			tag, _ := c.doc.Tag("customElement")
			if tag == "" {
				tag = c.name
			}
			features = append(features, newElement(c, tag, ast.ElementAnnotated, super, hasSuper, mixinApps, members, desc, demos, url, opts))
			continue
		}
		cls := &ast.Class{}
		cls.ClassName = c.name
		cls.Namespace = namespaceOf(c.name)
		cls.Owner = url
		cls.Desc = desc
		cls.DemoList = demos
		cls.Super = super
		cls.HasSuper = hasSuper
		cls.MixinApps = mixinApps
		cls.BehaviorApps = members.BehaviorApps
		cls.MemberList = members.Members
		cls.SrcRange = c.rng
		cls.Doc = c.doc
		cls.Vis = ast.InferPrivacy(c.name, c.doc, opts.DefaultPrivate)
		features = append(features, cls)
	}
	return features
}

func newElement(c classBinding, tag string, kind ast.ElementKind, super string, hasSuper bool, mixinApps []string, members classLikeResult, desc string, demos []ast.Demo, url ast.CanonicalURL, opts Options) *ast.Element {
	el := &ast.Element{}
	el.ClassName = c.name
	el.Namespace = namespaceOf(c.name)
	el.Owner = url
	el.Desc = desc
	el.DemoList = demos
	el.Super = super
	el.HasSuper = hasSuper
	el.MixinApps = mixinApps
	el.BehaviorApps = members.BehaviorApps
	el.MemberList = members.Members
	el.SrcRange = c.rng
	el.Doc = c.doc
	el.Vis = ast.InferPrivacy(c.name, c.doc, opts.DefaultPrivate)
	el.TagName = tag
	el.EKind = kind
	return el
}

func scanMixins(mixins []mixinCandidate, url ast.CanonicalURL, opts Options) []ast.Feature {
	var features []ast.Feature
	for _, m := range mixins {
		var body []script.ClassMember
		if cls, ok := m.classNode.(*script.ClassExpr); ok {
			body = cls.Body
		} else if cls, ok := m.classNode.(*script.ClassDecl); ok {
			body = cls.Body
		}
		members := extractClassLike(memberSource{classBody: body}, opts.DefaultPrivate)
		desc, demos := descFromDoc(m.doc)

		kind := ast.ElementPlain
		if m.doc.HasTag("mixinFunction") || m.doc.HasTag("polymerMixin") {
			kind = ast.ElementAnnotated
		}

		mixin := &ast.Mixin{}
		mixin.ClassName = m.name
		mixin.Namespace = namespaceOf(m.name)
		mixin.Owner = url
		mixin.Desc = desc
		mixin.DemoList = demos
		mixin.HasSuper = true
		mixin.Super = m.params[0]
		mixin.MemberList = members.Members
		mixin.BehaviorApps = members.BehaviorApps
		mixin.SrcRange = m.rng
		mixin.Doc = m.doc
		mixin.Vis = ast.InferPrivacy(m.name, m.doc, opts.DefaultPrivate)
		mixin.EKind = kind
		features = append(features, mixin)
	}
	return features
}

// scanBehaviors implements spec §4.4's behavior scanner: an object literal
// (or array of dotted identifiers, for a composed behavior) bound to a
// dotted name and tagged @polymerBehavior.
func scanBehaviors(bindings []behaviorBinding, url ast.CanonicalURL, opts Options) []ast.Feature {
	var features []ast.Feature
	for _, b := range bindings {
		beh := &ast.Behavior{}
		beh.ClassName = b.name
		beh.Namespace = namespaceOf(b.name)
		beh.Owner = url
		desc, demos := descFromDoc(b.doc)
		beh.Desc = desc
		beh.DemoList = demos
		beh.SrcRange = b.rng
		beh.Doc = b.doc
		beh.Vis = ast.InferPrivacy(b.name, b.doc, opts.DefaultPrivate)

		switch v := b.value.(type) {
		case *script.ObjectExpr:
			members := extractClassLike(memberSource{object: v}, opts.DefaultPrivate)
			beh.MemberList = members.Members
			beh.BehaviorApps = members.BehaviorApps
		case *script.ArrayExpr:
			// a behavior defined purely as a composition of other
			// behaviors: `MyNamespace.Composed = [MyNamespace.A, MyNamespace.B];`
			beh.BehaviorApps = dottedNamesFromArray(v)
		}
		features = append(features, beh)
	}
	return features
}

func scanNamespaces(bindings []namespaceBinding, url ast.CanonicalURL) []ast.Feature {
	var features []ast.Feature
	for _, n := range bindings {
		ns := &ast.Namespace{}
		ns.NSName = n.name
		ns.SrcRange = n.rng
		ns.Doc = n.doc
		if n.doc != nil {
			ns.Vis = ast.InferPrivacy(n.name, n.doc, false)
		}
		for _, prop := range n.value.Properties {
			ns.Children = append(ns.Children, n.name+"."+prop.Key)
		}
		features = append(features, ns)
	}
	return features
}

// scanFunctions implements spec §4.4's function scanner: a function
// declaration explicitly tagged @memberof. Function expressions and arrow
// functions bound by a var declarator or an assignment are not scanned as
// functions, whatever their tags; they are only tried as mixin candidates.
func scanFunctions(bindings []functionBinding) []ast.Feature {
	var features []ast.Feature
	for _, f := range bindings {
		memberOf, _ := f.doc.MemberOf()
		fn := &ast.Function{
			Base:    ast.Base{SrcRange: f.rng, Doc: f.doc, Vis: ast.InferPrivacy(f.name, f.doc, false)},
			FuncName: f.name,
			MemberOf: memberOf,
		}
		for _, p := range f.params {
			fn.Params = append(fn.Params, ast.Param{Name: p})
		}
		if ret, ok := f.doc.ReturnTag(); ok {
			fn.Return = ret
		}
		for i, p := range f.doc.Params() {
			if i < len(fn.Params) {
				fn.Params[i].Type = p.Type
				fn.Params[i].Desc = p.Desc
			}
		}
		features = append(features, fn)
	}
	return features
}

// namespaceOf returns the dotted prefix of a fully-qualified name, or ""
// for a bare identifier — used to fill classLikeBase.Namespace so the
// summary emitter can group features under their declaring namespace
// (spec §4.7).
func namespaceOf(fqn string) string {
	idx := strings.LastIndex(fqn, ".")
	if idx < 0 {
		return ""
	}
	return fqn[:idx]
}
