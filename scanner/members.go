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

// memberSource is either a class body (ES6 class syntax) or an object
// literal (the legacy `Polymer({...})`/behavior-object-literal shape).
// extractClassLike reads whichever was declared and produces the same
// MemberSet + behavior/mixin-application shape either way, since nothing
// downstream should care which syntax a given element used.
type memberSource struct {
	classBody []script.ClassMember
	object    *script.ObjectExpr
}

// classLikeResult is what extractClassLike pulls out of a memberSource:
// properties/methods/behaviors, plus the attributes and events derived
// from the properties.
type classLikeResult struct {
	Members       ast.MemberSet
	BehaviorApps  []string
	Super         string
	HasSuper      bool
	MixinApps     []string
}

func extractClassLike(src memberSource, defaultPrivate bool) classLikeResult {
	var res classLikeResult
	if src.classBody != nil {
		for _, m := range src.classBody {
			switch {
			case m.Static && m.MemberOf == "get" && m.Name == "properties":
				res.Members.Properties = append(res.Members.Properties, propertiesFromGetter(m, defaultPrivate)...)
			case m.Static && m.MemberOf == "get" && m.Name == "behaviors":
				res.BehaviorApps = append(res.BehaviorApps, behaviorsFromGetter(m)...)
			case m.Static || m.Name == "" || m.Name == "constructor":
				// other static members and the constructor aren't surfaced
				// as scanned methods.
			case m.MemberOf == "method":
				res.Members.Methods = append(res.Members.Methods, methodFromClassMember(m, defaultPrivate))
			}
		}
	}
	if src.object != nil {
		for _, prop := range src.object.Properties {
			switch prop.Key {
			case "properties":
				if obj, ok := prop.Value.(*script.ObjectExpr); ok {
					res.Members.Properties = append(res.Members.Properties, propertiesFromObject(obj, defaultPrivate)...)
				}
			case "behaviors":
				if arr, ok := prop.Value.(*script.ArrayExpr); ok {
					res.BehaviorApps = append(res.BehaviorApps, dottedNamesFromArray(arr)...)
				}
			case "is", "_template", "listeners", "observers", "hostAttributes":
				// not modeled
			default:
				if _, ok := prop.Value.(*script.FunctionExpr); ok {
					res.Members.Methods = append(res.Members.Methods, &ast.Method{
						Base:       ast.Base{SrcRange: prop.Rng, Vis: ast.InferPrivacy(prop.Key, nil, defaultPrivate)},
						MethodName: prop.Key,
					})
				}
			}
		}
	}
	for _, p := range res.Members.Properties {
		attr, hasAttr := ast.PropertyNameToAttributeName(p.PropName)
		if p.Notify {
			eventName := p.PropName + "-changed"
			if hasAttr {
				eventName = attr + "-changed"
			}
			res.Members.Events = append(res.Members.Events, &ast.Event{
				Base:      ast.Base{SrcRange: p.Range()},
				EventName: eventName,
			})
		}
		if hasAttr {
			res.Members.Attributes = append(res.Members.Attributes, &ast.Attribute{
				Base:     ast.Base{SrcRange: p.Range(), Vis: p.Privacy()},
				AttrName: attr,
				Type:     p.Type,
			})
		}
	}
	return res
}

func methodFromClassMember(m script.ClassMember, defaultPrivate bool) *ast.Method {
	var doc *ast.JSDoc
	if m.Doc() != "" {
		doc = ast.ParseJSDoc(m.Doc())
	}
	method := &ast.Method{
		Base:       ast.Base{SrcRange: m.Range(), Doc: doc, Vis: ast.InferPrivacy(m.Name, doc, defaultPrivate)},
		MethodName: m.Name,
	}
	for _, p := range m.Params {
		method.Params = append(method.Params, ast.Param{Name: p})
	}
	if doc != nil {
		if ret, ok := doc.ReturnTag(); ok {
			method.Return = ret
		}
		for i, p := range doc.Params() {
			if i < len(method.Params) {
				method.Params[i].Type = p.Type
				method.Params[i].Desc = p.Desc
			}
		}
	}
	return method
}

func propertiesFromGetter(m script.ClassMember, defaultPrivate bool) []*ast.Property {
	if m.Body == nil {
		return nil
	}
	for _, stmt := range m.Body.Body {
		ret, ok := stmt.(*script.ReturnStmt)
		if !ok {
			continue
		}
		if obj, ok := ret.Arg.(*script.ObjectExpr); ok {
			return propertiesFromObject(obj, defaultPrivate)
		}
	}
	return nil
}

func behaviorsFromGetter(m script.ClassMember) []string {
	if m.Body == nil {
		return nil
	}
	for _, stmt := range m.Body.Body {
		ret, ok := stmt.(*script.ReturnStmt)
		if !ok {
			continue
		}
		if arr, ok := ret.Arg.(*script.ArrayExpr); ok {
			return dottedNamesFromArray(arr)
		}
	}
	return nil
}

func dottedNamesFromArray(arr *script.ArrayExpr) []string {
	var out []string
	for _, e := range arr.Elements {
		if name, ok := script.DottedName(e); ok {
			out = append(out, name)
		}
	}
	return out
}

func propertiesFromObject(obj *script.ObjectExpr, defaultPrivate bool) []*ast.Property {
	var props []*ast.Property
	for _, entry := range obj.Properties {
		name := entry.Key
		prop := &ast.Property{
			Base:    ast.Base{SrcRange: entry.Rng, Vis: ast.InferPrivacy(name, nil, defaultPrivate)},
			PropName: name,
		}
		switch v := entry.Value.(type) {
		case *script.Ident:
			// shorthand `foo: String`
			prop.Type = v.Name
		case *script.ObjectExpr:
			fillPropertyDescriptor(prop, v)
		}
		props = append(props, prop)
	}
	return props
}

func fillPropertyDescriptor(prop *ast.Property, obj *script.ObjectExpr) {
	for _, entry := range obj.Properties {
		switch entry.Key {
		case "type":
			if name, ok := script.DottedName(entry.Value); ok {
				prop.Type = name
			}
		case "value":
			prop.Default = literalText(entry.Value)
		case "notify":
			prop.Notify = boolValue(entry.Value)
		case "readOnly":
			prop.Readonly = boolValue(entry.Value)
		case "reflectToAttribute":
			prop.Reflect = boolValue(entry.Value)
		case "computed":
			if s, ok := entry.Value.(*script.StringLit); ok {
				prop.Computed = s.Value
			}
		}
	}
}

func boolValue(n ast.Node) bool {
	b, ok := n.(*script.BooleanLit)
	return ok && b.Value
}

// literalText renders a simple literal expression back to source-like
// text for Property.Default; anything more complex (a function, a
// non-literal expression) yields "" rather than a best-effort guess, since
// the summary emitter has no use for an approximate rendering.
func literalText(n ast.Node) string {
	switch v := n.(type) {
	case *script.StringLit:
		return v.Value
	case *script.NumberLit:
		return v.Value
	case *script.BooleanLit:
		if v.Value {
			return "true"
		}
		return "false"
	case *script.ArrayExpr:
		if len(v.Elements) == 0 {
			return "[]"
		}
	case *script.ObjectExpr:
		if len(v.Properties) == 0 {
			return "{}"
		}
	case *script.FunctionExpr:
		return ""
	}
	return ""
}

// flattenSuperClass reads a class's `extends` clause, unwrapping any chain
// of mixin-application calls (`extends MixinA(MixinB(Base))`) into the
// list of applied mixin names plus the innermost actual superclass name,
// same idea as the factory-literal "behaviors" array but for the ES6
// mixin-application convention.
func flattenSuperClass(n ast.Node) (super string, hasSuper bool, mixinApps []string) {
	cur := n
	for {
		call, ok := cur.(*script.CallExpr)
		if !ok {
			break
		}
		if name, ok := script.DottedName(call.Callee); ok {
			mixinApps = append(mixinApps, name)
		}
		if len(call.Args) != 1 {
			break
		}
		cur = call.Args[0]
	}
	if name, ok := script.DottedName(cur); ok {
		return name, true, mixinApps
	}
	return "", false, mixinApps
}

// descFromDoc pulls the shared classLikeBase fields out of a
// JSDoc comment, used by every class-like scanner.
func descFromDoc(doc *ast.JSDoc) (desc string, demos []ast.Demo) {
	if doc == nil {
		return "", nil
	}
	return strings.TrimSpace(doc.Description), doc.Demos()
}
