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

// Package resolve implements the Feature Resolver (spec §4.5): it lifts a
// scanned document into a resolved Document by building, for every
// element/mixin/behavior/class-like feature, the prototype chain (self,
// superclass, mixins, behaviors) and flattening ancestor members onto the
// child with inherited_from provenance and override-by-name shadowing.
//
// Grounded on the teacher's linker.Link two-pass shape (populate symbols,
// then resolve references against them) — here the "symbols" are each
// document's class-like features, searched across the resolving
// document's import closure exactly as spec §4.5 step 3 describes.
package resolve

import (
	"fmt"

	"github.com/rayantony/polymer-analyzer/ast"
)

// Deps supplies the Feature Resolver with the document it can't look up
// itself: a peek at an already-scanned document (no compute-on-miss — by
// the time Resolve runs, scan_transitive has already populated the
// snapshot's scanned cache for every URL this analysis reached), and a
// callback to resolve an import edge to its own resolved Document
// (memoized and cycle-guarded by the caller, mirroring depgraph.WhenReady's
// "already-visited nodes are ready" rule applied one layer up).
type Deps struct {
	ScannedDocument func(url ast.CanonicalURL) (*ast.ScannedDocument, bool)
	ResolveImport   func(url ast.CanonicalURL) (*ast.Document, error)
	DefaultPrivate  bool
}

// Resolve implements spec §4.5 steps 1-4 for one URL. Step 5 (memoization)
// is the caller's responsibility (the Analysis Cache's `resolved_docs`
// table, via get_or_compute).
func Resolve(url ast.CanonicalURL, deps Deps) (*ast.Document, error) {
	scanned, ok := deps.ScannedDocument(url)
	if !ok {
		return &ast.Document{
			Warning: &ast.Warning{
				Kind:    ast.WarningUnableToAnalyze,
				Message: fmt.Sprintf("unable to analyze %s: no scanned document", url),
				Range:   ast.UnknownRange(url),
			},
		}, nil
	}

	doc := &ast.Document{
		Scanned:        scanned,
		FeaturesByKind: scanned.FeaturesByKind(),
	}
	doc.Imports = resolveImports(scanned, deps)

	resolveClassLikes(doc, deps.DefaultPrivate)
	return doc, nil
}

// resolveImports resolves every Import feature's target document,
// attaching a load/resolve failure to the Import feature itself rather
// than propagating it (spec §4.1 "Failure model", §7 "Propagation
// policy"): an unresolved import never fails its importer.
func resolveImports(scanned *ast.ScannedDocument, deps Deps) []*ast.Document {
	var imports []*ast.Document
	for _, f := range scanned.AllFeatures() {
		imp, ok := f.(*ast.Import)
		if !ok {
			continue
		}
		impDoc, err := deps.ResolveImport(imp.Resolved)
		if err != nil {
			w := ast.Warning{Kind: ast.WarningUnableToLoad, Message: err.Error(), Range: imp.Range()}
			imp.LoadError = &w
			imp.AddWarning(w)
			continue
		}
		if impDoc.Warning != nil {
			imp.LoadError = impDoc.Warning
			imp.AddWarning(*impDoc.Warning)
		}
		imports = append(imports, impDoc)
	}
	return imports
}

// classLikeKinds enumerates the feature kinds the prototype chain applies
// to. Spec §4.5 step 3 names element/element-mixin/behavior explicitly;
// scenario E3 (superclass method inheritance) exercises the same mechanism
// on a plain class, so Class is included too — it implements the same
// ClassLike/"has-members" capability (spec §9's design note).
var classLikeKinds = []ast.FeatureKind{ast.KindClass, ast.KindElement, ast.KindMixin, ast.KindBehavior}

func resolveClassLikes(doc *ast.Document, defaultPrivate bool) {
	for _, kind := range classLikeKinds {
		feats := doc.FeaturesByKind[kind]
		for i, f := range feats {
			cl, ok := f.(ast.ClassLike)
			if !ok {
				continue
			}
			feats[i] = resolveOne(cl, doc)
		}
	}
}

// resolveOne builds cl's prototype chain (searching doc's own features and
// its import closure) and returns a clone of cl carrying the flattened
// member list plus ResolvedSuper/ResolvedMixins/ResolvedBehaviors. The
// original scanned feature is left untouched since it may be shared by
// other resolved Documents in the same snapshot (e.g. a behavior imported
// by several elements).
func resolveOne(self ast.ClassLike, doc *ast.Document) ast.ClassLike {
	visited := map[string]bool{}
	chain, warnings := collectChain(self, doc, visited)

	combined := ast.MemberSet{
		Properties: append([]*ast.Property(nil), self.Members().Properties...),
		Methods:    append([]*ast.Method(nil), self.Members().Methods...),
		Attributes: append([]*ast.Attribute(nil), self.Members().Attributes...),
		Events:     append([]*ast.Event(nil), self.Members().Events...),
		Slots:      append([]*ast.Slot(nil), self.Members().Slots...),
	}
	haveProp := nameSet(combined.Properties, func(p *ast.Property) string { return p.PropName })
	haveMethod := nameSet(combined.Methods, func(m *ast.Method) string { return m.MethodName })
	haveAttr := nameSet(combined.Attributes, func(a *ast.Attribute) string { return a.AttrName })
	haveEvent := nameSet(combined.Events, func(e *ast.Event) string { return e.EventName })
	haveSlot := nameSet(combined.Slots, func(s *ast.Slot) string { return s.SlotName })

	var resolvedSuper ast.ClassLike
	var resolvedMixins, resolvedBehaviors []ast.ClassLike

	for _, ancestor := range chain[1:] {
		fqn := ancestor.FullyQualifiedName()
		for _, p := range ancestor.Members().Properties {
			if haveProp[p.PropName] {
				continue
			}
			haveProp[p.PropName] = true
			clone := *p
			clone.InheritedFrom = fqn
			combined.Properties = append(combined.Properties, &clone)
		}
		for _, m := range ancestor.Members().Methods {
			if haveMethod[m.MethodName] {
				continue
			}
			haveMethod[m.MethodName] = true
			clone := *m
			clone.InheritedFrom = fqn
			combined.Methods = append(combined.Methods, &clone)
		}
		for _, a := range ancestor.Members().Attributes {
			if haveAttr[a.AttrName] {
				continue
			}
			haveAttr[a.AttrName] = true
			clone := *a
			clone.InheritedFrom = fqn
			combined.Attributes = append(combined.Attributes, &clone)
		}
		for _, e := range ancestor.Members().Events {
			if haveEvent[e.EventName] {
				continue
			}
			haveEvent[e.EventName] = true
			clone := *e
			clone.InheritedFrom = fqn
			combined.Events = append(combined.Events, &clone)
		}
		for _, s := range ancestor.Members().Slots {
			if haveSlot[s.SlotName] {
				continue
			}
			haveSlot[s.SlotName] = true
			clone := *s
			combined.Slots = append(combined.Slots, &clone)
		}
	}

	if name, ok := self.SuperClass(); ok {
		if f, ok2 := findClassLike(doc, name, map[*ast.Document]bool{}); ok2 {
			resolvedSuper = f
		}
	}
	for _, m := range self.MixinNames() {
		if f, ok := findClassLike(doc, m, map[*ast.Document]bool{}); ok {
			resolvedMixins = append(resolvedMixins, f)
		}
	}
	for _, b := range self.BehaviorNames() {
		if f, ok := findClassLike(doc, b, map[*ast.Document]bool{}); ok {
			resolvedBehaviors = append(resolvedBehaviors, f)
		}
	}

	clone := ast.CloneClassLike(self)
	clone.SetMembers(combined)
	clone.SetResolvedChain(resolvedSuper, resolvedMixins, resolvedBehaviors)
	for _, w := range warnings {
		clone.AddWarning(w)
	}
	return clone
}

func nameSet[T any](items []T, key func(T) string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, it := range items {
		out[key(it)] = true
	}
	return out
}

// collectChain walks self's superclass/mixin/behavior references,
// recursively flattening each ancestor's own chain in turn (so a behavior
// composed of other behaviors — spec §4.4 "a behavior whose value is an
// array of identifier references is interpreted as a composition" —
// contributes its own ancestors' members too, as scenario E1's
// deeply-inherited property requires). visited is keyed by fully-qualified
// name to tolerate a reference cycle without infinite recursion.
func collectChain(self ast.ClassLike, doc *ast.Document, visited map[string]bool) ([]ast.ClassLike, []ast.Warning) {
	fqn := self.FullyQualifiedName()
	if visited[fqn] {
		return nil, nil
	}
	visited[fqn] = true

	chain := []ast.ClassLike{self}
	var warnings []ast.Warning

	if name, ok := self.SuperClass(); ok {
		if f, ok2 := findClassLike(doc, name, map[*ast.Document]bool{}); ok2 {
			sub, w := collectChain(f, doc, visited)
			chain = append(chain, sub...)
			warnings = append(warnings, w...)
		} else {
			warnings = append(warnings, unresolvedWarning(self, "superclass", name))
		}
	}
	for _, m := range self.MixinNames() {
		if f, ok := findClassLike(doc, m, map[*ast.Document]bool{}); ok {
			sub, w := collectChain(f, doc, visited)
			chain = append(chain, sub...)
			warnings = append(warnings, w...)
		} else {
			warnings = append(warnings, unresolvedWarning(self, "mixin", m))
		}
	}
	for _, b := range self.BehaviorNames() {
		if f, ok := findClassLike(doc, b, map[*ast.Document]bool{}); ok {
			sub, w := collectChain(f, doc, visited)
			chain = append(chain, sub...)
			warnings = append(warnings, w...)
		} else {
			warnings = append(warnings, unresolvedWarning(self, "behavior", b))
		}
	}
	return chain, warnings
}

func unresolvedWarning(self ast.ClassLike, axis, name string) ast.Warning {
	return ast.Warning{
		Kind:    ast.WarningUnresolvedReference,
		Message: fmt.Sprintf("%s: unresolved %s reference %q", self.FullyQualifiedName(), axis, name),
		Range:   self.Range(),
	}
}

// findClassLike searches doc's own class-like features, then recursively
// doc.Imports, for a feature whose fully-qualified name or bare name
// matches (spec §4.5 step 3: "searched across imported documents").
// visitedDocs guards against the resolved-document graph itself being
// cyclic (mutual imports).
func findClassLike(doc *ast.Document, name string, visitedDocs map[*ast.Document]bool) (ast.ClassLike, bool) {
	if doc == nil || visitedDocs[doc] {
		return nil, false
	}
	visitedDocs[doc] = true

	for _, kind := range classLikeKinds {
		for _, f := range doc.FeaturesByKind[kind] {
			cl, ok := f.(ast.ClassLike)
			if !ok {
				continue
			}
			if cl.FullyQualifiedName() == name || cl.Name() == name {
				return cl, true
			}
		}
	}
	for _, imp := range doc.Imports {
		if f, ok := findClassLike(imp, name, visitedDocs); ok {
			return f, true
		}
	}
	return nil, false
}
