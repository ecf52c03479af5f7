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

// Package summary implements the Summary Emitter (spec §4.7, §6): it walks
// a resolved analysis in a stable order and produces a versioned JSON
// surface, rewriting source ranges relative to either the package root or
// the referring element's directory for inherited members. Grounded on
// the teacher's own descriptor-emission shape (compiler.go's CompileResult
// assembly step) generalized from protobuf descriptors to this system's
// own feature tree — there is no teacher analogue for the JSON encoding
// itself, which is why this package leans on stdlib encoding/json rather
// than any pack dependency (see DESIGN.md).
package summary

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rayantony/polymer-analyzer/ast"
)

// SchemaVersion is the emitted summary's schema_version field (spec §6:
// "schema version 1.x.x").
const SchemaVersion = "1.0.0"

// Summary is the top-level JSON surface (spec §6).
type Summary struct {
	SchemaVersion string            `json:"schema_version"`
	Namespaces    []*NamespaceEntry `json:"namespaces,omitempty"`
	Elements      []*ClassLikeEntry `json:"elements,omitempty"`
	Mixins        []*ClassLikeEntry `json:"mixins,omitempty"`
	Classes       []*ClassLikeEntry `json:"classes,omitempty"`
	Functions     []*FunctionEntry  `json:"functions,omitempty"`
	Metadata      *MetadataBag      `json:"metadata,omitempty"`
}

// MetadataBag carries framework-specific top-level annotations (spec §6:
// "metadata.polymer.behaviors").
type MetadataBag struct {
	Polymer *PolymerMetadata `json:"polymer,omitempty"`
}

type PolymerMetadata struct {
	Behaviors []*ClassLikeEntry `json:"behaviors,omitempty"`
}

// NamespaceEntry is one emitted namespace, nested by dotted name (spec
// §4.7: "namespaces (nested by dotted name)").
type NamespaceEntry struct {
	Name   string            `json:"name"`
	Childs []*NamespaceEntry `json:"namespaces,omitempty"`
}

// SourceRangeEntry is the emitted sourceRange shape (spec §6).
type SourceRangeEntry struct {
	File  string      `json:"file"`
	Start ast.Position `json:"start"`
	End   ast.Position `json:"end"`
}

// MemberEntry is the shape shared by properties/methods/attributes/events
// (spec §6: "optional inheritedFrom on any member").
type MemberEntry struct {
	Name          string           `json:"name"`
	Type          string           `json:"type,omitempty"`
	Description   string           `json:"description,omitempty"`
	Privacy       string           `json:"privacy,omitempty"`
	InheritedFrom string           `json:"inheritedFrom,omitempty"`
	SourceRange   SourceRangeEntry `json:"sourceRange"`
}

// SlotEntry is the emitted shape of a named (or default) slot.
type SlotEntry struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	SourceRange SourceRangeEntry `json:"sourceRange"`
}

// DemoEntry is the emitted shape of a `@demo` JSDoc tag (SPEC_FULL §5).
type DemoEntry struct {
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
}

// StylingEntry is the emitted shape of the supplemented styling descriptor
// (SPEC_FULL §5).
type StylingEntry struct {
	CSSCustomProperties []string `json:"cssCustomProperties,omitempty"`
	CSSMixins           []string `json:"cssMixins,omitempty"`
}

// ClassLikeEntry is the emitted shape of an element/mixin/behavior/class
// (spec §6).
type ClassLikeEntry struct {
	Name          string            `json:"name"`
	TagName       string            `json:"tagname,omitempty"`
	Description   string            `json:"description,omitempty"`
	Summary       string            `json:"summary,omitempty"`
	Path          string            `json:"path"`
	Properties    []MemberEntry     `json:"properties,omitempty"`
	Methods       []MemberEntry     `json:"methods,omitempty"`
	Attributes    []MemberEntry     `json:"attributes,omitempty"`
	Events        []MemberEntry     `json:"events,omitempty"`
	Slots         []SlotEntry       `json:"slots,omitempty"`
	Demos         []DemoEntry       `json:"demos,omitempty"`
	Styling       StylingEntry      `json:"styling"`
	Privacy       string            `json:"privacy,omitempty"`
	Superclass    string            `json:"superclass,omitempty"`
	Mixins        []string          `json:"mixins,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	SourceRange   SourceRangeEntry  `json:"sourceRange"`
}

// FunctionEntry is the emitted shape of a top-level function (spec §6).
type FunctionEntry struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	MemberOf    string            `json:"memberof,omitempty"`
	Params      []ParamEntry      `json:"params,omitempty"`
	Return      *ReturnEntry      `json:"return,omitempty"`
	SourceRange SourceRangeEntry  `json:"sourceRange"`
}

type ParamEntry struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
	Desc string `json:"description,omitempty"`
}

type ReturnEntry struct {
	Type string `json:"type,omitempty"`
	Desc string `json:"description,omitempty"`
}

// Emit walks roots (and, transitively, everything they import) and
// produces a schema-validated Summary rooted at packageRoot — the
// directory every non-inherited sourceRange.file is made relative to
// (spec §4.7). Emit rejects (returns an error for) an assembled Summary
// that fails Validate, exactly as spec §7's "Schema-validation failure"
// names.
func Emit(roots []*ast.Document, packageRoot string) (*Summary, error) {
	feats := collectAll(roots)

	s := &Summary{SchemaVersion: SchemaVersion}
	s.Namespaces = buildNamespaces(feats[ast.KindNamespace])

	for _, f := range feats[ast.KindElement] {
		cl := f.(ast.ClassLike)
		s.Elements = append(s.Elements, emitClassLike(cl, packageRoot))
	}
	for _, f := range feats[ast.KindMixin] {
		cl := f.(ast.ClassLike)
		s.Mixins = append(s.Mixins, emitClassLike(cl, packageRoot))
	}
	for _, f := range feats[ast.KindClass] {
		cl := f.(ast.ClassLike)
		s.Classes = append(s.Classes, emitClassLike(cl, packageRoot))
	}
	var behaviors []*ClassLikeEntry
	for _, f := range feats[ast.KindBehavior] {
		cl := f.(ast.ClassLike)
		behaviors = append(behaviors, emitClassLike(cl, packageRoot))
	}
	if len(behaviors) > 0 {
		s.Metadata = &MetadataBag{Polymer: &PolymerMetadata{Behaviors: behaviors}}
	}
	for _, f := range feats[ast.KindFunction] {
		fn := f.(*ast.Function)
		s.Functions = append(s.Functions, emitFunction(fn, packageRoot))
	}

	sortClassLikes(s.Elements)
	sortClassLikes(s.Mixins)
	sortClassLikes(s.Classes)
	sortClassLikes(behaviors)
	sort.Slice(s.Functions, func(i, j int) bool { return s.Functions[i].Name < s.Functions[j].Name })

	if errs := Validate(s); len(errs) > 0 {
		return nil, fmt.Errorf("summary failed schema validation: %s", strings.Join(errs, "; "))
	}
	return s, nil
}

func sortClassLikes(entries []*ClassLikeEntry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
}

// MarshalJSON is a thin convenience wrapper so callers don't need to import
// encoding/json themselves for the common case.
func (s *Summary) MarshalJSON() ([]byte, error) {
	type alias Summary
	return json.Marshal((*alias)(s))
}

// collectAll walks every root Document and, transitively, its Imports,
// deduplicating by pointer identity, and groups the union of every
// document's own FeaturesByKind.
func collectAll(roots []*ast.Document) map[ast.FeatureKind][]ast.Feature {
	seen := map[*ast.Document]bool{}
	out := map[ast.FeatureKind][]ast.Feature{}
	var walk func(d *ast.Document)
	walk = func(d *ast.Document) {
		if d == nil || seen[d] {
			return
		}
		seen[d] = true
		for kind, fs := range d.FeaturesByKind {
			out[kind] = append(out[kind], fs...)
		}
		for _, imp := range d.Imports {
			walk(imp)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	return out
}

func buildNamespaces(nsFeatures []ast.Feature) []*NamespaceEntry {
	var names []string
	for _, f := range nsFeatures {
		if ns, ok := f.(*ast.Namespace); ok {
			names = append(names, ns.NSName)
		}
	}
	sort.Strings(names)

	root := &NamespaceEntry{}
	byPath := map[string]*NamespaceEntry{"": root}
	for _, name := range names {
		parts := strings.Split(name, ".")
		prefix := ""
		parent := root
		for _, p := range parts {
			path := p
			if prefix != "" {
				path = prefix + "." + p
			}
			n, ok := byPath[path]
			if !ok {
				n = &NamespaceEntry{Name: path}
				byPath[path] = n
				parent.Childs = append(parent.Childs, n)
			}
			parent = n
			prefix = path
		}
	}
	return root.Childs
}

func emitClassLike(cl ast.ClassLike, packageRoot string) *ClassLikeEntry {
	e := &ClassLikeEntry{
		Name:        cl.FullyQualifiedName(),
		Description: cl.Description(),
		Path:        relativePath(packageRoot, string(cl.Range().File)),
		Privacy:     cl.Privacy().String(),
		Mixins:      cl.MixinNames(),
		SourceRange: emitRange(cl.Range(), packageRoot),
	}
	if super, ok := cl.SuperClass(); ok {
		e.Superclass = super
	}
	if el, ok := cl.(*ast.Element); ok {
		e.TagName = el.TagName
	}

	elementDir := dirOf(string(cl.Range().File))
	members := cl.Members()
	for _, p := range members.Properties {
		e.Properties = append(e.Properties, emitMember(p.Base, p.PropName, p.Type, p.InheritedFrom, packageRoot, elementDir))
	}
	for _, m := range members.Methods {
		e.Methods = append(e.Methods, emitMember(m.Base, m.MethodName, "", m.InheritedFrom, packageRoot, elementDir))
	}
	for _, a := range members.Attributes {
		e.Attributes = append(e.Attributes, emitMember(a.Base, a.AttrName, a.Type, a.InheritedFrom, packageRoot, elementDir))
	}
	for _, ev := range members.Events {
		e.Events = append(e.Events, emitMember(ev.Base, ev.EventName, "", ev.InheritedFrom, packageRoot, elementDir))
	}
	for _, sl := range members.Slots {
		e.Slots = append(e.Slots, SlotEntry{Name: sl.SlotName, SourceRange: emitRange(sl.Range(), packageRoot)})
	}
	for _, d := range cl.Demos() {
		e.Demos = append(e.Demos, DemoEntry{Path: d.Path, Description: d.Description})
	}
	e.Styling = StylingEntry{
		CSSCustomProperties: cl.Styling().CSSCustomProperties,
		CSSMixins:           cl.Styling().CSSMixins,
	}
	e.Metadata = extraMetadata(cl.JSDoc())
	return e
}

func emitMember(base ast.Base, name, typ, inheritedFrom, packageRoot, elementDir string) MemberEntry {
	m := MemberEntry{
		Name:          name,
		Type:          typ,
		Privacy:       base.Privacy().String(),
		InheritedFrom: inheritedFrom,
	}
	if base.JSDoc() != nil {
		m.Description = base.JSDoc().Description
	}
	if inheritedFrom != "" {
		// Inherited members' sourceRange.file is relative to the *element's*
		// directory, not the package root (spec §6).
		m.SourceRange = SourceRangeEntry{
			File:  relativePath(elementDir, string(base.Range().File)),
			Start: base.Range().Start,
			End:   base.Range().End,
		}
	} else {
		m.SourceRange = emitRange(base.Range(), packageRoot)
	}
	return m
}

func emitFunction(fn *ast.Function, packageRoot string) *FunctionEntry {
	e := &FunctionEntry{
		Name:        fn.FullyQualifiedName(),
		MemberOf:    fn.MemberOf,
		SourceRange: emitRange(fn.Range(), packageRoot),
	}
	if fn.JSDoc() != nil {
		e.Description = fn.JSDoc().Description
	}
	for _, p := range fn.Params {
		e.Params = append(e.Params, ParamEntry{Name: p.Name, Type: p.Type, Desc: p.Desc})
	}
	if fn.Return.Type != "" || fn.Return.Desc != "" {
		e.Return = &ReturnEntry{Type: fn.Return.Type, Desc: fn.Return.Desc}
	}
	return e
}

func emitRange(r ast.SourceRange, packageRoot string) SourceRangeEntry {
	return SourceRangeEntry{
		File:  relativePath(packageRoot, string(r.File)),
		Start: r.Start,
		End:   r.End,
	}
}

// extraMetadata surfaces whatever JSDoc tags the scanners don't already
// model into the summary's per-feature metadata bag (spec §6: "the
// scanner-supplied, framework-specific annotations").
func extraMetadata(doc *ast.JSDoc) map[string]string {
	if doc == nil {
		return nil
	}
	known := map[string]bool{"public": true, "private": true, "protected": true, "memberof": true, "demo": true}
	out := map[string]string{}
	for _, t := range doc.Tags {
		if known[t.Name] {
			continue
		}
		out[t.Name] = t.Text
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func dirOf(file string) string {
	i := strings.LastIndex(file, "/")
	if i < 0 {
		return ""
	}
	return file[:i]
}

// relativePath rewrites target to be relative to the fromDir directory
// (spec §4.7: "rewritten to be relative to either the package root ... or
// the referring element's directory").
func relativePath(fromDir, target string) string {
	fromDir = strings.TrimSuffix(fromDir, "/")
	if fromDir == "" {
		return target
	}
	fromParts := strings.Split(fromDir, "/")
	targetParts := strings.Split(target, "/")

	i := 0
	for i < len(fromParts) && i < len(targetParts)-1 && fromParts[i] == targetParts[i] {
		i++
	}
	var rel []string
	for j := i; j < len(fromParts); j++ {
		rel = append(rel, "..")
	}
	rel = append(rel, targetParts[i:]...)
	return strings.Join(rel, "/")
}
