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

package ast

import "strings"

// ClassLike is implemented by every feature that participates in the
// prototype chain the Feature Resolver builds (spec §4.5, §9): Class,
// Element, Mixin, and Behavior. It is the "has-members" capability the
// design notes call for so a single resolver pass can flatten inherited
// members regardless of which axis (superclass, mixin, or behavior)
// contributed them.
type ClassLike interface {
	Feature
	Named
	FullyQualifiedName() string
	Members() *MemberSet
	SuperClass() (name string, ok bool)
	MixinNames() []string
	BehaviorNames() []string
	Description() string
	Demos() []Demo
	Styling() StylingInfo
	OwningDocument() CanonicalURL

	// SetMembers and SetResolvedChain are called by the Feature Resolver
	// (spec §4.5) on a clone produced by CloneClassLike, never on the
	// original scanned feature — a behavior or mixin may be imported by
	// several elements within one snapshot and must stay pristine.
	SetMembers(MemberSet)
	SetResolvedChain(super ClassLike, mixins, behaviors []ClassLike)
	ResolvedChain() (super ClassLike, mixins, behaviors []ClassLike)
}

// classLikeBase factors out the fields shared by Class, Element, Mixin, and
// Behavior so each only needs to add its own identity/kind-specific bits.
type classLikeBase struct {
	Base
	ClassName string
	Namespace string // dotted prefix the declaration was bound under, if any
	Owner     CanonicalURL
	Desc      string
	DemoList  []Demo
	Style     StylingInfo
	Super     string
	HasSuper  bool
	MixinApps []string
	BehaviorApps []string
	MemberList MemberSet

	// Populated by the Feature Resolver (spec §4.5); nil/empty until then.
	ResolvedSuper     ClassLike
	ResolvedMixins    []ClassLike
	ResolvedBehaviors []ClassLike
}

func (c *classLikeBase) Name() string { return c.ClassName }
func (c *classLikeBase) FullyQualifiedName() string {
	if c.Namespace != "" && !strings.HasPrefix(c.ClassName, c.Namespace+".") {
		return c.Namespace + "." + c.ClassName
	}
	return c.ClassName
}
func (c *classLikeBase) Members() *MemberSet        { return &c.MemberList }
func (c *classLikeBase) SuperClass() (string, bool) { return c.Super, c.HasSuper }
func (c *classLikeBase) MixinNames() []string       { return c.MixinApps }
func (c *classLikeBase) BehaviorNames() []string    { return c.BehaviorApps }
func (c *classLikeBase) Description() string        { return c.Desc }
func (c *classLikeBase) Demos() []Demo              { return c.DemoList }
func (c *classLikeBase) Styling() StylingInfo       { return c.Style }
func (c *classLikeBase) OwningDocument() CanonicalURL { return c.Owner }

// SetStyling is called by the markup scanner once a sibling inline
// stylesheet's custom-property/mixin declarations have been gathered
// (SPEC_FULL §5, "Styling descriptor"). Not part of the ClassLike
// interface — only the scanner needs it, via a local type assertion.
func (c *classLikeBase) SetStyling(s StylingInfo) { c.Style = s }

// SetMembers replaces this feature's flattened member list (spec §4.5: a
// single flattened member list with provenance).
func (c *classLikeBase) SetMembers(ms MemberSet) { c.MemberList = ms }

// SetResolvedChain records the resolved superclass/mixin/behavior
// references the Feature Resolver found for this feature.
func (c *classLikeBase) SetResolvedChain(super ClassLike, mixins, behaviors []ClassLike) {
	c.ResolvedSuper = super
	c.ResolvedMixins = mixins
	c.ResolvedBehaviors = behaviors
}

// ResolvedChain returns whatever SetResolvedChain last recorded.
func (c *classLikeBase) ResolvedChain() (ClassLike, []ClassLike, []ClassLike) {
	return c.ResolvedSuper, c.ResolvedMixins, c.ResolvedBehaviors
}

// CloneClassLike returns a shallow copy of cl as a fresh pointer of the
// same concrete type, safe for the Feature Resolver to mutate via
// SetMembers/SetResolvedChain without disturbing the original scanned
// feature (which may be shared by other resolved Documents in the same
// snapshot — spec §4.5 step 5's memoization is per (snapshot, URL), not
// per feature).
func CloneClassLike(cl ClassLike) ClassLike {
	switch v := cl.(type) {
	case *Class:
		cp := *v
		return &cp
	case *Element:
		cp := *v
		return &cp
	case *Mixin:
		cp := *v
		return &cp
	case *Behavior:
		cp := *v
		return &cp
	default:
		return cl
	}
}

// Class is a plain (non-custom-element, non-mixin) JavaScript class (spec
// §3, §4.4 class scanner, scenario E2).
type Class struct{ classLikeBase }

func (c *Class) Kind() FeatureKind { return KindClass }

// ElementKind distinguishes a custom-element declaration's provenance, used
// by the Summary Emitter to decide whether it was framework-recognized
// (spec §8-E6: "the more-specific kind ... never duplicated as a plain
// class").
type ElementKind int

const (
	ElementPlain ElementKind = iota
	ElementAnnotated
)

// Element is a custom-element declaration: a class registered (directly or
// via `customElements.define`) under a hyphenated tag name.
type Element struct {
	classLikeBase
	TagName string
	EKind   ElementKind
}

func (e *Element) Kind() FeatureKind { return KindElement }

// Mixin is a function that takes a superclass and returns a subclass (spec
// §4.4 mixin scanner, scenario E4).
type Mixin struct {
	classLikeBase
	EKind ElementKind
}

func (m *Mixin) Kind() FeatureKind { return KindMixin }

// Behavior is an object-literal declaration recognized by framework
// annotation (spec §4.4 behavior scanner, scenario E1). Composition
// ("behaviors: [...]") is modeled the same as mixin/superclass application:
// BehaviorNames() lists the chained behaviors.
type Behavior struct {
	classLikeBase
}

func (b *Behavior) Kind() FeatureKind { return KindBehavior }

// Namespace is an object literal annotated as a namespace (spec §4.4
// namespace scanner).
type Namespace struct {
	Base
	NSName   string
	Children []string // dotted names of elements/mixins/classes/functions declared under this namespace
}

func (n *Namespace) Kind() FeatureKind { return KindNamespace }
func (n *Namespace) Name() string      { return n.NSName }

// Function is a top-level function carrying a `@memberof` annotation (spec
// §4.4 function scanner).
type Function struct {
	Base
	FuncName  string
	MemberOf  string
	Params    []Param
	Return    Return
}

func (f *Function) Kind() FeatureKind { return KindFunction }
func (f *Function) Name() string      { return f.FuncName }
func (f *Function) FullyQualifiedName() string {
	if f.MemberOf != "" {
		return f.MemberOf + "." + f.FuncName
	}
	return f.FuncName
}

// Import is a recognized import element in a markup document (spec §4.4
// import scanner).
type Import struct {
	Base
	ImportedAs UnresolvedHref
	Resolved   CanonicalURL
	LoadError  *Warning // attached per spec §4.1/§4.6, never fails the importer's own readiness
}

func (i *Import) Kind() FeatureKind { return KindImport }

// UnresolvedHref is an href exactly as it appeared in an import element,
// prior to resolution against the containing document's URL.
type UnresolvedHref string

// InlineDocument is a script or style block embedded in markup (spec §3,
// glossary "Inline document").
type InlineDocument struct {
	Base
	DocKind  DocumentKind
	Offset   LocationOffset
	Src      string           // the inline body's raw text, handed to the nested parser
	Document *ScannedDocument // populated once the inline document is itself scanned
}

func (i *InlineDocument) Kind() FeatureKind { return KindInlineDocument }

// LocationOffset maps an inline sub-document's own coordinate space back to
// its containing file (spec §3, glossary).
type LocationOffset struct {
	Line     int
	Col      int
	Filename CanonicalURL
}

// ElementReference is a *use* of a custom element in markup, as opposed to
// its declaration in script (spec §4.4 element-reference scanner,
// glossary).
type ElementReference struct {
	Base
	TagName    string
	Attributes []AttributeUse
}

func (e *ElementReference) Kind() FeatureKind { return KindElementReference }
func (e *ElementReference) Name() string      { return e.TagName }

// AttributeUse is one attribute found on an ElementReference, with its own
// source range (spec §4.4: "all attributes and their per-attribute source
// ranges").
type AttributeUse struct {
	Name  string
	Value string
	Range SourceRange
}
