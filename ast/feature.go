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

// FeatureKind enumerates the scanned-feature variants of spec §3.
type FeatureKind int

const (
	KindImport FeatureKind = iota
	KindInlineDocument
	KindClass
	KindFunction
	KindNamespace
	KindElement
	KindMixin
	KindBehavior
	KindElementReference
	KindAttribute
	KindEvent
	KindProperty
	KindMethod
	KindSlot
)

func (k FeatureKind) String() string {
	switch k {
	case KindImport:
		return "import"
	case KindInlineDocument:
		return "inline-document"
	case KindClass:
		return "class"
	case KindFunction:
		return "function"
	case KindNamespace:
		return "namespace"
	case KindElement:
		return "element"
	case KindMixin:
		return "mixin"
	case KindBehavior:
		return "behavior"
	case KindElementReference:
		return "element-reference"
	case KindAttribute:
		return "attribute"
	case KindEvent:
		return "event"
	case KindProperty:
		return "property"
	case KindMethod:
		return "method"
	case KindSlot:
		return "slot"
	default:
		return "unknown"
	}
}

// WarningKind enumerates the error kinds of spec §7.
type WarningKind int

const (
	WarningUnableToLoad WarningKind = iota
	WarningUnableToParse
	WarningUnresolvedReference
	WarningAmbiguousName
	WarningUnableToAnalyze
	WarningSchemaValidation
)

// Warning is a non-fatal diagnostic attached to a feature or a document.
type Warning struct {
	Kind    WarningKind
	Message string
	Range   SourceRange
}

func (w Warning) Error() string { return w.Message }

// Base holds the fields every scanned feature carries (spec §3): its source
// range, JSDoc annotation, inferred privacy, and any warnings accumulated
// while it was being scanned.
type Base struct {
	SrcRange SourceRange
	Doc      *JSDoc
	Vis      Privacy
	Warns    []Warning
}

func (b *Base) Range() SourceRange      { return b.SrcRange }
func (b *Base) JSDoc() *JSDoc           { return b.Doc }
func (b *Base) Privacy() Privacy        { return b.Vis }
func (b *Base) Warnings() []Warning     { return b.Warns }
func (b *Base) AddWarning(w Warning)    { b.Warns = append(b.Warns, w) }
func (b *Base) SetPrivacy(p Privacy)    { b.Vis = p }

// Feature is implemented by every scanned-feature variant.
type Feature interface {
	Kind() FeatureKind
	Range() SourceRange
	JSDoc() *JSDoc
	Privacy() Privacy
	Warnings() []Warning
	AddWarning(Warning)
}

// Named is implemented by features that have a declared name (everything
// except, e.g., bare ElementReference uses, which are named by tag only).
type Named interface {
	Name() string
}

// Property is a scanned or resolved element/mixin/behavior property.
type Property struct {
	Base
	PropName      string
	Type          string
	Default       string
	Notify        bool
	Readonly      bool
	Reflect       bool
	Computed      string
	InheritedFrom string
}

func (p *Property) Kind() FeatureKind { return KindProperty }
func (p *Property) Name() string      { return p.PropName }

// Method is a scanned or resolved element/mixin/behavior/class method.
type Method struct {
	Base
	MethodName    string
	Params        []Param
	Return        Return
	InheritedFrom string
}

func (m *Method) Kind() FeatureKind { return KindMethod }
func (m *Method) Name() string      { return m.MethodName }

// Param describes a single function/method parameter, usually lifted from
// JSDoc `@param` tags (spec §4.4, function scanner).
type Param struct {
	Name string
	Type string
	Desc string
}

// Return describes a function/method's `@return`/`@returns` JSDoc tag.
type Return struct {
	Type string
	Desc string
}

// Attribute is an observed HTML attribute, either declared explicitly or
// derived from a published property (spec §4.4's property->attribute
// conversion, and the `{attribute}-changed` event for notify properties).
type Attribute struct {
	Base
	AttrName      string
	Type          string
	InheritedFrom string
}

func (a *Attribute) Kind() FeatureKind { return KindAttribute }
func (a *Attribute) Name() string      { return a.AttrName }

// Event is a custom DOM event a class-like feature may fire.
type Event struct {
	Base
	EventName     string
	InheritedFrom string
}

func (e *Event) Kind() FeatureKind { return KindEvent }
func (e *Event) Name() string      { return e.EventName }

// Slot is a named (or default, unnamed) `<slot>` found in an element's
// template (spec §3, §6).
type Slot struct {
	Base
	SlotName string
}

func (s *Slot) Kind() FeatureKind { return KindSlot }
func (s *Slot) Name() string      { return s.SlotName }

// StylingInfo is the supplemented "styling" summary field (SPEC_FULL §5):
// custom CSS properties and `@apply`-style mixin names an element's inline
// stylesheet declares.
type StylingInfo struct {
	CSSCustomProperties []string
	CSSMixins           []string
}

// MemberSet is the flattened-at-resolve-time member list carried by every
// class-like feature (design note in spec §9: "a single flattened member
// list with provenance").
type MemberSet struct {
	Properties []*Property
	Methods    []*Method
	Attributes []*Attribute
	Events     []*Event
	Slots      []*Slot
}
