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

// DocumentKind identifies which language a document is written in, used to
// select both the Parser Registry entry and the Scanner Pipeline's scanner
// set (spec §4.3, §4.4).
type DocumentKind int

const (
	DocumentMarkup DocumentKind = iota
	DocumentScript
	DocumentStylesheet
	DocumentData
)

func (k DocumentKind) String() string {
	switch k {
	case DocumentMarkup:
		return "markup"
	case DocumentScript:
		return "script"
	case DocumentStylesheet:
		return "stylesheet"
	case DocumentData:
		return "data"
	default:
		return "unknown"
	}
}

// Node is implemented by every node of every language-specific AST this
// module knows how to lower source into. It is intentionally minimal —
// concrete per-language ASTs (ast/script, ast/markup, ast/style,
// ast/data) add their own richer node types on top of this.
type Node interface {
	Range() SourceRange
}

// ParsedDocument is the immutable result of parsing one document (spec
// §3). AST is the language-specific root node (a *script.Program, a
// *markup.Document, a *style.Document, or a *data.Document); callers type
// -assert it based on Kind.
type ParsedDocument struct {
	Kind       DocumentKind
	URL        CanonicalURL
	SourceText string
	AST        Node
	Inline     *LocationOffset // set when this parsed document is an inline sub-document
}

// ScannedDocument is the result of running the Scanner Pipeline over one
// ParsedDocument (spec §3): the direct features it declares, any warnings
// accumulated while scanning, and — for markup documents with inline
// scripts/styles — the nested scanned sub-documents reachable through its
// InlineDocument features.
type ScannedDocument struct {
	URL      CanonicalURL
	Parsed   *ParsedDocument
	Features []Feature
	Warnings []Warning
	IsInline bool
	Offset   LocationOffset

	// StyleInfo is populated only for a scanned document whose Parsed.Kind
	// is DocumentStylesheet: the custom-property/mixin declarations a
	// dedicated stylesheet scanner extracted (SPEC_FULL §5, "Styling
	// descriptor"). The markup scanner folds an inline stylesheet's
	// StyleInfo into its sibling class-like features' Styling().
	StyleInfo StylingInfo
}

// AllFeatures returns this document's own features followed by, in order,
// every feature of every inline sub-document it contains — the "tree walk"
// spec §3 describes for Scanned Document.
func (d *ScannedDocument) AllFeatures() []Feature {
	out := make([]Feature, 0, len(d.Features))
	out = append(out, d.Features...)
	for _, f := range d.Features {
		if inline, ok := f.(*InlineDocument); ok && inline.Document != nil {
			out = append(out, inline.Document.AllFeatures()...)
		}
	}
	return out
}

// FeaturesByKind groups a document's own-and-inline features by kind, the
// shape a resolved Document stores (spec §3: "Document (resolved)").
func (d *ScannedDocument) FeaturesByKind() map[FeatureKind][]Feature {
	out := map[FeatureKind][]Feature{}
	for _, f := range d.AllFeatures() {
		out[f.Kind()] = append(out[f.Kind()], f)
	}
	return out
}
