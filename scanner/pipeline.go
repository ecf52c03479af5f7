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

// Package scanner implements the Scanner Pipeline (spec §4.4): per-
// document-kind scanners that classify a parsed AST into scanned features,
// with inline sub-documents recursively parsed and scanned in place. Every
// scanner here is purely AST-driven: no I/O, no imports followed (spec
// §4.4, "Scanning is purely AST-driven").
package scanner

import (
	"fmt"

	"github.com/rayantony/polymer-analyzer/ast"
	"github.com/rayantony/polymer-analyzer/ast/data"
	"github.com/rayantony/polymer-analyzer/ast/markup"
	"github.com/rayantony/polymer-analyzer/ast/script"
	"github.com/rayantony/polymer-analyzer/ast/style"
	"github.com/rayantony/polymer-analyzer/reporter"
)

// Scan runs the registered scanner set for parsed.Kind over parsed, then
// recursively parses and scans every InlineDocument feature it emitted,
// attaching each resulting sub-document (spec §4.4 step (iii)). The
// returned ScannedDocument's Warnings include anything reported to h while
// scanning this document and its inline sub-documents.
func Scan(parsed *ast.ParsedDocument, opts Options, h *reporter.Handler) *ast.ScannedDocument {
	sd := &ast.ScannedDocument{URL: parsed.URL, Parsed: parsed, IsInline: parsed.Inline != nil}
	if parsed.Inline != nil {
		sd.Offset = *parsed.Inline
	}

	switch parsed.Kind {
	case ast.DocumentMarkup:
		doc, ok := parsed.AST.(*markup.Document)
		if ok {
			sd.Features = scanMarkup(doc, parsed.URL, h)
		}
	case ast.DocumentScript:
		prog, ok := parsed.AST.(*script.Program)
		if ok {
			sd.Features = scanScript(prog, parsed.URL, opts)
		}
	case ast.DocumentStylesheet:
		sheet, ok := parsed.AST.(*style.Document)
		if ok {
			sd.StyleInfo = stylingFromSheet(sheet)
		}
	case ast.DocumentData:
		if doc, ok := parsed.AST.(*data.Document); ok {
			sd.Features = scanData(doc, parsed.URL)
		}
	}

	for _, f := range sd.Features {
		inline, ok := f.(*ast.InlineDocument)
		if !ok {
			continue
		}
		scanInline(inline, parsed.URL, opts, h)
	}

	if parsed.Kind == ast.DocumentMarkup {
		attachStyling(sd)
		attachSlots(sd)
	}

	sd.Warnings = h.Warnings()
	return sd
}

// scanInline parses and scans one inline sub-document (a <script> or
// <style> body extracted by scanInlineDocuments), attaching the result to
// inline.Document. Parse/scan failures become a warning on the inline
// feature itself rather than failing the whole containing document.
func scanInline(inline *ast.InlineDocument, containingURL ast.CanonicalURL, opts Options, h *reporter.Handler) {
	sub := h.SubHandler()
	src := []byte(inline.Src)
	offset := inline.Offset

	var parsed *ast.ParsedDocument
	switch inline.DocKind {
	case ast.DocumentScript:
		prog, err := script.Parse(containingURL, src, sub)
		if err != nil {
			inline.AddWarning(ast.Warning{Kind: ast.WarningUnableToParse, Message: fmt.Sprintf("inline script: %v", err), Range: inline.Range()})
			return
		}
		parsed = &ast.ParsedDocument{Kind: ast.DocumentScript, URL: containingURL, SourceText: inline.Src, AST: prog, Inline: &offset}
	case ast.DocumentStylesheet:
		sheet, err := style.Parse(containingURL, src, sub)
		if err != nil {
			inline.AddWarning(ast.Warning{Kind: ast.WarningUnableToParse, Message: fmt.Sprintf("inline style: %v", err), Range: inline.Range()})
			return
		}
		parsed = &ast.ParsedDocument{Kind: ast.DocumentStylesheet, URL: containingURL, SourceText: inline.Src, AST: sheet, Inline: &offset}
	default:
		return
	}

	inline.Document = Scan(parsed, opts, sub)
	h.Merge(sub)
}

// attachStyling folds every inline stylesheet reachable from a markup
// document's own features into the Styling() of every class-like feature
// the document (directly, or via its inline scripts) declares —
// SPEC_FULL §5's "Styling descriptor": "scanned like any other scanned
// feature kind (emitted alongside the element when the owning markup
// document has an inline <style>)".
func attachStyling(sd *ast.ScannedDocument) {
	var style ast.StylingInfo
	for _, f := range sd.Features {
		inline, ok := f.(*ast.InlineDocument)
		if !ok || inline.DocKind != ast.DocumentStylesheet || inline.Document == nil {
			continue
		}
		style.CSSCustomProperties = append(style.CSSCustomProperties, inline.Document.StyleInfo.CSSCustomProperties...)
		style.CSSMixins = append(style.CSSMixins, inline.Document.StyleInfo.CSSMixins...)
	}
	if len(style.CSSCustomProperties) == 0 && len(style.CSSMixins) == 0 {
		return
	}
	for _, f := range sd.AllFeatures() {
		if setter, ok := f.(interface{ SetStyling(ast.StylingInfo) }); ok {
			setter.SetStyling(style)
		}
	}
}

// attachSlots folds every Slot feature a markup document's own (non-inline)
// features declare into the slots[] of every class-like feature the
// document (directly, or via its inline scripts) declares — SPEC_FULL §5's
// "Slots" supplement, scanned from every markup `<slot name="...">` element
// in the document, whether or not it sits inside a `<dom-module>`. This makes the
// same one-document-one-element simplification attachStyling does: a given
// markup module's slots belong to the element(s) it declares, without
// needing a separate dom-module-id-to-tag-name correlation pass.
func attachSlots(sd *ast.ScannedDocument) {
	var slots []*ast.Slot
	for _, f := range sd.Features {
		if s, ok := f.(*ast.Slot); ok {
			slots = append(slots, s)
		}
	}
	if len(slots) == 0 {
		return
	}
	for _, f := range sd.AllFeatures() {
		cl, ok := f.(ast.ClassLike)
		if !ok {
			continue
		}
		cl.Members().Slots = append(cl.Members().Slots, slots...)
	}
}

// stylingFromSheet lowers a parsed stylesheet's extracted declarations
// into the StylingInfo shape the Summary Emitter surfaces.
func stylingFromSheet(doc *style.Document) ast.StylingInfo {
	var info ast.StylingInfo
	for _, d := range doc.CustomProperties {
		info.CSSCustomProperties = append(info.CSSCustomProperties, d.Name)
	}
	for _, r := range doc.MixinApplies {
		info.CSSMixins = append(info.CSSMixins, r.Name)
	}
	return info
}

// scanData recognizes the structured-data-document member of the source
// corpus (SPEC_FULL §3: manifests, bower.json-style metadata). Inline
// `<script type="application/json">` blocks do not reach it: the markup
// scanner hands every inline <script> body to the script parser. Only
// top-level named entries are surfaced — nothing here resolves references, matching the "out of
// scope" treatment the JSON-schema validator gets in spec §1.
func scanData(doc *data.Document, url ast.CanonicalURL) []ast.Feature {
	obj, ok := doc.Value.(map[string]any)
	if !ok {
		return nil
	}
	name, _ := obj["name"].(string)
	if name == "" {
		return nil
	}
	ns := &ast.Namespace{NSName: name}
	ns.SrcRange = doc.Range()
	for key := range obj {
		if key == "name" {
			continue
		}
		ns.Children = append(ns.Children, name+"."+key)
	}
	return []ast.Feature{ns}
}
