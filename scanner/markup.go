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
	"path"
	"strings"

	"github.com/rayantony/polymer-analyzer/ast"
	"github.com/rayantony/polymer-analyzer/ast/markup"
	"github.com/rayantony/polymer-analyzer/reporter"
)

// wrapperTag is the custom-element-module wrapper tag excluded from the
// element-reference scanner (spec §4.4: "excluding the element-module
// wrapper tag") — a <dom-module id="my-el"> surrounding an element's own
// template is where the element is *declared*, not a usage of it.
const wrapperTag = "dom-module"

// isImportElement recognizes the markup import mechanisms of the import
// scanner: <link rel="import" href="..."> (HTML Imports) and any
// <script src="...">, whatever its type attribute. Other link relations,
// <link rel="modulepreload"> among them, are not recognized.
func isImportElement(el *markup.Element) (hrefAttr string, isImport bool) {
	switch el.TagName {
	case "link":
		rel, _ := el.Attr("rel")
		if rel == "import" {
			href, ok := el.Attr("href")
			return href, ok
		}
	case "script":
		if src, ok := el.Attr("src"); ok {
			return src, true
		}
	}
	return "", false
}

// resolveHref joins a possibly-relative href against the containing
// document's URL. Canonical URLs in this implementation are slash-
// separated paths, so a plain path.Join suffices. An href with a "://"
// scheme or a leading "/" is returned unchanged; the Context's configured
// Resolver is not consulted here.
func resolveHref(base ast.CanonicalURL, href string) ast.CanonicalURL {
	if strings.Contains(href, "://") {
		return ast.CanonicalURL(href)
	}
	if strings.HasPrefix(href, "/") {
		return ast.CanonicalURL(href)
	}
	dir := path.Dir(string(base))
	return ast.CanonicalURL(path.Join(dir, href))
}

// scanImports walks the markup document for import elements, in document
// order.
func scanImports(doc *markup.Document, url ast.CanonicalURL) []ast.Feature {
	var features []ast.Feature
	doc.Walk(func(n ast.Node) bool {
		el, ok := n.(*markup.Element)
		if !ok {
			return true
		}
		href, ok := isImportElement(el)
		if !ok {
			return true
		}
		features = append(features, &ast.Import{
			Base:       ast.Base{SrcRange: el.Range()},
			ImportedAs: ast.UnresolvedHref(href),
			Resolved:   resolveHref(url, href),
		})
		return true
	})
	return features
}

// scanInlineDocuments extracts <script> and <style> bodies as inline
// sub-document features, each carrying the {line, col, filename} offset
// downstream source ranges are translated through (spec §4.4, glossary
// "Inline document"). The sub-document itself is scanned and attached by
// the Pipeline, not here — this scanner only establishes the boundary.
func scanInlineDocuments(doc *markup.Document, url ast.CanonicalURL) []ast.Feature {
	var features []ast.Feature
	doc.Walk(func(n ast.Node) bool {
		el, ok := n.(*markup.Element)
		if !ok || el.InlineBody == nil {
			return true
		}
		kind := ast.DocumentScript
		if el.TagName == "style" {
			kind = ast.DocumentStylesheet
		}
		features = append(features, &ast.InlineDocument{
			Base:    ast.Base{SrcRange: el.Range()},
			DocKind: kind,
			Offset:  el.InlineBody.Offset,
			Src:     el.InlineBody.Text,
		})
		return true
	})
	return features
}

// scanElementReferences records every element use whose tag name contains
// a hyphen, excluding wrapperTag, with every attribute and its own source
// range (spec §4.4 "Element reference scanner").
func scanElementReferences(doc *markup.Document, url ast.CanonicalURL) []ast.Feature {
	var features []ast.Feature
	doc.Walk(func(n ast.Node) bool {
		el, ok := n.(*markup.Element)
		if !ok {
			return true
		}
		if !strings.Contains(el.TagName, "-") || el.TagName == wrapperTag {
			return true
		}
		ref := &ast.ElementReference{
			Base:    ast.Base{SrcRange: el.Range()},
			TagName: el.TagName,
		}
		for _, a := range el.Attrs {
			ref.Attributes = append(ref.Attributes, ast.AttributeUse{Name: a.Name, Value: a.Value, Range: a.Rng})
		}
		features = append(features, ref)
		return true
	})
	return features
}

// scanSlots implements the supplemented Slot scanner (SPEC_FULL §5): every
// `<slot>` element anywhere in the markup document (not only those inside
// a `<dom-module>` template) becomes an ast.Slot feature, named by its "name"
// attribute or "" for the default slot. Scanned like any other scanned
// feature kind — the Scanner Pipeline attaches each result onto every
// class-like feature the containing document declares (scanner/pipeline.go
// attachSlots), the same one-document-one-element simplification
// attachStyling already makes for the styling descriptor.
func scanSlots(doc *markup.Document, url ast.CanonicalURL) []ast.Feature {
	var features []ast.Feature
	doc.Walk(func(n ast.Node) bool {
		el, ok := n.(*markup.Element)
		if !ok || el.TagName != "slot" {
			return true
		}
		name, _ := el.Attr("name")
		features = append(features, &ast.Slot{
			Base:     ast.Base{SrcRange: el.Range()},
			SlotName: name,
		})
		return true
	})
	return features
}

func scanMarkup(doc *markup.Document, url ast.CanonicalURL, h *reporter.Handler) []ast.Feature {
	var features []ast.Feature
	features = append(features, scanImports(doc, url)...)
	features = append(features, scanInlineDocuments(doc, url)...)
	features = append(features, scanElementReferences(doc, url)...)
	features = append(features, scanSlots(doc, url)...)
	return features
}
