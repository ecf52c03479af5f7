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

// Package markup lowers tree-sitter's HTML parse tree into the small node
// set the scanner pipeline needs: elements with their attributes, inline
// <script>/<style> bodies (with their offset into the parent document, for
// the "treat inline bodies as their own document" rule in spec §4.3/§4.4),
// and plain text/comment nodes. Nothing downstream touches the tree-sitter
// tree directly.
package markup

import "github.com/rayantony/polymer-analyzer/ast"

type base struct {
	Rng ast.SourceRange
}

func (b base) Range() ast.SourceRange { return b.Rng }

// Document is the root of a parsed markup document.
type Document struct {
	base
	Children []ast.Node
}

func (d *Document) Walk(visit ast.VisitFunc) {
	for _, c := range d.Children {
		walkNode(c, visit)
	}
}

func walkNode(n ast.Node, visit ast.VisitFunc) {
	if n == nil || !visit(n) {
		return
	}
	if el, ok := n.(*Element); ok {
		for _, c := range el.Children {
			walkNode(c, visit)
		}
	}
}

// Attribute is one `name="value"` (or valueless `name`) pair on a tag.
type Attribute struct {
	Name     string
	Value    string
	HasValue bool
	Rng      ast.SourceRange
}

// Element is a markup element, including <script> and <style> tags (whose
// raw text body, if any, is captured separately as an InlineBody so the
// scanner can hand it to the script/style parser with the right offset).
type Element struct {
	base
	TagName     string
	Attrs       []Attribute
	Children    []ast.Node
	SelfClosing bool
	// InlineBody holds the raw text content for <script> and <style>
	// elements with a literal (non-external) body.
	InlineBody *InlineBody
}

func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, a.HasValue
		}
	}
	return "", false
}

func (e *Element) HasAttr(name string) bool {
	_, ok := e.Attr(name)
	return ok
}

// InlineBody is the literal text of an inline <script> or <style> body, and
// the offset at which it starts within the parent document — the
// LocationOffset the spec's InlineDocument carries so warnings and
// resolved positions in the inline document can be translated back to
// parent-document coordinates.
type InlineBody struct {
	Text   string
	Offset ast.LocationOffset
}

// Text is a run of non-tag character data.
type Text struct {
	base
	Value string
}

// Comment is an HTML comment, `<!-- ... -->`.
type Comment struct {
	base
	Value string
}
