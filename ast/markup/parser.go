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

package markup

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/html"

	"github.com/rayantony/polymer-analyzer/ast"
	"github.com/rayantony/polymer-analyzer/reporter"
)

// Parse parses a markup document with tree-sitter's HTML grammar and lowers
// the resulting concrete syntax tree into this package's node types. Parse
// errors in the tree-sitter sense (a node of type "ERROR") are reported as
// warnings rather than failing the parse outright, since tree-sitter is an
// error-tolerant parser and the scanner pipeline would rather run over a
// best-effort tree than nothing (spec §7: "parsing failures degrade to a
// warning plus an empty/partial document where the parser permits it").
func Parse(url ast.CanonicalURL, src []byte, h *reporter.Handler) (*Document, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(html.GetLanguage())
	defer parser.Close()

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	lw := &lowerer{url: url, src: src, h: h}
	root := tree.RootNode()
	children := lw.lowerChildren(root)
	return &Document{base: base{Rng: lw.rangeOf(root)}, Children: children}, nil
}

type lowerer struct {
	url ast.CanonicalURL
	src []byte
	h   *reporter.Handler
}

func (lw *lowerer) rangeOf(n *sitter.Node) ast.SourceRange {
	sp := n.StartPoint()
	ep := n.EndPoint()
	return ast.SourceRange{
		File:  lw.url,
		Start: ast.Position{Line: int(sp.Row) + 1, Col: int(sp.Column) + 1},
		End:   ast.Position{Line: int(ep.Row) + 1, Col: int(ep.Column) + 1},
	}
}

func (lw *lowerer) text(n *sitter.Node) string {
	return n.Content(lw.src)
}

func (lw *lowerer) lowerChildren(n *sitter.Node) []ast.Node {
	var out []ast.Node
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		child := n.Child(i)
		if node := lw.lowerNode(child); node != nil {
			out = append(out, node)
		}
	}
	return out
}

func (lw *lowerer) lowerNode(n *sitter.Node) ast.Node {
	switch n.Type() {
	case "element", "script_element", "style_element":
		return lw.lowerElement(n)
	case "text":
		txt := lw.text(n)
		if strings.TrimSpace(txt) == "" {
			return nil
		}
		return &Text{base: base{Rng: lw.rangeOf(n)}, Value: txt}
	case "comment":
		return &Comment{base: base{Rng: lw.rangeOf(n)}, Value: lw.text(n)}
	case "doctype":
		return nil
	case "ERROR":
		lw.h.Warnf(lw.rangeOf(n), "malformed markup near %q", truncate(lw.text(n), 40))
		return lw.elementFromError(n)
	default:
		return nil
	}
}

// elementFromError best-effort recovers an element shape out of a
// tree-sitter ERROR node, since malformed-but-recognizable custom element
// tags (missing closing quote, stray attribute) are common in the wild and
// the scanner should still see the tag and its siblings where possible.
func (lw *lowerer) elementFromError(n *sitter.Node) ast.Node {
	children := lw.lowerChildren(n)
	if len(children) == 0 {
		return nil
	}
	return &Element{base: base{Rng: lw.rangeOf(n)}, TagName: "", Children: children}
}

func (lw *lowerer) lowerElement(n *sitter.Node) *Element {
	el := &Element{base: base{Rng: lw.rangeOf(n)}}
	count := int(n.ChildCount())
	var bodyNode *sitter.Node
	for i := 0; i < count; i++ {
		child := n.Child(i)
		switch child.Type() {
		case "start_tag", "self_closing_tag":
			el.TagName, el.Attrs = lw.lowerTag(child)
			el.SelfClosing = child.Type() == "self_closing_tag"
		case "end_tag":
			// nothing to extract; its text is redundant with start_tag
		case "raw_text":
			bodyNode = child
		default:
			if node := lw.lowerNode(child); node != nil {
				el.Children = append(el.Children, node)
			}
		}
	}
	if bodyNode != nil {
		sp := bodyNode.StartPoint()
		el.InlineBody = &InlineBody{
			Text: lw.text(bodyNode),
			Offset: ast.LocationOffset{
				Line:     int(sp.Row) + 1,
				Col:      int(sp.Column) + 1,
				Filename: lw.url,
			},
		}
	}
	return el
}

func (lw *lowerer) lowerTag(n *sitter.Node) (string, []Attribute) {
	var tagName string
	var attrs []Attribute
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		child := n.Child(i)
		switch child.Type() {
		case "tag_name":
			tagName = lw.text(child)
		case "attribute":
			attrs = append(attrs, lw.lowerAttribute(child))
		}
	}
	return tagName, attrs
}

func (lw *lowerer) lowerAttribute(n *sitter.Node) Attribute {
	attr := Attribute{Rng: lw.rangeOf(n)}
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		child := n.Child(i)
		switch child.Type() {
		case "attribute_name":
			attr.Name = lw.text(child)
		case "attribute_value":
			attr.Value = lw.text(child)
			attr.HasValue = true
		case "quoted_attribute_value":
			attr.Value = unquoteAttrValue(lw.text(child))
			attr.HasValue = true
		}
	}
	return attr
}

func unquoteAttrValue(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
