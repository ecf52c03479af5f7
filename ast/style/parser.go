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

// Package style implements a minimal, non-validating scan over stylesheet
// text: it exists only to support spec §4.4's styling descriptor (custom
// property declarations and @apply mixin references), not general CSS
// parsing or linting (explicitly a non-goal). No example repo in the
// retrieval pack ships a CSS tokenizer, so this follows the same
// hand-rolled, single-pass-over-bytes shape as ast/script's lexer rather
// than reaching for an unrelated dependency.
package style

import (
	"strings"

	"github.com/rayantony/polymer-analyzer/ast"
	"github.com/rayantony/polymer-analyzer/reporter"
)

// Document is the lowered form of a stylesheet: just its extracted custom
// property declarations and @apply mixin references, each with a source
// range. The scanner pipeline folds these into an ast.StylingInfo.
type Document struct {
	Rng              ast.SourceRange
	CustomProperties []Declaration
	MixinApplies     []Reference
}

func (d *Document) Range() ast.SourceRange { return d.Rng }

// Declaration is one `--name: value;` custom property declaration.
type Declaration struct {
	Name  string
	Value string
	Rng   ast.SourceRange
}

// Reference is one `@apply --mixin-name;` reference.
type Reference struct {
	Name string
	Rng  ast.SourceRange
}

// Parse extracts custom-property declarations and @apply references from
// raw CSS text. It tolerates (rather than rejects) anything it doesn't
// recognize: selectors, at-rules, nested rule blocks, and ordinary
// declarations are simply skipped.
func Parse(url ast.CanonicalURL, src []byte, h *reporter.Handler) (*Document, error) {
	s := &scanner{url: url, src: string(src), h: h}
	doc := &Document{Rng: ast.SourceRange{File: url, Start: ast.Position{Line: 1, Col: 1}, End: s.endPos()}}
	for {
		decl, ref, ok := s.next()
		if !ok {
			break
		}
		if decl != nil {
			doc.CustomProperties = append(doc.CustomProperties, *decl)
		}
		if ref != nil {
			doc.MixinApplies = append(doc.MixinApplies, *ref)
		}
	}
	return doc, nil
}

type scanner struct {
	url  ast.CanonicalURL
	src  string
	pos  int
	line int
	col  int
	h    *reporter.Handler
}

func (s *scanner) endPos() ast.Position {
	line, col := 1, 1
	for _, r := range s.src {
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return ast.Position{Line: line, Col: col}
}

func (s *scanner) posAt(idx int) ast.Position {
	line, col := 1, 1
	for i := 0; i < idx && i < len(s.src); i++ {
		if s.src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return ast.Position{Line: line, Col: col}
}

// next advances to, and returns, the next custom-property declaration or
// @apply reference in the stylesheet, skipping everything in between.
func (s *scanner) next() (*Declaration, *Reference, bool) {
	for s.pos < len(s.src) {
		switch {
		case strings.HasPrefix(s.src[s.pos:], "/*"):
			s.skipBlockComment()
		case strings.HasPrefix(s.src[s.pos:], "--"):
			if decl, ok := s.tryCustomProperty(); ok {
				return decl, nil, true
			}
		case strings.HasPrefix(s.src[s.pos:], "@apply"):
			if ref, ok := s.tryApply(); ok {
				return nil, ref, true
			}
		default:
			s.pos++
		}
	}
	return nil, nil, false
}

func (s *scanner) skipBlockComment() {
	end := strings.Index(s.src[s.pos+2:], "*/")
	if end < 0 {
		s.pos = len(s.src)
		return
	}
	s.pos += 2 + end + 2
}

// tryCustomProperty parses `--name: value;` starting at s.pos, which is
// known to begin with "--". It only succeeds if the name is followed by a
// ':' with nothing but spaces, tabs or newlines in between; the value then
// runs up to the next ';' or '}'.
func (s *scanner) tryCustomProperty() (*Declaration, bool) {
	start := s.pos
	nameEnd := s.pos
	for nameEnd < len(s.src) && isNameByte(s.src[nameEnd]) {
		nameEnd++
	}
	name := s.src[start:nameEnd]
	i := nameEnd
	for i < len(s.src) && (s.src[i] == ' ' || s.src[i] == '\t' || s.src[i] == '\n') {
		i++
	}
	if i >= len(s.src) || s.src[i] != ':' {
		s.pos = nameEnd
		return nil, false
	}
	i++
	valStart := i
	for i < len(s.src) && s.src[i] != ';' && s.src[i] != '}' {
		i++
	}
	value := strings.TrimSpace(s.src[valStart:i])
	end := i
	if end < len(s.src) && s.src[end] == ';' {
		end++
	}
	rng := ast.SourceRange{File: s.url, Start: s.posAt(start), End: s.posAt(end)}
	s.pos = end
	return &Declaration{Name: name, Value: value, Rng: rng}, true
}

// tryApply parses `@apply --mixin-name;` starting at s.pos, which is known
// to begin with "@apply".
func (s *scanner) tryApply() (*Reference, bool) {
	start := s.pos
	i := s.pos + len("@apply")
	for i < len(s.src) && (s.src[i] == ' ' || s.src[i] == '\t' || s.src[i] == '\n') {
		i++
	}
	if !strings.HasPrefix(s.src[i:], "--") {
		s.pos = i
		return nil, false
	}
	nameStart := i
	for i < len(s.src) && isNameByte(s.src[i]) {
		i++
	}
	name := s.src[nameStart:i]
	for i < len(s.src) && s.src[i] != ';' {
		i++
	}
	end := i
	if end < len(s.src) && s.src[end] == ';' {
		end++
	}
	rng := ast.SourceRange{File: s.url, Start: s.posAt(start), End: s.posAt(end)}
	s.pos = end
	return &Reference{Name: name, Rng: rng}, true
}

func isNameByte(b byte) bool {
	return b == '-' || b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
