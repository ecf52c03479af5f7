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

// Package parser implements the Parser Registry (spec §4.3): a mapping
// from document extension to a pure parser producing a parsed document
// value. No parser here does caching or I/O — each consumes the bytes it's
// handed and returns an ast.ParsedDocument or a warning-carrying failure.
package parser

import (
	"fmt"

	"github.com/rayantony/polymer-analyzer/ast"
	"github.com/rayantony/polymer-analyzer/ast/data"
	"github.com/rayantony/polymer-analyzer/ast/markup"
	"github.com/rayantony/polymer-analyzer/ast/script"
	"github.com/rayantony/polymer-analyzer/ast/style"
	"github.com/rayantony/polymer-analyzer/reporter"
)

// Parser consumes a document's bytes (and, for an inline sub-document, the
// offset mapping its coordinates back to the containing file) and produces
// a parsed document. Implementations are pure: given the same bytes they
// always produce the same tree, and never touch the filesystem or network.
type Parser interface {
	Parse(url ast.CanonicalURL, src []byte, inline *ast.LocationOffset, h *reporter.Handler) (*ast.ParsedDocument, error)
}

// ParserFunc adapts a plain function to the Parser interface.
type ParserFunc func(url ast.CanonicalURL, src []byte, inline *ast.LocationOffset, h *reporter.Handler) (*ast.ParsedDocument, error)

func (f ParserFunc) Parse(url ast.CanonicalURL, src []byte, inline *ast.LocationOffset, h *reporter.Handler) (*ast.ParsedDocument, error) {
	return f(url, src, inline, h)
}

// Registry maps a document extension (without the leading dot, e.g. "js",
// "html", "css", "json") to the Parser responsible for it.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry returns a Registry pre-populated with this package's four
// built-in parsers: markup, script, style, and data.
func NewRegistry() *Registry {
	r := &Registry{parsers: map[string]Parser{}}
	r.Register("html", ParserFunc(parseMarkup))
	r.Register("js", ParserFunc(parseScript))
	r.Register("css", ParserFunc(parseStyle))
	r.Register("json", ParserFunc(parseData))
	return r
}

// Register installs (or replaces) the parser for an extension.
func (r *Registry) Register(extension string, p Parser) {
	r.parsers[extension] = p
}

// For returns the parser registered for extension, or (nil, false) if none
// is registered — callers should report that as a warning (spec §7), not
// attempt a fallback parse.
func (r *Registry) For(extension string) (Parser, bool) {
	p, ok := r.parsers[extension]
	return p, ok
}

func parseMarkup(url ast.CanonicalURL, src []byte, inline *ast.LocationOffset, h *reporter.Handler) (*ast.ParsedDocument, error) {
	doc, err := markup.Parse(url, src, h)
	if err != nil {
		return nil, fmt.Errorf("parsing markup %s: %w", url, err)
	}
	return &ast.ParsedDocument{Kind: ast.DocumentMarkup, URL: url, SourceText: string(src), AST: doc, Inline: inline}, nil
}

func parseScript(url ast.CanonicalURL, src []byte, inline *ast.LocationOffset, h *reporter.Handler) (*ast.ParsedDocument, error) {
	doc, err := script.Parse(url, src, h)
	if err != nil {
		return nil, fmt.Errorf("parsing script %s: %w", url, err)
	}
	return &ast.ParsedDocument{Kind: ast.DocumentScript, URL: url, SourceText: string(src), AST: doc, Inline: inline}, nil
}

func parseStyle(url ast.CanonicalURL, src []byte, inline *ast.LocationOffset, h *reporter.Handler) (*ast.ParsedDocument, error) {
	doc, err := style.Parse(url, src, h)
	if err != nil {
		return nil, fmt.Errorf("parsing stylesheet %s: %w", url, err)
	}
	return &ast.ParsedDocument{Kind: ast.DocumentStylesheet, URL: url, SourceText: string(src), AST: doc, Inline: inline}, nil
}

func parseData(url ast.CanonicalURL, src []byte, inline *ast.LocationOffset, h *reporter.Handler) (*ast.ParsedDocument, error) {
	doc, err := data.Parse(url, src, h)
	if err != nil {
		return nil, fmt.Errorf("parsing structured data %s: %w", url, err)
	}
	return &ast.ParsedDocument{Kind: ast.DocumentData, URL: url, SourceText: string(src), AST: doc, Inline: inline}, nil
}
