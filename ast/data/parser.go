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

// Package data parses structured-data documents: JSON, tolerating the
// comments and trailing commas real-world data files accumulate. It
// preprocesses with tidwall/jsonc the same way simon-lentz/yammm's JSON
// adapter does — jsonc.ToJSON stripped down to strict JSON text, then
// decoded with the standard library — before handing the scanner pipeline
// a plain map it can walk for named entries (spec §4.4's structured-data
// scanner only cares about a document's top-level shape, not a full parse
// tree).
package data

import (
	"encoding/json"

	"github.com/tidwall/jsonc"

	"github.com/rayantony/polymer-analyzer/ast"
	"github.com/rayantony/polymer-analyzer/reporter"
)

// Document is the lowered form of a structured-data document: its decoded
// top-level value (typically an object) plus the whole-document source
// range. Per-key ranges aren't tracked — encoding/json doesn't retain them,
// and the spec's structured-data scanner only needs top-level values.
type Document struct {
	Rng   ast.SourceRange
	Value any
}

func (d *Document) Range() ast.SourceRange { return d.Rng }

// Parse strips comments/trailing-commas with jsonc and decodes the result
// as JSON. A decode failure is reported as a warning and an empty object
// value is returned, so the scanner pipeline can still produce a
// ScannedDocument with zero features rather than aborting the whole
// analysis (spec §7).
func Parse(url ast.CanonicalURL, src []byte, h *reporter.Handler) (*Document, error) {
	rng := ast.SourceRange{File: url, Start: ast.Position{Line: 1, Col: 1}, End: endPos(src)}
	stripped := jsonc.ToJSON(src)
	var value any
	if err := json.Unmarshal(stripped, &value); err != nil {
		h.Warnf(rng, "invalid structured data: %v", err)
		return &Document{Rng: rng, Value: map[string]any{}}, nil
	}
	return &Document{Rng: rng, Value: value}, nil
}

func endPos(src []byte) ast.Position {
	line, col := 1, 1
	for _, b := range src {
		if b == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return ast.Position{Line: line, Col: col}
}
