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

// CanonicalURL is a URL that has already been passed through a Resolver.
// All cache keys and dependency-graph node identities are canonical URLs;
// two URLs that resolve equal denote the same document (spec §3).
type CanonicalURL string

// Position is a 1-based line/column pair. Columns are measured in runes,
// not bytes.
type Position struct {
	Line int
	Col  int
}

// Before reports whether p precedes o in document order.
func (p Position) Before(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Col < o.Col
}

// SourceRange locates a span of source text within one document. For
// features of inline sub-documents, Start/End are in the inline document's
// own coordinate space. The inline document's LocationOffset is recorded
// on its InlineDocument feature and ScannedDocument.Offset, but no
// component applies it: neither scanning nor the Summary Emitter rewrites
// these ranges relative to the outer file.
type SourceRange struct {
	File  CanonicalURL
	Start Position
	End   Position
}

// Zero reports whether r is the zero-length, zero-positioned range used
// for warnings that have no useful source location (spec §4.5 step 1).
func (r SourceRange) Zero() bool {
	return r.Start == Position{} && r.End == Position{}
}

// UnknownRange returns a zero-length range anchored at the start of url,
// used when a warning cannot be attached to any specific source span.
func UnknownRange(url CanonicalURL) SourceRange {
	return SourceRange{File: url, Start: Position{Line: 1, Col: 1}, End: Position{Line: 1, Col: 1}}
}
