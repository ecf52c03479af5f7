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

import "strings"

// JSDocTag is a single `@tag value` annotation line.
type JSDocTag struct {
	Name string
	Text string
}

// JSDoc is the parsed form of a `/** ... */` comment block immediately
// preceding a declaration. Per spec §1, the JSDoc micro-parser itself is an
// external collaborator; this type is the shape the scanner pipeline (which
// is in scope) consumes. ParseJSDoc below is a minimal adapter used by our
// own bundled parsers so the scanners have something concrete to read.
type JSDoc struct {
	Description string
	Summary     string
	Tags        []JSDocTag
}

// HasTag reports whether a tag with the given name is present.
func (d *JSDoc) HasTag(name string) bool {
	if d == nil {
		return false
	}
	for _, t := range d.Tags {
		if t.Name == name {
			return true
		}
	}
	return false
}

// Tag returns the text of the first tag with the given name, and whether it
// was present at all.
func (d *JSDoc) Tag(name string) (string, bool) {
	if d == nil {
		return "", false
	}
	for _, t := range d.Tags {
		if t.Name == name {
			return t.Text, true
		}
	}
	return "", false
}

// AllTags returns the text of every tag with the given name, in document
// order (used by, e.g., `@demo` which may repeat).
func (d *JSDoc) AllTags(name string) []string {
	if d == nil {
		return nil
	}
	var out []string
	for _, t := range d.Tags {
		if t.Name == name {
			out = append(out, t.Text)
		}
	}
	return out
}

// ParseJSDoc extracts tags from the body of a `/** ... */` comment (with the
// delimiters and leading `*` gutters already stripped by the caller's
// lexer). The first block of text before any `@tag` is the description; a
// `@summary` tag, if present, is used verbatim as the summary, otherwise the
// first line of the description is used.
func ParseJSDoc(body string) *JSDoc {
	doc := &JSDoc{}
	lines := strings.Split(body, "\n")
	var desc []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "@") {
			rest := line[1:]
			name := rest
			text := ""
			if idx := strings.IndexAny(rest, " \t"); idx >= 0 {
				name = rest[:idx]
				text = strings.TrimSpace(rest[idx+1:])
			}
			doc.Tags = append(doc.Tags, JSDocTag{Name: name, Text: text})
			continue
		}
		if line != "" {
			desc = append(desc, line)
		}
	}
	doc.Description = strings.Join(desc, "\n")
	if summary, ok := doc.Tag("summary"); ok {
		doc.Summary = summary
	} else if len(desc) > 0 {
		doc.Summary = desc[0]
	}
	return doc
}

// MemberOf returns the `@memberof` tag's text, if present.
func (d *JSDoc) MemberOf() (string, bool) { return d.Tag("memberof") }

// Demos returns every `@demo` tag, parsed as "<path> <description?>".
func (d *JSDoc) Demos() []Demo {
	var demos []Demo
	for _, raw := range d.AllTags("demo") {
		parts := strings.SplitN(raw, " ", 2)
		demo := Demo{Path: parts[0]}
		if len(parts) == 2 {
			demo.Description = strings.TrimSpace(parts[1])
		}
		demos = append(demos, demo)
	}
	return demos
}

// Demo is a `@demo` annotation: a path to a demo page and an optional
// human description, surfaced on the Summary Emitter's `demos[]` field.
type Demo struct {
	Path        string
	Description string
}

// Params parses every `@param {type} name description` tag, in order.
// The `{type}` portion is optional.
func (d *JSDoc) Params() []Param {
	var out []Param
	for _, raw := range d.AllTags("param") {
		out = append(out, parseParamTag(raw))
	}
	return out
}

func parseParamTag(raw string) Param {
	raw = strings.TrimSpace(raw)
	var typ string
	if strings.HasPrefix(raw, "{") {
		if end := strings.Index(raw, "}"); end >= 0 {
			typ = raw[1:end]
			raw = strings.TrimSpace(raw[end+1:])
		}
	}
	name := raw
	desc := ""
	if idx := strings.IndexAny(raw, " \t"); idx >= 0 {
		name = raw[:idx]
		desc = strings.TrimSpace(raw[idx+1:])
	}
	return Param{Name: name, Type: typ, Desc: desc}
}

// ReturnTag parses the `@return`/`@returns` tag, if present.
func (d *JSDoc) ReturnTag() (Return, bool) {
	raw, ok := d.Tag("returns")
	if !ok {
		raw, ok = d.Tag("return")
	}
	if !ok {
		return Return{}, false
	}
	raw = strings.TrimSpace(raw)
	var typ string
	if strings.HasPrefix(raw, "{") {
		if end := strings.Index(raw, "}"); end >= 0 {
			typ = raw[1:end]
			raw = strings.TrimSpace(raw[end+1:])
		}
	}
	return Return{Type: typ, Desc: raw}, true
}
