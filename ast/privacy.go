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

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// attrCaser produces the stable-cased attribute name in
// PropertyNameToAttributeName. It is a golang.org/x/text/cases lower-caser
// of the same kind as (but a separate instance from) the extCaser that
// context.go's extensionOf uses for extension casing during URL
// canonicalization.
var attrCaser = cases.Lower(language.Und)

// Privacy is the visibility of a scanned feature or member, inferred per
// spec §4.4 ("Privacy inference").
type Privacy int

const (
	// PrivacyUnset means no explicit or inferred privacy has been computed
	// yet; it should never appear on a feature returned from scanning.
	PrivacyUnset Privacy = iota
	PrivacyPublic
	PrivacyProtected
	PrivacyPrivate
)

func (p Privacy) String() string {
	switch p {
	case PrivacyPublic:
		return "public"
	case PrivacyProtected:
		return "protected"
	case PrivacyPrivate:
		return "private"
	default:
		return ""
	}
}

// InferPrivacy implements get_or_infer_privacy(name, jsdoc, default_private)
// from spec §4.4: explicit JSDoc annotation wins; otherwise leading
// underscores on the name decide; otherwise defaultPrivate decides.
func InferPrivacy(name string, doc *JSDoc, defaultPrivate bool) Privacy {
	if doc != nil {
		switch {
		case doc.HasTag("public"):
			return PrivacyPublic
		case doc.HasTag("private"):
			return PrivacyPrivate
		case doc.HasTag("protected"):
			return PrivacyProtected
		}
	}
	switch {
	case strings.HasPrefix(name, "__"):
		return PrivacyPrivate
	case strings.HasPrefix(name, "_"):
		return PrivacyProtected
	case defaultPrivate:
		return PrivacyPrivate
	default:
		return PrivacyPublic
	}
}

// PropertyNameToAttributeName implements the property->attribute name
// conversion of spec §4.4/§6: names starting with an upper-case letter are
// rejected (returns ok=false); otherwise a '-' is inserted before each
// upper-case letter and the whole name is lower-cased via attrCaser.
func PropertyNameToAttributeName(property string) (attr string, ok bool) {
	if property == "" {
		return "", false
	}
	if r := rune(property[0]); r >= 'A' && r <= 'Z' {
		return "", false
	}
	var b strings.Builder
	b.Grow(len(property) + 4)
	for _, r := range property {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte('-')
		}
		b.WriteRune(r)
	}
	return attrCaser.String(b.String()), true
}

// AttributeNameToPropertyName is the inverse conversion used by the
// round-trip test property in spec §8 invariant 4: a capital letter is
// inserted (in place of lower-case) after every dash, and the dashes are
// removed.
func AttributeNameToPropertyName(attr string) string {
	var b strings.Builder
	b.Grow(len(attr))
	upperNext := false
	for _, r := range attr {
		if r == '-' {
			upperNext = true
			continue
		}
		if upperNext && r >= 'a' && r <= 'z' {
			b.WriteRune(r - 'a' + 'A')
		} else {
			b.WriteRune(r)
		}
		upperNext = false
	}
	return b.String()
}
