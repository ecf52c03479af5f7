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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rayantony/polymer-analyzer/ast"
	"github.com/rayantony/polymer-analyzer/ast/script"
	"github.com/rayantony/polymer-analyzer/reporter"
)

func mustScan(t *testing.T, src string) []ast.Feature {
	t.Helper()
	h := reporter.NewHandler()
	prog, err := script.Parse(ast.CanonicalURL("test.js"), []byte(src), h)
	require.NoError(t, err)
	return scanScript(prog, "test.js", Options{})
}

func namesByKind(features []ast.Feature, kind ast.FeatureKind) []string {
	var out []string
	for _, f := range features {
		if f.Kind() != kind {
			continue
		}
		if n, ok := f.(ast.Named); ok {
			out = append(out, n.Name())
		}
	}
	return out
}

// TestScanClassesRecognizesEveryNamingForm covers spec E2: a class can be
// bound via a declaration, a var/const initializer, a bare assignment, or a
// dotted (namespaced) assignment, and the scanner names each the same way
// regardless of which form produced it.
func TestScanClassesRecognizesEveryNamingForm(t *testing.T) {
	src := `
class Declaration {}
var VarDeclaration = class {};
Assignment = class {};
Namespace.AlsoAssignment = class {};
Declared.AnotherAssignment = class {};
`
	features := mustScan(t, src)

	var classes []ast.Feature
	for _, f := range features {
		if f.Kind() == ast.KindClass {
			classes = append(classes, f)
		}
	}
	require.Len(t, classes, 5, "every naming form must yield exactly one Class feature")

	var names []string
	for _, f := range classes {
		names = append(names, f.(ast.Named).Name())
	}
	assert.Equal(t, []string{
		"Declaration",
		"VarDeclaration",
		"Assignment",
		"Namespace.AlsoAssignment",
		"Declared.AnotherAssignment",
	}, names)
}

// TestScanMixinsRecognizesEveryFunctionForm covers spec E4: a mixin can be a
// function declaration, an arrow function with an expression body, a
// function expression assigned to a variable, or a named function wrapped by
// a helper call — each structurally shaped as "one parameter, body declares
// or returns a class extending that parameter" — and each must surface
// exactly one Mixin feature with its static properties getter's members, and
// must not also surface the inner class as a bare Class.
func TestScanMixinsRecognizesEveryFunctionForm(t *testing.T) {
	cases := []struct {
		name     string
		src      string
		mixinFQN string
	}{
		{
			name: "function declaration",
			src: `
function TestMixin(superclass) {
  return class extends superclass {
    static get properties() {
      return { foo: String };
    }
  };
}
`,
			mixinFQN: "TestMixin",
		},
		{
			name: "arrow with expression body",
			src: `
const TestMixin = (s) => class extends s {
  static get properties() {
    return { foo: String };
  }
};
`,
			mixinFQN: "TestMixin",
		},
		{
			name: "function expression assigned to a const",
			src: `
const TestMixin = function(s) {
  return class extends s {
    static get properties() {
      return { foo: String };
    }
  };
};
`,
			mixinFQN: "TestMixin",
		},
		{
			name: "named function wrapped by a helper call",
			src: `
Polymer.TestMixin = Polymer.woohoo(function TestMixin(base) {
  class TestMixin extends base {
    static get properties() {
      return { foo: String };
    }
  }
  return TestMixin;
});
`,
			mixinFQN: "Polymer.TestMixin",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			features := mustScan(t, tc.src)

			var mixins, classes []ast.Feature
			for _, f := range features {
				switch f.Kind() {
				case ast.KindMixin:
					mixins = append(mixins, f)
				case ast.KindClass:
					classes = append(classes, f)
				}
			}

			require.Len(t, mixins, 1, "exactly one mixin record must be emitted")
			assert.Empty(t, classes, "the inner class must never also surface as a bare Class")

			mixin := mixins[0].(ast.ClassLike)
			assert.Equal(t, tc.mixinFQN, mixin.Name())

			members := mixin.Members()
			require.Len(t, members.Properties, 1)
			assert.Equal(t, "foo", members.Properties[0].PropName)
			require.Len(t, members.Attributes, 1)
			assert.Equal(t, "foo", members.Attributes[0].AttrName)
		})
	}
}

// TestScanScriptClassifiesWithoutDuplication covers spec E6: a source file
// containing an annotated element, an annotated mixin, a plain element, and
// a plain mixin must yield exactly those four features, in scan order, each
// carrying the more-specific kind — never also reported as a bare Class.
func TestScanScriptClassifiesWithoutDuplication(t *testing.T) {
	src := `
class PlainElement extends HTMLElement {}
customElements.define('plain-element', PlainElement);

/**
 * @customElement annotated-element
 */
class AnnotatedElement extends HTMLElement {}

function PlainMixin(superclass) {
  return class extends superclass {};
}

/**
 * @mixinFunction
 */
function AnnotatedMixin(superclass) {
  return class extends superclass {};
}
`
	features := mustScan(t, src)

	require.Empty(t, namesByKind(features, ast.KindClass), "no plain-Class duplicates")

	var kinds []ast.FeatureKind
	var names []string
	for _, f := range features {
		if f.Kind() != ast.KindElement && f.Kind() != ast.KindMixin {
			continue
		}
		kinds = append(kinds, f.Kind())
		names = append(names, f.(ast.Named).Name())
	}

	require.Len(t, kinds, 4)
	assert.Equal(t, []ast.FeatureKind{ast.KindElement, ast.KindElement, ast.KindMixin, ast.KindMixin}, kinds)
	assert.Equal(t, []string{"PlainElement", "AnnotatedElement", "PlainMixin", "AnnotatedMixin"}, names)

	plainElement := features[0].(*ast.Element)
	assert.Equal(t, ast.ElementPlain, plainElement.EKind)
	annotatedElement := features[1].(*ast.Element)
	assert.Equal(t, ast.ElementAnnotated, annotatedElement.EKind)

	var plainMixin, annotatedMixin *ast.Mixin
	for _, f := range features {
		m, ok := f.(*ast.Mixin)
		if !ok {
			continue
		}
		if m.Name() == "PlainMixin" {
			plainMixin = m
		} else if m.Name() == "AnnotatedMixin" {
			annotatedMixin = m
		}
	}
	require.NotNil(t, plainMixin)
	require.NotNil(t, annotatedMixin)
	assert.Equal(t, ast.ElementPlain, plainMixin.EKind)
	assert.Equal(t, ast.ElementAnnotated, annotatedMixin.EKind)
}
