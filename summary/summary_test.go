package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rayantony/polymer-analyzer/ast"
)

func rng(file ast.CanonicalURL) ast.SourceRange {
	return ast.SourceRange{File: file, Start: ast.Position{Line: 1, Col: 1}, End: ast.Position{Line: 2, Col: 1}}
}

func TestEmitRewritesOwnSourceRangeRelativeToPackageRoot(t *testing.T) {
	el := &ast.Element{}
	el.ClassName = "MyElement"
	el.TagName = "my-element"
	el.Owner = "pkg/elements/my-element.js"
	el.SrcRange = rng("pkg/elements/my-element.js")
	el.Vis = ast.PrivacyPublic

	doc := &ast.Document{FeaturesByKind: map[ast.FeatureKind][]ast.Feature{ast.KindElement: {el}}}

	s, err := Emit([]*ast.Document{doc}, "pkg")
	require.NoError(t, err)
	require.Len(t, s.Elements, 1)
	assert.Equal(t, "elements/my-element.js", s.Elements[0].SourceRange.File)
	assert.Equal(t, "elements/my-element.js", s.Elements[0].Path)
}

func TestEmitRewritesInheritedMemberSourceRangeRelativeToElementDirectoryNotPackageRoot(t *testing.T) {
	el := &ast.Element{}
	el.ClassName = "ChildElement"
	el.TagName = "child-element"
	el.Owner = "pkg/elements/child/child-element.js"
	el.SrcRange = rng("pkg/elements/child/child-element.js")
	el.Vis = ast.PrivacyPublic
	el.MemberList.Properties = []*ast.Property{
		{
			Base:          ast.Base{SrcRange: rng("pkg/elements/base/base-element.js"), Vis: ast.PrivacyPublic},
			PropName:      "inheritedProp",
			InheritedFrom: "BaseElement",
		},
	}

	doc := &ast.Document{FeaturesByKind: map[ast.FeatureKind][]ast.Feature{ast.KindElement: {el}}}

	s, err := Emit([]*ast.Document{doc}, "pkg")
	require.NoError(t, err)
	require.Len(t, s.Elements, 1)
	require.Len(t, s.Elements[0].Properties, 1)

	prop := s.Elements[0].Properties[0]
	assert.Equal(t, "BaseElement", prop.InheritedFrom)
	// Relative to "pkg/elements/child" (the element's own directory), not
	// "pkg" (the package root) — spec §6's inherited-member exception.
	assert.Equal(t, "../base/base-element.js", prop.SourceRange.File)
}

func TestEmitDedupesImportedDocumentsByPointer(t *testing.T) {
	shared := &ast.Behavior{}
	shared.ClassName = "SharedBehavior"
	shared.Owner = "pkg/behaviors/shared.js"
	shared.SrcRange = rng("pkg/behaviors/shared.js")
	sharedDoc := &ast.Document{FeaturesByKind: map[ast.FeatureKind][]ast.Feature{ast.KindBehavior: {shared}}}

	rootA := &ast.Document{Imports: []*ast.Document{sharedDoc}}
	rootB := &ast.Document{Imports: []*ast.Document{sharedDoc}}

	s, err := Emit([]*ast.Document{rootA, rootB}, "pkg")
	require.NoError(t, err)
	require.NotNil(t, s.Metadata)
	require.NotNil(t, s.Metadata.Polymer)
	assert.Len(t, s.Metadata.Polymer.Behaviors, 1, "a behavior reachable from two roots must be emitted once")
}

func TestEmitSortsEntriesByName(t *testing.T) {
	zebra := &ast.Class{}
	zebra.ClassName = "Zebra"
	zebra.Owner = "pkg/z.js"
	zebra.SrcRange = rng("pkg/z.js")

	apple := &ast.Class{}
	apple.ClassName = "Apple"
	apple.Owner = "pkg/a.js"
	apple.SrcRange = rng("pkg/a.js")

	doc := &ast.Document{FeaturesByKind: map[ast.FeatureKind][]ast.Feature{ast.KindClass: {zebra, apple}}}

	s, err := Emit([]*ast.Document{doc}, "pkg")
	require.NoError(t, err)
	require.Len(t, s.Classes, 2)
	assert.Equal(t, "Apple", s.Classes[0].Name)
	assert.Equal(t, "Zebra", s.Classes[1].Name)
}

func TestValidateRejectsMissingRequiredFields(t *testing.T) {
	errs := Validate(&Summary{})
	assert.NotEmpty(t, errs, "a Summary with no schema_version must fail validation")

	errs = Validate(&Summary{SchemaVersion: SchemaVersion})
	assert.Empty(t, errs, "an otherwise-empty but versioned Summary is valid")
}
