package resolve

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rayantony/polymer-analyzer/ast"
)

func scannedDoc(url ast.CanonicalURL, feats ...ast.Feature) *ast.ScannedDocument {
	return &ast.ScannedDocument{URL: url, Features: feats}
}

func noImports(ast.CanonicalURL) (*ast.Document, error) {
	panic("no imports expected")
}

// TestResolveFlattensSuperclassMethod exercises scenario E3: a subclass
// inherits its superclass's method with inherited_from provenance, and an
// override by name on the subclass shadows the ancestor's version.
func TestResolveFlattensSuperclassMethod(t *testing.T) {
	base := &ast.Class{}
	base.ClassName = "BaseClass"
	base.MemberList.Methods = []*ast.Method{
		{MethodName: "shared", Base: ast.Base{}},
		{MethodName: "baseOnly"},
	}

	child := &ast.Class{}
	child.ClassName = "ChildClass"
	child.Super = "BaseClass"
	child.HasSuper = true
	child.MemberList.Methods = []*ast.Method{
		{MethodName: "shared"}, // overrides BaseClass.shared
	}

	sd := scannedDoc("a.js", base, child)
	deps := Deps{
		ScannedDocument: func(u ast.CanonicalURL) (*ast.ScannedDocument, bool) {
			if u == "a.js" {
				return sd, true
			}
			return nil, false
		},
		ResolveImport: noImports,
	}

	doc, err := Resolve("a.js", deps)
	require.NoError(t, err)

	var resolvedChild ast.ClassLike
	for _, f := range doc.FeaturesByKind[ast.KindClass] {
		cl := f.(ast.ClassLike)
		if cl.Name() == "ChildClass" {
			resolvedChild = cl
		}
	}
	require.NotNil(t, resolvedChild)

	methods := resolvedChild.Members().Methods
	byName := map[string]*ast.Method{}
	for _, m := range methods {
		byName[m.MethodName] = m
	}

	require.Contains(t, byName, "shared")
	assert.Equal(t, "", byName["shared"].InheritedFrom, "an override must shadow the ancestor's version, not duplicate it")

	require.Contains(t, byName, "baseOnly")
	assert.Equal(t, "BaseClass", byName["baseOnly"].InheritedFrom)
}

// TestResolveDetectsBehaviorCycleWithoutInfiniteRecursion guards against a
// reference cycle in the superclass/mixin/behavior graph (two behaviors
// naming each other) hanging the resolver.
func TestResolveDetectsBehaviorCycleWithoutInfiniteRecursion(t *testing.T) {
	a := &ast.Behavior{}
	a.ClassName = "ABehavior"
	a.BehaviorApps = []string{"BBehavior"}

	b := &ast.Behavior{}
	b.ClassName = "BBehavior"
	b.BehaviorApps = []string{"ABehavior"}

	sd := scannedDoc("behaviors.js", a, b)
	deps := Deps{
		ScannedDocument: func(u ast.CanonicalURL) (*ast.ScannedDocument, bool) {
			return sd, u == "behaviors.js"
		},
		ResolveImport: noImports,
	}

	done := make(chan struct{})
	var doc *ast.Document
	var err error
	go func() {
		doc, err = Resolve("behaviors.js", deps)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Resolve hung on a behavior reference cycle")
	}
	require.NoError(t, err)
	require.NotNil(t, doc)
}

// TestResolveUnknownURLProducesWarningDocument covers spec §4.5 step 1: a
// URL with no scanned document resolves to a stub Document carrying a
// warning, not an error.
func TestResolveUnknownURLProducesWarningDocument(t *testing.T) {
	deps := Deps{
		ScannedDocument: func(ast.CanonicalURL) (*ast.ScannedDocument, bool) { return nil, false },
		ResolveImport:   noImports,
	}

	doc, err := Resolve("missing.html", deps)
	require.NoError(t, err)
	require.NotNil(t, doc.Warning)
	assert.Equal(t, ast.WarningUnableToAnalyze, doc.Warning.Kind)
}

// TestResolveImportFailureDoesNotFailImporter covers spec §7's propagation
// policy: an unresolved import attaches its failure to the Import feature
// rather than failing the whole document.
func TestResolveImportFailureDoesNotFailImporter(t *testing.T) {
	imp := &ast.Import{ImportedAs: "missing.html", Resolved: "missing.html"}
	sd := scannedDoc("root.html", imp)

	deps := Deps{
		ScannedDocument: func(u ast.CanonicalURL) (*ast.ScannedDocument, bool) { return sd, u == "root.html" },
		ResolveImport: func(ast.CanonicalURL) (*ast.Document, error) {
			return nil, assert.AnError
		},
	}

	doc, err := Resolve("root.html", deps)
	require.NoError(t, err)
	require.Nil(t, doc.Warning)

	gotImport := doc.FeaturesByKind[ast.KindImport][0].(*ast.Import)
	require.NotNil(t, gotImport.LoadError)
	assert.Equal(t, ast.WarningUnableToLoad, gotImport.LoadError.Kind)
}
