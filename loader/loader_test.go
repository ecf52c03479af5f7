package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rayantony/polymer-analyzer/ast"
)

func TestFSLoadReadsRootRelativeFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "widget.js"), []byte("// hi"), 0o644))

	fs := New(dir)
	assert.True(t, fs.CanLoad("widget.js"))

	b, err := fs.Load(context.Background(), "widget.js")
	require.NoError(t, err)
	assert.Equal(t, "// hi", string(b))
}

func TestFSLoadMissingFileErrors(t *testing.T) {
	fs := New(t.TempDir())
	_, err := fs.Load(context.Background(), "nope.js")
	assert.Error(t, err)
}

func TestFSCanLoadRejectsExternalSchemes(t *testing.T) {
	fs := New(t.TempDir())
	assert.False(t, fs.CanLoad("https://example.com/widget.js"))
}

func TestPackageResolverJoinsRelativeHref(t *testing.T) {
	var r PackageResolver
	got := r.Resolve("elements/my-element.html", "../shared/behavior.html")
	assert.Equal(t, ast.CanonicalURL("shared/behavior.html"), got)
}

func TestPackageResolverLeavesAbsoluteHrefRooted(t *testing.T) {
	var r PackageResolver
	got := r.Resolve("elements/my-element.html", "/shared/behavior.html")
	assert.Equal(t, ast.CanonicalURL("/shared/behavior.html"), got)
}

func TestPackageResolverDeclinesExternalScheme(t *testing.T) {
	var r PackageResolver
	assert.False(t, r.CanResolve("https://example.com/lib.js"))
	assert.True(t, r.CanResolve("../shared/behavior.html"))
}
