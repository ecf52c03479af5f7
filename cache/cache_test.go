package cache

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rayantony/polymer-analyzer/ast"
)

func TestGetOrComputeRunsOnce(t *testing.T) {
	c := New()
	var calls int32
	compute := func() (*ast.ParsedDocument, error) {
		atomic.AddInt32(&calls, 1)
		return &ast.ParsedDocument{URL: "a.html"}, nil
	}

	first, err := c.Parsed(context.Background(), "a.html", compute)
	require.NoError(t, err)
	second, err := c.Parsed(context.Background(), "a.html", compute)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestForkIsIndependent(t *testing.T) {
	c := New()
	_, err := c.ScannedLocal(context.Background(), "a.html", func() (*ast.ScannedDocument, error) {
		return &ast.ScannedDocument{URL: "a.html"}, nil
	})
	require.NoError(t, err)

	fork := c.Fork()
	var calls int32
	_, err = fork.ScannedLocal(context.Background(), "b.html", func() (*ast.ScannedDocument, error) {
		atomic.AddInt32(&calls, 1)
		return &ast.ScannedDocument{URL: "b.html"}, nil
	})
	require.NoError(t, err)

	_, ok := c.PeekScannedLocal("b.html")
	assert.False(t, ok, "entries added to a fork must not appear in the parent")

	_, ok = fork.PeekScannedLocal("a.html")
	assert.True(t, ok, "a fork must see entries already in the parent at fork time")
}

func TestInvalidateDropsOnlyNamedURLsAndLeavesParentUntouched(t *testing.T) {
	c := New()
	_, err := c.ScannedLocal(context.Background(), "a.html", func() (*ast.ScannedDocument, error) {
		return &ast.ScannedDocument{URL: "a.html"}, nil
	})
	require.NoError(t, err)
	_, err = c.ScannedLocal(context.Background(), "b.html", func() (*ast.ScannedDocument, error) {
		return &ast.ScannedDocument{URL: "b.html"}, nil
	})
	require.NoError(t, err)

	next := c.Invalidate([]ast.CanonicalURL{"a.html"})

	_, ok := next.PeekScannedLocal("a.html")
	assert.False(t, ok)
	_, ok = next.PeekScannedLocal("b.html")
	assert.True(t, ok, "invalidate must not drop URLs outside the given closure")

	_, ok = c.PeekScannedLocal("a.html")
	assert.True(t, ok, "invalidate must not mutate the snapshot it was called on")
}

func TestPeekDoesNotTriggerCompute(t *testing.T) {
	c := New()
	_, ok := c.PeekResolved("never-computed.html")
	assert.False(t, ok)
}

func TestMarkFailedIsQueryableAndClearedOnInvalidate(t *testing.T) {
	c := New()
	c.MarkFailed("broken.html", assert.AnError)

	err, ok := c.Failed("broken.html")
	require.True(t, ok)
	assert.Equal(t, assert.AnError, err)

	next := c.Invalidate([]ast.CanonicalURL{"broken.html"})
	_, ok = next.Failed("broken.html")
	assert.False(t, ok)
}

func TestURLsWithPrefix(t *testing.T) {
	c := New()
	c.IndexURL("pkg-a/index.html")
	c.IndexURL("pkg-a/child.html")
	c.IndexURL("pkg-b/index.html")

	got := c.URLsWithPrefix("pkg-a/")
	assert.Len(t, got, 2)
}
