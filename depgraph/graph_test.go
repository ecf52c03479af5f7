package depgraph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/rayantony/polymer-analyzer/ast"
)

func TestWhenReadyWaitsForTransitiveClosure(t *testing.T) {
	defer goleak.VerifyNone(t)

	g := New()
	g.AddDocument("a.html", []ast.CanonicalURL{"b.html"})

	done := make(chan error, 1)
	go func() {
		done <- g.WhenReady(context.Background(), "a.html")
	}()

	select {
	case <-done:
		t.Fatal("WhenReady returned before b.html was registered")
	case <-time.After(20 * time.Millisecond):
	}

	g.AddDocument("b.html", nil)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("WhenReady never unblocked after b.html was registered")
	}
}

func TestWhenReadyToleratesImportCycles(t *testing.T) {
	defer goleak.VerifyNone(t)

	g := New()
	g.AddDocument("a.html", []ast.CanonicalURL{"b.html"})
	g.AddDocument("b.html", []ast.CanonicalURL{"a.html"})

	err := g.WhenReady(context.Background(), "a.html")
	assert.NoError(t, err)
}

func TestWhenReadyPropagatesTransitiveFailure(t *testing.T) {
	g := New()
	boom := errors.New("boom")
	g.AddDocument("a.html", []ast.CanonicalURL{"b.html"})
	g.RejectDocument("b.html", boom)

	err := g.WhenReady(context.Background(), "a.html")
	assert.ErrorIs(t, err, boom)
}

func TestInvalidateRemovesReverseTransitiveClosure(t *testing.T) {
	g := New()
	g.AddDocument("leaf.html", nil)
	g.AddDocument("middle.html", []ast.CanonicalURL{"leaf.html"})
	g.AddDocument("root.html", []ast.CanonicalURL{"middle.html"})
	g.AddDocument("unrelated.html", nil)

	removed := g.Invalidate([]ast.CanonicalURL{"leaf.html"})

	assert.ElementsMatch(t, []ast.CanonicalURL{"leaf.html", "middle.html", "root.html"}, removed)
	assert.False(t, g.Contains("root.html"))
	assert.True(t, g.Contains("unrelated.html"))
}

func TestCloneIsIndependentOfParent(t *testing.T) {
	g := New()
	g.AddDocument("a.html", nil)

	clone := g.Clone()
	clone.AddDocument("b.html", nil)

	assert.False(t, g.Contains("b.html"), "adding to a clone must not affect the parent")
	assert.True(t, clone.Contains("a.html"), "a clone must retain the parent's nodes at clone time")

	clone.Invalidate([]ast.CanonicalURL{"a.html"})
	assert.True(t, g.Contains("a.html"), "invalidating a clone must not affect the parent")
}

func TestWhenReadyRespectsContextCancellation(t *testing.T) {
	g := New()
	// a.html is never registered, so WhenReady blocks until ctx is done.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := g.WhenReady(ctx, "a.html")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
