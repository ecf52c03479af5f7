package analyzer

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/rayantony/polymer-analyzer/ast"
	"github.com/rayantony/polymer-analyzer/parser"
)

// fakeLoader serves canned JSON bytes from memory and counts how many times
// each URL was actually loaded, so invalidation-scoping tests can tell a
// cache hit from a re-parse.
type fakeLoader struct {
	mu        sync.Mutex
	content   map[ast.CanonicalURL][]byte
	loadCount map[ast.CanonicalURL]int
}

func newFakeLoader(content map[ast.CanonicalURL]string) *fakeLoader {
	bytes := make(map[ast.CanonicalURL][]byte, len(content))
	for u, s := range content {
		bytes[u] = []byte(s)
	}
	return &fakeLoader{content: bytes, loadCount: map[ast.CanonicalURL]int{}}
}

func (f *fakeLoader) CanLoad(url ast.CanonicalURL) bool { return true }

func (f *fakeLoader) Load(ctx context.Context, url ast.CanonicalURL) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadCount[url]++
	b, ok := f.content[url]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", url)
	}
	return b, nil
}

func (f *fakeLoader) loads(url ast.CanonicalURL) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadCount[url]
}

func newTestConfig(loader *fakeLoader, lazyEdges map[ast.CanonicalURL][]ast.CanonicalURL) Config {
	return Config{
		Loader:    loader,
		Registry:  parser.NewRegistry(),
		LazyEdges: lazyEdges,
	}
}

func TestAnalyzeScansTransitiveLazyEdges(t *testing.T) {
	loader := newFakeLoader(map[ast.CanonicalURL]string{
		"root.json":  `{"name": "root"}`,
		"child.json": `{"name": "child"}`,
	})
	cfg := newTestConfig(loader, map[ast.CanonicalURL][]ast.CanonicalURL{
		"root.json": {"child.json"},
	})

	c := New(cfg)
	next, err := c.Analyze(context.Background(), []ast.CanonicalURL{"root.json"})
	require.NoError(t, err)

	assert.Equal(t, 1, loader.loads("root.json"))
	assert.Equal(t, 1, loader.loads("child.json"), "a lazy-edge-reachable document must be scanned as part of analyze()")

	doc, err := next.GetDocument(context.Background(), "root.json")
	require.NoError(t, err)
	assert.Nil(t, doc.Warning)
}

func TestGetDocumentMemoizesSamePointer(t *testing.T) {
	loader := newFakeLoader(map[ast.CanonicalURL]string{"a.json": `{"name": "a"}`})
	cfg := newTestConfig(loader, nil)

	c := New(cfg)
	next, err := c.Analyze(context.Background(), []ast.CanonicalURL{"a.json"})
	require.NoError(t, err)

	d1, err := next.GetDocument(context.Background(), "a.json")
	require.NoError(t, err)
	d2, err := next.GetDocument(context.Background(), "a.json")
	require.NoError(t, err)

	assert.Same(t, d1, d2, "repeat get_document calls on the same snapshot must return the same Document")
}

func TestFilesChangedInvalidatesOnlyDependents(t *testing.T) {
	loader := newFakeLoader(map[ast.CanonicalURL]string{
		"root.json":      `{"name": "root"}`,
		"child.json":     `{"name": "child"}`,
		"unrelated.json": `{"name": "unrelated"}`,
	})
	cfg := newTestConfig(loader, map[ast.CanonicalURL][]ast.CanonicalURL{
		"root.json": {"child.json"},
	})

	c := New(cfg)
	analyzed, err := c.Analyze(context.Background(), []ast.CanonicalURL{"root.json", "unrelated.json"})
	require.NoError(t, err)

	changed := analyzed.FilesChanged([]ast.CanonicalURL{"child.json"})

	reanalyzed, err := changed.Analyze(context.Background(), []ast.CanonicalURL{"root.json", "unrelated.json"})
	require.NoError(t, err)
	_ = reanalyzed

	assert.Equal(t, 2, loader.loads("child.json"), "the invalidated document must be reloaded")
	assert.Equal(t, 2, loader.loads("root.json"), "a document depending on the invalidated one must be reloaded too")
	assert.Equal(t, 1, loader.loads("unrelated.json"), "a document outside the invalidation closure must not be reloaded")
}

func TestFilesChangedWithNoMatchingURLInvalidatesNothing(t *testing.T) {
	loader := newFakeLoader(map[ast.CanonicalURL]string{"a.json": `{"name": "a"}`})
	cfg := newTestConfig(loader, nil)

	c := New(cfg)
	analyzed, err := c.Analyze(context.Background(), []ast.CanonicalURL{"a.json"})
	require.NoError(t, err)

	changed := analyzed.FilesChanged([]ast.CanonicalURL{"never-seen.json"})
	reanalyzed, err := changed.Analyze(context.Background(), []ast.CanonicalURL{"a.json"})
	require.NoError(t, err)
	_ = reanalyzed

	assert.Equal(t, 1, loader.loads("a.json"), "invalidating an unrelated URL must not force a reload")
}

func TestAnalyzeSurfacesCancellation(t *testing.T) {
	defer goleak.VerifyNone(t)

	loader := newFakeLoader(map[ast.CanonicalURL]string{"a.json": `{"name": "a"}`})
	cfg := newTestConfig(loader, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(cfg)
	_, err := c.Analyze(ctx, []ast.CanonicalURL{"a.json"})
	require.Error(t, err)
}

// TestAnalyzeCancellationIsolatedFromConcurrentPeer codifies spec §8-E: two
// concurrent analyze() calls on the same context, one cancelled, must not
// affect the other — the cancelled call rejects with a recognizable marker,
// the peer resolves normally, and neither leaves a goroutine behind.
func TestAnalyzeCancellationIsolatedFromConcurrentPeer(t *testing.T) {
	defer goleak.VerifyNone(t)

	loader := newFakeLoader(map[ast.CanonicalURL]string{"a.json": `{"name": "a"}`})
	cfg := newTestConfig(loader, nil)
	c := New(cfg)

	cancelledCtx, cancel := context.WithCancel(context.Background())
	cancel()

	var wg sync.WaitGroup
	var cancelledErr, peerErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, cancelledErr = c.Analyze(cancelledCtx, []ast.CanonicalURL{"a.json"})
	}()
	go func() {
		defer wg.Done()
		_, peerErr = c.Analyze(context.Background(), []ast.CanonicalURL{"a.json"})
	}()
	wg.Wait()

	assert.Error(t, cancelledErr, "the cancelled peer must reject")
	assert.NoError(t, peerErr, "a concurrent, non-cancelled analyze() must be unaffected by its peer's cancellation")
}

func TestAnalyzeSwallowsLoadFailureIntoFailedDocsWithoutFailingTheCall(t *testing.T) {
	loader := newFakeLoader(map[ast.CanonicalURL]string{}) // missing.json is never registered
	cfg := newTestConfig(loader, nil)

	c := New(cfg)
	next, err := c.Analyze(context.Background(), []ast.CanonicalURL{"missing.json"})
	require.NoError(t, err, "a per-URL load failure must not fail the overall analyze() call")

	doc, err := next.GetDocument(context.Background(), "missing.json")
	require.NoError(t, err)
	require.NotNil(t, doc.Warning)
}

func TestAnalyzeWithAllURLsAlreadyResolvedReturnsSameContext(t *testing.T) {
	loader := newFakeLoader(map[ast.CanonicalURL]string{"a.json": `{"name": "a"}`})
	cfg := newTestConfig(loader, nil)

	c := New(cfg)
	first, err := c.Analyze(context.Background(), []ast.CanonicalURL{"a.json"})
	require.NoError(t, err)

	second, err := first.Analyze(context.Background(), []ast.CanonicalURL{"a.json"})
	require.NoError(t, err)

	assert.Same(t, first, second, "re-analyzing an already-fully-resolved root set must return self, not fork")
}

func TestClearCachesForcesReload(t *testing.T) {
	loader := newFakeLoader(map[ast.CanonicalURL]string{"a.json": `{"name": "a"}`})
	cfg := newTestConfig(loader, nil)

	c := New(cfg)
	first, err := c.Analyze(context.Background(), []ast.CanonicalURL{"a.json"})
	require.NoError(t, err)

	cleared := first.ClearCaches()
	_, err = cleared.Analyze(context.Background(), []ast.CanonicalURL{"a.json"})
	require.NoError(t, err)

	assert.Equal(t, 2, loader.loads("a.json"))
}

func TestAnalyzeIsBoundedByTimeout(t *testing.T) {
	loader := newFakeLoader(map[ast.CanonicalURL]string{"a.json": `{"name": "a"}`})
	cfg := newTestConfig(loader, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := New(cfg)
	_, err := c.Analyze(ctx, []ast.CanonicalURL{"a.json"})
	require.NoError(t, err)
}
