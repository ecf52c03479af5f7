package fswatch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	analyzer "github.com/rayantony/polymer-analyzer"
	"github.com/rayantony/polymer-analyzer/ast"
	"github.com/rayantony/polymer-analyzer/parser"
)

type fakeLoader struct {
	mu      sync.Mutex
	content map[ast.CanonicalURL]string
}

func (f *fakeLoader) CanLoad(ast.CanonicalURL) bool { return true }

func (f *fakeLoader) Load(ctx context.Context, url ast.CanonicalURL) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.content[url]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", url)
	}
	return []byte(s), nil
}

func TestFlushInvalidatesChangedFileAndInvokesOnChanged(t *testing.T) {
	dir := t.TempDir()
	loader := &fakeLoader{content: map[ast.CanonicalURL]string{"a.json": `{"name": "a"}`}}
	cfg := analyzer.Config{Loader: loader, Registry: parser.NewRegistry()}

	root := analyzer.New(cfg)
	analyzed, err := root.Analyze(context.Background(), []ast.CanonicalURL{"a.json"})
	require.NoError(t, err)

	w, err := New(dir, analyzed, nil)
	require.NoError(t, err)
	defer w.Stop()

	var called bool
	var gotChanged []ast.CanonicalURL
	w.OnChanged = func(next *analyzer.Context, changed []ast.CanonicalURL) {
		called = true
		gotChanged = changed
	}

	w.record(fsnotify.Event{Name: filepath.Join(dir, "a.json"), Op: fsnotify.Write})
	w.flush()

	assert.True(t, called, "OnChanged must fire once a batch is flushed")
	require.Len(t, gotChanged, 1)
	assert.Equal(t, ast.CanonicalURL("a.json"), gotChanged[0])
	assert.NotSame(t, analyzed, w.Current(), "flushing a change must produce a new snapshot")
}

func TestFlushWithNoPendingEventsIsANoop(t *testing.T) {
	dir := t.TempDir()
	loader := &fakeLoader{content: map[ast.CanonicalURL]string{"a.json": `{"name": "a"}`}}
	cfg := analyzer.Config{Loader: loader, Registry: parser.NewRegistry()}

	root := analyzer.New(cfg)
	analyzed, err := root.Analyze(context.Background(), []ast.CanonicalURL{"a.json"})
	require.NoError(t, err)

	w, err := New(dir, analyzed, nil)
	require.NoError(t, err)
	defer w.Stop()

	var called bool
	w.OnChanged = func(*analyzer.Context, []ast.CanonicalURL) { called = true }

	w.flush()
	assert.False(t, called, "flushing with nothing pending must not invoke OnChanged")
}
