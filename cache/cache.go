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

// Package cache implements the immutable-snapshot cache at the center of
// the Analysis Context (spec §4.2): four promise tables — parsed,
// scanned-local, scanned-transitive, and resolved documents — plus a
// failed-URL table, each with at-most-once compute semantics per URL. A
// Cache is forked, never mutated in place, the same way the teacher forks
// its symbol table: compare Fork here with the teacher's
// linker.Symbols.Clone(), which shallow-copies its maps so the old
// snapshot keeps working unaffected while the new one diverges.
package cache

import (
	"context"
	"maps"
	"sync"

	art "github.com/kralicky/go-adaptive-radix-tree"

	"github.com/rayantony/polymer-analyzer/ast"
)

// promise resolves a value for one URL at most once; concurrent callers
// for the same URL all observe the same (val, err), mirroring the
// teacher's result.ready channel.
type promise[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
	err  error
}

func newPromise[T any]() *promise[T] {
	return &promise[T]{done: make(chan struct{})}
}

func (p *promise[T]) resolve(ctx context.Context, compute func() (T, error)) (T, error) {
	p.once.Do(func() {
		p.val, p.err = compute()
		close(p.done)
	})
	select {
	case <-p.done:
		return p.val, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

type table[T any] struct {
	mu sync.Mutex
	m  map[ast.CanonicalURL]*promise[T]
}

func newTable[T any]() *table[T] {
	return &table[T]{m: map[ast.CanonicalURL]*promise[T]{}}
}

// GetOrCompute returns the cached value for url, computing it via compute
// on first request. Only one caller per URL ever runs compute; everyone
// else (including concurrent callers) waits on that result.
func (t *table[T]) GetOrCompute(ctx context.Context, url ast.CanonicalURL, compute func() (T, error)) (T, error) {
	t.mu.Lock()
	p, ok := t.m[url]
	if !ok {
		p = newPromise[T]()
		t.m[url] = p
	}
	t.mu.Unlock()
	return p.resolve(ctx, compute)
}

func (t *table[T]) clone() *table[T] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return &table[T]{m: maps.Clone(t.m)}
}

func (t *table[T]) drop(urls []ast.CanonicalURL) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, u := range urls {
		delete(t.m, u)
	}
}

// Cache holds one snapshot's worth of promises. The zero value is not
// usable; construct with New or Fork.
type Cache struct {
	parsed            *table[*ast.ParsedDocument]
	scannedLocal      *table[*ast.ScannedDocument]
	scannedTransitive *table[*ast.ScannedDocument]
	resolved          *table[*ast.Document]

	mu        sync.Mutex
	failed    map[ast.CanonicalURL]error
	pkgPrefix art.Tree[ast.CanonicalURL]
}

// New returns an empty snapshot.
func New() *Cache {
	return &Cache{
		parsed:            newTable[*ast.ParsedDocument](),
		scannedLocal:      newTable[*ast.ScannedDocument](),
		scannedTransitive: newTable[*ast.ScannedDocument](),
		resolved:          newTable[*ast.Document](),
		failed:            map[ast.CanonicalURL]error{},
		pkgPrefix:         art.New[ast.CanonicalURL](),
	}
}

// Parsed returns the cached parsed document for url, computing it with
// parse on first access.
func (c *Cache) Parsed(ctx context.Context, url ast.CanonicalURL, parse func() (*ast.ParsedDocument, error)) (*ast.ParsedDocument, error) {
	return c.parsed.GetOrCompute(ctx, url, parse)
}

// ScannedLocal returns the cached local scan for url: this document's own
// features plus its inline sub-documents, already scanned and attached,
// with no imports followed.
func (c *Cache) ScannedLocal(ctx context.Context, url ast.CanonicalURL, scan func() (*ast.ScannedDocument, error)) (*ast.ScannedDocument, error) {
	return c.scannedLocal.GetOrCompute(ctx, url, scan)
}

// ScannedTransitive returns the cached scan for url once every import it
// reaches has been scheduled and the dependency graph reports url ready;
// the scanned document itself is the same one the local scan produced.
func (c *Cache) ScannedTransitive(ctx context.Context, url ast.CanonicalURL, scan func() (*ast.ScannedDocument, error)) (*ast.ScannedDocument, error) {
	return c.scannedTransitive.GetOrCompute(ctx, url, scan)
}

// Resolved returns the cached resolved Document for url, with inheritance
// chains flattened (spec §4.5). Resolution is memoized per snapshot.
func (c *Cache) Resolved(ctx context.Context, url ast.CanonicalURL, resolve func() (*ast.Document, error)) (*ast.Document, error) {
	return c.resolved.GetOrCompute(ctx, url, resolve)
}

// PeekResolved returns the already-resolved Document for url without
// triggering a compute — used by analyze() step 3 ("if all are already in
// resolved_docs, return self").
func (c *Cache) PeekResolved(url ast.CanonicalURL) (*ast.Document, bool) {
	c.resolved.mu.Lock()
	p, ok := c.resolved.m[url]
	c.resolved.mu.Unlock()
	if !ok {
		return nil, false
	}
	select {
	case <-p.done:
		return p.val, p.err == nil
	default:
		return nil, false
	}
}

// PeekScannedLocal returns the already-computed local scan for url without
// triggering a compute. By the time an analyze() call's scan_transitive(u)
// returns for a root URL u, depgraph.WhenReady(u) guarantees every
// transitively reachable URL has had its own scan_local complete (that's
// what closes each node's ready signal) — so the Feature Resolver can
// safely peek this table for any URL reachable from the roots being
// resolved, even while sibling URLs' own scan_transitive goroutines may
// still be unwinding.
func (c *Cache) PeekScannedLocal(url ast.CanonicalURL) (*ast.ScannedDocument, bool) {
	c.scannedLocal.mu.Lock()
	p, ok := c.scannedLocal.m[url]
	c.scannedLocal.mu.Unlock()
	if !ok {
		return nil, false
	}
	select {
	case <-p.done:
		return p.val, p.err == nil
	default:
		return nil, false
	}
}

// PeekScannedTransitive returns the already-computed transitive scan for
// url without triggering a compute; it reports false while that scan is
// missing, still running, or failed.
func (c *Cache) PeekScannedTransitive(url ast.CanonicalURL) (*ast.ScannedDocument, bool) {
	c.scannedTransitive.mu.Lock()
	p, ok := c.scannedTransitive.m[url]
	c.scannedTransitive.mu.Unlock()
	if !ok {
		return nil, false
	}
	select {
	case <-p.done:
		return p.val, p.err == nil
	default:
		return nil, false
	}
}

// MarkFailed records that url failed permanently for this snapshot (e.g.
// the loader could not fetch it). Failed is purely informational — it
// doesn't prevent a later GetOrCompute call on the same URL in any table.
func (c *Cache) MarkFailed(url ast.CanonicalURL, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failed[url] = err
}

// Failed reports whether url has been marked failed, and the recorded
// error.
func (c *Cache) Failed(url ast.CanonicalURL) (error, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	err, ok := c.failed[url]
	return err, ok
}

// IndexURL registers url in the package-boundary prefix index, keyed by
// its string form so package-root queries (get_features' external_packages
// boundary check, spec §4.5) can enumerate every document under a
// directory with one prefix scan instead of a linear filter over every
// known URL.
func (c *Cache) IndexURL(url ast.CanonicalURL) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pkgPrefix.Insert(art.Key(url), url)
}

// URLsWithPrefix returns every indexed URL beginning with prefix.
func (c *Cache) URLsWithPrefix(prefix string) []ast.CanonicalURL {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []ast.CanonicalURL
	c.pkgPrefix.ForEachPrefix(art.Key(prefix), func(n art.Node[ast.CanonicalURL]) bool {
		if n.Kind() == art.Leaf {
			out = append(out, n.Value())
		}
		return true
	})
	return out
}

// Fork returns a new Cache sharing this one's current entries (copy-on-
// write: mutating the fork never affects c, and vice versa). This is what
// the Analysis Context calls at the start of every analyze() and on every
// FilesChanged notification, mirroring the teacher's per-Compile-call
// executor holding its own results map derived from the prior generation.
func (c *Cache) Fork() *Cache {
	c.mu.Lock()
	failedCopy := maps.Clone(c.failed)
	prefixCopy := art.New[ast.CanonicalURL]()
	c.pkgPrefix.ForEach(func(n art.Node[ast.CanonicalURL]) bool {
		prefixCopy.Insert(n.Key(), n.Value())
		return true
	})
	c.mu.Unlock()

	return &Cache{
		parsed:            c.parsed.clone(),
		scannedLocal:      c.scannedLocal.clone(),
		scannedTransitive: c.scannedTransitive.clone(),
		resolved:          c.resolved.clone(),
		failed:            failedCopy,
		pkgPrefix:         prefixCopy,
	}
}

// Invalidate returns a fork of c with every URL in urls dropped from all
// four promise tables and the failed set — the cache-level counterpart of
// depgraph.Graph.Invalidate, which computes the reverse-transitive closure
// that urls should be (the depgraph call happens first; its output is
// what's passed in here).
func (c *Cache) Invalidate(urls []ast.CanonicalURL) *Cache {
	fresh := c.Fork()
	fresh.parsed.drop(urls)
	fresh.scannedLocal.drop(urls)
	fresh.scannedTransitive.drop(urls)
	fresh.resolved.drop(urls)
	fresh.mu.Lock()
	for _, u := range urls {
		delete(fresh.failed, u)
	}
	fresh.mu.Unlock()
	return fresh
}
