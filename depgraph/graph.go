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

// Package depgraph implements the dependency graph component of the
// Analysis Context (spec §4.1): a directed graph over canonical document
// URLs that drives transitive scan traversal with cycle tolerance, and
// computes reverse-transitive invalidation closures. It is modeled on the
// teacher's executor: per-node registration channels mirror
// result.ready/result.blockedOn, and Invalidate mirrors
// executor.invalidate/invalidateLocked's reverse-dependency walk.
package depgraph

import (
	"context"
	"sync"

	"github.com/rayantony/polymer-analyzer/ast"
)

// Graph is safe for concurrent use. One Graph belongs to one cache
// snapshot; forking the cache (spec §4.2, §4.6) gives the fork its own
// Clone of the Graph, not a shared one to mutate.
type Graph struct {
	mu    sync.Mutex
	nodes map[ast.CanonicalURL]*node
}

type node struct {
	url   ast.CanonicalURL
	ready chan struct{}
	once  sync.Once

	imports    []ast.CanonicalURL
	err        error
	dependents map[ast.CanonicalURL]struct{}
}

// New returns an empty dependency graph.
func New() *Graph {
	return &Graph{nodes: map[ast.CanonicalURL]*node{}}
}

func (g *Graph) getOrCreateLocked(url ast.CanonicalURL) *node {
	if n, ok := g.nodes[url]; ok {
		return n
	}
	n := &node{url: url, ready: make(chan struct{}), dependents: map[ast.CanonicalURL]struct{}{}}
	g.nodes[url] = n
	return n
}

// AddDocument records that url's direct imports are the given set and
// marks url ready — observers blocked in WhenReady on url itself (as
// opposed to waiting transitively through it) unblock immediately.
func (g *Graph) AddDocument(url ast.CanonicalURL, imports []ast.CanonicalURL) {
	g.mu.Lock()
	n := g.getOrCreateLocked(url)
	n.imports = imports
	for _, imp := range imports {
		dep := g.getOrCreateLocked(imp)
		dep.dependents[url] = struct{}{}
	}
	g.mu.Unlock()
	n.once.Do(func() { close(n.ready) })
}

// RejectDocument marks url failed; any WhenReady traversal passing through
// url observes err and stops descending into url's (possibly nonexistent)
// imports.
func (g *Graph) RejectDocument(url ast.CanonicalURL, err error) {
	g.mu.Lock()
	n := g.getOrCreateLocked(url)
	n.err = err
	g.mu.Unlock()
	n.once.Do(func() { close(n.ready) })
}

// WhenReady blocks until the transitive closure rooted at url has
// completed: url itself, and recursively every document it imports, has
// been registered via AddDocument or RejectDocument. It returns the first
// failure encountered anywhere in that closure, or nil.
//
// Cycle handling: a node already on the current traversal path is treated
// as ready without waiting on it again — url's own registration already
// blocked on nothing circular, so by the time a cycle is revisited every
// node on it has necessarily already signaled ready or failed (spec §4.1,
// "Cycle handling").
func (g *Graph) WhenReady(ctx context.Context, url ast.CanonicalURL) error {
	return g.whenReady(ctx, url, map[ast.CanonicalURL]struct{}{})
}

func (g *Graph) whenReady(ctx context.Context, url ast.CanonicalURL, visited map[ast.CanonicalURL]struct{}) error {
	if _, ok := visited[url]; ok {
		return nil
	}
	visited[url] = struct{}{}

	g.mu.Lock()
	n := g.getOrCreateLocked(url)
	g.mu.Unlock()

	select {
	case <-n.ready:
	case <-ctx.Done():
		return ctx.Err()
	}

	g.mu.Lock()
	err := n.err
	imports := append([]ast.CanonicalURL(nil), n.imports...)
	g.mu.Unlock()
	if err != nil {
		return err
	}

	var firstErr error
	for _, imp := range imports {
		if ierr := g.whenReady(ctx, imp, visited); ierr != nil && firstErr == nil {
			firstErr = ierr
		}
	}
	return firstErr
}

// Invalidate removes url and every document that (transitively) depends on
// it from the graph, returning the full removed set in discovery order.
// Grounded on executor.invalidate/invalidateLocked: the teacher walks
// "blocks" (reverse edges) the same way, the only difference being that
// the teacher also deletes the linked symbol table entries for the
// removed files, a step with no analogue here (the cache package is what
// holds per-URL promises, and it consults this return value to drop them).
func (g *Graph) Invalidate(urls []ast.CanonicalURL) []ast.CanonicalURL {
	g.mu.Lock()
	defer g.mu.Unlock()

	seen := map[ast.CanonicalURL]struct{}{}
	var order []ast.CanonicalURL
	var visit func(u ast.CanonicalURL)
	visit = func(u ast.CanonicalURL) {
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		order = append(order, u)
		n, ok := g.nodes[u]
		if !ok {
			return
		}
		for dep := range n.dependents {
			visit(dep)
		}
	}
	for _, u := range urls {
		visit(u)
	}
	for _, u := range order {
		g.removeLocked(u)
	}
	return order
}

func (g *Graph) removeLocked(u ast.CanonicalURL) {
	n, ok := g.nodes[u]
	if !ok {
		return
	}
	for _, imp := range n.imports {
		if d, ok := g.nodes[imp]; ok {
			delete(d.dependents, u)
		}
	}
	delete(g.nodes, u)
}

// Imports returns the direct import edges recorded for url, or nil if url
// hasn't been added yet.
func (g *Graph) Imports(url ast.CanonicalURL) []ast.CanonicalURL {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[url]
	if !ok {
		return nil
	}
	return append([]ast.CanonicalURL(nil), n.imports...)
}

// Clone returns an independent copy of g: every node's import/dependent
// edges and terminal error are copied, and each node gets its own ready
// channel (pre-closed if the source node was already ready) so that
// re-registering a URL on the clone via AddDocument never attempts to
// close a channel shared with g. This is what Context.Fork uses to give
// every snapshot its own graph while still starting from the parent's
// already-known readiness state (spec §4.6 "Fork semantics": "does not
// share mutable state with its parent").
func (g *Graph) Clone() *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()

	clone := &Graph{nodes: make(map[ast.CanonicalURL]*node, len(g.nodes))}
	for url, n := range g.nodes {
		nn := &node{
			url:        n.url,
			ready:      make(chan struct{}),
			err:        n.err,
			imports:    append([]ast.CanonicalURL(nil), n.imports...),
			dependents: make(map[ast.CanonicalURL]struct{}, len(n.dependents)),
		}
		for d := range n.dependents {
			nn.dependents[d] = struct{}{}
		}
		select {
		case <-n.ready:
			close(nn.ready)
		default:
		}
		clone.nodes[url] = nn
	}
	return clone
}

// Contains reports whether url has been added to (or failed into) the
// graph.
func (g *Graph) Contains(url ast.CanonicalURL) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.nodes[url]
	return ok
}
