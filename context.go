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

// Package analyzer implements the Analysis Context: the engine that
// coordinates the immutable-snapshot cache, the dependency graph, the
// scanner pipeline, and the feature resolver into the fork/invalidate/
// cancel protocol used to analyze a component-oriented front-end source
// tree (markup, script, stylesheet, and structured-data documents).
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"runtime"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rayantony/polymer-analyzer/ast"
	"github.com/rayantony/polymer-analyzer/cache"
	"github.com/rayantony/polymer-analyzer/depgraph"
	"github.com/rayantony/polymer-analyzer/parser"
	"github.com/rayantony/polymer-analyzer/reporter"
	"github.com/rayantony/polymer-analyzer/resolve"
	"github.com/rayantony/polymer-analyzer/scanner"
)

// Loader resolves the bytes behind a canonical URL (spec §6). CanLoad is
// consulted before Load so a Context can short-circuit URLs no configured
// loader understands into an unable-to-load warning without ever calling
// out to Load.
type Loader interface {
	CanLoad(url ast.CanonicalURL) bool
	Load(ctx context.Context, url ast.CanonicalURL) ([]byte, error)
}

// Resolver turns a (possibly relative) href, joined against the document
// that referenced it, into a canonical URL (spec §6). An href CanResolve
// reports false for passes through unchanged and is treated as an opaque
// key — exactly how an external (e.g. bare package specifier) reference is
// handled.
type Resolver interface {
	CanResolve(href string) bool
	Resolve(containing ast.CanonicalURL, href string) ast.CanonicalURL
}

// Config is the knob bag every fork of a Context shares (SPEC_FULL §2,
// "Configuration"), mirroring the teacher's Compiler struct-of-knobs
// rather than free functions or package-level globals.
type Config struct {
	Loader   Loader
	Resolver Resolver
	Registry *parser.Registry

	// DefaultPrivate is fed to get_or_infer_privacy when a feature carries
	// no explicit @public/@private/@protected annotation and its name has
	// no underscore prefix (spec §4.4).
	DefaultPrivate bool

	// MaxParallelism bounds concurrent scan/parse producers, mirroring the
	// teacher's Compiler.MaxParallelism field of the same name. Non-positive
	// means min(NumCPU, GOMAXPROCS).
	MaxParallelism int

	// LazyEdges supplies additional implicit import edges per URL, applied
	// as though the importer had declared them (spec §9 open question,
	// resolved in DESIGN.md): they participate in add_document's import set
	// and are fired through scan_transitive exactly like a declared Import.
	LazyEdges map[ast.CanonicalURL][]ast.CanonicalURL

	// Logger receives fork/invalidation/cancellation diagnostics (SPEC_FULL
	// §2, "Logging"). A nil Logger uses slog.Default().
	Logger *slog.Logger
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// extCaser canonicalizes file-extension casing during URL canonicalization
// (SPEC_FULL §3) — a loader handed "Foo.HTML" and "foo.html" must resolve
// to the same parser registry entry.
var extCaser = cases.Lower(language.Und)

// inFlight is one analyze() call's completion handle, stored on the
// *Context value the call started from: a second concurrent Analyze call
// on that same value observes it through c.prior and can wait for it,
// purely so the caller sees cache reuse rather than redundant work — never
// for correctness (spec §4.6, §5 "single in-flight completion handle
// serializes analyze calls for cache-hit optimization but not for
// correctness"). A call made on a *different* Context value (e.g. one
// already returned by a prior Analyze) has nothing to observe — each
// Context's in-flight slot only ever tracks calls made directly on it.
type inFlight struct {
	done chan struct{}
	err  error
}

func newInFlight() *inFlight { return &inFlight{done: make(chan struct{})} }

func (f *inFlight) complete(err error) {
	f.err = err
	close(f.done)
}

func (f *inFlight) wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Context is one immutable analysis snapshot. The zero value is not
// usable; construct with New, and obtain later snapshots only through
// Analyze/FilesChanged/ClearCaches, never by mutating a Context in place.
type Context struct {
	cfg   Config
	cache *cache.Cache
	graph *depgraph.Graph
	sem   *semaphore.Weighted

	// Generation uniquely identifies this snapshot for log correlation
	// (SPEC_FULL §3, google/uuid), incremented (re-rolled) on every fork.
	Generation uuid.UUID

	mu       sync.Mutex
	prior    *inFlight
	warnings *reporter.Handler
}

// New returns an empty root Context: no documents parsed, scanned, or
// resolved, generation zero.
func New(cfg Config) *Context {
	return &Context{
		cfg:      cfg,
		cache:    cache.New(),
		graph:    depgraph.New(),
		sem:      semaphore.NewWeighted(int64(parallelism(cfg.MaxParallelism))),
		warnings: reporter.NewHandler(),
	}
}

func parallelism(configured int) int {
	if configured > 0 {
		return configured
	}
	par := runtime.GOMAXPROCS(-1)
	if cpus := runtime.NumCPU(); par > cpus {
		par = cpus
	}
	if par < 1 {
		par = 1
	}
	return par
}

// fork returns a new Context sharing c's configuration (parsers, scanners,
// loader, resolver, lazy-edges) but with its own cache and dependency
// graph, descended from c's current snapshot (spec §4.6 "Fork semantics").
func (c *Context) fork() *Context {
	return &Context{
		cfg:        c.cfg,
		cache:      c.cache.Fork(),
		graph:      c.graph.Clone(),
		sem:        semaphore.NewWeighted(int64(parallelism(c.cfg.MaxParallelism))),
		Generation: uuid.New(),
		warnings:   reporter.NewHandler(),
	}
}

// ResolveURL delegates to the configured Resolver, joining href against
// containing. An href the Resolver declines (CanResolve == false) passes
// through unchanged and is treated as an opaque key (spec §6).
func (c *Context) ResolveURL(containing ast.CanonicalURL, href string) ast.CanonicalURL {
	if c.cfg.Resolver == nil || !c.cfg.Resolver.CanResolve(href) {
		return ast.CanonicalURL(href)
	}
	return c.cfg.Resolver.Resolve(containing, href)
}

// CanResolve reports whether the configured Resolver recognizes href.
func (c *Context) CanResolve(href string) bool {
	return c.cfg.Resolver != nil && c.cfg.Resolver.CanResolve(href)
}

// CanLoad reports whether the configured Loader can load url.
func (c *Context) CanLoad(url ast.CanonicalURL) bool {
	return c.cfg.Loader != nil && c.cfg.Loader.CanLoad(url)
}

// Analyze implements the Analyze protocol (spec §4.6): it awaits any prior
// in-flight call made directly on c (for cache-hit reuse, never for
// correctness), then, if every URL is already resolved, returns c itself;
// otherwise it registers its own in-flight slot on c, forks with an empty
// invalidation set, and runs analyzeInternal on the fork.
func (c *Context) Analyze(ctx context.Context, urls []ast.CanonicalURL) (*Context, error) {
	c.mu.Lock()
	prior := c.prior
	c.mu.Unlock()
	if prior != nil {
		if err := prior.wait(ctx); err != nil && !errors.Is(err, context.Canceled) {
			c.cfg.logger().Warn("prior analysis did not complete cleanly", "error", err)
		}
	}

	canon := canonicalize(urls)
	if c.allResolved(canon) {
		return c, nil
	}

	in := newInFlight()
	c.mu.Lock()
	c.prior = in
	c.mu.Unlock()

	next := c.fork()
	next.cfg.logger().Info("analyze: fork created", "generation", next.Generation, "roots", len(canon))
	result, err := next.analyzeInternal(ctx, canon)
	in.complete(err)
	return result, err
}

func canonicalize(urls []ast.CanonicalURL) []ast.CanonicalURL {
	out := make([]ast.CanonicalURL, 0, len(urls))
	seen := map[ast.CanonicalURL]bool{}
	for _, u := range urls {
		if seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

func (c *Context) allResolved(urls []ast.CanonicalURL) bool {
	for _, u := range urls {
		if _, ok := c.cache.PeekResolved(u); ok {
			continue
		}
		if _, failed := c.cache.Failed(u); failed {
			continue
		}
		return false
	}
	return true
}

// analyzeInternal runs step 4 of the Analyze protocol on a freshly-forked
// Context: concurrent scan_transitive over every root, then get_document
// to populate the resolved cache. The caller (Analyze) owns recording
// completion on its own in-flight slot; this method just does the work.
func (c *Context) analyzeInternal(ctx context.Context, urls []ast.CanonicalURL) (*Context, error) {
	g, gctx := errgroup.WithContext(ctx)
	for _, u := range urls {
		u := u
		g.Go(func() error {
			_, err := c.scanTransitive(gctx, u)
			if err == nil {
				return nil
			}
			// Cancellation is never swallowed: it must propagate out of
			// analyze() as a whole (spec §5 "Cancellation"), not be recorded
			// per-URL like an ordinary load/parse failure.
			var w ast.Warning
			if errors.As(err, &w) {
				c.cache.MarkFailed(u, err)
				return nil
			}
			return err
		})
	}
	firstErr := g.Wait()
	if firstErr != nil {
		if errors.Is(firstErr, context.Canceled) {
			return c, reporter.ErrCancelled
		}
		return c, firstErr
	}

	for _, u := range urls {
		if _, failed := c.cache.Failed(u); failed {
			continue
		}
		if _, err := c.GetDocument(ctx, u); err != nil {
			c.cfg.logger().Warn("get_document failed after successful scan_transitive", "url", u, "error", err)
		}
	}

	return c, nil
}

// scanLocal implements scan_local (spec §4.6 step 1 of scan_transitive):
// parse url if needed, run the Scanner Pipeline over the parse, register
// the document's outgoing imports (including any configured lazy edges)
// in the dependency graph, and index it for package-boundary queries.
func (c *Context) scanLocal(ctx context.Context, url ast.CanonicalURL) (*ast.ScannedDocument, error) {
	return c.cache.ScannedLocal(ctx, url, func() (*ast.ScannedDocument, error) {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer c.sem.Release(1)

		parsed, err := c.cache.Parsed(ctx, url, func() (*ast.ParsedDocument, error) {
			return c.parseURL(ctx, url)
		})
		if err != nil {
			c.graph.RejectDocument(url, err)
			return nil, err
		}

		h := reporter.NewHandler()
		sd := scanner.Scan(parsed, scanner.Options{DefaultPrivate: c.cfg.DefaultPrivate}, h)
		c.cache.IndexURL(url)
		c.warnings.Merge(h)

		imports := importURLsOf(sd)
		imports = append(imports, c.cfg.LazyEdges[url]...)
		c.graph.AddDocument(url, imports)
		return sd, nil
	})
}

// scanTransitive implements the Scan-transitive protocol (spec §4.6): it
// runs scan_local, fires every discovered import (and lazy edge) through
// scan_transitive without waiting on any one of them individually, then
// blocks on dep_graph.when_ready(url) so cycles resolve once every node
// reachable from url has, itself, finished its own scan_local.
func (c *Context) scanTransitive(ctx context.Context, url ast.CanonicalURL) (*ast.ScannedDocument, error) {
	return c.cache.ScannedTransitive(ctx, url, func() (*ast.ScannedDocument, error) {
		sd, err := c.scanLocal(ctx, url)
		if err != nil {
			return nil, err
		}

		imports := importURLsOf(sd)
		imports = append(imports, c.cfg.LazyEdges[url]...)
		for _, imp := range imports {
			imp := imp
			go func() {
				// Fire-and-forget: a failing import never fails url's own
				// readiness (spec §4.1 "Failure model"). The failure still
				// surfaces later, attached to the Import feature itself, when
				// the Feature Resolver calls ResolveImport and sees a Document
				// whose Warning is set.
				_, _ = c.scanTransitive(context.WithoutCancel(ctx), imp)
			}()
		}

		if err := c.graph.WhenReady(ctx, url); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			// Any other failure WhenReady reports belongs to an import
			// somewhere in url's closure (url's own rejection already
			// returned above via scanLocal's error path). It is not url's
			// failure: it surfaces on the Import feature when the Feature
			// Resolver calls ResolveImport.
		}
		return sd, nil
	})
}

func importURLsOf(sd *ast.ScannedDocument) []ast.CanonicalURL {
	var out []ast.CanonicalURL
	for _, f := range sd.AllFeatures() {
		if imp, ok := f.(*ast.Import); ok {
			out = append(out, imp.Resolved)
		}
	}
	return out
}

// parseURL loads url's bytes through the configured Loader and hands them
// to the Parser Registry entry matching its extension. Every failure here
// (no Loader configured, load error, no parser registered, parse error) is
// returned as an ast.Warning-typed error so callers that need to "swallow
// thrown errors into failed_docs when they carry a warning" (spec §4.6
// step 4a) can recognize it with errors.As.
func (c *Context) parseURL(ctx context.Context, url ast.CanonicalURL) (*ast.ParsedDocument, error) {
	if c.cfg.Loader == nil || !c.cfg.Loader.CanLoad(url) {
		return nil, ast.Warning{
			Kind:    ast.WarningUnableToLoad,
			Message: fmt.Sprintf("no loader able to load %s", url),
			Range:   ast.UnknownRange(url),
		}
	}
	src, err := c.cfg.Loader.Load(ctx, url)
	if err != nil {
		return nil, ast.Warning{
			Kind:    ast.WarningUnableToLoad,
			Message: err.Error(),
			Range:   ast.UnknownRange(url),
		}
	}

	ext := extensionOf(url)
	if c.cfg.Registry == nil {
		return nil, ast.Warning{
			Kind:    ast.WarningUnableToAnalyze,
			Message: "no parser registry configured",
			Range:   ast.UnknownRange(url),
		}
	}
	p, ok := c.cfg.Registry.For(ext)
	if !ok {
		return nil, ast.Warning{
			Kind:    ast.WarningUnableToParse,
			Message: fmt.Sprintf("no parser registered for extension %q", ext),
			Range:   ast.UnknownRange(url),
		}
	}

	h := reporter.NewHandler()
	pd, err := p.Parse(url, src, nil, h)
	c.warnings.Merge(h)
	if err != nil {
		return nil, ast.Warning{
			Kind:    ast.WarningUnableToParse,
			Message: err.Error(),
			Range:   ast.UnknownRange(url),
		}
	}
	return pd, nil
}

// extensionOf returns url's file extension, lower-cased via
// golang.org/x/text/cases the same way the canonical attribute-name
// conversion does, without the leading dot.
func extensionOf(url ast.CanonicalURL) string {
	ext := path.Ext(string(url))
	return extCaser.String(strings.TrimPrefix(ext, "."))
}

// resolveStackKey is the context.Context key under which GetDocument
// carries the set of URLs currently being resolved on this call stack
// (spec §9 "Cyclic graphs"): a document resolving behavior B which, via
// some import chain, resolves back to the same document must not re-enter
// the same in-flight cache promise (that would deadlock the same
// goroutine against itself) — it instead receives a degraded stub.
// Ordinary concurrent resolution of the same URL from an *unrelated* call
// stack is unaffected: it still blocks on the shared cache promise exactly
// as get_or_compute requires.
type resolveStackKey struct{}

func resolvingSet(ctx context.Context) map[ast.CanonicalURL]bool {
	if s, ok := ctx.Value(resolveStackKey{}).(map[ast.CanonicalURL]bool); ok {
		return s
	}
	return nil
}

func withResolving(ctx context.Context, url ast.CanonicalURL) context.Context {
	prev := resolvingSet(ctx)
	next := make(map[ast.CanonicalURL]bool, len(prev)+1)
	for u := range prev {
		next[u] = true
	}
	next[url] = true
	return context.WithValue(ctx, resolveStackKey{}, next)
}

// GetDocument implements get_document (spec §4.5, §4.6): resolve-on-
// demand, memoized per (snapshot, url). If url is already on the current
// call stack's resolving set, a same-stack reference cycle has been
// detected (as opposed to ordinary concurrent access to the same URL from
// an unrelated stack) and a degraded stub Document is returned instead of
// re-entering the in-flight promise.
func (c *Context) GetDocument(ctx context.Context, url ast.CanonicalURL) (*ast.Document, error) {
	if resolvingSet(ctx)[url] {
		return c.stubDocument(url), nil
	}
	ctx = withResolving(ctx, url)

	return c.cache.Resolved(ctx, url, func() (*ast.Document, error) {
		return resolve.Resolve(url, resolve.Deps{
			ScannedDocument: func(u ast.CanonicalURL) (*ast.ScannedDocument, bool) {
				return c.cache.PeekScannedLocal(u)
			},
			ResolveImport: func(u ast.CanonicalURL) (*ast.Document, error) {
				return c.GetDocument(ctx, u)
			},
			DefaultPrivate: c.cfg.DefaultPrivate,
		})
	})
}

// stubDocument is what a reference cycle resolves to on the revisited
// member: its own features, grouped by kind, but no further import
// resolution — descending into the cycle a second time on the same stack
// would never terminate, and by the time the cycle is revisited every
// document on it has already reached scan_transitive's when_ready point
// (spec §9 "relies on when_ready to break cycles"), so its own scanned
// features are safely available without re-entering resolution.
func (c *Context) stubDocument(url ast.CanonicalURL) *ast.Document {
	sd, ok := c.cache.PeekScannedLocal(url)
	if !ok {
		return &ast.Document{
			Warning: &ast.Warning{
				Kind:    ast.WarningUnableToAnalyze,
				Message: fmt.Sprintf("unable to analyze %s: cyclic reference with no scanned document", url),
				Range:   ast.UnknownRange(url),
			},
		}
	}
	return &ast.Document{Scanned: sd, FeaturesByKind: sd.FeaturesByKind()}
}

// FilesChanged implements files_changed (spec §4.6): fork with reverse-
// transitive invalidation over urls, computed against the current
// dependency graph before either the graph or the cache changes.
func (c *Context) FilesChanged(urls []ast.CanonicalURL) *Context {
	canon := canonicalize(urls)

	// Clone first, then invalidate the clone in place — Graph.Invalidate
	// mutates the receiver, and c itself must stay untouched so any
	// awaiter still holding it keeps observing the pre-change snapshot
	// (spec §4.2 "the old cache is left untouched").
	newGraph := c.graph.Clone()
	closure := newGraph.Invalidate(canon)
	newCache := c.cache.Invalidate(closure)

	next := &Context{
		cfg:        c.cfg,
		cache:      newCache,
		graph:      newGraph,
		sem:        semaphore.NewWeighted(int64(parallelism(c.cfg.MaxParallelism))),
		Generation: uuid.New(),
		warnings:   reporter.NewHandler(),
	}
	next.cfg.logger().Info("files_changed: invalidated", "generation", next.Generation, "changed", len(canon), "invalidated", len(closure))
	return next
}

// ClearCaches implements clear_caches (spec §4.6): fork with an entirely
// empty cache and dependency graph, keeping configuration.
func (c *Context) ClearCaches() *Context {
	next := c.fork()
	next.cache = cache.New()
	next.graph = depgraph.New()
	next.cfg.logger().Info("clear_caches", "generation", next.Generation)
	return next
}

// Warnings returns every warning recorded while loading/parsing/scanning
// on this snapshot, independent of any one document's own Warnings().
func (c *Context) Warnings() []ast.Warning {
	return c.warnings.Warnings()
}
