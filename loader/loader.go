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

// Package loader provides the concrete (secondary, per SPEC_FULL §1)
// filesystem Loader/Resolver pair: the external collaborators spec §6
// names but leaves to the embedder. It exists so the Analysis Context can
// be exercised end-to-end against real files instead of only synthetic
// in-memory fixtures.
package loader

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/rayantony/polymer-analyzer/ast"
)

// FS is a filesystem-backed Loader rooted at Root. Canonical URLs are
// slash-separated paths read relative to Root; Load treats a leading "/"
// as Root itself and clamps any ".." that would climb above Root, so the
// rooted and relative paths the Resolver below produces both load.
type FS struct {
	Root string
}

// New returns an FS loader rooted at root.
func New(root string) *FS {
	return &FS{Root: root}
}

// CanLoad reports whether url looks like a root-relative filesystem path
// rather than a URL with an external scheme (http://, https://, ...) —
// those are left to pass through unchanged and unloadable; a bare package
// specifier has no scheme and is treated as a path like any other,
// matching spec §6's "Unresolvable URLs ... treated as opaque keys".
func (f *FS) CanLoad(url ast.CanonicalURL) bool {
	return !hasScheme(string(url))
}

// Load reads the file at url relative to Root.
func (f *FS) Load(ctx context.Context, url ast.CanonicalURL) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean := path.Clean("/" + string(url))
	full := path.Join(f.Root, clean)
	b, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", url, err)
	}
	return b, nil
}

// PackageResolver joins a possibly-relative href against the document
// that referenced it. An href carrying an external scheme is left
// unresolved (spec §6: "Unresolvable URLs pass through unchanged and are
// treated as opaque keys").
type PackageResolver struct{}

func (PackageResolver) CanResolve(href string) bool {
	return !hasScheme(href)
}

func (PackageResolver) Resolve(containing ast.CanonicalURL, href string) ast.CanonicalURL {
	if strings.HasPrefix(href, "/") {
		return ast.CanonicalURL(path.Clean(href))
	}
	dir := path.Dir(string(containing))
	return ast.CanonicalURL(path.Clean(path.Join(dir, href)))
}

func hasScheme(s string) bool {
	i := strings.Index(s, "://")
	if i <= 0 {
		return false
	}
	for _, r := range s[:i] {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.') {
			return false
		}
	}
	return true
}
