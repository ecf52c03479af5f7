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

package ast

// Document is a resolved document (spec §3: "Document (resolved)"). Each
// resolved Document is created exactly once per (snapshot, URL) pair and
// memoized by the Feature Resolver (spec §4.5 step 5).
type Document struct {
	Scanned       *ScannedDocument
	FeaturesByKind map[FeatureKind][]Feature
	Imports       []*Document
	Warning       *Warning // set instead of the above when resolution failed (spec §4.5 step 1)
}

// FeatureQuery is the argument shape of get_features (spec §4.5).
type FeatureQuery struct {
	Kind              FeatureKind
	ID                string // matches a feature's Name()/FullyQualifiedName(), empty matches all
	Imported          bool
	ExternalPackages  bool
}

// GetFeatures implements spec §4.5's get_features: it returns the matching
// set from the target Document's imported closure. Imported=true traverses
// the dependency graph; ExternalPackages=true does not stop at package
// boundaries (see SPEC_FULL §5, "Package-boundary detection").
func (d *Document) GetFeatures(q FeatureQuery, inPackage func(CanonicalURL) bool) []Feature {
	seen := map[*Document]bool{}
	var out []Feature
	var walk func(doc *Document, isRoot bool)
	walk = func(doc *Document, isRoot bool) {
		if doc == nil || seen[doc] {
			return
		}
		seen[doc] = true
		if !isRoot && !q.ExternalPackages && inPackage != nil && doc.Scanned != nil && !inPackage(doc.Scanned.URL) {
			return
		}
		for _, f := range doc.FeaturesByKind[q.Kind] {
			if q.ID == "" || matchID(f, q.ID) {
				out = append(out, f)
			}
		}
		if q.Imported {
			for _, imp := range doc.Imports {
				walk(imp, false)
			}
		}
	}
	walk(d, true)
	return out
}

func matchID(f Feature, id string) bool {
	if cl, ok := f.(ClassLike); ok {
		return cl.FullyQualifiedName() == id || cl.Name() == id
	}
	if n, ok := f.(Named); ok {
		return n.Name() == id
	}
	return false
}
