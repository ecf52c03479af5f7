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

// Package reporter collects warnings produced while loading, parsing,
// scanning, and resolving documents (spec §7). It is modeled directly on
// the teacher's reporter package: a Handler that accumulates diagnostics
// and a sentinel error distinguishing "some warnings were recorded" from
// "an unrecoverable error occurred", plus a distinct cancellation marker so
// callers can always tell the three apart (spec §5 "Cancellation").
package reporter

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rayantony/polymer-analyzer/ast"
)

// ErrAnalysisFailed is returned by Handler.Error when one or more warnings
// were recorded through it. It plays the same role as the teacher's
// reporter.ErrInvalidSource.
var ErrAnalysisFailed = errors.New("analysis failed: one or more warnings were reported")

// ErrCancelled is the sentinel used to distinguish a cancelled analyze()
// call from any other failure (spec §5, §7). Never wrapped inside a
// Warning — callers pattern-match with errors.Is.
var ErrCancelled = errors.New("analysis cancelled")

// Handler accumulates ast.Warning values produced over the course of one
// analysis operation. It is safe for concurrent use. The Analysis Context
// gives each parse and scan task its own Handler and merges it into the
// one Handler its snapshot keeps.
type Handler struct {
	mu       sync.Mutex
	warnings []ast.Warning
}

// NewHandler returns an empty Handler.
func NewHandler() *Handler { return &Handler{} }

// Warn records a warning and returns it.
func (h *Handler) Warn(w ast.Warning) ast.Warning {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.warnings = append(h.warnings, w)
	return w
}

// Warnf is a convenience wrapper that builds an ast.Warning (kind
// WarningUnableToParse) from a range and format string.
func (h *Handler) Warnf(rng ast.SourceRange, format string, args ...any) ast.Warning {
	return h.WarnKind(ast.WarningUnableToParse, rng, format, args...)
}

// WarnKind is Warnf with an explicit warning kind.
func (h *Handler) WarnKind(kind ast.WarningKind, rng ast.SourceRange, format string, args ...any) ast.Warning {
	w := ast.Warning{Kind: kind, Message: fmt.Sprintf(format, args...), Range: rng}
	return h.Warn(w)
}

// Warnings returns a snapshot of all warnings recorded so far.
func (h *Handler) Warnings() []ast.Warning {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]ast.Warning, len(h.warnings))
	copy(out, h.warnings)
	return out
}

// Error returns ErrAnalysisFailed if any warning has been recorded,
// otherwise nil — mirroring the teacher's Handler.Error() used to decide
// whether a compile/link step must fail overall.
func (h *Handler) Error() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.warnings) == 0 {
		return nil
	}
	return ErrAnalysisFailed
}

// SubHandler returns a fresh Handler for use by one concurrent task (one
// per-URL scan/resolve, mirroring the teacher's e.h.SubHandler() per-task
// handler in compiler.go); its warnings are not visible to the parent
// until merged explicitly with Merge.
func (h *Handler) SubHandler() *Handler { return NewHandler() }

// Merge appends another Handler's warnings onto this one.
func (h *Handler) Merge(other *Handler) {
	if other == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.warnings = append(h.warnings, other.Warnings()...)
}
