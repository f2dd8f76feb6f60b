/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package gitcompare

import (
	"fmt"
	"maps"
	"path"
	"slices"
	"strings"

	"github.com/waigani/diffparser"
)

// condenser trims patch text inside a decoded comparison document so the
// whole thing fits a model prompt. Generated and lock files lose their
// patches outright, oversized patches are reduced to their changed lines,
// and a document-wide budget drops whatever still does not fit.
type condenser struct {
	patchBudget int
	totalBudget int
	spent       int
	condensed   int
}

// walk visits the document in deterministic order, condensing every object
// that looks like a changed file (a filename with a patch).
func (cn *condenser) walk(node any) {
	switch v := node.(type) {
	case []any:
		for _, item := range v {
			cn.walk(item)
		}
	case map[string]any:
		patch, hasPatch := v["patch"].(string)
		name, hasName := v["filename"].(string)
		if hasPatch && hasName {
			cn.file(v, name, patch)
			return
		}
		for _, key := range slices.Sorted(maps.Keys(v)) {
			cn.walk(v[key])
		}
	}
}

func (cn *condenser) file(entry map[string]any, name, patch string) {
	switch {
	case patch == "":
	case generatedFile(name):
		entry["patch"] = "patch omitted: generated or lock file"
		cn.condensed++
	case len(patch) > cn.patchBudget:
		entry["patch"] = condensePatch(name, patch, cn.patchBudget)
		cn.condensed++
	}

	kept, _ := entry["patch"].(string)
	if cn.spent+len(kept) > cn.totalBudget {
		entry["patch"] = "patch omitted: comparison exceeds the prompt budget"
		cn.condensed++
		return
	}
	cn.spent += len(kept)
}

// condensePatch reduces a unified patch to its added and removed lines,
// truncating if even those exceed the budget.
func condensePatch(name, patch string, budget int) string {
	diff, err := diffparser.Parse(syntheticHeader(name) + patch)
	if err != nil || len(diff.Files) == 0 {
		return truncate(patch, budget)
	}

	var b strings.Builder
	b.WriteString("patch condensed to changed lines:\n")
	wrote := false
	for _, f := range diff.Files {
		for _, h := range f.Hunks {
			for _, l := range h.WholeRange.Lines {
				var prefix byte
				switch l.Mode {
				case diffparser.ADDED:
					prefix = '+'
				case diffparser.REMOVED:
					prefix = '-'
				default:
					continue
				}
				if b.Len()+len(l.Content)+2 > budget {
					b.WriteString("... (truncated)")
					return b.String()
				}
				b.WriteByte(prefix)
				b.WriteString(l.Content)
				b.WriteByte('\n')
				wrote = true
			}
		}
	}
	// A patch with no recognizable changed lines condenses to nothing;
	// plain truncation keeps at least some signal.
	if !wrote {
		return truncate(patch, budget)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// syntheticHeader prepends the git diff header the compare API strips from
// its per-file patch fragments; the parser needs it to find the file.
func syntheticHeader(name string) string {
	return fmt.Sprintf("diff --git a/%s b/%s\n--- a/%s\n+++ b/%s\n", name, name, name, name)
}

func truncate(s string, budget int) string {
	if len(s) <= budget {
		return s
	}
	cut := s[:budget]
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		cut = cut[:i]
	}
	return cut + "\n... (truncated)"
}

// lockNames are dependency lockfiles whose churn says nothing a PR reader
// needs.
var lockNames = map[string]bool{
	"go.sum":            true,
	"package-lock.json": true,
	"yarn.lock":         true,
	"pnpm-lock.yaml":    true,
	"Cargo.lock":        true,
	"composer.lock":     true,
	"Gemfile.lock":      true,
	"poetry.lock":       true,
	"uv.lock":           true,
}

var generatedSuffixes = []string{".pb.go", ".pb.gw.go", "_generated.go", ".gen.go", ".min.js", ".min.css"}

func generatedFile(name string) bool {
	if lockNames[path.Base(name)] {
		return true
	}
	for _, suffix := range generatedSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	for _, dir := range []string{"vendor/", "node_modules/", "dist/"} {
		if strings.HasPrefix(name, dir) || strings.Contains(name, "/"+dir) {
			return true
		}
	}
	return false
}
