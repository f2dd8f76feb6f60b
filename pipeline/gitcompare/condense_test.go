/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package gitcompare

import (
	"strings"
	"testing"
)

func TestGeneratedFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want bool
	}{
		{"go.sum", true},
		{"tools/go.sum", true},
		{"package-lock.json", true},
		{"Cargo.lock", true},
		{"api/v1/service.pb.go", true},
		{"zz_generated.go", true},
		{"static/bundle.min.js", true},
		{"vendor/golang.org/x/sync/errgroup/errgroup.go", true},
		{"third_party/vendor/lib.go", true},
		{"node_modules/left-pad/index.js", true},
		{"dist/main.js", true},
		{"web/dist/app.css", true},
		{"main.go", false},
		{"Gemfile", false},
		{"distance/main.go", false},
		{"internal/vendors.go", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := generatedFile(tc.name); got != tc.want {
				t.Errorf("generatedFile(%q) = %t, want %t", tc.name, got, tc.want)
			}
		})
	}
}

func TestCondensePatch(t *testing.T) {
	t.Parallel()

	patch := "@@ -1,5 +1,6 @@\n" +
		" package main\n" +
		" \n" +
		"-func old() {}\n" +
		"+func renamed() {}\n" +
		"+func added() {}\n" +
		" \n"

	got := condensePatch("main.go", patch, 200)
	want := "patch condensed to changed lines:\n" +
		"-func old() {}\n" +
		"+func renamed() {}\n" +
		"+func added() {}"
	if got != want {
		t.Errorf("condensePatch() = %q, want %q", got, want)
	}
}

func TestCondensePatchTruncates(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	sb.WriteString("@@ -1,1 +1,40 @@\n")
	for i := range 40 {
		sb.WriteString("+added line number ")
		sb.WriteByte(byte('0' + i%10))
		sb.WriteByte('\n')
	}

	got := condensePatch("big.go", sb.String(), 120)
	if !strings.HasSuffix(got, "... (truncated)") {
		t.Errorf("condensePatch() = %q, want truncation marker at the end", got)
	}
	if !strings.Contains(got, "+added line number 0") {
		t.Errorf("condensePatch() = %q, want the first changed line kept", got)
	}
	if len(got) > 120+len("... (truncated)") {
		t.Errorf("condensePatch() produced %d bytes, want at most %d", len(got), 120+len("... (truncated)"))
	}
}

func TestCondensePatchWithoutHunksTruncatesInstead(t *testing.T) {
	t.Parallel()

	patch := "Binary files a/logo.png and b/logo.png differ"
	if got := condensePatch("logo.png", patch, 200); got != patch {
		t.Errorf("condensePatch() = %q, want the patch kept as-is", got)
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		in     string
		budget int
		want   string
	}{{
		name:   "fits",
		in:     "short",
		budget: 80,
		want:   "short",
	}, {
		name:   "cut at line boundary",
		in:     "line one\nline two\nline three",
		budget: 15,
		want:   "line one\n... (truncated)",
	}, {
		name:   "no newline to cut at",
		in:     "abcdef",
		budget: 3,
		want:   "abc\n... (truncated)",
	}}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := truncate(tc.in, tc.budget); got != tc.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tc.in, tc.budget, got, tc.want)
			}
		})
	}
}

func TestWalkTotalBudget(t *testing.T) {
	t.Parallel()

	doc := map[string]any{
		"files": []any{
			map[string]any{"filename": "a.go", "patch": strings.Repeat("a", 40)},
			map[string]any{"filename": "b.go", "patch": strings.Repeat("b", 40)},
		},
	}

	cn := &condenser{patchBudget: 100, totalBudget: 50}
	cn.walk(doc)

	files := doc["files"].([]any)
	if got := files[0].(map[string]any)["patch"]; got != strings.Repeat("a", 40) {
		t.Errorf("first patch = %q, want it kept", got)
	}
	if got := files[1].(map[string]any)["patch"]; got != "patch omitted: comparison exceeds the prompt budget" {
		t.Errorf("second patch = %q, want the budget omission marker", got)
	}
	if cn.condensed != 1 {
		t.Errorf("condensed = %d, want 1", cn.condensed)
	}
}

func TestWalkLeavesEmptyPatchesAlone(t *testing.T) {
	t.Parallel()

	doc := map[string]any{
		"files": []any{
			map[string]any{"filename": "renamed.go", "patch": ""},
		},
	}

	cn := &condenser{patchBudget: 100, totalBudget: 100}
	cn.walk(doc)

	if got := doc["files"].([]any)[0].(map[string]any)["patch"]; got != "" {
		t.Errorf("patch = %q, want empty string untouched", got)
	}
	if cn.condensed != 0 {
		t.Errorf("condensed = %d, want 0", cn.condensed)
	}
}
