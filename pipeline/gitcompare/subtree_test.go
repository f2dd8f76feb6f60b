/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package gitcompare

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSubtree(t *testing.T) {
	t.Parallel()

	doc := map[string]any{
		"status": "ahead",
		"files":  []any{map[string]any{"filename": "a.go"}},
		"base_commit": map[string]any{
			"commit": map[string]any{"message": "initial"},
		},
	}

	t.Run("empty path returns the document", func(t *testing.T) {
		t.Parallel()
		got, err := Subtree(doc, "")
		if err != nil {
			t.Fatalf("Subtree() = %v", err)
		}
		if diff := cmp.Diff(doc, got); diff != "" {
			t.Errorf("Subtree() mismatch (-want, +got):\n%s", diff)
		}
	})

	t.Run("single key", func(t *testing.T) {
		t.Parallel()
		got, err := Subtree(doc, "files")
		if err != nil {
			t.Fatalf("Subtree() = %v", err)
		}
		want := []any{map[string]any{"filename": "a.go"}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Subtree() mismatch (-want, +got):\n%s", diff)
		}
	})

	t.Run("dotted path", func(t *testing.T) {
		t.Parallel()
		got, err := Subtree(doc, "base_commit.commit.message")
		if err != nil {
			t.Fatalf("Subtree() = %v", err)
		}
		if got != "initial" {
			t.Errorf("Subtree() = %v, want %q", got, "initial")
		}
	})

	t.Run("missing key", func(t *testing.T) {
		t.Parallel()
		_, err := Subtree(doc, "base_commit.author")
		if err == nil {
			t.Fatal("Subtree() succeeded, wanted an error")
		}
		if want := `key "author" not present`; !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not contain %q", err, want)
		}
	})

	t.Run("descending into a non-object", func(t *testing.T) {
		t.Parallel()
		_, err := Subtree(doc, "files.filename")
		if err == nil {
			t.Fatal("Subtree() succeeded, wanted an error")
		}
		if want := "is not an object"; !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not contain %q", err, want)
		}
	})
}
