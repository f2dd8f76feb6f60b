/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package githubout registers step outputs with the GitHub Actions runner.
//
// The runner designates an append-only file via the GITHUB_OUTPUT environment
// variable; multiline values must be framed with heredoc delimiters. Outside
// a workflow (local or docker runs) there is no such file, and outputs are
// dropped with a warning instead.
package githubout

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/chainguard-dev/clog"
)

// Writer appends step outputs to the workflow output file. A Writer with no
// path drops outputs.
type Writer struct {
	path string
}

// New returns a Writer appending to the given file.
func New(path string) *Writer {
	return &Writer{path: path}
}

// FromEnv returns a Writer for the file the Actions runner designated, or a
// dropping Writer when running outside a workflow.
func FromEnv() *Writer {
	return &Writer{path: os.Getenv("GITHUB_OUTPUT")}
}

// Set registers one step output under the given name.
func (w *Writer) Set(ctx context.Context, name, value string) error {
	log := clog.FromContext(ctx)
	if name == "" {
		return errors.New("output name cannot be empty")
	}
	if strings.ContainsAny(name, "\r\n") {
		return fmt.Errorf("output name %q cannot span lines", name)
	}
	if w.path == "" {
		log.With("name", name).Warn("GITHUB_OUTPUT is not set, dropping step output")
		return nil
	}

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", w.path, err)
	}
	delim := delimiter(value)
	if _, err := fmt.Fprintf(f, "%s<<%s\n%s\n%s\n", name, delim, value, delim); err != nil {
		f.Close()
		return fmt.Errorf("writing output %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", w.path, err)
	}
	log.With("name", name).With("bytes", len(value)).Info("Registered step output")
	return nil
}

// delimiter derives the heredoc frame from the value, rehashing until the
// frame does not occur inside the value.
func delimiter(value string) string {
	d := hash(value)
	for strings.Contains(value, d) {
		d = hash(d)
	}
	return d
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
