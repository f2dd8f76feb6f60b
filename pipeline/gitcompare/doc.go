/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package gitcompare fetches GitHub branch comparisons and shapes them for
// model prompts.
//
// The comparison document keeps the REST response's structure, so callers
// select the part they want by dotted key path (the pipeline takes "files").
// Patch text is condensed before selection: lockfile and generated-file
// patches are dropped, oversized patches shrink to their changed lines, and
// a document-wide byte budget bounds the total. Everything else in the
// response, counts, statuses, filenames, survives untouched.
package gitcompare
