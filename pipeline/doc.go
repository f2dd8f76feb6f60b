/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package pipeline runs one action invocation end to end.
//
// A run reads the container environment contract, resolves the GitHub branch
// compare call through model function calling (with a deterministic local
// fallback), fetches and condenses the diff, asks the generation model for a
// pull request description, and registers the result as a workflow output.
// A user instruction containing the word "skip" short-circuits the run with
// an empty output.
package pipeline
