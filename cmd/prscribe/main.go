/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package main is the entrypoint of the prscribe action container. It reads
// the environment contract rendered by the action manifest, runs the
// description pipeline once, and exits non-zero on any failure.
package main

import (
	"context"
	"maps"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/chainguard-dev/clog"

	"chainguard.dev/prscribe/assets"
	"chainguard.dev/prscribe/pipeline"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Tie the run to the exact prompt and schema contents baked into this
	// image version.
	digests := assets.Digests()
	for _, name := range slices.Sorted(maps.Keys(digests)) {
		clog.InfoContextf(ctx, "Embedded asset %s sha256:%s", name, digests[name])
	}

	cfg, err := pipeline.LoadConfig(ctx, os.Args[1:])
	if err != nil {
		clog.FatalContextf(ctx, "loading configuration: %v", err)
	}

	if err := pipeline.New(cfg).Run(ctx); err != nil {
		clog.FatalContextf(ctx, "generating pull request description: %v", err)
	}
}
