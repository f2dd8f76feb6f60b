/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package assets holds the static prompt and schema documents shipped with the
// action image, embedded into the binary so that the entrypoint also works
// outside the container. Every asset is addressed by its sha256 digest; the
// digests are logged at startup so a given image version can be tied back to
// the exact prompt and schema contents it carries.
package assets

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
)

// Asset names, also the file names under /app/assets in the image.
const (
	SystemPrompt     = "system_prompt.txt"
	CompareSchema    = "compare_schema.json"
	CompareOpenAPI   = "github_compare_openapi.json"
	imageAssetPrefix = "/app/assets/"
)

//go:embed system_prompt.txt compare_schema.json github_compare_openapi.json
var embedded embed.FS

// Embedded returns the embedded content of the named asset.
func Embedded(name string) (string, error) {
	b, err := embedded.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("reading embedded asset %q: %w", name, err)
	}
	return string(b), nil
}

// Digest returns the sha256 digest of the named embedded asset in hex.
func Digest(name string) (string, error) {
	content, err := Embedded(name)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:]), nil
}

// Digests returns the digest of every embedded asset, keyed by asset name.
func Digests() map[string]string {
	out := make(map[string]string, 3)
	for _, name := range []string{SystemPrompt, CompareSchema, CompareOpenAPI} {
		// The assets are compiled in, so Digest cannot fail here.
		d, _ := Digest(name)
		out[name] = d
	}
	return out
}
