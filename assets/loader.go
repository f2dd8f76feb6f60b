/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package assets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
)

// maxAssetSize bounds how much we read from a URL or file so a misconfigured
// location cannot balloon the prompt.
const maxAssetSize = 1 << 20

// Loader resolves an asset reference from the environment to its content.
// References can be inline text, an http(s) URL, or a file path; an empty
// reference resolves to the embedded default.
type Loader struct {
	client *http.Client
}

// NewLoader returns a Loader using the provided HTTP client,
// or a client with a 30s timeout when nil.
func NewLoader(client *http.Client) *Loader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Loader{client: client}
}

// Resolve turns the reference into asset content. The embeddedName names the
// fallback asset used when the reference is empty, or when the reference is
// the in-image path of that asset but the binary runs outside the container.
func (l *Loader) Resolve(ctx context.Context, reference, embeddedName string) (string, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return Embedded(embeddedName)
	}

	if strings.HasPrefix(reference, "http://") || strings.HasPrefix(reference, "https://") {
		return l.fetch(ctx, reference)
	}

	// References with whitespace are inline content, e.g. a system prompt
	// passed directly through the environment.
	if strings.ContainsAny(reference, " \t\n") {
		return reference, nil
	}

	if content, err := readFile(reference); err == nil {
		return content, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("reading asset %q: %w", reference, err)
	}

	// The default references are in-image paths. When the binary runs outside
	// the image (local smoke tests) those paths do not exist, so fall back to
	// the identical embedded copy.
	if strings.HasPrefix(reference, imageAssetPrefix) {
		name := strings.TrimPrefix(reference, imageAssetPrefix)
		clog.FromContext(ctx).With("path", reference).With("asset", name).
			Debug("Image asset path not present, using embedded copy")
		return Embedded(name)
	}

	// A single word that is neither a URL nor an existing file is taken as
	// inline content, e.g. a one-word prompt override.
	return reference, nil
}

func (l *Loader) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building asset request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching asset %q: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching asset %q: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize))
	if err != nil {
		return "", fmt.Errorf("reading asset %q: %w", url, err)
	}
	return string(body), nil
}

func readFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if len(b) > maxAssetSize {
		return "", fmt.Errorf("asset %q exceeds %d bytes", path, maxAssetSize)
	}
	return string(b), nil
}
