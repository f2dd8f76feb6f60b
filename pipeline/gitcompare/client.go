/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package gitcompare

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
	"golang.org/x/oauth2"
)

const (
	// perPage bounds the commit list; changed files only appear on the first
	// page of a comparison, so one request is all the pipeline needs.
	perPage = 100

	defaultPatchBudget = 8 * 1024
	defaultTotalBudget = 256 * 1024
)

// Client fetches branch comparisons from the GitHub REST API.
type Client struct {
	gh          *github.Client
	patchBudget int
	totalBudget int
}

// Option configures a Client.
type Option func(*Client) error

// WithBaseURL points the client at a GitHub Enterprise or test endpoint.
func WithBaseURL(raw string) Option {
	return func(c *Client) error {
		u, err := url.Parse(strings.TrimSuffix(raw, "/") + "/")
		if err != nil {
			return fmt.Errorf("parsing base URL: %w", err)
		}
		c.gh.BaseURL = u
		return nil
	}
}

// WithPatchBudget bounds how many bytes of one file's patch survive into the
// prompt.
func WithPatchBudget(n int) Option {
	return func(c *Client) error {
		if n <= 0 {
			return fmt.Errorf("patch budget must be positive, got %d", n)
		}
		c.patchBudget = n
		return nil
	}
}

// WithTotalBudget bounds the bytes of patch text across the whole
// comparison.
func WithTotalBudget(n int) Option {
	return func(c *Client) error {
		if n <= 0 {
			return fmt.Errorf("total budget must be positive, got %d", n)
		}
		c.totalBudget = n
		return nil
	}
}

// New builds a Client authorized by the given token.
func New(ctx context.Context, token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, errors.New("token cannot be empty")
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	c := &Client{
		gh:          github.NewClient(oauth2.NewClient(ctx, ts)),
		patchBudget: defaultPatchBudget,
		totalBudget: defaultTotalBudget,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}
	return c, nil
}

// Comparison is one branch comparison with patches condensed to fit a model
// prompt. Doc holds the full response decoded as generic JSON, so callers
// can select any subtree of the REST shape from it.
type Comparison struct {
	Status       string
	AheadBy      int
	BehindBy     int
	TotalCommits int
	Files        int
	Condensed    int
	Doc          any
}

// Compare fetches the base...head comparison for a repository. Identical
// runs against an unchanged comparison yield identical documents.
func (c *Client) Compare(ctx context.Context, owner, repo, base, head string) (*Comparison, error) {
	log := clog.FromContext(ctx)

	cmp, _, err := c.gh.Repositories.CompareCommits(ctx, owner, repo, base, head, &github.ListOptions{PerPage: perPage})
	if err != nil {
		var rate *github.RateLimitError
		if errors.As(err, &rate) {
			return nil, fmt.Errorf("comparing %s...%s in %s/%s: rate limited until %s: %w",
				base, head, owner, repo, rate.Rate.Reset.Time.UTC().Format("15:04:05 MST"), err)
		}
		return nil, fmt.Errorf("comparing %s...%s in %s/%s: %w", base, head, owner, repo, err)
	}

	// Round-trip through JSON to get the REST response shape back, so
	// subtree selection sees the same keys the raw API returns.
	raw, err := json.Marshal(cmp)
	if err != nil {
		return nil, fmt.Errorf("encoding comparison: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding comparison: %w", err)
	}

	cn := &condenser{patchBudget: c.patchBudget, totalBudget: c.totalBudget}
	cn.walk(doc)

	out := &Comparison{
		Status:       cmp.GetStatus(),
		AheadBy:      cmp.GetAheadBy(),
		BehindBy:     cmp.GetBehindBy(),
		TotalCommits: cmp.GetTotalCommits(),
		Files:        len(cmp.Files),
		Condensed:    cn.condensed,
		Doc:          doc,
	}
	log.With("owner", owner).
		With("repo", repo).
		With("basehead", base+"..."+head).
		With("status", out.Status).
		With("total_commits", out.TotalCommits).
		With("files", out.Files).
		With("condensed_patches", out.Condensed).
		Info("Fetched branch comparison")
	return out, nil
}
