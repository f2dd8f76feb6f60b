/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/chainguard-dev/clog"
	"golang.org/x/sync/errgroup"

	"chainguard.dev/prscribe/assets"
	"chainguard.dev/prscribe/githubout"
	"chainguard.dev/prscribe/pipeline/funcall"
	"chainguard.dev/prscribe/pipeline/gitcompare"
	"chainguard.dev/prscribe/pipeline/metrics"
	"chainguard.dev/prscribe/pipeline/openaiexec"
	"chainguard.dev/prscribe/pipeline/promptbuilder"
)

// Pipeline wires the stages of one action run together.
type Pipeline struct {
	cfg     *Config
	loader  *assets.Loader
	console io.Writer
	output  *githubout.Writer
}

// Option adjusts where a Pipeline reads assets from and writes results to.
type Option func(*Pipeline)

// WithConsole redirects the console output, which normally goes to stdout.
func WithConsole(w io.Writer) Option {
	return func(p *Pipeline) { p.console = w }
}

// WithOutput replaces the workflow output writer.
func WithOutput(w *githubout.Writer) Option {
	return func(p *Pipeline) { p.output = w }
}

// New builds a Pipeline for the given contract.
func New(cfg *Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:     cfg,
		loader:  assets.NewLoader(nil),
		console: os.Stdout,
		output:  githubout.FromEnv(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one action invocation: resolve the compare call, fetch and
// condense the diff, generate the description, and register the output.
// On success the output is always registered, empty when generation was
// skipped; on failure it is never registered.
func (p *Pipeline) Run(ctx context.Context) error {
	log := clog.FromContext(ctx)
	cfg := p.cfg

	instruction := ExtractCustomInstruction(cfg.BotName, cfg.UserPrompt)
	if instruction != "" && ContainsSkip(instruction) {
		log.With("bot", cfg.BotName).Info("User instruction contains the word 'skip', skipping generation")
		return p.output.Set(ctx, cfg.OutputKey, "")
	}

	var openAPIDoc, schemaDoc, systemPrompt string
	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		openAPIDoc, err = p.loader.Resolve(egctx, cfg.ServiceSpec, assets.CompareOpenAPI)
		return err
	})
	eg.Go(func() error {
		var err error
		schemaDoc, err = p.loader.Resolve(egctx, cfg.ValidationSchema, assets.CompareSchema)
		return err
	})
	eg.Go(func() error {
		var err error
		systemPrompt, err = p.loader.Resolve(egctx, cfg.SystemPrompt, assets.SystemPrompt)
		return err
	})
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("loading assets: %w", err)
	}

	args, err := p.resolveCompareArguments(ctx, openAPIDoc, schemaDoc)
	if err != nil {
		return err
	}
	base, head, err := args.BaseHead()
	if err != nil {
		return err
	}

	var ghOpts []gitcompare.Option
	if cfg.GitHubAPIURL != "" {
		ghOpts = append(ghOpts, gitcompare.WithBaseURL(cfg.GitHubAPIURL))
	}
	gh, err := gitcompare.New(ctx, cfg.ServiceToken, ghOpts...)
	if err != nil {
		return fmt.Errorf("building compare client: %w", err)
	}
	comparison, err := gh.Compare(ctx, args.Owner, args.Repo, base, head)
	if err != nil {
		return err
	}
	subtree, err := gitcompare.Subtree(comparison.Doc, cfg.ResponseSubtree)
	if err != nil {
		return fmt.Errorf("selecting response subtree: %w", err)
	}

	text, usage, err := p.generate(ctx, systemPrompt, subtree, instruction)
	if err != nil {
		return err
	}
	if cfg.Attribution != "" {
		text = text + "\n\n" + cfg.Attribution
	}

	stats, err := json.Marshal(usage)
	if err != nil {
		return fmt.Errorf("encoding generation stats: %w", err)
	}
	fmt.Fprintf(p.console, "%s\n\n%s\n", text, stats)

	// The declared output goes last, so a partial failure cannot leave it
	// registered on a run that exits non-zero.
	if err := p.output.Set(ctx, cfg.OutputKey+"_stats", string(stats)); err != nil {
		return err
	}
	if err := p.output.Set(ctx, cfg.OutputKey, text); err != nil {
		return err
	}
	log.With("output", cfg.OutputKey).With("bytes", len(text)).Info("Pull request description ready")
	return nil
}

// resolveCompareArguments asks the function-calling model for the compare
// invocation, falling back to arguments derived from the contract when the
// model cannot produce a valid call.
func (p *Pipeline) resolveCompareArguments(ctx context.Context, openAPIDoc, schemaDoc string) (funcall.Arguments, error) {
	cfg := p.cfg

	chat, err := openaiexec.New(cfg.OpenAIAPIKey,
		openaiexec.WithModel(cfg.FunctionCallingModel),
		openaiexec.WithBaseURL(cfg.OpenAIBaseURL),
		openaiexec.WithStage(metrics.StageFunctionCalling),
	)
	if err != nil {
		return funcall.Arguments{}, fmt.Errorf("building function-calling executor: %w", err)
	}
	resolver, err := funcall.NewResolver(chat, openAPIDoc, schemaDoc)
	if err != nil {
		return funcall.Arguments{}, fmt.Errorf("building compare resolver: %w", err)
	}

	prompt, err := p.comparePrompt()
	if err != nil {
		return funcall.Arguments{}, err
	}
	args, err := resolver.Resolve(ctx, prompt)
	if err != nil {
		clog.FromContext(ctx).With("error", err).Warn("Function calling failed, deriving compare arguments locally")
		args, err = resolver.Fallback(cfg.Repository, cfg.BaseRef, cfg.HeadRef)
		if err != nil {
			return funcall.Arguments{}, fmt.Errorf("deriving compare arguments: %w", err)
		}
	}
	return args, nil
}

// comparePrompt returns the function-calling prompt. The manifest renders it
// for workflow runs; local runs rebuild the same string from the refs so both
// paths stay deterministic.
func (p *Pipeline) comparePrompt() (string, error) {
	if p.cfg.FunctionCallingPrompt != "" {
		return p.cfg.FunctionCallingPrompt, nil
	}
	prompt, err := promptbuilder.NewPrompt("Compare branches {{base}} and {{head}}, in GitHub repository {{repository}}.")
	if err != nil {
		return "", err
	}
	if prompt, err = prompt.BindText("base", p.cfg.BaseRef); err != nil {
		return "", err
	}
	if prompt, err = prompt.BindText("head", p.cfg.HeadRef); err != nil {
		return "", err
	}
	if prompt, err = prompt.BindText("repository", p.cfg.Repository); err != nil {
		return "", err
	}
	return prompt.Build()
}

// generate produces the pull request text from the diff subtree, with the
// custom instruction as a trailing user message when present.
func (p *Pipeline) generate(ctx context.Context, systemPrompt string, subtree any, instruction string) (string, *openaiexec.Usage, error) {
	cfg := p.cfg

	gen, err := openaiexec.New(cfg.OpenAIAPIKey,
		openaiexec.WithModel(cfg.GenerationModel),
		openaiexec.WithBaseURL(cfg.OpenAIBaseURL),
		openaiexec.WithStage(metrics.StageGeneration),
	)
	if err != nil {
		return "", nil, fmt.Errorf("building generation executor: %w", err)
	}

	diffPrompt, err := promptbuilder.NewPrompt("{{diff}}")
	if err != nil {
		return "", nil, err
	}
	if diffPrompt, err = diffPrompt.BindJSON("diff", subtree); err != nil {
		return "", nil, err
	}
	diff, err := diffPrompt.Build()
	if err != nil {
		return "", nil, err
	}

	msgs := []openaiexec.Message{
		openaiexec.System(systemPrompt),
		openaiexec.User(diff),
	}
	if instruction != "" {
		msgs = append(msgs, openaiexec.User(instruction))
	}

	reply, err := gen.Complete(ctx, msgs)
	if err != nil {
		return "", nil, fmt.Errorf("generating description: %w", err)
	}
	return reply.Content, &reply.Usage, nil
}
