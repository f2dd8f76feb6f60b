/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// Defaults mirrored from the action manifest.
const (
	DefaultBaseURL              = "https://api.openai.com/v1"
	DefaultGenerationModel      = "gpt-4o"
	DefaultFunctionCallingModel = "gpt-3.5-turbo"
	DefaultBotName              = "pr-auto-bot"
	DefaultResponseSubtree      = "files"
	DefaultOutputKey            = "pr-text"
)

// Config is the container's environment contract, the same variables the
// action manifest renders for a workflow run.
type Config struct {
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL,default=https://api.openai.com/v1"`

	Repository string `env:"GITHUB_REPOSITORY"`
	BaseRef    string `env:"BASE_REF"`
	HeadRef    string `env:"HEAD_REF"`

	GenerationModel      string `env:"TEXT_GENERATION_MODEL,default=gpt-4o"`
	FunctionCallingModel string `env:"FUNCTION_CALLING_MODEL,default=gpt-3.5-turbo"`

	SystemPrompt          string `env:"SYSTEM_PROMPT"`
	UserPrompt            string `env:"USER_PROMPT"`
	FunctionCallingPrompt string `env:"FUNCTION_CALLING_PROMPT"`
	ValidationSchema      string `env:"FUNCTION_CALLING_VALIDATION_SCHEMA"`
	BotName               string `env:"BOT_NAME,default=pr-auto-bot"`

	ServiceSpec     string `env:"OPENAPI_SERVICE_SPEC"`
	ServiceToken    string `env:"OPENAPI_SERVICE_TOKEN"`
	ResponseSubtree string `env:"SERVICE_RESPONSE_SUBTREE,default=files"`
	OutputKey       string `env:"OUTPUT_KEY,default=pr-text"`

	// Attribution is appended to the generated text as a trailing paragraph
	// when set.
	Attribution string `env:"ATTRIBUTION_MESSAGE"`
	// GitHubAPIURL points the compare client at a GitHub Enterprise host.
	// The Actions runner sets it on every run.
	GitHubAPIURL string `env:"GITHUB_API_URL"`
}

// LoadConfig reads the environment contract, applies the positional-argument
// override, and validates the result.
func LoadConfig(ctx context.Context, args []string) (*Config, error) {
	return loadConfig(ctx, envconfig.OsLookuper(), args)
}

func loadConfig(ctx context.Context, lookuper envconfig.Lookuper, args []string) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}
	if err := cfg.ApplyArgs(args); err != nil {
		return nil, err
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyArgs applies the smoke-test calling convention: three positional
// arguments override GITHUB_REPOSITORY, BASE_REF and HEAD_REF, in that order.
func (c *Config) ApplyArgs(args []string) error {
	switch len(args) {
	case 0:
		return nil
	case 3:
		c.Repository, c.BaseRef, c.HeadRef = args[0], args[1], args[2]
		return nil
	default:
		return fmt.Errorf("expected no arguments or exactly three (repository, base ref, head ref), got %d", len(args))
	}
}

// Workflow runs render every variable, so an omitted input arrives as a set
// but empty variable; tag defaults only cover genuinely unset ones.
func (c *Config) normalize() {
	if c.OpenAIBaseURL == "" {
		c.OpenAIBaseURL = DefaultBaseURL
	}
	if c.GenerationModel == "" {
		c.GenerationModel = DefaultGenerationModel
	}
	if c.FunctionCallingModel == "" {
		c.FunctionCallingModel = DefaultFunctionCallingModel
	}
	if c.BotName == "" {
		c.BotName = DefaultBotName
	}
	if c.ResponseSubtree == "" {
		c.ResponseSubtree = DefaultResponseSubtree
	}
	if c.OutputKey == "" {
		c.OutputKey = DefaultOutputKey
	}
}

// Validate reports the first missing piece of the contract.
func (c *Config) Validate() error {
	if c.OpenAIAPIKey == "" {
		return errors.New("OPENAI_API_KEY must be set")
	}
	if c.ServiceToken == "" {
		return errors.New("OPENAPI_SERVICE_TOKEN must be set")
	}
	if c.Repository == "" || c.BaseRef == "" || c.HeadRef == "" {
		return errors.New("GITHUB_REPOSITORY, BASE_REF and HEAD_REF must be set, by environment or by positional arguments")
	}
	return nil
}
