/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package openaiexec

import (
	"errors"
	"fmt"

	"chainguard.dev/prscribe/pipeline/metrics"
	"chainguard.dev/prscribe/pipeline/retry"
)

// Option configures an Executor.
type Option func(*Executor) error

// WithModel overrides the model completions are sent to.
func WithModel(model string) Option {
	return func(e *Executor) error {
		if model == "" {
			return errors.New("model cannot be empty")
		}
		e.model = model
		return nil
	}
}

// WithBaseURL points the client at a different API endpoint, such as a proxy
// or an OpenAI-compatible server.
func WithBaseURL(url string) Option {
	return func(e *Executor) error {
		if url == "" {
			return errors.New("base URL cannot be empty")
		}
		e.baseURL = url
		return nil
	}
}

// WithMaxTokens bounds the completion length.
func WithMaxTokens(tokens int64) Option {
	return func(e *Executor) error {
		if tokens <= 0 {
			return fmt.Errorf("max tokens must be positive, got %d", tokens)
		}
		e.maxTokens = tokens
		return nil
	}
}

// WithTemperature sets the sampling temperature. OpenAI models accept values
// from 0.0 to 2.0; lower values keep descriptions consistent between runs.
func WithTemperature(temp float64) Option {
	return func(e *Executor) error {
		if temp < 0.0 || temp > 2.0 {
			return fmt.Errorf("temperature must be between 0.0 and 2.0, got %f", temp)
		}
		e.temperature = &temp
		return nil
	}
}

// WithRetryConfig replaces the default backoff configuration.
func WithRetryConfig(cfg retry.Config) Option {
	return func(e *Executor) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		e.retryConfig = cfg
		return nil
	}
}

// WithStage labels this executor's metrics with the pipeline stage that owns
// the calls.
func WithStage(stage metrics.Stage) Option {
	return func(e *Executor) error {
		if stage == "" {
			return errors.New("stage cannot be empty")
		}
		e.stage = stage
		return nil
	}
}
