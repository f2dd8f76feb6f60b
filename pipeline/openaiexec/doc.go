/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package openaiexec issues chat completions against OpenAI-compatible APIs.
//
// An Executor is bound to one model and handles the concerns every call
// shares: message conversion, function tool definitions, jittered retry on
// rate limits and transient server errors, token-usage metrics, and logging.
// The pipeline runs two of them, one per stage:
//
//	fc, err := openaiexec.New(apiKey,
//	    openaiexec.WithModel("gpt-3.5-turbo"),
//	    openaiexec.WithBaseURL(baseURL),
//	    openaiexec.WithStage(metrics.StageFunctionCalling),
//	)
//	if err != nil {
//	    return err
//	}
//	reply, err := fc.Complete(ctx, []openaiexec.Message{openaiexec.User(prompt)}, compareTool)
//
// Replies carry the first choice's text, any tool calls, the finish reason,
// and token usage, so callers never touch SDK response types.
package openaiexec
