/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package openaiexec

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"

	"chainguard.dev/prscribe/pipeline/metrics"
	"chainguard.dev/prscribe/pipeline/retry"
)

// Role identifies who a chat message is from.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is one provider-independent chat turn.
type Message struct {
	Role    Role
	Content string
}

// System builds a system message.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// User builds a user message.
func User(content string) Message { return Message{Role: RoleUser, Content: content} }

// Tool describes a function the model may call. Parameters is a JSON schema
// in map form.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall is the model's request to invoke a tool. Arguments is the raw
// JSON string produced by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Usage is the token accounting for one completion.
type Usage struct {
	Model            string `json:"model"`
	PromptTokens     int64  `json:"prompt_tokens"`
	CompletionTokens int64  `json:"completion_tokens"`
	TotalTokens      int64  `json:"total_tokens"`
}

// Reply is the first choice of one completion turn.
type Reply struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
	Usage        Usage
}

// Executor issues chat completions against one model with retry and token
// accounting. It is safe for concurrent use.
type Executor struct {
	client      openai.Client
	model       string
	baseURL     string
	maxTokens   int64
	temperature *float64
	retryConfig retry.Config
	genai       *metrics.GenAI
	stage       metrics.Stage
}

// New builds an Executor for the given API key. SDK-level retries are
// disabled so the retry package stays the single backoff authority.
func New(apiKey string, opts ...Option) (*Executor, error) {
	if apiKey == "" {
		return nil, errors.New("api key cannot be empty")
	}
	e := &Executor{
		model:       "gpt-4o",
		maxTokens:   2560,
		retryConfig: retry.DefaultConfig(),
		genai:       metrics.NewGenAI("chainguard.dev/prscribe"),
		stage:       metrics.StageGeneration,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if e.baseURL != "" {
		// The SDK joins paths onto the base URL, which needs the trailing slash.
		clientOpts = append(clientOpts, option.WithBaseURL(strings.TrimSuffix(e.baseURL, "/")+"/"))
	}
	e.client = openai.NewClient(clientOpts...)
	return e, nil
}

// Model returns the model this executor sends completions to.
func (e *Executor) Model() string { return e.model }

// Complete runs one chat completion turn. Tools, when given, are offered to
// the model as callable functions; any calls come back on the Reply.
func (e *Executor) Complete(ctx context.Context, msgs []Message, tools ...Tool) (*Reply, error) {
	log := clog.FromContext(ctx)

	params := openai.ChatCompletionNewParams{
		Model:     shared.ChatModel(e.model),
		MaxTokens: openai.Int(e.maxTokens),
	}
	if e.temperature != nil {
		params.Temperature = openai.Float(*e.temperature)
	}
	for _, m := range msgs {
		union, err := toParam(m)
		if err != nil {
			return nil, err
		}
		params.Messages = append(params.Messages, union)
	}
	for _, t := range tools {
		params.Tools = append(params.Tools, openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        t.Name,
			Description: openai.String(t.Description),
			Parameters:  shared.FunctionParameters(t.Parameters),
		}))
	}

	log.With("model", e.model).
		With("messages", len(msgs)).
		With("tools", len(tools)).
		Info("Sending chat completion")

	completion, err := retry.Do(ctx, e.retryConfig, "chat_completion", isRetryableOpenAIError, func() (*openai.ChatCompletion, error) {
		return e.client.Chat.Completions.New(ctx, params)
	})
	if err != nil {
		return nil, fmt.Errorf("completing chat with %s: %w", e.model, err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("model %s returned no choices", e.model)
	}

	e.genai.RecordTokens(ctx, e.model, e.stage, completion.Usage.PromptTokens, completion.Usage.CompletionTokens)

	choice := completion.Choices[0]
	reply := &Reply{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Usage: Usage{
			Model:            completion.Model,
			PromptTokens:     completion.Usage.PromptTokens,
			CompletionTokens: completion.Usage.CompletionTokens,
			TotalTokens:      completion.Usage.TotalTokens,
		},
	}
	if reply.Usage.Model == "" {
		reply.Usage.Model = e.model
	}
	for _, tc := range choice.Message.ToolCalls {
		e.genai.RecordToolCall(ctx, e.model, e.stage, tc.Function.Name)
		reply.ToolCalls = append(reply.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	log.With("model", e.model).
		With("finish_reason", reply.FinishReason).
		With("prompt_tokens", reply.Usage.PromptTokens).
		With("completion_tokens", reply.Usage.CompletionTokens).
		With("tool_calls", len(reply.ToolCalls)).
		Info("Chat completion finished")
	return reply, nil
}

func toParam(m Message) (openai.ChatCompletionMessageParamUnion, error) {
	switch m.Role {
	case RoleSystem:
		return openai.SystemMessage(m.Content), nil
	case RoleUser:
		return openai.UserMessage(m.Content), nil
	}
	return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("unsupported message role %q", m.Role)
}
