/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package funcall

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/chainguard-dev/clog"

	"chainguard.dev/prscribe/pipeline/openaiexec"
	"chainguard.dev/prscribe/pipeline/result"
)

// Chat is the slice of the executor the resolver needs.
type Chat interface {
	Complete(ctx context.Context, msgs []openaiexec.Message, tools ...openaiexec.Tool) (*openaiexec.Reply, error)
}

// Resolver turns the function-calling prompt into validated compare
// arguments.
type Resolver struct {
	chat   Chat
	tool   openaiexec.Tool
	schema *Schema
}

// NewResolver wires a chat executor with the OpenAPI service document and
// the argument validation schema.
func NewResolver(chat Chat, openAPIDoc, schemaDoc string) (*Resolver, error) {
	if chat == nil {
		return nil, errors.New("chat executor cannot be nil")
	}
	tool, err := CompareTool(openAPIDoc)
	if err != nil {
		return nil, err
	}
	schema, err := ParseSchema(schemaDoc)
	if err != nil {
		return nil, err
	}
	return &Resolver{chat: chat, tool: tool, schema: schema}, nil
}

// Tool returns the derived tool definition.
func (r *Resolver) Tool() openaiexec.Tool { return r.tool }

// Resolve asks the model to turn the prompt into compare arguments. A tool
// call is preferred, but arguments JSON in the reply text is accepted too.
// Whatever comes back must pass the validation schema.
func (r *Resolver) Resolve(ctx context.Context, prompt string) (Arguments, error) {
	reply, err := r.chat.Complete(ctx, []openaiexec.Message{openaiexec.User(prompt)}, r.tool)
	if err != nil {
		return Arguments{}, fmt.Errorf("resolving compare arguments: %w", err)
	}
	raw, err := r.rawArguments(reply)
	if err != nil {
		return Arguments{}, err
	}
	args, err := r.decode(raw)
	if err != nil {
		return Arguments{}, err
	}
	clog.FromContext(ctx).With("tool", r.tool.Name).
		With("owner", args.Owner).
		With("repo", args.Repo).
		With("basehead", args.Basehead).
		Info("Resolved compare arguments")
	return args, nil
}

// Fallback constructs the compare arguments directly from the workflow refs,
// bypassing the model. The result passes through the same validation.
func (r *Resolver) Fallback(repository, base, head string) (Arguments, error) {
	owner, repo, ok := strings.Cut(repository, "/")
	if !ok || owner == "" || repo == "" {
		return Arguments{}, fmt.Errorf("repository %q is not in owner/repo form", repository)
	}
	if base == "" || head == "" {
		return Arguments{}, errors.New("base and head refs must both be set")
	}
	return r.decode(map[string]any{
		"owner":    owner,
		"repo":     repo,
		"basehead": base + "..." + head,
	})
}

func (r *Resolver) rawArguments(reply *openaiexec.Reply) (map[string]any, error) {
	for _, call := range reply.ToolCalls {
		if call.Name != r.tool.Name {
			continue
		}
		var raw map[string]any
		if err := json.Unmarshal([]byte(call.Arguments), &raw); err != nil {
			return nil, fmt.Errorf("parsing %s arguments: %w", call.Name, err)
		}
		return unwrap(raw), nil
	}
	if strings.TrimSpace(reply.Content) == "" {
		return nil, fmt.Errorf("model returned neither a %s call nor content", r.tool.Name)
	}
	raw, err := result.Extract[map[string]any](reply.Content)
	if err != nil {
		return nil, fmt.Errorf("no %s call and reply text is not arguments JSON: %w", r.tool.Name, err)
	}
	return unwrap(raw), nil
}

// unwrap tolerates arguments nested under a lone "parameters" key, a shape
// some models copy from function-calling examples.
func unwrap(raw map[string]any) map[string]any {
	if inner, ok := raw["parameters"].(map[string]any); ok && len(raw) == 1 {
		return inner
	}
	return raw
}

func (r *Resolver) decode(raw map[string]any) (Arguments, error) {
	if err := r.schema.Validate(raw); err != nil {
		return Arguments{}, fmt.Errorf("validating compare arguments: %w", err)
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return Arguments{}, fmt.Errorf("encoding compare arguments: %w", err)
	}
	var args Arguments
	if err := json.Unmarshal(b, &args); err != nil {
		return Arguments{}, fmt.Errorf("decoding compare arguments: %w", err)
	}
	return args, nil
}
