/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package metrics records OpenTelemetry counters for the pipeline's model
// calls. Counter creation degrades to no-ops on failure so that metrics can
// never take down a PR description run.
package metrics

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Stage labels which pipeline step issued a model call.
type Stage string

const (
	// StageFunctionCalling is the tool-call resolution step.
	StageFunctionCalling Stage = "function_calling"
	// StageGeneration is the PR text generation step.
	StageGeneration Stage = "generation"
)

// GenAI holds token and tool-call counters shared by both model calls. The
// model name and pipeline stage are recorded as attributes rather than baked
// into separate instruments.
type GenAI struct {
	promptTokens     metric.Int64Counter
	completionTokens metric.Int64Counter
	toolCalls        metric.Int64Counter
}

// NewGenAI builds the counters on the named meter.
func NewGenAI(meterName string) *GenAI {
	meter := otel.Meter(meterName, metric.WithInstrumentationVersion("1.0.0"))
	return &GenAI{
		promptTokens:     counter(meter, "genai.token.prompt", "The number of prompt tokens used", "{tokens}"),
		completionTokens: counter(meter, "genai.token.completion", "The number of completion tokens used", "{tokens}"),
		toolCalls:        counter(meter, "genai.tool.calls", "The number of tool calls returned by the model", "{calls}"),
	}
}

func counter(meter metric.Meter, name, description, unit string) metric.Int64Counter {
	c, err := meter.Int64Counter(name,
		metric.WithDescription(description),
		metric.WithUnit(unit))
	if err != nil {
		slog.Warn("Failed to create counter, recording disabled", "counter", name, "error", err)
		return noop.Int64Counter{}
	}
	return c
}

// RecordTokens adds one call's token usage under the model and stage.
func (m *GenAI) RecordTokens(ctx context.Context, model string, stage Stage, promptTokens, completionTokens int64) {
	attrs := metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("stage", string(stage)),
	)
	m.promptTokens.Add(ctx, promptTokens, attrs)
	m.completionTokens.Add(ctx, completionTokens, attrs)
}

// RecordToolCall counts one tool invocation returned by the model.
func (m *GenAI) RecordToolCall(ctx context.Context, model string, stage Stage, toolName string) {
	m.toolCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("stage", string(stage)),
		attribute.String("tool", toolName),
	))
}
