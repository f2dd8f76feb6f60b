/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import "testing"

func TestExtractCustomInstruction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		bot    string
		prompt string
		want   string
	}{{
		name:   "plain mention",
		bot:    "pr-auto-bot",
		prompt: "@pr-auto-bot be brief, one sentence per section",
		want:   "be brief, one sentence per section",
	}, {
		name:   "mention mid-text stops at the line end",
		bot:    "pr-auto-bot",
		prompt: "Some PR intro.\n@pr-auto-bot write in German\nUnrelated trailer.",
		want:   "write in German",
	}, {
		name:   "extra whitespace after the mention",
		bot:    "pr-auto-bot",
		prompt: "@pr-auto-bot    keep it short",
		want:   "keep it short",
	}, {
		name:   "bot name with regexp metacharacters",
		bot:    "bot.v2[prod]",
		prompt: "@bot.v2[prod] do the thing",
		want:   "do the thing",
	}, {
		name:   "no mention",
		bot:    "pr-auto-bot",
		prompt: "Just a normal PR description request.",
		want:   "",
	}, {
		name:   "mention without instruction",
		bot:    "pr-auto-bot",
		prompt: "@pr-auto-bot",
		want:   "",
	}, {
		name:   "empty prompt",
		bot:    "pr-auto-bot",
		prompt: "",
		want:   "",
	}, {
		name:   "empty bot name",
		bot:    "",
		prompt: "@ something",
		want:   "",
	}}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ExtractCustomInstruction(tc.bot, tc.prompt); got != tc.want {
				t.Errorf("ExtractCustomInstruction(%q, %q) = %q, want %q", tc.bot, tc.prompt, got, tc.want)
			}
		})
	}
}

func TestContainsSkip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want bool
	}{
		{"skip", true},
		{"please SKIP this one", true},
		{"Skip.", true},
		{"skip\nand more", true},
		{"skipper", false},
		{"skips", false},
		{"ski p", false},
		{"", false},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			t.Parallel()
			if got := ContainsSkip(tc.text); got != tc.want {
				t.Errorf("ContainsSkip(%q) = %t, want %t", tc.text, got, tc.want)
			}
		})
	}
}
