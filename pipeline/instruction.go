/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import "regexp"

var skipWord = regexp.MustCompile(`(?i)\bskip\b`)

// ExtractCustomInstruction returns the text following the first
// "@<botName>" mention in the user prompt, up to the end of that line.
// It returns "" when there is no mention.
func ExtractCustomInstruction(botName, userPrompt string) string {
	if botName == "" || userPrompt == "" {
		return ""
	}
	re := regexp.MustCompile(`@` + regexp.QuoteMeta(botName) + `\s+(.*)`)
	m := re.FindStringSubmatch(userPrompt)
	if m == nil {
		return ""
	}
	return m[1]
}

// ContainsSkip reports whether the instruction asks to skip generation.
func ContainsSkip(instruction string) bool {
	return skipWord.MatchString(instruction)
}
