/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package result pulls structured payloads out of free-form model replies.
package result

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON returns the JSON payload of a model reply that may wrap it in
// markdown fences. A ```json block on its own lines wins; otherwise wrapping
// fences are stripped and the trimmed reply is returned as-is.
func ExtractJSON(reply string) string {
	var block []string
	inBlock := false
	sc := bufio.NewScanner(strings.NewReader(reply))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case !inBlock && strings.TrimSpace(line) == "```json":
			inBlock = true
		case inBlock && strings.TrimSpace(line) == "```":
			return strings.TrimSpace(strings.Join(block, "\n"))
		case inBlock:
			block = append(block, line)
		}
	}
	if inBlock {
		// Unterminated fence; take what was collected.
		return strings.TrimSpace(strings.Join(block, "\n"))
	}

	reply = strings.TrimSpace(reply)
	if after, ok := strings.CutPrefix(reply, "```json"); ok {
		reply = after
	} else {
		reply = strings.TrimPrefix(reply, "```")
	}
	reply = strings.TrimSuffix(reply, "```")
	return strings.TrimSpace(reply)
}

// Extract unmarshals the JSON payload of a model reply into T.
func Extract[T any](reply string) (T, error) {
	var out T
	if err := json.Unmarshal([]byte(ExtractJSON(reply)), &out); err != nil {
		return out, fmt.Errorf("unmarshaling model reply: %w", err)
	}
	return out, nil
}
