/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package gitcompare

import (
	"fmt"
	"strings"
)

// Subtree selects a dotted key path from a decoded JSON document. An empty
// path returns the document itself.
func Subtree(doc any, path string) (any, error) {
	if path == "" {
		return doc, nil
	}
	cur := doc
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("selecting %q: %T is not an object", path, cur)
		}
		next, ok := m[key]
		if !ok {
			return nil, fmt.Errorf("selecting %q: key %q not present", path, key)
		}
		cur = next
	}
	return cur, nil
}
