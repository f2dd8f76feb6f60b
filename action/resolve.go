/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package action

import (
	"errors"
	"fmt"
	"strings"
)

// Ambient carries the workflow-run values the platform interpolates into
// ${{ github.* }} expressions.
type Ambient struct {
	Token      string // ${{ github.token }}
	Repository string // ${{ github.repository }}
	BaseRef    string // ${{ github.base_ref }}
	HeadRef    string // ${{ github.head_ref }}
}

func (a Ambient) resolve(expr string) (string, bool) {
	switch expr {
	case "github.token":
		return a.Token, true
	case "github.repository":
		return a.Repository, true
	case "github.base_ref":
		return a.BaseRef, true
	case "github.head_ref":
		return a.HeadRef, true
	}
	return "", false
}

// ResolveInputs binds a value to every declared input: the provided value
// when present, the declared default otherwise, with ${{ github.* }}
// defaults filled from the ambient context. A required input resolving to
// the empty string is an error.
func (m *Manifest) ResolveInputs(provided map[string]string, ambient Ambient) (map[string]string, error) {
	for name := range provided {
		if _, ok := m.Inputs[name]; !ok {
			return nil, fmt.Errorf("unknown input %q", name)
		}
	}

	out := make(map[string]string, len(m.Inputs))
	for name, in := range m.Inputs {
		value, ok := provided[name]
		if !ok {
			var err error
			value, err = expand(in.Default, func(expr string) (string, error) {
				if v, ok := ambient.resolve(expr); ok {
					return v, nil
				}
				return "", fmt.Errorf("unsupported expression %q in default of input %q", expr, name)
			})
			if err != nil {
				return nil, err
			}
		}
		if in.Required && value == "" {
			return nil, fmt.Errorf("required input %q is empty", name)
		}
		out[name] = value
	}
	return out, nil
}

// Environment renders the container environment from resolved inputs,
// expanding the ${{ inputs.* }} and ${{ github.* }} expressions in the
// manifest's env templates.
func (m *Manifest) Environment(inputs map[string]string, ambient Ambient) (map[string]string, error) {
	env := make(map[string]string, len(m.Runs.Env))
	for key, tmpl := range m.Runs.Env {
		v, err := expand(tmpl, func(expr string) (string, error) {
			if name, ok := strings.CutPrefix(expr, "inputs."); ok {
				if _, declared := m.Inputs[name]; !declared {
					return "", fmt.Errorf("env %s references undeclared input %q", key, name)
				}
				return inputs[name], nil
			}
			if v, ok := ambient.resolve(expr); ok {
				return v, nil
			}
			return "", fmt.Errorf("unsupported expression %q in env %s", expr, key)
		})
		if err != nil {
			return nil, err
		}
		env[key] = v
	}
	return env, nil
}

// expand substitutes every ${{ expression }} in s using resolve.
func expand(s string, resolve func(expr string) (string, error)) (string, error) {
	var b strings.Builder
	for {
		before, rest, found := strings.Cut(s, "${{")
		b.WriteString(before)
		if !found {
			return b.String(), nil
		}
		expr, after, found := strings.Cut(rest, "}}")
		if !found {
			return "", errors.New("unclosed ${{ expression")
		}
		v, err := resolve(strings.TrimSpace(expr))
		if err != nil {
			return "", err
		}
		b.WriteString(v)
		s = after
	}
}
