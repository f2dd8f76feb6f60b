/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

import (
	"encoding/json"
	"fmt"
	"maps"

	"gopkg.in/yaml.v3"
)

// literal only accepts untyped string constants, so templates and literal
// bindings are guaranteed to come from the developer, not from runtime data.
type literal string

// binding renders the value substituted for one placeholder. A nil binding
// means the placeholder has not been bound yet.
type binding func() (string, error)

// Prompt is an immutable template with {{name}} placeholders. Binding methods
// return a new Prompt, leaving the receiver untouched.
type Prompt struct {
	template string
	bindings map[string]binding
}

// NewPrompt parses a template literal and registers its placeholders.
func NewPrompt(template literal) (*Prompt, error) {
	bindings := make(map[string]binding)
	tmpl, err := expand(string(template), func(name string) (string, error) {
		bindings[name] = nil
		return "{{" + name + "}}", nil
	})
	if err != nil {
		return nil, err
	}
	return &Prompt{template: tmpl, bindings: bindings}, nil
}

// MustNewPrompt is NewPrompt for package-level templates known to be valid.
func MustNewPrompt(template literal) *Prompt {
	p, err := NewPrompt(template)
	if err != nil {
		panic(err)
	}
	return p
}

// Placeholders returns the set of placeholder names found in the template.
func (p *Prompt) Placeholders() map[string]struct{} {
	names := make(map[string]struct{}, len(p.bindings))
	for name := range p.bindings {
		names[name] = struct{}{}
	}
	return names
}

// BindLiteral binds a developer-provided string constant.
func (p *Prompt) BindLiteral(name string, value literal) (*Prompt, error) {
	return p.bind(name, func() (string, error) { return string(value), nil })
}

// BindText binds a runtime string verbatim. The value is substituted as-is
// and is never re-scanned for placeholders, so a {{...}} inside it stays
// inert text. Reserve this for short, trusted values such as branch and
// repository names; route untrusted structured data through BindJSON.
func (p *Prompt) BindText(name, value string) (*Prompt, error) {
	return p.bind(name, func() (string, error) { return value, nil })
}

// BindJSON binds arbitrary data marshaled as compact JSON. Compact output
// keeps large payloads such as branch diffs from wasting model context.
func (p *Prompt) BindJSON(name string, data any) (*Prompt, error) {
	return p.bind(name, func() (string, error) {
		b, err := json.Marshal(data)
		if err != nil {
			return "", fmt.Errorf("marshaling binding %q: %w", name, err)
		}
		return string(b), nil
	})
}

// BindYAML binds arbitrary data marshaled as YAML, for prompts whose
// surrounding text reads better with indented structure than with JSON.
func (p *Prompt) BindYAML(name string, data any) (*Prompt, error) {
	return p.bind(name, func() (string, error) {
		b, err := yaml.Marshal(data)
		if err != nil {
			return "", fmt.Errorf("marshaling binding %q: %w", name, err)
		}
		return string(b), nil
	})
}

func (p *Prompt) bind(name string, b binding) (*Prompt, error) {
	existing, ok := p.bindings[name]
	if !ok {
		return nil, fmt.Errorf("placeholder %q not found in template", name)
	}
	if existing != nil {
		return nil, fmt.Errorf("placeholder %q already bound", name)
	}
	next := &Prompt{template: p.template, bindings: maps.Clone(p.bindings)}
	next.bindings[name] = b
	return next, nil
}

// Build renders the prompt, failing if any placeholder is still unbound.
// Substituted values are inserted in a single pass and never re-expanded.
func (p *Prompt) Build() (string, error) {
	values := make(map[string]string, len(p.bindings))
	for name, b := range p.bindings {
		if b == nil {
			return "", fmt.Errorf("unbound placeholder: %s", name)
		}
		val, err := b()
		if err != nil {
			return "", err
		}
		values[name] = val
	}
	return expand(p.template, func(name string) (string, error) {
		val, ok := values[name]
		if !ok {
			return "", fmt.Errorf("internal error: no value for placeholder %q", name)
		}
		return val, nil
	})
}
