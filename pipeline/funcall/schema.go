/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package funcall

import (
	"encoding/json"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"unicode/utf8"
)

// Schema models the subset of JSON Schema the argument validation asset
// uses: an object with required string properties constrained by minLength
// and pattern. Anything outside that subset is rejected up front rather than
// silently ignored.
type Schema struct {
	Type                 string             `json:"type"`
	Properties           map[string]*Schema `json:"properties"`
	Required             []string           `json:"required"`
	Pattern              string             `json:"pattern"`
	MinLength            *int               `json:"minLength"`
	AdditionalProperties *bool              `json:"additionalProperties"`

	patterns map[string]*regexp.Regexp
}

// ParseSchema reads a validation schema document.
func ParseSchema(doc string) (*Schema, error) {
	var s Schema
	if err := json.Unmarshal([]byte(doc), &s); err != nil {
		return nil, fmt.Errorf("parsing validation schema: %w", err)
	}
	if s.Type != "object" {
		return nil, fmt.Errorf("validation schema root must have type object, got %q", s.Type)
	}
	s.patterns = make(map[string]*regexp.Regexp)
	for _, name := range slices.Sorted(maps.Keys(s.Properties)) {
		prop := s.Properties[name]
		if prop.Type != "string" {
			return nil, fmt.Errorf("property %q: unsupported type %q", name, prop.Type)
		}
		if prop.Pattern != "" {
			re, err := regexp.Compile(prop.Pattern)
			if err != nil {
				return nil, fmt.Errorf("property %q: compiling pattern: %w", name, err)
			}
			s.patterns[name] = re
		}
	}
	return &s, nil
}

// Validate checks one argument set against the schema.
func (s *Schema) Validate(args map[string]any) error {
	for _, name := range s.Required {
		if _, ok := args[name]; !ok {
			return fmt.Errorf("missing required argument %q", name)
		}
	}
	if s.AdditionalProperties != nil && !*s.AdditionalProperties {
		for _, name := range slices.Sorted(maps.Keys(args)) {
			if _, ok := s.Properties[name]; !ok {
				return fmt.Errorf("unexpected argument %q", name)
			}
		}
	}
	for _, name := range slices.Sorted(maps.Keys(s.Properties)) {
		value, ok := args[name]
		if !ok {
			continue
		}
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("argument %q must be a string, got %T", name, value)
		}
		prop := s.Properties[name]
		if prop.MinLength != nil && utf8.RuneCountInString(str) < *prop.MinLength {
			return fmt.Errorf("argument %q is shorter than %d characters", name, *prop.MinLength)
		}
		if re, ok := s.patterns[name]; ok && !re.MatchString(str) {
			return fmt.Errorf("argument %q = %q does not match %q", name, str, prop.Pattern)
		}
	}
	return nil
}
