/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package action models the GitHub Action manifest this repository ships.
//
// The manifest is the action's public contract: declared inputs with their
// defaults, the pr-text output, and the environment variables rendered for
// the container run. Modeling it as a first-class artifact lets the contract
// be enforced by tests instead of by convention.
package action

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is a parsed action.yml.
type Manifest struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Author      string            `yaml:"author"`
	Inputs      map[string]Input  `yaml:"inputs"`
	Outputs     map[string]Output `yaml:"outputs"`
	Runs        Runs              `yaml:"runs"`
	Branding    Branding          `yaml:"branding"`
}

// Input is one declared action input.
type Input struct {
	Description string `yaml:"description"`
	Required    bool   `yaml:"required"`
	Default     string `yaml:"default"`
}

// Output is one declared action output.
type Output struct {
	Description string `yaml:"description"`
}

// Runs is the docker execution stanza, including the env templates rendered
// for the container.
type Runs struct {
	Using string            `yaml:"using"`
	Image string            `yaml:"image"`
	Env   map[string]string `yaml:"env"`
}

// Branding is the marketplace appearance stanza.
type Branding struct {
	Icon  string `yaml:"icon"`
	Color string `yaml:"color"`
}

// Load reads and parses a manifest file.
func Load(path string) (*Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return Parse(b)
}

// Parse parses manifest bytes.
func Parse(b []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if m.Name == "" {
		return nil, errors.New("manifest has no name")
	}
	if m.Runs.Using != "docker" {
		return nil, fmt.Errorf("unsupported runs.using %q", m.Runs.Using)
	}
	return &m, nil
}
