/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package promptbuilder constructs model prompts from templates with {{name}}
placeholders, in the spirit of SQL prepared statements: the template is fixed
at compile time and dynamic content only enters through explicit bindings.

Templates must be untyped string constants, which keeps runtime data from
ever becoming template text. Placeholder values are substituted in a single
pass and are never re-expanded, so a crafted value containing {{...}} cannot
pull in further substitutions.

Four binding forms cover different value provenances:

  - BindLiteral for developer-written string constants
  - BindText for short trusted runtime values (branch names, repositories)
  - BindJSON for untrusted structured data, encoded compactly
  - BindYAML for structured data where indented output reads better

Prompts are immutable. Every binding returns a new Prompt, and Build fails if
any placeholder is still unbound, so a half-assembled prompt can never reach
a model:

	var compare = promptbuilder.MustNewPrompt(
		`Compare branches {{base}} and {{head}}, in GitHub repository {{repository}}.`)

	p, err := compare.BindText("base", baseRef)
	...
	text, err := p.Build()
*/
package promptbuilder
