/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package funcall resolves the branch compare invocation through model
// function calling.
//
// The callable surface is not hardcoded: the tool's name and description come
// from the OpenAPI document describing the compare service, while its
// parameter schema is reflected from the Arguments struct. The two are kept
// honest by the validation schema asset, which every resolved argument set
// must pass before it reaches the GitHub client.
//
// Models are unreliable narrators. Resolve accepts a proper tool call or
// arguments JSON pasted into the reply text, and Fallback constructs the
// same arguments deterministically from the workflow refs when the model
// produces neither.
package funcall
