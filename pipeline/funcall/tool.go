/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package funcall

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"

	"chainguard.dev/prscribe/pipeline/openaiexec"
)

// Arguments is the parameter payload of a compare_branches call.
type Arguments struct {
	Owner    string `json:"owner" jsonschema:"required,minLength=1" jsonschema_description:"Repository owner, the account or organization name."`
	Repo     string `json:"repo" jsonschema:"required,minLength=1" jsonschema_description:"Repository name without the owner prefix."`
	Basehead string `json:"basehead" jsonschema:"required,pattern=^.+\\.\\.\\..+$" jsonschema_description:"Base and head refs joined by three dots, e.g. main...feature."`
}

// BaseHead splits the basehead range into its base and head refs.
func (a Arguments) BaseHead() (base, head string, err error) {
	base, head, ok := strings.Cut(a.Basehead, "...")
	if !ok || base == "" || head == "" {
		return "", "", fmt.Errorf("basehead %q is not in base...head form", a.Basehead)
	}
	return base, head, nil
}

// CompareTool derives the callable tool from the OpenAPI service document.
// The name and description are the document's; the parameter schema is
// reflected from Arguments.
func CompareTool(openAPIDoc string) (openaiexec.Tool, error) {
	svc, err := ParseService(openAPIDoc)
	if err != nil {
		return openaiexec.Tool{}, err
	}
	params, err := reflectParameters[Arguments]()
	if err != nil {
		return openaiexec.Tool{}, err
	}
	return openaiexec.Tool{
		Name:        svc.Name,
		Description: svc.Description,
		Parameters:  params,
	}, nil
}

func reflectParameters[T any]() (map[string]any, error) {
	r := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}
	var zero T
	b, err := json.Marshal(r.Reflect(&zero))
	if err != nil {
		return nil, fmt.Errorf("marshaling reflected schema: %w", err)
	}
	var params map[string]any
	if err := json.Unmarshal(b, &params); err != nil {
		return nil, fmt.Errorf("decoding reflected schema: %w", err)
	}
	// Schema identity keys are noise in a tool parameter block.
	delete(params, "$schema")
	delete(params, "$id")
	return params, nil
}
