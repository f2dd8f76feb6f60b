/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package funcall

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Service is the callable surface extracted from an OpenAPI document: the
// first operation that carries an operationId.
type Service struct {
	// Name is the operationId, which becomes the tool name.
	Name string
	// Description is the operation description, falling back to its summary.
	Description string
	// Required lists the operation's required parameter names in document
	// order.
	Required []string
}

type operation struct {
	OperationID string `json:"operationId"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Parameters  []struct {
		Name     string `json:"name"`
		Required bool   `json:"required"`
	} `json:"parameters"`
}

// httpMethods are the path item keys that hold operations; path items also
// carry non-operation keys such as "parameters" and "summary".
var httpMethods = []string{"delete", "get", "head", "options", "patch", "post", "put", "trace"}

// ParseService reads the tool-facing subset of an OpenAPI document. Paths
// and methods are scanned in sorted order so the pick is deterministic.
func ParseService(doc string) (*Service, error) {
	var spec struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal([]byte(doc), &spec); err != nil {
		return nil, fmt.Errorf("parsing OpenAPI document: %w", err)
	}

	for _, path := range slices.Sorted(maps.Keys(spec.Paths)) {
		item := spec.Paths[path]
		for _, method := range httpMethods {
			raw, ok := item[method]
			if !ok {
				continue
			}
			var op operation
			if err := json.Unmarshal(raw, &op); err != nil {
				return nil, fmt.Errorf("parsing %s %s: %w", method, path, err)
			}
			if op.OperationID == "" {
				continue
			}
			svc := &Service{Name: op.OperationID, Description: op.Description}
			if svc.Description == "" {
				svc.Description = op.Summary
			}
			for _, p := range op.Parameters {
				if p.Required {
					svc.Required = append(svc.Required, p.Name)
				}
			}
			return svc, nil
		}
	}
	return nil, errors.New("no operation with an operationId in OpenAPI document")
}
