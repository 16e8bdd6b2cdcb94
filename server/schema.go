package server

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const chatRequestSchema = `{
	"type": "object",
	"required": ["messages"],
	"properties": {
		"messages": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["role", "content"],
				"properties": {
					"role": {"type": "string", "enum": ["system", "user", "assistant"]},
					"content": {"type": "string"}
				}
			}
		},
		"user_id": {"type": ["string", "null"]}
	}
}`

type requestValidator struct {
	schema *gojsonschema.Schema
}

func newRequestValidator(schema string) (*requestValidator, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile request schema: %w", err)
	}
	return &requestValidator{schema: compiled}, nil
}

// validate returns an error for a document that is not JSON and the list of schema
// violations otherwise.
func (v *requestValidator) validate(body []byte) ([]string, error) {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, err
	}
	if result.Valid() {
		return nil, nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return violations, nil
}

func joinViolations(violations []string) string {
	return "invalid request: " + strings.Join(violations, "; ")
}
