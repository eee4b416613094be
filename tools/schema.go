package tools

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// ptr returns a pointer to v, for optional schema keywords.
func ptr[T any](v T) *T {
	return &v
}

// topicLimitSchema is the argument schema shared by the source tools:
// a non-empty topic and a result count bounded to [1, maxLimit].
func topicLimitSchema(subject string, maxLimit int) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"topic": {
				Type:        "string",
				Description: "The topic to search for",
				MinLength:   ptr(1),
			},
			"limit": {
				Type:        "integer",
				Description: fmt.Sprintf("Number of %s to fetch (1-%d)", subject, maxLimit),
				Minimum:     ptr(1.0),
				Maximum:     ptr(float64(maxLimit)),
			},
		},
		Required: []string{"topic", "limit"},
	}
}

// schemaParameters renders a schema as the generic map handed to providers.
func schemaParameters(s *jsonschema.Schema) (map[string]interface{}, error) {
	if s == nil {
		return map[string]interface{}{"type": "object"}, nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	var params map[string]interface{}
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	return params, nil
}

// validateArguments checks decoded arguments against a resolved schema.
func validateArguments(resolved *jsonschema.Resolved, args json.RawMessage) error {
	if resolved == nil {
		return nil
	}
	var instance map[string]interface{}
	if err := json.Unmarshal(args, &instance); err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}
	if err := resolved.Validate(instance); err != nil {
		return err
	}
	return nil
}
