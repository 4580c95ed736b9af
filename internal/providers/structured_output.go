package providers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// schemaFormat is a response format after provider-specific adaptation.
type schemaFormat struct {
	Type       string
	JSONSchema json.RawMessage
}

// adaptedResponseFormat returns a provider-compatible response format while
// preserving the original canonical schema for local validation.
func adaptedResponseFormat(model string, rf *ResponseFormat) (*schemaFormat, error) {
	if rf == nil {
		return nil, nil
	}
	// OpenRouter may route anthropic/* models to non-Anthropic backends,
	// where native structured output options are rejected.
	// Use prompt + local validation for anthropic models instead.
	if isAnthropicModel(model) {
		return nil, nil
	}

	adaptedSchema := rf.JSONSchema
	if len(adaptedSchema) > 0 {
		var err error
		adaptedSchema, err = sanitizeStructuredSchemaForModel(model, adaptedSchema)
		if err != nil {
			return nil, err
		}
	}

	return &schemaFormat{
		Type:       rf.Type,
		JSONSchema: adaptedSchema,
	}, nil
}

// sanitizeStructuredSchemaForModel applies provider/model-specific schema
// compatibility shims. Current: Anthropic via OpenRouter rejects integer
// minimum/maximum bounds in output schemas.
func sanitizeStructuredSchemaForModel(model string, schemaRaw json.RawMessage) (json.RawMessage, error) {
	if len(schemaRaw) == 0 {
		return schemaRaw, nil
	}
	if !isAnthropicModel(model) {
		return schemaRaw, nil
	}

	var root any
	if err := json.Unmarshal(schemaRaw, &root); err != nil {
		return nil, fmt.Errorf("failed to parse structured schema: %w", err)
	}

	stripIntegerBounds(root)

	sanitized, err := json.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize sanitized structured schema: %w", err)
	}
	return sanitized, nil
}

func isAnthropicModel(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "anthropic/")
}

func stripIntegerBounds(node any) {
	switch n := node.(type) {
	case map[string]any:
		if schemaTypeIncludesInteger(n["type"]) {
			delete(n, "minimum")
			delete(n, "maximum")
			delete(n, "exclusiveMinimum")
			delete(n, "exclusiveMaximum")
		}
		for _, v := range n {
			stripIntegerBounds(v)
		}
	case []any:
		for _, v := range n {
			stripIntegerBounds(v)
		}
	}
}

func schemaTypeIncludesInteger(typeVal any) bool {
	switch t := typeVal.(type) {
	case string:
		return t == "integer"
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && s == "integer" {
				return true
			}
		}
	}
	return false
}

// ExtractJSONObject returns the text between the first '{' and the last '}'
// of model output, or false when there is no such span.
func ExtractJSONObject(content string) (string, bool) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return "", false
	}
	return content[start : end+1], true
}

// CompileSchema compiles a response-format schema for repeated validation.
// Wrapped forms ({"schema":...} and {"json_schema":{"schema":...}}) are
// unwrapped first.
func CompileSchema(schemaRaw json.RawMessage) (*jsonschema.Schema, error) {
	coreSchema, err := extractValidationSchema(schemaRaw)
	if err != nil {
		return nil, err
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(coreSchema)); err != nil {
		return nil, fmt.Errorf("failed to load structured schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile structured schema: %w", err)
	}
	return schema, nil
}

// ValidateAgainst validates parsed JSON against a compiled schema.
func ValidateAgainst(schema *jsonschema.Schema, parsed json.RawMessage) error {
	var doc any
	if err := json.Unmarshal(parsed, &doc); err != nil {
		return fmt.Errorf("failed to decode structured JSON for validation: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("structured output does not match schema: %w", err)
	}
	return nil
}

func extractValidationSchema(schemaRaw json.RawMessage) (json.RawMessage, error) {
	var root any
	if err := json.Unmarshal(schemaRaw, &root); err != nil {
		return nil, fmt.Errorf("invalid structured schema JSON: %w", err)
	}

	if rootMap, ok := root.(map[string]any); ok {
		// Common OpenAI/OpenRouter wrapper: {"name","strict","schema":{...}}
		if inner, ok := rootMap["schema"]; ok {
			b, err := json.Marshal(inner)
			if err != nil {
				return nil, fmt.Errorf("failed to serialize inner schema: %w", err)
			}
			return b, nil
		}
		// Alternate wrapper: {"type":"json_schema","json_schema":{"schema":...}}
		if rawInner, ok := rootMap["json_schema"]; ok {
			if innerMap, ok := rawInner.(map[string]any); ok {
				if innerSchema, ok := innerMap["schema"]; ok {
					b, err := json.Marshal(innerSchema)
					if err != nil {
						return nil, fmt.Errorf("failed to serialize json_schema.schema: %w", err)
					}
					return b, nil
				}
			}
		}
	}

	// Assume raw schema document.
	return schemaRaw, nil
}
