package pedagogy

// Schema is the JSON schema for section explanation output. Question ids
// may be numbers or strings; inquiryQuestion is optional.
var Schema = map[string]any{
	"type": "json_schema",
	"json_schema": map[string]any{
		"name":   "pedagogical_section",
		"strict": false,
		"schema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"inquiryQuestion": map[string]any{
					"type":        "string",
					"description": "Optional inquiry question or problem statement the section helps answer",
				},
				"explanation": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"introduction": map[string]any{
							"type":        "string",
							"description": "One or two sentences orienting the learner",
						},
						"coreConcepts": map[string]any{
							"type":        "string",
							"minLength":   1,
							"description": "Main explanation of the section's ideas",
						},
					},
					"required": []string{"coreConcepts"},
				},
				"scaffoldedQuiz": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"questions": map[string]any{
							"type":     "array",
							"minItems": 1,
							"maxItems": 4,
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"id": map[string]any{
										"type": []string{"string", "integer"},
									},
									"text": map[string]any{
										"type":      "string",
										"minLength": 1,
									},
									"options": map[string]any{
										"type":     "array",
										"minItems": 1,
										"maxItems": 4,
										"items":    map[string]any{"type": "string"},
									},
									"answer": map[string]any{
										"type":      "string",
										"minLength": 1,
									},
								},
								"required": []string{"text", "options", "answer"},
							},
						},
					},
					"required": []string{"questions"},
				},
			},
			"required": []string{"explanation", "scaffoldedQuiz"},
		},
	},
}

// JSONSchema returns the {"name","strict","schema"} wrapper of Schema.
func JSONSchema() map[string]any {
	return Schema["json_schema"].(map[string]any)
}
