package llm

// BuildMenuJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. The structured response is validated against it before the
// repository sees the document; types are strict, field presence is not.
// The repository owns the "Unknown" defaults.
func BuildMenuJSONSchema() map[string]any {
	item := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":        map[string]any{"type": "string"},
			"description": map[string]any{"type": []any{"string", "null"}},
			// prices should be numbers, but the model occasionally emits
			// "9.50"; both parse, non-positive values are coerced later
			"price":                  map[string]any{"type": []any{"number", "string"}},
			"dietary_restriction_id": map[string]any{"type": "integer"},
		},
	}
	section := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"section_name": map[string]any{"type": "string"},
			"items": map[string]any{
				"type":  "array",
				"items": item,
			},
		},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"restaurant": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":     map[string]any{"type": "string"},
					"location": map[string]any{"type": "string"},
				},
			},
			"menu_sections": map[string]any{
				"type":  "array",
				"items": section,
			},
		},
		"required": []any{"menu_sections"},
	}
}
