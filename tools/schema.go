package tools

// JSON Schema construction helpers for tool input schemas.

// ObjectSchema builds an object schema from its properties, optionally
// naming required fields.
func ObjectSchema(properties map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// StringProperty builds a string property.
func StringProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

// StringEnumProperty builds a string property restricted to the given
// values.
func StringEnumProperty(description string, values ...string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
		"enum":        values,
	}
}

// NumberProperty builds a number property.
func NumberProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"description": description,
	}
}

// IntegerProperty builds an integer property.
func IntegerProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
	}
}

// WithThought returns a copy of the schema extended with the ReAct
// "thought" property. When requireThought is true the field is added to
// the schema's required list, which is how confirmation-gated tools
// force the agent to state its reasoning.
func WithThought(schema map[string]interface{}, requireThought bool) map[string]interface{} {
	result := make(map[string]interface{}, len(schema)+1)
	for k, v := range schema {
		result[k] = v
	}

	// The nested properties map is copied as well, not aliased.
	props := make(map[string]interface{})
	if orig, ok := schema["properties"].(map[string]interface{}); ok {
		for k, v := range orig {
			props[k] = v
		}
	}
	result["properties"] = props
	props["thought"] = StringProperty(
		"Your reasoning about why you're using this tool and what you expect to accomplish. " +
			"For write operations, explain your decision-making process.",
	)

	if requireThought {
		required, ok := result["required"].([]string)
		if !ok {
			required = []string{}
		}
		result["required"] = append(required, "thought")
	}

	return result
}

// BuildSchemaWithThought builds an object schema and adds the thought
// property in one call.
func BuildSchemaWithThought(properties map[string]interface{}, requireThought bool, required ...string) map[string]interface{} {
	return WithThought(ObjectSchema(properties, required...), requireThought)
}
