package tool

// Schema helpers for building JSON Schema definitions.

// ObjectSchema creates an object schema with the given properties.
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

// StringProperty creates a string property with a description.
func StringProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

// StringEnumProperty creates a string property with allowed values.
func StringEnumProperty(description string, values ...string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
		"enum":        values,
	}
}

// IntegerProperty creates an integer property with a description.
func IntegerProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
	}
}

// IntegerPropertyWithDefault creates an integer property carrying a default.
func IntegerPropertyWithDefault(description string, def int) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
		"default":     def,
	}
}

// BooleanPropertyWithDefault creates a boolean property carrying a default.
func BooleanPropertyWithDefault(description string, def bool) map[string]interface{} {
	return map[string]interface{}{
		"type":        "boolean",
		"description": description,
		"default":     def,
	}
}

// ArrayProperty creates an array property with the given item type.
func ArrayProperty(description string, itemType map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": description,
		"items":       itemType,
	}
}

// Definition returns the tool declaration the agent host registers with
// its model: name, description, and the JSON schema of the request.
func (t *Memory) Definition() map[string]interface{} {
	actions := make([]string, len(validActions))
	for i, a := range validActions {
		actions[i] = string(a)
	}

	return map[string]interface{}{
		"name": Name,
		"description": "Store and recall memories with human-like memory characteristics " +
			"including decay, using both short-term and long-term memory storage.",
		"parameters": ObjectSchema(map[string]interface{}{
			"action": StringEnumProperty("The memory operation to perform", actions...),
			"content": StringProperty(
				"Content to store in memory (for 'store' action)"),
			"query": StringProperty(
				"Text to search for in memories (for 'recall' action)"),
			"tags": ArrayProperty(
				"Tags/keywords for categorizing or filtering memories",
				map[string]interface{}{"type": "string"}),
			"memory_id": IntegerProperty(
				"ID of a specific memory to forget (for 'forget' action)"),
			"older_than_days": IntegerProperty(
				"Forget memories older than this many days (for 'forget' action)"),
			"days": IntegerPropertyWithDefault(
				"Number of days to look back (for 'summarize' action)", 30),
			"limit": IntegerPropertyWithDefault(
				"Maximum number of memories to return (for 'recall' action)", 5),
			"use_long_term": BooleanPropertyWithDefault(
				"Whether to check long-term memory if not found in short-term (for 'recall' action)", true),
		}, "action"),
	}
}
