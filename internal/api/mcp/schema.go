package mcp

import (
	"fmt"
	"math"
)

// validateArgs checks args against the tool's declared input schema before
// the handler runs. It enforces required fields, declared property types and
// enum membership, and fills in declared defaults for absent properties.
// The schema subset understood here matches what the tools declare:
// "type", "properties", "required", "enum" and "default". Unknown argument
// keys are tolerated.
//
// Returns nil when args conform, otherwise a ValidationError carrying one
// FieldError per violation.
func validateArgs(schema map[string]interface{}, args map[string]interface{}) *ToolError {
	var violations []FieldError

	properties, _ := schema["properties"].(map[string]interface{})

	for _, name := range requiredFields(schema) {
		if v, ok := args[name]; !ok || v == nil {
			violations = append(violations, FieldError{
				Field:   name,
				Message: "required field is missing",
			})
		}
	}

	for name, raw := range properties {
		prop, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		value, present := args[name]
		if !present {
			if def, hasDefault := prop["default"]; hasDefault {
				args[name] = def
			}
			continue
		}
		if value == nil {
			continue // nulls for optional fields are treated as absent
		}

		if typ, _ := prop["type"].(string); typ != "" && !typeMatches(typ, value) {
			violations = append(violations, FieldError{
				Field:   name,
				Message: fmt.Sprintf("expected %s, got %T", typ, value),
			})
			continue
		}

		if enum, ok := prop["enum"].([]interface{}); ok && !enumContains(enum, value) {
			violations = append(violations, FieldError{
				Field:   name,
				Message: fmt.Sprintf("value %v is not one of the allowed values", value),
			})
		}
	}

	if len(violations) == 0 {
		return nil
	}
	return &ToolError{
		Kind:    KindValidation,
		Message: fmt.Sprintf("invalid arguments: %d violation(s)", len(violations)),
		Details: violations,
	}
}

// requiredFields reads the "required" list, which arrives as []interface{}
// after JSON decoding but as []string when schemas are declared in Go.
func requiredFields(schema map[string]interface{}) []string {
	switch req := schema["required"].(type) {
	case []string:
		return req
	case []interface{}:
		out := make([]string, 0, len(req))
		for _, v := range req {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// typeMatches reports whether a decoded JSON value satisfies a schema type.
// JSON decoding yields float64 for every number, so integer values are
// accepted as float64 with no fractional part. Go-native ints are accepted
// too for callers that dispatch without a JSON round trip.
func typeMatches(typ string, v interface{}) bool {
	switch typ {
	case "string":
		_, ok := v.(string)
		return ok
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "number":
		switch v.(type) {
		case float64, float32, int, int32, int64:
			return true
		}
		return false
	case "integer":
		switch n := v.(type) {
		case int, int32, int64:
			return true
		case float64:
			return n == math.Trunc(n)
		}
		return false
	case "array":
		_, ok := v.([]interface{})
		return ok
	case "object":
		_, ok := v.(map[string]interface{})
		return ok
	default:
		return true
	}
}

func enumContains(enum []interface{}, v interface{}) bool {
	for _, e := range enum {
		if e == v {
			return true
		}
	}
	return false
}
