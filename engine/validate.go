package engine

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidationError reports arguments that do not match a tool's declared
// parameter shape. It names the failing field so the planner can repair the
// call on review.
type ValidationError struct {
	Tool    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// paramSchemaJSON renders a ToolSpec's parameter list as a JSON schema
// document. Fields without defaults are required; unknown extra fields are
// tolerated and ignored by tool bodies.
func paramSchemaJSON(spec ToolSpec) (string, error) {
	props := make(map[string]any, len(spec.Params))
	var required []string
	for _, p := range spec.Params {
		prop := map[string]any{"type": string(p.Kind)}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		props[p.Name] = prop
		if p.Required() {
			required = append(required, p.Name)
		}
	}

	doc := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		doc["required"] = required
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// compileParamSchema compiles a ToolSpec's parameter shape once, at
// registry build time.
func compileParamSchema(spec ToolSpec) (*jsonschema.Schema, error) {
	doc, err := paramSchemaJSON(spec)
	if err != nil {
		return nil, err
	}
	return jsonschema.CompileString(spec.Name+".schema.json", doc)
}

// validateArgs checks raw planner-supplied arguments against a tool's
// compiled schema. It fills in declared defaults, coerces string-encoded
// scalars to their declared kinds, and returns the coerced argument map.
// The tool body is never invoked from here.
func validateArgs(tool *registeredTool, raw map[string]any) (map[string]any, *ValidationError) {
	args := make(map[string]any, len(raw))
	for k, v := range raw {
		args[k] = v
	}

	for _, p := range tool.spec.Params {
		v, present := args[p.Name]
		if !present {
			if p.HasDefault {
				args[p.Name] = p.Default
			}
			continue
		}
		args[p.Name] = coerceValue(p.Kind, v)
	}

	// Round-trip through JSON so defaults and coerced values are in plain
	// JSON form before schema validation.
	encoded, err := json.Marshal(args)
	if err != nil {
		return nil, &ValidationError{Tool: tool.spec.Name, Message: err.Error()}
	}
	var decoded any
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		return nil, &ValidationError{Tool: tool.spec.Name, Message: err.Error()}
	}

	if err := tool.schema.Validate(decoded); err != nil {
		field, msg := describeSchemaError(err)
		return nil, &ValidationError{Tool: tool.spec.Name, Field: field, Message: msg}
	}

	normalized, ok := decoded.(map[string]any)
	if !ok {
		return nil, &ValidationError{Tool: tool.spec.Name, Message: "arguments must be an object"}
	}
	return normalized, nil
}

// coerceValue converts string-encoded scalars to the declared kind. Values
// that do not coerce are returned unchanged and left for schema validation
// to reject.
func coerceValue(kind ParamKind, v any) any {
	s, isString := v.(string)
	if !isString {
		return v
	}
	switch kind {
	case ParamInteger:
		if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return n
		}
	case ParamNumber:
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	case ParamBoolean:
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b
		}
	}
	return v
}

// describeSchemaError extracts the failing field name and a short message
// from a jsonschema validation error.
func describeSchemaError(err error) (field, msg string) {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return "", err.Error()
	}

	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}

	msg = leaf.Message
	if loc := strings.TrimPrefix(leaf.InstanceLocation, "/"); loc != "" {
		parts := strings.Split(loc, "/")
		field = parts[len(parts)-1]
		return field, msg
	}

	// Missing required properties are reported at the object root; pull the
	// property name out of the message ("missing properties: 'foo'").
	if idx := strings.Index(msg, "'"); idx != -1 {
		rest := msg[idx+1:]
		if end := strings.Index(rest, "'"); end != -1 {
			field = rest[:end]
		}
	}
	return field, msg
}
