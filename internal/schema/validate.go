package schema

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// JSONSchema renders n as a standalone JSON Schema document.
func (n *Node) JSONSchema() map[string]any {
	if n == nil {
		return map[string]any{}
	}

	out := map[string]any{}
	if n.Description != "" {
		out["description"] = n.Description
	}
	if len(n.Enum) > 0 {
		out["enum"] = n.Enum
	}

	switch n.Kind {
	case KindObject:
		out["type"] = "object"
		props := make(map[string]any, len(n.Properties))
		for _, p := range n.Properties {
			props[p.Name] = p.Node.JSONSchema()
		}
		if len(props) > 0 {
			out["properties"] = props
		}
		if len(n.Required) > 0 {
			out["required"] = n.Required
		}
	case KindArray:
		out["type"] = "array"
		if n.Items != nil {
			out["items"] = n.Items.JSONSchema()
		}
	default:
		if n.Type != "" {
			out["type"] = string(n.Type)
		}
	}
	return out
}

// PayloadValidator checks caller-supplied payloads against a resolved schema.
type PayloadValidator struct {
	name   string
	schema *jsonschema.Schema
}

func CompileValidator(n *Node) (*PayloadValidator, error) {
	data, err := json.Marshal(n.JSONSchema())
	if err != nil {
		return nil, fmt.Errorf("encoding schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("payload.json", bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}
	compiled, err := compiler.Compile("payload.json")
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}
	return &PayloadValidator{name: n.SourceName, schema: compiled}, nil
}

// Validate reports the first violation as a *PayloadError.
func (v *PayloadValidator) Validate(payload any) error {
	if err := v.schema.Validate(payload); err != nil {
		return &PayloadError{Schema: v.name, Err: err}
	}
	return nil
}
