package dispatch

import (
	"strings"

	"github.com/kolah/oinkctl/internal/catalog"
	"github.com/kolah/oinkctl/internal/form"
	"github.com/kolah/oinkctl/internal/model"
	"github.com/kolah/oinkctl/internal/schema"
)

// ParseArgs splits "name:value,name2:value2" into a map. Values may contain
// further colons.
func ParseArgs(s string) (map[string]string, error) {
	args := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, ok := strings.Cut(pair, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, &ArgumentError{Value: pair, Reason: "expected name:value"}
		}
		args[name] = strings.TrimSpace(value)
	}
	return args, nil
}

// QueryArgs checks query arguments against the operation's declared query
// parameters and converts them to the declared types.
func QueryArgs(op *catalog.Operation, query map[string]string) (map[string]any, error) {
	named := make(map[string]any, len(query))
	for name, raw := range query {
		p, ok := op.Param(name)
		if !ok || p.In != model.LocationQuery {
			return nil, &ArgumentError{Name: name, Value: raw, Reason: "not a query parameter of " + op.ID}
		}
		v, err := form.Parse(paramNode(p), raw)
		if err != nil {
			return nil, &ArgumentError{Name: name, Value: raw, Reason: err.Error()}
		}
		named[name] = v
	}
	for _, p := range op.QueryParams() {
		if _, ok := named[p.Name]; p.Required && !ok {
			return nil, &MissingParameterError{Operation: op.ID, Flag: "endpoint-args", Name: p.Name}
		}
	}
	return named, nil
}

func paramNode(p catalog.ParamSpec) *schema.Node {
	n := &schema.Node{Type: p.Type, Enum: p.Enum, Default: p.Default}
	if p.Type == model.TypeArray {
		n.Kind = schema.KindArray
		n.Items = &schema.Node{Type: model.TypeString}
		if p.Schema != nil && p.Schema.Items != nil {
			n.Items.Type = p.Schema.Items.Type
			n.Items.Enum = p.Schema.Items.Enum
		}
		n.Enum = nil
	}
	return n
}

// ParamsNode describes an operation's path and query parameters as an object
// schema so they can be collected like a request body.
func ParamsNode(op *catalog.Operation) *schema.Node {
	n := &schema.Node{Kind: schema.KindObject, Type: model.TypeObject}
	for _, p := range op.Parameters {
		if p.In != model.LocationPath && p.In != model.LocationQuery {
			continue
		}
		pn := paramNode(p)
		pn.Description = p.Description
		n.Properties = append(n.Properties, schema.Property{Name: p.Name, Node: pn})
		if p.Required {
			n.Required = append(n.Required, p.Name)
		}
	}
	return n
}
