package schema

import "github.com/kolah/oinkctl/internal/model"

// Sample builds an example payload for n: declared defaults first, then the
// first enum value, then a placeholder for the declared type.
func Sample(n *Node) any {
	if n == nil {
		return nil
	}
	if n.Default != nil {
		return n.Default
	}
	if len(n.Enum) > 0 {
		return n.Enum[0]
	}

	switch n.Kind {
	case KindObject:
		out := make(map[string]any, len(n.Properties))
		for _, p := range n.Properties {
			if p.Node != nil && p.Node.ReadOnly {
				continue
			}
			out[p.Name] = Sample(p.Node)
		}
		return out
	case KindArray:
		if n.Items == nil {
			return []any{}
		}
		return []any{Sample(n.Items)}
	}

	switch n.Type {
	case model.TypeInteger:
		return 0
	case model.TypeNumber:
		return 0.0
	case model.TypeBoolean:
		return false
	}

	switch n.Format {
	case "date-time":
		return "1970-01-01T00:00:00Z"
	case "date":
		return "1970-01-01"
	}
	return "string"
}
