package models

import "math"

// ValueTree is a mapping from attribute names to values: scalars, lists,
// nested trees or Values.
type ValueTree map[string]any

// Value is an instance of a generated model.
type Value struct {
	Model string
	Attrs ValueTree
}

// ToWire flattens model instances into plain maps keyed by wire names. It
// accepts a single Value, a list of them, or any mix of trees and scalars.
func (r *Registry) ToWire(v any) any {
	switch t := v.(type) {
	case Value:
		return r.valueToWire(t)
	case *Value:
		if t == nil {
			return nil
		}
		return r.valueToWire(*t)
	case []Value:
		out := make([]any, len(t))
		for i := range t {
			out[i] = r.valueToWire(t[i])
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = r.ToWire(t[i])
		}
		return out
	case ValueTree:
		return r.treeToWire(t)
	case map[string]any:
		return r.treeToWire(t)
	default:
		return v
	}
}

func (r *Registry) treeToWire(t map[string]any) map[string]any {
	out := make(map[string]any, len(t))
	for k, v := range t {
		out[k] = r.ToWire(v)
	}
	return out
}

func (r *Registry) valueToWire(v Value) map[string]any {
	d, ok := r.Lookup(v.Model)
	if !ok {
		return r.treeToWire(v.Attrs)
	}
	out := make(map[string]any, len(v.Attrs))
	for attr, val := range v.Attrs {
		wire, ok := d.AttributeMap[attr]
		if !ok {
			wire = attr
		}
		out[wire] = r.typedToWire(val, d.AttributeTypes[attr])
	}
	return out
}

func (r *Registry) typedToWire(v any, tag TypeTag) any {
	switch tag.Kind {
	case KindModel:
		switch t := v.(type) {
		case ValueTree:
			return r.valueToWire(Value{Model: tag.Model, Attrs: t})
		case map[string]any:
			return r.valueToWire(Value{Model: tag.Model, Attrs: t})
		}
	case KindList:
		if tag.Item == nil {
			break
		}
		switch t := v.(type) {
		case []any:
			out := make([]any, len(t))
			for i := range t {
				out[i] = r.typedToWire(t[i], *tag.Item)
			}
			return out
		case []ValueTree:
			out := make([]any, len(t))
			for i := range t {
				out[i] = r.typedToWire(t[i], *tag.Item)
			}
			return out
		}
	}
	return r.ToWire(v)
}

// FromWire turns a decoded JSON payload into model instances of the named
// schema. Lists become lists of instances. Payloads for unknown schemas are
// returned unchanged.
func (r *Registry) FromWire(schemaName string, wire any) any {
	switch t := wire.(type) {
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = r.FromWire(schemaName, t[i])
		}
		return out
	case map[string]any:
		d, ok := r.Lookup(schemaName)
		if !ok {
			return t
		}
		attrs := make(ValueTree, len(t))
		for key, val := range t {
			attr, ok := d.AttributeName(key)
			if !ok {
				// Fields the model does not declare survive under their wire name.
				attrs[key] = val
				continue
			}
			attrs[attr] = r.typedFromWire(val, d.AttributeTypes[attr])
		}
		return Value{Model: d.Schema, Attrs: attrs}
	default:
		return wire
	}
}

func (r *Registry) typedFromWire(v any, tag TypeTag) any {
	switch tag.Kind {
	case KindModel:
		if m, ok := v.(map[string]any); ok {
			return r.FromWire(tag.Model, m)
		}
	case KindList:
		if list, ok := v.([]any); ok && tag.Item != nil {
			out := make([]any, len(list))
			for i := range list {
				out[i] = r.typedFromWire(list[i], *tag.Item)
			}
			return out
		}
	case KindInt:
		if f, ok := v.(float64); ok && f == math.Trunc(f) {
			return int64(f)
		}
	}
	return v
}
