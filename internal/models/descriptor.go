// Package models describes the generated client models: for every component
// schema, the mapping between model attribute names and wire field names and
// the declared type of each attribute. It replaces runtime introspection of
// generated classes with an explicit lookup table.
package models

import (
	"fmt"
	"sort"

	"github.com/kolah/oinkctl/internal/model"
	"github.com/kolah/oinkctl/internal/naming"
	"github.com/kolah/oinkctl/internal/schema"
)

type Kind string

const (
	KindString Kind = "str"
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
	KindBool   Kind = "bool"
	KindModel  Kind = "model"
	KindList   Kind = "list"
	KindDict   Kind = "dict"
	KindAny    Kind = "object"
)

// TypeTag is the declared type of one model attribute.
type TypeTag struct {
	Kind  Kind
	Model string   // component schema name for KindModel
	Item  *TypeTag // element type for KindList
}

func (t TypeTag) String() string {
	switch t.Kind {
	case KindModel:
		return naming.PascalCase(t.Model)
	case KindList:
		if t.Item == nil {
			return "list[object]"
		}
		return "list[" + t.Item.String() + "]"
	case KindDict:
		return "dict(str, object)"
	case "":
		return string(KindAny)
	default:
		return string(t.Kind)
	}
}

// Descriptor is the attribute layout of one generated model.
type Descriptor struct {
	Name           string // generated model name
	Schema         string // component schema it was generated from
	Attributes     []string
	AttributeMap   map[string]string // attribute -> wire name
	AttributeTypes map[string]TypeTag
	wireToAttr     map[string]string
}

func (d *Descriptor) WireName(attr string) (string, bool) {
	w, ok := d.AttributeMap[attr]
	return w, ok
}

func (d *Descriptor) AttributeName(wire string) (string, bool) {
	a, ok := d.wireToAttr[wire]
	return a, ok
}

// Describe builds the descriptor for a resolved object schema.
func Describe(n *schema.Node) *Descriptor {
	d := &Descriptor{
		Name:           naming.PascalCase(n.SourceName),
		Schema:         n.SourceName,
		AttributeMap:   make(map[string]string, len(n.Properties)),
		AttributeTypes: make(map[string]TypeTag, len(n.Properties)),
		wireToAttr:     make(map[string]string, len(n.Properties)),
	}
	for _, p := range n.Properties {
		attr := naming.SnakeCase(p.Name)
		if attr == "" {
			attr = "attr"
		}
		// "displayName" and "display_name" both map to display_name.
		for base, i := attr, 2; ; i++ {
			if _, taken := d.AttributeMap[attr]; !taken {
				break
			}
			attr = fmt.Sprintf("%s_%d", base, i)
		}
		d.Attributes = append(d.Attributes, attr)
		d.AttributeMap[attr] = p.Name
		d.AttributeTypes[attr] = TypeOf(p.Node)
		d.wireToAttr[p.Name] = attr
	}
	return d
}

// TypeOf maps a resolved schema to the generated attribute type.
func TypeOf(n *schema.Node) TypeTag {
	if n == nil {
		return TypeTag{Kind: KindAny}
	}
	switch n.Kind {
	case schema.KindObject:
		if n.SourceName != "" && len(n.Properties) > 0 {
			return TypeTag{Kind: KindModel, Model: n.SourceName}
		}
		return TypeTag{Kind: KindDict}
	case schema.KindArray:
		item := TypeOf(n.Items)
		return TypeTag{Kind: KindList, Item: &item}
	}
	switch n.Type {
	case model.TypeString:
		return TypeTag{Kind: KindString}
	case model.TypeInteger:
		return TypeTag{Kind: KindInt}
	case model.TypeNumber:
		return TypeTag{Kind: KindFloat}
	case model.TypeBoolean:
		return TypeTag{Kind: KindBool}
	default:
		return TypeTag{Kind: KindAny}
	}
}

// Registry looks descriptors up by schema name or generated model name.
type Registry struct {
	bySchema map[string]*Descriptor
	byName   map[string]*Descriptor
}

func NewRegistry(descriptors ...*Descriptor) *Registry {
	r := &Registry{
		bySchema: make(map[string]*Descriptor),
		byName:   make(map[string]*Descriptor),
	}
	for _, d := range descriptors {
		r.Add(d)
	}
	return r
}

func (r *Registry) Add(d *Descriptor) {
	r.bySchema[d.Schema] = d
	r.byName[d.Name] = d
}

// Build describes every object schema of the document. Schemas the resolver
// rejects are skipped and reported; the registry stays usable for the rest.
func Build(spec *model.Spec, resolver *schema.Resolver) (*Registry, []error) {
	r := NewRegistry()
	var errs []error
	for _, s := range spec.Schemas {
		n, err := resolver.ResolveRef(model.SchemaRef(s.Name))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if n.Kind != schema.KindObject {
			continue
		}
		r.Add(Describe(n))
	}
	return r, errs
}

func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	if d, ok := r.bySchema[name]; ok {
		return d, true
	}
	d, ok := r.byName[name]
	return d, ok
}

// AttributeName maps a wire field of the named schema to its model attribute.
// Unknown schemas and fields fall back to snake case.
func (r *Registry) AttributeName(schemaName, wire string) string {
	if d, ok := r.Lookup(schemaName); ok {
		if attr, ok := d.AttributeName(wire); ok {
			return attr
		}
	}
	return naming.SnakeCase(wire)
}

// Names returns the generated model names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
