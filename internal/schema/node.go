// Package schema expands component references and allOf compositions of the
// API document into self-contained field layouts.
package schema

import (
	"slices"

	"github.com/kolah/oinkctl/internal/model"
)

type Kind int

const (
	KindPrimitive Kind = iota
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "primitive"
	}
}

// Node is a fully expanded schema. Nodes returned by a Resolver may be shared
// between callers and must be treated as read-only.
type Node struct {
	Kind        Kind
	Type        model.SchemaType
	Format      string
	Properties  []Property
	Items       *Node
	Enum        []any
	Required    []string
	Default     any
	Title       string
	Description string
	ReadOnly    bool
	// SourceName is the component schema this node was resolved from. Array
	// nodes carry the name of their item schema.
	SourceName string
}

type Property struct {
	Name string
	Node *Node
}

// Property returns the named property, or nil.
func (n *Node) Property(name string) *Node {
	if n == nil {
		return nil
	}
	for _, p := range n.Properties {
		if p.Name == name {
			return p.Node
		}
	}
	return nil
}

func (n *Node) IsRequired(name string) bool {
	return n != nil && slices.Contains(n.Required, name)
}

// HasObjectItems reports whether n is an array whose items are objects with
// their own properties.
func (n *Node) HasObjectItems() bool {
	return n != nil && n.Kind == KindArray && n.Items != nil && n.Items.Kind == KindObject && len(n.Items.Properties) > 0
}

// Label returns the most descriptive human label available.
func (n *Node) Label(fallback string) string {
	switch {
	case n == nil:
		return fallback
	case n.Title != "":
		return n.Title
	case n.SourceName != "":
		return n.SourceName
	default:
		return fallback
	}
}
