// Package form turns a resolved schema into collected, typed values, either
// by prompting an operator field by field or by checking a caller-supplied
// value map.
package form

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kolah/oinkctl/internal/model"
	"github.com/kolah/oinkctl/internal/models"
	"github.com/kolah/oinkctl/internal/schema"
)

type Mode int

const (
	Structured Mode = iota
	Interactive
)

// serverAssigned fields are never prompted for.
var serverAssigned = map[string]bool{"dn": true, "inum": true}

// Field describes one prompt.
type Field struct {
	Name        string // dotted wire path
	Label       string
	Description string
	Type        model.SchemaType
	Kind        schema.Kind
	ItemType    model.SchemaType
	Required    bool
	Default     any
	Enum        []any // allowed values, of the items for lists
	Current     any
}

// Prompter is the operator side of interactive collection.
type Prompter interface {
	// Prompt returns the raw input for a field; empty input keeps the current
	// value or applies the default.
	Prompt(f Field) (string, error)
	Confirm(question string) (bool, error)
	// Report shows a recoverable validation error before the field is asked
	// again.
	Report(err error)
}

type Options struct {
	Mode         Mode
	RequiredOnly bool
	// SingleField restricts collection to one top-level property.
	SingleField string
	// Values supplies structured input keyed by wire or attribute name.
	Values   map[string]any
	Prompter Prompter
}

// FieldValue is the outcome of one collected leaf.
type FieldValue struct {
	Name       string
	RawInput   string
	TypedValue any
	SchemaType model.SchemaType
}

type Form struct {
	Values models.ValueTree
	Fields []FieldValue
}

type Synthesizer struct {
	registry *models.Registry
}

func New(registry *models.Registry) *Synthesizer {
	if registry == nil {
		registry = models.NewRegistry()
	}
	return &Synthesizer{registry: registry}
}

// Collect walks an object schema. Values in existing are kept for fields the
// walk does not set, which makes it an update of that value.
func (s *Synthesizer) Collect(node *schema.Node, existing models.ValueTree, opts Options) (*Form, error) {
	if node == nil || node.Kind != schema.KindObject {
		return nil, errors.New("form: schema is not an object")
	}
	if opts.Mode == Interactive && opts.Prompter == nil {
		return nil, errors.New("form: interactive collection needs a prompter")
	}
	w := &walker{s: s, opts: opts}
	values, err := w.object(node, existing, opts.Values, "", true)
	if err != nil {
		return nil, err
	}
	return &Form{Values: values, Fields: w.fields}, nil
}

// AttributeName maps a property of node to the key used in value trees:
// the model attribute for component schemas, the wire name for inline ones.
func (s *Synthesizer) AttributeName(node *schema.Node, wire string) string {
	if node.SourceName == "" {
		return wire
	}
	return s.registry.AttributeName(node.SourceName, wire)
}

type walker struct {
	s      *Synthesizer
	opts   Options
	fields []FieldValue
}

func (w *walker) structured() bool {
	return w.opts.Mode == Structured
}

func (w *walker) object(node *schema.Node, existing models.ValueTree, supplied map[string]any, prefix string, top bool) (models.ValueTree, error) {
	out := make(models.ValueTree, len(existing))
	for k, v := range existing {
		out[k] = v
	}

	single := ""
	if top {
		single = w.opts.SingleField
	}
	if single != "" && node.Property(single) == nil {
		return nil, &FieldValidationError{Field: single, Reason: "no such field"}
	}

	known := make(map[string]bool, 2*len(node.Properties))
	for _, p := range node.Properties {
		key := w.s.AttributeName(node, p.Name)
		known[p.Name], known[key] = true, true

		switch {
		case single != "":
			if p.Name != single {
				continue
			}
		case serverAssigned[p.Name]:
			if v, ok := lookup(supplied, p.Name, key); ok {
				out[key] = v
			}
			continue
		case w.opts.RequiredOnly && !node.IsRequired(p.Name):
			continue
		}

		v, set, err := w.property(node, p, joinPath(prefix, p.Name), out[key], supplied, key)
		if err != nil {
			return nil, err
		}
		if set {
			out[key] = v
		}
	}

	if w.structured() && single == "" {
		for k, v := range supplied {
			if !known[k] {
				out[k] = v
			}
		}
	}
	return out, nil
}

func (w *walker) property(parent *schema.Node, p schema.Property, name string, current any, supplied map[string]any, key string) (any, bool, error) {
	n := p.Node
	required := parent.IsRequired(p.Name)
	raw, ok := lookup(supplied, p.Name, key)
	switch {
	case n.Kind == schema.KindObject && len(n.Properties) > 0:
		return w.nested(n, name, current, raw, ok, required)
	case n.HasObjectItems():
		return w.objectList(n, name, current, raw, ok, required)
	case w.structured():
		if !ok {
			return w.fallback(n, name, current, required)
		}
		v, err := Coerce(n, raw)
		if err != nil {
			return nil, false, &FieldValidationError{Field: name, Value: raw, Reason: err.Error()}
		}
		w.record(name, rawText(raw), v, n)
		return v, true, nil
	default:
		return w.prompt(n, p.Name, name, current, required)
	}
}

func (w *walker) prompt(n *schema.Node, prop, name string, current any, required bool) (any, bool, error) {
	f := Field{
		Name:        name,
		Label:       n.Title,
		Description: n.Description,
		Type:        n.Type,
		Kind:        n.Kind,
		Required:    required,
		Default:     n.Default,
		Enum:        n.Enum,
		Current:     current,
	}
	if f.Label == "" {
		f.Label = prop
	}
	if n.Kind == schema.KindArray && n.Items != nil {
		f.ItemType = n.Items.Type
		f.Enum = n.Items.Enum
	}

	for {
		raw, err := w.opts.Prompter.Prompt(f)
		if err != nil {
			return nil, false, err
		}
		if strings.TrimSpace(raw) == "" {
			v, set, err := w.fallback(n, name, current, required)
			if err != nil {
				w.opts.Prompter.Report(err)
				continue
			}
			return v, set, nil
		}
		v, err := Parse(n, raw)
		if err != nil {
			w.opts.Prompter.Report(&FieldValidationError{Field: name, Value: raw, Reason: err.Error()})
			continue
		}
		w.record(name, raw, v, n)
		return v, true, nil
	}
}

// fallback settles a field that received no input.
func (w *walker) fallback(n *schema.Node, name string, current any, required bool) (any, bool, error) {
	switch {
	case current != nil:
		return current, true, nil
	case n.Default != nil:
		w.record(name, "", n.Default, n)
		return n.Default, true, nil
	case required:
		return nil, false, &FieldValidationError{Field: name, Reason: "a value is required"}
	}
	return nil, false, nil
}

func (w *walker) nested(n *schema.Node, name string, current, raw any, ok, required bool) (any, bool, error) {
	sub := subTree(current)
	if w.structured() {
		switch {
		case ok:
			m, isMap := raw.(map[string]any)
			if !isMap {
				return nil, false, &FieldValidationError{Field: name, Value: raw, Reason: fmt.Sprintf("expected an object, got %T", raw)}
			}
			tree, err := w.object(n, sub, m, name, false)
			return tree, err == nil, err
		case current != nil:
			return current, true, nil
		case !required:
			return nil, false, nil
		}
		tree, err := w.object(n, nil, map[string]any{}, name, false)
		return tree, err == nil, err
	}

	if sub == nil && !required {
		populate, err := w.opts.Prompter.Confirm(fmt.Sprintf("Populate %s?", n.Label(name)))
		if err != nil || !populate {
			return nil, false, err
		}
	}
	tree, err := w.object(n, sub, nil, name, false)
	return tree, err == nil, err
}

func (w *walker) objectList(n *schema.Node, name string, current, raw any, ok, required bool) (any, bool, error) {
	if w.structured() {
		if !ok {
			return w.fallback(n, name, current, required)
		}
		list, isList := raw.([]any)
		if !isList {
			return nil, false, &FieldValidationError{Field: name, Value: raw, Reason: fmt.Sprintf("expected a list of objects, got %T", raw)}
		}
		out := make([]any, 0, len(list))
		for i, elem := range list {
			itemName := fmt.Sprintf("%s[%d]", name, i)
			m, isMap := elem.(map[string]any)
			if !isMap {
				return nil, false, &FieldValidationError{Field: itemName, Value: elem, Reason: fmt.Sprintf("expected an object, got %T", elem)}
			}
			tree, err := w.object(n.Items, nil, m, itemName, false)
			if err != nil {
				return nil, false, err
			}
			out = append(out, tree)
		}
		return out, true, nil
	}

	var out []any
	if existing, isList := current.([]any); isList {
		out = append(out, existing...)
	}
	for {
		add, err := w.opts.Prompter.Confirm(fmt.Sprintf("Add %s item?", n.Items.Label(name)))
		if err != nil {
			return nil, false, err
		}
		if !add {
			break
		}
		tree, err := w.object(n.Items, nil, nil, fmt.Sprintf("%s[%d]", name, len(out)), false)
		if err != nil {
			return nil, false, err
		}
		out = append(out, tree)
	}
	if len(out) == 0 && !required {
		return nil, false, nil
	}
	if out == nil {
		out = []any{}
	}
	return out, true, nil
}

func (w *walker) record(name, raw string, v any, n *schema.Node) {
	w.fields = append(w.fields, FieldValue{
		Name:       name,
		RawInput:   raw,
		TypedValue: v,
		SchemaType: n.Type,
	})
}

func lookup(supplied map[string]any, wire, attr string) (any, bool) {
	if supplied == nil {
		return nil, false
	}
	if v, ok := supplied[wire]; ok {
		return v, true
	}
	v, ok := supplied[attr]
	return v, ok
}

// subTree extracts the attribute tree of an existing nested value.
func subTree(v any) models.ValueTree {
	switch t := v.(type) {
	case models.ValueTree:
		return t
	case models.Value:
		return t.Attrs
	case map[string]any:
		return t
	}
	return nil
}

func rawText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
