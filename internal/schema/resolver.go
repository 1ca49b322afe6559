package schema

import (
	"slices"
	"strings"
	"sync"

	"github.com/kolah/oinkctl/internal/model"
)

// Resolver expands schema references against one document. Resolved
// references are memoized; the cache is safe for concurrent readers.
type Resolver struct {
	spec *model.Spec

	mu    sync.RWMutex
	cache map[string]*Node
}

func NewResolver(spec *model.Spec) *Resolver {
	return &Resolver{
		spec:  spec,
		cache: make(map[string]*Node),
	}
}

// resolution tracks the references currently being expanded on the call stack.
type resolution struct {
	stack []string
}

func (r *resolution) active(ref string) bool {
	return slices.Contains(r.stack, ref)
}

// ResolveRef expands a component reference. A bare schema name is accepted
// in place of a full "#/components/schemas/..." pointer.
func (r *Resolver) ResolveRef(ref string) (*Node, error) {
	if ref == "" {
		return nil, &ResolutionError{Ref: ref, Reason: "empty reference"}
	}
	if !strings.HasPrefix(ref, "#") {
		ref = model.SchemaRef(ref)
	}
	return r.resolveRef(ref, &resolution{})
}

// Resolve expands an inline schema, following any references it contains.
func (r *Resolver) Resolve(s *model.Schema) (*Node, error) {
	if s == nil {
		return nil, &ResolutionError{Reason: "no schema"}
	}
	return r.resolveSchema(s, &resolution{})
}

func (r *Resolver) cached(ref string) (*Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.cache[ref]
	return n, ok
}

func (r *Resolver) store(ref string, n *Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[ref] = n
}

func (r *Resolver) resolveRef(ref string, res *resolution) (*Node, error) {
	if n, ok := r.cached(ref); ok {
		return n, nil
	}

	if res.active(ref) {
		cycle := append(slices.Clone(res.stack), ref)
		return nil, &ResolutionError{Ref: ref, Cycle: cycle}
	}

	fragment := r.spec.SchemaByRef(ref)
	if fragment == nil {
		return nil, &ResolutionError{Ref: ref, Reason: "no such schema in document"}
	}

	res.stack = append(res.stack, ref)
	n, err := r.resolveSchema(fragment, res)
	res.stack = res.stack[:len(res.stack)-1]
	if err != nil {
		return nil, err
	}

	if fragment.Ref != "" {
		// An alias shares its target's node; name a copy instead.
		alias := *n
		n = &alias
	}
	n.SourceName = model.RefName(ref)
	r.store(ref, n)
	return n, nil
}

func (r *Resolver) resolveSchema(s *model.Schema, res *resolution) (*Node, error) {
	if s.Ref != "" {
		target, err := r.resolveRef(s.Ref, res)
		if err != nil {
			return nil, err
		}
		return target, nil
	}

	if len(s.AllOf) > 0 {
		return r.resolveAllOf(s, res)
	}

	n := &Node{
		Type:        s.Type,
		Format:      s.Format,
		Enum:        s.Enum,
		Required:    s.Required,
		Default:     s.Default,
		Title:       s.Title,
		Description: s.Description,
		ReadOnly:    s.ReadOnly,
	}

	switch {
	case s.Type == model.TypeArray:
		n.Kind = KindArray
		if s.Items == nil {
			break
		}
		item, err := r.resolveSchema(s.Items, res)
		if err != nil {
			return nil, err
		}
		n.Items = item
		if s.Items.Ref != "" {
			n.SourceName = item.SourceName
			if n.Title == "" {
				n.Title = item.Title
			}
			if n.Description == "" {
				n.Description = item.Description
			}
		}
	case s.Type == model.TypeObject || len(s.Properties) > 0:
		n.Kind = KindObject
		n.Type = model.TypeObject
		props, err := r.resolveProperties(s.Properties, res)
		if err != nil {
			return nil, err
		}
		n.Properties = props
	default:
		n.Kind = KindPrimitive
	}

	return n, nil
}

func (r *Resolver) resolveProperties(props []model.Property, res *resolution) ([]Property, error) {
	out := make([]Property, 0, len(props))
	for _, p := range props {
		if p.Schema == nil {
			out = append(out, Property{Name: p.Name, Node: &Node{Kind: KindPrimitive}})
			continue
		}
		node, err := r.resolveSchema(p.Schema, res)
		if err != nil {
			return nil, err
		}
		out = append(out, Property{Name: p.Name, Node: node})
	}
	return out, nil
}

// resolveAllOf merges every member into one object. A property declared by a
// later member replaces an earlier one of the same name in place.
func (r *Resolver) resolveAllOf(s *model.Schema, res *resolution) (*Node, error) {
	merged := &Node{
		Kind:        KindObject,
		Type:        model.TypeObject,
		Title:       s.Title,
		Description: s.Description,
		Default:     s.Default,
	}

	index := make(map[string]int)
	add := func(props []Property) {
		for _, p := range props {
			if i, ok := index[p.Name]; ok {
				merged.Properties[i] = p
				continue
			}
			index[p.Name] = len(merged.Properties)
			merged.Properties = append(merged.Properties, p)
		}
	}
	require := func(names []string) {
		for _, name := range names {
			if !slices.Contains(merged.Required, name) {
				merged.Required = append(merged.Required, name)
			}
		}
	}

	for _, member := range s.AllOf {
		node, err := r.resolveSchema(member, res)
		if err != nil {
			return nil, err
		}
		add(node.Properties)
		require(node.Required)
		if merged.Description == "" {
			merged.Description = node.Description
		}
	}

	// Properties declared next to allOf belong to the composed schema itself.
	own, err := r.resolveProperties(s.Properties, res)
	if err != nil {
		return nil, err
	}
	add(own)
	require(s.Required)

	return merged, nil
}
