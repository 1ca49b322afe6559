// Package catalog indexes the addressable operations of an API document by
// operation id and by tag.
package catalog

import (
	"strings"

	"github.com/kolah/oinkctl/internal/model"
)

type ParamSpec struct {
	Name        string
	In          model.ParameterLocation
	Type        model.SchemaType
	Required    bool
	Default     any
	Enum        []any
	Description string
	Schema      *model.Schema
}

type Operation struct {
	ID            string
	Method        model.Method
	Path          string
	PathParamName string
	Parameters    []ParamSpec

	// RequestBody is the body schema with a wrapping array removed.
	RequestBody      *model.Schema
	RequestBodyRef   string
	RequestMediaType string
	BodyIsList       bool

	ResponseRef    string
	ResponseIsList bool

	Scopes      []string
	Tags        []string
	Summary     string
	Description string
	Deprecated  bool
	Ignore      bool
	// GetData is the id of the GET operation seeding this operation's form.
	GetData string
}

// Param returns the named parameter.
func (o *Operation) Param(name string) (ParamSpec, bool) {
	for _, p := range o.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return ParamSpec{}, false
}

// PathParams returns the path parameters in path order, the trailing one
// included.
func (o *Operation) PathParams() []ParamSpec {
	var params []ParamSpec
	for _, name := range PathTemplateParams(o.Path) {
		if p, ok := o.Param(name); ok && p.In == model.LocationPath {
			params = append(params, p)
		}
	}
	return params
}

func (o *Operation) QueryParams() []ParamSpec {
	var params []ParamSpec
	for _, p := range o.Parameters {
		if p.In == model.LocationQuery {
			params = append(params, p)
		}
	}
	return params
}

func (o *Operation) HasTag(tag string) bool {
	for _, t := range o.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Skipped records a document operation left out of the catalog.
type Skipped struct {
	Method model.Method
	Path   string
	Reason string
}

type Catalog struct {
	operations []*Operation
	byID       map[string]*Operation
	byTag      map[string][]*Operation
	tags       []model.Tag
	Skipped    []Skipped
}

// Build indexes every operation carrying both an operation id and at least
// one tag. The first operation wins when an id is declared twice.
func Build(spec *model.Spec) *Catalog {
	c := &Catalog{
		byID:  make(map[string]*Operation),
		byTag: make(map[string][]*Operation),
	}

	declared := make(map[string]bool, len(spec.Tags))
	for _, t := range spec.Tags {
		declared[t.Name] = true
		c.tags = append(c.tags, t)
	}

	for i := range spec.Operations {
		src := &spec.Operations[i]
		switch {
		case src.ID == "":
			c.skip(src, "no operationId")
			continue
		case len(src.Tags) == 0:
			c.skip(src, "no tags")
			continue
		case c.byID[src.ID] != nil:
			c.skip(src, "duplicate operationId "+src.ID)
			continue
		}

		op := newOperation(spec, src)
		c.operations = append(c.operations, op)
		c.byID[op.ID] = op
		for _, tag := range op.Tags {
			c.byTag[tag] = append(c.byTag[tag], op)
			if !declared[tag] {
				declared[tag] = true
				c.tags = append(c.tags, model.Tag{Name: tag})
			}
		}
	}
	return c
}

func (c *Catalog) skip(op *model.Operation, reason string) {
	c.Skipped = append(c.Skipped, Skipped{Method: op.Method, Path: op.Path, Reason: reason})
}

// FindByID returns the operation with the given id or an
// *OperationNotFoundError.
func (c *Catalog) FindByID(id string) (*Operation, error) {
	op, ok := c.byID[id]
	if !ok {
		return nil, &OperationNotFoundError{ID: id}
	}
	return op, nil
}

// FindByTag returns the operations of a tag in document order, optionally
// restricted to one method (case-insensitive).
func (c *Catalog) FindByTag(tag string, method ...string) []*Operation {
	ops := c.byTag[tag]
	if len(method) == 0 || method[0] == "" {
		return ops
	}
	want := model.Method(strings.ToUpper(method[0]))
	var matched []*Operation
	for _, op := range ops {
		if op.Method == want {
			matched = append(matched, op)
		}
	}
	return matched
}

// Operations returns every catalogued operation in document order.
func (c *Catalog) Operations() []*Operation {
	return c.operations
}

// Tags returns the declared tags followed by tags only used by operations.
func (c *Catalog) Tags() []model.Tag {
	return c.tags
}

func (c *Catalog) Tag(name string) (model.Tag, bool) {
	for _, t := range c.tags {
		if t.Name == name {
			return t, true
		}
	}
	return model.Tag{}, false
}

func newOperation(spec *model.Spec, src *model.Operation) *Operation {
	op := &Operation{
		ID:            src.ID,
		Method:        src.Method,
		Path:          src.Path,
		PathParamName: PathParamName(src.Path),
		Tags:          src.Tags,
		Summary:       src.Summary,
		Description:   src.Description,
		Deprecated:    src.Deprecated,
		Ignore:        src.Extensions.Ignore,
		GetData:       src.Extensions.GetData,
	}

	for _, p := range src.Parameters {
		op.Parameters = append(op.Parameters, paramSpec(p))
	}
	for _, name := range PathTemplateParams(src.Path) {
		if _, ok := op.Param(name); !ok {
			op.Parameters = append(op.Parameters, ParamSpec{
				Name:     name,
				In:       model.LocationPath,
				Type:     model.TypeString,
				Required: true,
			})
		}
	}

	if src.RequestBody != nil {
		for _, content := range src.RequestBody.Content {
			if content.Schema == nil {
				continue
			}
			body, isList := unwrapArray(content.Schema)
			op.RequestBody = body
			op.RequestBodyRef = body.Ref
			op.RequestMediaType = content.MediaType
			op.BodyIsList = isList
			break
		}
	}

	for _, resp := range src.Responses {
		if !strings.HasPrefix(resp.StatusCode, "2") {
			continue
		}
		for _, content := range resp.Content {
			if content.Schema == nil {
				continue
			}
			body, isList := unwrapArray(content.Schema)
			op.ResponseRef = body.Ref
			op.ResponseIsList = isList
			break
		}
		if op.ResponseRef != "" {
			break
		}
	}

	security := src.Security
	if src.InheritsSecurity {
		security = spec.Security
	}
	op.Scopes = scopeUnion(security)
	return op
}

func paramSpec(p model.Parameter) ParamSpec {
	ps := ParamSpec{
		Name:        p.Name,
		In:          p.In,
		Required:    p.Required || p.In == model.LocationPath,
		Description: p.Description,
		Schema:      p.Schema,
	}
	if p.Schema != nil {
		ps.Type = p.Schema.Type
		ps.Default = p.Schema.Default
		ps.Enum = p.Schema.Enum
	}
	return ps
}

func unwrapArray(s *model.Schema) (*model.Schema, bool) {
	if s.Type == model.TypeArray && s.Items != nil {
		return s.Items, true
	}
	return s, false
}

func scopeUnion(reqs []model.SecurityRequirement) []string {
	seen := make(map[string]bool)
	var scopes []string
	for _, req := range reqs {
		for _, scope := range req.Scopes {
			if seen[scope] {
				continue
			}
			seen[scope] = true
			scopes = append(scopes, scope)
		}
	}
	return scopes
}

// PathTemplateParams returns the names of every "{name}" segment of path in
// order.
func PathTemplateParams(path string) []string {
	var names []string
	for _, seg := range strings.Split(path, "/") {
		if len(seg) > 2 && strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			names = append(names, seg[1:len(seg)-1])
		}
	}
	return names
}

// PathParamName returns the name of a trailing "{name}" path segment. That
// parameter is passed positionally; any others are passed by name.
func PathParamName(path string) string {
	last := path[strings.LastIndex(path, "/")+1:]
	if len(last) > 2 && strings.HasPrefix(last, "{") && strings.HasSuffix(last, "}") {
		return last[1 : len(last)-1]
	}
	return ""
}
