package loader

import (
	"strings"

	"github.com/kolah/oinkctl/internal/model"
	"github.com/pb33f/libopenapi/datamodel/high/base"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
	"github.com/pb33f/libopenapi/orderedmap"
	"go.yaml.in/yaml/v4"
)

const (
	extIgnore  = "x-cli-ignore"
	extGetData = "x-cli-getdata"
)

type transformer struct {
	componentSchemas map[*base.Schema]string
}

// Transform converts the libopenapi model into the plain model used by the
// engine. Component references are kept as Ref-only schemas; expanding them
// is left to the schema resolver, which guards against cycles.
func Transform(result *Result) (*model.Spec, error) {
	doc := result.Model.Model

	t := &transformer{
		componentSchemas: make(map[*base.Schema]string),
	}

	if doc.Components != nil && doc.Components.Schemas != nil {
		for name, schemaProxy := range doc.Components.Schemas.FromOldest() {
			if s := schemaProxy.Schema(); s != nil {
				t.componentSchemas[s] = model.SchemaRef(name)
			}
		}
	}

	spec := &model.Spec{
		Info:     transformInfo(doc.Info),
		Servers:  transformServers(doc.Servers),
		Tags:     transformTags(doc.Tags),
		Security: transformSecurity(doc.Security),
	}

	if doc.Components != nil && doc.Components.Schemas != nil {
		for name, schemaProxy := range doc.Components.Schemas.FromOldest() {
			schema := t.transformSchema(name, schemaProxy.Schema())
			if schema == nil {
				continue
			}
			spec.Schemas = append(spec.Schemas, *schema)
		}
	}

	if doc.Paths != nil && doc.Paths.PathItems != nil {
		for pathStr, pathItem := range doc.Paths.PathItems.FromOldest() {
			spec.Operations = append(spec.Operations, t.transformPath(pathStr, pathItem)...)
		}
	}

	if doc.Components != nil && doc.Components.SecuritySchemes != nil {
		for name, scheme := range doc.Components.SecuritySchemes.FromOldest() {
			spec.Schemes = append(spec.Schemes, transformSecurityScheme(name, scheme))
		}
	}

	return spec, nil
}

func transformInfo(info *base.Info) model.Info {
	if info == nil {
		return model.Info{}
	}
	return model.Info{
		Title:       info.Title,
		Description: info.Description,
		Version:     info.Version,
	}
}

func transformServers(servers []*v3.Server) []model.Server {
	var result []model.Server
	for _, s := range servers {
		result = append(result, model.Server{
			URL:         s.URL,
			Description: s.Description,
		})
	}
	return result
}

func transformTags(tags []*base.Tag) []model.Tag {
	var result []model.Tag
	for _, t := range tags {
		result = append(result, model.Tag{
			Name:        t.Name,
			Description: t.Description,
			Ignore:      extensionBool(t.Extensions, extIgnore),
		})
	}
	return result
}

// transformPath returns the operations of one path item in a fixed method
// order.
func (t *transformer) transformPath(pathStr string, pathItem *v3.PathItem) []model.Operation {
	var ops []model.Operation
	methods := []struct {
		method model.Method
		op     *v3.Operation
	}{
		{model.MethodGet, pathItem.Get},
		{model.MethodPost, pathItem.Post},
		{model.MethodPut, pathItem.Put},
		{model.MethodDelete, pathItem.Delete},
		{model.MethodPatch, pathItem.Patch},
		{model.MethodHead, pathItem.Head},
		{model.MethodOptions, pathItem.Options},
	}

	for _, m := range methods {
		if m.op == nil {
			continue
		}
		ops = append(ops, t.transformOperation(m.method, pathStr, m.op, pathItem.Parameters))
	}
	return ops
}

func (t *transformer) transformOperation(method model.Method, path string, op *v3.Operation, shared []*v3.Parameter) model.Operation {
	operation := model.Operation{
		ID:          op.OperationId,
		Method:      method,
		Path:        path,
		Summary:     op.Summary,
		Description: op.Description,
		Tags:        op.Tags,
		Deprecated:  boolPtr(op.Deprecated),
		Extensions: model.OperationExtensions{
			Ignore:  extensionBool(op.Extensions, extIgnore),
			GetData: extensionString(op.Extensions, extGetData),
		},
	}

	// Path-item parameters apply unless the operation overrides them by name.
	declared := make(map[string]bool)
	for _, p := range op.Parameters {
		declared[p.Name+"|"+p.In] = true
	}
	for _, p := range shared {
		if declared[p.Name+"|"+p.In] {
			continue
		}
		operation.Parameters = append(operation.Parameters, t.transformParameter(p))
	}
	for _, p := range op.Parameters {
		operation.Parameters = append(operation.Parameters, t.transformParameter(p))
	}

	if op.RequestBody != nil {
		operation.RequestBody = t.transformRequestBody(op.RequestBody)
	}

	if op.Responses != nil && op.Responses.Codes != nil {
		for code, resp := range op.Responses.Codes.FromOldest() {
			operation.Responses = append(operation.Responses, t.transformResponse(code, resp))
		}
	}

	if op.Security == nil {
		operation.InheritsSecurity = true
	} else {
		operation.Security = transformSecurity(op.Security)
	}

	return operation
}

func transformSecurity(reqs []*base.SecurityRequirement) []model.SecurityRequirement {
	var result []model.SecurityRequirement
	for _, secReq := range reqs {
		if secReq == nil || secReq.Requirements == nil {
			continue
		}
		for name, scopes := range secReq.Requirements.FromOldest() {
			result = append(result, model.SecurityRequirement{
				Name:   name,
				Scopes: scopes,
			})
		}
	}
	return result
}

func (t *transformer) transformParameter(p *v3.Parameter) model.Parameter {
	param := model.Parameter{
		Name:        p.Name,
		In:          model.ParameterLocation(strings.ToLower(p.In)),
		Description: p.Description,
		Required:    boolPtr(p.Required),
	}

	if p.Schema != nil {
		param.Schema = t.transformSchemaProxy(p.Schema)
	} else if p.Content != nil {
		for _, content := range p.Content.FromOldest() {
			if content.Schema != nil {
				param.Schema = t.transformSchemaProxy(content.Schema)
				break
			}
		}
	}

	return param
}

func (t *transformer) transformRequestBody(rb *v3.RequestBody) *model.RequestBody {
	body := &model.RequestBody{
		Description: rb.Description,
		Required:    boolPtr(rb.Required),
	}

	if rb.Content != nil {
		for mediaType, content := range rb.Content.FromOldest() {
			mtc := model.MediaTypeContent{MediaType: mediaType}
			if content.Schema != nil {
				mtc.Schema = t.transformSchemaProxy(content.Schema)
			}
			body.Content = append(body.Content, mtc)
		}
	}

	return body
}

func (t *transformer) transformResponse(code string, resp *v3.Response) model.Response {
	response := model.Response{
		StatusCode:  code,
		Description: resp.Description,
	}

	if resp.Content != nil {
		for mediaType, content := range resp.Content.FromOldest() {
			mtc := model.MediaTypeContent{MediaType: mediaType}
			if content.Schema != nil {
				mtc.Schema = t.transformSchemaProxy(content.Schema)
			}
			response.Content = append(response.Content, mtc)
		}
	}

	return response
}

// transformSchemaProxy never expands a reference: self-referencing component
// schemas would otherwise recurse here without bound.
func (t *transformer) transformSchemaProxy(proxy *base.SchemaProxy) *model.Schema {
	if proxy == nil {
		return nil
	}

	if ref := proxy.GetReference(); ref != "" {
		return &model.Schema{Ref: ref}
	}

	s := proxy.Schema()
	if resolved, ok := t.componentSchemas[s]; ok && s != nil {
		return &model.Schema{Ref: resolved}
	}

	return t.transformSchema("", s)
}

func (t *transformer) transformSchema(name string, s *base.Schema) *model.Schema {
	if s == nil {
		return nil
	}

	schema := &model.Schema{
		Name:        name,
		Title:       s.Title,
		Description: s.Description,
		Format:      s.Format,
		ReadOnly:    boolPtr(s.ReadOnly),
		Default:     nodeValue(s.Default),
		Required:    s.Required,
	}

	if len(s.Type) > 0 {
		schema.Type = model.SchemaType(s.Type[0])
	}

	for _, e := range s.Enum {
		schema.Enum = append(schema.Enum, nodeValue(e))
	}

	if s.Properties != nil {
		for propName, propProxy := range s.Properties.FromOldest() {
			schema.Properties = append(schema.Properties, model.Property{
				Name:   propName,
				Schema: t.transformSchemaProxy(propProxy),
			})
		}
	}

	if s.Items != nil && s.Items.IsA() {
		schema.Items = t.transformSchemaProxy(s.Items.A)
	}

	for _, proxy := range s.AllOf {
		if member := t.transformSchemaProxy(proxy); member != nil {
			schema.AllOf = append(schema.AllOf, member)
		}
	}

	return schema
}

func transformSecurityScheme(name string, scheme *v3.SecurityScheme) model.SecurityScheme {
	ss := model.SecurityScheme{
		Name:   name,
		Type:   model.SecuritySchemeType(scheme.Type),
		Scheme: scheme.Scheme,
	}

	if scheme.Flows != nil {
		ss.Flows = &model.OAuthFlows{}
		if scheme.Flows.ClientCredentials != nil {
			ss.Flows.ClientCredentials = transformOAuthFlow(scheme.Flows.ClientCredentials)
		}
	}

	return ss
}

func transformOAuthFlow(flow *v3.OAuthFlow) *model.OAuthFlow {
	return &model.OAuthFlow{TokenURL: flow.TokenUrl}
}

// nodeValue decodes a YAML node into a plain Go value, keeping integers as
// int and falling back to the scalar text when decoding fails.
func nodeValue(node *yaml.Node) any {
	if node == nil {
		return nil
	}
	var v any
	if err := node.Decode(&v); err != nil {
		return node.Value
	}
	return v
}

func extensionNode(extensions *orderedmap.Map[string, *yaml.Node], key string) *yaml.Node {
	if extensions == nil {
		return nil
	}
	for pair := extensions.First(); pair != nil; pair = pair.Next() {
		if pair.Key() == key {
			return pair.Value()
		}
	}
	return nil
}

func extensionBool(extensions *orderedmap.Map[string, *yaml.Node], key string) bool {
	node := extensionNode(extensions, key)
	return node != nil && node.Kind == yaml.ScalarNode && node.Value == "true"
}

func extensionString(extensions *orderedmap.Map[string, *yaml.Node], key string) string {
	node := extensionNode(extensions, key)
	if node == nil || node.Kind != yaml.ScalarNode {
		return ""
	}
	return node.Value
}

func boolPtr(b *bool) bool {
	if b == nil {
		return false
	}
	return *b
}
