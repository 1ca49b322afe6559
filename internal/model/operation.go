package model

type Operation struct {
	ID          string
	Method      Method
	Path        string
	Summary     string
	Description string
	Tags        []string
	Parameters  []Parameter
	RequestBody *RequestBody
	Responses   []Response
	Deprecated  bool
	Security    []SecurityRequirement
	// InheritsSecurity is set when the operation declares no security block
	// and the document-level requirements apply.
	InheritsSecurity bool
	Extensions       OperationExtensions
}

// OperationExtensions holds x-cli-* values steering the admin client.
type OperationExtensions struct {
	// Ignore hides the operation from the interactive menu.
	Ignore bool
	// GetData names the GET operation whose result seeds a PUT form.
	GetData string
}

type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
)

type ParameterLocation string

const (
	LocationPath   ParameterLocation = "path"
	LocationQuery  ParameterLocation = "query"
	LocationHeader ParameterLocation = "header"
	LocationCookie ParameterLocation = "cookie"
)

type Parameter struct {
	Name        string
	In          ParameterLocation
	Description string
	Required    bool
	Schema      *Schema
}

type RequestBody struct {
	Description string
	Required    bool
	Content     []MediaTypeContent
}

type MediaTypeContent struct {
	MediaType string
	Schema    *Schema
}

type Response struct {
	StatusCode  string
	Description string
	Content     []MediaTypeContent
}

type SecurityRequirement struct {
	Name   string
	Scopes []string
}
