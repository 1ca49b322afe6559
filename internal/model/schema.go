package model

type Schema struct {
	Name        string
	Title       string
	Description string
	Type        SchemaType
	Format      string
	ReadOnly    bool
	Default     any

	// Object properties
	Properties []Property
	Required   []string

	// Array items
	Items *Schema

	// Enum values
	Enum []any

	// Composition
	AllOf []*Schema

	// Reference
	Ref string
}

type SchemaType string

const (
	TypeString  SchemaType = "string"
	TypeNumber  SchemaType = "number"
	TypeInteger SchemaType = "integer"
	TypeBoolean SchemaType = "boolean"
	TypeArray   SchemaType = "array"
	TypeObject  SchemaType = "object"
	TypeNull    SchemaType = "null"
)

type Property struct {
	Name   string
	Schema *Schema
}

type SecurityScheme struct {
	Name   string
	Type   SecuritySchemeType
	Flows  *OAuthFlows
	Scheme string
}

type SecuritySchemeType string

const (
	SecurityTypeAPIKey        SecuritySchemeType = "apiKey"
	SecurityTypeHTTP          SecuritySchemeType = "http"
	SecurityTypeOAuth2        SecuritySchemeType = "oauth2"
	SecurityTypeOpenIDConnect SecuritySchemeType = "openIdConnect"
)

type OAuthFlows struct {
	ClientCredentials *OAuthFlow
}

type OAuthFlow struct {
	TokenURL string
}
