package model

import "strings"

type Spec struct {
	Info       Info
	Servers    []Server
	Tags       []Tag
	Operations []Operation
	Schemas    []Schema
	Security   []SecurityRequirement // document-level requirements
	Schemes    []SecurityScheme
}

// SchemaByRef returns a schema by its $ref path (e.g., "#/components/schemas/Client").
// Returns nil if the schema is not found.
func (s *Spec) SchemaByRef(ref string) *Schema {
	name := RefName(ref)
	if name == "" {
		return nil
	}
	for i := range s.Schemas {
		if s.Schemas[i].Name == name {
			return &s.Schemas[i]
		}
	}
	return nil
}

// TokenURL returns the token endpoint of the first OAuth2 scheme offering
// the client-credentials flow.
func (s *Spec) TokenURL() string {
	for _, scheme := range s.Schemes {
		if scheme.Type != SecurityTypeOAuth2 || scheme.Flows == nil || scheme.Flows.ClientCredentials == nil {
			continue
		}
		if url := scheme.Flows.ClientCredentials.TokenURL; url != "" {
			return url
		}
	}
	return ""
}

// RefName returns the last segment of a $ref pointer.
func RefName(ref string) string {
	if ref == "" {
		return ""
	}
	parts := strings.Split(ref, "/")
	return parts[len(parts)-1]
}

// SchemaRef builds a component schema pointer from its name.
func SchemaRef(name string) string {
	return "#/components/schemas/" + name
}

type Info struct {
	Title       string
	Description string
	Version     string
}

type Server struct {
	URL         string
	Description string
}

type Tag struct {
	Name        string
	Description string
	Ignore      bool // x-cli-ignore
}
