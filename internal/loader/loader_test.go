package loader_test

import (
	"testing"

	"github.com/kolah/oinkctl/internal/loader"
	"github.com/kolah/oinkctl/internal/model"
	"github.com/kolah/oinkctl/internal/testutil"
	"github.com/stretchr/testify/require"
)

func findOperation(t *testing.T, spec *model.Spec, id string) model.Operation {
	t.Helper()
	for _, op := range spec.Operations {
		if op.ID == id {
			return op
		}
	}
	t.Fatalf("operation %q not found", id)
	return model.Operation{}
}

func TestLoadBytes(t *testing.T) {
	result, err := loader.LoadBytes([]byte(testutil.AdminSpec))
	require.NoError(t, err)
	require.Equal(t, "3.0.1", result.Version)
	require.NotNil(t, result.Model)
	require.NotEmpty(t, result.RawData)
}

func TestLoadBytesRejectsSwagger2(t *testing.T) {
	_, err := loader.LoadBytes([]byte("swagger: \"2.0\"\ninfo:\n  title: x\n  version: \"1\"\npaths: {}\n"))
	require.Error(t, err)
}

func TestTransform(t *testing.T) {
	spec := testutil.LoadSpec(t)

	require.Equal(t, "Admin Config API", spec.Info.Title)
	require.Len(t, spec.Servers, 1)
	require.Len(t, spec.Operations, 14)
	require.Len(t, spec.Tags, 6)
	require.True(t, spec.Tags[5].Ignore)
	require.False(t, spec.Tags[0].Ignore)

	t.Run("extensions", func(t *testing.T) {
		require.True(t, findOperation(t, spec, "get-hidden-config").Extensions.Ignore)
		put := findOperation(t, spec, "put-oauth-openid-client")
		require.Equal(t, "get-oauth-openid-clients-by-inum", put.Extensions.GetData)
		require.False(t, put.Extensions.Ignore)
	})

	t.Run("references are kept", func(t *testing.T) {
		client := spec.SchemaByRef("#/components/schemas/Client")
		require.NotNil(t, client)
		require.Equal(t, []string{"redirectUris"}, client.Required)

		var attrs, custom *model.Schema
		for _, p := range client.Properties {
			switch p.Name {
			case "attributes":
				attrs = p.Schema
			case "customAttributes":
				custom = p.Schema
			}
		}
		require.Equal(t, "#/components/schemas/ClientAttributes", attrs.Ref)
		require.Equal(t, model.TypeArray, custom.Type)
		require.Equal(t, "#/components/schemas/Attribute", custom.Items.Ref)
	})

	t.Run("defaults and enums are decoded", func(t *testing.T) {
		op := findOperation(t, spec, "get-oauth-openid-clients")
		require.Len(t, op.Parameters, 3)
		require.Equal(t, model.LocationQuery, op.Parameters[0].In)
		require.Equal(t, 50, op.Parameters[0].Schema.Default)
		require.Equal(t, []any{"ascending", "descending"}, op.Parameters[2].Schema.Enum)
	})

	t.Run("security", func(t *testing.T) {
		require.Len(t, spec.Security, 1)
		require.Equal(t, []string{"https://example.com/config/read-all"}, spec.Security[0].Scopes)

		logging := findOperation(t, spec, "get-config-logging")
		require.True(t, logging.InheritsSecurity)

		clients := findOperation(t, spec, "get-oauth-openid-clients")
		require.False(t, clients.InheritsSecurity)
		require.Equal(t, "oauth2", clients.Security[0].Name)

		require.Len(t, spec.Schemes, 1)
		require.Equal(t, "https://admin.example.com/token", spec.Schemes[0].Flows.ClientCredentials.TokenURL)
		require.Equal(t, "https://admin.example.com/token", spec.TokenURL())
	})

	t.Run("request bodies", func(t *testing.T) {
		patch := findOperation(t, spec, "patch-oauth-openid-client-by-inum")
		require.NotNil(t, patch.RequestBody)
		require.Equal(t, "application/json-patch+json", patch.RequestBody.Content[0].MediaType)
		require.Equal(t, model.TypeArray, patch.RequestBody.Content[0].Schema.Type)
	})
}
