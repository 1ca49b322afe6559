package models_test

import (
	"testing"

	"github.com/kolah/oinkctl/internal/models"
	"github.com/kolah/oinkctl/internal/schema"
	"github.com/kolah/oinkctl/internal/testutil"
	"github.com/stretchr/testify/require"
)

func buildRegistry(t *testing.T) *models.Registry {
	t.Helper()
	spec := testutil.LoadSpec(t)
	reg, errs := models.Build(spec, schema.NewResolver(spec))
	require.Empty(t, errs)
	return reg
}

func TestDescriptor(t *testing.T) {
	reg := buildRegistry(t)

	d, ok := reg.Lookup("Client")
	require.True(t, ok)
	require.Equal(t, "Client", d.Name)
	require.Equal(t, "redirectUris", d.AttributeMap["redirect_uris"])
	require.Equal(t, "displayName", d.AttributeMap["display_name"])

	tests := []struct {
		attr     string
		expected string
	}{
		{"inum", "str"},
		{"redirect_uris", "list[str]"},
		{"access_token_lifetime", "int"},
		{"disabled", "bool"},
		{"attributes", "ClientAttributes"},
		{"custom_attributes", "list[Attribute]"},
	}
	for _, tt := range tests {
		t.Run(tt.attr, func(t *testing.T) {
			require.Equal(t, tt.expected, d.AttributeTypes[tt.attr].String())
		})
	}

	patch, ok := reg.Lookup("PatchRequest")
	require.True(t, ok)
	require.Equal(t, "dict(str, object)", patch.AttributeTypes["value"].String())
}

func TestAttributeName(t *testing.T) {
	reg := buildRegistry(t)
	require.Equal(t, "logging_level", reg.AttributeName("Logging", "loggingLevel"))
	require.Equal(t, "some_field", reg.AttributeName("Unknown", "someField"))
}

func TestDescribeCollision(t *testing.T) {
	n := &schema.Node{
		Kind:       schema.KindObject,
		SourceName: "Odd",
		Properties: []schema.Property{
			{Name: "displayName", Node: &schema.Node{}},
			{Name: "display_name", Node: &schema.Node{}},
		},
	}
	d := models.Describe(n)
	require.Equal(t, []string{"display_name", "display_name_2"}, d.Attributes)
	require.Equal(t, "display_name", d.AttributeMap["display_name_2"])
}

func TestFromWireToWire(t *testing.T) {
	reg := buildRegistry(t)

	wire := map[string]any{
		"inum":                "1800.abc",
		"displayName":         "web",
		"accessTokenLifetime": float64(3600),
		"attributes": map[string]any{
			"additionalAudience": []any{"api"},
		},
		"customAttributes": []any{
			map[string]any{"name": "tier", "values": []any{"gold"}},
		},
		"unknownField": "kept",
	}

	v, ok := reg.FromWire("Client", wire).(models.Value)
	require.True(t, ok)
	require.Equal(t, "Client", v.Model)
	require.Equal(t, "web", v.Attrs["display_name"])
	require.Equal(t, int64(3600), v.Attrs["access_token_lifetime"])
	require.IsType(t, models.Value{}, v.Attrs["attributes"])
	require.Equal(t, "kept", v.Attrs["unknownField"])

	back := reg.ToWire(v)
	require.Equal(t, map[string]any{
		"inum":                "1800.abc",
		"displayName":         "web",
		"accessTokenLifetime": int64(3600),
		"attributes": map[string]any{
			"additionalAudience": []any{"api"},
		},
		"customAttributes": []any{
			map[string]any{"name": "tier", "values": []any{"gold"}},
		},
		"unknownField": "kept",
	}, back)
}

func TestToWireCollection(t *testing.T) {
	reg := buildRegistry(t)

	list := reg.FromWire("Logging", []any{
		map[string]any{"loggingLevel": "DEBUG"},
		map[string]any{"loggingLevel": "INFO"},
	})
	require.Equal(t, []any{
		map[string]any{"loggingLevel": "DEBUG"},
		map[string]any{"loggingLevel": "INFO"},
	}, reg.ToWire(list))
}

func TestToWireTree(t *testing.T) {
	reg := buildRegistry(t)

	// A form result for a Client: nested trees are typed by the descriptor.
	v := models.Value{Model: "Client", Attrs: models.ValueTree{
		"redirect_uris": []any{"https://app/cb"},
		"attributes": models.ValueTree{
			"run_introspection_script_before_jwt_creation": true,
		},
		"custom_attributes": []any{
			models.ValueTree{"name": "tier"},
		},
	}}
	require.Equal(t, map[string]any{
		"redirectUris": []any{"https://app/cb"},
		"attributes": map[string]any{
			"runIntrospectionScriptBeforeJwtCreation": true,
		},
		"customAttributes": []any{
			map[string]any{"name": "tier"},
		},
	}, reg.ToWire(v))
}

func TestFromWireUnknownSchema(t *testing.T) {
	reg := buildRegistry(t)
	payload := map[string]any{"a": 1}
	require.Equal(t, payload, reg.FromWire("Nope", payload))
	require.Equal(t, "plain", reg.FromWire("Client", "plain"))
}
