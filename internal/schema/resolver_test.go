package schema_test

import (
	"errors"
	"testing"

	"github.com/kolah/oinkctl/internal/model"
	"github.com/kolah/oinkctl/internal/schema"
	"github.com/kolah/oinkctl/internal/testutil"
	"github.com/stretchr/testify/require"
)

func propertyNames(n *schema.Node) []string {
	var names []string
	for _, p := range n.Properties {
		names = append(names, p.Name)
	}
	return names
}

func TestResolveAllOf(t *testing.T) {
	r := schema.NewResolver(testutil.LoadSpec(t))

	scope, err := r.ResolveRef("#/components/schemas/Scope")
	require.NoError(t, err)
	require.Equal(t, schema.KindObject, scope.Kind)
	require.Equal(t, "Scope", scope.SourceName)
	require.Equal(t, []string{"dn", "inum", "id", "description", "scopeType"}, propertyNames(scope))
	require.Equal(t, []string{"id"}, scope.Required)

	// The second member's description replaces the base one.
	require.Equal(t, "Scope description", scope.Property("description").Title)
}

func TestResolveAllOfLaterMemberWins(t *testing.T) {
	spec := &model.Spec{
		Schemas: []model.Schema{
			{Name: "A", Type: model.TypeObject, Properties: []model.Property{
				{Name: "x", Schema: &model.Schema{Type: model.TypeString}},
				{Name: "y", Schema: &model.Schema{Type: model.TypeString}},
			}},
			{Name: "B", Type: model.TypeObject, Properties: []model.Property{
				{Name: "y", Schema: &model.Schema{Type: model.TypeInteger}},
				{Name: "z", Schema: &model.Schema{Type: model.TypeBoolean}},
			}},
			{Name: "C", AllOf: []*model.Schema{
				{Ref: model.SchemaRef("A")},
				{Ref: model.SchemaRef("B")},
			}},
		},
	}

	n, err := schema.NewResolver(spec).ResolveRef("C")
	require.NoError(t, err)
	require.Equal(t, []string{"x", "y", "z"}, propertyNames(n))
	require.Equal(t, model.TypeInteger, n.Property("y").Type)
	require.Equal(t, "C", n.SourceName)
}

func TestResolveNestedReferences(t *testing.T) {
	r := schema.NewResolver(testutil.LoadSpec(t))

	client, err := r.ResolveRef("Client")
	require.NoError(t, err)

	attrs := client.Property("attributes")
	require.Equal(t, schema.KindObject, attrs.Kind)
	require.Equal(t, "ClientAttributes", attrs.SourceName)

	custom := client.Property("customAttributes")
	require.Equal(t, schema.KindArray, custom.Kind)
	require.True(t, custom.HasObjectItems())
	require.Equal(t, "Attribute", custom.Items.SourceName)
	require.Equal(t, "Attribute", custom.SourceName)

	grants := client.Property("grantTypes")
	require.Equal(t, schema.KindArray, grants.Kind)
	require.False(t, grants.HasObjectItems())
	require.Len(t, grants.Items.Enum, 3)

	require.Equal(t, false, client.Property("disabled").Default)
}

func TestResolveIsMemoized(t *testing.T) {
	r := schema.NewResolver(testutil.LoadSpec(t))

	first, err := r.ResolveRef("#/components/schemas/Client")
	require.NoError(t, err)
	second, err := r.ResolveRef("Client")
	require.NoError(t, err)
	require.Same(t, first, second)
}

func TestResolveMissingReference(t *testing.T) {
	r := schema.NewResolver(testutil.LoadSpec(t))

	_, err := r.ResolveRef("#/components/schemas/Nope")
	var resErr *schema.ResolutionError
	require.True(t, errors.As(err, &resErr))
	require.Equal(t, "#/components/schemas/Nope", resErr.Ref)
	require.Contains(t, err.Error(), "Nope")
}

func TestResolveDetectsCycles(t *testing.T) {
	tests := []struct {
		name    string
		schemas []model.Schema
		ref     string
	}{
		{
			name: "direct",
			schemas: []model.Schema{
				{Name: "Node", Type: model.TypeObject, Properties: []model.Property{
					{Name: "parent", Schema: &model.Schema{Ref: model.SchemaRef("Node")}},
				}},
			},
			ref: "Node",
		},
		{
			name: "through array items",
			schemas: []model.Schema{
				{Name: "Tree", Type: model.TypeObject, Properties: []model.Property{
					{Name: "children", Schema: &model.Schema{
						Type:  model.TypeArray,
						Items: &model.Schema{Ref: model.SchemaRef("Tree")},
					}},
				}},
			},
			ref: "Tree",
		},
		{
			name: "through a chain",
			schemas: []model.Schema{
				{Name: "A", Type: model.TypeObject, Properties: []model.Property{
					{Name: "b", Schema: &model.Schema{Ref: model.SchemaRef("B")}},
				}},
				{Name: "B", AllOf: []*model.Schema{{Ref: model.SchemaRef("A")}}},
			},
			ref: "A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := schema.NewResolver(&model.Spec{Schemas: tt.schemas})
			_, err := r.ResolveRef(tt.ref)
			var resErr *schema.ResolutionError
			require.True(t, errors.As(err, &resErr))
			require.NotEmpty(t, resErr.Cycle)
			require.Equal(t, resErr.Cycle[0], resErr.Cycle[len(resErr.Cycle)-1])
		})
	}
}

func TestResolveSharedReferenceIsNotACycle(t *testing.T) {
	spec := &model.Spec{
		Schemas: []model.Schema{
			{Name: "Leaf", Type: model.TypeString},
			{Name: "Pair", Type: model.TypeObject, Properties: []model.Property{
				{Name: "left", Schema: &model.Schema{Ref: model.SchemaRef("Leaf")}},
				{Name: "right", Schema: &model.Schema{Ref: model.SchemaRef("Leaf")}},
			}},
		},
	}
	n, err := schema.NewResolver(spec).ResolveRef("Pair")
	require.NoError(t, err)
	require.Same(t, n.Property("left"), n.Property("right"))
}

func TestResolveInline(t *testing.T) {
	r := schema.NewResolver(testutil.LoadSpec(t))

	n, err := r.Resolve(&model.Schema{
		Type:  model.TypeArray,
		Items: &model.Schema{Ref: model.SchemaRef("PatchRequest")},
	})
	require.NoError(t, err)
	require.Equal(t, schema.KindArray, n.Kind)
	require.Equal(t, "PatchRequest", n.Items.SourceName)
	require.Equal(t, []string{"op", "path"}, n.Items.Required)

	_, err = r.Resolve(nil)
	require.Error(t, err)
}
