package dispatch_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kolah/oinkctl/internal/catalog"
	"github.com/kolah/oinkctl/internal/dispatch"
	"github.com/kolah/oinkctl/internal/logging"
	"github.com/kolah/oinkctl/internal/model"
	"github.com/kolah/oinkctl/internal/models"
	"github.com/kolah/oinkctl/internal/schema"
	"github.com/kolah/oinkctl/internal/testutil"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	unbound bool
	calls   []dispatch.Call
	bound   []string
	resp    any
	err     error
}

func (f *fakeClient) Method(tag, operationID string) (dispatch.Method, bool) {
	if f.unbound {
		return nil, false
	}
	f.bound = append(f.bound, tag+"/"+operationID)
	return func(_ context.Context, call dispatch.Call) (any, error) {
		f.calls = append(f.calls, call)
		return f.resp, f.err
	}, true
}

type fakeAuth struct {
	requested [][]string
	err       error
}

func (a *fakeAuth) Token(_ context.Context, scopes []string) (string, error) {
	a.requested = append(a.requested, scopes)
	if a.err != nil {
		return "", a.err
	}
	return "token-1", nil
}

type fixture struct {
	catalog  *catalog.Catalog
	registry *models.Registry
	client   *fakeClient
	auth     *fakeAuth
	disp     *dispatch.Dispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	spec := testutil.LoadSpec(t)
	registry, errs := models.Build(spec, schema.NewResolver(spec))
	require.Empty(t, errs)
	fx := &fixture{
		catalog:  catalog.Build(spec),
		registry: registry,
		client:   &fakeClient{},
		auth:     &fakeAuth{},
	}
	fx.disp = dispatch.New(fx.client, fx.auth, registry, logging.Discard())
	return fx
}

func (fx *fixture) op(t *testing.T, id string) *catalog.Operation {
	t.Helper()
	op, err := fx.catalog.FindByID(id)
	require.NoError(t, err)
	return op
}

func TestInvokeWithoutPathParameter(t *testing.T) {
	fx := newFixture(t)

	ops := fx.catalog.FindByTag("Config", "get")
	require.Equal(t, "get-config-scripts", ops[0].ID)

	res, err := fx.disp.Invoke(context.Background(), ops[0], dispatch.Input{})
	require.NoError(t, err)
	require.False(t, res.NotFound)

	require.Len(t, fx.client.calls, 1)
	call := fx.client.calls[0]
	require.Empty(t, call.Positional)
	require.Empty(t, call.Named)
	require.Equal(t, "token-1", call.Token)
	require.Equal(t, []string{"Config/get-config-scripts"}, fx.client.bound)
	require.Equal(t, [][]string{{"https://example.com/config/scripts.readonly"}}, fx.auth.requested)
}

func TestInvokeMissingPathParameter(t *testing.T) {
	fx := newFixture(t)

	op := fx.op(t, "delete-oauth-openid-client-by-inum")
	require.Equal(t, "inum", op.PathParamName)

	_, err := fx.disp.Invoke(context.Background(), op, dispatch.Input{})
	var missing *dispatch.MissingParameterError
	require.True(t, errors.As(err, &missing))
	require.Equal(t, "inum", missing.Name)
	require.ErrorContains(t, err, "requires a value for url-suffix inum")

	require.Empty(t, fx.client.calls)
	require.Empty(t, fx.auth.requested)
}

func TestInvokeMidPathParameter(t *testing.T) {
	op := &catalog.Operation{
		ID:     "get-client-secret",
		Method: model.MethodGet,
		Path:   "/clients/{inum}/secret",
		Tags:   []string{"OAuth - OpenID Connect - Clients"},
		Scopes: []string{"https://example.com/clients.readonly"},
		Parameters: []catalog.ParamSpec{
			{Name: "inum", In: model.LocationPath, Type: model.TypeString, Required: true},
		},
	}

	tests := []struct {
		name       string
		pathParams map[string]string
		wantNamed  map[string]any
		wantErr    string
	}{
		{
			name:       "supplied",
			pathParams: map[string]string{"inum": "abc"},
			wantNamed:  map[string]any{"inum": "abc"},
		},
		{
			name:    "omitted",
			wantErr: "requires a value for url-suffix inum",
		},
		{
			name:       "empty",
			pathParams: map[string]string{"inum": ""},
			wantErr:    "requires a value for url-suffix inum",
		},
		{
			name:       "unknown",
			pathParams: map[string]string{"inum": "abc", "kid": "k1"},
			wantErr:    "not a path parameter of get-client-secret",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t)

			_, err := fx.disp.Invoke(context.Background(), op, dispatch.Input{PathParams: tt.pathParams})
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				require.Empty(t, fx.client.calls)
				require.Empty(t, fx.auth.requested)
				return
			}
			require.NoError(t, err)
			require.Len(t, fx.client.calls, 1)
			require.Empty(t, fx.client.calls[0].Positional)
			require.Equal(t, tt.wantNamed, fx.client.calls[0].Named)
		})
	}
}

func TestInvokeArguments(t *testing.T) {
	fx := newFixture(t)

	body := map[string]any{"redirectUris": []any{"https://app/cb"}}
	_, err := fx.disp.Invoke(context.Background(), fx.op(t, "put-oauth-openid-client"), dispatch.Input{
		PathParams: map[string]string{"inum": "1800.abc"},
		Body:       body,
	})
	require.NoError(t, err)
	call := fx.client.calls[0]
	require.Equal(t, []any{"1800.abc"}, call.Positional)
	require.Equal(t, map[string]any{"body": body}, call.Named)

	_, err = fx.disp.Invoke(context.Background(), fx.op(t, "get-oauth-openid-clients"), dispatch.Input{
		Query: map[string]string{"limit": "10", "sortOrder": "descending"},
	})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"limit": int64(10), "sortOrder": "descending"}, fx.client.calls[1].Named)
}

func TestInvokeRejectsArguments(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		input dispatch.Input
	}{
		{"unknown query", "get-oauth-openid-clients", dispatch.Input{Query: map[string]string{"color": "red"}}},
		{"enum", "get-oauth-openid-clients", dispatch.Input{Query: map[string]string{"sortOrder": "sideways"}}},
		{"type", "get-oauth-openid-clients", dispatch.Input{Query: map[string]string{"limit": "ten"}}},
		{"path param as query", "get-oauth-openid-clients-by-inum", dispatch.Input{
			PathParams: map[string]string{"inum": "1"},
			Query:      map[string]string{"inum": "1"},
		}},
		{"unexpected path param", "get-config-scripts", dispatch.Input{PathParams: map[string]string{"inum": "1"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t)
			_, err := fx.disp.Invoke(context.Background(), fx.op(t, tt.id), tt.input)
			var argErr *dispatch.ArgumentError
			require.True(t, errors.As(err, &argErr), "got %v", err)
			require.Empty(t, fx.client.calls)
		})
	}
}

func TestInvokeNotFound(t *testing.T) {
	fx := newFixture(t)
	fx.client.err = &dispatch.TransportError{Status: 404, Body: `{"message":"gone"}`}

	res, err := fx.disp.Invoke(context.Background(), fx.op(t, "get-oauth-openid-clients-by-inum"), dispatch.Input{
		PathParams: map[string]string{"inum": "missing"},
	})
	require.NoError(t, err)
	require.True(t, res.NotFound)
	require.Nil(t, res.Data)
}

func TestInvokeTransportError(t *testing.T) {
	fx := newFixture(t)
	fx.client.err = &dispatch.TransportError{Status: 500, Reason: "Internal Server Error", Body: "boom"}

	_, err := fx.disp.Invoke(context.Background(), fx.op(t, "get-config-logging"), dispatch.Input{})
	var transport *dispatch.TransportError
	require.True(t, errors.As(err, &transport))
	require.Equal(t, 500, transport.Status)
	require.EqualError(t, err, "get-config-logging: request failed: 500 Internal Server Error: boom")
	require.Len(t, fx.client.calls, 1)
}

func TestInvokeAuthentication(t *testing.T) {
	fx := newFixture(t)
	noAuth := dispatch.New(fx.client, nil, fx.registry, logging.Discard())

	_, err := noAuth.Invoke(context.Background(), fx.op(t, "get-config-logging"), dispatch.Input{})
	var authErr *dispatch.AuthenticationError
	require.True(t, errors.As(err, &authErr))
	require.ErrorIs(t, err, dispatch.ErrNoAuthenticator)
	require.Equal(t, []string{"https://example.com/config/read-all"}, authErr.Scopes)

	fx.auth.err = errors.New("invalid_client")
	_, err = fx.disp.Invoke(context.Background(), fx.op(t, "get-config-logging"), dispatch.Input{})
	require.True(t, errors.As(err, &authErr))
	require.Empty(t, fx.client.calls)
}

func TestInvokeUnbound(t *testing.T) {
	fx := newFixture(t)
	fx.client.unbound = true

	_, err := fx.disp.Invoke(context.Background(), fx.op(t, "get-config-logging"), dispatch.Input{})
	require.ErrorIs(t, err, dispatch.ErrUnbound)
}

func TestInvokeFlattensResponse(t *testing.T) {
	fx := newFixture(t)
	fx.client.resp = []any{
		fx.registry.FromWire("Client", map[string]any{"inum": "1", "displayName": "a"}),
		fx.registry.FromWire("Client", map[string]any{"inum": "2", "displayName": "b"}),
	}

	res, err := fx.disp.Invoke(context.Background(), fx.op(t, "get-oauth-openid-clients"), dispatch.Input{})
	require.NoError(t, err)
	require.Equal(t, []any{
		map[string]any{"inum": "1", "displayName": "a"},
		map[string]any{"inum": "2", "displayName": "b"},
	}, res.Data)

	fx.client.resp = models.Value{Model: "Logging", Attrs: models.ValueTree{"logging_level": "INFO"}}
	res, err = fx.disp.Invoke(context.Background(), fx.op(t, "get-config-logging"), dispatch.Input{})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"loggingLevel": "INFO"}, res.Data)
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		input    string
		expected map[string]string
		wantErr  bool
	}{
		{"inum:1800.abc", map[string]string{"inum": "1800.abc"}, false},
		{"limit:10, pattern:web", map[string]string{"limit": "10", "pattern": "web"}, false},
		{"url:https://x", map[string]string{"url": "https://x"}, false},
		{"", map[string]string{}, false},
		{"inum", nil, true},
		{":x", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			args, err := dispatch.ParseArgs(tt.input)
			if tt.wantErr {
				var argErr *dispatch.ArgumentError
				require.True(t, errors.As(err, &argErr))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, args)
		})
	}
}

func TestParamsNode(t *testing.T) {
	fx := newFixture(t)

	n := dispatch.ParamsNode(fx.op(t, "get-oauth-openid-clients"))
	require.Len(t, n.Properties, 3)
	require.Empty(t, n.Required)
	require.Equal(t, []any{"ascending", "descending"}, n.Property("sortOrder").Enum)

	n = dispatch.ParamsNode(fx.op(t, "delete-oauth-openid-client-by-inum"))
	require.Equal(t, []string{"inum"}, n.Required)
}
