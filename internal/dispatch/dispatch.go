// Package dispatch invokes catalogued operations through a REST client:
// path and query arguments are checked, a token is obtained for the
// operation's scopes, and the typed response is flattened back to wire names.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/kolah/oinkctl/internal/catalog"
	"github.com/kolah/oinkctl/internal/model"
	"github.com/kolah/oinkctl/internal/models"
)

// Authenticator supplies bearer tokens. Caching and refreshing tokens is up
// to the implementation.
type Authenticator interface {
	Token(ctx context.Context, scopes []string) (string, error)
}

// Call carries the arguments of one client method invocation. The trailing
// path parameter, when the operation has one, is the only positional
// argument; other path parameters, query parameters and the body ("body")
// are named.
type Call struct {
	Operation  *catalog.Operation
	Positional []any
	Named      map[string]any
	Token      string
}

// Method is a client callable bound to one operation.
type Method func(ctx context.Context, call Call) (any, error)

// Client resolves the method generated for an operation of a tag.
type Client interface {
	Method(tag, operationID string) (Method, bool)
}

type Input struct {
	PathParams map[string]string
	Query      map[string]string
	Body       any
}

// Result of a successful call. A 404 response is reported as NotFound rather
// than as an error.
type Result struct {
	Data     any
	NotFound bool
}

type Dispatcher struct {
	client   Client
	auth     Authenticator
	registry *models.Registry
	logger   *slog.Logger
}

// New creates a dispatcher. auth may be nil when no credentials are
// configured; operations that need scopes then fail with an
// *AuthenticationError.
func New(client Client, auth Authenticator, registry *models.Registry, logger *slog.Logger) *Dispatcher {
	if registry == nil {
		registry = models.NewRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{client: client, auth: auth, registry: registry, logger: logger}
}

func (d *Dispatcher) Invoke(ctx context.Context, op *catalog.Operation, in Input) (*Result, error) {
	call := Call{Operation: op}

	for name := range in.PathParams {
		if p, ok := op.Param(name); !ok || p.In != model.LocationPath {
			return nil, &ArgumentError{Name: name, Value: in.PathParams[name], Reason: "not a path parameter of " + op.ID}
		}
	}

	named, err := QueryArgs(op, in.Query)
	if err != nil {
		return nil, err
	}
	for _, p := range op.PathParams() {
		value := in.PathParams[p.Name]
		switch {
		case value == "":
			return nil, &MissingParameterError{Operation: op.ID, Flag: "url-suffix", Name: p.Name}
		case p.Name == op.PathParamName:
			call.Positional = []any{value}
		default:
			named[p.Name] = value
		}
	}
	if in.Body != nil {
		named["body"] = in.Body
	}
	call.Named = named

	method, err := d.bind(op)
	if err != nil {
		return nil, err
	}

	if len(op.Scopes) > 0 {
		if d.auth == nil {
			return nil, &AuthenticationError{Scopes: op.Scopes, Err: ErrNoAuthenticator}
		}
		token, err := d.auth.Token(ctx, op.Scopes)
		if err != nil {
			return nil, &AuthenticationError{Scopes: op.Scopes, Err: err}
		}
		call.Token = token
	}

	d.logger.Debug("invoking operation",
		"operation", op.ID,
		"method", op.Method,
		"path", op.Path,
		"scopes", len(op.Scopes),
	)

	resp, err := method(ctx, call)
	if err != nil {
		var transport *TransportError
		if errors.As(err, &transport) && transport.Status == http.StatusNotFound {
			d.logger.Debug("operation returned not found", "operation", op.ID)
			return &Result{NotFound: true}, nil
		}
		return nil, fmt.Errorf("%s: %w", op.ID, err)
	}
	return &Result{Data: d.registry.ToWire(resp)}, nil
}

func (d *Dispatcher) bind(op *catalog.Operation) (Method, error) {
	for _, tag := range op.Tags {
		if m, ok := d.client.Method(tag, op.ID); ok {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w %s", ErrUnbound, op.ID)
}
