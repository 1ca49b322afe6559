// Package restclient is the HTTP implementation of the dispatcher's client:
// one generic method serves every catalogued operation.
package restclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/pb33f/libopenapi"
	validator "github.com/pb33f/libopenapi-validator"

	"github.com/kolah/oinkctl/internal/catalog"
	"github.com/kolah/oinkctl/internal/dispatch"
	"github.com/kolah/oinkctl/internal/model"
	"github.com/kolah/oinkctl/internal/models"
)

const userAgent = "oinkctl"

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Registry   *models.Registry
	// Validator, when set, checks every request against the API document
	// before it is sent.
	Validator validator.Validator
	Logger    *slog.Logger
}

type Client struct {
	catalog   *catalog.Catalog
	baseURL   string
	http      *http.Client
	registry  *models.Registry
	validator validator.Validator
	logger    *slog.Logger
}

func New(c *catalog.Catalog, opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	registry := opts.Registry
	if registry == nil {
		registry = models.NewRegistry()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		catalog:   c,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		http:      httpClient,
		registry:  registry,
		validator: opts.Validator,
		logger:    logger,
	}
}

// NewRequestValidator builds a request validator for the loaded document.
func NewRequestValidator(doc libopenapi.Document) (validator.Validator, error) {
	v, errs := validator.NewValidator(doc)
	if len(errs) > 0 {
		return nil, fmt.Errorf("build request validator: %w", errs[0])
	}
	return v, nil
}

func (c *Client) Method(tag, operationID string) (dispatch.Method, bool) {
	op, err := c.catalog.FindByID(operationID)
	if err != nil || !op.HasTag(tag) {
		return nil, false
	}
	return c.invoke, true
}

func (c *Client) invoke(ctx context.Context, call dispatch.Call) (any, error) {
	op := call.Operation
	target, err := c.url(op, call)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if body, ok := call.Named["body"]; ok {
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
	}

	if c.validator != nil {
		req, err := c.newRequest(ctx, op, target, payload, call.Token)
		if err != nil {
			return nil, err
		}
		if valid, errs := c.validator.ValidateHttpRequestSync(req); !valid {
			return nil, &ValidationError{Operation: op.ID, Errors: errs}
		}
	}

	req, err := c.newRequest(ctx, op, target, payload, call.Token)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &dispatch.TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &dispatch.TransportError{Status: resp.StatusCode, Err: err}
	}

	c.logger.Debug("http request",
		"method", req.Method,
		"url", req.URL.Redacted(),
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &dispatch.TransportError{
			Status: resp.StatusCode,
			Reason: strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "),
			Body:   string(data),
		}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	if !isJSON(resp.Header.Get("Content-Type")) {
		return string(data), nil
	}

	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if op.ResponseRef == "" {
		return decoded, nil
	}
	return c.registry.FromWire(model.RefName(op.ResponseRef), decoded), nil
}

func (c *Client) url(op *catalog.Operation, call dispatch.Call) (string, error) {
	path := op.Path
	if op.PathParamName != "" {
		if len(call.Positional) != 1 {
			return "", fmt.Errorf("%s expects one path argument, got %d", op.ID, len(call.Positional))
		}
		path = strings.Replace(path, "{"+op.PathParamName+"}", url.PathEscape(fmt.Sprint(call.Positional[0])), 1)
	}

	inPath := make(map[string]bool)
	for _, p := range op.PathParams() {
		if p.Name == op.PathParamName {
			continue
		}
		v, ok := call.Named[p.Name]
		if !ok {
			return "", fmt.Errorf("%s expects a value for path parameter %s", op.ID, p.Name)
		}
		path = strings.Replace(path, "{"+p.Name+"}", url.PathEscape(fmt.Sprint(v)), 1)
		inPath[p.Name] = true
	}

	query := url.Values{}
	for name, v := range call.Named {
		if name == "body" || inPath[name] {
			continue
		}
		if list, ok := v.([]any); ok {
			for _, item := range list {
				query.Add(name, fmt.Sprint(item))
			}
			continue
		}
		query.Set(name, fmt.Sprint(v))
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return target, nil
}

func (c *Client) newRequest(ctx context.Context, op *catalog.Operation, target string, payload []byte, token string) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, string(op.Method), target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		mediaType := op.RequestMediaType
		if mediaType == "" {
			mediaType = "application/json"
		}
		req.Header.Set("Content-Type", mediaType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
