package cli

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/kolah/oinkctl/internal/auth"
	"github.com/kolah/oinkctl/internal/catalog"
	"github.com/kolah/oinkctl/internal/config"
	"github.com/kolah/oinkctl/internal/dispatch"
	"github.com/kolah/oinkctl/internal/loader"
	"github.com/kolah/oinkctl/internal/logging"
	"github.com/kolah/oinkctl/internal/model"
	"github.com/kolah/oinkctl/internal/models"
	"github.com/kolah/oinkctl/internal/naming"
	"github.com/kolah/oinkctl/internal/output"
	"github.com/kolah/oinkctl/internal/patch"
	"github.com/kolah/oinkctl/internal/restclient"
	"github.com/kolah/oinkctl/internal/schema"
)

// engine holds everything a command needs once the configuration and the
// API document are loaded. It is built once per command invocation.
type engine struct {
	cfg        *config.Config
	spec       *model.Spec
	resolver   *schema.Resolver
	registry   *models.Registry
	catalog    *catalog.Catalog
	dispatcher *dispatch.Dispatcher
	assembler  *patch.Assembler
	printer    *output.Printer
	logger     *slog.Logger
}

func (a *app) newEngine(cmd *cobra.Command) (*engine, error) {
	cfg, err := config.Load(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.Log.ErrorFile != "" {
		a.errorFile = cfg.Log.ErrorFile
	}

	logger := logging.Setup(cmd.ErrOrStderr(), cfg.Log.Format, cfg.Log.Level)
	naming.SetAdditionalInitialisms(cfg.AdditionalInitialisms)

	result, err := loader.LoadFile(cfg.Spec)
	if err != nil {
		return nil, fmt.Errorf("loading spec: %w", err)
	}
	for _, w := range result.Warnings {
		logger.Warn("spec warning", "warning", w)
	}

	spec, err := loader.Transform(result)
	if err != nil {
		return nil, fmt.Errorf("transforming spec: %w", err)
	}
	logger.Debug("loaded spec",
		"version", result.Version,
		"title", spec.Info.Title,
		"schemas", len(spec.Schemas),
		"operations", len(spec.Operations),
	)

	resolver := schema.NewResolver(spec)
	registry, errs := models.Build(spec, resolver)
	for _, err := range errs {
		logger.Warn("schema skipped", "error", err)
	}

	cat := catalog.Build(spec)
	for _, s := range cat.Skipped {
		logger.Debug("operation skipped", "method", s.Method, "path", s.Path, "reason", s.Reason)
	}

	style, err := patch.ParsePathStyle(cfg.Patch.PathStyle)
	if err != nil {
		return nil, err
	}

	host := cfg.Host
	if host == "" && len(spec.Servers) > 0 {
		host = spec.Servers[0].URL
	}
	if host == "" {
		return nil, fmt.Errorf("no host configured and the document declares no servers")
	}

	opts := restclient.Options{
		BaseURL:  host,
		Timeout:  cfg.Timeout,
		Registry: registry,
		Logger:   logger,
	}
	if cfg.Validation.Requests {
		v, err := restclient.NewRequestValidator(result.Document)
		if err != nil {
			return nil, err
		}
		opts.Validator = v
	}
	client := restclient.New(cat, opts)

	authn, err := authenticator(cfg, spec)
	if err != nil {
		return nil, err
	}

	return &engine{
		cfg:        cfg,
		spec:       spec,
		resolver:   resolver,
		registry:   registry,
		catalog:    cat,
		dispatcher: dispatch.New(client, authn, registry, logger),
		assembler:  patch.New(style),
		printer: output.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.PrinterOptions{
			ForcePretty:  cfg.Output.Pretty,
			ForceCompact: cfg.Output.Compact,
		}),
		logger: logger,
	}, nil
}

// authenticator returns nil when no credentials are configured.
func authenticator(cfg *config.Config, spec *model.Spec) (dispatch.Authenticator, error) {
	switch {
	case cfg.Auth.Token != "":
		return auth.Static(cfg.Auth.Token), nil
	case cfg.Auth.ClientCredentials():
		tokenURL := cfg.Auth.TokenURL
		if tokenURL == "" {
			tokenURL = spec.TokenURL()
		}
		if tokenURL == "" {
			return nil, fmt.Errorf("client credentials need a token url: none configured and the document declares no client-credentials flow")
		}
		return auth.NewClientCredentials(tokenURL, cfg.Auth.ClientID, cfg.Auth.ClientSecret,
			&http.Client{Timeout: cfg.Timeout}), nil
	}
	return nil, nil
}

// bodyNode resolves the request body schema of op, or nil when it has none.
func (e *engine) bodyNode(op *catalog.Operation) (*schema.Node, error) {
	switch {
	case op.RequestBodyRef != "":
		return e.resolver.ResolveRef(op.RequestBodyRef)
	case op.RequestBody != nil:
		return e.resolver.Resolve(op.RequestBody)
	}
	return nil, nil
}

// patchTarget is the schema of the resource a PATCH modifies, known when the
// operation names a seeding GET.
func (e *engine) patchTarget(op *catalog.Operation) *schema.Node {
	if op.GetData == "" {
		return nil
	}
	getOp, err := e.catalog.FindByID(op.GetData)
	if err != nil || getOp.ResponseRef == "" {
		return nil
	}
	n, err := e.resolver.ResolveRef(getOp.ResponseRef)
	if err != nil {
		e.logger.Debug("patch target unresolved", "operation", op.ID, "error", err)
		return nil
	}
	return n
}
