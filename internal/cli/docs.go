package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kolah/oinkctl/internal/catalog"
	"github.com/kolah/oinkctl/internal/model"
	"github.com/kolah/oinkctl/internal/schema"
)

func (a *app) newOpsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ops",
		Short: "List the operations of the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.newEngine(cmd)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "OPERATION\tMETHOD\tPATH\tTAG")
			for _, op := range e.catalog.Operations() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", op.ID, op.Method, op.Path, strings.Join(op.Tags, ", "))
			}
			return w.Flush()
		},
	}
}

func (a *app) newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <tag>",
		Short: "Show the operations of a tag with their parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.newEngine(cmd)
			if err != nil {
				return err
			}
			return e.printInfo(args[0])
		},
	}
}

func (a *app) newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema <ref>",
		Short: "Print a sample payload for a schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			e, err := a.newEngine(cmd)
			if err != nil {
				return err
			}
			return e.printSample(args[0], format)
		},
	}
	cmd.Flags().String("format", "json", "Output format: json, yaml")
	return cmd
}

type operationDoc struct {
	OperationID string     `yaml:"operationId"`
	Method      string     `yaml:"method"`
	Path        string     `yaml:"path"`
	Summary     string     `yaml:"summary,omitempty"`
	Description string     `yaml:"description,omitempty"`
	URLSuffix   string     `yaml:"urlSuffix,omitempty"`
	Parameters  []paramDoc `yaml:"endpointArgs,omitempty"`
	Body        string     `yaml:"body,omitempty"`
	Scopes      []string   `yaml:"scopes,omitempty"`
	Deprecated  bool       `yaml:"deprecated,omitempty"`
	Ignored     bool       `yaml:"ignored,omitempty"`
}

type paramDoc struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type,omitempty"`
	Required    bool   `yaml:"required,omitempty"`
	Default     any    `yaml:"default,omitempty"`
	Enum        []any  `yaml:"enum,omitempty"`
	Description string `yaml:"description,omitempty"`
}

func (e *engine) printInfo(tag string) error {
	name, ok := e.tagName(tag)
	if !ok {
		return fmt.Errorf("no operations tagged %q", tag)
	}
	ops := e.catalog.FindByTag(name)
	docs := make([]operationDoc, 0, len(ops))
	for _, op := range ops {
		docs = append(docs, e.describe(op))
	}
	return e.printer.PrintYAML(map[string]any{"tag": name, "operations": docs})
}

// tagName matches tag against the catalog, ignoring case when there is no
// exact match.
func (e *engine) tagName(tag string) (string, bool) {
	if len(e.catalog.FindByTag(tag)) > 0 {
		return tag, true
	}
	for _, t := range e.catalog.Tags() {
		if strings.EqualFold(t.Name, tag) && len(e.catalog.FindByTag(t.Name)) > 0 {
			return t.Name, true
		}
	}
	return "", false
}

func pathParamNames(op *catalog.Operation) string {
	var names []string
	for _, p := range op.PathParams() {
		names = append(names, p.Name)
	}
	return strings.Join(names, ",")
}

func (e *engine) describe(op *catalog.Operation) operationDoc {
	doc := operationDoc{
		OperationID: op.ID,
		Method:      string(op.Method),
		Path:        op.Path,
		Summary:     op.Summary,
		Description: op.Description,
		URLSuffix:   pathParamNames(op),
		Scopes:      op.Scopes,
		Deprecated:  op.Deprecated,
		Ignored:     op.Ignore,
	}
	for _, p := range op.QueryParams() {
		doc.Parameters = append(doc.Parameters, paramDoc{
			Name:        p.Name,
			Type:        string(p.Type),
			Required:    p.Required,
			Default:     p.Default,
			Enum:        p.Enum,
			Description: p.Description,
		})
	}
	switch {
	case op.RequestBodyRef != "":
		doc.Body = model.RefName(op.RequestBodyRef)
	case op.RequestBody != nil:
		doc.Body = "inline " + string(op.RequestBody.Type)
	}
	if doc.Body != "" && op.BodyIsList {
		doc.Body = "list of " + doc.Body
	}
	return doc
}

func (e *engine) printSample(ref, format string) error {
	n, err := e.resolver.ResolveRef(ref)
	if err != nil {
		return err
	}
	sample := schema.Sample(n)
	switch strings.ToLower(format) {
	case "json", "":
		return e.printer.PrintJSON(sample)
	case "yaml":
		return e.printer.PrintYAML(sample)
	}
	return fmt.Errorf("unknown format %q (valid: json, yaml)", format)
}
