package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/kolah/oinkctl/internal/catalog"
	"github.com/kolah/oinkctl/internal/dispatch"
	"github.com/kolah/oinkctl/internal/form"
	"github.com/kolah/oinkctl/internal/model"
	"github.com/kolah/oinkctl/internal/models"
	"github.com/kolah/oinkctl/internal/patch"
	"github.com/kolah/oinkctl/internal/schema"
)

func bindScriptedFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("operation-id", "", "Operation to call")
	flags.String("url-suffix", "", "Path parameters as name:value, comma separated")
	flags.String("endpoint-args", "", "Query parameters as name:value,name:value")
	flags.String("data", "", "Request body: a JSON file, @file, or - for stdin")
	flags.String("patch-add", "", "Single JSON Patch add as key:value")
	flags.String("patch-replace", "", "Single JSON Patch replace as key:value")
	flags.String("patch-remove", "", "Single JSON Patch remove of key")
	flags.String("schema", "", "Print a sample payload for a schema")
	flags.String("info", "", "Print documentation for the operations of a tag")
}

// runScripted calls one operation from flags and prints the response.
func (a *app) runScripted(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	opID, _ := flags.GetString("operation-id")
	schemaRef, _ := flags.GetString("schema")
	tag, _ := flags.GetString("info")

	if opID == "" && schemaRef == "" && tag == "" {
		return cmd.Help()
	}

	e, err := a.newEngine(cmd)
	if err != nil {
		return err
	}

	switch {
	case schemaRef != "":
		return e.printSample(schemaRef, "json")
	case tag != "":
		return e.printInfo(tag)
	}

	op, err := e.catalog.FindByID(opID)
	if err != nil {
		return err
	}

	var input dispatch.Input
	suffix, _ := flags.GetString("url-suffix")
	if input.PathParams, err = dispatch.ParseArgs(suffix); err != nil {
		return err
	}
	query, _ := flags.GetString("endpoint-args")
	if input.Query, err = dispatch.ParseArgs(query); err != nil {
		return err
	}
	if input.Body, err = e.scriptedBody(cmd, op); err != nil {
		return err
	}

	res, err := e.dispatcher.Invoke(cmd.Context(), op, input)
	if err != nil {
		return err
	}
	if res.NotFound {
		return fmt.Errorf("%s: not found", op.ID)
	}
	if res.Data == nil {
		return nil
	}
	return e.printer.PrintJSON(res.Data)
}

// scriptedBody builds the request body from the patch shorthand flags or
// from --data. It returns nil when neither is given.
func (e *engine) scriptedBody(cmd *cobra.Command, op *catalog.Operation) (any, error) {
	entries, err := shorthandEntries(cmd)
	if err != nil {
		return nil, err
	}
	dataArg, _ := cmd.Flags().GetString("data")

	switch {
	case len(entries) > 0 && dataArg != "":
		return nil, fmt.Errorf("--data cannot be combined with the patch flags")
	case len(entries) > 0:
		if op.Method != model.MethodPatch {
			return nil, fmt.Errorf("patch flags need a PATCH operation, %s is %s", op.ID, op.Method)
		}
		return e.assembler.Build(e.patchTarget(op), entries)
	case dataArg == "":
		return nil, nil
	}

	payload, err := readData(cmd, dataArg)
	if err != nil {
		return nil, err
	}
	if op.Method == model.MethodPatch {
		return e.patchFromData(op, payload)
	}

	node, err := e.bodyNode(op)
	if err != nil {
		return nil, err
	}
	if node == nil || node.Kind != schema.KindObject {
		return payload, nil
	}

	if list, ok := payload.([]any); ok && op.BodyIsList {
		out := make([]any, len(list))
		for i, item := range list {
			if out[i], err = e.structuredBody(node, item); err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
		}
		return out, nil
	}
	body, err := e.structuredBody(node, payload)
	if err != nil {
		return nil, err
	}
	if op.BodyIsList {
		return []any{body}, nil
	}
	return body, nil
}

// structuredBody validates one object payload and runs it through the form
// in structured mode so values are coerced to their declared types.
func (e *engine) structuredBody(node *schema.Node, payload any) (any, error) {
	values, ok := payload.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON object for %s, got %T", node.Label("request body"), payload)
	}
	if e.cfg.Validation.Payloads {
		v, err := schema.CompileValidator(node)
		if err != nil {
			return nil, err
		}
		if err := v.Validate(payload); err != nil {
			return nil, err
		}
	}
	f, err := form.New(e.registry).Collect(node, nil, form.Options{Mode: form.Structured, Values: values})
	if err != nil {
		return nil, err
	}
	for _, fv := range f.Fields {
		e.logger.Debug("field", "name", fv.Name, "type", fv.SchemaType)
	}
	return e.registry.ToWire(models.Value{Model: node.SourceName, Attrs: f.Values}), nil
}

// patchFromData reads a JSON Patch document from --data.
func (e *engine) patchFromData(op *catalog.Operation, payload any) ([]patch.Entry, error) {
	list, ok := payload.([]any)
	if !ok {
		list = []any{payload}
	}
	trees := make([]models.ValueTree, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("patch entry %d: expected an object, got %T", i, item)
		}
		trees[i] = m
	}
	return e.assembler.Build(e.patchTarget(op), patch.FromValues(trees))
}

func shorthandEntries(cmd *cobra.Command) ([]patch.Entry, error) {
	var entries []patch.Entry
	for _, op := range []patch.Op{patch.OpAdd, patch.OpReplace, patch.OpRemove} {
		flag := "patch-" + string(op)
		if !cmd.Flags().Changed(flag) {
			continue
		}
		arg, _ := cmd.Flags().GetString(flag)
		e, err := patch.Shorthand(op, arg)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// readData decodes the --data argument: "-" reads stdin, "@file" and plain
// paths read the file.
func readData(cmd *cobra.Command, arg string) (any, error) {
	var (
		data []byte
		err  error
	)
	switch {
	case arg == "-":
		data, err = io.ReadAll(cmd.InOrStdin())
	default:
		data, err = os.ReadFile(strings.TrimPrefix(arg, "@"))
	}
	if err != nil {
		return nil, fmt.Errorf("reading data: %w", err)
	}

	var payload any
	if err := json.Unmarshal(bytes.TrimSpace(data), &payload); err != nil {
		return nil, fmt.Errorf("decoding data: %w", err)
	}
	return payload, nil
}
