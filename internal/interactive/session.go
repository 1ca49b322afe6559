// Package interactive is the line-oriented operation browser: pick a tag,
// pick an operation, answer the prompts, read the response.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/kolah/oinkctl/internal/catalog"
	"github.com/kolah/oinkctl/internal/dispatch"
	"github.com/kolah/oinkctl/internal/form"
	"github.com/kolah/oinkctl/internal/menu"
	"github.com/kolah/oinkctl/internal/model"
	"github.com/kolah/oinkctl/internal/models"
	"github.com/kolah/oinkctl/internal/output"
	"github.com/kolah/oinkctl/internal/patch"
	"github.com/kolah/oinkctl/internal/schema"
)

type Options struct {
	Catalog    *catalog.Catalog
	Resolver   *schema.Resolver
	Registry   *models.Registry
	Dispatcher *dispatch.Dispatcher
	Assembler  *patch.Assembler
	Printer    *output.Printer
	Terminal   *Terminal
	Logger     *slog.Logger
}

type Session struct {
	catalog    *catalog.Catalog
	tree       *menu.Tree
	resolver   *schema.Resolver
	registry   *models.Registry
	forms      *form.Synthesizer
	dispatcher *dispatch.Dispatcher
	patches    *patch.Assembler
	printer    *output.Printer
	term       *Terminal
	logger     *slog.Logger
}

func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		catalog:    opts.Catalog,
		tree:       menu.Build(opts.Catalog, opts.Catalog.Tags()),
		resolver:   opts.Resolver,
		registry:   opts.Registry,
		forms:      form.New(opts.Registry),
		dispatcher: opts.Dispatcher,
		patches:    opts.Assembler,
		printer:    opts.Printer,
		term:       opts.Terminal,
		logger:     logger,
	}
}

// Run browses the menu until the operator quits or input ends. Failed
// operations are reported and the menu is shown again.
func (s *Session) Run(ctx context.Context) error {
	cur := s.tree.Root()
	for {
		children := s.tree.Visible(cur)
		names := make([]string, len(children))
		for i, idx := range children {
			names[i] = s.tree.Node(idx).Name
		}

		choice, err := s.term.Choose(strings.Join(s.tree.Path(cur), " > "), names)
		if err != nil {
			return quietEnd(err)
		}
		if choice == Back {
			if cur == s.tree.Root() {
				return nil
			}
			cur = s.tree.Node(cur).Parent
			continue
		}

		idx := children[choice]
		node := s.tree.Node(idx)
		if !node.IsLeaf() {
			cur = idx
			continue
		}

		if err := s.Execute(ctx, node.Operation); err != nil {
			if errors.Is(err, ErrQuit) || errors.Is(err, io.EOF) {
				return nil
			}
			s.logger.Debug("operation failed", "operation", node.Operation.ID, "error", err)
			s.printer.PrintError(err)
		}
	}
}

func quietEnd(err error) error {
	if errors.Is(err, ErrQuit) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// Execute runs one operation interactively.
func (s *Session) Execute(ctx context.Context, op *catalog.Operation) error {
	s.term.Println()
	s.term.Println(menu.DisplayName(op))
	s.term.Println(fmt.Sprintf("%s %s", op.Method, op.Path))

	switch op.Method {
	case model.MethodGet:
		if len(op.PathParams()) == 0 && op.ResponseIsList {
			return s.listScreen(ctx, op)
		}
		return s.get(ctx, op)
	case model.MethodPatch:
		return s.patch(ctx, op)
	case model.MethodDelete:
		return s.delete(ctx, op)
	default:
		return s.send(ctx, op)
	}
}

func (s *Session) get(ctx context.Context, op *catalog.Operation) error {
	input, err := s.collectParams(op)
	if err != nil {
		return err
	}
	return s.invokeAndShow(ctx, op, input)
}

func (s *Session) delete(ctx context.Context, op *catalog.Operation) error {
	input, err := s.collectPathParam(op)
	if err != nil {
		return err
	}
	ok, err := s.term.Confirm(fmt.Sprintf("%s %s?", menu.DisplayName(op), pathLabel(op, input)))
	if err != nil || !ok {
		return err
	}
	return s.invokeAndShow(ctx, op, input)
}

// send collects a request body for POST and PUT operations. A PUT that names
// a seeding GET starts from the current server state.
func (s *Session) send(ctx context.Context, op *catalog.Operation) error {
	input, err := s.collectPathParam(op)
	if err != nil {
		return err
	}

	node, err := s.bodyNode(op)
	if err != nil {
		return err
	}
	if node == nil {
		return s.invokeAndShow(ctx, op, input)
	}

	var existing models.ValueTree
	if op.GetData != "" {
		existing, err = s.seed(ctx, op, node, input)
		if err != nil {
			return err
		}
	}

	values, err := s.collectBody(node, existing)
	if err != nil {
		return err
	}

	body := s.registry.ToWire(models.Value{Model: node.SourceName, Attrs: values})
	if op.BodyIsList {
		body = []any{body}
	}
	if err := s.printer.PrintJSON(body); err != nil {
		return err
	}
	ok, err := s.term.Confirm("Send this request?")
	if err != nil || !ok {
		return err
	}
	input.Body = body
	return s.invokeAndShow(ctx, op, input)
}

// collectBody asks for required fields first and then, on request, for the
// rest. Updates go through every field at once.
func (s *Session) collectBody(node *schema.Node, existing models.ValueTree) (models.ValueTree, error) {
	opts := form.Options{Mode: form.Interactive, Prompter: s.term}
	if existing != nil {
		f, err := s.forms.Collect(node, existing, opts)
		if err != nil {
			return nil, err
		}
		return f.Values, nil
	}

	opts.RequiredOnly = len(node.Required) > 0
	f, err := s.forms.Collect(node, nil, opts)
	if err != nil {
		return nil, err
	}
	if !opts.RequiredOnly {
		return f.Values, nil
	}
	more, err := s.term.Confirm("Populate optional fields?")
	if err != nil || !more {
		return f.Values, err
	}
	opts.RequiredOnly = false
	f, err = s.forms.Collect(node, f.Values, opts)
	if err != nil {
		return nil, err
	}
	return f.Values, nil
}

func (s *Session) seed(ctx context.Context, op *catalog.Operation, node *schema.Node, input dispatch.Input) (models.ValueTree, error) {
	getOp, err := s.catalog.FindByID(op.GetData)
	if err != nil {
		return nil, fmt.Errorf("seeding %s: %w", op.ID, err)
	}
	res, err := s.dispatcher.Invoke(ctx, getOp, dispatch.Input{PathParams: input.PathParams})
	if err != nil {
		return nil, err
	}
	if res.NotFound {
		return nil, fmt.Errorf("%s: nothing found for %s", getOp.ID, pathLabel(getOp, input))
	}
	if v, ok := s.registry.FromWire(node.SourceName, res.Data).(models.Value); ok {
		return v.Attrs, nil
	}
	if m, ok := res.Data.(map[string]any); ok {
		return m, nil
	}
	return nil, nil
}

// patch collects JSON Patch entries through the patch item schema.
func (s *Session) patch(ctx context.Context, op *catalog.Operation) error {
	input, err := s.collectPathParam(op)
	if err != nil {
		return err
	}
	item, err := s.bodyNode(op)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("%s declares no request body", op.ID)
	}

	var trees []models.ValueTree
	for {
		f, err := s.forms.Collect(item, nil, form.Options{Mode: form.Interactive, Prompter: s.term})
		if err != nil {
			return err
		}
		trees = append(trees, f.Values)
		more, err := s.term.Confirm("Add another patch operation?")
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}

	entries, err := s.patches.Build(s.patchTarget(op), patch.FromValues(trees))
	if err != nil {
		return err
	}
	if err := s.printer.PrintJSON(entries); err != nil {
		return err
	}
	ok, err := s.term.Confirm("Send this request?")
	if err != nil || !ok {
		return err
	}
	input.Body = entries
	return s.invokeAndShow(ctx, op, input)
}

// patchTarget is the schema of the resource a PATCH modifies, known when the
// operation names a seeding GET.
func (s *Session) patchTarget(op *catalog.Operation) *schema.Node {
	if op.GetData == "" {
		return nil
	}
	getOp, err := s.catalog.FindByID(op.GetData)
	if err != nil || getOp.ResponseRef == "" {
		return nil
	}
	n, err := s.resolver.ResolveRef(getOp.ResponseRef)
	if err != nil {
		return nil
	}
	return n
}

func (s *Session) bodyNode(op *catalog.Operation) (*schema.Node, error) {
	switch {
	case op.RequestBodyRef != "":
		return s.resolver.ResolveRef(op.RequestBodyRef)
	case op.RequestBody != nil:
		return s.resolver.Resolve(op.RequestBody)
	}
	return nil, nil
}

func (s *Session) invokeAndShow(ctx context.Context, op *catalog.Operation, input dispatch.Input) error {
	res, err := s.dispatcher.Invoke(ctx, op, input)
	if err != nil {
		return err
	}
	if res.NotFound {
		s.term.Println("Not found.")
		return nil
	}
	if res.Data == nil {
		s.term.Println("Done.")
		return nil
	}
	return s.printer.PrintJSON(res.Data)
}

// collectPathParam asks for the operation's path parameters only.
func (s *Session) collectPathParam(op *catalog.Operation) (dispatch.Input, error) {
	input := dispatch.Input{PathParams: map[string]string{}, Query: map[string]string{}}
	for _, p := range op.PathParams() {
		f, err := s.forms.Collect(dispatch.ParamsNode(op), nil, form.Options{
			Mode:        form.Interactive,
			SingleField: p.Name,
			Prompter:    s.term,
		})
		if err != nil {
			return input, err
		}
		input.PathParams[p.Name] = argText(f.Values[p.Name])
	}
	return input, nil
}

// pathLabel joins the path parameter values of input in path order.
func pathLabel(op *catalog.Operation, input dispatch.Input) string {
	var parts []string
	for _, p := range op.PathParams() {
		if v := input.PathParams[p.Name]; v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "/")
}

// collectParams asks for the path parameter and, on request, the query
// parameters.
func (s *Session) collectParams(op *catalog.Operation) (dispatch.Input, error) {
	input, err := s.collectPathParam(op)
	if err != nil || len(op.QueryParams()) == 0 {
		return input, err
	}
	set, err := s.term.Confirm("Set query parameters?")
	if err != nil || !set {
		return input, err
	}

	existing := models.ValueTree{}
	for k, v := range input.PathParams {
		existing[k] = v
	}
	f, err := s.forms.Collect(dispatch.ParamsNode(op), existing, form.Options{Mode: form.Interactive, Prompter: s.term})
	if err != nil {
		return input, err
	}
	for _, p := range op.QueryParams() {
		if v, ok := f.Values[p.Name]; ok && v != nil {
			input.Query[p.Name] = argText(v)
		}
	}
	return input, nil
}

func argText(v any) string {
	if list, ok := v.([]any); ok {
		parts := make([]string, len(list))
		for i, item := range list {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprint(v)
}
