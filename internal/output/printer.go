// Package output formats responses on stdout and diagnostics on stderr.
package output

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/goccy/go-json"
	"go.yaml.in/yaml/v4"
	"golang.org/x/term"

	"github.com/kolah/oinkctl/internal/dispatch"
)

type PrinterOptions struct {
	ForcePretty  bool
	ForceCompact bool
}

type Printer struct {
	out io.Writer
	err io.Writer

	pretty bool
}

// NewPrinter pretty-prints when forced to, or when out is a terminal and
// compact output was not requested.
func NewPrinter(out io.Writer, err io.Writer, opts PrinterOptions) *Printer {
	pretty := false
	if opts.ForcePretty {
		pretty = true
	} else if !opts.ForceCompact {
		pretty = IsTerminal(out)
	}
	return &Printer{out: out, err: err, pretty: pretty}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *Printer) Out() io.Writer { return p.out }
func (p *Printer) Err() io.Writer { return p.err }

// PrintJSON writes v as JSON on stdout.
func (p *Printer) PrintJSON(v any) error {
	return p.writeJSON(p.out, v)
}

// PrintYAML writes v as YAML on stdout.
func (p *Printer) PrintYAML(v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	_, err = p.out.Write(data)
	return err
}

func (p *Printer) PrintBody(body []byte) error {
	return p.printBodyTo(p.out, body)
}

// PrintError writes a one-line summary of err on stderr. Server responses
// are followed by their body.
func (p *Printer) PrintError(err error) {
	var transport *dispatch.TransportError
	if errors.As(err, &transport) && transport.Status != 0 {
		reason := transport.Reason
		if reason == "" {
			reason = http.StatusText(transport.Status)
		}
		fmt.Fprintf(p.err, "Error: HTTP %d %s\n", transport.Status, reason)
		_ = p.printBodyTo(p.err, []byte(transport.Body))
		return
	}
	fmt.Fprintf(p.err, "Error: %v\n", err)
}

func (p *Printer) writeJSON(w io.Writer, v any) error {
	var (
		data []byte
		err  error
	)
	if p.pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func (p *Printer) printBodyTo(w io.Writer, body []byte) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	out := body
	if p.pretty && json.Valid(body) {
		var buf bytes.Buffer
		if err := json.Indent(&buf, body, "", "  "); err == nil {
			out = buf.Bytes()
		}
	}

	if _, err := w.Write(out); err != nil {
		return err
	}
	if out[len(out)-1] != '\n' {
		_, _ = w.Write([]byte("\n"))
	}
	return nil
}
