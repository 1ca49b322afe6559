package cli

import (
	"errors"
	"fmt"
	"io"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/kolah/oinkctl/internal/config"
	"github.com/kolah/oinkctl/internal/logging"
	"github.com/kolah/oinkctl/internal/output"
)

const version = "1.0.0"

// app carries the state shared by the command tree of one process run.
type app struct {
	errorFile string
}

// RootCmd returns the oinkctl command tree.
func RootCmd() *cobra.Command {
	return (&app{errorFile: config.DefaultErrorFile}).rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "oinkctl",
		Short:   "oinkctl - admin client for OpenAPI described configuration APIs",
		Version: version,

		SilenceErrors: true,
		SilenceUsage:  true,

		RunE: a.runScripted,
	}

	config.BindFlags(root)
	bindScriptedFlags(root)

	root.AddCommand(
		a.newInteractiveCmd(),
		a.newOpsCmd(),
		a.newInfoCmd(),
		a.newSchemaCmd(),
	)

	return root
}

// Execute runs oinkctl with args and returns the process exit code. Failures
// and panics are reported on stderr and appended to the error log.
func Execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{errorFile: config.DefaultErrorFile}
	root := a.rootCmd()
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := run(root)
	if err == nil {
		return 0
	}

	if path, _ := root.PersistentFlags().GetString("error-log"); path != "" {
		a.errorFile = path
	}
	a.report(args, err, stdout, stderr)
	return 1
}

// PanicError is a recovered panic turned into an error.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("internal error: %v", e.Value)
}

func run(cmd *cobra.Command) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return cmd.Execute()
}

func (a *app) report(args []string, err error, stdout, stderr io.Writer) {
	output.NewPrinter(stdout, stderr, output.PrinterOptions{}).PrintError(err)

	logger, closer, logErr := logging.ErrorLog(a.errorFile)
	if logErr != nil {
		fmt.Fprintf(stderr, "Warning: %v\n", logErr)
		return
	}
	defer closer.Close()

	attrs := []any{"args", args, "error", err.Error()}
	var panicErr *PanicError
	if errors.As(err, &panicErr) {
		attrs = append(attrs, "stack", string(panicErr.Stack))
	}
	logger.Error("command failed", attrs...)
}
