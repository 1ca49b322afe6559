package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/kolah/oinkctl/internal/interactive"
	"github.com/kolah/oinkctl/internal/output"
)

// ErrNoTerminal is returned when the interactive browser is started without
// a terminal on stdin.
var ErrNoTerminal = errors.New("interactive mode needs a terminal; use --operation-id for scripted calls")

func (a *app) newInteractiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "interactive",
		Aliases: []string{"i"},
		Short:   "Browse the API operations from a menu",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !output.IsTerminal(cmd.InOrStdin()) {
				return ErrNoTerminal
			}
			e, err := a.newEngine(cmd)
			if err != nil {
				return err
			}
			s := interactive.New(interactive.Options{
				Catalog:    e.catalog,
				Resolver:   e.resolver,
				Registry:   e.registry,
				Dispatcher: e.dispatcher,
				Assembler:  e.assembler,
				Printer:    e.printer,
				Terminal:   interactive.NewTerminal(cmd.InOrStdin(), cmd.OutOrStdout()),
				Logger:     e.logger,
			})
			return s.Run(cmd.Context())
		},
	}
}
