package cmd

import (
	"fmt"
	"os"
	"path"

	"github.com/spf13/cobra"

	"github.com/canonical/static-reports-operator/internal/lifecycle"
)

// DispatchCommand handles a framework-dispatched lifecycle event.
type DispatchCommand struct{}

// GetCobraCommand returns the cobra command for event dispatch.
func (c *DispatchCommand) GetCobraCommand() *cobra.Command {
	dispatchCmd := &cobra.Command{
		Use:   "dispatch [hook-name]",
		Short: "Handle a dispatched lifecycle event",
		Long: `Handle a dispatched lifecycle event. The hook name is taken from the
argument when given, otherwise from the JUJU_DISPATCH_PATH environment
variable the framework sets.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hookName := ""
			if len(args) == 1 {
				hookName = args[0]
			} else if dispatchPath := os.Getenv("JUJU_DISPATCH_PATH"); dispatchPath != "" {
				hookName = path.Base(dispatchPath)
			}
			if hookName == "" {
				return fmt.Errorf("no hook name given and JUJU_DISPATCH_PATH is not set")
			}

			event, ok := lifecycle.ParseEvent(hookName)
			if !ok {
				// Unobserved hooks are fine; the framework dispatches more
				// than this operator reacts to.
				return nil
			}

			return buildDeps().controller.Handle(cmd.Context(), event)
		},
	}
	return dispatchCmd
}
