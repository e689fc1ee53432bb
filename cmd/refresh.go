package cmd

import (
	"github.com/spf13/cobra"
)

// RefreshCommand runs the refresh action: an on-demand run of one or all
// reports outside their timer schedule.
type RefreshCommand struct{}

// GetCobraCommand returns the cobra command for the refresh action.
func (c *RefreshCommand) GetCobraCommand() *cobra.Command {
	refreshCmd := &cobra.Command{
		Use:   "refresh [report]",
		Short: "Run one or all reports now, outside their timer schedule",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := buildDeps()

			name := ""
			if len(args) == 1 {
				name = args[0]
			} else {
				// Invoked as the charm action: the optional report name
				// arrives as an action parameter.
				param, err := d.tools.ActionGet(cmd.Context(), "report")
				if err == nil {
					name = param
				}
			}

			return d.controller.HandleRefreshAction(cmd.Context(), name)
		},
	}
	return refreshCmd
}
