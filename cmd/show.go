package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/canonical/static-reports-operator/internal/report"
	"github.com/canonical/static-reports-operator/internal/validate"
)

// ShowCommand prints the installed unit configuration for one report.
type ShowCommand struct{}

// GetCobraCommand returns the cobra command for unit inspection.
func (c *ShowCommand) GetCobraCommand() *cobra.Command {
	showCmd := &cobra.Command{
		Use:   "show <report>",
		Short: "Show the installed units for a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			def, ok := report.Get(args[0])
			if !ok {
				return fmt.Errorf("unknown report %q", args[0])
			}

			d := buildDeps()
			for _, unit := range []string{def.ServiceUnit(), def.TimerUnit()} {
				if err := validate.UnitName(unit); err != nil {
					return err
				}
				if err := d.units.Show(unit); err != nil {
					return err
				}
			}
			return nil
		},
	}
	return showCmd
}
