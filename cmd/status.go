package cmd

import (
	"github.com/fatih/color"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"github.com/canonical/static-reports-operator/internal/report"
)

// StatusCommand prints the state of every report service and timer.
type StatusCommand struct{}

// GetCobraCommand returns the cobra command for status output.
func (c *StatusCommand) GetCobraCommand() *cobra.Command {
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of all report services and timers",
		RunE: func(_ *cobra.Command, _ []string) error {
			d := buildDeps()

			headerFmt := color.New(color.FgGreen, color.Underline).SprintfFunc()
			columnFmt := color.New(color.FgYellow).SprintfFunc()

			tbl := table.New("Report", "Cadence", "Service", "Timer")
			tbl.WithHeaderFormatter(headerFmt).WithFirstColumnFormatter(columnFmt)

			for _, def := range report.All() {
				serviceState, err := d.units.ActiveState(def.ServiceUnit())
				if err != nil {
					serviceState = "unknown"
				}
				timerState, err := d.units.ActiveState(def.TimerUnit())
				if err != nil {
					timerState = "unknown"
				}
				tbl.AddRow(def.Name, def.Cadence, serviceState, timerState)
			}

			tbl.Print()
			return nil
		},
	}
	return statusCmd
}
