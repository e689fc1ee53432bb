package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// VersionCommand prints version information.
type VersionCommand struct{}

// GetCobraCommand returns the cobra command for version output.
func (c *VersionCommand) GetCobraCommand() *cobra.Command {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("static-reports-operator %s\n", Version)
		},
	}
	return versionCmd
}
