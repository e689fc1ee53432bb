package main

import (
	"os"

	"github.com/canonical/static-reports-operator/cmd"
)

func main() {
	rootCmd := (&cmd.RootCommand{}).GetCobraCommand()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
