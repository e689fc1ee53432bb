package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Structure(t *testing.T) {
	rootCmd := (&RootCommand{}).GetCobraCommand()

	assert.Equal(t, "static-reports-operator", rootCmd.Use)

	names := make(map[string]bool)
	for _, sub := range rootCmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"dispatch", "refresh", "status", "show", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestRootCommand_Flags(t *testing.T) {
	rootCmd := (&RootCommand{}).GetCobraCommand()

	require.NotNil(t, rootCmd.PersistentFlags().Lookup("verbose"))
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("unit-dir"))

	verbose := rootCmd.PersistentFlags().Lookup("verbose")
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "false", verbose.DefValue)
}

func TestDispatchCommand_AcceptsOptionalHookName(t *testing.T) {
	dispatchCmd := (&DispatchCommand{}).GetCobraCommand()

	assert.NoError(t, dispatchCmd.Args(dispatchCmd, nil))
	assert.NoError(t, dispatchCmd.Args(dispatchCmd, []string{"install"}))
	assert.Error(t, dispatchCmd.Args(dispatchCmd, []string{"install", "extra"}))
}

func TestRefreshCommand_AcceptsOptionalReport(t *testing.T) {
	refreshCmd := (&RefreshCommand{}).GetCobraCommand()

	assert.NoError(t, refreshCmd.Args(refreshCmd, nil))
	assert.NoError(t, refreshCmd.Args(refreshCmd, []string{"update-seeds"}))
	assert.Error(t, refreshCmd.Args(refreshCmd, []string{"a", "b"}))
}

func TestShowCommand_RequiresReport(t *testing.T) {
	showCmd := (&ShowCommand{}).GetCobraCommand()

	assert.Error(t, showCmd.Args(showCmd, nil))
	assert.NoError(t, showCmd.Args(showCmd, []string{"update-seeds"}))
}
