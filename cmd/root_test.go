//go:build !integration

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"find", "batch", "serve"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "prospect-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestFindCommand_Flags(t *testing.T) {
	for _, flagName := range []string{"first", "last", "domain", "company", "linkedin", "skip"} {
		flag := findCmd.Flags().Lookup(flagName)
		assert.NotNil(t, flag, "find should have --%s flag", flagName)
	}
}

func TestBatchCommand_Flags(t *testing.T) {
	for _, flagName := range []string{"input", "output", "concurrency", "from-notion", "sync-salesforce"} {
		flag := batchCmd.Flags().Lookup(flagName)
		assert.NotNil(t, flag, "batch should have --%s flag", flagName)
	}

	limit := batchCmd.Flags().Lookup("limit")
	require.NotNil(t, limit)
	assert.Equal(t, "100", limit.DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}
