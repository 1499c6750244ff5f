package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"enrich", "replay", "status", "import", "migrate", "serve"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "directory-enrich", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestEnrichCommand_Flags(t *testing.T) {
	limit := enrichCmd.Flags().Lookup("limit")
	require.NotNil(t, limit)
	assert.Equal(t, "0", limit.DefValue)

	dry := enrichCmd.Flags().Lookup("dry-run")
	require.NotNil(t, dry)
	assert.Equal(t, "false", dry.DefValue)
}

func TestReplayCommand_Flags(t *testing.T) {
	for _, name := range []string{"batch", "all", "file"} {
		assert.NotNil(t, replayCmd.Flags().Lookup(name), "replay should have --%s", name)
	}
}

func TestStatusCommand_Flags(t *testing.T) {
	flag := statusCmd.Flags().Lookup("format")
	require.NotNil(t, flag)
	assert.Equal(t, "text", flag.DefValue)
}

func TestImportCommand_Flags(t *testing.T) {
	require.NotNil(t, importCmd.Flags().Lookup("csv"))
	chunk := importCmd.Flags().Lookup("chunk")
	require.NotNil(t, chunk)
	assert.Equal(t, "50", chunk.DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	port := serveCmd.Flags().Lookup("port")
	require.NotNil(t, port)
	assert.Equal(t, "0", port.DefValue)

	every := serveCmd.Flags().Lookup("every")
	require.NotNil(t, every)
	assert.Equal(t, "0s", every.DefValue)
}
