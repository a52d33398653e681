package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAssemblesDirectlyWithoutDelegate(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	inputPath := filepath.Join(dir, "in.s")
	outputPath := filepath.Join(dir, "out.o")

	require.NoError(t, os.WriteFile(configPath, []byte("config_name = \"direct\"\n"), 0o600))
	require.NoError(t, os.WriteFile(inputPath, []byte("add $t0, $t1, $t2\n"), 0o600))

	require.NoError(t, run(configPath, inputPath, outputPath, false, true))

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x20, 0x40, 0x2A, 0x01}, data)

	_, err = os.Stat(outputPath + ".li")
	assert.NoError(t, err)
}

func TestRunPreprocessOnlyWritesNothing(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	inputPath := filepath.Join(dir, "in.s")
	outputPath := filepath.Join(dir, "out.o")

	require.NoError(t, os.WriteFile(configPath, []byte("config_name = \"direct\"\n"), 0o600))
	require.NoError(t, os.WriteFile(inputPath, []byte("add $t0, $t1, $t2\n"), 0o600))

	require.NoError(t, run(configPath, inputPath, outputPath, true, false))

	_, err := os.Stat(outputPath)
	assert.Error(t, err)
}
