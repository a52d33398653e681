package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "CONFIG")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDirectConfig(t *testing.T) {
	path := writeConfig(t, `
config_name = "direct"
as_cmd = []
preprocess = true
`)
	cfg, err := Load(path, "in.s", "out.o")
	require.NoError(t, err)
	assert.Equal(t, "direct", cfg.ConfigName)
	assert.False(t, cfg.Delegates())
	assert.True(t, cfg.Preprocess)
}

func TestLoadDelegatingConfigSubstitutesPaths(t *testing.T) {
	path := writeConfig(t, `
config_name = "external"
as_cmd = ["as -o {OUTPUT_AS} {INPUT_AS}"]
preprocess = false
`)
	cfg, err := Load(path, "/tmp/in.s", "/tmp/out.o")
	require.NoError(t, err)
	require.True(t, cfg.Delegates())
	assert.Equal(t, "as -o /tmp/out.o /tmp/in.s", cfg.AsCmd[0])
}

func TestExpandCommandSubstitutesPreprocessedPath(t *testing.T) {
	got := ExpandCommand("as {PREPROCESSED_AS} -o out.o", "/tmp/pre123.s")
	assert.Equal(t, "as /tmp/pre123.s -o out.o", got)
}
