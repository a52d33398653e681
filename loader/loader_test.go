package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeObject(t *testing.T, words ...uint32) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "out.o")
	var buf []byte
	for _, w := range words {
		buf = append(buf, byte(w), byte(w>>8), byte(w>>16), byte(w>>24))
	}
	require.NoError(t, os.WriteFile(path, buf, 0o600))
	return path
}

func TestLoadSetsStopAddressPastLastWord(t *testing.T) {
	path := writeObject(t, 0x012A4020, 0x20090009)
	m, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(CodeBase), m.PC)
	assert.Equal(t, uint32(CodeBase+8), m.StopAddress)
}

func TestLoadRejectsPartialWord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.o")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o600))
	_, err := Load(path, nil)
	assert.Error(t, err)
}

func TestLoadReadsCodeIntoMachineMemory(t *testing.T) {
	path := writeObject(t, 0x012A4020)
	m, err := Load(path, nil)
	require.NoError(t, err)
	word, err := m.Mem.ReadWord(CodeBase)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x012A4020), word)
}

func TestLoadOptionalDataSidecar(t *testing.T) {
	path := writeObject(t, 0x012A4020)
	require.NoError(t, os.WriteFile(path+".data", []byte{1, 2, 3, 4}, 0o600))
	m, err := Load(path, nil)
	require.NoError(t, err)
	word, err := m.Mem.ReadWord(DataBase)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x04030201), word)
}
