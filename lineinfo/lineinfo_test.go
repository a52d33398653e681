package lineinfo

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mipskit/mips32/encoder"
)

func TestWriteThenLoadRoundTrips(t *testing.T) {
	words := []encoder.EncodedWord{
		{Address: 0x00400000, Bits: 0x012A4020, SourceLine: 2, SourceText: "add $t0, $t1, $t2"},
		{Address: 0x00400004, Bits: 0x3C010000, SourceLine: 3, SourceText: "la $t0, buf", PseudoOp: "la"},
	}
	path := filepath.Join(t.TempDir(), "out.o.li")
	require.NoError(t, Write(path, words))

	table, err := Load(path)
	require.NoError(t, err)

	rec, ok := table.Lookup(0x00400000)
	require.True(t, ok)
	assert.Equal(t, 2, rec.LineNumber)
	assert.Equal(t, "add $t0, $t1, $t2", rec.LineContents)
	assert.Empty(t, rec.PseudoOp)

	rec2, ok := table.Lookup(0x00400004)
	require.True(t, ok)
	assert.Equal(t, "la", rec2.PseudoOp)

	_, ok = table.Lookup(0xDEADBEEF)
	assert.False(t, ok)
}

func TestFromWordsMatchesWriteLoad(t *testing.T) {
	words := []encoder.EncodedWord{
		{Address: 0x00400000, SourceLine: 1, SourceText: "nop"},
	}
	table := FromWords(words)
	rec, ok := table.Lookup(0x00400000)
	require.True(t, ok)
	assert.Equal(t, 1, rec.LineNumber)
}
