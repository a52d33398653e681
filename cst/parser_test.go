package cst

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLabelAndInstruction(t *testing.T) {
	seq, err := Parse("main:\nadd $t0, $t1, $t2\n", "t.s")
	require.NoError(t, err)
	require.Len(t, seq.Children, 2)

	assert.Equal(t, KindLabel, seq.Children[0].Kind)
	assert.Equal(t, "main", seq.Children[0].Name)

	inst := seq.Children[1]
	assert.Equal(t, KindInstruction, inst.Kind)
	assert.Equal(t, "add", inst.Mnemonic)
	assert.Equal(t, []string{"$t0", "$t1", "$t2"}, inst.Args)
}

func TestParseMemoryOperand(t *testing.T) {
	seq, err := Parse("lw $t0, 4($sp)\n", "t.s")
	require.NoError(t, err)
	require.Len(t, seq.Children, 1)

	inst := seq.Children[0]
	assert.Equal(t, "lw", inst.Mnemonic)
	assert.Equal(t, []string{"$t0", "4($sp)"}, inst.Args)
}

func TestParseDirective(t *testing.T) {
	seq, err := Parse(".word 1, 2, 3\n", "t.s")
	require.NoError(t, err)
	require.Len(t, seq.Children, 1)

	dir := seq.Children[0]
	assert.Equal(t, KindDirective, dir.Kind)
	assert.Equal(t, ".word", dir.DirectiveName)
	assert.Equal(t, []string{"1", "2", "3"}, dir.DirectiveArgs)
}

func TestParseLabelOnOwnLineThenInstructionOnNext(t *testing.T) {
	seq, err := Parse("L:\nsub $zero, $zero, $zero\n", "t.s")
	require.NoError(t, err)
	require.Len(t, seq.Children, 2)
	assert.Equal(t, KindLabel, seq.Children[0].Kind)
	assert.Equal(t, KindInstruction, seq.Children[1].Kind)
}

func TestParseSyntaxErrorHasPosition(t *testing.T) {
	_, err := Parse("add $t0, $t1 )\n", "t.s")
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "t.s", perr.Pos.Filename)
}
