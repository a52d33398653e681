package mips

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stringWriter struct {
	sb strings.Builder
}

func (w *stringWriter) WriteString(s string) (int, error) {
	return w.sb.WriteString(s)
}

func newTestMachine() (*Machine, *stringWriter) {
	out := &stringWriter{}
	m := NewMachine(out)
	m.Mem.AddPool(make([]byte, 0x1000), 0x00400000, 0x1000)
	m.Mem.AddPool(make([]byte, 0x1000), 0x10010000, 0x1000)
	m.PC = 0x00400000
	m.StopAddress = 0x00400000 + 0x1000
	return m, out
}

func loadWords(t *testing.T, m *Machine, addr uint32, words ...uint32) {
	t.Helper()
	for i, w := range words {
		require.NoError(t, m.Mem.WriteWord(addr+uint32(i*4), w))
	}
}

func TestRegisterZeroAlwaysReadsZero(t *testing.T) {
	m, _ := newTestMachine()
	m.SetReg(0, 42)
	assert.Equal(t, uint32(0), m.Reg(0))
}

func TestAddDispatch(t *testing.T) {
	m, _ := newTestMachine()
	m.SetReg(9, 5)  // $t1
	m.SetReg(10, 7) // $t2
	// add $t0, $t1, $t2
	loadWords(t, m, m.PC, 0x012A4020)
	require.NoError(t, m.Step())
	assert.Equal(t, uint32(12), m.Reg(8))
}

func TestAddOverflowError(t *testing.T) {
	m, _ := newTestMachine()
	m.SetReg(9, 0x7FFFFFFF)
	m.SetReg(10, 1)
	loadWords(t, m, m.PC, 0x012A4020) // add $t0, $t1, $t2
	err := m.Step()
	require.Error(t, err)
	var overflow *IntegerOverflowError
	assert.ErrorAs(t, err, &overflow)
	// PC rolls back to the faulting instruction
	assert.Equal(t, uint32(0x00400000), m.PC)
}

func TestDelaySlotExecutesBeforeBranchTarget(t *testing.T) {
	m, _ := newTestMachine()
	// beq $t0, $t0, 1   (branch to pc+4+1*4)
	// addi $t1, $zero, 9 (delay slot, always runs)
	// addi $t2, $zero, 1 (branch target)
	loadWords(t, m, m.PC,
		0x11080001, // beq $t0, $t0, 1
		0x20090009, // addi $t1, $zero, 9
		0x200A0001, // addi $t2, $zero, 1
	)
	require.NoError(t, m.Step()) // beq: arms delay machine
	require.NoError(t, m.Step()) // delay slot: addi $t1
	assert.Equal(t, uint32(9), m.Reg(9))
	assert.Equal(t, uint32(0x00400008), m.PC) // branch target applied
	require.NoError(t, m.Step())
	assert.Equal(t, uint32(1), m.Reg(10))
}

func TestUndefinedInstruction(t *testing.T) {
	m, _ := newTestMachine()
	loadWords(t, m, m.PC, 0xFC000000) // opcode 0x3F, unmapped
	err := m.Step()
	require.Error(t, err)
	var undef *UndefinedInstructionError
	assert.ErrorAs(t, err, &undef)
}

func TestMemoryIllegalAccess(t *testing.T) {
	m, _ := newTestMachine()
	_, err := m.Mem.ReadByte(0xFFFFFFFF)
	var illegal *MemoryIllegalAccessError
	assert.ErrorAs(t, err, &illegal)
}

func TestMemoryObviousOverrun(t *testing.T) {
	m := NewMachine(nil)
	m.Mem.AddPool(make([]byte, 4), 0x10010000, 0x100)
	_, err := m.Mem.ReadByte(0x10010050)
	var overrun *MemoryObviousOverrunAccessError
	assert.ErrorAs(t, err, &overrun)
}

func TestSyscallPrintInt(t *testing.T) {
	m, out := newTestMachine()
	m.SetReg(2, 1)   // $v0 = print_int
	m.SetReg(4, 123) // $a0
	loadWords(t, m, m.PC, 0x0000000C) // syscall
	require.NoError(t, m.Step())
	assert.Equal(t, "123", out.sb.String())
}

func TestSyscallExitReachesProgramComplete(t *testing.T) {
	m, _ := newTestMachine()
	m.SetReg(2, 10) // $v0 = exit
	loadWords(t, m, m.PC, 0x0000000C)
	err := m.Step()
	var complete *ProgramCompleteEvent
	assert.ErrorAs(t, err, &complete)
}

func TestSyscallInvalidNumber(t *testing.T) {
	m, _ := newTestMachine()
	m.SetReg(2, 999)
	loadWords(t, m, m.PC, 0x0000000C)
	err := m.Step()
	var invalid *SyscallInvalidSyscallNumberError
	assert.ErrorAs(t, err, &invalid)
}

func TestJumpRegisterHasNoDelaySlot(t *testing.T) {
	m, _ := newTestMachine()
	m.SetReg(9, 0x00400010) // $t1 = jump target
	loadWords(t, m, m.PC, 0x01200008) // jr $t1
	require.NoError(t, m.Step())
	assert.Equal(t, uint32(0x00400010), m.PC)
}
