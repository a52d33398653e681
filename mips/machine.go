// Package mips is the instruction-accurate MIPS32 execution core: decode,
// dispatch, memory pools with overrun/illegal-access classification, the
// branch-delay machine, and the syscall layer.
package mips

// delayStatus tags the branch-delay machine's state.
type delayStatus int

const (
	delayNotActive delayStatus = iota
	delaySet
	delayReady
)

// Machine is one emulator instance's full architectural state.
type Machine struct {
	Regs [32]uint32
	FP   [32]uint32 // reserved, unused by the specified core
	Hi   uint32     // mult_hi, reserved
	Lo   uint32     // mult_lo, reserved

	PC uint32

	delay       delayStatus
	delayTarget uint32

	Mem *Memory

	StopAddress uint32
	PrevResult  error

	Out Writer
}

// Writer is where syscall print services send their output. The debug
// adapter wires this to its own stdout capture.
type Writer interface {
	WriteString(s string) (int, error)
}

// NewMachine creates a machine with an empty pool set; callers add pools
// (via Mem.AddPool) before loading code.
func NewMachine(out Writer) *Machine {
	return &Machine{Mem: NewMemory(), Out: out}
}

// Reset clears registers, PC, and the branch-delay machine, but keeps
// the memory pools (the loader repopulates them on Restart).
func (m *Machine) Reset() {
	m.Regs = [32]uint32{}
	m.FP = [32]uint32{}
	m.Hi, m.Lo = 0, 0
	m.PC = 0
	m.delay = delayNotActive
	m.delayTarget = 0
	m.PrevResult = nil
}

// Reg reads register n, always returning 0 for $zero.
func (m *Machine) Reg(n uint32) uint32 {
	if n == 0 {
		return 0
	}
	return m.Regs[n&0x1F]
}

// SetReg writes register n; writes to $zero are discarded.
func (m *Machine) SetReg(n, v uint32) {
	if n == 0 {
		return
	}
	m.Regs[n&0x1F] = v
}

// branch arms the delay machine: the instruction physically following
// the branch still executes before control transfers to target.
func (m *Machine) branch(target uint32) {
	m.delay = delaySet
	m.delayTarget = target
}

// jump transfers control immediately, with no delay slot (jr and j/jal
// per this core's design).
func (m *Machine) jump(target uint32) {
	m.PC = target
}

// advanceDelay steps the branch-delay machine by one state, applying the
// pending transfer when it reaches NotActive.
func (m *Machine) advanceDelay() {
	switch m.delay {
	case delaySet:
		m.delay = delayReady
	case delayReady:
		m.delay = delayNotActive
		m.PC = m.delayTarget
	}
}
