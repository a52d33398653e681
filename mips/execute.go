package mips

import "github.com/mipskit/mips32/isa"

// Step fetches, decodes, and dispatches one instruction, advancing the
// branch-delay machine and forcing $zero back to 0. It mirrors the
// fetch/decode/dispatch/rollback sequence a real pipeline stage would
// run once per cycle.
func (m *Machine) Step() error {
	if m.PC == m.StopAddress {
		m.PrevResult = &ProgramCompleteEvent{}
		return m.PrevResult
	}

	word, err := m.Mem.ReadWord(m.PC)
	if err != nil {
		m.PrevResult = err
		return err
	}

	faultPC := m.PC
	m.PC += 4

	d := decode(word)
	var result error
	switch d.kind {
	case kindR:
		result = m.dispatchR(d)
	case kindI:
		result = m.dispatchI(d, faultPC)
	case kindJ:
		result = m.dispatchJ(d, faultPC)
	}

	m.Regs[0] = 0

	if result != nil {
		m.PC = faultPC
		m.PrevResult = result
		return result
	}

	m.advanceDelay()
	m.PrevResult = nil
	return nil
}

func (m *Machine) dispatchR(d decoded) error {
	switch d.funct {
	case 0x00: // sll
		m.SetReg(d.rd, m.Reg(d.rt)<<d.shamt)
	case 0x02: // srl
		m.SetReg(d.rd, m.Reg(d.rt)>>d.shamt)
	case 0x08: // jr, no delay slot in this core
		m.jump(m.Reg(d.rs))
	case 0x0C: // syscall
		return m.syscall()
	case 0x20: // add
		rs, rt := int32(m.Reg(d.rs)), int32(m.Reg(d.rt))
		sum := rs + rt
		if overflowsAdd(rs, rt, sum) {
			return &IntegerOverflowError{Rt: isa.RegisterName(d.rt), Rs: isa.RegisterName(d.rs), V1: rt, V2: rs}
		}
		m.SetReg(d.rd, uint32(sum))
	case 0x22: // sub
		rs, rt := int32(m.Reg(d.rs)), int32(m.Reg(d.rt))
		diff := rs - rt
		if overflowsSub(rs, rt, diff) {
			return &IntegerOverflowError{Rt: isa.RegisterName(d.rt), Rs: isa.RegisterName(d.rs), V1: rt, V2: rs}
		}
		m.SetReg(d.rd, uint32(diff))
	case 0x25: // or
		m.SetReg(d.rd, m.Reg(d.rs)|m.Reg(d.rt))
	case 0x26: // xor
		m.SetReg(d.rd, m.Reg(d.rs)^m.Reg(d.rt))
	case 0x27: // nor
		m.SetReg(d.rd, ^(m.Reg(d.rs) | m.Reg(d.rt)))
	case 0x2A: // slt
		if int32(m.Reg(d.rs)) < int32(m.Reg(d.rt)) {
			m.SetReg(d.rd, 1)
		} else {
			m.SetReg(d.rd, 0)
		}
	case 0x2B: // sltu
		if m.Reg(d.rs) < m.Reg(d.rt) {
			m.SetReg(d.rd, 1)
		} else {
			m.SetReg(d.rd, 0)
		}
	default:
		return &UndefinedInstructionError{Word: d.word}
	}
	return nil
}

func (m *Machine) dispatchI(d decoded, faultPC uint32) error {
	switch d.opcode {
	case 0x04: // beq
		if m.Reg(d.rs) == m.Reg(d.rt) {
			m.branch(uint32(int32(m.PC) + signExtend16(d.imm)*4))
		}
	case 0x05: // bne
		if m.Reg(d.rs) != m.Reg(d.rt) {
			m.branch(uint32(int32(m.PC) + signExtend16(d.imm)*4))
		}
	case 0x06: // blez
		if int32(m.Reg(d.rs)) <= 0 {
			m.branch(uint32(int32(m.PC) + signExtend16(d.imm)*4))
		}
	case 0x07: // bgtz
		if int32(m.Reg(d.rs)) > 0 {
			m.branch(uint32(int32(m.PC) + signExtend16(d.imm)*4))
		}
	case 0x08: // addi
		rs := int32(m.Reg(d.rs))
		imm := signExtend16(d.imm)
		sum := rs + imm
		if overflowsAdd(rs, imm, sum) {
			return &IntegerOverflowError{Rt: isa.RegisterName(d.rt), Rs: isa.RegisterName(d.rs), V1: imm, V2: rs}
		}
		m.SetReg(d.rt, uint32(sum))
	case 0x09: // addiu, wrapping
		m.SetReg(d.rt, uint32(int32(m.Reg(d.rs))+signExtend16(d.imm)))
	case 0x0A: // slti
		if int32(m.Reg(d.rs)) < signExtend16(d.imm) {
			m.SetReg(d.rt, 1)
		} else {
			m.SetReg(d.rt, 0)
		}
	case 0x0B: // sltiu
		if m.Reg(d.rs) < uint32(signExtend16(d.imm)) {
			m.SetReg(d.rt, 1)
		} else {
			m.SetReg(d.rt, 0)
		}
	case 0x0D: // ori, zero-extend
		m.SetReg(d.rt, m.Reg(d.rs)|d.imm)
	case 0x0F: // lui
		m.SetReg(d.rt, d.imm<<16)
	case 0x20: // lb
		v, err := m.Mem.ReadByte(effAddr(m, d))
		if err != nil {
			return err
		}
		m.SetReg(d.rt, uint32(int32(int8(v))))
	case 0x21: // lh
		v, err := m.Mem.ReadHalf(effAddr(m, d))
		if err != nil {
			return err
		}
		m.SetReg(d.rt, uint32(int32(int16(v))))
	case 0x23, 0x30: // lw, ll (load-linked aliases load-word)
		v, err := m.Mem.ReadWord(effAddr(m, d))
		if err != nil {
			return err
		}
		m.SetReg(d.rt, v)
	case 0x24: // lbu
		v, err := m.Mem.ReadByte(effAddr(m, d))
		if err != nil {
			return err
		}
		m.SetReg(d.rt, uint32(v))
	case 0x25: // lhu
		v, err := m.Mem.ReadHalf(effAddr(m, d))
		if err != nil {
			return err
		}
		m.SetReg(d.rt, uint32(v))
	case 0x28: // sb
		return m.Mem.WriteByte(effAddr(m, d), byte(m.Reg(d.rt)))
	case 0x29: // sh
		return m.Mem.WriteHalf(effAddr(m, d), uint16(m.Reg(d.rt)))
	case 0x2B, 0x38: // sw, sc (store-conditional aliases store-word)
		return m.Mem.WriteWord(effAddr(m, d), m.Reg(d.rt))
	default:
		return &UndefinedInstructionError{Word: d.word}
	}
	return nil
}

func (m *Machine) dispatchJ(d decoded, faultPC uint32) error {
	pcAfterFetch := faultPC + 4
	target := (pcAfterFetch & 0xF0000000) | (d.target << 2)
	if d.opcode == 0x03 { // jal
		m.SetReg(31, pcAfterFetch+4)
	}
	m.jump(target)
	return nil
}

// effAddr computes rs + sign_extend(imm), the effective address for
// memory-referencing I-form instructions.
func effAddr(m *Machine, d decoded) uint32 {
	return uint32(int32(m.Reg(d.rs)) + signExtend16(d.imm))
}

func overflowsAdd(a, b, sum int32) bool {
	return (a > 0 && b > 0 && sum < 0) || (a < 0 && b < 0 && sum > 0)
}

func overflowsSub(a, b, diff int32) bool {
	return (a >= 0 && b < 0 && diff < 0) || (a < 0 && b >= 0 && diff > 0)
}
