package mips

import "strconv"

// Syscall service numbers, selected by $v0.
const (
	syscallPrintInt    = 1
	syscallPrintString = 4
	syscallExit        = 10
	syscallPrintChar   = 11
)

// syscall dispatches the service named by $v0. Console output goes to
// m.Out; nil Out silently discards it (useful in tests that only assert
// on register/memory state).
func (m *Machine) syscall() error {
	switch m.Reg(2) { // $v0
	case syscallPrintInt:
		m.write(strconv.Itoa(int(int32(m.Reg(4))))) // $a0, decimal
		return nil
	case syscallPrintString:
		s, err := m.readCString(m.Reg(4))
		if err != nil {
			return err
		}
		m.write(s)
		return nil
	case syscallExit:
		return &ProgramCompleteEvent{}
	case syscallPrintChar:
		v := m.Reg(4)
		if v > 0x10FFFF {
			return &SyscallInvalidArgumentError{Reason: "print_char value is not a valid character code"}
		}
		m.write(string(rune(v)))
		return nil
	default:
		return &SyscallInvalidSyscallNumberError{Number: m.Reg(2)}
	}
}

func (m *Machine) write(s string) {
	if m.Out == nil {
		return
	}
	_, _ = m.Out.WriteString(s)
}

// readCString reads bytes starting at addr until a NUL terminator.
func (m *Machine) readCString(addr uint32) (string, error) {
	var buf []byte
	for {
		b, err := m.Mem.ReadByte(addr)
		if err != nil {
			return "", err
		}
		if b == 0 {
			break
		}
		buf = append(buf, b)
		addr++
	}
	return string(buf), nil
}
