// Package loader reads an assembled object image (and its optional
// static-data sidecar) into a fresh mips.Machine, ready for the debug
// adapter to drive.
package loader

import (
	"fmt"
	"os"

	"github.com/mipskit/mips32/encoder"
	"github.com/mipskit/mips32/mips"
)

// CodeBase is the fixed address the first instruction word loads at.
const CodeBase = encoder.CodeBase

// DataBase is the static-data pool's base address.
const DataBase = encoder.DataBase

// defaultDataSpan reserves room for .data-declared buffers beyond the
// literal bytes emitted by the encoder (an uninitialized extension,
// analogous to a BSS region).
const defaultDataSpan = 1 << 20

// defaultStackSpan sizes the stack pool; Load points $sp at its top word.
const defaultStackSpan = 1 << 16

// StackBase is the fixed base of the stack pool, placed above the data
// region so growth in either direction cannot collide under default
// sizing.
const StackBase = 0x7F000000

// Load reads object bytes from path and returns a Machine with its code
// pool populated and stop_address set one past the last loaded word.
func Load(path string, out mips.Writer) (*mips.Machine, error) {
	code, err := os.ReadFile(path) // #nosec G304 -- CLI-supplied object path
	if err != nil {
		return nil, fmt.Errorf("reading object file %s: %w", path, err)
	}
	if len(code)%4 != 0 {
		return nil, fmt.Errorf("object file %s is not a whole number of words (%d bytes)", path, len(code))
	}

	m := mips.NewMachine(out)
	m.Mem.AddPool(code, CodeBase, uint32(len(code)))
	m.Mem.AddPool(make([]byte, defaultDataSpan), DataBase, defaultDataSpan)
	m.Mem.AddPool(make([]byte, defaultStackSpan), StackBase, defaultStackSpan)

	m.PC = CodeBase
	m.StopAddress = CodeBase + uint32(len(code))
	m.SetReg(29, StackBase+defaultStackSpan-4) // $sp: top of stack, word-aligned

	if data, err := os.ReadFile(path + ".data"); err == nil {
		if err := m.Mem.WriteBytes(DataBase, data); err != nil {
			return nil, fmt.Errorf("loading static data from %s.data: %w", path, err)
		}
	}

	return m, nil
}
