// Package isa describes the MIPS32 instruction encoding this toolchain
// targets: the R/I/J instruction descriptor tables, the mnemonic table,
// and register mnemonic resolution. Both the encoder and the emulator
// core import this package so the two halves of the bit layout can
// never drift apart.
package isa

import "fmt"

// Form tags the instruction-format variant.
type Form int

const (
	FormR Form = iota
	FormI
	FormJ
)

// Shape tags the argument-ordering convention within a Form.
type Shape int

const (
	// R-form shapes
	ShapeRdRsRt Shape = iota
	ShapeRdRtShamt
	ShapeRs
	ShapeNone // zero operands (e.g. syscall)

	// I-form shapes
	ShapeRtImm
	ShapeRtImmRs
	ShapeRtRsImm
	ShapeRsRtLabel
)

// Descriptor is the fixed, per-mnemonic encoding metadata.
type Descriptor struct {
	Mnemonic string
	Form     Form
	Shape    Shape
	Opcode   uint32 // I/J form
	Funct    uint32 // R form
	Shamt    uint32 // fixed shamt for shapes that don't read one (e.g. Rs)
}

// Table is the core mnemonic table.
var Table = map[string]Descriptor{
	"add":     {Mnemonic: "add", Form: FormR, Shape: ShapeRdRsRt, Funct: 0x20},
	"sub":     {Mnemonic: "sub", Form: FormR, Shape: ShapeRdRsRt, Funct: 0x22},
	"sll":     {Mnemonic: "sll", Form: FormR, Shape: ShapeRdRtShamt, Funct: 0x00},
	"srl":     {Mnemonic: "srl", Form: FormR, Shape: ShapeRdRtShamt, Funct: 0x02},
	"or":      {Mnemonic: "or", Form: FormR, Shape: ShapeRdRsRt, Funct: 0x25},
	"nor":     {Mnemonic: "nor", Form: FormR, Shape: ShapeRdRsRt, Funct: 0x27},
	"xor":     {Mnemonic: "xor", Form: FormR, Shape: ShapeRdRsRt, Funct: 0x26},
	"slt":     {Mnemonic: "slt", Form: FormR, Shape: ShapeRdRsRt, Funct: 0x2A},
	"sltu":    {Mnemonic: "sltu", Form: FormR, Shape: ShapeRdRsRt, Funct: 0x2B},
	"jr":      {Mnemonic: "jr", Form: FormR, Shape: ShapeRs, Funct: 0x08},
	"syscall": {Mnemonic: "syscall", Form: FormR, Shape: ShapeNone, Funct: 0x0C},

	"addi":  {Mnemonic: "addi", Form: FormI, Shape: ShapeRtRsImm, Opcode: 0x08},
	"addiu": {Mnemonic: "addiu", Form: FormI, Shape: ShapeRtRsImm, Opcode: 0x09},
	"slti":  {Mnemonic: "slti", Form: FormI, Shape: ShapeRtRsImm, Opcode: 0x0A},
	"sltiu": {Mnemonic: "sltiu", Form: FormI, Shape: ShapeRtRsImm, Opcode: 0x0B},
	"ori":   {Mnemonic: "ori", Form: FormI, Shape: ShapeRtRsImm, Opcode: 0x0D},
	"lui":   {Mnemonic: "lui", Form: FormI, Shape: ShapeRtImm, Opcode: 0x0F},

	"lb":  {Mnemonic: "lb", Form: FormI, Shape: ShapeRtImmRs, Opcode: 0x20},
	"lh":  {Mnemonic: "lh", Form: FormI, Shape: ShapeRtImmRs, Opcode: 0x21},
	"lw":  {Mnemonic: "lw", Form: FormI, Shape: ShapeRtImmRs, Opcode: 0x23},
	"lbu": {Mnemonic: "lbu", Form: FormI, Shape: ShapeRtImmRs, Opcode: 0x24},
	"lhu": {Mnemonic: "lhu", Form: FormI, Shape: ShapeRtImmRs, Opcode: 0x25},
	"ll":  {Mnemonic: "ll", Form: FormI, Shape: ShapeRtImmRs, Opcode: 0x30},

	"sb": {Mnemonic: "sb", Form: FormI, Shape: ShapeRtImmRs, Opcode: 0x28},
	"sh": {Mnemonic: "sh", Form: FormI, Shape: ShapeRtImmRs, Opcode: 0x29},
	"sw": {Mnemonic: "sw", Form: FormI, Shape: ShapeRtImmRs, Opcode: 0x2B},
	"sc": {Mnemonic: "sc", Form: FormI, Shape: ShapeRtImmRs, Opcode: 0x38},

	"beq": {Mnemonic: "beq", Form: FormI, Shape: ShapeRsRtLabel, Opcode: 0x04},
	"bne": {Mnemonic: "bne", Form: FormI, Shape: ShapeRsRtLabel, Opcode: 0x05},

	"j":   {Mnemonic: "j", Form: FormJ, Opcode: 0x02},
	"jal": {Mnemonic: "jal", Form: FormJ, Opcode: 0x03},
}

// Pseudo instructions expand to a fixed-length sequence of real
// instructions during encoding.
const (
	PseudoLA = "la"
	PseudoLI = "li"
)

// ExpandedLength returns the number of real instructions mnemonic
// expands to: 2 for la/li, 1 otherwise.
func ExpandedLength(mnemonic string) int {
	switch mnemonic {
	case PseudoLA, PseudoLI:
		return 2
	default:
		return 1
	}
}

// IsPseudo reports whether mnemonic is a pseudo-instruction handled by
// the encoder's pass-2 expansion rather than the Table.
func IsPseudo(mnemonic string) bool {
	return mnemonic == PseudoLA || mnemonic == PseudoLI
}

// Lookup finds mnemonic's descriptor.
func Lookup(mnemonic string) (Descriptor, bool) {
	d, ok := Table[mnemonic]
	return d, ok
}

// registerNames maps MIPS register mnemonics to their numbers.
var registerNames = map[string]uint32{
	"zero": 0,
	"at":   1,
	"v0":   2, "v1": 3,
	"a0": 4, "a1": 5, "a2": 6, "a3": 7,
	"t0": 8, "t1": 9, "t2": 10, "t3": 11, "t4": 12, "t5": 13, "t6": 14, "t7": 15,
	"s0": 16, "s1": 17, "s2": 18, "s3": 19, "s4": 20, "s5": 21, "s6": 22, "s7": 23,
	"t8": 24, "t9": 25,
	"k0": 26, "k1": 27,
	"gp": 28,
	"sp": 29,
	"fp": 30,
	"ra": 31,
}

// ResolveRegister resolves a register token like "$t0", "$29", or "$sp"
// to its number 0..31.
func ResolveRegister(token string) (uint32, error) {
	if len(token) < 2 || token[0] != '$' {
		return 0, fmt.Errorf("not a register: %q", token)
	}
	name := token[1:]
	if n, ok := registerNames[name]; ok {
		return n, nil
	}
	var num uint32
	if _, err := fmt.Sscanf(name, "%d", &num); err == nil && fmt.Sprintf("%d", num) == name {
		if num > 31 {
			return 0, fmt.Errorf("register number out of range: %q", token)
		}
		return num, nil
	}
	return 0, fmt.Errorf("unknown register: %q", token)
}

// RegisterName returns the canonical "$name" mnemonic for register n
// (used by diagnostics such as the operand names in overflow errors).
func RegisterName(n uint32) string {
	for name, num := range registerNames {
		if num == n {
			return "$" + name
		}
	}
	return fmt.Sprintf("$%d", n)
}
