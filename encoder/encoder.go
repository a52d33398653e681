// Package encoder implements the two-pass assembler encoder: pass 1
// assigns addresses to labels (accounting for pseudo-instruction
// expansion width), pass 2 expands pseudo-instructions and bit-encodes
// each real instruction into its R/I/J layout.
package encoder

import (
	"fmt"
	"strings"

	"github.com/mipskit/mips32/cst"
	"github.com/mipskit/mips32/isa"
	"github.com/mipskit/mips32/symtab"
)

// Base addresses for the two address spaces this encoder lays out.
// DataBase follows the MARS-style static-data convention.
const (
	CodeBase = 0x00400000
	DataBase = 0x10010000
)

// EncodedWord is one 32-bit encoded instruction and the source context
// that produced it, ready for both object-image emission and line-info
// recording.
type EncodedWord struct {
	Address    uint32
	Bits       uint32
	SourceLine int
	SourceText string
	PseudoOp   string // originating pseudo mnemonic ("la"/"li"), or "" for a direct instruction
}

// Result is everything pass 2 produces: the encoded code stream, the
// static-data byte pool, and the frozen symbol table.
type Result struct {
	Words   []EncodedWord
	Data    []byte
	Symbols *symtab.SymbolTable
}

// segment tags which address cursor a directive or instruction advances.
type segment int

const (
	segCode segment = iota
	segData
)

// Encode runs both passes over seq and returns the object contents, or
// the first compile error encountered.
func Encode(seq *cst.Node, lineOf func(*cst.Node) (int, string)) (*Result, error) {
	st := symtab.NewSymbolTable()

	if err := pass1(seq, st); err != nil {
		return nil, err
	}
	return pass2(seq, st, lineOf)
}

// pass1 assigns every label its absolute address, honoring expanded
// pseudo-instruction widths.
func pass1(seq *cst.Node, st *symtab.SymbolTable) error {
	codeCursor := uint32(CodeBase)
	dataCursor := uint32(DataBase)
	active := segCode

	for _, n := range seq.Children {
		switch n.Kind {
		case cst.KindLabel:
			cursor := codeCursor
			if active == segData {
				cursor = dataCursor
			}
			if err := st.Define(n.Name, cursor); err != nil {
				return cst.NewError(n.Pos, "%s", err.Error())
			}
		case cst.KindDirective:
			cursor := codeCursor
			if active == segData {
				cursor = dataCursor
			}
			newActive, advance, err := directiveAdvance(n, cursor, active)
			if err != nil {
				return err
			}
			active = newActive
			if active == segData {
				dataCursor += advance
			} else {
				codeCursor += advance
			}
		case cst.KindInstruction:
			codeCursor += 4 * uint32(isa.ExpandedLength(n.Mnemonic))
		}
	}
	return nil
}

// directiveAdvance computes how a directive moves the active cursor(s)
// in pass 1, and which segment becomes active afterward. The actual
// byte contents are produced again in pass 2 by emitDirective; the two
// must agree on advancement or label addresses and data contents would
// diverge.
func directiveAdvance(n *cst.Node, cursor uint32, active segment) (segment, uint32, error) {
	switch n.DirectiveName {
	case ".text":
		return segCode, 0, nil
	case ".data":
		return segData, 0, nil
	case ".word":
		return active, 4 * uint32(len(n.DirectiveArgs)), nil
	case ".half":
		return active, 2 * uint32(len(n.DirectiveArgs)), nil
	case ".byte":
		return active, uint32(len(n.DirectiveArgs)), nil
	case ".space":
		count, err := directiveCount(n)
		return active, count, err
	case ".align":
		shift, err := directiveCount(n)
		if err != nil {
			return active, 0, err
		}
		align := uint32(1) << shift
		aligned := (cursor + align - 1) &^ (align - 1)
		return active, aligned - cursor, nil
	case ".asciiz":
		if len(n.DirectiveArgs) != 1 {
			return active, 0, cst.NewError(n.Pos, ".asciiz requires one string argument")
		}
		s, err := unquote(n.DirectiveArgs[0])
		if err != nil {
			return active, 0, cst.NewError(n.Pos, "%s", err.Error())
		}
		return active, uint32(len(s) + 1), nil
	default:
		// Not a data/alignment directive: no advance.
		return active, 0, nil
	}
}

func directiveCount(n *cst.Node) (uint32, error) {
	if len(n.DirectiveArgs) != 1 {
		return 0, cst.NewError(n.Pos, "%s requires one numeric argument", n.DirectiveName)
	}
	v, err := parseInteger(n.DirectiveArgs[0])
	if err != nil {
		return 0, cst.NewError(n.Pos, "%s", err.Error())
	}
	return v, nil
}

func unquote(tok string) (string, error) {
	if len(tok) < 2 || tok[0] != '"' || tok[len(tok)-1] != '"' {
		return "", fmt.Errorf("expected a quoted string, got %q", tok)
	}
	return unescape(tok[1 : len(tok)-1]), nil
}

func unescape(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '0':
				sb.WriteByte(0)
			default:
				sb.WriteByte(s[i])
			}
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
