package encoder

import (
	"github.com/mipskit/mips32/cst"
	"github.com/mipskit/mips32/isa"
	"github.com/mipskit/mips32/symtab"
)

// pass2 re-walks seq with the frozen symbol table, expanding pseudo
// instructions and bit-encoding every real instruction, and emitting
// static-data bytes for the data/alignment directives.
func pass2(seq *cst.Node, st *symtab.SymbolTable, lineOf func(*cst.Node) (int, string)) (*Result, error) {
	e := &encodeCtx{st: st}
	codeCursor := uint32(CodeBase)
	dataCursor := uint32(DataBase)
	active := segCode
	var data []byte

	for _, n := range seq.Children {
		switch n.Kind {
		case cst.KindLabel:
			continue

		case cst.KindDirective:
			cursor := codeCursor
			if active == segData {
				cursor = dataCursor
			}
			newActive, advance, bytes, err := emitDirective(n, cursor, active)
			if err != nil {
				return nil, err
			}
			if active == segData {
				data = growTo(data, dataCursor+advance-DataBase)
				copy(data[dataCursor-DataBase:], bytes)
			}
			active = newActive
			if active == segData {
				dataCursor += advance
			} else {
				codeCursor += advance
			}

		case cst.KindInstruction:
			realOps, err := expandPseudo(n, st)
			if err != nil {
				return nil, err
			}
			line, text := 0, ""
			if lineOf != nil {
				line, text = lineOf(n)
			}
			pseudoOp := ""
			if isa.IsPseudo(n.Mnemonic) {
				pseudoOp = n.Mnemonic
			}
			for _, op := range realOps {
				bits, err := e.encodeOne(op, codeCursor)
				if err != nil {
					return nil, err
				}
				e.words = append(e.words, EncodedWord{
					Address:    codeCursor,
					Bits:       bits,
					SourceLine: line,
					SourceText: text,
					PseudoOp:   pseudoOp,
				})
				codeCursor += 4
			}
		}
	}

	return &Result{Words: e.words, Data: data, Symbols: st}, nil
}

func growTo(b []byte, n uint32) []byte {
	if uint32(len(b)) >= n {
		return b
	}
	grown := make([]byte, n)
	copy(grown, b)
	return grown
}

// emitDirective mirrors directiveAdvance's cursor arithmetic but also
// produces the literal bytes for data directives.
func emitDirective(n *cst.Node, cursor uint32, active segment) (segment, uint32, []byte, error) {
	switch n.DirectiveName {
	case ".text":
		return segCode, 0, nil, nil
	case ".data":
		return segData, 0, nil, nil
	case ".word":
		out := make([]byte, 0, 4*len(n.DirectiveArgs))
		for _, a := range n.DirectiveArgs {
			v, err := parseInteger(a)
			if err != nil {
				return active, 0, nil, cst.NewError(n.Pos, "%s", err.Error())
			}
			out = append(out, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
		}
		return active, uint32(len(out)), out, nil
	case ".half":
		out := make([]byte, 0, 2*len(n.DirectiveArgs))
		for _, a := range n.DirectiveArgs {
			v, err := parseInteger(a)
			if err != nil {
				return active, 0, nil, cst.NewError(n.Pos, "%s", err.Error())
			}
			out = append(out, byte(v), byte(v>>8))
		}
		return active, uint32(len(out)), out, nil
	case ".byte":
		out := make([]byte, 0, len(n.DirectiveArgs))
		for _, a := range n.DirectiveArgs {
			v, err := parseInteger(a)
			if err != nil {
				return active, 0, nil, cst.NewError(n.Pos, "%s", err.Error())
			}
			out = append(out, byte(v))
		}
		return active, uint32(len(out)), out, nil
	case ".space":
		count, err := directiveCount(n)
		if err != nil {
			return active, 0, nil, err
		}
		return active, count, make([]byte, count), nil
	case ".align":
		shift, err := directiveCount(n)
		if err != nil {
			return active, 0, nil, err
		}
		align := uint32(1) << shift
		aligned := (cursor + align - 1) &^ (align - 1)
		pad := aligned - cursor
		return active, pad, make([]byte, pad), nil
	case ".asciiz":
		s, err := unquote(n.DirectiveArgs[0])
		if err != nil {
			return active, 0, nil, cst.NewError(n.Pos, "%s", err.Error())
		}
		out := append([]byte(s), 0)
		return active, uint32(len(out)), out, nil
	default:
		return active, 0, nil, nil
	}
}

// realOp is one fully-resolved real instruction ready for bit encoding:
// a mnemonic plus raw argument text, exactly the CST shape, so a pseudo
// expansion can synthesize new instructions indistinguishable from
// parsed ones.
type realOp struct {
	Mnemonic string
	Args     []string
	Pos      cst.Position
}

// expandPseudo expands la/li into lui+ori; every other mnemonic passes
// through unchanged as a single real instruction.
func expandPseudo(n *cst.Node, st *symtab.SymbolTable) ([]realOp, error) {
	if !isa.IsPseudo(n.Mnemonic) {
		return []realOp{{Mnemonic: n.Mnemonic, Args: n.Args, Pos: n.Pos}}, nil
	}
	if len(n.Args) != 2 {
		return nil, cst.NewError(n.Pos, "%s requires 2 operands, got %d", n.Mnemonic, len(n.Args))
	}
	rt := n.Args[0]
	immTok, termTok, err := splitMemOperand(n.Args[1])
	if err != nil {
		return nil, cst.NewError(n.Pos, "%s", err.Error())
	}
	imm, err := parseInteger(immTok)
	if err != nil {
		return nil, cst.NewError(n.Pos, "%s", err.Error())
	}
	term, err := resolveLabelOrInt(termTok, st)
	if err != nil {
		return nil, cst.NewError(n.Pos, "%s", err.Error())
	}
	address := imm + term

	hi := (address >> 16) & 0xFFFF
	lo := address & 0xFFFF
	return []realOp{
		{Mnemonic: "lui", Args: []string{"$at", itoaHex(hi)}, Pos: n.Pos},
		{Mnemonic: "ori", Args: []string{rt, "$at", itoaHex(lo)}, Pos: n.Pos},
	}, nil
}

func resolveLabelOrInt(tok string, st *symtab.SymbolTable) (uint32, error) {
	if addr, err := st.Get(tok); err == nil {
		return addr, nil
	}
	return parseInteger(tok)
}

func itoaHex(v uint32) string {
	const hexDigits = "0123456789abcdef"
	if v == 0 {
		return "0x0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = hexDigits[v&0xF]
		v >>= 4
	}
	return "0x" + string(buf[i:])
}
