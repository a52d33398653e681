package encoder

import (
	"github.com/mipskit/mips32/cst"
	"github.com/mipskit/mips32/isa"
	"github.com/mipskit/mips32/symtab"
)

// encodeCtx carries the state one pass-2 instruction encode needs beyond
// the instruction itself: the frozen symbol table for branch/jump target
// resolution.
type encodeCtx struct {
	st    *symtab.SymbolTable
	words []EncodedWord
}

// encodeOne bit-encodes a single real instruction (already past pseudo
// expansion) whose first word will live at address addr.
func (e *encodeCtx) encodeOne(op realOp, addr uint32) (uint32, error) {
	desc, ok := isa.Lookup(op.Mnemonic)
	if !ok {
		return 0, cst.NewError(op.Pos, "unknown instruction: %s", op.Mnemonic)
	}

	switch desc.Form {
	case isa.FormR:
		return e.encodeR(desc, op)
	case isa.FormI:
		return e.encodeI(desc, op, addr)
	case isa.FormJ:
		return e.encodeJ(desc, op)
	default:
		return 0, cst.NewError(op.Pos, "unhandled instruction form for %s", op.Mnemonic)
	}
}

func (e *encodeCtx) encodeR(desc isa.Descriptor, op realOp) (uint32, error) {
	var rs, rt, rd, shamt uint32

	switch desc.Shape {
	case isa.ShapeRdRsRt:
		if len(op.Args) != 3 {
			return 0, cst.NewError(op.Pos, "%s requires 3 operands, got %d", op.Mnemonic, len(op.Args))
		}
		var err error
		if rd, err = isa.ResolveRegister(op.Args[0]); err != nil {
			return 0, cst.NewError(op.Pos, "%s", err.Error())
		}
		if rs, err = isa.ResolveRegister(op.Args[1]); err != nil {
			return 0, cst.NewError(op.Pos, "%s", err.Error())
		}
		if rt, err = isa.ResolveRegister(op.Args[2]); err != nil {
			return 0, cst.NewError(op.Pos, "%s", err.Error())
		}
		shamt = desc.Shamt

	case isa.ShapeRdRtShamt:
		if len(op.Args) != 3 {
			return 0, cst.NewError(op.Pos, "%s requires 3 operands, got %d", op.Mnemonic, len(op.Args))
		}
		var err error
		if rd, err = isa.ResolveRegister(op.Args[0]); err != nil {
			return 0, cst.NewError(op.Pos, "%s", err.Error())
		}
		if rt, err = isa.ResolveRegister(op.Args[1]); err != nil {
			return 0, cst.NewError(op.Pos, "%s", err.Error())
		}
		v, err := parseInteger(op.Args[2])
		if err != nil {
			return 0, cst.NewError(op.Pos, "%s", err.Error())
		}
		shamt = v & 0x1F

	case isa.ShapeRs:
		if len(op.Args) != 1 {
			return 0, cst.NewError(op.Pos, "%s requires 1 operand, got %d", op.Mnemonic, len(op.Args))
		}
		var err error
		if rs, err = isa.ResolveRegister(op.Args[0]); err != nil {
			return 0, cst.NewError(op.Pos, "%s", err.Error())
		}
		shamt = desc.Shamt

	case isa.ShapeNone:
		if len(op.Args) != 0 {
			return 0, cst.NewError(op.Pos, "%s takes no operands, got %d", op.Mnemonic, len(op.Args))
		}

	default:
		return 0, cst.NewError(op.Pos, "unhandled R-form shape for %s", op.Mnemonic)
	}

	word := (rs&0x1F)<<21 | (rt&0x1F)<<16 | (rd&0x1F)<<11 | (shamt&0x1F)<<6 | (desc.Funct & 0x3F)
	return word, nil
}

func (e *encodeCtx) encodeI(desc isa.Descriptor, op realOp, addr uint32) (uint32, error) {
	var rs, rt, imm uint32

	switch desc.Shape {
	case isa.ShapeRtImm:
		if len(op.Args) != 2 {
			return 0, cst.NewError(op.Pos, "%s requires 2 operands, got %d", op.Mnemonic, len(op.Args))
		}
		var err error
		if rt, err = isa.ResolveRegister(op.Args[0]); err != nil {
			return 0, cst.NewError(op.Pos, "%s", err.Error())
		}
		v, err := parseInteger(op.Args[1])
		if err != nil {
			return 0, cst.NewError(op.Pos, "%s", err.Error())
		}
		imm = v

	case isa.ShapeRtImmRs:
		if len(op.Args) != 2 {
			return 0, cst.NewError(op.Pos, "%s requires 2 operands, got %d", op.Mnemonic, len(op.Args))
		}
		var err error
		if rt, err = isa.ResolveRegister(op.Args[0]); err != nil {
			return 0, cst.NewError(op.Pos, "%s", err.Error())
		}
		immTok, regTok, err := splitMemOperand(op.Args[1])
		if err != nil {
			return 0, cst.NewError(op.Pos, "%s", err.Error())
		}
		v, err := parseInteger(immTok)
		if err != nil {
			return 0, cst.NewError(op.Pos, "%s", err.Error())
		}
		imm = v
		if rs, err = isa.ResolveRegister(regTok); err != nil {
			return 0, cst.NewError(op.Pos, "%s", err.Error())
		}

	case isa.ShapeRtRsImm:
		if len(op.Args) != 3 {
			return 0, cst.NewError(op.Pos, "%s requires 3 operands, got %d", op.Mnemonic, len(op.Args))
		}
		var err error
		if rt, err = isa.ResolveRegister(op.Args[0]); err != nil {
			return 0, cst.NewError(op.Pos, "%s", err.Error())
		}
		if rs, err = isa.ResolveRegister(op.Args[1]); err != nil {
			return 0, cst.NewError(op.Pos, "%s", err.Error())
		}
		v, err := parseInteger(op.Args[2])
		if err != nil {
			return 0, cst.NewError(op.Pos, "%s", err.Error())
		}
		imm = v

	case isa.ShapeRsRtLabel:
		if len(op.Args) != 3 {
			return 0, cst.NewError(op.Pos, "%s requires 3 operands, got %d", op.Mnemonic, len(op.Args))
		}
		var err error
		if rs, err = isa.ResolveRegister(op.Args[0]); err != nil {
			return 0, cst.NewError(op.Pos, "%s", err.Error())
		}
		if rt, err = isa.ResolveRegister(op.Args[1]); err != nil {
			return 0, cst.NewError(op.Pos, "%s", err.Error())
		}
		target, err := e.st.Get(op.Args[2])
		if err != nil {
			return 0, cst.NewError(op.Pos, "%s", err.Error())
		}
		// Word offset from the instruction following the branch.
		imm = uint32(int32(target)-int32(addr)-4) / 4 & 0xFFFF

	default:
		return 0, cst.NewError(op.Pos, "unhandled I-form shape for %s", op.Mnemonic)
	}

	word := (desc.Opcode&0x3F)<<26 | (rs&0x1F)<<21 | (rt&0x1F)<<16 | (imm & 0xFFFF)
	return word, nil
}

func (e *encodeCtx) encodeJ(desc isa.Descriptor, op realOp) (uint32, error) {
	if len(op.Args) != 1 {
		return 0, cst.NewError(op.Pos, "%s requires 1 operand, got %d", op.Mnemonic, len(op.Args))
	}
	target, err := e.st.Get(op.Args[0])
	if err != nil {
		return 0, cst.NewError(op.Pos, "%s", err.Error())
	}
	if target&^uint32(0x0FFFFFFC) != 0 {
		return 0, cst.NewError(op.Pos, "jump target 0x%08X does not fit in 28 aligned bits", target)
	}
	word := (desc.Opcode&0x3F)<<26 | (target >> 2)
	return word, nil
}
