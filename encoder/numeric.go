package encoder

import (
	"fmt"
	"strconv"
	"strings"
)

// parseInteger parses a MIPS assembly integer literal: hex (0x), binary
// (0b), leading-0 octal, or decimal, optionally signed. The result is
// the 32-bit two's-complement bit pattern of the value.
func parseInteger(tok string) (uint32, error) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return 0, fmt.Errorf("empty integer literal")
	}

	neg := false
	if tok[0] == '-' {
		neg = true
		tok = tok[1:]
	} else if tok[0] == '+' {
		tok = tok[1:]
	}

	var (
		v   uint64
		err error
	)
	switch {
	case strings.HasPrefix(tok, "0x") || strings.HasPrefix(tok, "0X"):
		v, err = strconv.ParseUint(tok[2:], 16, 64)
	case strings.HasPrefix(tok, "0b") || strings.HasPrefix(tok, "0B"):
		v, err = strconv.ParseUint(tok[2:], 2, 64)
	case len(tok) > 1 && tok[0] == '0':
		v, err = strconv.ParseUint(tok, 8, 64)
	default:
		v, err = strconv.ParseUint(tok, 10, 64)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid integer literal %q: %w", tok, err)
	}

	result := uint32(v)
	if neg {
		result = -result
	}
	return result, nil
}

// splitMemOperand splits an `imm(reg)` token into its imm text and
// register text. If there is no '(' the whole token is the register and
// imm defaults to "0".
func splitMemOperand(tok string) (imm, reg string, err error) {
	tok = strings.TrimSpace(tok)
	open := strings.IndexByte(tok, '(')
	if open < 0 {
		return "0", tok, nil
	}
	close := strings.IndexByte(tok, ')')
	if close < open {
		return "", "", fmt.Errorf("malformed memory operand %q", tok)
	}
	imm = strings.TrimSpace(tok[:open])
	if imm == "" {
		imm = "0"
	}
	reg = strings.TrimSpace(tok[open+1 : close])
	return imm, reg, nil
}
