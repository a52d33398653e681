// Package lineinfo reads and writes the assembler's OUTPUT_AS.li
// sidecar: a TOML document mapping each instruction address to the
// source line that produced it, used by the debug adapter for
// source-level stepping and stack traces.
package lineinfo

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/mipskit/mips32/encoder"
)

// Record is one instruction's source provenance.
type Record struct {
	InstrAddr    uint32 `toml:"instr_addr"`
	LineNumber   int    `toml:"line_number"`
	LineContents string `toml:"line_contents"`
	PseudoOp     string `toml:"pseudo_op"`
}

// document is the on-disk TOML shape: an array of tables under "record".
type document struct {
	Record []Record `toml:"record"`
}

// Table is the line-info sidecar rehydrated as a mapping keyed by
// instruction address.
type Table map[uint32]Record

// FromWords builds a Table directly from the encoder's output, without a
// round trip through disk.
func FromWords(words []encoder.EncodedWord) Table {
	t := make(Table, len(words))
	for _, w := range words {
		t[w.Address] = Record{
			InstrAddr:    w.Address,
			LineNumber:   w.SourceLine,
			LineContents: w.SourceText,
			PseudoOp:     w.PseudoOp,
		}
	}
	return t
}

// Write serializes words as the OUTPUT_AS.li TOML sidecar at path.
func Write(path string, words []encoder.EncodedWord) error {
	doc := document{Record: make([]Record, len(words))}
	for i, w := range words {
		doc.Record[i] = Record{
			InstrAddr:    w.Address,
			LineNumber:   w.SourceLine,
			LineContents: w.SourceText,
			PseudoOp:     w.PseudoOp,
		}
	}

	f, err := os.Create(path) // #nosec G304 -- CLI-supplied output path
	if err != nil {
		return fmt.Errorf("creating line-info file %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(doc); err != nil {
		return fmt.Errorf("encoding line-info file %s: %w", path, err)
	}
	return nil
}

// Load reads and rehydrates path into a Table keyed by instruction
// address.
func Load(path string) (Table, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- CLI-supplied line-info path
	if err != nil {
		return nil, fmt.Errorf("reading line-info file %s: %w", path, err)
	}

	var doc document
	if _, err := toml.Decode(string(raw), &doc); err != nil {
		return nil, fmt.Errorf("parsing line-info file %s: %w", path, err)
	}

	t := make(Table, len(doc.Record))
	for _, r := range doc.Record {
		t[r.InstrAddr] = r
	}
	return t, nil
}

// Lookup finds the record for addr, if any.
func (t Table) Lookup(addr uint32) (Record, bool) {
	r, ok := t[addr]
	return r, ok
}
