// Package symtab holds the label/equate/macro tables shared by the
// parser and the encoder.
package symtab

import "fmt"

// SymbolTable maps label names to absolute addresses. It is populated in
// pass 1 of encoding and treated as read-only in pass 2.
type SymbolTable struct {
	addrs map[string]uint32
}

// NewSymbolTable creates an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{addrs: make(map[string]uint32)}
}

// Define inserts a label at the given address. Redefining an existing
// label is a duplicate-label error.
func (st *SymbolTable) Define(name string, addr uint32) error {
	if _, exists := st.addrs[name]; exists {
		return fmt.Errorf("duplicate label %q", name)
	}
	st.addrs[name] = addr
	return nil
}

// Get resolves a label to its address, or fails with an undefined-label
// error.
func (st *SymbolTable) Get(name string) (uint32, error) {
	addr, ok := st.addrs[name]
	if !ok {
		return 0, fmt.Errorf("undefined label %q", name)
	}
	return addr, nil
}

// Has reports whether name is a known label.
func (st *SymbolTable) Has(name string) bool {
	_, ok := st.addrs[name]
	return ok
}

// Len returns the number of defined labels.
func (st *SymbolTable) Len() int {
	return len(st.addrs)
}

// All returns a copy of the label→address mapping, for symbol dumps.
func (st *SymbolTable) All() map[string]uint32 {
	out := make(map[string]uint32, len(st.addrs))
	for k, v := range st.addrs {
		out[k] = v
	}
	return out
}

// EquateTable maps .eqv names to their textual replacement, applied by
// the preprocessor via substring substitution (see Apply).
type EquateTable struct {
	repl map[string]string
	// order records insertion order for Apply; substitution order
	// beyond that is not otherwise significant.
	order []string
}

// NewEquateTable creates an empty equate table.
func NewEquateTable() *EquateTable {
	return &EquateTable{repl: make(map[string]string)}
}

// Define records name → replacement. Later definitions of the same name
// overwrite earlier ones.
func (et *EquateTable) Define(name, replacement string) {
	if _, exists := et.repl[name]; !exists {
		et.order = append(et.order, name)
	}
	et.repl[name] = replacement
}

// Apply performs substring replacement of every known equate name in
// token, iterating the table in definition order. Because replacement is
// substring-based rather than token-based, a short equate name can
// partially overwrite a longer identifier that contains it.
func (et *EquateTable) Apply(token string) string {
	for _, name := range et.order {
		if name == "" {
			continue
		}
		token = replaceAll(token, name, et.repl[name])
	}
	return token
}

func replaceAll(s, old, new string) string {
	if old == "" {
		return s
	}
	var out []byte
	for {
		idx := indexOf(s, old)
		if idx < 0 {
			out = append(out, s...)
			break
		}
		out = append(out, s[:idx]...)
		out = append(out, new...)
		s = s[idx+len(old):]
	}
	return string(out)
}

func indexOf(s, sub string) int {
	n, m := len(s), len(sub)
	if m == 0 || m > n {
		return -1
	}
	for i := 0; i+m <= n; i++ {
		if s[i:i+m] == sub {
			return i
		}
	}
	return -1
}

// Macro is a captured .macro body with its formal parameter list.
type Macro struct {
	Name    string
	Formals []string
	Body    []string // post-preprocessing lines, literal text
}

// MacroTable maps macro names to their definitions.
type MacroTable struct {
	macros map[string]*Macro
}

// NewMacroTable creates an empty macro table.
func NewMacroTable() *MacroTable {
	return &MacroTable{macros: make(map[string]*Macro)}
}

// Define records a macro definition, overwriting any prior definition of
// the same name; redefinition is not an error, last one wins.
func (mt *MacroTable) Define(m *Macro) {
	mt.macros[m.Name] = m
}

// Lookup returns the macro named name, if any.
func (mt *MacroTable) Lookup(name string) (*Macro, bool) {
	m, ok := mt.macros[name]
	return m, ok
}
