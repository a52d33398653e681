// Package preprocess expands .include, .eqv, and .macro/.end_macro
// directives and strips comments, producing still-human-readable text
// for the parser.
package preprocess

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mipskit/mips32/symtab"
)

// Preprocessor expands one source file's worth of directives. State is
// rebuilt per file: callers construct a fresh Preprocessor for each
// top-level source.
type Preprocessor struct {
	equates *symtab.EquateTable
	macros  *symtab.MacroTable

	// capturing holds the in-progress .macro body while between .macro
	// and .end_macro; nil when not capturing.
	capturing *symtab.Macro
}

// New creates a Preprocessor with empty equate and macro tables.
func New() *Preprocessor {
	return &Preprocessor{
		equates: symtab.NewEquateTable(),
		macros:  symtab.NewMacroTable(),
	}
}

// Equates returns the equate table accumulated so far.
func (p *Preprocessor) Equates() *symtab.EquateTable { return p.equates }

// Macros returns the macro table accumulated so far.
func (p *Preprocessor) Macros() *symtab.MacroTable { return p.macros }

// ProcessFile reads path and returns its fully expanded text.
func (p *Preprocessor) ProcessFile(path string) (string, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-supplied assembler source path
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return p.Process(string(data), filepath.Dir(path))
}

// Process expands the directives in src. baseDir anchors relative
// .include paths.
func (p *Preprocessor) Process(src, baseDir string) (string, error) {
	var out []string
	lines := strings.Split(src, "\n")

	for _, raw := range lines {
		line := stripComment(raw)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		first := fields[0]

		if p.capturing != nil {
			if first == ".end_macro" {
				p.macros.Define(p.capturing)
				p.capturing = nil
				continue
			}
			p.capturing.Body = append(p.capturing.Body, line)
			continue
		}

		switch {
		case first == ".include":
			expanded, err := p.expandInclude(line, baseDir)
			if err != nil {
				return "", err
			}
			out = append(out, expanded)
			continue

		case first == ".eqv":
			name, repl, err := parseEqv(fields)
			if err != nil {
				return "", err
			}
			p.equates.Define(name, repl)
			continue

		case first == ".macro":
			m, err := parseMacroHeader(fields)
			if err != nil {
				return "", err
			}
			p.capturing = m
			continue
		}

		out = append(out, p.applyEquates(line))
	}

	if p.capturing != nil {
		return "", fmt.Errorf("unterminated .macro %q (missing .end_macro)", p.capturing.Name)
	}

	return p.expandMacroInvocations(out)
}

func stripComment(line string) string {
	if idx := strings.IndexByte(line, '#'); idx >= 0 {
		return line[:idx]
	}
	return line
}

func (p *Preprocessor) applyEquates(line string) string {
	fields := strings.Fields(line)
	for i, f := range fields {
		fields[i] = p.equates.Apply(f)
	}
	return strings.Join(fields, " ")
}

func (p *Preprocessor) expandInclude(line, baseDir string) (string, error) {
	path := parseQuotedArg(strings.TrimSpace(strings.TrimPrefix(line, ".include")))
	if path == "" {
		return "", fmt.Errorf("invalid .include directive: %q", line)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	data, err := os.ReadFile(path) // #nosec G304 -- path resolved relative to the including source file
	if err != nil {
		return "", fmt.Errorf("include %s: %w", path, err)
	}
	return p.Process(string(data), filepath.Dir(path))
}

func parseQuotedArg(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '<' && s[len(s)-1] == '>') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func parseEqv(fields []string) (name, repl string, err error) {
	if len(fields) < 3 {
		return "", "", fmt.Errorf(".eqv requires NAME and REPL, got %q", strings.Join(fields, " "))
	}
	return fields[1], strings.Join(fields[2:], " "), nil
}

// parseMacroHeader parses ".macro NAME (a, b, c)" into formal parameters,
// derived by stripping parentheses and commas.
func parseMacroHeader(fields []string) (*symtab.Macro, error) {
	if len(fields) < 2 {
		return nil, fmt.Errorf(".macro requires a name")
	}
	name := fields[1]
	rest := strings.Join(fields[2:], " ")
	rest = strings.NewReplacer("(", " ", ")", " ", ",", " ").Replace(rest)
	formals := strings.Fields(rest)
	return &symtab.Macro{Name: name, Formals: formals}, nil
}

// expandMacroInvocations rewrites every line whose first token names a
// known macro into its substituted body, recursively (a macro body may
// invoke another macro).
func (p *Preprocessor) expandMacroInvocations(lines []string) (string, error) {
	var out []string
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		m, ok := p.macros.Lookup(fields[0])
		if !ok {
			out = append(out, line)
			continue
		}
		argText := strings.TrimSpace(strings.Join(fields[1:], " "))
		if strings.HasPrefix(argText, "(") && strings.HasSuffix(argText, ")") {
			argText = argText[1 : len(argText)-1]
		}
		actuals := parseOperandList(argText)
		if len(actuals) != len(m.Formals) {
			return "", fmt.Errorf("macro %q expects %d arguments, got %d", m.Name, len(m.Formals), len(actuals))
		}
		expanded := make([]string, len(m.Body))
		for i, bodyLine := range m.Body {
			expanded[i] = substituteFormals(bodyLine, m.Formals, actuals)
		}
		nested, err := p.expandMacroInvocations(expanded)
		if err != nil {
			return "", err
		}
		out = append(out, nested)
	}
	return strings.Join(out, "\n"), nil
}

func parseOperandList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}

func substituteFormals(line string, formals, actuals []string) string {
	fields := strings.Fields(line)
	for i, f := range fields {
		trailing := ""
		bare := f
		if strings.HasSuffix(bare, ",") {
			trailing = ","
			bare = bare[:len(bare)-1]
		}
		for j, formal := range formals {
			if bare == formal {
				bare = actuals[j]
				break
			}
		}
		fields[i] = bare + trailing
	}
	return strings.Join(fields, " ")
}
