// Command mipsasm assembles a MIPS32 source file into a flat object
// image, delegating to an external assembler when CONFIG names one.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/mipskit/mips32/config"
	"github.com/mipskit/mips32/cst"
	"github.com/mipskit/mips32/encoder"
	"github.com/mipskit/mips32/lineinfo"
	"github.com/mipskit/mips32/preprocess"
)

func main() {
	var (
		emitLineInfo = flag.Bool("lineinfo", false, "additionally emit OUTPUT_AS.li")
		preprocessOnly = flag.Bool("preprocess", false, "emit preprocessed text to stdout and exit")
	)
	flag.BoolVar(emitLineInfo, "l", false, "shorthand for -lineinfo")
	flag.Parse()

	if flag.NArg() != 3 {
		fmt.Fprintln(os.Stderr, "usage: mipsasm [--lineinfo|-l] [--preprocess] CONFIG INPUT_AS OUTPUT_AS")
		os.Exit(1)
	}
	configPath, inputPath, outputPath := flag.Arg(0), flag.Arg(1), flag.Arg(2)

	if err := run(configPath, inputPath, outputPath, *preprocessOnly, *emitLineInfo); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, inputPath, outputPath string, preprocessOnly, emitLineInfo bool) error {
	cfg, err := config.Load(configPath, inputPath, outputPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	pp := preprocess.New()
	preprocessed, err := pp.ProcessFile(inputPath)
	if err != nil {
		return fmt.Errorf("preprocessing %s: %w", inputPath, err)
	}

	if preprocessOnly {
		fmt.Print(preprocessed)
		return nil
	}

	if cfg.Delegates() {
		return delegate(cfg, preprocessed)
	}

	seq, err := cst.Parse(preprocessed, inputPath)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", inputPath, err)
	}

	lines := strings.Split(preprocessed, "\n")
	lineOf := func(n *cst.Node) (int, string) {
		if n.Pos.Line < 1 || n.Pos.Line > len(lines) {
			return n.Pos.Line, ""
		}
		return n.Pos.Line, strings.TrimSpace(lines[n.Pos.Line-1])
	}

	result, err := encoder.Encode(seq, lineOf)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", inputPath, err)
	}

	if err := writeObject(outputPath, result); err != nil {
		return err
	}

	if len(result.Data) > 0 {
		if err := os.WriteFile(outputPath+".data", result.Data, 0o600); err != nil {
			return fmt.Errorf("writing data sidecar %s.data: %w", outputPath, err)
		}
	}

	if emitLineInfo {
		if err := lineinfo.Write(outputPath+".li", result.Words); err != nil {
			return fmt.Errorf("writing line-info %s.li: %w", outputPath, err)
		}
	}

	return nil
}

func writeObject(path string, result *encoder.Result) error {
	buf := make([]byte, 0, len(result.Words)*4)
	for _, w := range result.Words {
		buf = append(buf, byte(w.Bits), byte(w.Bits>>8), byte(w.Bits>>16), byte(w.Bits>>24))
	}
	if err := os.WriteFile(path, buf, 0o600); err != nil {
		return fmt.Errorf("writing object %s: %w", path, err)
	}
	return nil
}

// delegate writes the preprocessed text to a temporary file (always,
// whether or not a template references {PREPROCESSED_AS}) and runs each
// as_cmd template as an external command in sequence.
func delegate(cfg *config.Config, preprocessed string) error {
	tmp, err := os.CreateTemp("", "mipsasm-preprocessed-*.s")
	if err != nil {
		return fmt.Errorf("creating preprocessed temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(preprocessed); err != nil {
		tmp.Close()
		return fmt.Errorf("writing preprocessed temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing preprocessed temp file: %w", err)
	}

	for _, template := range cfg.AsCmd {
		expanded := config.ExpandCommand(template, tmp.Name())
		fields := strings.Fields(expanded)
		if len(fields) == 0 {
			continue
		}
		cmd := exec.Command(fields[0], fields[1:]...) // #nosec G204 -- CONFIG-supplied delegate command
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("running delegate command %q: %w", expanded, err)
		}
	}
	return nil
}
