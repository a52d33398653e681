// Command mipsasm-emu loads an assembled object image and serves it to
// exactly one DAP client over a TCP socket, optionally mirroring
// machine state into a read-only terminal inspector.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mipskit/mips32/dap"
	"github.com/mipskit/mips32/inspector"
	"github.com/mipskit/mips32/lineinfo"
	"github.com/mipskit/mips32/loader"
	"github.com/mipskit/mips32/mips"
)

func main() {
	inspect := flag.Bool("inspect", false, "attach a read-only terminal inspector")
	flag.Parse()

	if flag.NArg() != 4 {
		fmt.Fprintln(os.Stderr, "usage: mipsasm-emu [--inspect] PORT SOURCE OBJECT LINEINFO")
		os.Exit(1)
	}
	port, objectPath, lineInfoPath := flag.Arg(0), flag.Arg(2), flag.Arg(3)
	// SOURCE (flag.Arg(1)) is retained by the emulator CLI contract but
	// not re-read: the object image and line-info sidecar already carry
	// everything the debug adapter needs.

	if err := run(port, objectPath, lineInfoPath, *inspect); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(port, objectPath, lineInfoPath string, inspect bool) error {
	lines, err := lineinfo.Load(lineInfoPath)
	if err != nil {
		return fmt.Errorf("loading line-info %s: %w", lineInfoPath, err)
	}

	var out mips.Writer = mips.StdoutWriter{}

	m, err := loader.Load(objectPath, out)
	if err != nil {
		return fmt.Errorf("loading object %s: %w", objectPath, err)
	}

	session := dap.NewSession(m, lines)
	session.Reload = func() (*mips.Machine, error) {
		return loader.Load(objectPath, out)
	}

	// The inspector never touches m directly: it polls session.Inspect,
	// which takes the session's read lock, so its ticker goroutine can
	// never observe a Machine mid-Step or a pointer Restart replaced.
	var insp *inspector.Inspector
	if inspect {
		insp = inspector.New(session)
		out = insp
		m.Out = insp
		go func() {
			if err := insp.Run(); err != nil {
				fmt.Fprintln(os.Stderr, "inspector error:", err)
			}
		}()
	}

	addr := fmt.Sprintf("127.0.0.1:%s", port)
	if err := dap.Serve(addr, session); err != nil {
		return fmt.Errorf("serving debug adapter: %w", err)
	}
	if insp != nil {
		insp.Stop()
	}
	return nil
}
