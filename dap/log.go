package dap

import (
	"io"
	"log"
	"os"
)

// sessionLog is silent unless MIPS32_DAP_DEBUG is set, mirroring the
// gated-logger convention used throughout this toolchain.
var sessionLog *log.Logger

func init() {
	if os.Getenv("MIPS32_DAP_DEBUG") != "" {
		sessionLog = log.New(os.Stderr, "[dap] ", log.LstdFlags|log.Lmicroseconds)
	} else {
		sessionLog = log.New(io.Discard, "", 0)
	}
}
