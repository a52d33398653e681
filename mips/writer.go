package mips

import "os"

// StdoutWriter sends syscall print output straight to the process's
// standard output, for command-line wiring where no capture is needed.
type StdoutWriter struct{}

func (StdoutWriter) WriteString(s string) (int, error) {
	return os.Stdout.WriteString(s)
}
