package dap

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/mipskit/mips32/lineinfo"
	"github.com/mipskit/mips32/mips"
)

type sessionState int

const (
	stateCreated sessionState = iota
	stateInitialized
	stateRunning
	stateTerminated
)

// Session is the per-connection debug-adapter state machine: one
// Session per accepted TCP client, wrapping a single mips.Machine.
//
// Lock ordering: mu guards machine, lines, state, and seq. Handle holds
// the write lock for the duration of a request, including the whole of
// a Step/Continue loop, so Machine is never read mid-mutation. A
// read-only observer must go through Inspect, which takes the read
// lock, rather than holding onto the *mips.Machine pointer itself —
// Restart swaps it out from under any cached reference.
type Session struct {
	mu sync.RWMutex

	machine  *mips.Machine
	lines    lineinfo.Table
	state    sessionState
	seq      int
	exitCode int

	// Reload rebuilds the Machine from the original program bytes, for
	// the Restart request. Nil means Restart falls back to Reset,
	// which clears registers but not memory.
	Reload func() (*mips.Machine, error)
}

// NewSession wraps an already-loaded Machine for debug-adapter control.
func NewSession(m *mips.Machine, lines lineinfo.Table) *Session {
	return &Session{machine: m, lines: lines, state: stateCreated}
}

// Inspect calls fn with the session's current machine and line table
// under a read lock, so a concurrently polling observer never sees a
// partially stepped Machine or a stale pointer after Restart. fn must
// not call back into the Session.
func (s *Session) Inspect(fn func(*mips.Machine, lineinfo.Table)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.machine, s.lines)
}

func (s *Session) nextSeq() int {
	s.seq++
	return s.seq
}

func (s *Session) response(req Message, body any) Message {
	var raw json.RawMessage
	if body != nil {
		raw, _ = json.Marshal(body)
	}
	return Message{
		Seq:     s.nextSeq(),
		Type:    "response",
		Command: req.Command,
		Success: true,
		Body:    raw,
	}
}

func (s *Session) errorResponse(req Message, err error) Message {
	return Message{
		Seq:     s.nextSeq(),
		Type:    "response",
		Command: req.Command,
		Success: false,
		Message: err.Error(),
	}
}

func (s *Session) event(name string, body any) Message {
	var raw json.RawMessage
	if body != nil {
		raw, _ = json.Marshal(body)
	}
	return Message{Seq: s.nextSeq(), Type: "event", Event: name, Body: raw}
}

// Handle dispatches one request and returns the messages to write back,
// in order (typically a response followed by zero or more events).
func (s *Session) Handle(req Message) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessionLog.Printf("request: %s", req.Command)

	switch req.Command {
	case "initialize":
		s.state = stateInitialized
		return []Message{s.response(req, capabilities()), s.event("initialized", nil)}
	case "launch":
		return s.handleLaunch(req)
	case "next":
		return s.handleStep(req)
	case "continue":
		return s.handleContinue(req)
	case "restart":
		return s.handleRestart(req)
	case "readMemory":
		return s.handleReadMemory(req)
	case "writeMemory":
		return s.handleWriteMemory(req)
	case "stackTrace":
		return s.handleStackTrace(req)
	case "scopes":
		return s.handleScopes(req)
	case "variables":
		return s.handleVariables(req)
	case "exceptionInfo":
		return s.handleExceptionInfo(req)
	case "disconnect":
		s.state = stateTerminated
		return []Message{s.response(req, nil)}
	default:
		return []Message{s.errorResponse(req, fmt.Errorf("unsupported command %q", req.Command))}
	}
}

func (s *Session) handleLaunch(req Message) []Message {
	s.state = stateRunning
	return []Message{s.response(req, nil), s.event("stopped", StoppedBody{Reason: "step"})}
}

// stepOnce executes exactly one instruction and reports the resulting
// stop reason, or the terminal events if the program finished.
func (s *Session) stepOnce(req Message) []Message {
	if s.machine.PC == s.machine.StopAddress {
		s.state = stateTerminated
		return []Message{s.response(req, nil), s.event("terminated", nil), s.event("exited", ExitedBody{ExitCode: s.exitCode})}
	}

	err := s.machine.Step()
	out := []Message{s.response(req, nil)}

	var complete *mips.ProgramCompleteEvent
	switch {
	case errors.As(err, &complete):
		s.state = stateTerminated
		out = append(out, s.event("terminated", nil), s.event("exited", ExitedBody{ExitCode: s.exitCode}))
	case err != nil:
		out = append(out, s.event("stopped", StoppedBody{Reason: "exception"}))
	default:
		out = append(out, s.event("stopped", StoppedBody{Reason: "step"}))
	}
	return out
}

func (s *Session) handleStep(req Message) []Message {
	return s.stepOnce(req)
}

func (s *Session) handleContinue(req Message) []Message {
	for {
		if s.machine.PC == s.machine.StopAddress {
			s.state = stateTerminated
			return []Message{s.response(req, nil), s.event("terminated", nil), s.event("exited", ExitedBody{ExitCode: s.exitCode})}
		}

		err := s.machine.Step()
		var complete *mips.ProgramCompleteEvent
		switch {
		case errors.As(err, &complete):
			s.state = stateTerminated
			return []Message{s.response(req, nil), s.event("terminated", nil), s.event("exited", ExitedBody{ExitCode: s.exitCode})}
		case err != nil:
			return []Message{s.response(req, nil), s.event("stopped", StoppedBody{Reason: "exception"})}
		}
	}
}

func (s *Session) handleRestart(req Message) []Message {
	if s.Reload != nil {
		m, err := s.Reload()
		if err != nil {
			return []Message{s.errorResponse(req, err)}
		}
		s.machine = m
	} else {
		s.machine.Reset()
	}
	s.state = stateRunning
	return []Message{s.response(req, nil), s.event("stopped", StoppedBody{Reason: "step"})}
}

func (s *Session) handleReadMemory(req Message) []Message {
	var args ReadMemoryArgs
	if err := json.Unmarshal(req.Args, &args); err != nil {
		return []Message{s.errorResponse(req, err)}
	}
	addr, err := parseMemoryReference(args.Address)
	if err != nil {
		return []Message{s.errorResponse(req, err)}
	}
	addr += uint32(args.Offset)

	buf := make([]byte, args.Count)
	unreadable := 0
	for i := range buf {
		b, err := s.machine.Mem.ReadByte(addr + uint32(i))
		if err != nil {
			unreadable = args.Count - i
			buf = buf[:i]
			break
		}
		buf[i] = b
	}

	body := ReadMemoryBody{
		Address:         fmt.Sprintf("0x%x", addr),
		Data:            base64.StdEncoding.EncodeToString(buf),
		UnreadableBytes: unreadable,
	}
	return []Message{s.response(req, body)}
}

func (s *Session) handleWriteMemory(req Message) []Message {
	var args WriteMemoryArgs
	if err := json.Unmarshal(req.Args, &args); err != nil {
		return []Message{s.errorResponse(req, err)}
	}
	addr, err := parseMemoryReference(args.Address)
	if err != nil {
		return []Message{s.errorResponse(req, err)}
	}
	addr += uint32(args.Offset)

	data, err := base64.StdEncoding.DecodeString(args.Data)
	if err != nil {
		return []Message{s.errorResponse(req, err)}
	}
	if err := s.machine.Mem.WriteBytes(addr, data); err != nil {
		s.state = stateTerminated
		return []Message{s.errorResponse(req, err), s.event("terminated", nil), s.event("exited", ExitedBody{ExitCode: s.exitCode})}
	}
	return []Message{s.response(req, nil)}
}

func (s *Session) handleStackTrace(req Message) []Message {
	rec, ok := s.lines.Lookup(s.machine.PC)
	frame := StackFrame{ID: 0, Name: rec.LineContents, Line: rec.LineNumber}
	if !ok {
		frame = StackFrame{ID: 0, Name: fmt.Sprintf("0x%08x", s.machine.PC), Line: 0}
	}
	body := StackTraceBody{StackFrames: []StackFrame{frame}, TotalFrames: 1}
	return []Message{s.response(req, body)}
}

func (s *Session) handleScopes(req Message) []Message {
	body := ScopesBody{Scopes: []Scope{{Name: "Registers", VariablesReference: registersVariablesReference}}}
	return []Message{s.response(req, body)}
}

func (s *Session) handleVariables(req Message) []Message {
	vars := make([]Variable, 0, 35)
	for i := 0; i < 32; i++ {
		vars = append(vars, Variable{Name: registerName(i), Value: fmt.Sprintf("0x%08x", s.machine.Reg(uint32(i)))})
	}
	vars = append(vars,
		Variable{Name: "pc", Value: fmt.Sprintf("0x%08x", s.machine.PC)},
		Variable{Name: "hi", Value: fmt.Sprintf("0x%08x", s.machine.Hi)},
		Variable{Name: "lo", Value: fmt.Sprintf("0x%08x", s.machine.Lo)},
	)
	return []Message{s.response(req, VariablesBody{Variables: vars})}
}

func (s *Session) handleExceptionInfo(req Message) []Message {
	if s.machine.PrevResult == nil {
		return []Message{s.errorResponse(req, errors.New("no active exception"))}
	}
	body := ExceptionInfoBody{
		ExceptionID: exceptionCategory(s.machine.PrevResult),
		Description: s.machine.PrevResult.Error(),
	}
	return []Message{s.response(req, body)}
}

// exceptionCategory projects a fault into the handful of human-readable
// labels a debug-adapter client shows in its exception pane, mirroring
// the original emulator's exception_pretty_print categories.
func exceptionCategory(err error) string {
	switch err.(type) {
	case *mips.MemoryObviousOverrunAccessError:
		return "Buffer Overflow"
	case *mips.MemoryIllegalAccessError:
		return "Illegal Access"
	case *mips.UndefinedInstructionError:
		return "Undefined Instruction"
	case *mips.IntegerOverflowError:
		return "Integer Overflow"
	case *mips.SyscallInvalidSyscallNumberError, *mips.SyscallInvalidArgumentError:
		return "Illegal Access"
	default:
		return "Exception"
	}
}

func parseMemoryReference(ref string) (uint32, error) {
	var addr uint32
	_, err := fmt.Sscanf(ref, "0x%x", &addr)
	if err != nil {
		return 0, fmt.Errorf("invalid memory reference %q: %w", ref, err)
	}
	return addr, nil
}

var registerMnemonics = [32]string{
	"zero", "at", "v0", "v1", "a0", "a1", "a2", "a3",
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7",
	"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7",
	"t8", "t9", "k0", "k1", "gp", "sp", "fp", "ra",
}

func registerName(n int) string {
	return fmt.Sprintf("$%s", registerMnemonics[n&0x1F])
}
