// Package dap implements the debug adapter state machine: a raw TCP
// request/response loop that maps DAP commands onto mips.Machine
// operations and emits Stopped/Terminated/Exited events.
package dap

import "encoding/json"

// Message is the envelope shared by requests, responses, and events —
// the three DAP message types distinguished by the "type" field.
type Message struct {
	Seq     int             `json:"seq"`
	Type    string          `json:"type"` // "request", "response", "event"
	Command string          `json:"command,omitempty"`
	Event   string          `json:"event,omitempty"`
	Success bool            `json:"success,omitempty"`
	Message string          `json:"message,omitempty"`
	Body    json.RawMessage `json:"body,omitempty"`
	Args    json.RawMessage `json:"arguments,omitempty"`
}

// Capabilities is the body of the Initialize response.
type Capabilities struct {
	SupportsRestartRequest            bool `json:"supportsRestartRequest"`
	SupportsExceptionInfoRequest      bool `json:"supportsExceptionInfoRequest"`
	SupportsConfigurationDoneRequest  bool `json:"supportsConfigurationDoneRequest"`
	SupportsFunctionBreakpoints       bool `json:"supportsFunctionBreakpoints"`
}

func capabilities() Capabilities {
	return Capabilities{
		SupportsRestartRequest:           true,
		SupportsExceptionInfoRequest:     true,
		SupportsConfigurationDoneRequest: true,
		SupportsFunctionBreakpoints:      true,
	}
}

// StoppedBody is the body of a Stopped event.
type StoppedBody struct {
	Reason string `json:"reason"` // "step" or "exception"
}

// ExitedBody is the body of an Exited event.
type ExitedBody struct {
	ExitCode int `json:"exitCode"`
}

// ReadMemoryArgs is the arguments shape for ReadMemory.
type ReadMemoryArgs struct {
	Address string `json:"memoryReference"`
	Offset  int    `json:"offset,omitempty"`
	Count   int    `json:"count"`
}

// ReadMemoryBody is the response body for ReadMemory.
type ReadMemoryBody struct {
	Address         string `json:"address"`
	Data            string `json:"data"` // base64
	UnreadableBytes int    `json:"unreadableBytes,omitempty"`
}

// WriteMemoryArgs is the arguments shape for WriteMemory.
type WriteMemoryArgs struct {
	Address string `json:"memoryReference"`
	Offset  int    `json:"offset,omitempty"`
	Data    string `json:"data"` // base64
}

// StackFrame is one synthesized frame.
type StackFrame struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Line   int    `json:"line"`
	Source string `json:"source,omitempty"`
}

// StackTraceBody is the response body for StackTrace.
type StackTraceBody struct {
	StackFrames []StackFrame `json:"stackFrames"`
	TotalFrames int          `json:"totalFrames"`
}

// Scope is one variables-reference scope.
type Scope struct {
	Name               string `json:"name"`
	VariablesReference int    `json:"variablesReference"`
}

// ScopesBody is the response body for Scopes.
type ScopesBody struct {
	Scopes []Scope `json:"scopes"`
}

// registersVariablesReference is the fixed reference used for the single
// Registers scope.
const registersVariablesReference = 1001

// Variable is one name/value pair under a scope.
type Variable struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// VariablesBody is the response body for Variables.
type VariablesBody struct {
	Variables []Variable `json:"variables"`
}

// ExceptionInfoBody is the response body for ExceptionInfo.
type ExceptionInfoBody struct {
	ExceptionID string `json:"exceptionId"`
	Description string `json:"description"`
}

// RestartArgs describes the optional restart flag of a Disconnect
// request. No handler decodes it: Disconnect always ends the session and
// Serve returns, whatever the flag says.
type RestartArgs struct {
	Restart bool `json:"restart,omitempty"`
}
