package ember

import (
	"os"
	"time"
)

// CallSite captures the caller location of an emission call. It is filled in
// by the emission methods on Logger, which are the "macro" boundary the
// spec's design notes (§9) call for: callers never need to pass this
// themselves.
type CallSite struct {
	File     string
	FileName string
	Line     int
	Func     string
}

// ThreadInfo and ProcessInfo are best-effort analogues of the Python
// source's thread/process identifiers; Go has no addressable OS-thread
// handle, so the emission methods leave ThreadInfo zero (ID 0, Name
// blank).
type ThreadInfo struct {
	ID   int64
	Name string
}

type ProcessInfo struct {
	ID   int
	Name string
}

// ExceptionInfo records a rendered exception/traceback attached via the
// exc_info emission option.
type ExceptionInfo struct {
	Type      string
	Value     string
	Traceback string
}

// LogRecord is an immutable snapshot captured at emission time. Sinks must
// not mutate it (spec §9 "Record as a plain immutable struct").
type LogRecord struct {
	Timestamp time.Time
	Severity  Severity
	LevelName string
	Logger    string

	MessageTemplate string
	Args            []any
	Message         string // rendered once, lazily, only if dispatch proceeds

	Fields map[string]any

	CallSite CallSite
	Thread   ThreadInfo
	Process  ProcessInfo
	TaskName string

	RelativeCreated time.Duration

	Exception *ExceptionInfo
	Stack     string
}

var currentProcess = ProcessInfo{ID: os.Getpid(), Name: processName()}

func processName() string {
	if len(os.Args) > 0 {
		return os.Args[0]
	}
	return ""
}
