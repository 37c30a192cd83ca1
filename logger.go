package ember

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Logger is a named node in the registry's hierarchy, per spec §3/§4.1.
// Loggers reference their sinks; sinks never reference a logger back, to
// avoid cycles (spec §9 "Back-references").
type Logger struct {
	name string

	explicitSeverity atomic.Int64 // Severity, NotSet means "inherit"

	mu        sync.RWMutex
	console   *ConsoleSink
	fileSinks []Sink
	retired   bool
	destroyed bool

	lastRecord atomic.Pointer[LogRecord]
}

func newLogger(name string) *Logger {
	l := &Logger{name: name}
	l.explicitSeverity.Store(int64(NotSet))
	return l
}

// Name returns the logger's dotted name.
func (l *Logger) Name() string { return l.name }

// Child returns (creating if absent) the logger named "l.Name()+"."+suffix",
// a convenience over the package-level Get.
func (l *Logger) Child(suffix string) (*Logger, error) {
	return Get(l.name + "." + suffix)
}

// SetSeverity sets the logger's explicit severity; NotSet restores
// inheritance from the parent chain.
func (l *Logger) SetSeverity(sev Severity) {
	l.explicitSeverity.Store(int64(sev))
}

// Severity returns the logger's explicit severity (NotSet if inheriting).
func (l *Logger) Severity() Severity {
	return Severity(l.explicitSeverity.Load())
}

// EffectiveSeverity resolves the logger's effective severity by walking the
// dotted-name parent chain, per spec §4.1.
func (l *Logger) EffectiveSeverity() Severity {
	return resolveEffective(l.name)
}

// Loggable reports whether a record at sev would survive filtering,
// grounded on opencoff-go-logger's Logger.Loggable.
func (l *Logger) Loggable(sev Severity) bool {
	return sev >= l.EffectiveSeverity()
}

// AddConsole attaches a console sink to l, replacing any existing one (spec
// §3: "console-sink: at most one").
func (l *Logger) AddConsole(w io.Writer, details *LogRecordDetails) *ConsoleSink {
	sink := NewConsoleSink(w, details)
	l.mu.Lock()
	l.console = sink
	l.mu.Unlock()
	return sink
}

// AddFile attaches a new rotating file sink to l's ordered sink set.
func (l *Logger) AddFile(dir, base, ext string, rotation *RotationLogic, details *LogRecordDetails) (*RotatingFileSink, error) {
	sink, err := NewRotatingFileSink(dir, base, ext, rotation, details)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.fileSinks = append(l.fileSinks, sink)
	l.mu.Unlock()
	return sink, nil
}

// AddSink attaches an arbitrary Sink implementation (e.g. a test Recorder)
// to l's file-sink list.
func (l *Logger) AddSink(s Sink) {
	l.mu.Lock()
	l.fileSinks = append(l.fileSinks, s)
	l.mu.Unlock()
}

func (l *Logger) closeSinksLocked() {
	if l.console != nil {
		l.console.Close()
	}
	for _, s := range l.fileSinks {
		s.Close()
	}
}

// LastRecord returns the last record emitted by l, or nil. Used for test
// inspection (spec §6's get_record()).
func (l *Logger) LastRecord() *LogRecord {
	return l.lastRecord.Load()
}

// emissionOption customizes a single emission call, modeling spec §6's
// "fields / exc_info / stack_info / **keyword_fields" parameters as
// composable options instead of a single sprawling parameter list.
type emissionOption func(*emissionState)

type emissionState struct {
	fields    map[string]any
	exc       *ExceptionInfo
	stack     string
	ctx       context.Context
	taskName  string
}

// WithFields attaches a structured fields mapping to the emission.
func WithFields(fields map[string]any) emissionOption {
	return func(s *emissionState) {
		if s.fields == nil {
			s.fields = make(map[string]any, len(fields))
		}
		for k, v := range fields {
			s.fields[k] = v
		}
	}
}

// WithField attaches a single keyword field; on key collision with
// WithFields, the later-applied option wins, matching spec §4.2 step 4's
// "keyword arguments win" rule when keyword fields are applied last.
func WithField(key string, value any) emissionOption {
	return func(s *emissionState) {
		if s.fields == nil {
			s.fields = make(map[string]any, 1)
		}
		s.fields[key] = value
	}
}

// WithExcInfo attaches a rendered exception to the emission.
func WithExcInfo(err error) emissionOption {
	return func(s *emissionState) {
		if err == nil {
			return
		}
		s.exc = &ExceptionInfo{Type: fmt.Sprintf("%T", err), Value: err.Error()}
	}
}

// WithStackInfo captures the current goroutine's stack into the emission.
func WithStackInfo() emissionOption {
	return func(s *emissionState) {
		buf := make([]byte, 4096)
		n := runtime.Stack(buf, false)
		s.stack = string(buf[:n])
	}
}

// WithContext merges OTel baggage/span fields from ctx into the emission,
// per SPEC_FULL §4.6.
func WithContext(ctx context.Context) emissionOption {
	return func(s *emissionState) { s.ctx = ctx }
}

// WithTaskName attaches an optional task-name to the record.
func WithTaskName(name string) emissionOption {
	return func(s *emissionState) { s.taskName = name }
}

// Log emits a record at the named level; it is how user-registered levels,
// which have no fixed convenience method, are reached, per spec §9's design
// note on dynamically exposed level methods. An unregistered level name is
// reported on stderr and nothing is emitted.
func (l *Logger) Log(levelName string, msgTemplate string, args []any, opts ...emissionOption) {
	entry, ok := lookupLevel(levelName)
	if !ok {
		reportSinkError(l.name, fmt.Errorf("unknown level %q", levelName))
		return
	}
	l.emit(entry.Name, entry.Severity, msgTemplate, args, opts)
}

func (l *Logger) Trace(msg string, args ...any)    { l.emit("TRACE", Trace, msg, args, nil) }
func (l *Logger) Debug(msg string, args ...any)    { l.emit("DEBUG", Debug, msg, args, nil) }
func (l *Logger) Info(msg string, args ...any)     { l.emit("INFO", Info, msg, args, nil) }
func (l *Logger) Warning(msg string, args ...any)  { l.emit("WARNING", Warning, msg, args, nil) }
func (l *Logger) Error(msg string, args ...any)    { l.emit("ERROR", Error, msg, args, nil) }
func (l *Logger) Critical(msg string, args ...any) { l.emit("CRITICAL", Critical, msg, args, nil) }

// TraceOpts, et al. mirror the fixed-level convenience methods above, with
// room for emissionOptions (fields/exc_info/stack_info/context).
func (l *Logger) TraceOpts(msg string, args []any, opts ...emissionOption) {
	l.emit("TRACE", Trace, msg, args, opts)
}
func (l *Logger) DebugOpts(msg string, args []any, opts ...emissionOption) {
	l.emit("DEBUG", Debug, msg, args, opts)
}
func (l *Logger) InfoOpts(msg string, args []any, opts ...emissionOption) {
	l.emit("INFO", Info, msg, args, opts)
}
func (l *Logger) WarningOpts(msg string, args []any, opts ...emissionOption) {
	l.emit("WARNING", Warning, msg, args, opts)
}
func (l *Logger) ErrorOpts(msg string, args []any, opts ...emissionOption) {
	l.emit("ERROR", Error, msg, args, opts)
}
func (l *Logger) CriticalOpts(msg string, args []any, opts ...emissionOption) {
	l.emit("CRITICAL", Critical, msg, args, opts)
}

// Raw bypasses formatting entirely, writing text directly to the console
// sink if attached, per spec §4.4/§6.
func (l *Logger) Raw(text string) error {
	l.mu.RLock()
	console := l.console
	l.mu.RUnlock()
	if console == nil {
		return nil
	}
	return console.Raw(text)
}

// emit builds the LogRecord once and dispatches it to the logger's sinks
// and, if active, the audit sink, per spec §4.1 "Dispatch".
func (l *Logger) emit(levelName string, sev Severity, msgTemplate string, args []any, opts []emissionOption) {
	l.mu.RLock()
	retired := l.retired
	destroyed := l.destroyed
	l.mu.RUnlock()
	if retired || destroyed {
		return // LifecycleViolation on emission is silent (spec §7).
	}

	if !l.Loggable(sev) {
		return
	}

	st := &emissionState{}
	for _, o := range opts {
		o(st)
	}

	fields := st.fields
	if st.ctx != nil {
		ctxFields := FieldsFromContext(st.ctx)
		if len(ctxFields) > 0 {
			merged := make(map[string]any, len(ctxFields)+len(fields))
			for k, v := range ctxFields {
				merged[k] = v
			}
			for k, v := range fields {
				merged[k] = v
			}
			fields = merged
		}
	}

	rec := &LogRecord{
		Timestamp:       time.Now(),
		Severity:        sev,
		LevelName:       levelName,
		Logger:          l.name,
		MessageTemplate: msgTemplate,
		Args:            args,
		Fields:          fields,
		CallSite:        captureCallSite(3),
		Process:         currentProcess,
		TaskName:        st.taskName,
		RelativeCreated: time.Since(processStart),
		Exception:       st.exc,
		Stack:           st.stack,
	}
	rec.Message = renderMessage(rec)

	l.lastRecord.Store(rec)

	l.mu.RLock()
	console := l.console
	fileSinks := l.fileSinks
	l.mu.RUnlock()

	if console != nil {
		if err := console.Write(rec); err != nil {
			reportSinkError(console.Name(), err)
		}
	}
	for _, s := range fileSinks {
		if err := s.Write(rec); err != nil {
			reportSinkError(s.Name(), err)
		}
	}

	if auditCtl.active.Load() {
		auditCtl.dispatch(rec)
	}
}

// captureCallSite inspects the goroutine stack at the given skip depth to
// find the caller's file/line/function, per spec §9's "Call-site capture":
// "pass the call site via a macro or builtin so it is captured at the
// caller's site, not inside the library." Go has no macro facility, so this
// uses runtime.Caller at a fixed skip count from the public emission
// methods, which is the idiomatic substitute.
func captureCallSite(skip int) CallSite {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return CallSite{}
	}
	fn := runtime.FuncForPC(pc)
	name := ""
	if fn != nil {
		name = fn.Name()
	}
	return CallSite{
		File:     file,
		FileName: baseName(file),
		Line:     line,
		Func:     name,
	}
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}
	return path
}
