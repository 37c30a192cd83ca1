package ember

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// OptionalRecordFields is the bitset of middle fields a LogRecordDetails may
// enable, per spec §3. Level, timestamp and message are handled separately
// (timestamp/message are fixed-position; level is its own "level" token).
type OptionalRecordFields struct {
	FileName        bool
	FilePath        bool
	Lineno          bool
	FuncName        bool
	ThreadID        bool
	ThreadName      bool
	ProcessID       bool
	ProcessName     bool
	TaskName        bool
	RelativeCreated bool
	LoggerName      bool
}

// enabled reports whether the bitset allows the given order token.
func (o OptionalRecordFields) enabled(token string) bool {
	switch token {
	case "file_name":
		return o.FileName
	case "file_path":
		return o.FilePath
	case "lineno":
		return o.Lineno
	case "func_name":
		return o.FuncName
	case "thread_id":
		return o.ThreadID
	case "thread_name":
		return o.ThreadName
	case "process_id":
		return o.ProcessID
	case "process_name":
		return o.ProcessName
	case "task_name":
		return o.TaskName
	case "relative_created":
		return o.RelativeCreated
	case "logger_name":
		return o.LoggerName
	default:
		return false
	}
}

var validOrderTokens = map[string]bool{
	"level": true, "file_name": true, "file_path": true, "lineno": true,
	"func_name": true, "thread_id": true, "thread_name": true,
	"process_id": true, "process_name": true, "task_name": true,
	"relative_created": true, "logger_name": true,
}

var reservedOrderTokens = map[string]bool{
	"timestamp": true, "message": true, "exc_info": true, "stack_info": true,
}

// LogRecordDetails is the immutable rendering configuration described in
// spec §3/§4.2. Construct with NewLogRecordDetails, which enforces the
// invariants (a)-(e).
type LogRecordDetails struct {
	DateFormat     string
	Separator      rune
	Optional       OptionalRecordFields
	Order          []string
	ColorAllFields bool
}

// DefaultLogRecordDetails is the "simple mode" configuration: an empty
// bitset and empty order render "timestamp SEP LEVEL SEP message" (spec
// §4.2 "Simple mode").
func DefaultLogRecordDetails() *LogRecordDetails {
	d, err := NewLogRecordDetails("%Y-%m-%d %H:%M:%S.%3f", '|', OptionalRecordFields{}, nil, false)
	if err != nil {
		panic("ember: default LogRecordDetails failed to validate: " + err.Error())
	}
	return d
}

// NewLogRecordDetails validates and constructs a LogRecordDetails, per spec
// §3's invariants (a)-(e) and §8 invariant 5.
func NewLogRecordDetails(dateFormat string, separator rune, optional OptionalRecordFields, order []string, colorAllFields bool) (*LogRecordDetails, error) {
	if err := validateDateFormat(dateFormat); err != nil {
		return nil, err
	}

	levelCount := 0
	for _, tok := range order {
		if reservedOrderTokens[tok] {
			return nil, &ConfigError{Field: "message_parts_order", Reason: fmt.Sprintf(
				"token %q is a fixed or diagnostics field and may not appear in message_parts_order", tok)}
		}
		if !validOrderTokens[tok] {
			return nil, &ConfigError{Field: "message_parts_order", Reason: fmt.Sprintf("unknown token %q", tok)}
		}
		if tok == "level" {
			levelCount++
			continue
		}
		if !optional.enabled(tok) {
			return nil, &ConfigError{Field: "message_parts_order", Reason: fmt.Sprintf(
				"token %q is present in the order but not enabled in the optional-fields bitset", tok)}
		}
	}
	if len(order) > 0 && levelCount != 1 {
		return nil, &ConfigError{Field: "message_parts_order", Reason: fmt.Sprintf(
			"\"level\" must appear exactly once when the order is non-empty (found %d)", levelCount)}
	}
	if separator == 0 {
		separator = '|'
	}

	return &LogRecordDetails{
		DateFormat:     dateFormat,
		Separator:      separator,
		Optional:       optional,
		Order:          append([]string(nil), order...),
		ColorAllFields: colorAllFields,
	}, nil
}

// validateDateFormat enforces spec §3(e): %1f..%6f are accepted, %7f and
// above are rejected, and the remainder must be a recognized strftime-style
// directive set.
func validateDateFormat(format string) error {
	for i := 0; i < len(format); i++ {
		if format[i] != '%' || i+1 >= len(format) {
			continue
		}
		d := format[i+1]
		switch {
		case d >= '1' && d <= '9':
			if i+2 >= len(format) || format[i+2] != 'f' {
				return &ConfigError{Field: "date_format", Reason: fmt.Sprintf(
					"unrecognized directive %%%c%c at offset %d", d, safeByte(format, i+2), i)}
			}
			if d > '6' {
				return &ConfigError{Field: "date_format", Reason: fmt.Sprintf(
					"fractional-second width %%%cf exceeds the maximum of %%6f", d)}
			}
			i += 2
		case strings.ContainsRune("YymdHMSf%", rune(d)):
			i++
		default:
			return &ConfigError{Field: "date_format", Reason: fmt.Sprintf("unrecognized directive %%%c at offset %d", d, i)}
		}
	}
	return nil
}

func safeByte(s string, i int) byte {
	if i < len(s) {
		return s[i]
	}
	return ' '
}

// renderTimestamp expands the strftime-style directives in format, including
// %1f..%6f fractional-second widths, per spec §4.2 step 1.
func renderTimestamp(t time.Time, format string) string {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 >= len(format) {
			b.WriteByte(c)
			continue
		}
		d := format[i+1]
		switch {
		case d >= '1' && d <= '6' && i+2 < len(format) && format[i+2] == 'f':
			width := int(d - '0')
			frac := t.Nanosecond() / 1000 // microseconds
			s := fmt.Sprintf("%06d", frac)[:width]
			b.WriteString(s)
			i += 2
		case d == 'f':
			fmt.Fprintf(&b, "%06d", t.Nanosecond()/1000)
			i++
		case d == 'Y':
			fmt.Fprintf(&b, "%04d", t.Year())
			i++
		case d == 'y':
			fmt.Fprintf(&b, "%02d", t.Year()%100)
			i++
		case d == 'm':
			fmt.Fprintf(&b, "%02d", int(t.Month()))
			i++
		case d == 'd':
			fmt.Fprintf(&b, "%02d", t.Day())
			i++
		case d == 'H':
			fmt.Fprintf(&b, "%02d", t.Hour())
			i++
		case d == 'M':
			fmt.Fprintf(&b, "%02d", t.Minute())
			i++
		case d == 'S':
			fmt.Fprintf(&b, "%02d", t.Second())
			i++
		case d == '%':
			b.WriteByte('%')
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// RenderMode selects between the plain and color formatter variants
// described in spec §4.2.
type RenderMode int

const (
	ModePlain RenderMode = iota
	ModeColor
)

// Formatter converts a LogRecord plus a LogRecordDetails into a single
// rendered line (plus optional multi-line diagnostics), per spec §4.2. It
// is the teacher's per-kind hook-function style (formatter.go's
// `formatter[S]`) collapsed into a single switch over order tokens
// (writeToken), since this engine has one concrete state shape (LogRecord)
// instead of the teacher's generic journal/JSON state types.
type Formatter struct {
	Details *LogRecordDetails
	Mode    RenderMode
}

// NewFormatter builds a Formatter for the given details and mode.
func NewFormatter(details *LogRecordDetails, mode RenderMode) *Formatter {
	if details == nil {
		details = DefaultLogRecordDetails()
	}
	return &Formatter{Details: details, Mode: mode}
}

// Render implements the full pipeline from spec §4.2, steps 1-5; step 6
// (color) is applied inline wherever color mode is active.
func (f *Formatter) Render(rec *LogRecord) []byte {
	b := newBuffer()
	defer b.Release()

	d := f.Details
	color := f.Mode == ModeColor
	style := levelStyleFor(rec.LevelName)

	// Step 1: timestamp, always first.
	b.WriteString(renderTimestamp(rec.Timestamp, d.DateFormat))

	// Simple mode: spec §4.2 "Simple mode".
	if len(d.Order) == 0 && isZeroOptional(d.Optional) {
		writeSep(b, d.Separator)
		f.writeLevel(b, rec, style, color)
		writeSep(b, d.Separator)
		f.writeMessage(b, rec, style, color)
		f.writeFields(b, rec)
		f.writeDiagnostics(b, rec)
		out := make([]byte, len(*b))
		copy(out, *b)
		return out
	}

	// Step 2: ordered middle fields.
	for _, tok := range d.Order {
		writeSep(b, d.Separator)
		f.writeToken(b, rec, tok, style, color)
	}

	// Step 3: message, always last on the first line.
	writeSep(b, d.Separator)
	f.writeMessage(b, rec, style, color)

	// Step 4: structured fields.
	f.writeFields(b, rec)

	// Step 5: diagnostics.
	f.writeDiagnostics(b, rec)

	out := make([]byte, len(*b))
	copy(out, *b)
	return out
}

func writeSep(b *buffer, sep rune) {
	b.WriteByte(' ')
	b.WriteString(string(sep))
	b.WriteByte(' ')
}

func isZeroOptional(o OptionalRecordFields) bool {
	return o == OptionalRecordFields{}
}

func levelStyleFor(name string) LevelStyle {
	if e, ok := lookupLevel(name); ok {
		return e.Style
	}
	return LevelStyle{Foreground: 250}
}

func (f *Formatter) writeToken(b *buffer, rec *LogRecord, tok string, style LevelStyle, color bool) {
	switch tok {
	case "level":
		f.writeLevel(b, rec, style, color)
	case "file_name":
		f.writeField(b, rec.CallSite.FileName, style, color)
	case "file_path":
		f.writeField(b, rec.CallSite.File, style, color)
	case "lineno":
		f.writeField(b, strconv.Itoa(rec.CallSite.Line), style, color)
	case "func_name":
		f.writeField(b, rec.CallSite.Func, style, color)
	case "thread_id":
		f.writeField(b, strconv.FormatInt(rec.Thread.ID, 10), style, color)
	case "thread_name":
		f.writeField(b, rec.Thread.Name, style, color)
	case "process_id":
		f.writeField(b, strconv.Itoa(rec.Process.ID), style, color)
	case "process_name":
		f.writeField(b, rec.Process.Name, style, color)
	case "task_name":
		f.writeField(b, rec.TaskName, style, color)
	case "relative_created":
		ms := rec.RelativeCreated.Milliseconds()
		f.writeField(b, strconv.FormatInt(ms, 10), style, color)
	case "logger_name":
		f.writeField(b, rec.Logger, style, color)
	}
}

// writeLevel renders the level name padded to a consistent width (the
// widest built-in level name, "CRITICAL", is 8 characters).
func (f *Formatter) writeLevel(b *buffer, rec *LogRecord, style LevelStyle, color bool) {
	padded := rec.LevelName + strings.Repeat(" ", max(0, 8-len(rec.LevelName)))
	if color {
		b.Write(Render(padded, style))
		return
	}
	b.WriteString(padded)
}

func (f *Formatter) writeMessage(b *buffer, rec *LogRecord, style LevelStyle, color bool) {
	msg := renderMessage(rec)
	if color {
		b.Write(Render(msg, LevelStyle{Foreground: style.Foreground, Intensity: style.Intensity}))
		return
	}
	b.WriteString(msg)
}

func (f *Formatter) writeField(b *buffer, value string, style LevelStyle, color bool) {
	if color && f.Details.ColorAllFields {
		b.Write(Render(value, Dim(style)))
		return
	}
	b.WriteString(value)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// renderMessage lazily formats the message template with its arguments;
// callers only pay this cost once dispatch has survived severity
// filtering, per spec §4.2 step 3.
func renderMessage(rec *LogRecord) string {
	if rec.Message != "" {
		return rec.Message
	}
	if len(rec.Args) == 0 {
		return rec.MessageTemplate
	}
	return safeSprintf(rec.MessageTemplate, rec.Args...)
}

// safeSprintf never panics: a field value that cannot be stringified is
// replaced with a placeholder (spec §7's RenderingFallback).
func safeSprintf(template string, args ...any) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = fmt.Sprintf("!RENDER-FALLBACK(%v)", r)
		}
	}()
	return fmt.Sprintf(template, args...)
}

// writeFields appends the merged structured fields, per spec §4.2 step 4:
// " { key = value, ... }" with strings single-quoted, numbers/booleans
// unquoted, nulls as "null", and nested maps rendered recursively.
func (f *Formatter) writeFields(b *buffer, rec *LogRecord) {
	if len(rec.Fields) == 0 {
		return
	}
	keys := make([]string, 0, len(rec.Fields))
	for k := range rec.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b.WriteString(" { ")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(" = ")
		writeValue(b, rec.Fields[k])
	}
	b.WriteString(" }")
}

func writeValue(b *buffer, v any) {
	switch x := v.(type) {
	case nil:
		b.WriteString("null")
	case string:
		b.WriteByte('\'')
		b.WriteString(x)
		b.WriteByte('\'')
	case bool:
		if x {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("{ ")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(k)
			b.WriteString(" = ")
			writeValue(b, x[k])
		}
		b.WriteString(" }")
	default:
		s := safeStringify(v)
		b.WriteString(s)
	}
}

func safeStringify(v any) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = "!RENDER-FALLBACK"
		}
	}()
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// writeDiagnostics appends the exception/stack diagnostics, per spec §4.2
// step 5. Indentation of multi-line diagnostics is preserved verbatim.
func (f *Formatter) writeDiagnostics(b *buffer, rec *LogRecord) {
	if exc := rec.Exception; exc != nil {
		b.WriteByte('\n')
		if exc.Traceback != "" {
			b.WriteString(exc.Traceback)
		} else {
			b.WriteString(exc.Type)
			b.WriteString(": ")
			b.WriteString(exc.Value)
		}
	}
	if rec.Stack != "" {
		b.WriteByte('\n')
		b.WriteString(rec.Stack)
	}
}

// AuditFormatter wraps any render with a "[<source-logger-name>]: " prefix,
// per spec §4.2 "Audit formatter". It always uses its own LogRecordDetails,
// independent of the source logger's configuration.
type AuditFormatter struct {
	inner *Formatter
}

// NewAuditFormatter builds an AuditFormatter with its own details and mode.
func NewAuditFormatter(details *LogRecordDetails, mode RenderMode) *AuditFormatter {
	return &AuditFormatter{inner: NewFormatter(details, mode)}
}

// Render renders rec with the inner formatter and prepends the source
// logger's name.
func (a *AuditFormatter) Render(rec *LogRecord) []byte {
	prefix := "[" + rec.Logger + "]: "
	body := a.inner.Render(rec)
	out := make([]byte, 0, len(prefix)+len(body))
	out = append(out, prefix...)
	out = append(out, body...)
	return out
}
