// Package ember is a structured, color-aware, concurrency-safe application
// logging library.
//
// It accepts log events from multiple producers in a process, renders each
// event according to a declarative [LogRecordDetails] format, filters by
// numeric severity, and fans events out to a console sink and zero or more
// rotating file sinks. An optional audit controller mirrors every event,
// from every named logger, into a single process-wide file.
//
// # Hierarchy
//
// Loggers are named with dotted paths ("app", "app.api", "app.api.auth")
// and form a tree rooted at an internal "root" logger. A logger with no
// explicit severity inherits the nearest ancestor's severity. There is no
// sink inheritance: a logger only ever writes to its own sinks (plus the
// audit sink, when active).
//
// # Colors
//
// Rendered lines use 256-color ANSI escape sequences (see [Render]). The
// console sink always colorizes; file sinks render plain text by default.
//
// # Rotation
//
// [RotatingFileSink] rotates by size, by time, or both, and is safe to
// share across multiple processes writing to the same target file: an
// advisory OS lock coordinates rollover so that no process ever observes
// a half-rotated file.
package ember
