package ember

import "fmt"

// ConfigError reports an InvalidConfiguration failure: a value object was
// constructed with a field that violates one of its invariants.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("ember: invalid configuration: field %q: %s", e.Field, e.Reason)
}

// ErrInvalidConfiguration is the sentinel matched by errors.Is for any
// *ConfigError.
var ErrInvalidConfiguration = &ConfigError{}

// Is implements the errors.Is protocol by kind, ignoring Field/Reason.
func (e *ConfigError) Is(target error) bool {
	_, ok := target.(*ConfigError)
	return ok
}

// NameConflictError reports a reserved-name collision: the name "root", or a
// level re-registered at a different severity.
type NameConflictError struct {
	Name   string
	Reason string
}

func (e *NameConflictError) Error() string {
	return fmt.Sprintf("ember: name conflict %q: %s", e.Name, e.Reason)
}

// ErrNameConflict is the sentinel matched by errors.Is for any
// *NameConflictError.
var ErrNameConflict = &NameConflictError{}

func (e *NameConflictError) Is(target error) bool {
	_, ok := target.(*NameConflictError)
	return ok
}

// LifecycleError reports an explicit operation (not an emission) performed
// against a destroyed logger.
type LifecycleError struct {
	LoggerName string
	Reason     string
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("ember: lifecycle violation on logger %q: %s", e.LoggerName, e.Reason)
}

// ErrLifecycleViolation is the sentinel matched by errors.Is for any
// *LifecycleError.
var ErrLifecycleViolation = &LifecycleError{}

func (e *LifecycleError) Is(target error) bool {
	_, ok := target.(*LifecycleError)
	return ok
}

// SinkIOError reports a failure to open, write, rename, or delete a file
// backing a sink. Emission-time occurrences are contained: they are
// reported via stderr (see reportSinkError) and never returned from an
// emission call; construction-time occurrences (e.g. NewRotatingFileSink)
// are returned directly.
type SinkIOError struct {
	SinkName string
	Op       string
	Err      error
}

func (e *SinkIOError) Error() string {
	return fmt.Sprintf("ember: sink %q: %s: %s", e.SinkName, e.Op, e.Err)
}

// ErrSinkIO is the sentinel matched by errors.Is for any *SinkIOError.
var ErrSinkIO = &SinkIOError{}

func (e *SinkIOError) Is(target error) bool {
	_, ok := target.(*SinkIOError)
	return ok
}

func (e *SinkIOError) Unwrap() error { return e.Err }
