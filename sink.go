package ember

// Sink is the abstract contract every log destination implements: it
// accepts a record, renders it, and writes the bytes durably. A sink owns
// its own resources; Close is idempotent.
type Sink interface {
	// Name identifies the sink in stderr diagnostics (spec §7).
	Name() string
	// Write renders and durably writes rec. Errors are contained by the
	// caller per spec §7: a sink failure never escapes an emission call.
	Write(rec *LogRecord) error
	// Close flushes and releases the sink's resources. Idempotent.
	Close() error
}
