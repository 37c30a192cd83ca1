package ember

import (
	"io"
	"os"
)

// ConsoleSink serializes writes to an output stream (stdout by default)
// with the color formatter. At most one is attached per logger, per spec
// §4.4. Grounded on the teacher's syncWriter (misc.go), which this package's
// syncWriter is itself modeled on.
type ConsoleSink struct {
	out *syncWriter
	fmt *Formatter
}

// NewConsoleSink returns a sink writing to w, always applying the color
// formatter (spec §4.4: "Always applies the color formatter").
func NewConsoleSink(w io.Writer, details *LogRecordDetails) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleSink{
		out: &syncWriter{Writer: w},
		fmt: NewFormatter(details, ModeColor),
	}
}

// Name implements Sink.
func (c *ConsoleSink) Name() string { return "console" }

// Write implements Sink.
func (c *ConsoleSink) Write(rec *LogRecord) error {
	line := c.fmt.Render(rec)
	line = append(line, '\n')
	_, err := c.out.Write(line)
	return err
}

// Raw writes text directly to the console, bypassing formatting entirely;
// used for banners and gradients per spec §4.4.
func (c *ConsoleSink) Raw(text string) error {
	_, err := c.out.Write([]byte(text))
	return err
}

// Close implements Sink. The console sink owns no closable resource beyond
// its mutex, so Close is a no-op.
func (c *ConsoleSink) Close() error { return nil }
