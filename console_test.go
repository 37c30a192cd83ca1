package ember

import (
	"bytes"
	"strings"
	"testing"
)

func TestConsoleSinkAlwaysColorizes(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, DefaultLogRecordDetails())
	t.Cleanup(func() { sink.Close() })

	if err := sink.Write(&LogRecord{LevelName: "ERROR", MessageTemplate: "boom"}); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, "\x1b[") {
		t.Errorf("console sink should always emit ANSI escapes, got %q", out)
	}
	if !strings.Contains(out, "boom") {
		t.Errorf("missing message text: %q", out)
	}
}

func TestConsoleSinkRawBypassesFormatting(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, DefaultLogRecordDetails())
	t.Cleanup(func() { sink.Close() })

	if err := sink.Raw("banner text\n"); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "banner text\n" {
		t.Errorf("got %q, want raw passthrough", buf.String())
	}
}

func TestConsoleSinkName(t *testing.T) {
	sink := NewConsoleSink(&bytes.Buffer{}, DefaultLogRecordDetails())
	if sink.Name() != "console" {
		t.Errorf("got %q, want \"console\"", sink.Name())
	}
}
