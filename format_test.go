package ember

import (
	"strings"
	"testing"
	"time"
)

func TestNewLogRecordDetailsInvariants(t *testing.T) {
	t.Run("ReservedTokenRejected", func(t *testing.T) {
		_, err := NewLogRecordDetails("%Y", '|', OptionalRecordFields{}, []string{"level", "message"}, false)
		if err == nil {
			t.Fatal("expected a config error for a reserved order token")
		}
	})

	t.Run("UnknownTokenRejected", func(t *testing.T) {
		_, err := NewLogRecordDetails("%Y", '|', OptionalRecordFields{}, []string{"level", "bogus"}, false)
		if err == nil {
			t.Fatal("expected a config error for an unknown order token")
		}
	})

	t.Run("TokenNotEnabledRejected", func(t *testing.T) {
		_, err := NewLogRecordDetails("%Y", '|', OptionalRecordFields{}, []string{"level", "file_name"}, false)
		if err == nil {
			t.Fatal("expected a config error: file_name present in order but not enabled")
		}
	})

	t.Run("MissingLevelRejected", func(t *testing.T) {
		_, err := NewLogRecordDetails("%Y", '|', OptionalRecordFields{FileName: true}, []string{"file_name"}, false)
		if err == nil {
			t.Fatal("expected a config error: order non-empty but \"level\" absent")
		}
	})

	t.Run("ValidOrderAccepted", func(t *testing.T) {
		d, err := NewLogRecordDetails("%Y", '|', OptionalRecordFields{FileName: true}, []string{"level", "file_name"}, false)
		if err != nil {
			t.Fatal(err)
		}
		if len(d.Order) != 2 {
			t.Errorf("got %d tokens, want 2", len(d.Order))
		}
	})
}

func TestValidateDateFormat(t *testing.T) {
	t.Run("FractionalWidths", func(t *testing.T) {
		for d := byte('1'); d <= '6'; d++ {
			if err := validateDateFormat("%Y-%m-%d %H:%M:%S.%" + string(d) + "f"); err != nil {
				t.Errorf("width %%%cf should be accepted: %v", d, err)
			}
		}
	})

	t.Run("WidthSevenRejected", func(t *testing.T) {
		if err := validateDateFormat("%7f"); err == nil {
			t.Fatal("expected %7f to be rejected")
		}
	})

	t.Run("UnknownDirectiveRejected", func(t *testing.T) {
		if err := validateDateFormat("%Q"); err == nil {
			t.Fatal("expected an unknown directive to be rejected")
		}
	})
}

func TestRenderTimestamp(t *testing.T) {
	ts := time.Date(2024, time.March, 7, 13, 5, 9, 123456000, time.UTC)
	got := renderTimestamp(ts, "%Y-%m-%d %H:%M:%S.%3f")
	want := "2024-03-07 13:05:09.123"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatterSimpleMode(t *testing.T) {
	f := NewFormatter(DefaultLogRecordDetails(), ModePlain)
	rec := &LogRecord{
		Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		LevelName: "INFO",
		MessageTemplate: "hello %s",
		Args:      []any{"world"},
	}
	out := string(f.Render(rec))
	if !strings.Contains(out, "INFO") {
		t.Errorf("missing level in output: %q", out)
	}
	if !strings.Contains(out, "hello world") {
		t.Errorf("missing formatted message in output: %q", out)
	}
}

func TestFormatterOrderedFields(t *testing.T) {
	details, err := NewLogRecordDetails("%Y", '|', OptionalRecordFields{LoggerName: true},
		[]string{"level", "logger_name"}, false)
	if err != nil {
		t.Fatal(err)
	}
	f := NewFormatter(details, ModePlain)
	rec := &LogRecord{LevelName: "DEBUG", Logger: "app.db", MessageTemplate: "connected"}
	out := string(f.Render(rec))
	if !strings.Contains(out, "app.db") {
		t.Errorf("missing logger_name token in output: %q", out)
	}
}

func TestFormatterFieldsAreSortedAndTyped(t *testing.T) {
	f := NewFormatter(DefaultLogRecordDetails(), ModePlain)
	rec := &LogRecord{
		LevelName:       "INFO",
		MessageTemplate: "done",
		Fields: map[string]any{
			"zeta":  "last",
			"alpha": 1,
			"mid":   true,
		},
	}
	out := string(f.Render(rec))
	wantOrder := []int{strings.Index(out, "alpha"), strings.Index(out, "mid"), strings.Index(out, "zeta")}
	for i := 1; i < len(wantOrder); i++ {
		if wantOrder[i-1] > wantOrder[i] {
			t.Errorf("fields are not sorted in output: %q", out)
		}
	}
	if !strings.Contains(out, "alpha = 1") {
		t.Errorf("numeric field should render unquoted: %q", out)
	}
	if !strings.Contains(out, "zeta = 'last'") {
		t.Errorf("string field should be single-quoted: %q", out)
	}
	if !strings.Contains(out, "mid = true") {
		t.Errorf("boolean field should render unquoted: %q", out)
	}
}

func TestRenderMessageFallback(t *testing.T) {
	rec := &LogRecord{MessageTemplate: "%d", Args: []any{"not a number"}}
	got := renderMessage(rec)
	if !strings.HasPrefix(got, "%!d") && !strings.Contains(got, "RENDER-FALLBACK") {
		t.Errorf("expected a safe fallback rendering, got %q", got)
	}
}

func TestWriteDiagnosticsRendersExceptionWithoutTraceback(t *testing.T) {
	f := NewFormatter(DefaultLogRecordDetails(), ModePlain)
	rec := &LogRecord{
		LevelName:       "ERROR",
		MessageTemplate: "request failed",
		Exception:       &ExceptionInfo{Type: "*net.OpError", Value: "connection refused"},
	}
	out := string(f.Render(rec))
	if !strings.Contains(out, "*net.OpError: connection refused") {
		t.Errorf("exc_info without a traceback should still render type/value, got %q", out)
	}
}

func TestWriteDiagnosticsPrefersTraceback(t *testing.T) {
	f := NewFormatter(DefaultLogRecordDetails(), ModePlain)
	rec := &LogRecord{
		LevelName:       "ERROR",
		MessageTemplate: "request failed",
		Exception: &ExceptionInfo{
			Type: "*net.OpError", Value: "connection refused",
			Traceback: "goroutine 1 [running]:\nmain.main()\n\t/app/main.go:10",
		},
	}
	out := string(f.Render(rec))
	if !strings.Contains(out, "goroutine 1 [running]:") {
		t.Errorf("a populated traceback should be rendered verbatim, got %q", out)
	}
	if strings.Contains(out, "*net.OpError: connection refused") {
		t.Errorf("traceback and type/value fallback should not both render, got %q", out)
	}
}

func TestAuditFormatterPrefixesLoggerName(t *testing.T) {
	a := NewAuditFormatter(DefaultLogRecordDetails(), ModePlain)
	rec := &LogRecord{LevelName: "WARNING", Logger: "app.auth", MessageTemplate: "locked out"}
	out := string(a.Render(rec))
	if !strings.HasPrefix(out, "[app.auth]: ") {
		t.Errorf("expected audit prefix, got %q", out)
	}
}
