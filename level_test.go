package ember

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLevelsBuiltins(t *testing.T) {
	got := Levels()
	want := map[string]Severity{
		"TRACE": Trace, "DEBUG": Debug, "INFO": Info,
		"WARNING": Warning, "ERROR": Error, "CRITICAL": Critical,
	}
	if !cmp.Equal(got, want) {
		t.Error(cmp.Diff(got, want))
	}
}

func TestRegisterLevel(t *testing.T) {
	t.Run("NewLevel", func(t *testing.T) {
		if err := RegisterLevel("NOTICE", 25); err != nil {
			t.Fatal(err)
		}
		e, ok := lookupLevel("NOTICE")
		if !ok {
			t.Fatal("expected NOTICE to be registered")
		}
		if e.Severity != 25 {
			t.Errorf("got severity %d, want 25", e.Severity)
		}
	})

	t.Run("SameSeverityIsNoop", func(t *testing.T) {
		style := LevelStyle{Foreground: 99}
		if err := RegisterLevel("NOTICE", 25, style); err != nil {
			t.Fatalf("re-registering at the same severity should succeed: %v", err)
		}
		e, _ := lookupLevel("NOTICE")
		if e.Style.Foreground != 99 {
			t.Errorf("expected style update on same-severity re-registration, got %+v", e.Style)
		}
	})

	t.Run("DifferentSeverityConflicts", func(t *testing.T) {
		err := RegisterLevel("NOTICE", 26)
		if err == nil {
			t.Fatal("expected a name conflict error")
		}
		var nce *NameConflictError
		if !errors.As(err, &nce) {
			t.Errorf("got %T, want *NameConflictError", err)
		}
	})

	t.Run("CaseInsensitive", func(t *testing.T) {
		if _, ok := lookupLevel("notice"); !ok {
			t.Error("lookupLevel should be case-insensitive")
		}
	})
}

func TestApplyColorTheme(t *testing.T) {
	t.Cleanup(func() { ApplyColorTheme(nil) })

	custom := map[string]LevelStyle{"INFO": {Foreground: 1}}
	if err := ApplyColorTheme(custom); err != nil {
		t.Fatal(err)
	}
	e, _ := lookupLevel("INFO")
	if e.Style.Foreground != 1 {
		t.Errorf("got %d, want 1", e.Style.Foreground)
	}

	if err := ApplyColorTheme(nil); err != nil {
		t.Fatal(err)
	}
	e, _ = lookupLevel("INFO")
	if e.Style.Foreground != defaultStyles["INFO"].Foreground {
		t.Errorf("expected theme reset to defaults, got %+v", e.Style)
	}
}

func TestApplyColorThemeUnknownLevel(t *testing.T) {
	err := ApplyColorTheme(map[string]LevelStyle{"BOGUS": {}})
	if err == nil {
		t.Fatal("expected a config error for an unknown level name")
	}
}
