package ember

import (
	"errors"
	"testing"
)

func TestHierarchySeverityInheritance(t *testing.T) {
	Initialize(Warning)
	t.Cleanup(func() {
		l, _ := Get("inherit.child")
		Destroy(l)
		p, _ := Get("inherit")
		Destroy(p)
	})

	parent, err := Get("inherit", Error)
	if err != nil {
		t.Fatal(err)
	}
	child, err := Get("inherit.child")
	if err != nil {
		t.Fatal(err)
	}

	if got := child.EffectiveSeverity(); got != Error {
		t.Errorf("child should inherit parent's severity: got %v, want %v", got, Error)
	}
	if got := parent.EffectiveSeverity(); got != Error {
		t.Errorf("got %v, want %v", got, Error)
	}

	child.SetSeverity(Debug)
	if got := child.EffectiveSeverity(); got != Debug {
		t.Errorf("explicit child severity should override inheritance: got %v, want %v", got, Debug)
	}
}

func TestLoggableFiltersBySeverity(t *testing.T) {
	l, rec := NewTestLogger(t, Warning)

	l.Info("below threshold")
	l.Error("above threshold")

	got := rec.Records()
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1 (INFO should have been filtered)", len(got))
	}
	if got[0].LevelName != "ERROR" {
		t.Errorf("got level %q, want ERROR", got[0].LevelName)
	}
}

func TestLoggerRetireDropsFurtherEmissions(t *testing.T) {
	l, rec := NewTestLogger(t, Trace)

	l.Info("before retire")
	if err := Retire(l); err != nil {
		t.Fatal(err)
	}
	l.Info("after retire")

	got := rec.Records()
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1 (emission after Retire should be dropped)", len(got))
	}

	if err := Retire(l); err != nil {
		t.Errorf("re-retiring an already-retired logger should be a no-op: %v", err)
	}
}

func TestLoggerDestroyFreesNameForReuse(t *testing.T) {
	Initialize(Warning)
	name := "lifecycle.destroyed"

	first, err := Get(name)
	if err != nil {
		t.Fatal(err)
	}
	if err := Destroy(first); err != nil {
		t.Fatal(err)
	}

	second, err := Get(name)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { Destroy(second) })

	if second == first {
		t.Error("Get after Destroy should return a fresh logger, not the destroyed instance")
	}

	err = Destroy(first)
	var lerr *LifecycleError
	if !errors.As(err, &lerr) {
		t.Errorf("destroying an already-destroyed logger should report a lifecycle error, got %v", err)
	}
}

func TestGetRejectsReservedRootName(t *testing.T) {
	Initialize(Warning)
	_, err := Get("root")
	if err == nil {
		t.Fatal("expected a name conflict error for the reserved \"root\" name")
	}
}

func TestWithExcInfoAttachesException(t *testing.T) {
	l, rec := NewTestLogger(t, Trace)

	l.ErrorOpts("request failed", nil, WithExcInfo(errors.New("boom")))

	got := rec.Records()
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	exc := got[0].Exception
	if exc == nil {
		t.Fatal("expected WithExcInfo to attach an ExceptionInfo")
	}
	if exc.Value != "boom" {
		t.Errorf("got Value %q, want %q", exc.Value, "boom")
	}
}

func TestLastRecordReflectsMostRecentEmission(t *testing.T) {
	l, _ := NewTestLogger(t, Trace)
	if l.LastRecord() != nil {
		t.Fatal("a fresh logger should have no last record")
	}
	l.Warning("first")
	l.Error("second")
	last := l.LastRecord()
	if last == nil || last.LevelName != "ERROR" {
		t.Errorf("expected last record to be the ERROR emission, got %+v", last)
	}
}
