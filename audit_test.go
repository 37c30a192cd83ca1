package ember

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAuditFanOutCapturesFromIndependentLoggers(t *testing.T) {
	dir := t.TempDir()
	rl := mustRotation(t, RotationLogic{HasMaxBytes: true, MaxBytes: 1 << 20})
	if err := StartAudit(dir, "audit", ".log", rl, DefaultLogRecordDetails()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { StopAudit() })

	a, err := Get("audit.source.a", Trace)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Get("audit.source.b", Trace)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { Destroy(a); Destroy(b) })

	a.Info("from a")
	b.Warning("from b")

	StopAudit()

	data, err := os.ReadFile(filepath.Join(dir, "audit.log"))
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if want := "[audit.source.a]: "; !strings.Contains(content, want) {
		t.Errorf("expected audit log to be tagged with source a's name, got %q", content)
	}
	if want := "[audit.source.b]: "; !strings.Contains(content, want) {
		t.Errorf("expected audit log to be tagged with source b's name, got %q", content)
	}
}

func TestAuditInactiveByDefault(t *testing.T) {
	if auditCtl.active.Load() {
		t.Fatal("audit should be inactive until StartAudit is called")
	}
}

func TestStopAuditIsSafeWhenNotActive(t *testing.T) {
	if err := StopAudit(); err != nil {
		t.Errorf("StopAudit should be a no-op when inactive, got %v", err)
	}
}
