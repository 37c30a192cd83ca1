package ember

import (
	"sync"
	"testing"
)

// Recorder is an in-memory Sink that captures every record it receives, for
// assertions in tests. Grounded on the teacher's testing.go logsink, which
// buffers a test's log stream and replays it on cleanup; this substitutes an
// in-memory slice for the teacher's per-test temp file, since nothing here
// needs to survive a process crash.
type Recorder struct {
	mu      sync.Mutex
	records []*LogRecord
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Name implements Sink.
func (r *Recorder) Name() string { return "recorder" }

// Write implements Sink, appending a copy of rec.
func (r *Recorder) Write(rec *LogRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.records = append(r.records, &cp)
	return nil
}

// Close implements Sink; a no-op, since Records() remains valid afterward.
func (r *Recorder) Close() error { return nil }

// Records returns a snapshot of every record captured so far.
func (r *Recorder) Records() []*LogRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*LogRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Reset clears the recorder's buffered records.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.records = nil
	r.mu.Unlock()
}

// NewTestLogger returns a fresh, uniquely named logger wired to a Recorder,
// and registers t.Cleanup to destroy it, so tests never leak entries in the
// package-level registry across runs. Grounded on the teacher's Test(t)
// entry point, generalized from a single global sink to one recorder per
// logger instance.
func NewTestLogger(t testing.TB, severity Severity) (*Logger, *Recorder) {
	t.Helper()
	name := "test." + sanitizeTestName(t.Name())
	l, err := Get(name, severity)
	if err != nil {
		t.Fatalf("ember: failed to create test logger %q: %v", name, err)
	}
	rec := NewRecorder()
	l.AddSink(rec)
	t.Cleanup(func() {
		Destroy(l)
	})
	return l, rec
}

func sanitizeTestName(name string) string {
	out := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			out[i] = c
		default:
			out[i] = '_'
		}
	}
	return string(out)
}
