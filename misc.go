package ember

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// noCopy is a trick for ensuring a value isn't copied around; embed it in
// structs that hold a mutex so `go vet` flags accidental copies.
type noCopy struct{}

func (noCopy) Lock()   {}
func (noCopy) Unlock() {}

// syncWriter ensures calls to its Write method are serialized for the inner
// Writer. The console sink and the stderr side-channel wrap their
// destination in one of these.
type syncWriter struct {
	mu sync.Mutex
	io.Writer
}

func (w *syncWriter) Write(b []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.Writer.Write(b)
}

// processStart is captured once so relative-created timestamps (ms since
// process start) have a stable baseline, mirroring opencoff-go-logger's
// per-logger `start time.Time` captured in its constructor.
var processStart = time.Now()

// stderrWriter is the side-channel used to report emission-time sink
// failures, per spec §7's propagation policy: these never escape an
// emission call.
var stderrWriter = &syncWriter{Writer: os.Stderr}

// reportSinkError writes a one-line notice naming the offending sink's base
// name, per spec §7's "user-visible failure" requirement.
func reportSinkError(sinkName string, err error) {
	fmt.Fprintf(stderrWriter, "ember: sink %q: %s\n", sinkName, err)
}
