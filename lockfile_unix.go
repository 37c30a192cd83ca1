//go:build unix

package ember

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// fileLock is the OS advisory exclusive lock on a sink's "<base>.lock" file,
// per spec §4.3 step 2: "Acquire the OS advisory exclusive lock ... (Unix:
// range lock...)". Grounded on the teacher's tty_linux.go/tty_unix.go, which
// already reach for golang.org/x/sys/unix for a GOOS-specific syscall; this
// repurposes the same dependency for flock(2) instead of ioctl(2).
type fileLock struct {
	f *os.File
}

// acquireLock opens (creating if needed) the lock file at path and takes an
// exclusive advisory lock, blocking until it is available.
func acquireLock(path string) (*fileLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("flock: %w", err)
	}
	return &fileLock{f: f}, nil
}

// release drops the advisory lock and closes the lock file. It is not
// idempotent: a second call returns an error from the already-closed file
// (callers here only ever call it once, under the sink's own mutex).
func (l *fileLock) release() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	return err
}
