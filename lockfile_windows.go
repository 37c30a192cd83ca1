//go:build windows

package ember

import (
	"fmt"
	"os"

	"golang.org/x/sys/windows"
)

// fileLock is the Windows byte-range analogue of lockfile_unix.go's flock,
// per spec §4.3 step 2 ("Windows: byte-range lock").
type fileLock struct {
	f *os.File
}

func acquireLock(path string) (*fileLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	ol := new(windows.Overlapped)
	const lockBytes = 1
	err = windows.LockFileEx(
		windows.Handle(f.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK,
		0, lockBytes, 0, ol)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("lockfileex: %w", err)
	}
	return &fileLock{f: f}, nil
}

func (l *fileLock) release() error {
	if l == nil || l.f == nil {
		return nil
	}
	ol := new(windows.Overlapped)
	const lockBytes = 1
	err := windows.UnlockFileEx(windows.Handle(l.f.Fd()), 0, lockBytes, 0, ol)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	return err
}
