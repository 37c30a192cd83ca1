package ember

import (
	"io"
	"sync"
)

// Pooled buffers, modeled on the teacher's pool.go, which in turn models the
// way the standard library's slog.JSONHandler manages its scratch buffers.

var bufPool = sync.Pool{
	New: func() any {
		n := make([]byte, 0, 256)
		return (*buffer)(&n)
	},
}

// buffer is a byte buffer implemented over a slice, so that the formatting
// helpers below can be methods instead of free functions.
type buffer []byte

// newBuffer returns a buffer from the global pool, allocating if necessary.
func newBuffer() *buffer {
	return bufPool.Get().(*buffer)
}

// Release returns modestly sized buffers back to the pool and leaks large
// ones. Safe to call on a nil receiver.
func (b *buffer) Release() {
	const maxSz = 16 << 10
	if b == nil {
		return
	}
	if cap(*b) <= maxSz {
		*b = (*b)[:0]
		bufPool.Put(b)
	}
}

var (
	_ io.Writer       = (*buffer)(nil)
	_ io.StringWriter = (*buffer)(nil)
)

func (b *buffer) WriteString(s string) (int, error) {
	*b = append(*b, s...)
	return len(s), nil
}

func (b *buffer) WriteByte(c byte) error {
	*b = append(*b, c)
	return nil
}

func (b *buffer) Write(p []byte) (int, error) {
	*b = append(*b, p...)
	return len(p), nil
}

func (b *buffer) String() string {
	return string(*b)
}
