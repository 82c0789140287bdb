// Package asyncproc owns the handles of asynchronously launched task
// processes: a registry of running entries and the reaper loop that collects
// their output, detects completion and enforces per-task deadlines.
package asyncproc

import (
	"bytes"
	"sync"
)

// OutputBuffer is a goroutine-safe capture buffer for process output. The
// process keeps writing to it for as long as it lives, so every read must
// hold the same lock as the pipe writer.
type OutputBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// NewOutputBuffer creates an empty OutputBuffer.
func NewOutputBuffer() *OutputBuffer {
	return &OutputBuffer{}
}

// Write implements io.Writer.
func (b *OutputBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// Len returns the number of bytes captured so far.
func (b *OutputBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

// String returns the full captured output.
func (b *OutputBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// StringFrom returns the captured output starting at offset. An offset past
// the end yields the empty string.
func (b *OutputBuffer) StringFrom(offset int) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if offset >= b.buf.Len() {
		return ""
	}
	return string(b.buf.Bytes()[offset:])
}
