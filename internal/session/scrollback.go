package session

import "sync"

// Scrollback is a bounded byte ring retaining the most recently written PTY
// output. Writes append raw bytes with no escape-sequence interpretation;
// once the configured capacity is exceeded the oldest bytes are discarded so
// the buffer always holds exactly the most recent min(total, capacity)
// bytes, contiguously.
//
// This mirrors the trim-oldest-on-append pattern the teacher applies to its
// per-instance log buffer, generalized into its own type since scrollback is
// now read concurrently by every newly attaching client rather than a single
// log writer.
type Scrollback struct {
	mu       sync.Mutex
	buf      []byte
	capacity int
}

// NewScrollback returns an empty Scrollback bounded at capacity bytes.
func NewScrollback(capacity int) *Scrollback {
	if capacity <= 0 {
		capacity = 1
	}
	return &Scrollback{capacity: capacity}
}

// Write appends chunk, evicting the oldest bytes if the result would exceed
// capacity.
func (s *Scrollback) Write(chunk []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf = append(s.buf, chunk...)
	if len(s.buf) > s.capacity {
		s.buf = s.buf[len(s.buf)-s.capacity:]
	}
}

// Snapshot returns a copy of the currently retained bytes, safe to hand to a
// newly attaching client without holding the scrollback lock while it
// writes.
func (s *Scrollback) Snapshot() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]byte, len(s.buf))
	copy(out, s.buf)
	return out
}

// Len reports the number of bytes currently retained.
func (s *Scrollback) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf)
}
