package session

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScrollbackRetainsAllWithinCapacity(t *testing.T) {
	sb := NewScrollback(16)
	sb.Write([]byte("abc"))
	sb.Write([]byte("def"))
	assert.Equal(t, []byte("abcdef"), sb.Snapshot())
}

func TestScrollbackEvictsOldestOnOverflow(t *testing.T) {
	sb := NewScrollback(4)
	sb.Write([]byte("abcdef"))
	assert.Equal(t, []byte("cdef"), sb.Snapshot())
}

func TestScrollbackNeverExceedsCapacity(t *testing.T) {
	sb := NewScrollback(8)
	for i := 0; i < 100; i++ {
		sb.Write(bytes.Repeat([]byte{'x'}, 3))
	}
	assert.LessOrEqual(t, sb.Len(), 8)
}

func TestScrollbackSnapshotIsIndependentCopy(t *testing.T) {
	sb := NewScrollback(16)
	sb.Write([]byte("abc"))
	snap := sb.Snapshot()
	snap[0] = 'z'
	assert.Equal(t, []byte("abc"), sb.Snapshot())
}
