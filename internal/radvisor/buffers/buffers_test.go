package buffers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrimRaw(t *testing.T) {
	assert.Equal(t, []byte("42"), TrimRaw([]byte("  42\n")))
	assert.Equal(t, []byte(""), TrimRaw([]byte("   \t\n")))
	assert.Equal(t, []byte("a b"), TrimRaw([]byte("a b")))
}

func TestAnonymousSliceConsume(t *testing.T) {
	src := []byte("hello world")
	s := AnonymousSlice{Start: 6, Length: 5}
	got, ok := s.Consume(src)
	assert.True(t, ok)
	assert.Equal(t, []byte("world"), got)

	var zero AnonymousSlice
	_, ok = zero.Consume(src)
	assert.False(t, ok)
}

func TestWorkingBuffersClearSlices(t *testing.T) {
	wb := New()
	wb.Slices[3] = AnonymousSlice{Start: 1, Length: 2}
	wb.ClearSlices()
	assert.Equal(t, AnonymousSlice{}, wb.Slices[3])
}
