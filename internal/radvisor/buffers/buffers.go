// Package buffers implements the engine-owned working-buffer pool: fixed
// scratch space reused for every collection tick across every target, so
// the steady-state hot path performs no heap allocation.
package buffers

import "github.com/radvisor/radvisor/internal/radvisor/csvrow"

// Sizing constants mirror the historical implementation's constants
// (ROW_BUFFER_SIZE, WORKING_BUFFER_SIZE, SLICES_BUFFER_SIZE,
// BASE_FIELD_COUNT) so the v1 schema's 75 columns fit comfortably.
const (
	RowBufferSize     = 1200
	WorkingBufferSize = 16384
	SlicesBufferSize  = 16
	BaseFieldCount    = 75
)

// AnonymousSlice references a byte range inside Buffer by offset and
// length rather than holding a Go slice header, so the slice table itself
// never needs to alias (and outlive) a particular read's buffer contents
// beyond the tick that produced it.
type AnonymousSlice struct {
	Start  int
	Length int
}

// Consume returns the referenced bytes from src, or (nil, false) if the
// slice is unset (zero-value).
func (s AnonymousSlice) Consume(src []byte) ([]byte, bool) {
	if s.Length == 0 && s.Start == 0 {
		return nil, false
	}
	if s.Start < 0 || s.Start+s.Length > len(src) {
		return nil, false
	}
	return src[s.Start : s.Start+s.Length], true
}

// Buffer is a fixed-capacity read scratchpad with a length cursor, mirroring
// the original's seek-rewind read discipline: Len is reset to 0 at the start
// of a read, and the slice b[:Len] holds exactly what was last read.
type Buffer struct {
	B   [WorkingBufferSize]byte
	Len int
}

// Reset zeros the length cursor without touching backing memory.
func (b *Buffer) Reset() { b.Len = 0 }

// Content returns the valid portion of the buffer.
func (b *Buffer) Content() []byte { return b.B[:b.Len] }

// Trim returns Content with leading/trailing ASCII whitespace removed, as a
// subslice (no copy, no allocation).
func (b *Buffer) Trim() []byte { return TrimRaw(b.Content()) }

// TrimRaw trims leading/trailing ASCII space, tab, CR, and LF bytes from s,
// returning a subslice of s.
func TrimRaw(s []byte) []byte {
	start := 0
	for start < len(s) && isSpace(s[start]) {
		start++
	}
	end := len(s)
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

// WorkingBuffers is the per-engine pool described by the collection engine
// contract: one CSV byte-record buffer, one read buffer, one copy buffer,
// and a fixed slice table. Constructed once at engine start; never escapes
// the engine goroutine.
type WorkingBuffers struct {
	Record     *csvrow.ByteRecord
	Buffer     Buffer
	CopyBuffer Buffer
	Slices     [SlicesBufferSize]AnonymousSlice
}

// New allocates a WorkingBuffers with the fixed sizing constants.
func New() *WorkingBuffers {
	return &WorkingBuffers{
		Record: csvrow.NewByteRecord(RowBufferSize, BaseFieldCount),
	}
}

// ClearSlices resets every entry in the slice table to its zero value,
// performed before each memory.stat (or equivalent layout-driven) parse.
func (wb *WorkingBuffers) ClearSlices() {
	for i := range wb.Slices {
		wb.Slices[i] = AnonymousSlice{}
	}
}
