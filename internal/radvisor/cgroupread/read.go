// Package cgroupread implements the zero-allocation parsing primitives used
// to turn cgroup stat files into CSV fields: single-value, offset-keyed line
// block, layout-driven, flat-keyed scan, and io-stat aggregation, plus the two
// cgroup v1 blkio aggregators in blkio.go (per-device sum and 4-column IO). Every
// primitive always pushes exactly its advertised number of fields, even when
// the backing file is missing, empty, or truncated.
package cgroupread

import (
	"os"

	"github.com/radvisor/radvisor/internal/radvisor/buffers"
)

// Fullness reports whether a primitive found any usable data.
type Fullness int

const (
	// Full indicates at least one value was read.
	Full Fullness = iota
	// Empty indicates the file was missing, unreadable, or carried none of
	// the requested keys.
	Empty
)

var emptyField = []byte{}

// readToBuffer fills wb.Buffer from f using the read-then-seek(0)
// discipline: read once into the fixed scratch array, then rewind so the
// next tick starts from byte 0 again. A nil file, a read error, or a
// zero-byte read are all treated the same way: the buffer ends up empty and
// the caller degrades to emitting default/empty fields.
func readToBuffer(f *os.File, wb *buffers.WorkingBuffers) bool {
	wb.Buffer.Reset()
	if f == nil {
		return false
	}
	n, err := f.Read(wb.Buffer.B[:])
	// Best-effort rewind regardless of the read outcome, so a failed read
	// this tick doesn't leave the handle offset somewhere unexpected for
	// the next tick.
	_, _ = f.Seek(0, 0)
	if err != nil && n == 0 {
		return false
	}
	wb.Buffer.Len = n
	return n > 0
}

// ReadEntry is primitive 1 (single-value): read to EOF, trim ASCII
// whitespace, push as one field. If the trimmed content is empty, pushes
// def instead (e.g. "0" or "max" for cgroup v2 sentinels; nil to push an
// empty field). Reports Empty whenever the file yielded no content, whether
// def or an empty field was pushed in its place.
func ReadEntry(f *os.File, def []byte, wb *buffers.WorkingBuffers) Fullness {
	readToBuffer(f, wb)
	trimmed := wb.Buffer.Trim()
	wb.Buffer.Reset()

	if len(trimmed) == 0 {
		if len(def) == 0 {
			wb.Record.PushField(emptyField)
			return Empty
		}
		wb.Record.PushField(def)
		return Empty
	}
	wb.Record.PushField(trimmed)
	return Full
}

// findNewline returns the index of the next '\n' at or after start, or -1.
func findNewline(b []byte, start int) int {
	for i := start; i < len(b); i++ {
		if b[i] == '\n' {
			return i
		}
	}
	return -1
}

// nextLine returns the line beginning at start (a subslice of b, never
// copied), the offset to resume scanning from, and whether a line was
// found. A trailing line with no '\n' terminator still counts. Used in
// place of splitting b into a [][]byte up front, which would allocate on
// every call on the per-tick path.
func nextLine(b []byte, start int) (line []byte, next int, ok bool) {
	if start >= len(b) {
		return nil, start, false
	}
	nl := findNewline(b, start)
	if nl < 0 {
		return b[start:], len(b), true
	}
	return b[start:nl], nl + 1, true
}

// nextField returns the next space-delimited token at or after start (a
// subslice of b), skipping any leading spaces, and the offset to resume
// scanning from. Used in place of building a [][]byte of every field up
// front.
func nextField(b []byte, start int) (field []byte, next int, ok bool) {
	for start < len(b) && b[start] == ' ' {
		start++
	}
	if start >= len(b) {
		return nil, start, false
	}
	end := start
	for end < len(b) && b[end] != ' ' {
		end++
	}
	return b[start:end], end, true
}

// ReadStatFile is primitive 2 (offset-keyed line block): for a file whose
// layout is stable at compile time (cpu.stat, cpuacct.stat), each of
// len(offsets) lines is "<key><space><value>\n"; offsets[i] is len(key) for
// line i, so the value starts right after it. Pushes an empty field for any
// line that can't be parsed, always pushing exactly len(offsets) fields.
func ReadStatFile(f *os.File, offsets []int, wb *buffers.WorkingBuffers) {
	ok := readToBuffer(f, wb)

	successCount := 0
	if ok {
		lineStart := 0
		for _, offset := range offsets {
			target := lineStart + offset + 1
			if target >= wb.Buffer.Len {
				break
			}
			nl := findNewline(wb.Buffer.B[:wb.Buffer.Len], target)
			if nl < 0 {
				break
			}
			value := buffers.TrimRaw(wb.Buffer.B[target:nl])
			wb.Record.PushField(value)
			lineStart = nl + 1
			successCount++
		}
	}

	for i := successCount; i < len(offsets); i++ {
		wb.Record.PushField(emptyField)
	}
	wb.Buffer.Reset()
}

// StatFileLine records, for one physical line of a variable-layout stat
// file, which logical entry (if any) that line corresponds to.
type StatFileLine struct {
	Entry  int
	Offset int
	Set    bool
}

// StatFileLayout is a precomputed, ordered list of per-line descriptors for
// a stat file whose key order varies by kernel/configuration (notably
// memory.stat). Built once at target activation by reading the file to EOF
// and matching each line's key against a compile-time ordered key set.
type StatFileLayout struct {
	Lines []StatFileLine
}

func findSpace(b []byte) int {
	for i, c := range b {
		if c == ' ' {
			return i
		}
	}
	return -1
}

func findKeyIndex(entries [][]byte, key []byte) int {
	for i, e := range entries {
		if len(e) != len(key) {
			continue
		}
		match := true
		for j := range e {
			if e[j] != key[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// NewStatFileLayout reads f once (if non-nil) and builds the line-to-entry
// map against entries, an ordered list of expected keys. If the read fails,
// the layout has no lines and every subsequent ReadWithLayout call emits all
// empty fields.
func NewStatFileLayout(f *os.File, entries [][]byte) StatFileLayout {
	if f == nil {
		return StatFileLayout{}
	}

	data := make([]byte, 0, buffers.WorkingBufferSize)
	chunk := make([]byte, 4096)
	for {
		n, err := f.Read(chunk)
		if n > 0 {
			data = append(data, chunk[:n]...)
		}
		if err != nil || n == 0 {
			break
		}
	}
	_, _ = f.Seek(0, 0)

	var layout StatFileLayout
	for start := 0; ; {
		line, next, ok := nextLine(data, start)
		if !ok {
			break
		}
		start = next

		sp := findSpace(line)
		if sp < 0 {
			layout.Lines = append(layout.Lines, StatFileLine{})
			continue
		}
		key := buffers.TrimRaw(line[:sp])
		idx := findKeyIndex(entries, key)
		if idx < 0 {
			layout.Lines = append(layout.Lines, StatFileLine{})
			continue
		}
		layout.Lines = append(layout.Lines, StatFileLine{Entry: idx, Offset: len(entries[idx]), Set: true})
	}
	return layout
}

// ReadWithLayout is primitive 3 (layout-driven): reads f and, using the
// precomputed layout, records a {start,length} slice in wb.Slices at each
// matched line's entry index; then pushes every slot in entries order
// (empty if unset). Always pushes len(entries) fields, where entries is the
// same ordered key list the layout was built from (its length equals the
// layout's logical entry count, independent of wb.Slices' fixed capacity).
func ReadWithLayout(f *os.File, layout StatFileLayout, entryCount int, wb *buffers.WorkingBuffers) {
	ok := readToBuffer(f, wb)
	wb.ClearSlices()

	if ok {
		content := wb.Buffer.B[:wb.Buffer.Len]
		index := 0
		pos := 0
		for {
			line, next, found := nextLine(content, pos)
			if !found {
				break
			}
			lineStart := pos
			pos = next

			if index >= len(layout.Lines) {
				break
			}
			ln := layout.Lines[index]
			index++
			if !ln.Set || ln.Entry >= len(wb.Slices) {
				continue
			}
			valueStart := lineStart + ln.Offset + 1
			valueEnd := lineStart + len(line)
			if valueStart > valueEnd || valueEnd > wb.Buffer.Len {
				continue
			}
			wb.Slices[ln.Entry] = buffers.AnonymousSlice{Start: valueStart, Length: valueEnd - valueStart}
		}
	}

	for i := 0; i < entryCount; i++ {
		if i >= len(wb.Slices) {
			wb.Record.PushField(emptyField)
			continue
		}
		if s, found := wb.Slices[i].Consume(wb.Buffer.B[:wb.Buffer.Len]); found {
			wb.Record.PushField(buffers.TrimRaw(s))
		} else {
			wb.Record.PushField(emptyField)
		}
	}

	wb.ClearSlices()
	wb.Buffer.Reset()
}

// maxFlatKeys bounds how many keys a single ReadFlatKeyed call may request,
// sized to cover memory.stat's 18 tracked keys with headroom. values lives
// on the stack as a fixed array rather than a make([][]byte, ...) slice, so
// the per-tick path performs no allocation.
const maxFlatKeys = 24

// ReadFlatKeyed is primitive 4 (flat-keyed scan, used by cgroup v2): scans
// lines of the form "key value", and for each of the caller-supplied keys
// (in order), pushes the matching value, or def[i] if the key never
// appeared. Returns Empty if no key matched at all.
func ReadFlatKeyed(f *os.File, keys [][]byte, defs [][]byte, wb *buffers.WorkingBuffers) Fullness {
	ok := readToBuffer(f, wb)

	var valuesArr [maxFlatKeys][]byte
	values := valuesArr[:len(keys)]

	matched := 0
	if ok {
		content := wb.Buffer.B[:wb.Buffer.Len]
		for pos := 0; ; {
			line, next, found := nextLine(content, pos)
			if !found {
				break
			}
			pos = next

			sp := findSpace(line)
			if sp < 0 {
				continue
			}
			key := line[:sp]
			idx := findKeyIndex(keys, key)
			if idx < 0 {
				continue
			}
			values[idx] = buffers.TrimRaw(line[sp+1:])
			matched++
		}
	}

	for i := range keys {
		if values[i] != nil {
			wb.Record.PushField(values[i])
		} else if i < len(defs) && defs[i] != nil {
			wb.Record.PushField(defs[i])
		} else {
			wb.Record.PushField(emptyField)
		}
	}

	wb.Buffer.Reset()
	if matched == 0 {
		return Empty
	}
	return Full
}
