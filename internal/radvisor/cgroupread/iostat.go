package cgroupread

import (
	"os"
	"strconv"

	"github.com/radvisor/radvisor/internal/radvisor/buffers"
)

// lazyState is the three-state tag of a LazyQuantity: nothing seen yet, a
// single raw value seen (not yet parsed), or an accumulated integer sum
// (upgraded once a second value for the same key arrives).
type lazyState int

const (
	lazyZero lazyState = iota
	lazySingle
	lazySum
)

// LazyQuantity avoids parsing a value that appears exactly once per io.stat
// read: it holds the raw byte slice until a second occurrence forces it to
// upgrade to a parsed, accumulating integer sum.
type LazyQuantity struct {
	state  lazyState
	single []byte
	sum    uint64
}

// Add folds one more occurrence of this key's value into the quantity,
// parsing lazily only once two or more values must be combined.
func (q *LazyQuantity) Add(value []byte) {
	switch q.state {
	case lazyZero:
		q.single = value
		q.state = lazySingle
	case lazySingle:
		first, _ := parseUintBytes(q.single)
		second, _ := parseUintBytes(value)
		q.sum = first + second
		q.single = nil
		q.state = lazySum
	case lazySum:
		v, _ := parseUintBytes(value)
		q.sum += v
	}
}

// Push writes this quantity's field to the record: verbatim for a
// single-valued key, formatted decimal for an accumulated sum (via
// wb.CopyBuffer, so formatting performs no allocation), empty if nothing
// was ever seen.
func (q *LazyQuantity) Push(wb *buffers.WorkingBuffers) {
	switch q.state {
	case lazySingle:
		wb.Record.PushField(q.single)
	case lazySum:
		formatted := strconv.AppendUint(wb.CopyBuffer.B[:0], q.sum, 10)
		wb.Record.PushField(formatted)
	default:
		wb.Record.PushField(emptyField)
	}
}

// maxIOStatKeys bounds how many keys a single ReadIOStat call may request,
// sized to cover io.stat's 6 tracked keys with headroom. quantities lives
// on the stack as a fixed array rather than a make([]LazyQuantity, ...)
// slice, so the per-tick path performs no allocation.
const maxIOStatKeys = 8

// ReadIOStat is primitive 5 (io-stat aggregator, cgroup v2 io.stat): each
// line is "MAJ:MIN key=val key=val ...". Maintains one LazyQuantity per
// requested key across all device lines, then pushes each in key order.
// Returns Empty if every quantity stayed at lazyZero (file missing, empty,
// or none of the requested keys ever appeared).
func ReadIOStat(f *os.File, keys [][]byte, wb *buffers.WorkingBuffers) Fullness {
	ok := readToBuffer(f, wb)

	var quantitiesArr [maxIOStatKeys]LazyQuantity
	quantities := quantitiesArr[:len(keys)]

	any := false
	if ok {
		content := wb.Buffer.B[:wb.Buffer.Len]
		for linePos := 0; ; {
			line, lineNext, found := nextLine(content, linePos)
			if !found {
				break
			}
			linePos = lineNext

			for fieldPos := 0; ; {
				field, fieldNext, fieldFound := nextField(line, fieldPos)
				if !fieldFound {
					break
				}
				fieldPos = fieldNext

				eq := indexByte(field, '=')
				if eq < 0 {
					continue
				}
				key := field[:eq]
				val := field[eq+1:]
				idx := findKeyIndex(keys, key)
				if idx < 0 {
					continue
				}
				quantities[idx].Add(val)
				any = true
			}
		}
	}

	for i := range quantities {
		quantities[i].Push(wb)
	}

	wb.Buffer.Reset()
	if !any {
		return Empty
	}
	return Full
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}
