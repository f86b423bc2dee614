package cgroupread

import (
	"bytes"
	"os"
	"strconv"

	"github.com/radvisor/radvisor/internal/radvisor/buffers"
)

// ReadBlkioSum is primitive 6 (cgroup v1 blkio.time / blkio.sectors):
// each line is "MAJ:MIN value"; the single grand-total line (just "Total
// value", with no device prefix) is ignored since the sum is recomputed
// here across devices. Pushes one field.
func ReadBlkioSum(f *os.File, wb *buffers.WorkingBuffers) Fullness {
	ok := readToBuffer(f, wb)

	var sum uint64
	any := false
	if ok {
		content := wb.Buffer.B[:wb.Buffer.Len]
		for linePos := 0; ; {
			line, lineNext, found := nextLine(content, linePos)
			if !found {
				break
			}
			linePos = lineNext

			device, next, ok1 := nextField(line, 0)
			if !ok1 {
				continue
			}
			value, next2, ok2 := nextField(line, next)
			if !ok2 {
				continue
			}
			if _, _, extra := nextField(line, next2); extra {
				continue
			}
			if indexByte(device, ':') < 0 {
				continue
			}
			v, ok3 := parseUintBytes(value)
			if !ok3 {
				continue
			}
			sum += v
			any = true
		}
	}

	wb.Buffer.Reset()
	if !any {
		wb.Record.PushField(emptyField)
		return Empty
	}
	pushFormatted(wb, sum)
	return Full
}

var (
	keyRead  = []byte("Read")
	keyWrite = []byte("Write")
	keySync  = []byte("Sync")
	keyAsync = []byte("Async")
)

// ReadBlkioIO is primitive 7 (cgroup v1 blkio 4-column IO files, e.g.
// blkio.throttle.io_service_bytes): each per-device line is
// "MAJ:MIN Operation value", where Operation is one of Read/Write/Sync/
// Async/Total. The per-device Total is redundant with Read+Write (or
// Sync+Async) and is skipped, as is the single grand-total line. Pushes
// 4 fields in the order read, write, sync, async, each summed across every
// device in the file.
func ReadBlkioIO(f *os.File, wb *buffers.WorkingBuffers) Fullness {
	ok := readToBuffer(f, wb)

	var read, write, sync, async uint64
	any := false
	if ok {
		content := wb.Buffer.B[:wb.Buffer.Len]
		for linePos := 0; ; {
			line, lineNext, found := nextLine(content, linePos)
			if !found {
				break
			}
			linePos = lineNext

			device, next, ok1 := nextField(line, 0)
			if !ok1 {
				continue
			}
			op, next2, ok2 := nextField(line, next)
			if !ok2 {
				continue
			}
			value, next3, ok3 := nextField(line, next2)
			if !ok3 {
				continue
			}
			if _, _, extra := nextField(line, next3); extra {
				continue
			}
			if indexByte(device, ':') < 0 {
				continue
			}
			v, ok4 := parseUintBytes(value)
			if !ok4 {
				continue
			}
			switch {
			case bytes.EqualFold(op, keyRead):
				read += v
				any = true
			case bytes.EqualFold(op, keyWrite):
				write += v
				any = true
			case bytes.EqualFold(op, keySync):
				sync += v
				any = true
			case bytes.EqualFold(op, keyAsync):
				async += v
				any = true
			}
		}
	}

	wb.Buffer.Reset()
	if !any {
		wb.Record.PushField(emptyField)
		wb.Record.PushField(emptyField)
		wb.Record.PushField(emptyField)
		wb.Record.PushField(emptyField)
		return Empty
	}
	pushFormatted(wb, read)
	pushFormatted(wb, write)
	pushFormatted(wb, sync)
	pushFormatted(wb, async)
	return Full
}

// pushFormatted formats v into wb.CopyBuffer and pushes it, for use after
// an earlier field in the same row has already been pushed (PushField
// copies immediately, so reusing CopyBuffer for each successive field in
// one row is safe).
func pushFormatted(wb *buffers.WorkingBuffers, v uint64) {
	wb.Record.PushField(strconv.AppendUint(wb.CopyBuffer.B[:0], v, 10))
}
