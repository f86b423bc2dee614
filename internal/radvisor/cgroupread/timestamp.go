//go:build linux

package cgroupread

import (
	"strconv"

	"github.com/radvisor/radvisor/internal/radvisor/buffers"
	"golang.org/x/sys/unix"
)

// NanoTS returns the current wall-clock time in nanoseconds since the Unix
// epoch, via clock_gettime(CLOCK_REALTIME, ...), matching the historical
// nano_ts() contract exactly (tv_sec*1e9 + tv_nsec).
func NanoTS() int64 {
	var ts unix.Timespec
	_ = unix.ClockGettime(unix.CLOCK_REALTIME, &ts)
	return ts.Sec*1_000_000_000 + ts.Nsec
}

// SecondTS returns the current wall-clock time in whole seconds since the
// Unix epoch.
func SecondTS() int64 {
	var ts unix.Timespec
	_ = unix.ClockGettime(unix.CLOCK_REALTIME, &ts)
	return ts.Sec
}

// PushTimestamp formats the current nanosecond timestamp as ASCII decimal
// directly into the record, with no intermediate string allocation beyond
// strconv.AppendInt's append target (which reuses a small stack buffer for
// int64-sized values).
func PushTimestamp(wb *buffers.WorkingBuffers) {
	var scratch [20]byte
	formatted := strconv.AppendInt(scratch[:0], NanoTS(), 10)
	wb.Record.PushField(formatted)
}
