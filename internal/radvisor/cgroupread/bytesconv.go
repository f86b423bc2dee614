package cgroupread

import (
	"strconv"
	"unsafe"
)

// bytesToString reinterprets b as a string without copying its contents,
// for read-only use passing a parsed byte slice straight into a strconv
// function. The standard library's parsers only accept string, and
// string(b) would copy; b must not be mutated while the returned string is
// in use. The same reinterpret-without-copy technique is used in the
// opposite direction by buffer-pool loggers that hand a byte slice back as
// a string without an extra allocation.
func bytesToString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// parseUintBytes parses b as an unsigned base-10 integer without the
// allocation string(b) would incur.
func parseUintBytes(b []byte) (uint64, bool) {
	v, err := strconv.ParseUint(bytesToString(b), 10, 64)
	return v, err == nil
}
