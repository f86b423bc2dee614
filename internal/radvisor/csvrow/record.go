// Package csvrow implements a fixed-capacity, allocation-free CSV row
// accumulator. encoding/csv.Writer is not used on the collection hot path:
// its Write method takes a []string and copies each field, which allocates
// once per field per tick — unacceptable under the steady-state
// zero-allocation contract the collection engine must uphold.
package csvrow

import "io"

// ByteRecord accumulates one CSV row's fields into a single reusable byte
// buffer, recording field boundaries instead of allocating a []string.
type ByteRecord struct {
	buf    []byte
	starts []int
	ends   []int
}

// NewByteRecord allocates a ByteRecord with the given byte-buffer capacity
// and expected field count. Both grow on demand but are sized up front to
// avoid reallocation in steady state.
func NewByteRecord(bufCapacity, fieldCapacity int) *ByteRecord {
	return &ByteRecord{
		buf:    make([]byte, 0, bufCapacity),
		starts: make([]int, 0, fieldCapacity),
		ends:   make([]int, 0, fieldCapacity),
	}
}

// PushField appends one field, copying field's bytes into the internal
// buffer. Safe to call with a slice that aliases scratch memory reused on a
// later tick, since the bytes are copied immediately.
func (r *ByteRecord) PushField(field []byte) {
	start := len(r.buf)
	r.buf = append(r.buf, field...)
	r.starts = append(r.starts, start)
	r.ends = append(r.ends, len(r.buf))
}

// Len returns the number of fields pushed so far.
func (r *ByteRecord) Len() int { return len(r.starts) }

// Field returns the i'th field's bytes. The slice is only valid until the
// next Clear or PushField call.
func (r *ByteRecord) Field(i int) []byte { return r.buf[r.starts[i]:r.ends[i]] }

// Clear resets the record to zero fields without releasing capacity.
func (r *ByteRecord) Clear() {
	r.buf = r.buf[:0]
	r.starts = r.starts[:0]
	r.ends = r.ends[:0]
}

const comma = ','
const newline = '\n'

// WriteRow writes every pushed field to w, comma-delimited, terminated with
// a single newline. Numeric fields are never quoted, matching the schema's
// "no quoting of numeric fields" contract; since every column in this
// schema is either numeric or an ASCII token with no embedded commas, no
// quoting logic is implemented at all.
func (r *ByteRecord) WriteRow(w io.Writer) (int, error) {
	total := 0
	for i := 0; i < r.Len(); i++ {
		if i > 0 {
			n, err := w.Write(commaBytes)
			total += n
			if err != nil {
				return total, err
			}
		}
		n, err := w.Write(r.Field(i))
		total += n
		if err != nil {
			return total, err
		}
	}
	n, err := w.Write(newlineBytes)
	total += n
	return total, err
}

var commaBytes = []byte{comma}
var newlineBytes = []byte{newline}

// WriteHeader writes a row of plain string column names, used once per log
// file. It does not reuse the ByteRecord buffer since header rows are not
// on the hot path.
func WriteHeader(w io.Writer, columns []string) (int, error) {
	total := 0
	for i, col := range columns {
		if i > 0 {
			n, err := w.Write(commaBytes)
			total += n
			if err != nil {
				return total, err
			}
		}
		n, err := io.WriteString(w, col)
		total += n
		if err != nil {
			return total, err
		}
	}
	n, err := w.Write(newlineBytes)
	total += n
	return total, err
}
