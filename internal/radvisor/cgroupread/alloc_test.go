package cgroupread

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/radvisor/radvisor/internal/radvisor/buffers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openFixture writes contents to a file under t.TempDir() and returns it
// opened for reuse across many AllocsPerRun iterations, relying on each
// primitive's own read-then-seek(0) discipline to make repeated reads safe.
func openFixture(t *testing.T, name, contents string) *os.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

// assertZeroAllocs is the steady-state regression check the primitives'
// zero-heap-allocation contract needs: every read-and-push call must move
// the allocation count for f by exactly 0 across many repeated calls.
func assertZeroAllocs(t *testing.T, name string, fn func()) {
	t.Helper()
	allocs := testing.AllocsPerRun(1000, fn)
	assert.Zero(t, allocs, "%s allocated on the per-tick path (%.2f allocs/run)", name, allocs)
}

func TestReadEntryAllocatesNothing(t *testing.T) {
	f := openFixture(t, "entry", "1048576\n")
	wb := buffers.New()
	assertZeroAllocs(t, "ReadEntry", func() {
		wb.Record.Clear()
		ReadEntry(f, nil, wb)
	})
}

func TestReadStatFileAllocatesNothing(t *testing.T) {
	f := openFixture(t, "cpu.stat", "user 10\nsystem 20\n")
	wb := buffers.New()
	offsets := []int{len("user"), len("system")}
	assertZeroAllocs(t, "ReadStatFile", func() {
		wb.Record.Clear()
		ReadStatFile(f, offsets, wb)
	})
}

func TestReadWithLayoutAllocatesNothing(t *testing.T) {
	entries := [][]byte{[]byte("total_cache"), []byte("total_rss")}
	f := openFixture(t, "memory.stat", "total_rss 99\ntotal_cache 5\n")
	layout := NewStatFileLayout(f, entries)
	wb := buffers.New()
	assertZeroAllocs(t, "ReadWithLayout", func() {
		wb.Record.Clear()
		ReadWithLayout(f, layout, len(entries), wb)
	})
}

func TestReadFlatKeyedAllocatesNothing(t *testing.T) {
	f := openFixture(t, "cpu.stat.v2", "usage_usec 10\nsystem_usec 20\nuser_usec 30\n"+
		"nr_periods 1\nnr_throttled 0\nthrottled_usec 0\n")
	keys := [][]byte{
		[]byte("usage_usec"), []byte("system_usec"), []byte("user_usec"),
		[]byte("nr_periods"), []byte("nr_throttled"), []byte("throttled_usec"),
	}
	wb := buffers.New()
	assertZeroAllocs(t, "ReadFlatKeyed", func() {
		wb.Record.Clear()
		ReadFlatKeyed(f, keys, nil, wb)
	})
}

func TestReadIOStatAllocatesNothing(t *testing.T) {
	f := openFixture(t, "io.stat", "8:0 rbytes=100 wbytes=0 rios=1 wios=0 dbytes=0 dios=0\n"+
		"8:16 rbytes=25 wbytes=7 rios=1 wios=1 dbytes=0 dios=0\n")
	keys := [][]byte{
		[]byte("rbytes"), []byte("wbytes"), []byte("rios"),
		[]byte("wios"), []byte("dbytes"), []byte("dios"),
	}
	wb := buffers.New()
	assertZeroAllocs(t, "ReadIOStat", func() {
		wb.Record.Clear()
		ReadIOStat(f, keys, wb)
	})
}

func TestReadBlkioSumAllocatesNothing(t *testing.T) {
	f := openFixture(t, "blkio.time", "8:0 100\n253:0 25\nTotal 125\n")
	wb := buffers.New()
	assertZeroAllocs(t, "ReadBlkioSum", func() {
		wb.Record.Clear()
		ReadBlkioSum(f, wb)
	})
}

func TestReadBlkioIOAllocatesNothing(t *testing.T) {
	f := openFixture(t, "blkio.io_service_bytes", "8:0 Read 10\n8:0 Write 20\n8:0 Sync 5\n8:0 Async 25\n8:0 Total 30\n"+
		"253:0 Read 1\n253:0 Write 2\n253:0 Sync 1\n253:0 Async 2\n253:0 Total 3\nTotal 33\n")
	wb := buffers.New()
	assertZeroAllocs(t, "ReadBlkioIO", func() {
		wb.Record.Clear()
		ReadBlkioIO(f, wb)
	})
}
