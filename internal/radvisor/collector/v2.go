package collector

import (
	"os"
	"path/filepath"

	"github.com/radvisor/radvisor/internal/radvisor/buffers"
	"github.com/radvisor/radvisor/internal/radvisor/cgroupfs"
	"github.com/radvisor/radvisor/internal/radvisor/cgroupread"
)

// cpuStatKeysV2 is cpu.stat's flat-keyed field order, verbatim from the
// kernel's cgroup-v2 cpu controller documentation.
var cpuStatKeysV2 = [][]byte{
	[]byte("usage_usec"),
	[]byte("system_usec"),
	[]byte("user_usec"),
	[]byte("nr_periods"),
	[]byte("nr_throttled"),
	[]byte("throttled_usec"),
}

var cpuStatDefaultsV2 = [][]byte{
	[]byte("0"), []byte("0"), []byte("0"), []byte("0"), []byte("0"), []byte("0"),
}

// memoryStatKeysV2 is memory.stat's flat-keyed field order.
var memoryStatKeysV2 = [][]byte{
	[]byte("anon"),
	[]byte("file"),
	[]byte("kernel_stack"),
	[]byte("pagetables"),
	[]byte("percpu"),
	[]byte("sock"),
	[]byte("shmem"),
	[]byte("file_mapped"),
	[]byte("file_dirty"),
	[]byte("file_writeback"),
	[]byte("swapcached"),
	[]byte("inactive_anon"),
	[]byte("active_anon"),
	[]byte("inactive_file"),
	[]byte("active_file"),
	[]byte("unevictable"),
	[]byte("pgfault"),
	[]byte("pgmajfault"),
}

var memoryStatDefaultsV2 = func() [][]byte {
	defaults := make([][]byte, len(memoryStatKeysV2))
	for i := range defaults {
		defaults[i] = []byte("0")
	}
	return defaults
}()

// ioStatKeysV2 is io.stat's key set; each is summed across every device line
// present in the file.
var ioStatKeysV2 = [][]byte{
	[]byte("rbytes"),
	[]byte("wbytes"),
	[]byte("rios"),
	[]byte("wios"),
	[]byte("dbytes"),
	[]byte("dios"),
}

func headerColumnsV2() []string {
	cols := []string{"read", "pids.current", "pids.max"}
	for _, k := range cpuStatKeysV2 {
		cols = append(cols, "cpu.stat/"+string(k))
	}
	cols = append(cols, "memory.current", "memory.high", "memory.max")
	for _, k := range memoryStatKeysV2 {
		cols = append(cols, "memory.stat/"+string(k))
	}
	for _, k := range ioStatKeysV2 {
		cols = append(cols, "io.stat/"+string(k))
	}
	return cols
}

// v2Handles holds the long-lived file handles opened against the unified
// cgroup v2 hierarchy. A nil field means the file could not be opened; reads
// against a nil handle degrade to the column's default/empty value rather
// than aborting the whole row.
type v2Handles struct {
	pidsCurrent   *os.File
	pidsMax       *os.File
	cpuStat       *os.File
	memoryCurrent *os.File
	memoryHigh    *os.File
	memoryMax     *os.File
	memoryStat    *os.File
	ioStat        *os.File
}

func openV2Handles(cgroupPath string) *v2Handles {
	open := func(name string) *os.File {
		f, err := os.Open(filepath.Join(cgroupPath, name))
		if err != nil {
			return nil
		}
		return f
	}
	return &v2Handles{
		pidsCurrent:   open("pids.current"),
		pidsMax:       open("pids.max"),
		cpuStat:       open("cpu.stat"),
		memoryCurrent: open("memory.current"),
		memoryHigh:    open("memory.high"),
		memoryMax:     open("memory.max"),
		memoryStat:    open("memory.stat"),
		ioStat:        open("io.stat"),
	}
}

func (h *v2Handles) close() {
	for _, f := range []*os.File{
		h.pidsCurrent, h.pidsMax, h.cpuStat,
		h.memoryCurrent, h.memoryHigh, h.memoryMax, h.memoryStat, h.ioStat,
	} {
		if f != nil {
			_ = f.Close()
		}
	}
}

// v2Collector reads the unified cgroup v2 hierarchy's pids, cpu, memory, and
// io controllers.
type v2Collector struct {
	cgroup  cgroupfs.Path
	handles *v2Handles
}

func newV2Collector(path cgroupfs.Path) *v2Collector {
	return &v2Collector{cgroup: path}
}

func (c *v2Collector) Metadata() map[string]any {
	return map[string]any{
		"Cgroup":       c.cgroup.Path,
		"CgroupDriver": c.cgroup.Driver.String(),
	}
}

func (c *v2Collector) TableMetadata() TableMetadata {
	return TableMetadata{
		Delimiter: ",",
		Columns: map[string]Column{
			"read": {Type: ColumnEpoch19},
		},
	}
}

func (c *v2Collector) Type() string { return "cgroup_v2" }

func (c *v2Collector) HeaderColumns() []string { return headerColumnsV2() }

func (c *v2Collector) Init() error {
	c.handles = openV2Handles(cgroupfs.UnifiedPath(c.cgroup))
	return nil
}

func (c *v2Collector) Close() {
	if c.handles != nil {
		c.handles.close()
	}
}

// Collect reads one row. Per the historical v2 collector, the row is
// discarded entirely (not written) if the pids, cpu, memory, and io reads
// were all empty — a strong signal the cgroup has gone away.
func (c *v2Collector) Collect(wb *buffers.WorkingBuffers) (discard bool) {
	cgroupread.PushTimestamp(wb)

	pidsCurrent := cgroupread.ReadEntry(c.handles.pidsCurrent, []byte("0"), wb)
	pidsMax := cgroupread.ReadEntry(c.handles.pidsMax, []byte("max"), wb)
	pidsEmpty := pidsCurrent == cgroupread.Empty && pidsMax == cgroupread.Empty

	cpuResult := cgroupread.ReadFlatKeyed(c.handles.cpuStat, cpuStatKeysV2, cpuStatDefaultsV2, wb)

	memCurrent := cgroupread.ReadEntry(c.handles.memoryCurrent, []byte("0"), wb)
	memHigh := cgroupread.ReadEntry(c.handles.memoryHigh, []byte("max"), wb)
	memMax := cgroupread.ReadEntry(c.handles.memoryMax, []byte("max"), wb)
	memStat := cgroupread.ReadFlatKeyed(c.handles.memoryStat, memoryStatKeysV2, memoryStatDefaultsV2, wb)
	memEmpty := memCurrent == cgroupread.Empty && memHigh == cgroupread.Empty &&
		memMax == cgroupread.Empty && memStat == cgroupread.Empty

	ioResult := cgroupread.ReadIOStat(c.handles.ioStat, ioStatKeysV2, wb)

	return pidsEmpty && cpuResult == cgroupread.Empty && memEmpty && ioResult == cgroupread.Empty
}
