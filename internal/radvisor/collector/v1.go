package collector

import (
	"os"
	"runtime"

	"github.com/radvisor/radvisor/internal/radvisor/buffers"
	"github.com/radvisor/radvisor/internal/radvisor/cgroupfs"
	"github.com/radvisor/radvisor/internal/radvisor/cgroupread"
)

// memoryStatEntriesV1 is the subset of memory.stat lines that map to
// columns, in the column order they appear in the header.
var memoryStatEntriesV1 = [][]byte{
	[]byte("hierarchical_memory_limit"),
	[]byte("hierarchical_memsw_limit"),
	[]byte("total_cache"),
	[]byte("total_rss"),
	[]byte("total_rss_huge"),
	[]byte("total_mapped_file"),
	[]byte("total_swap"),
	[]byte("total_pgpgin"),
	[]byte("total_pgpgout"),
	[]byte("total_pgfault"),
	[]byte("total_pgmajfault"),
	[]byte("total_inactive_anon"),
	[]byte("total_active_anon"),
	[]byte("total_inactive_file"),
	[]byte("total_active_file"),
	[]byte("total_unevictable"),
}

var cpuacctStatOffsets = []int{len("user"), len("system")}
var cpuStatOffsetsV1 = []int{len("nr_periods"), len("nr_throttled"), len("throttled_time")}

func ioHeaderGroup(headers []string, base string) []string {
	return append(headers, base+".read", base+".write", base+".sync", base+".async")
}

func headerColumnsV1() []string {
	headers := []string{
		"read",
		"pids.current", "pids.max",
		"cpu.usage.total", "cpu.usage.system", "cpu.usage.user", "cpu.usage.percpu",
		"cpu.stat.user", "cpu.stat.system",
		"cpu.throttling.periods", "cpu.throttling.throttled.count", "cpu.throttling.throttled.time",
		"memory.usage.current", "memory.usage.max", "memory.limit.hard", "memory.limit.soft",
		"memory.failcnt",
		"memory.hierarchical_limit.memory", "memory.hierarchical_limit.memoryswap",
		"memory.cache", "memory.rss.all", "memory.rss.huge", "memory.mapped", "memory.swap",
		"memory.paged.in", "memory.paged.out", "memory.fault.total", "memory.fault.major",
		"memory.anon.inactive", "memory.anon.active", "memory.file.inactive", "memory.file.active",
		"memory.unevictable",
		"blkio.time", "blkio.sectors",
	}
	for _, base := range []string{
		"blkio.service.bytes", "blkio.service.ios", "blkio.service.time",
		"blkio.queued", "blkio.wait", "blkio.merged",
		"blkio.throttle.service.bytes", "blkio.throttle.service.ios",
		"blkio.bfq.service.bytes", "blkio.bfq.service.ios",
	} {
		headers = ioHeaderGroup(headers, base)
	}
	return headers
}

// v1Handles holds the long-lived file handles opened against the v1
// per-subsystem hierarchy.
type v1Handles struct {
	pidsCurrent, pidsMax *os.File

	cpuacctUsage, cpuacctUsageSys, cpuacctUsageUser, cpuacctUsagePercpu *os.File
	cpuacctStat                                                        *os.File
	cpuStat                                                            *os.File

	memoryUsageInBytes, memoryMaxUsageInBytes *os.File
	memoryLimitInBytes, memorySoftLimitInBytes *os.File
	memoryFailcnt                              *os.File
	memoryStat                                 *os.File

	blkioTime, blkioSectors                               *os.File
	blkioIOServiceBytes, blkioIOServiced                   *os.File
	blkioIOServiceTime, blkioIOQueued                      *os.File
	blkioIOWaitTime, blkioIOMerged                         *os.File
	blkioThrottleIOServiceBytes, blkioThrottleIOServiced   *os.File
	blkioBfqIOServiceBytes, blkioBfqIOServiced             *os.File
}

func openV1Handles(path cgroupfs.Path) *v1Handles {
	open := func(subsystem, file string) *os.File {
		f, err := os.Open(cgroupfs.SubsystemPath(path, subsystem) + "/" + file)
		if err != nil {
			return nil
		}
		return f
	}
	return &v1Handles{
		pidsCurrent: open("pids", "pids.current"),
		pidsMax:     open("pids", "pids.max"),

		cpuacctUsage:       open("cpuacct", "cpuacct.usage"),
		cpuacctUsageSys:    open("cpuacct", "cpuacct.usage_sys"),
		cpuacctUsageUser:   open("cpuacct", "cpuacct.usage_user"),
		cpuacctUsagePercpu: open("cpuacct", "cpuacct.usage_percpu"),
		cpuacctStat:        open("cpuacct", "cpuacct.stat"),
		cpuStat:            open("cpu", "cpu.stat"),

		memoryUsageInBytes:     open("memory", "memory.usage_in_bytes"),
		memoryMaxUsageInBytes:  open("memory", "memory.max_usage_in_bytes"),
		memoryLimitInBytes:     open("memory", "memory.limit_in_bytes"),
		memorySoftLimitInBytes: open("memory", "memory.soft_limit_in_bytes"),
		memoryFailcnt:          open("memory", "memory.failcnt"),
		memoryStat:             open("memory", "memory.stat"),

		blkioTime:    open("blkio", "blkio.time_recursive"),
		blkioSectors: open("blkio", "blkio.sectors_recursive"),

		blkioIOServiceBytes: open("blkio", "blkio.io_service_bytes_recursive"),
		blkioIOServiced:     open("blkio", "blkio.io_serviced_recursive"),
		blkioIOServiceTime:  open("blkio", "blkio.io_service_time_recursive"),
		blkioIOQueued:       open("blkio", "blkio.io_queued_recursive"),
		blkioIOWaitTime:     open("blkio", "blkio.io_wait_time_recursive"),
		blkioIOMerged:       open("blkio", "blkio.io_merged_recursive"),

		blkioThrottleIOServiceBytes: open("blkio", "blkio.throttle.io_service_bytes_recursive"),
		blkioThrottleIOServiced:     open("blkio", "blkio.throttle.io_serviced_recursive"),
		blkioBfqIOServiceBytes:      open("blkio", "blkio.bfq.io_service_bytes_recursive"),
		blkioBfqIOServiced:          open("blkio", "blkio.bfq.io_serviced_recursive"),
	}
}

func (h *v1Handles) all() []*os.File {
	return []*os.File{
		h.pidsCurrent, h.pidsMax,
		h.cpuacctUsage, h.cpuacctUsageSys, h.cpuacctUsageUser, h.cpuacctUsagePercpu, h.cpuacctStat, h.cpuStat,
		h.memoryUsageInBytes, h.memoryMaxUsageInBytes, h.memoryLimitInBytes, h.memorySoftLimitInBytes,
		h.memoryFailcnt, h.memoryStat,
		h.blkioTime, h.blkioSectors,
		h.blkioIOServiceBytes, h.blkioIOServiced, h.blkioIOServiceTime, h.blkioIOQueued,
		h.blkioIOWaitTime, h.blkioIOMerged,
		h.blkioThrottleIOServiceBytes, h.blkioThrottleIOServiced,
		h.blkioBfqIOServiceBytes, h.blkioBfqIOServiced,
	}
}

func (h *v1Handles) close() {
	for _, f := range h.all() {
		if f != nil {
			_ = f.Close()
		}
	}
}

// v1Collector reads the per-subsystem cgroup v1 hierarchy's pids, cpuacct,
// cpu, memory, and blkio controllers. Unlike v2, a row is always committed
// even when every cell within it is empty.
type v1Collector struct {
	cgroup       cgroupfs.Path
	handles      *v1Handles
	memoryLayout cgroupread.StatFileLayout
}

func newV1Collector(path cgroupfs.Path) *v1Collector {
	return &v1Collector{cgroup: path}
}

func (c *v1Collector) Metadata() map[string]any {
	return map[string]any{
		"Cgroup":       c.cgroup.Path,
		"CgroupDriver": c.cgroup.Driver.String(),
	}
}

func (c *v1Collector) TableMetadata() TableMetadata {
	return TableMetadata{
		Delimiter: ",",
		Columns: map[string]Column{
			"read":             {Type: ColumnEpoch19},
			"cpu.usage.percpu": {Type: ColumnInt, Count: runtime.NumCPU()},
		},
	}
}

func (c *v1Collector) Type() string { return "cgroups_v1" }

func (c *v1Collector) HeaderColumns() []string { return headerColumnsV1() }

func (c *v1Collector) Init() error {
	c.handles = openV1Handles(c.cgroup)
	c.memoryLayout = cgroupread.NewStatFileLayout(c.handles.memoryStat, memoryStatEntriesV1)
	return nil
}

func (c *v1Collector) Close() {
	if c.handles != nil {
		c.handles.close()
	}
}

func (c *v1Collector) Collect(wb *buffers.WorkingBuffers) (discard bool) {
	cgroupread.PushTimestamp(wb)
	c.collectPids(wb)
	c.collectCPU(wb)
	c.collectMemory(wb)
	c.collectBlkio(wb)
	return false
}

func (c *v1Collector) collectPids(wb *buffers.WorkingBuffers) {
	cgroupread.ReadEntry(c.handles.pidsCurrent, nil, wb)
	cgroupread.ReadEntry(c.handles.pidsMax, nil, wb)
}

func (c *v1Collector) collectCPU(wb *buffers.WorkingBuffers) {
	cgroupread.ReadEntry(c.handles.cpuacctUsage, nil, wb)
	cgroupread.ReadEntry(c.handles.cpuacctUsageSys, nil, wb)
	cgroupread.ReadEntry(c.handles.cpuacctUsageUser, nil, wb)
	cgroupread.ReadEntry(c.handles.cpuacctUsagePercpu, nil, wb)
	cgroupread.ReadStatFile(c.handles.cpuacctStat, cpuacctStatOffsets, wb)
	cgroupread.ReadStatFile(c.handles.cpuStat, cpuStatOffsetsV1, wb)
}

func (c *v1Collector) collectMemory(wb *buffers.WorkingBuffers) {
	cgroupread.ReadEntry(c.handles.memoryUsageInBytes, nil, wb)
	cgroupread.ReadEntry(c.handles.memoryMaxUsageInBytes, nil, wb)
	cgroupread.ReadEntry(c.handles.memoryLimitInBytes, nil, wb)
	cgroupread.ReadEntry(c.handles.memorySoftLimitInBytes, nil, wb)
	cgroupread.ReadEntry(c.handles.memoryFailcnt, nil, wb)
	cgroupread.ReadWithLayout(c.handles.memoryStat, c.memoryLayout, len(memoryStatEntriesV1), wb)
}

func (c *v1Collector) collectBlkio(wb *buffers.WorkingBuffers) {
	cgroupread.ReadBlkioSum(c.handles.blkioTime, wb)
	cgroupread.ReadBlkioSum(c.handles.blkioSectors, wb)
	cgroupread.ReadBlkioIO(c.handles.blkioIOServiceBytes, wb)
	cgroupread.ReadBlkioIO(c.handles.blkioIOServiced, wb)
	cgroupread.ReadBlkioIO(c.handles.blkioIOServiceTime, wb)
	cgroupread.ReadBlkioIO(c.handles.blkioIOQueued, wb)
	cgroupread.ReadBlkioIO(c.handles.blkioIOWaitTime, wb)
	cgroupread.ReadBlkioIO(c.handles.blkioIOMerged, wb)
	cgroupread.ReadBlkioIO(c.handles.blkioThrottleIOServiceBytes, wb)
	cgroupread.ReadBlkioIO(c.handles.blkioThrottleIOServiced, wb)
	cgroupread.ReadBlkioIO(c.handles.blkioBfqIOServiceBytes, wb)
	cgroupread.ReadBlkioIO(c.handles.blkioBfqIOServiced, wb)
}
