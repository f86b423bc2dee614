package collector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/radvisor/radvisor/internal/radvisor/buffers"
	"github.com/radvisor/radvisor/internal/radvisor/cgroupfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFakeV2Cgroup(t *testing.T, dir string) {
	t.Helper()
	files := map[string]string{
		"pids.current":   "4\n",
		"pids.max":       "max\n",
		"cpu.stat":       "usage_usec 100\nuser_usec 60\nsystem_usec 40\nnr_periods 2\nnr_throttled 1\nthrottled_usec 10\n",
		"memory.current": "1048576\n",
		"memory.high":    "max\n",
		"memory.max":     "max\n",
		"memory.stat":    "anon 10\nfile 20\nkernel_stack 1\npagetables 2\npercpu 3\nsock 4\nshmem 5\nfile_mapped 6\nfile_dirty 7\nfile_writeback 8\nswapcached 9\ninactive_anon 11\nactive_anon 12\ninactive_file 13\nactive_file 14\nunevictable 15\npgfault 16\npgmajfault 17\n",
		"io.stat":        "8:0 rbytes=100 wbytes=200 rios=1 wios=2 dbytes=0 dios=0\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func TestHeaderColumnsV2Count(t *testing.T) {
	assert.Len(t, headerColumnsV2(), 36)
}

func TestV2CollectorCollectsFullRow(t *testing.T) {
	root := t.TempDir()
	t.Setenv("RADVISOR_CGROUP_ROOT", root)
	cgDir := filepath.Join(root, "docker", "abc")
	require.NoError(t, os.MkdirAll(cgDir, 0o755))
	writeFakeV2Cgroup(t, cgDir)

	path := cgroupfs.Path{Path: filepath.Join("docker", "abc"), Driver: cgroupfs.Cgroupfs, Version: cgroupfs.V2}
	c := newV2Collector(path)
	require.NoError(t, c.Init())
	defer c.Close()

	wb := buffers.New()
	discard := c.Collect(wb)
	assert.False(t, discard)
	assert.Equal(t, len(headerColumnsV2()), wb.Record.Len())
}

func TestV2CollectorDiscardsWhenEverythingEmpty(t *testing.T) {
	root := t.TempDir()
	t.Setenv("RADVISOR_CGROUP_ROOT", root)
	cgDir := filepath.Join(root, "docker", "gone")
	require.NoError(t, os.MkdirAll(cgDir, 0o755))

	path := cgroupfs.Path{Path: filepath.Join("docker", "gone"), Driver: cgroupfs.Cgroupfs, Version: cgroupfs.V2}
	c := newV2Collector(path)
	require.NoError(t, c.Init())
	defer c.Close()

	wb := buffers.New()
	discard := c.Collect(wb)
	assert.True(t, discard)
	assert.Equal(t, len(headerColumnsV2()), wb.Record.Len())
}

func TestV2CollectorTypeAndMetadata(t *testing.T) {
	path := cgroupfs.Path{Path: "docker/abc", Driver: cgroupfs.Cgroupfs, Version: cgroupfs.V2}
	c := newV2Collector(path)
	assert.Equal(t, "cgroup_v2", c.Type())
	assert.Equal(t, "docker/abc", c.Metadata()["Cgroup"])
	assert.Equal(t, "cgroupfs", c.Metadata()["CgroupDriver"])
}
