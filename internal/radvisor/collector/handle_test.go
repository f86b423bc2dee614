package collector

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/radvisor/radvisor/internal/radvisor/buffers"
	"github.com/radvisor/radvisor/internal/radvisor/cgroupfs"
	"github.com/radvisor/radvisor/internal/radvisor/flushlog"
	"github.com/radvisor/radvisor/internal/radvisor/target"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHandleWritesHeaderAndCSVHeaderRow(t *testing.T) {
	root := t.TempDir()
	t.Setenv("RADVISOR_CGROUP_ROOT", root)
	cgDir := filepath.Join(root, "docker", "abc")
	require.NoError(t, os.MkdirAll(cgDir, 0o755))
	writeFakeV2Cgroup(t, cgDir)

	logsDir := filepath.Join(t.TempDir(), "logs")
	tgt := target.CollectionTarget{
		ID:       "abc",
		Provider: "docker",
		Method: target.CollectionMethod{
			Path: cgroupfs.Path{Path: filepath.Join("docker", "abc"), Driver: cgroupfs.Cgroupfs, Version: cgroupfs.V2},
		},
		PollTimeNano: 1000,
	}

	h, err := NewHandle(logsDir, tgt, 4096, nil)
	require.NoError(t, err)
	defer h.Close()

	require.NoError(t, h.Flush())

	entries, err := os.ReadDir(logsDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(logsDir, entries[0].Name()))
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "---\n")
	assert.Contains(t, content, "CollectorType: cgroup_v2")
	assert.Contains(t, content, strings.Join(headerColumnsV2(), ","))
	assert.True(t, h.Active)
}

func TestHandleCollectWritesRowAndRecordsFlushEvents(t *testing.T) {
	root := t.TempDir()
	t.Setenv("RADVISOR_CGROUP_ROOT", root)
	cgDir := filepath.Join(root, "docker", "abc")
	require.NoError(t, os.MkdirAll(cgDir, 0o755))
	writeFakeV2Cgroup(t, cgDir)

	logsDir := filepath.Join(t.TempDir(), "logs")
	eventLogPath := filepath.Join(t.TempDir(), "flush.csv")
	eventLog := flushlog.NewLog(eventLogPath, 8)

	tgt := target.CollectionTarget{
		ID:       "abc",
		Provider: "docker",
		Method: target.CollectionMethod{
			Path: cgroupfs.Path{Path: filepath.Join("docker", "abc"), Driver: cgroupfs.Cgroupfs, Version: cgroupfs.V2},
		},
	}

	h, err := NewHandle(logsDir, tgt, 16, eventLog)
	require.NoError(t, err)

	wb := buffers.New()
	require.NoError(t, h.Collect(wb))
	require.NoError(t, h.Close())

	n, err := eventLog.Write()
	require.NoError(t, err)
	assert.Greater(t, n, 0)

	flushData, err := os.ReadFile(eventLogPath)
	require.NoError(t, err)
	assert.Contains(t, string(flushData), "abc")
}

func TestHandleDiscardsEmptyV2Row(t *testing.T) {
	root := t.TempDir()
	t.Setenv("RADVISOR_CGROUP_ROOT", root)
	cgDir := filepath.Join(root, "docker", "gone")
	require.NoError(t, os.MkdirAll(cgDir, 0o755))

	logsDir := filepath.Join(t.TempDir(), "logs")
	tgt := target.CollectionTarget{
		ID:       "gone",
		Provider: "docker",
		Method: target.CollectionMethod{
			Path: cgroupfs.Path{Path: filepath.Join("docker", "gone"), Driver: cgroupfs.Cgroupfs, Version: cgroupfs.V2},
		},
	}

	h, err := NewHandle(logsDir, tgt, 16, nil)
	require.NoError(t, err)
	defer h.Close()

	wb := buffers.New()
	require.NoError(t, h.Collect(wb))
	require.NoError(t, h.Flush())
	assert.Equal(t, 0, wb.Record.Len())

	entries, err := os.ReadDir(logsDir)
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(logsDir, entries[0].Name()))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	assert.Equal(t, strings.Join(headerColumnsV2(), ","), lines[len(lines)-1])
}
