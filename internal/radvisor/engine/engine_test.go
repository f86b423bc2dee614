package engine

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/radvisor/radvisor/internal/radvisor/cgroupfs"
	"github.com/radvisor/radvisor/internal/radvisor/poller"
	"github.com/radvisor/radvisor/internal/radvisor/target"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeMinimalV2Cgroup(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range []string{"pids.current", "pids.max", "cpu.stat", "memory.current", "memory.high", "memory.max", "memory.stat", "io.stat"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("0\n"), 0o644))
	}
}

func TestEngineStartsCollectsAndFlushesOnShutdown(t *testing.T) {
	root := t.TempDir()
	t.Setenv("RADVISOR_CGROUP_ROOT", root)
	cgDir := filepath.Join(root, "docker", "abc")
	writeMinimalV2Cgroup(t, cgDir)

	logsDir := filepath.Join(t.TempDir(), "logs")
	e := New(logsDir, 4096, nil, discardLogger())

	events := make(chan poller.Event, 1)
	events <- poller.Event{
		Started: true,
		Target: target.ProviderTarget{
			ID:   "abc",
			Name: "docker",
			Method: target.CollectionMethod{
				Path: cgroupfs.Path{Path: filepath.Join("docker", "abc"), Driver: cgroupfs.Cgroupfs, Version: cgroupfs.V2},
			},
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx, events, time.Millisecond)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("engine did not shut down in time")
	}

	entries, err := os.ReadDir(logsDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(logsDir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "CollectorType: cgroup_v2")
}

func TestEngineStopTargetClosesHandle(t *testing.T) {
	root := t.TempDir()
	t.Setenv("RADVISOR_CGROUP_ROOT", root)
	cgDir := filepath.Join(root, "docker", "abc")
	writeMinimalV2Cgroup(t, cgDir)

	logsDir := filepath.Join(t.TempDir(), "logs")
	e := New(logsDir, 4096, nil, discardLogger())

	pt := target.ProviderTarget{
		ID:   "abc",
		Name: "docker",
		Method: target.CollectionMethod{
			Path: cgroupfs.Path{Path: filepath.Join("docker", "abc"), Driver: cgroupfs.Cgroupfs, Version: cgroupfs.V2},
		},
	}
	e.startTarget(pt)
	assert.Len(t, e.handles, 1)

	e.stopTarget("abc")
	assert.Len(t, e.handles, 0)
}
