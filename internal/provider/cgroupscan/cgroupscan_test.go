package cgroupscan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchListsLeafDirsUnderV2Root(t *testing.T) {
	root := t.TempDir()
	t.Setenv("RADVISOR_CGROUP_ROOT", root)
	require.NoError(t, os.WriteFile(filepath.Join(root, "cgroup.controllers"), []byte("cpu"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docker", "abc"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docker", "def"), 0o755))

	p := New([]string{"docker"})
	targets, err := p.Fetch(context.Background())
	require.NoError(t, err)

	var ids []string
	for _, tgt := range targets {
		ids = append(ids, tgt.ID)
	}
	assert.ElementsMatch(t, []string{"abc", "def"}, ids)
}

func TestFetchReturnsEmptyWhenRootMissing(t *testing.T) {
	root := t.TempDir()
	t.Setenv("RADVISOR_CGROUP_ROOT", root)
	require.NoError(t, os.WriteFile(filepath.Join(root, "cgroup.controllers"), []byte("cpu"), 0o644))

	p := New([]string{"docker"})
	targets, err := p.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, targets)
}

func TestNameIsCgroup(t *testing.T) {
	assert.Equal(t, "cgroup", New(nil).Name())
}
