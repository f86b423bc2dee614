package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingPathReturnsZeroValue(t *testing.T) {
	opts, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Options{}, opts)
}

func TestLoadNonexistentFileReturnsZeroValue(t *testing.T) {
	opts, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Options{}, opts)
}

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "radvisor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
directory: /var/log/radvisor/stats
interval: 50ms
pollInterval: 1s
provider: docker
bufferCapacity: 65536
logLevel: debug
`), 0o644))

	opts, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/log/radvisor/stats", opts.Directory)
	assert.Equal(t, 50*time.Millisecond, opts.Interval)
	assert.Equal(t, time.Second, opts.PollInterval)
	assert.Equal(t, "docker", opts.Provider)
	assert.Equal(t, 65536, opts.BufferCapacity)
	assert.Equal(t, "debug", opts.LogLevel)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("not: [valid"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
