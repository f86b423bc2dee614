//go:build linux

package sysinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetPopulatesStaticFields(t *testing.T) {
	info := Get()
	assert.Equal(t, "linux", info.OsType)
	assert.Greater(t, info.CpuCount, 0)
}

func TestOnlineCPUCountIsPositive(t *testing.T) {
	count := onlineCPUCount()
	assert.Greater(t, count, 0)
}
