package cgroupread

import (
	"testing"

	"github.com/radvisor/radvisor/internal/radvisor/buffers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBlkioSumAcrossDevices(t *testing.T) {
	f := writeTemp(t, "8:0 100\n253:0 25\nTotal 125\n")
	wb := buffers.New()
	fullness := ReadBlkioSum(f, wb)
	require.Equal(t, Full, fullness)
	assert.Equal(t, []byte("125"), wb.Record.Field(0))
}

func TestReadBlkioSumEmptyFile(t *testing.T) {
	wb := buffers.New()
	fullness := ReadBlkioSum(nil, wb)
	require.Equal(t, Empty, fullness)
	assert.Equal(t, []byte{}, wb.Record.Field(0))
}

func TestReadBlkioIOAggregatesAndIgnoresTotals(t *testing.T) {
	contents := "8:0 Read 10\n8:0 Write 20\n8:0 Sync 5\n8:0 Async 25\n8:0 Total 30\n" +
		"253:0 Read 1\n253:0 Write 2\n253:0 Sync 1\n253:0 Async 2\n253:0 Total 3\n" +
		"Total 33\n"
	f := writeTemp(t, contents)
	wb := buffers.New()
	fullness := ReadBlkioIO(f, wb)
	require.Equal(t, Full, fullness)
	assert.Equal(t, []byte("11"), wb.Record.Field(0))
	assert.Equal(t, []byte("22"), wb.Record.Field(1))
	assert.Equal(t, []byte("6"), wb.Record.Field(2))
	assert.Equal(t, []byte("27"), wb.Record.Field(3))
}

func TestReadBlkioIOEmptyFile(t *testing.T) {
	wb := buffers.New()
	fullness := ReadBlkioIO(nil, wb)
	require.Equal(t, Empty, fullness)
	for i := 0; i < 4; i++ {
		assert.Equal(t, []byte{}, wb.Record.Field(i))
	}
}
