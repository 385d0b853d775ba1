package akaifat

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samplerfs/akaifat/akaierr"
)

func newTestFat12(dataClusters uint32) *Fat {
	// Enough sectors to hold dataClusters+2 FAT12 entries comfortably.
	sectorsPerFat := uint32(4)
	return NewFat(FatType12, sectorsPerFat, 512, dataClusters, 0xF0)
}

func TestFat_AllocNewChain_LinksSequentially(t *testing.T) {
	f := newTestFat12(10)

	chain, err := f.AllocNewChain(3)
	require.NoError(t, err)
	require.Len(t, chain, 3)

	got, err := f.Chain(chain[0])
	require.NoError(t, err)
	assert.Equal(t, chain, got)
}

func TestFat_AllocNewChain_RollsBackOnFailure(t *testing.T) {
	f := newTestFat12(2) // only clusters 2 and 3 exist

	_, err := f.AllocNewChain(5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, akaierr.FatFull))

	assert.Equal(t, uint32(2), f.FreeClusterCount())
}

func TestFat_Chain_DetectsCycle(t *testing.T) {
	f := newTestFat12(10)
	// Manually wire a cycle: 2 -> 3 -> 2.
	f.setEntry(2, 3)
	f.setEntry(3, 2)

	_, err := f.Chain(2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, akaierr.FatCycle))
}

func TestFat_FreeClusterCount_DecrementsOnAlloc(t *testing.T) {
	f := newTestFat12(10)
	before := f.FreeClusterCount()

	_, err := f.AllocNew()
	require.NoError(t, err)

	assert.Equal(t, before-1, f.FreeClusterCount())
}

func TestFat_SetFree_ReturnsClusterToPool(t *testing.T) {
	f := newTestFat12(10)
	cluster, err := f.AllocNew()
	require.NoError(t, err)

	before := f.FreeClusterCount()
	require.NoError(t, f.SetFree(cluster))
	assert.Equal(t, before+1, f.FreeClusterCount())
}

func TestFat_NextFitAllocation_ContinuesFromLastAllocated(t *testing.T) {
	f := newTestFat12(10)

	first, err := f.AllocNew()
	require.NoError(t, err)
	second, err := f.AllocNew()
	require.NoError(t, err)

	assert.Greater(t, second, first)
}

func TestFat12RawEntry_BitPacking(t *testing.T) {
	data := make([]byte, 6)
	writeRawEntry(data, FatType12, 0, 0x123)
	writeRawEntry(data, FatType12, 1, 0x456)

	assert.Equal(t, uint32(0x123), readRawEntry(data, FatType12, 0))
	assert.Equal(t, uint32(0x456), readRawEntry(data, FatType12, 1))
}

func TestFat16RawEntry_RoundTrip(t *testing.T) {
	data := make([]byte, 4)
	writeRawEntry(data, FatType16, 0, 0xBEEF)
	writeRawEntry(data, FatType16, 1, 0x1234)

	assert.Equal(t, uint32(0xBEEF), readRawEntry(data, FatType16, 0))
	assert.Equal(t, uint32(0x1234), readRawEntry(data, FatType16, 1))
}

func TestFat_Equal(t *testing.T) {
	a := newTestFat12(10)
	b := newTestFat12(10)
	assert.True(t, a.Equal(b))

	_, err := a.AllocNew()
	require.NoError(t, err)
	assert.False(t, a.Equal(b))
}

func TestFat_TestCluster_RejectsOutOfRange(t *testing.T) {
	f := newTestFat12(10)
	err := f.testCluster(0)
	require.Error(t, err)
	err = f.testCluster(1)
	require.Error(t, err)
}
