package disks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_KnownSlug(t *testing.T) {
	geometry, err := Get("hd1440")
	require.NoError(t, err)
	assert.Equal(t, uint16(512), geometry.BytesPerSector)
	assert.EqualValues(t, 2880, geometry.TotalSectors)
}

func TestGet_UnknownSlugFails(t *testing.T) {
	_, err := Get("does-not-exist")
	require.Error(t, err)
}

func TestList_IncludesSeededGeometries(t *testing.T) {
	slugs := List()
	assert.Contains(t, slugs, "dd720")
	assert.Contains(t, slugs, "hd1440")
}

func TestToAkaiGeometry_CarriesFields(t *testing.T) {
	geometry, err := Get("dd720")
	require.NoError(t, err)

	akaiGeom := geometry.ToAkaiGeometry("MYDISK")
	assert.Equal(t, geometry.BytesPerSector, akaiGeom.BytesPerSector)
	assert.Equal(t, "MYDISK", akaiGeom.VolumeLabel)
}

func TestTotalSizeBytes(t *testing.T) {
	geometry, err := Get("hd1440")
	require.NoError(t, err)
	assert.EqualValues(t, 2880*512, geometry.TotalSizeBytes())
}
