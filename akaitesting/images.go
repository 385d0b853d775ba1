// Package akaitesting provides fixtures for exercising the akaifat driver
// without touching a real disk: in-memory block devices, formatted images,
// and a way to seed them with random data.
package akaitesting

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samplerfs/akaifat/akaifat"
	"github.com/samplerfs/akaifat/blockdev"
)

// CreateRandomImage returns a byte slice of the given size filled with
// random data. It is guaranteed to either return a valid slice or fail the
// test and abort.
func CreateRandomImage(t *testing.T, size uint) []byte {
	backing := make([]byte, size)
	_, err := rand.Read(backing)
	require.NoErrorf(t, err, "failed to initialize %d random bytes", size)
	return backing
}

// NewMemoryDevice wraps backing as an in-memory block device of the given
// sector size.
func NewMemoryDevice(backing []byte, sectorSize uint32, readOnly bool) *blockdev.MemoryDevice {
	return blockdev.NewMemoryDevice(backing, sectorSize, readOnly)
}

// NewBlankDevice allocates a fresh, zeroed in-memory device sized for
// geometry.
func NewBlankDevice(geometry akaifat.Geometry) *blockdev.MemoryDevice {
	backing := make([]byte, int64(geometry.TotalSectors)*int64(geometry.BytesPerSector))
	return blockdev.NewMemoryDevice(backing, uint32(geometry.BytesPerSector), false)
}

// FormatMemoryVolume formats a brand-new in-memory volume matching geometry
// and returns the mounted filesystem handle, failing the test on any error.
func FormatMemoryVolume(t *testing.T, geometry akaifat.Geometry) *akaifat.Filesystem {
	dev := NewBlankDevice(geometry)
	fs, err := akaifat.Format(dev, geometry)
	require.NoError(t, err, "failed to format in-memory test volume")
	return fs
}
