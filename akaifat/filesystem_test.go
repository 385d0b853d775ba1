package akaifat_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samplerfs/akaifat/akaierr"
	"github.com/samplerfs/akaifat/akaifat"
	"github.com/samplerfs/akaifat/akaitesting"
)

func smallGeometry() akaifat.Geometry {
	return akaifat.Geometry{
		BytesPerSector:    512,
		SectorsPerCluster: 1,
		ReservedSectors:   1,
		FatCount:          2,
		RootEntryCount:    16,
		TotalSectors:      64,
		SectorsPerFat:     1,
		MediaByte:         0xF0,
		VolumeLabel:       "TESTVOL",
	}
}

func TestFormat_ThenOpen_RoundTrip(t *testing.T) {
	dev := akaitesting.NewBlankDevice(smallGeometry())
	fs, err := akaifat.Format(dev, smallGeometry())
	require.NoError(t, err)
	require.NoError(t, fs.Close())

	reopened, err := akaifat.Open(dev)
	require.NoError(t, err)
	defer reopened.Close()

	label, err := reopened.VolumeLabel()
	require.NoError(t, err)
	assert.Equal(t, "TESTVOL", label)
}

func TestFilesystem_CreateWriteReadFile(t *testing.T) {
	fs := akaitesting.FormatMemoryVolume(t, smallGeometry())
	defer fs.Close()

	root, err := fs.Root()
	require.NoError(t, err)

	entry, err := root.AddFile("HELLO.TXT")
	require.NoError(t, err)

	file, err := root.GetFile(entry)
	require.NoError(t, err)

	payload := []byte("hello akai")
	require.NoError(t, file.Write(0, payload))

	got := make([]byte, len(payload))
	require.NoError(t, file.Read(0, got))
	assert.Equal(t, payload, got)
	assert.EqualValues(t, len(payload), file.Length())
}

func TestFilesystem_FreeSpaceDecreasesAfterAllocation(t *testing.T) {
	fs := akaitesting.FormatMemoryVolume(t, smallGeometry())
	defer fs.Close()

	root, err := fs.Root()
	require.NoError(t, err)

	before, err := fs.FreeSpace()
	require.NoError(t, err)

	entry, err := root.AddFile("BIG.SND")
	require.NoError(t, err)
	file, err := root.GetFile(entry)
	require.NoError(t, err)
	require.NoError(t, file.Write(0, make([]byte, 2000)))

	after, err := fs.FreeSpace()
	require.NoError(t, err)
	assert.Less(t, after, before)
}

func TestFilesystem_CloseThenUseFails(t *testing.T) {
	fs := akaitesting.FormatMemoryVolume(t, smallGeometry())
	require.NoError(t, fs.Close())

	_, err := fs.Root()
	require.Error(t, err)
	assert.True(t, errors.Is(err, akaierr.AlreadyClosed))
}

func TestFilesystem_RemoveThenAddSameNameSucceeds(t *testing.T) {
	fs := akaitesting.FormatMemoryVolume(t, smallGeometry())
	defer fs.Close()

	root, err := fs.Root()
	require.NoError(t, err)

	_, err = root.AddFile("DUP.WAV")
	require.NoError(t, err)

	_, err = root.AddFile("DUP.WAV")
	require.Error(t, err)
	assert.True(t, errors.Is(err, akaierr.NameInUse))

	require.NoError(t, root.Remove("DUP.WAV"))
	_, err = root.AddFile("DUP.WAV")
	require.NoError(t, err)
}

func TestFilesystem_Subdirectory(t *testing.T) {
	fs := akaitesting.FormatMemoryVolume(t, smallGeometry())
	defer fs.Close()

	root, err := fs.Root()
	require.NoError(t, err)

	entry, err := root.AddDirectory("PROGRAMS")
	require.NoError(t, err)
	assert.True(t, entry.IsDirectory())

	sub, err := root.GetDirectory(entry)
	require.NoError(t, err)

	_, err = sub.AddFile("PROG1.AKP")
	require.NoError(t, err)

	require.NoError(t, fs.Flush())
}
