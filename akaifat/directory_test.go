package akaifat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samplerfs/akaifat/blockdev"
)

func TestFixedRootDirectory_AddReadRoundTrip(t *testing.T) {
	dev := blockdev.NewMemoryDevice(make([]byte, 16*DirentSize), 512, false)
	dir := NewFixedRootDirectory(dev, 0, 16, false)

	entry := &Dirent{Name: ShortName{Stem: "FOO", Ext: "BAR"}, Flags: AttrArchive}
	require.NoError(t, dir.Add(entry))
	require.NoError(t, dir.Flush())

	reloaded := NewFixedRootDirectory(dev, 0, 16, false)
	require.NoError(t, reloaded.Read())
	require.Len(t, reloaded.Entries(), 1)
	assert.Equal(t, "FOO", reloaded.Entries()[0].Name.Stem)
}

func TestFixedRootDirectory_FullFails(t *testing.T) {
	dev := blockdev.NewMemoryDevice(make([]byte, 2*DirentSize), 512, false)
	dir := NewFixedRootDirectory(dev, 0, 2, false)

	require.NoError(t, dir.Add(&Dirent{Name: ShortName{Stem: "A"}}))
	require.NoError(t, dir.Add(&Dirent{Name: ShortName{Stem: "B"}}))
	err := dir.Add(&Dirent{Name: ShortName{Stem: "C"}})
	require.Error(t, err)
}

func TestDirectory_VolumeLabel(t *testing.T) {
	dev := blockdev.NewMemoryDevice(make([]byte, 16*DirentSize), 512, false)
	dir := NewFixedRootDirectory(dev, 0, 16, false)

	require.NoError(t, dir.SetLabel("MYDISK"))
	require.NoError(t, dir.Flush())

	reloaded := NewFixedRootDirectory(dev, 0, 16, false)
	require.NoError(t, reloaded.Read())
	assert.Equal(t, "MYDISK", reloaded.Label())
}

func TestDirectory_ReadStopsAtNullTerminator(t *testing.T) {
	dev := blockdev.NewMemoryDevice(make([]byte, 4*DirentSize), 512, false)
	dir := NewFixedRootDirectory(dev, 0, 4, false)

	require.NoError(t, dir.Add(&Dirent{Name: ShortName{Stem: "KEPT"}}))
	require.NoError(t, dir.Flush())

	// Poison a slot past the terminator to prove Read never reaches it.
	poison := make([]byte, DirentSize)
	poison[0] = 'X'
	require.NoError(t, dev.Write(int64(3*DirentSize), poison))

	reloaded := NewFixedRootDirectory(dev, 0, 4, false)
	require.NoError(t, reloaded.Read())
	require.Len(t, reloaded.Entries(), 1)
}

func TestDirectory_ReadSkipsDeletedEntries(t *testing.T) {
	dev := blockdev.NewMemoryDevice(make([]byte, 4*DirentSize), 512, false)
	dir := NewFixedRootDirectory(dev, 0, 4, false)

	b := &Dirent{Name: ShortName{Stem: "B"}}
	require.NoError(t, dir.Add(b))
	require.NoError(t, dir.Flush())

	// Mark slot 0 as deleted on disk directly: Read must treat 0xE5 as a
	// tombstone and keep scanning rather than stopping (spec §4.9).
	deletedSlot := make([]byte, DirentSize)
	deletedSlot[0] = deletedMarker
	require.NoError(t, dev.Write(0, deletedSlot))
	require.NoError(t, dev.Write(DirentSize, func() []byte {
		buf := make([]byte, DirentSize)
		require.NoError(t, b.Serialize(buf))
		return buf
	}()))

	reloaded := NewFixedRootDirectory(dev, 0, 4, false)
	require.NoError(t, reloaded.Read())
	require.Len(t, reloaded.Entries(), 1)
	assert.Equal(t, "B", reloaded.Entries()[0].Name.Stem)
}
