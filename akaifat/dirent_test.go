package akaifat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirent_SerializeParseRoundTrip(t *testing.T) {
	entry := &Dirent{
		Name:         ShortName{Stem: "SONG1", Ext: "WAV"},
		Flags:        AttrArchive,
		AkaiPart:     "extra",
		FirstCluster: ClusterID(42),
		Length:       123456,
	}

	buf := make([]byte, DirentSize)
	require.NoError(t, entry.Serialize(buf))

	got, err := ParseDirent(buf)
	require.NoError(t, err)
	assert.Equal(t, entry.Name, got.Name)
	assert.Equal(t, entry.Flags, got.Flags)
	assert.Equal(t, "extra", got.AkaiPart)
	assert.Equal(t, entry.FirstCluster, got.FirstCluster)
	assert.Equal(t, entry.Length, got.Length)
}

func TestDirent_ReservedWordAlwaysZero(t *testing.T) {
	entry := &Dirent{Name: ShortName{Stem: "FILE"}, FirstCluster: 5}
	buf := make([]byte, DirentSize)
	// Poison the reserved bytes to prove Serialize clears them even when the
	// buffer still holds stale bytes from a slot's previous occupant (spec §9).
	for i := direntReservedOffset; i < direntReservedOffset+direntReservedLength; i++ {
		buf[i] = 0xFF
	}
	require.NoError(t, entry.Serialize(buf))
	for i := direntReservedOffset; i < direntReservedOffset+direntReservedLength; i++ {
		assert.Equal(t, byte(0), buf[i])
	}
}

func TestDirent_AkaiName(t *testing.T) {
	entry := &Dirent{Name: ShortName{Stem: "SONG1", Ext: "WAV"}, AkaiPart: "EXTRA   "}
	assert.Equal(t, "SONG1EXTRA.WAV", entry.AkaiName())
}

func TestDirent_IsFileIsDirectory(t *testing.T) {
	file := &Dirent{Flags: AttrArchive}
	assert.True(t, file.IsFile())
	assert.False(t, file.IsDirectory())

	dir := &Dirent{Flags: AttrDirectory}
	assert.False(t, dir.IsFile())
	assert.True(t, dir.IsDirectory())
}

func TestDirent_IsLfnEntrySkipped(t *testing.T) {
	lfn := &Dirent{Flags: AttrReadOnly | AttrHidden | AttrSystem | AttrVolumeID}
	assert.True(t, lfn.IsLfnEntry())
	assert.False(t, lfn.IsVolumeLabel())
}

func TestDirent_SetLengthMarksDirtyOnlyOnChange(t *testing.T) {
	entry := &Dirent{Length: 10}
	entry.dirty = false
	entry.SetLength(10)
	assert.False(t, entry.dirty)
	entry.SetLength(20)
	assert.True(t, entry.dirty)
}
