package akaifat

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samplerfs/akaifat/akaierr"
	"github.com/samplerfs/akaifat/blockdev"
)

func newTestRootView(t *testing.T) *LfnDirectory {
	dev := blockdev.NewMemoryDevice(make([]byte, 64*DirentSize), 512, false)
	dir := NewFixedRootDirectory(dev, 0, 64, false)
	view, err := OpenLfnDirectory(dir, dev, nil, 0, 512, false)
	require.NoError(t, err)
	return view
}

func TestLfnDirectory_GetEntry_CaseInsensitive(t *testing.T) {
	view := newTestRootView(t)

	_, err := view.AddFile("Sample.Wav")
	require.NoError(t, err)

	entry, ok := view.GetEntry("sample.wav")
	require.True(t, ok)
	assert.Equal(t, "Sample.Wav", entry.AkaiName())

	_, ok = view.GetEntry("SAMPLE.WAV")
	assert.True(t, ok)
}

func TestLfnDirectory_AddFile_DuplicateNameFails(t *testing.T) {
	view := newTestRootView(t)

	_, err := view.AddFile("DUP.WAV")
	require.NoError(t, err)

	_, err = view.AddFile("dup.wav")
	require.Error(t, err)
	assert.True(t, errors.Is(err, akaierr.NameInUse))
}

func TestLfnDirectory_SetName_Rename(t *testing.T) {
	view := newTestRootView(t)

	_, err := view.AddFile("OLD.TXT")
	require.NoError(t, err)

	require.NoError(t, view.SetName("OLD.TXT", "NEW.TXT"))

	_, ok := view.GetEntry("OLD.TXT")
	assert.False(t, ok)
	_, ok = view.GetEntry("NEW.TXT")
	assert.True(t, ok)
}

func TestLfnDirectory_RemoveNonexistentIsNoop(t *testing.T) {
	view := newTestRootView(t)
	require.NoError(t, view.Remove("NOPE.TXT"))
}

func TestLfnDirectory_AkaiPartExtendsStem(t *testing.T) {
	view := newTestRootView(t)

	longName := "LONGSAMPLENAME.WAV"
	entry, err := view.AddFile(longName)
	require.NoError(t, err)

	assert.Equal(t, "LONGSAMP", entry.Name.Stem)
	assert.Equal(t, "LENAME", entry.AkaiPart)
	assert.Equal(t, "WAV", entry.Name.Ext)
	assert.Equal(t, longName, entry.AkaiName())
}
