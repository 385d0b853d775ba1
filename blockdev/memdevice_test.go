package blockdev_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samplerfs/akaifat/akaierr"
	"github.com/samplerfs/akaifat/blockdev"
)

func TestMemoryDevice_ReadWriteRoundTrip(t *testing.T) {
	backing := make([]byte, 4096)
	dev := blockdev.NewMemoryDevice(backing, 512, false)

	payload := []byte("akai s1000 sample disk")
	require.NoError(t, dev.Write(512, payload))

	got := make([]byte, len(payload))
	require.NoError(t, dev.Read(512, got))
	assert.Equal(t, payload, got)
}

func TestMemoryDevice_ReadPastEndFails(t *testing.T) {
	dev := blockdev.NewMemoryDevice(make([]byte, 512), 512, false)
	err := dev.Read(500, make([]byte, 100))
	require.Error(t, err)
	assert.True(t, errors.Is(err, akaierr.DeviceOutOfRange))
}

func TestMemoryDevice_WriteToReadOnlyFails(t *testing.T) {
	dev := blockdev.NewMemoryDevice(make([]byte, 512), 512, true)
	err := dev.Write(0, []byte("x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, akaierr.ReadOnlyDevice))
}

func TestCheckBounds_NegativeOffset(t *testing.T) {
	dev := blockdev.NewMemoryDevice(make([]byte, 512), 512, false)
	err := blockdev.CheckBounds(dev, -1, 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, akaierr.DeviceOutOfRange))
}
