package akaierr_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samplerfs/akaifat/akaierr"
)

func TestKind_IsItself(t *testing.T) {
	assert.True(t, errors.Is(akaierr.FatFull, akaierr.FatFull))
	assert.False(t, errors.Is(akaierr.FatFull, akaierr.FatCycle))
}

func TestWithMessage_UnwrapsToKind(t *testing.T) {
	err := akaierr.FatFull.WithMessage("no clusters left")
	require.True(t, errors.Is(err, akaierr.FatFull))
	assert.False(t, errors.Is(err, akaierr.FatCycle))
	assert.Contains(t, err.Error(), "no clusters left")
}

func TestWrapError_ChainsThroughMultipleLayers(t *testing.T) {
	root := errors.New("disk read failed")
	wrapped := akaierr.Io.WrapError(root)
	twiceWrapped := wrapped.WithMessage("while reading boot sector")

	require.True(t, errors.Is(twiceWrapped, akaierr.Io))
	assert.False(t, errors.Is(twiceWrapped, akaierr.FatFull))
	assert.Contains(t, twiceWrapped.Error(), "disk read failed")
	assert.Contains(t, twiceWrapped.Error(), "while reading boot sector")
}
