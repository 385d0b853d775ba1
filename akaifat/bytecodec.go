package akaifat

import (
	"encoding/binary"
	"math"

	"github.com/samplerfs/akaifat/akaierr"
)

// These are the only functions in the package permitted to interpret raw
// disk bytes as integers; everything else goes through them.

func getU8(data []byte, offset int) uint8 {
	return data[offset]
}

func setU8(data []byte, offset int, value uint8) {
	data[offset] = value
}

func getU16(data []byte, offset int) uint16 {
	return binary.LittleEndian.Uint16(data[offset : offset+2])
}

func setU16(data []byte, offset int, value uint16) {
	binary.LittleEndian.PutUint16(data[offset:offset+2], value)
}

func getU32(data []byte, offset int) uint32 {
	return binary.LittleEndian.Uint32(data[offset : offset+4])
}

// setU32 writes value at offset as a little-endian u32. It is the only
// setter with a domain restriction, kept for parity with callers that pass
// a 64-bit length computed from an int; everything else in this package
// already operates in-range by construction.
func setU32(data []byte, offset int, value uint64) error {
	if value > math.MaxUint32 {
		return akaierr.ValueOutOfRange
	}
	binary.LittleEndian.PutUint32(data[offset:offset+4], uint32(value))
	return nil
}
