// Package blockdev defines the block-device abstraction the akaifat driver
// reads and writes through, and provides a couple of concrete backings for
// it (a plain file and an in-memory buffer).
package blockdev

import (
	"github.com/samplerfs/akaifat/akaierr"
)

// Device is a byte-addressable store. Callers in this module issue reads
// and writes at arbitrary byte offsets and lengths; they do not align them
// to SectorSize(). Both implementations in this package accept unaligned
// spans.
type Device interface {
	// Size returns the total size of the device, in bytes.
	Size() uint64

	// SectorSize returns the device's native sector size in bytes. Must be
	// one of 512, 1024, 2048, or 4096.
	SectorSize() uint32

	// Read fills dst with the bytes starting at offset.
	Read(offset int64, dst []byte) error

	// Write writes src starting at offset.
	Write(offset int64, src []byte) error

	// Flush pushes any buffered writes to the backing store.
	Flush() error

	// Close releases any resources held by the device. Implementations
	// should flush before closing a writable device.
	Close() error

	// IsReadOnly reports whether Write always fails on this device.
	IsReadOnly() bool
}

// CheckBounds returns akaierr.DeviceOutOfRange if reading or writing
// spanLength bytes at offset would run past the end of the device.
func CheckBounds(dev Device, offset int64, spanLength int) error {
	if offset < 0 {
		return akaierr.DeviceOutOfRange.WithMessage("negative offset")
	}
	end := offset + int64(spanLength)
	if end > int64(dev.Size()) {
		return akaierr.DeviceOutOfRange.WithMessage("span extends past end of device")
	}
	return nil
}
