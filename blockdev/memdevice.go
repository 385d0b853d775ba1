package blockdev

import (
	"io"

	"github.com/xaionaro-go/bytesextra"

	"github.com/samplerfs/akaifat/akaierr"
)

// MemoryDevice is a Device backed entirely by a byte slice. It's used by the
// akaitesting package to build throwaway formatted volumes, and is the Go
// equivalent of the original C++ implementation's DummyBlockDevice.
type MemoryDevice struct {
	backing    []byte
	stream     io.ReadWriteSeeker
	sectorSize uint32
	readOnly   bool
}

// NewMemoryDevice wraps backing (not copied) as a Device of len(backing)
// bytes. len(backing) is not checked against sectorSize and need not be a
// whole number of sectors.
func NewMemoryDevice(backing []byte, sectorSize uint32, readOnly bool) *MemoryDevice {
	stream := bytesextra.NewReadWriteSeeker(backing)
	return &MemoryDevice{
		backing:    backing,
		stream:     stream,
		sectorSize: sectorSize,
		readOnly:   readOnly,
	}
}

func (d *MemoryDevice) Size() uint64       { return uint64(len(d.backing)) }
func (d *MemoryDevice) SectorSize() uint32 { return d.sectorSize }
func (d *MemoryDevice) IsReadOnly() bool   { return d.readOnly }

func (d *MemoryDevice) Read(offset int64, dst []byte) error {
	if err := CheckBounds(d, offset, len(dst)); err != nil {
		return err
	}
	if _, err := d.stream.Seek(offset, 0); err != nil {
		return akaierr.Io.WrapError(err)
	}
	if _, err := d.stream.Read(dst); err != nil {
		return akaierr.Io.WrapError(err)
	}
	return nil
}

func (d *MemoryDevice) Write(offset int64, src []byte) error {
	if d.readOnly {
		return akaierr.ReadOnlyDevice
	}
	if err := CheckBounds(d, offset, len(src)); err != nil {
		return err
	}
	if _, err := d.stream.Seek(offset, 0); err != nil {
		return akaierr.Io.WrapError(err)
	}
	if _, err := d.stream.Write(src); err != nil {
		return akaierr.Io.WrapError(err)
	}
	return nil
}

func (d *MemoryDevice) Flush() error { return nil }
func (d *MemoryDevice) Close() error { return nil }

// Bytes returns the underlying buffer, for tests that want to inspect the
// formatted image directly.
func (d *MemoryDevice) Bytes() []byte { return d.backing }
