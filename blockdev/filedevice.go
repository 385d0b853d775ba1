package blockdev

import (
	"io"
	"os"

	"github.com/samplerfs/akaifat/akaierr"
)

// FileDevice is a Device backed by an *os.File, e.g. a raw disk image on
// disk or a real removable-media device node.
type FileDevice struct {
	file       *os.File
	size       uint64
	sectorSize uint32
	readOnly   bool
}

// OpenFileDevice opens path as a block device with the given sector size.
// If readOnly is false the file is opened for read/write.
func OpenFileDevice(path string, sectorSize uint32, readOnly bool) (*FileDevice, error) {
	flag := os.O_RDWR
	if readOnly {
		flag = os.O_RDONLY
	}

	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, akaierr.Io.WrapError(err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, akaierr.Io.WrapError(err)
	}

	return &FileDevice{
		file:       f,
		size:       uint64(info.Size()),
		sectorSize: sectorSize,
		readOnly:   readOnly,
	}, nil
}

func (d *FileDevice) Size() uint64       { return d.size }
func (d *FileDevice) SectorSize() uint32 { return d.sectorSize }
func (d *FileDevice) IsReadOnly() bool   { return d.readOnly }

func (d *FileDevice) Read(offset int64, dst []byte) error {
	if err := CheckBounds(d, offset, len(dst)); err != nil {
		return err
	}
	_, err := d.file.ReadAt(dst, offset)
	if err != nil && err != io.EOF {
		return akaierr.Io.WrapError(err)
	}
	return nil
}

func (d *FileDevice) Write(offset int64, src []byte) error {
	if d.readOnly {
		return akaierr.ReadOnlyDevice
	}
	if err := CheckBounds(d, offset, len(src)); err != nil {
		return err
	}
	if _, err := d.file.WriteAt(src, offset); err != nil {
		return akaierr.Io.WrapError(err)
	}
	return nil
}

func (d *FileDevice) Flush() error {
	if d.readOnly {
		return nil
	}
	if err := d.file.Sync(); err != nil {
		return akaierr.Io.WrapError(err)
	}
	return nil
}

func (d *FileDevice) Close() error {
	if err := d.file.Close(); err != nil {
		return akaierr.Io.WrapError(err)
	}
	return nil
}
