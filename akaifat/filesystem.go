package akaifat

import (
	"github.com/samplerfs/akaifat/akaierr"
	"github.com/samplerfs/akaifat/blockdev"
)

// Geometry describes the parameters needed to format a fresh volume (spec
// §4 "Format").
type Geometry struct {
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	FatCount          uint8
	RootEntryCount    uint16
	TotalSectors      uint32
	SectorsPerFat     uint16
	MediaByte         uint8
	VolumeLabel       string
}

// Filesystem is the top-level handle on a mounted Akai FAT volume (spec
// §4.14). It owns the boot sector, every redundant FAT copy, and the root
// directory's name-index view, and enforces the on-disk write ordering
// required for crash safety.
type Filesystem struct {
	dev      blockdev.Device
	bs       *BootSector
	fats     []*Fat
	root     *LfnDirectory
	closed   bool
	readOnly bool
}

// Open mounts the volume on dev: it reads the boot sector, reads every FAT
// copy, cross-checks the redundant copies against copy 0 (failing with
// FatMismatch if any differ), then opens the root directory's name-index
// view (spec §4.14).
func Open(dev blockdev.Device) (*Filesystem, error) {
	bs, err := ReadBootSector(dev)
	if err != nil {
		return nil, err
	}

	fats := make([]*Fat, bs.FatCount)
	for i := 0; i < int(bs.FatCount); i++ {
		f, err := ReadFat(dev, bs, i)
		if err != nil {
			return nil, err
		}
		fats[i] = f
	}

	var mismatches errorList
	for i := 1; i < len(fats); i++ {
		if !fats[0].Equal(fats[i]) {
			mismatches.addf("FAT copy %d does not match FAT copy 0", i)
		}
	}
	if err := mismatches.err(); err != nil {
		return nil, akaierr.FatMismatch.WrapError(err)
	}

	readOnly := dev.IsReadOnly()
	rootDir := NewFixedRootDirectory(dev, bs.RootDirOffset(), int(bs.RootEntryCount), readOnly)

	root, err := OpenLfnDirectory(rootDir, dev, fats[0], bs.FilesOffset(), bs.BytesPerCluster(), readOnly)
	if err != nil {
		return nil, err
	}

	return &Filesystem{
		dev:      dev,
		bs:       bs,
		fats:     fats,
		root:     root,
		readOnly: readOnly,
	}, nil
}

// Format writes a fresh, empty volume matching geometry to dev, then opens
// it (spec §4 "Format").
func Format(dev blockdev.Device, geometry Geometry) (*Filesystem, error) {
	if dev.IsReadOnly() {
		return nil, akaierr.ReadOnlyDevice
	}

	rootDirSectors := (uint32(geometry.RootEntryCount)*DirentSize + uint32(geometry.BytesPerSector) - 1) / uint32(geometry.BytesPerSector)
	totalFatSectors := uint32(geometry.FatCount) * uint32(geometry.SectorsPerFat)
	dataSectors := geometry.TotalSectors - (uint32(geometry.ReservedSectors) + totalFatSectors + rootDirSectors)
	dataClusterCount := dataSectors / uint32(geometry.SectorsPerCluster)

	var fatType FatType
	switch {
	case dataClusterCount <= maxFat12Clusters:
		fatType = FatType12
	case dataClusterCount <= maxFat16Clusters:
		fatType = FatType16
	default:
		return nil, akaierr.UnsupportedFatType
	}

	var buf [sectorSizeBytes]byte
	setU16(buf[:], bsBytesPerSectorOffset, geometry.BytesPerSector)
	setU8(buf[:], bsSectorsPerClusterOffset, geometry.SectorsPerCluster)
	setU16(buf[:], bsReservedSectorsOffset, geometry.ReservedSectors)
	setU8(buf[:], bsFatCountOffset, geometry.FatCount)
	setU16(buf[:], bsRootEntryCountOffset, geometry.RootEntryCount)
	if geometry.TotalSectors <= 0xFFFF {
		setU16(buf[:], bsTotalSectors16Offset, uint16(geometry.TotalSectors))
	} else {
		if err := setU32(buf[:], bsTotalSectors32Offset, uint64(geometry.TotalSectors)); err != nil {
			return nil, err
		}
	}
	setU8(buf[:], bsMediaOffset, geometry.MediaByte)
	setU16(buf[:], bsSectorsPerFat16Offset, geometry.SectorsPerFat)
	setU8(buf[:], bsSignatureOffset, 0x55)
	setU8(buf[:], bsSignatureOffset+1, 0xAA)

	label := geometry.VolumeLabel
	if len(label) > bsVolumeLabelLength {
		label = label[:bsVolumeLabelLength]
	}
	var paddedLabel [bsVolumeLabelLength]byte
	for i := range paddedLabel {
		paddedLabel[i] = ' '
	}
	copy(paddedLabel[:], label)
	copy(buf[bsVolumeLabelOffset:bsVolumeLabelOffset+bsVolumeLabelLength], paddedLabel[:])

	if err := dev.Write(0, buf[:]); err != nil {
		return nil, akaierr.Io.WrapError(err)
	}

	fat := NewFat(fatType, uint32(geometry.SectorsPerFat), uint32(geometry.BytesPerSector), dataClusterCount, geometry.MediaByte)

	reservedBytes := int64(geometry.ReservedSectors) * int64(geometry.BytesPerSector)
	fatBytes := int64(geometry.SectorsPerFat) * int64(geometry.BytesPerSector)
	for i := 0; i < int(geometry.FatCount); i++ {
		offset := reservedBytes + int64(i)*fatBytes
		if err := fat.WriteCopy(dev, offset, uint32(geometry.SectorsPerFat), uint32(geometry.BytesPerSector)); err != nil {
			return nil, err
		}
	}

	rootDirOffset := reservedBytes + int64(geometry.FatCount)*fatBytes
	rootDirBytes := make([]byte, int(geometry.RootEntryCount)*DirentSize)
	if err := dev.Write(rootDirOffset, rootDirBytes); err != nil {
		return nil, akaierr.Io.WrapError(err)
	}

	fs, err := Open(dev)
	if err != nil {
		return nil, err
	}

	if geometry.VolumeLabel != "" {
		if err := fs.root.SetLabel(geometry.VolumeLabel); err != nil {
			return nil, err
		}
		if err := fs.root.Flush(); err != nil {
			return nil, err
		}
	}

	return fs, nil
}

func (fs *Filesystem) checkOpen() error {
	if fs.closed {
		return akaierr.AlreadyClosed
	}
	return nil
}

// Root returns the volume's root directory name-index view.
func (fs *Filesystem) Root() (*LfnDirectory, error) {
	if err := fs.checkOpen(); err != nil {
		return nil, err
	}
	return fs.root, nil
}

// VolumeLabel returns the volume's label, or "" if it has none.
func (fs *Filesystem) VolumeLabel() (string, error) {
	if err := fs.checkOpen(); err != nil {
		return "", err
	}
	return fs.root.Label(), nil
}

// SetVolumeLabel sets (or clears, with "") the volume's label, updating
// both the root directory's label entry and the boot sector's copy.
func (fs *Filesystem) SetVolumeLabel(label string) error {
	if err := fs.checkOpen(); err != nil {
		return err
	}
	if fs.readOnly {
		return akaierr.ReadOnlyFilesystem
	}
	if err := fs.root.SetLabel(label); err != nil {
		return err
	}
	fs.bs.setVolumeLabelField(label)
	return nil
}

// FreeSpace returns the number of unallocated bytes on the volume.
func (fs *Filesystem) FreeSpace() (uint64, error) {
	if err := fs.checkOpen(); err != nil {
		return 0, err
	}
	return uint64(fs.fats[0].FreeClusterCount()) * uint64(fs.bs.BytesPerCluster()), nil
}

// UsableSpace returns the total number of bytes the data region can hold.
func (fs *Filesystem) UsableSpace() (uint64, error) {
	if err := fs.checkOpen(); err != nil {
		return 0, err
	}
	return uint64(fs.bs.DataClusterCount) * uint64(fs.bs.BytesPerCluster()), nil
}

// Flush writes back every pending change in the strict order required for
// crash safety: data clusters and directory tables first (via the root
// view's recursive Flush), then the in-memory FAT copy 0 written to every
// FAT copy's offset, then the boot sector last (spec §5).
func (fs *Filesystem) Flush() error {
	if err := fs.checkOpen(); err != nil {
		return err
	}
	if fs.readOnly {
		return nil
	}

	if err := fs.root.Flush(); err != nil {
		return err
	}

	reservedBytes := int64(fs.bs.ReservedSectors) * int64(fs.bs.BytesPerSector)
	fatBytes := int64(fs.bs.SectorsPerFat) * int64(fs.bs.BytesPerSector)
	for i := range fs.fats {
		offset := reservedBytes + int64(i)*fatBytes
		if err := fs.fats[0].WriteCopy(fs.dev, offset, uint32(fs.bs.SectorsPerFat), uint32(fs.bs.BytesPerSector)); err != nil {
			return err
		}
	}

	if err := fs.bs.Write(fs.dev); err != nil {
		return err
	}

	return fs.dev.Flush()
}

// Close flushes any pending changes (unless the filesystem is read-only)
// and marks the handle closed. Any further operation on it fails with
// AlreadyClosed (spec §4.14).
func (fs *Filesystem) Close() error {
	if err := fs.checkOpen(); err != nil {
		return err
	}

	if !fs.readOnly {
		if err := fs.Flush(); err != nil {
			return err
		}
	}

	fs.closed = true
	return fs.dev.Close()
}
