package akaifat

import (
	"github.com/samplerfs/akaifat/akaierr"
	"github.com/samplerfs/akaifat/blockdev"
)

// FatType distinguishes the two on-disk entry packings this driver supports.
// FAT32 is explicitly out of scope (spec §1 Non-goals).
type FatType int

const (
	FatType12 FatType = 12
	FatType16 FatType = 16
)

// boot sector field offsets, bit-exact per spec §6.
const (
	bsJmpBootOffset           = 0
	bsOEMNameOffset           = 3
	bsBytesPerSectorOffset    = 11
	bsSectorsPerClusterOffset = 13
	bsReservedSectorsOffset   = 14
	bsFatCountOffset          = 16
	bsRootEntryCountOffset    = 17
	bsTotalSectors16Offset    = 19
	bsMediaOffset             = 21
	bsSectorsPerFat16Offset   = 22
	bsSectorsPerTrackOffset   = 24
	bsHeadsOffset             = 26
	bsHiddenSectorsOffset     = 28
	bsTotalSectors32Offset    = 32
	bsExtendedBootSigOffset   = 38
	bsVolumeLabelOffset       = 43
	bsVolumeLabelLength       = 11
	bsFsTypeLabelOffset       = 54
	bsFsTypeLabelLength       = 8
	bsSignatureOffset         = 510

	sectorSizeBytes = 512

	// maxFat12Clusters / maxFat16Clusters come straight from Microsoft's FAT
	// documentation (v1.03, p.14): they're the cutoffs used to pick the FAT
	// entry width, not round numbers.
	maxFat12Clusters = 4084
	maxFat16Clusters = 65524
)

// BootSector is the parsed form of the first sector of the volume, plus the
// geometry values derived from it.
type BootSector struct {
	raw [sectorSizeBytes]byte

	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	FatCount          uint8
	RootEntryCount    uint16
	TotalSectors      uint32
	SectorsPerFat     uint16
	VolumeLabel       string

	FatType          FatType
	DataClusterCount uint32

	dirty bool
}

func isPowerOfTwo(v uint8) bool {
	return v != 0 && (v&(v-1)) == 0
}

// ReadBootSector reads and validates the boot sector at device offset 0.
func ReadBootSector(dev blockdev.Device) (*BootSector, error) {
	var buf [sectorSizeBytes]byte
	if err := dev.Read(0, buf[:]); err != nil {
		return nil, akaierr.Io.WrapError(err)
	}

	bs := &BootSector{raw: buf}

	if getU8(buf[:], bsSignatureOffset) != 0x55 || getU8(buf[:], bsSignatureOffset+1) != 0xAA {
		return nil, akaierr.BadSignature
	}

	var errs errorList

	bs.BytesPerSector = getU16(buf[:], bsBytesPerSectorOffset)
	switch bs.BytesPerSector {
	case 512, 1024, 2048, 4096:
	default:
		errs.addf("bytes_per_sector must be 512, 1024, 2048, or 4096, got %d", bs.BytesPerSector)
	}

	bs.SectorsPerCluster = getU8(buf[:], bsSectorsPerClusterOffset)
	if bs.SectorsPerCluster < 1 || !isPowerOfTwo(bs.SectorsPerCluster) {
		errs.addf("sectors_per_cluster must be a power of two >= 1, got %d", bs.SectorsPerCluster)
	}

	bs.ReservedSectors = getU16(buf[:], bsReservedSectorsOffset)
	if bs.ReservedSectors < 1 {
		errs.addf("reserved_sectors must be >= 1, got %d", bs.ReservedSectors)
	}

	bs.FatCount = getU8(buf[:], bsFatCountOffset)
	bs.RootEntryCount = getU16(buf[:], bsRootEntryCountOffset)

	total16 := getU16(buf[:], bsTotalSectors16Offset)
	total32 := getU32(buf[:], bsTotalSectors32Offset)
	if total16 != 0 {
		bs.TotalSectors = uint32(total16)
	} else {
		bs.TotalSectors = total32
	}

	fatSz16 := getU16(buf[:], bsSectorsPerFat16Offset)
	bs.SectorsPerFat = fatSz16

	if err := errs.err(); err != nil {
		return nil, akaierr.InvalidBootSector.WrapError(err)
	}

	rootDirSectors := (uint32(bs.RootEntryCount)*32 + uint32(bs.BytesPerSector) - 1) / uint32(bs.BytesPerSector)
	totalFatSectors := uint32(bs.FatCount) * uint32(bs.SectorsPerFat)
	dataSectors := bs.TotalSectors - (uint32(bs.ReservedSectors) + totalFatSectors + rootDirSectors)
	bs.DataClusterCount = dataSectors / uint32(bs.SectorsPerCluster)

	switch {
	case bs.DataClusterCount <= maxFat12Clusters:
		bs.FatType = FatType12
	case bs.DataClusterCount <= maxFat16Clusters:
		bs.FatType = FatType16
	default:
		return nil, akaierr.UnsupportedFatType
	}

	label := buf[bsVolumeLabelOffset : bsVolumeLabelOffset+bsVolumeLabelLength]
	bs.VolumeLabel = trimTrailingSpaces(string(label))

	return bs, nil
}

// BytesPerCluster is the size of one cluster: SectorsPerCluster sectors of
// BytesPerSector bytes each.
func (bs *BootSector) BytesPerCluster() uint32 {
	return uint32(bs.SectorsPerCluster) * uint32(bs.BytesPerSector)
}

// FatOffset returns the device offset of FAT copy i.
func (bs *BootSector) FatOffset(i int) int64 {
	reservedBytes := int64(bs.ReservedSectors) * int64(bs.BytesPerSector)
	fatBytes := int64(bs.SectorsPerFat) * int64(bs.BytesPerSector)
	return reservedBytes + int64(i)*fatBytes
}

// RootDirOffset returns the device offset of the fixed root directory.
func (bs *BootSector) RootDirOffset() int64 {
	fatBytes := int64(bs.SectorsPerFat) * int64(bs.BytesPerSector)
	return bs.FatOffset(0) + int64(bs.FatCount)*fatBytes
}

// FilesOffset returns the device offset at which cluster 2's data begins.
func (bs *BootSector) FilesOffset() int64 {
	return bs.RootDirOffset() + int64(bs.RootEntryCount)*DirentSize
}

// setVolumeLabelField rewrites the in-memory copy of the boot sector's volume
// label field and marks the sector dirty. It does not itself keep the root
// directory's label entry in sync; callers go through Filesystem for that.
func (bs *BootSector) setVolumeLabelField(label string) {
	var padded [bsVolumeLabelLength]byte
	for i := range padded {
		padded[i] = ' '
	}
	copy(padded[:], label)
	copy(bs.raw[bsVolumeLabelOffset:bsVolumeLabelOffset+bsVolumeLabelLength], padded[:])
	bs.dirty = true
}

// Write flushes the boot sector to the device if it's dirty; a no-op
// otherwise (spec §4.3).
func (bs *BootSector) Write(dev blockdev.Device) error {
	if !bs.dirty {
		return nil
	}
	if err := dev.Write(0, bs.raw[:]); err != nil {
		return akaierr.Io.WrapError(err)
	}
	bs.dirty = false
	return nil
}

func trimTrailingSpaces(s string) string {
	end := len(s)
	for end > 0 && s[end-1] == ' ' {
		end--
	}
	return s[:end]
}
