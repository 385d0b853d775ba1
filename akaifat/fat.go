package akaifat

import (
	"github.com/boljen/go-bitmap"

	"github.com/samplerfs/akaifat/akaierr"
	"github.com/samplerfs/akaifat/blockdev"
)

// ClusterID names a cluster in the data region. 0 and 1 are reserved
// meta-values; FirstCluster is the lowest real cluster number.
type ClusterID uint32

// FirstCluster is the lowest cluster number the allocator will ever hand
// out (spec §4.4).
const FirstCluster = ClusterID(2)

const (
	fat12ReservedMin = 0xFF0
	fat12EofMin      = 0xFF8
	fat12Mask        = 0x0FFF

	fat16ReservedMin = 0xFFF0
	fat16EofMin      = 0xFFF8
	fat16Mask        = 0xFFFF
)

// Fat owns the entry array for one FAT copy: allocation, freeing, and chain
// traversal all go through here (spec §4.4).
type Fat struct {
	fatType       FatType
	entries       []uint32
	lastCluster   ClusterID // one past the last valid data cluster
	lastAllocated ClusterID
	mediaByte     uint8

	// freeBitmap mirrors entries: bit i is set iff entries[i] == 0.
	// FreeClusterCount counts set bits over the data-cluster range, while
	// entries remains the source of truth for every other query (spec
	// §4.4 "next-fit" allocator + §9 design notes).
	freeBitmap bitmap.Bitmap
}

func (t FatType) reservedMin() uint32 {
	if t == FatType12 {
		return fat12ReservedMin
	}
	return fat16ReservedMin
}

func (t FatType) eofMin() uint32 {
	if t == FatType12 {
		return fat12EofMin
	}
	return fat16EofMin
}

func (t FatType) mask() uint32 {
	if t == FatType12 {
		return fat12Mask
	}
	return fat16Mask
}

func (t FatType) eofMarker() uint32 {
	return t.mask()
}

func (f *Fat) isFree(entry uint32) bool     { return entry == 0 }
func (f *Fat) isReserved(entry uint32) bool { return entry >= f.fatType.reservedMin() && entry < f.fatType.eofMin() }
func (f *Fat) isEof(entry uint32) bool      { return entry >= f.fatType.eofMin() }

// entryCount returns how many FAT entries fit in sectorsPerFat sectors of
// bytesPerSector each, given the entry packing of fatType.
func entryCount(fatType FatType, sectorsPerFat, bytesPerSector uint32) uint32 {
	totalBytes := sectorsPerFat * bytesPerSector
	if fatType == FatType12 {
		// Two entries packed into every three bytes.
		return (totalBytes * 2) / 3
	}
	return totalBytes / 2
}

// ReadFat reads FAT copy fatNr from dev using bs's geometry.
func ReadFat(dev blockdev.Device, bs *BootSector, fatNr int) (*Fat, error) {
	sectorBytes := uint32(bs.SectorsPerFat) * uint32(bs.BytesPerSector)
	data := make([]byte, sectorBytes)
	if err := dev.Read(bs.FatOffset(fatNr), data); err != nil {
		return nil, akaierr.Io.WrapError(err)
	}

	count := entryCount(bs.FatType, uint32(bs.SectorsPerFat), uint32(bs.BytesPerSector))
	lastCluster := bs.DataClusterCount + uint32(FirstCluster)
	if lastCluster > count {
		return nil, akaierr.InvalidBootSector.WithMessage("FAT too small for the number of data clusters")
	}

	f := &Fat{
		fatType:       bs.FatType,
		entries:       make([]uint32, count),
		lastCluster:   ClusterID(lastCluster),
		lastAllocated: FirstCluster,
		freeBitmap:    bitmap.New(int(count)),
	}

	for i := uint32(0); i < count; i++ {
		f.entries[i] = readRawEntry(data, bs.FatType, i)
	}
	f.mediaByte = uint8(f.entries[0] & 0xFF)
	f.rebuildFreeBitmap()

	return f, nil
}

// NewFat initializes an empty FAT of the given geometry, as done when
// formatting a fresh volume.
func NewFat(fatType FatType, sectorsPerFat, bytesPerSector uint32, dataClusterCount uint32, mediaByte uint8) *Fat {
	count := entryCount(fatType, sectorsPerFat, bytesPerSector)
	f := &Fat{
		fatType:       fatType,
		entries:       make([]uint32, count),
		lastCluster:   ClusterID(dataClusterCount + uint32(FirstCluster)),
		lastAllocated: FirstCluster,
		mediaByte:     mediaByte,
		freeBitmap:    bitmap.New(int(count)),
	}
	f.entries[0] = uint32(mediaByte) | (fatType.mask() &^ 0xFF)
	f.entries[1] = fatType.eofMarker()
	f.rebuildFreeBitmap()
	return f
}

func (f *Fat) rebuildFreeBitmap() {
	for i, v := range f.entries {
		f.freeBitmap.Set(i, v == 0)
	}
}

func readRawEntry(data []byte, fatType FatType, index uint32) uint32 {
	if fatType == FatType16 {
		return uint32(getU16(data, int(index)*2))
	}
	// FAT12: entry 2k at (3k, low nibble of 3k+1); entry 2k+1 at
	// (high nibble of 3k+1, 3k+2).
	base := int(index/2) * 3
	if index%2 == 0 {
		lo := uint32(data[base])
		hi := uint32(data[base+1] & 0x0F)
		return lo | (hi << 8)
	}
	lo := uint32(data[base+1] >> 4)
	hi := uint32(data[base+2])
	return lo | (hi << 4)
}

func writeRawEntry(data []byte, fatType FatType, index uint32, value uint32) {
	if fatType == FatType16 {
		setU16(data, int(index)*2, uint16(value))
		return
	}
	base := int(index/2) * 3
	if index%2 == 0 {
		data[base] = byte(value & 0xFF)
		data[base+1] = (data[base+1] & 0xF0) | byte((value>>8)&0x0F)
	} else {
		data[base+1] = (data[base+1] & 0x0F) | byte((value&0x0F)<<4)
		data[base+2] = byte((value >> 4) & 0xFF)
	}
}

// testCluster validates that cluster is addressable in this FAT.
func (f *Fat) testCluster(cluster ClusterID) error {
	if cluster < FirstCluster || cluster >= f.lastCluster {
		return akaierr.InvalidName.WithMessage("invalid cluster value")
	}
	return nil
}

// Get returns the raw FAT entry for cluster.
func (f *Fat) Get(cluster ClusterID) (uint32, error) {
	if err := f.testCluster(cluster); err != nil {
		return 0, err
	}
	return f.entries[cluster], nil
}

func (f *Fat) setEntry(cluster ClusterID, value uint32) {
	f.entries[cluster] = value
	f.freeBitmap.Set(int(cluster), value == 0)
}

// SetFree marks cluster free.
func (f *Fat) SetFree(cluster ClusterID) error {
	if err := f.testCluster(cluster); err != nil {
		return err
	}
	f.setEntry(cluster, 0)
	return nil
}

// SetEof marks cluster as the end of its chain.
func (f *Fat) SetEof(cluster ClusterID) error {
	if err := f.testCluster(cluster); err != nil {
		return err
	}
	f.setEntry(cluster, f.fatType.eofMarker())
	return nil
}

// Chain returns the ordered list of clusters making up the chain starting
// at start, following FAT entries until EOF. It fails with FatCycle if a
// cluster already visited reappears.
func (f *Fat) Chain(start ClusterID) ([]ClusterID, error) {
	if err := f.testCluster(start); err != nil {
		return nil, err
	}

	visited := make(map[ClusterID]bool, 8)
	chain := []ClusterID{start}
	visited[start] = true

	cur := start
	for {
		entry, err := f.Get(cur)
		if err != nil {
			return nil, err
		}
		if f.isEof(entry) {
			break
		}
		next := ClusterID(entry)
		if visited[next] {
			return nil, akaierr.FatCycle
		}
		visited[next] = true
		chain = append(chain, next)
		cur = next
	}
	return chain, nil
}

// AllocNew allocates a single free cluster using next-fit search starting
// from lastAllocated, marks it EOF, and returns it (spec §4.4).
func (f *Fat) AllocNew() (ClusterID, error) {
	found := ClusterID(0)
	ok := false

	for i := f.lastAllocated; i < f.lastCluster; i++ {
		if f.isFree(f.entries[i]) {
			found, ok = i, true
			break
		}
	}
	if !ok {
		for i := FirstCluster; i < f.lastAllocated; i++ {
			if f.isFree(f.entries[i]) {
				found, ok = i, true
				break
			}
		}
	}
	if !ok {
		return 0, akaierr.FatFull
	}

	f.setEntry(found, f.fatType.eofMarker())
	f.lastAllocated = found
	return found, nil
}

// AllocAppend finds the tail of the chain starting at startCluster and
// allocates a new cluster onto the end of it.
func (f *Fat) AllocAppend(startCluster ClusterID) (ClusterID, error) {
	if err := f.testCluster(startCluster); err != nil {
		return 0, err
	}

	tail := startCluster
	for {
		entry, err := f.Get(tail)
		if err != nil {
			return 0, err
		}
		if f.isEof(entry) {
			break
		}
		tail = ClusterID(entry)
	}

	next, err := f.AllocNew()
	if err != nil {
		return 0, err
	}
	f.setEntry(tail, uint32(next))
	return next, nil
}

// AllocNewChain allocates n clusters and links them into a fresh chain,
// returning the cluster list. On failure partway through, it frees any
// clusters it had already claimed (spec §4.4).
func (f *Fat) AllocNewChain(n int) ([]ClusterID, error) {
	if n <= 0 {
		return nil, nil
	}

	result := make([]ClusterID, 0, n)
	first, err := f.AllocNew()
	if err != nil {
		return nil, err
	}
	result = append(result, first)

	for i := 1; i < n; i++ {
		next, err := f.AllocAppend(result[i-1])
		if err != nil {
			for _, c := range result {
				f.setEntry(c, 0)
			}
			return nil, err
		}
		result = append(result, next)
	}
	return result, nil
}

// FreeClusterCount returns the number of FAT entries equal to 0 in
// [FirstCluster, lastCluster).
func (f *Fat) FreeClusterCount() uint32 {
	count := 0
	for i := int(FirstCluster); i < int(f.lastCluster); i++ {
		if f.freeBitmap.Get(i) {
			count++
		}
	}
	return uint32(count)
}

// Equal reports whether f and other have identical entry arrays, media
// descriptor, and geometry (spec §4.4, used to cross-check redundant FAT
// copies at mount).
func (f *Fat) Equal(other *Fat) bool {
	if f.fatType != other.fatType {
		return false
	}
	if f.lastCluster != other.lastCluster {
		return false
	}
	if len(f.entries) != len(other.entries) {
		return false
	}
	for i := range f.entries {
		if f.entries[i] != other.entries[i] {
			return false
		}
	}
	return f.mediaByte == other.mediaByte
}

// WriteCopy serializes the FAT's entries and writes them to dev at offset.
func (f *Fat) WriteCopy(dev blockdev.Device, offset int64, sectorsPerFat, bytesPerSector uint32) error {
	data := make([]byte, sectorsPerFat*bytesPerSector)
	for i, v := range f.entries {
		writeRawEntry(data, f.fatType, uint32(i), v)
	}
	if err := dev.Write(offset, data); err != nil {
		return akaierr.Io.WrapError(err)
	}
	return nil
}
