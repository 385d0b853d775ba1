package akaifat

import (
	"github.com/noxer/bytewriter"

	"github.com/samplerfs/akaifat/akaierr"
	"github.com/samplerfs/akaifat/blockdev"
)

// backingKind discriminates the two ways a Directory's entry table can be
// stored on disk (spec §9 design note: a tag match stands in for the
// original's AbstractDirectory/FixedRoot/ClusterChain class hierarchy).
type backingKind int

const (
	backingFixedRoot backingKind = iota
	backingClusterChain
)

// clusterChainDirectoryMaxSize is MAX_SIZE from spec §4.11: 65536 entries'
// worth of bytes is the largest a cluster-chain directory may grow to.
const clusterChainDirectoryMaxSize = 65536 * DirentSize

// Directory is the fixed-capacity ordered entry table shared by the root
// directory (§C10) and cluster-chain subdirectories (§C11). Which backing
// is in play is selected by kind; each arm carries only the state it needs.
type Directory struct {
	kind backingKind
	dev  blockdev.Device

	// backingFixedRoot
	fixedOffset   int64
	fixedCapacity int

	// backingClusterChain
	chain *ClusterChain

	entries  []*Dirent
	label    *string
	readOnly bool
	isRoot   bool
}

// NewFixedRootDirectory constructs the root directory (§C10): a fixed-size
// table at a fixed device offset, with no backing cluster chain.
func NewFixedRootDirectory(dev blockdev.Device, offset int64, entryCount int, readOnly bool) *Directory {
	return &Directory{
		kind:          backingFixedRoot,
		dev:           dev,
		fixedOffset:   offset,
		fixedCapacity: entryCount,
		readOnly:      readOnly,
		isRoot:        true,
	}
}

// NewClusterChainDirectory constructs a subdirectory backed by chain
// (§C11).
func NewClusterChainDirectory(dev blockdev.Device, chain *ClusterChain, readOnly bool) *Directory {
	return &Directory{
		kind:     backingClusterChain,
		dev:      dev,
		chain:    chain,
		readOnly: readOnly,
		isRoot:   false,
	}
}

// StorageCluster returns the directory's backing start cluster, or 0 for
// the fixed root (spec §4.10: "sentinel, not a cluster chain").
func (d *Directory) StorageCluster() ClusterID {
	if d.kind == backingFixedRoot {
		return 0
	}
	return d.chain.StartCluster()
}

// Capacity returns the current number of entry slots the backing storage
// has room for.
func (d *Directory) Capacity() (int, error) {
	if d.kind == backingFixedRoot {
		return d.fixedCapacity, nil
	}
	lengthOnDisk, err := d.chain.LengthOnDisk()
	if err != nil {
		return 0, err
	}
	return int(lengthOnDisk) / DirentSize, nil
}

func (d *Directory) liveCount() int {
	n := len(d.entries)
	if d.label != nil {
		n++
	}
	return n
}

// ChangeSize resizes the directory's backing storage to hold at least
// newCount entries (spec §4.9/§4.10/§4.11).
func (d *Directory) ChangeSize(newCount int) error {
	if d.kind == backingFixedRoot {
		if newCount > d.fixedCapacity {
			return akaierr.DirectoryFull
		}
		return nil
	}

	byteSize := newCount * DirentSize
	if byteSize > clusterChainDirectoryMaxSize {
		return akaierr.DirectoryTooLarge
	}
	if byteSize < int(d.chain.ClusterSize()) {
		byteSize = int(d.chain.ClusterSize())
	}
	_, err := d.chain.SetSize(int64(byteSize))
	return err
}

func (d *Directory) backingBytes() ([]byte, error) {
	if d.kind == backingFixedRoot {
		buf := make([]byte, d.fixedCapacity*DirentSize)
		if err := d.dev.Read(d.fixedOffset, buf); err != nil {
			return nil, akaierr.Io.WrapError(err)
		}
		return buf, nil
	}

	lengthOnDisk, err := d.chain.LengthOnDisk()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, lengthOnDisk)
	if lengthOnDisk > 0 {
		if err := d.chain.ReadData(0, buf); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// Read loads the directory's entry list (and, for the root, its volume
// label) from the backing storage (spec §4.9).
func (d *Directory) Read() error {
	buf, err := d.backingBytes()
	if err != nil {
		return err
	}

	d.entries = nil
	d.label = nil

	slots := len(buf) / DirentSize
	for i := 0; i < slots; i++ {
		slot := buf[i*DirentSize : (i+1)*DirentSize]
		first := slot[0]

		if first == 0x00 {
			// End of table.
			break
		}
		if first == deletedMarker {
			continue
		}

		entry, err := ParseDirent(slot)
		if err != nil {
			return err
		}

		if entry.IsLfnEntry() {
			continue
		}

		if entry.IsVolumeLabel() {
			if !d.isRoot {
				return akaierr.MalformedDirectory.WithMessage("volume label outside root directory")
			}
			label := trimTrailingSpaces(entry.Name.Stem)
			d.label = &label
			continue
		}

		d.entries = append(d.entries, entry)
	}

	return nil
}

// Flush serializes every live entry (in order), then the label entry if
// present, then one terminating null entry, pads the remainder with zeros,
// and writes the whole table back (spec §4.9).
func (d *Directory) Flush() error {
	if d.readOnly {
		return akaierr.ReadOnlyFilesystem
	}

	capacity, err := d.Capacity()
	if err != nil {
		return err
	}
	bufSize := capacity * DirentSize
	buf := make([]byte, bufSize)
	w := bytewriter.New(buf)

	slot := make([]byte, DirentSize)
	for _, entry := range d.entries {
		if err := entry.Serialize(slot); err != nil {
			return err
		}
		if _, err := w.Write(slot); err != nil {
			return akaierr.Io.WrapError(err)
		}
	}

	if d.label != nil {
		labelEntry := &Dirent{
			Name:  ShortName{Stem: padLabel(*d.label), Ext: ""},
			Flags: AttrVolumeID,
		}
		if err := labelEntry.Serialize(slot); err != nil {
			return err
		}
		if _, err := w.Write(slot); err != nil {
			return akaierr.Io.WrapError(err)
		}
	}

	// Terminator: a single zeroed entry (first byte 0x00). The rest of buf
	// is already zero from make([]byte, ...).

	if d.kind == backingFixedRoot {
		if err := d.dev.Write(d.fixedOffset, buf); err != nil {
			return akaierr.Io.WrapError(err)
		}
		return nil
	}
	return d.chain.WriteData(0, buf)
}

func padLabel(label string) string {
	if len(label) >= shortNameLength+shortExtLength {
		return label[:shortNameLength+shortExtLength]
	}
	return label
}

// Add appends entry to the directory, growing the backing storage first if
// it's already full (spec §4.9).
func (d *Directory) Add(entry *Dirent) error {
	if d.readOnly {
		return akaierr.ReadOnlyFilesystem
	}

	capacity, err := d.Capacity()
	if err != nil {
		return err
	}
	if d.liveCount() >= capacity {
		if err := d.ChangeSize(capacity + 1); err != nil {
			return err
		}
	}

	d.entries = append(d.entries, entry)
	return nil
}

// Remove drops entry from the live list. Capacity is never shrunk by this
// call (spec §4.9).
func (d *Directory) Remove(entry *Dirent) {
	for i, e := range d.entries {
		if e == entry {
			d.entries = append(d.entries[:i], d.entries[i+1:]...)
			return
		}
	}
}

// Entries returns the directory's live entries in on-disk order.
func (d *Directory) Entries() []*Dirent {
	return d.entries
}

// Label returns the root directory's volume label, if any.
func (d *Directory) Label() string {
	if d.label == nil {
		return ""
	}
	return *d.label
}

// SetLabel sets (or clears, with "") the root directory's volume label.
func (d *Directory) SetLabel(label string) error {
	if len(label) > shortNameLength+shortExtLength {
		return akaierr.InvalidLabel
	}
	if label == "" {
		d.label = nil
		return nil
	}
	d.label = &label
	return nil
}

// CreateSubdirectory allocates a one-cluster chain for a new subdirectory
// and pre-populates it with "." (pointing at the new directory's own start
// cluster) and ".." (pointing at parentStartCluster, or 0 for the root)
// (spec §4.11).
func CreateSubdirectory(dev blockdev.Device, fat *Fat, dataOffset int64, clusterSize uint32, parentStartCluster ClusterID, readOnly bool) (*Directory, error) {
	chain, err := NewClusterChain(fat, dev, dataOffset, clusterSize, 0, readOnly)
	if err != nil {
		return nil, err
	}
	if _, err := chain.SetSize(int64(clusterSize)); err != nil {
		return nil, err
	}

	dir := NewClusterChainDirectory(dev, chain, readOnly)
	dir.entries = []*Dirent{
		{
			Name:         ShortName{Stem: "."},
			Flags:        AttrDirectory,
			FirstCluster: chain.StartCluster(),
		},
		{
			Name:         ShortName{Stem: ".."},
			Flags:        AttrDirectory,
			FirstCluster: parentStartCluster,
		},
	}

	if err := dir.Flush(); err != nil {
		return nil, err
	}
	return dir, nil
}
