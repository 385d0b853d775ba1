package akaifat

// DirentSize is the size of a single directory entry record, in bytes.
const DirentSize = 32

// Entry attribute flag bits (spec §4.8).
const (
	AttrReadOnly  = 0x01
	AttrHidden    = 0x02
	AttrSystem    = 0x04
	AttrVolumeID  = 0x08
	AttrDirectory = 0x10
	AttrArchive   = 0x20

	// attrLfnShape is the bit combination the FAT LFN scheme uses to mark a
	// structural "long name" entry. This variant never writes such entries
	// but must recognize and skip them on read (spec §4.8, §1 Non-goals).
	attrLfnShape = AttrReadOnly | AttrHidden | AttrSystem | AttrVolumeID
)

const (
	direntAkaiPartOffset  = 12
	direntReservedOffset  = 20
	direntReservedLength  = 6
	direntFirstClusOffset = 26
	direntLengthOffset    = 28
)

// Dirent is the decoded form of one 32-byte directory entry.
type Dirent struct {
	Name         ShortName
	Flags        uint8
	AkaiPart     string
	FirstCluster ClusterID
	Length       uint32

	dirty bool
}

// IsFile reports whether the entry denotes an ordinary file.
func (e *Dirent) IsFile() bool {
	return e.Flags&(AttrDirectory|AttrVolumeID) == 0
}

// IsDirectory reports whether the entry denotes a subdirectory.
func (e *Dirent) IsDirectory() bool {
	return e.Flags&AttrDirectory != 0 && e.Flags&AttrVolumeID == 0
}

// IsVolumeLabel reports whether the entry is the root directory's volume
// label, as opposed to an LFN structural entry that happens to also set
// VOLUME_ID.
func (e *Dirent) IsVolumeLabel() bool {
	return e.Flags&AttrVolumeID != 0 && e.Flags&AttrDirectory == 0 && !e.IsLfnEntry()
}

// IsLfnEntry reports whether the entry is a long-filename structural entry
// in the generic FAT sense. This variant skips such entries on read and
// never produces them on write (spec §1 Non-goals, §4.8).
func (e *Dirent) IsLfnEntry() bool {
	return e.Flags&attrLfnShape == attrLfnShape
}

// AkaiName is the logical 16.3 case-preserved filename: the trimmed 8.3
// stem, the trimmed Akai part, and (if the short extension is non-empty)
// "." plus the extension (spec §3, §4.7).
func (e *Dirent) AkaiName() string {
	name := e.Name.Stem + trimTrailingSpaces(e.AkaiPart)
	if e.Name.Ext != "" {
		name += "." + e.Name.Ext
	}
	return name
}

// SetLength updates the entry's recorded file length and marks it dirty.
func (e *Dirent) SetLength(n uint32) {
	if e.Length != n {
		e.Length = n
		e.dirty = true
	}
}

// SetFirstCluster updates the entry's start cluster and marks it dirty.
func (e *Dirent) SetFirstCluster(c ClusterID) {
	if e.FirstCluster != c {
		e.FirstCluster = c
		e.dirty = true
	}
}

// ParseDirent decodes a 32-byte slice into a Dirent. Callers are expected to
// have already distinguished the free (0x00) and deleted (0xE5) sentinel
// cases by inspecting data[0] directly.
func ParseDirent(data []byte) (*Dirent, error) {
	name, err := ParseShortName(data)
	if err != nil {
		return nil, err
	}

	return &Dirent{
		Name:         name,
		Flags:        getU8(data, 11),
		AkaiPart:     ParseAkaiPart(data[direntAkaiPartOffset:]),
		FirstCluster: ClusterID(getU16(data, direntFirstClusOffset)),
		Length:       getU32(data, direntLengthOffset),
	}, nil
}

// Serialize writes the 32-byte on-disk form of e into data[:32] and clears
// the entry's dirty flag. The reserved word at offset 20 (FAT32's high word
// of the start cluster) is always written as zero, even when the slot is
// being reused after a delete (spec §9 open question).
func (e *Dirent) Serialize(data []byte) error {
	for i := range data[:DirentSize] {
		data[i] = 0
	}

	if err := e.Name.Serialize(data); err != nil {
		return err
	}
	setU8(data, 11, e.Flags)
	if err := SerializeAkaiPart(e.AkaiPart, data[direntAkaiPartOffset:]); err != nil {
		return err
	}
	for i := 0; i < direntReservedLength; i++ {
		setU8(data, direntReservedOffset+i, 0)
	}
	setU16(data, direntFirstClusOffset, uint16(e.FirstCluster))
	if err := setU32(data, direntLengthOffset, uint64(e.Length)); err != nil {
		return err
	}

	e.dirty = false
	return nil
}
