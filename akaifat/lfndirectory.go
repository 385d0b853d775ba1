package akaifat

import (
	"strings"

	"github.com/samplerfs/akaifat/akaierr"
	"github.com/samplerfs/akaifat/blockdev"
)

// LfnDirectory is a case-insensitive name index laid over a Directory,
// producing the Akai 16.3 logical names clients actually see (spec §4.12).
// "LFN" here names the on-disk bytes this variant repurposes for the Akai
// part, not the generic FAT long-filename scheme, which this driver only
// ever skips on read (spec §1 Non-goals).
type LfnDirectory struct {
	dir *Directory
	dev blockdev.Device
	fat *Fat

	dataOffset  int64
	clusterSize uint32
	readOnly    bool

	// nameIndex is insertion ordered so the on-disk order after Flush
	// matches observable iteration order (spec §9 design note).
	nameOrder []string
	nameIndex map[string]*Dirent

	entryToFile  map[*Dirent]*File
	entryToSub   map[*Dirent]*LfnDirectory
}

// OpenLfnDirectory reads dir's entries and builds the case-insensitive name
// index over them (spec §4.12 "Parse (on open)").
func OpenLfnDirectory(dir *Directory, dev blockdev.Device, fat *Fat, dataOffset int64, clusterSize uint32, readOnly bool) (*LfnDirectory, error) {
	if err := dir.Read(); err != nil {
		return nil, err
	}

	v := &LfnDirectory{
		dir:         dir,
		dev:         dev,
		fat:         fat,
		dataOffset:  dataOffset,
		clusterSize: clusterSize,
		readOnly:    readOnly,
		nameIndex:   make(map[string]*Dirent),
		entryToFile: make(map[*Dirent]*File),
		entryToSub:  make(map[*Dirent]*LfnDirectory),
	}

	for _, entry := range dir.Entries() {
		name := entry.AkaiName()
		key := strings.ToLower(name)
		if _, exists := v.nameIndex[key]; exists {
			// A name already in the index (compared case-insensitively)
			// stops the parse early rather than failing the open; this
			// entry and the ones after it are not indexed (spec §4.12).
			break
		}
		v.nameIndex[key] = entry
		v.nameOrder = append(v.nameOrder, key)
	}

	return v, nil
}

// Label returns the volume label (root directories only).
func (v *LfnDirectory) Label() string { return v.dir.Label() }

// SetLabel sets the volume label (root directories only).
func (v *LfnDirectory) SetLabel(label string) error { return v.dir.SetLabel(label) }

func normalizeName(name string) string {
	return strings.TrimSpace(name)
}

// GetEntry performs a case-insensitive lookup by trimmed name (spec §4.12).
func (v *LfnDirectory) GetEntry(name string) (*Dirent, bool) {
	entry, ok := v.nameIndex[strings.ToLower(normalizeName(name))]
	return entry, ok
}

func (v *LfnDirectory) checkUniqueName(name string) error {
	if _, exists := v.GetEntry(name); exists {
		return akaierr.NameInUse
	}
	return nil
}

func (v *LfnDirectory) install(entry *Dirent) {
	key := strings.ToLower(entry.AkaiName())
	v.nameIndex[key] = entry
	v.nameOrder = append(v.nameOrder, key)
}

func (v *LfnDirectory) uninstall(key string) {
	delete(v.nameIndex, key)
	for i, k := range v.nameOrder {
		if k == key {
			v.nameOrder = append(v.nameOrder[:i], v.nameOrder[i+1:]...)
			break
		}
	}
}

// buildEntryName splits name into a short-name stem, an Akai part, and an
// extension so it round-trips to the 16.3 logical form (spec §4.7): the
// first up to 8 characters before the dot become the short-name stem, any
// remainder up to 8 more characters becomes the Akai part, and the text
// after the last dot (up to 3 characters) becomes the short extension.
func buildEntryName(name string) (ShortName, string, error) {
	stemAndExt, ext := splitStemAndExt(name)
	if len(ext) > shortExtLength {
		return ShortName{}, "", akaierr.NameTooLong
	}

	stem := stemAndExt
	akaiPart := ""
	if len(stem) > shortNameLength {
		akaiPart = stem[shortNameLength:]
		stem = stem[:shortNameLength]
	}
	if len(akaiPart) > akaiPartLength {
		return ShortName{}, "", akaierr.NameTooLong
	}

	if !CanEncodeShortName(stem, ext) {
		return ShortName{}, "", akaierr.InvalidName
	}
	if !IsValidAkaiPart(akaiPart) {
		return ShortName{}, "", akaierr.InvalidName
	}

	return ShortName{Stem: stem, Ext: ext}, akaiPart, nil
}

// AddFile creates a new, empty file named name in this directory (spec
// §4.12).
func (v *LfnDirectory) AddFile(name string) (*Dirent, error) {
	if v.readOnly {
		return nil, akaierr.ReadOnlyFilesystem
	}

	name = normalizeName(name)
	if err := v.checkUniqueName(name); err != nil {
		return nil, err
	}

	shortName, akaiPart, err := buildEntryName(name)
	if err != nil {
		return nil, err
	}

	entry := &Dirent{
		Name:     shortName,
		AkaiPart: akaiPart,
		Flags:    0,
	}

	if err := v.dir.Add(entry); err != nil {
		return nil, err
	}
	v.install(entry)

	if err := v.flushBacking(); err != nil {
		return nil, err
	}
	return entry, nil
}

// AddDirectory creates a new, empty subdirectory named name in this
// directory (spec §4.12).
func (v *LfnDirectory) AddDirectory(name string) (*Dirent, error) {
	if v.readOnly {
		return nil, akaierr.ReadOnlyFilesystem
	}

	name = normalizeName(name)
	if err := v.checkUniqueName(name); err != nil {
		return nil, err
	}

	shortName, akaiPart, err := buildEntryName(name)
	if err != nil {
		return nil, err
	}

	sub, err := CreateSubdirectory(v.dev, v.fat, v.dataOffset, v.clusterSize, v.dir.StorageCluster(), v.readOnly)
	if err != nil {
		return nil, err
	}

	entry := &Dirent{
		Name:         shortName,
		AkaiPart:     akaiPart,
		Flags:        AttrDirectory,
		FirstCluster: sub.StorageCluster(),
	}

	if err := v.dir.Add(entry); err != nil {
		return nil, err
	}
	v.install(entry)

	subView := &LfnDirectory{
		dir:         sub,
		dev:         v.dev,
		fat:         v.fat,
		dataOffset:  v.dataOffset,
		clusterSize: v.clusterSize,
		readOnly:    v.readOnly,
		nameIndex:   make(map[string]*Dirent),
		entryToFile: make(map[*Dirent]*File),
		entryToSub:  make(map[*Dirent]*LfnDirectory),
	}
	for _, e := range sub.Entries() {
		subView.install(e)
	}
	v.entryToSub[entry] = subView

	if err := v.flushBacking(); err != nil {
		return nil, err
	}
	return entry, nil
}

// GetFile materializes (or returns the cached) File object for entry.
func (v *LfnDirectory) GetFile(entry *Dirent) (*File, error) {
	if f, ok := v.entryToFile[entry]; ok {
		return f, nil
	}
	if !entry.IsFile() {
		return nil, akaierr.InvalidName.WithMessage("entry is not a file")
	}

	chain, err := NewClusterChain(v.fat, v.dev, v.dataOffset, v.clusterSize, entry.FirstCluster, v.readOnly)
	if err != nil {
		return nil, err
	}
	f := newFile(entry, chain, v.readOnly)
	v.entryToFile[entry] = f
	return f, nil
}

// GetDirectory materializes (or returns the cached) LfnDirectory view for
// the subdirectory entry.
func (v *LfnDirectory) GetDirectory(entry *Dirent) (*LfnDirectory, error) {
	if sub, ok := v.entryToSub[entry]; ok {
		return sub, nil
	}
	if !entry.IsDirectory() {
		return nil, akaierr.InvalidName.WithMessage("entry is not a directory")
	}

	chain, err := NewClusterChain(v.fat, v.dev, v.dataOffset, v.clusterSize, entry.FirstCluster, v.readOnly)
	if err != nil {
		return nil, err
	}
	subDir := NewClusterChainDirectory(v.dev, chain, v.readOnly)
	sub, err := OpenLfnDirectory(subDir, v.dev, v.fat, v.dataOffset, v.clusterSize, v.readOnly)
	if err != nil {
		return nil, err
	}
	v.entryToSub[entry] = sub
	return sub, nil
}

// Remove unlinks name from this directory and frees its cluster chain.
// Removing an already-absent name succeeds without effect (spec §4.12);
// the reserved "." and ".." entries are refused with InvalidName.
func (v *LfnDirectory) Remove(name string) error {
	if v.readOnly {
		return akaierr.ReadOnlyFilesystem
	}

	entry, ok := v.GetEntry(name)
	if !ok {
		return nil
	}
	if entry.Name.IsDotOrDotDot() {
		return akaierr.InvalidName
	}

	if entry.IsFile() || entry.IsDirectory() {
		chain, err := NewClusterChain(v.fat, v.dev, v.dataOffset, v.clusterSize, entry.FirstCluster, v.readOnly)
		if err != nil {
			return err
		}
		if err := chain.SetChainLength(0); err != nil {
			return err
		}
	}

	key := strings.ToLower(entry.AkaiName())
	v.uninstall(key)
	delete(v.entryToFile, entry)
	delete(v.entryToSub, entry)
	v.dir.Remove(entry)

	return v.flushBacking()
}

// SetName renames the entry currently known as oldName to newName within
// this directory, failing with NameInUse before any mutation if newName is
// already taken (spec §4.12).
func (v *LfnDirectory) SetName(oldName, newName string) error {
	if v.readOnly {
		return akaierr.ReadOnlyFilesystem
	}

	entry, ok := v.GetEntry(oldName)
	if !ok {
		return akaierr.ObjectInvalid
	}
	if entry.Name.IsDotOrDotDot() {
		return akaierr.InvalidName
	}

	newName = normalizeName(newName)
	if err := v.checkUniqueName(newName); err != nil {
		return err
	}

	shortName, akaiPart, err := buildEntryName(newName)
	if err != nil {
		return err
	}

	oldKey := strings.ToLower(entry.AkaiName())
	v.uninstall(oldKey)

	entry.Name = shortName
	entry.AkaiPart = akaiPart
	entry.dirty = true

	v.install(entry)
	return v.flushBacking()
}

// MoveTo moves the entry named name out of this directory and into
// target under newName, preserving its contents. Fails with NameInUse
// before any mutation if newName already exists in target (spec §4.12).
func (v *LfnDirectory) MoveTo(name string, target *LfnDirectory, newName string) error {
	if v.readOnly || target.readOnly {
		return akaierr.ReadOnlyFilesystem
	}

	entry, ok := v.GetEntry(name)
	if !ok {
		return akaierr.ObjectInvalid
	}
	if entry.Name.IsDotOrDotDot() {
		return akaierr.InvalidName
	}

	newName = normalizeName(newName)
	if err := target.checkUniqueName(newName); err != nil {
		return err
	}

	shortName, akaiPart, err := buildEntryName(newName)
	if err != nil {
		return err
	}

	oldKey := strings.ToLower(entry.AkaiName())
	v.uninstall(oldKey)
	v.dir.Remove(entry)
	delete(v.entryToFile, entry)
	delete(v.entryToSub, entry)

	entry.Name = shortName
	entry.AkaiPart = akaiPart
	entry.dirty = true

	if err := target.dir.Add(entry); err != nil {
		return err
	}
	target.install(entry)

	if err := v.flushBacking(); err != nil {
		return err
	}
	return target.flushBacking()
}

// flushBacking rewrites the backing directory (Directory.Flush) to match
// the name index's order (update_lfn, spec §4.12).
func (v *LfnDirectory) flushBacking() error {
	ordered := make([]*Dirent, 0, len(v.nameOrder))
	for _, key := range v.nameOrder {
		ordered = append(ordered, v.nameIndex[key])
	}
	v.dir.entries = ordered
	return v.dir.Flush()
}

// Flush flushes every cached file, recursively flushes every cached
// subdirectory, then rewrites the backing directory (spec §4.12).
func (v *LfnDirectory) Flush() error {
	for _, f := range v.entryToFile {
		if err := f.Flush(); err != nil {
			return err
		}
	}
	for _, sub := range v.entryToSub {
		if err := sub.Flush(); err != nil {
			return err
		}
	}
	return v.flushBacking()
}

// Iter returns the directory's live entries in name-index (insertion)
// order.
func (v *LfnDirectory) Iter() []*Dirent {
	ordered := make([]*Dirent, 0, len(v.nameOrder))
	for _, key := range v.nameOrder {
		ordered = append(ordered, v.nameIndex[key])
	}
	return ordered
}
