package akaifat

import (
	"github.com/samplerfs/akaifat/akaierr"
)

// File is a logical byte stream over one directory entry's cluster chain,
// keeping the entry's recorded Length in sync with writes (spec §4.13).
type File struct {
	entry    *Dirent
	chain    *ClusterChain
	readOnly bool
}

func newFile(entry *Dirent, chain *ClusterChain, readOnly bool) *File {
	return &File{entry: entry, chain: chain, readOnly: readOnly}
}

// Length returns the file's logical size in bytes, as recorded in its
// directory entry (not the size of its backing cluster chain, which is
// always a whole number of clusters).
func (f *File) Length() uint32 {
	return f.entry.Length
}

// SetLength changes the file's logical size, growing or shrinking the
// backing cluster chain as needed and updating the directory entry. Bytes
// newly exposed by growth are not zeroed by this call; a subsequent Flush
// still leaves any previously allocated, never-written bytes in whatever
// state the device had them (spec §4.13).
func (f *File) SetLength(n uint32) error {
	if f.readOnly {
		return akaierr.ReadOnlyFilesystem
	}

	if _, err := f.chain.SetSize(int64(n)); err != nil {
		return err
	}
	f.entry.SetFirstCluster(f.chain.StartCluster())
	f.entry.SetLength(n)
	return nil
}

// Read reads len(dst) bytes starting at offset. Reading past the file's
// recorded length fails with EndOfFile (spec §4.13, §7).
func (f *File) Read(offset int64, dst []byte) error {
	if offset < 0 {
		return akaierr.ValueOutOfRange
	}
	if offset+int64(len(dst)) > int64(f.entry.Length) {
		return akaierr.EndOfFile
	}
	return f.chain.ReadData(offset, dst)
}

// Write writes src starting at offset, growing the file (both the cluster
// chain and the recorded length) if the write extends past the current
// end. If the chain grows but a later I/O error aborts the write partway
// through, the chain can end up longer than the entry's reported Length;
// a later Flush still writes whatever Length was last successfully set,
// so the file never claims to be larger than what was actually written
// (spec §4.13).
func (f *File) Write(offset int64, src []byte) error {
	if f.readOnly {
		return akaierr.ReadOnlyFilesystem
	}
	if offset < 0 {
		return akaierr.ValueOutOfRange
	}
	if len(src) == 0 {
		return nil
	}

	end := offset + int64(len(src))
	if err := f.chain.WriteData(offset, src); err != nil {
		f.entry.SetFirstCluster(f.chain.StartCluster())
		return err
	}

	f.entry.SetFirstCluster(f.chain.StartCluster())
	if end > int64(f.entry.Length) {
		f.entry.SetLength(uint32(end))
	}
	return nil
}

// Flush is a no-op: a file's directory entry is only ever persisted to disk
// when its owning directory is flushed, and File has no other state of its
// own to write back.
func (f *File) Flush() error {
	return nil
}
