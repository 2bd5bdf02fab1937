package types

// Filesystem describes the filesystem (or bare volume) entries belong to
type Filesystem struct {
	// Volume index assigned in walk order; keys the allocation map
	VolumeIndex int
	// Volume or partition description
	VolumeName string
	// Filesystem type name as reported by the walker
	TypeName string
	// Absolute image offset of block 0
	ByteOffset uint64
	BlockSize  uint64
	NumBlocks  uint64
	FirstBlock uint64
	LastBlock  uint64
	// Raw filesystem identifier (serial, UUID...)
	FsID []byte
	// Valid byte range for allocation marking
	Bounds ByteRange
	// Synthetic marks a volume without a recognised filesystem
	Synthetic bool
	// HasRuns is false when the walker cannot report data runs
	HasRuns bool
}

// BlockToByte converts a block address to an absolute image offset
func (fs *Filesystem) BlockToByte(block uint64) uint64 {
	return fs.ByteOffset + block*fs.BlockSize
}

// DefaultBounds returns the byte range covered by FirstBlock..LastBlock.
// The end saturates when LastBlock is the largest representable block.
func (fs *Filesystem) DefaultBounds() ByteRange {
	begin := fs.BlockToByte(fs.FirstBlock)
	if fs.LastBlock < fs.FirstBlock || fs.BlockSize == 0 {
		return ByteRange{Begin: begin, End: begin}
	}
	span := fs.LastBlock - fs.FirstBlock
	if span >= (^uint64(0)-begin)/fs.BlockSize {
		return ByteRange{Begin: begin, End: ^uint64(0)}
	}
	return ByteRange{Begin: begin, End: begin + (span+1)*fs.BlockSize}
}

// Entry is one directory entry handed to the visitor
type Entry struct {
	// Walker path of the containing directory: "" at the root, "dir/" below it
	Path  string
	Name  *Name
	Meta  *Meta
	Attrs []Attribute
	// Synthetic entries stand in for unallocated space
	Synthetic bool
}

// IsDirectory reports whether the entry names a directory
func (e *Entry) IsDirectory() bool {
	if e.Name != nil && e.Name.Type == NameTypeDirectory {
		return true
	}
	return e.Meta != nil && e.Meta.Type == MetaTypeDirectory
}

// DisplayName returns the entry name or "" when the walker had none
func (e *Entry) DisplayName() string {
	if e.Name == nil {
		return ""
	}
	return e.Name.Name
}

// Name is the directory entry record
type Name struct {
	Flags     NameFlags
	MetaAddr  uint64
	MetaSeq   uint32
	Name      string
	ShortName string
	Type      NameType
}

// Meta is the inode record
type Meta struct {
	Addr       uint64
	Flags      MetaFlags
	Type       MetaType
	Mode       uint32
	Nlink      uint32
	Seq        uint32
	UID        uint32
	GID        uint32
	Size       int64
	ContentLen uint64
	Atime      Timestamp
	Mtime      Timestamp
	Ctime      Timestamp
	Crtime     Timestamp
	// Deletion time, ext filesystems only
	Dtime *Timestamp
	// Backup time, HFS only
	BackupTime *Timestamp
	// Symlink target
	Link string
}

// Attribute is one data stream of an inode
type Attribute struct {
	ID    uint16
	Type  uint32
	Name  string
	Flags AttrFlags
	// Logical size in bytes
	Size int64
	// Resident data, when the attribute lives in the inode
	Resident  []byte
	AllocSize int64
	InitSize  int64
	CompSize  int64
	SkipLen   uint32
	Runs      []Run
}

// IsResident reports whether the attribute data lives in the inode
func (a *Attribute) IsResident() bool {
	return a.Flags&AttrFlagRes != 0
}

// IsNonResident reports whether the attribute data lives in runs
func (a *Attribute) IsNonResident() bool {
	return a.Flags&AttrFlagNonRes != 0
}

// Run is a contiguous on-disk block range of an attribute
type Run struct {
	// First block
	Addr uint64
	// Length in blocks
	Len uint64
	// Block offset of the run within the attribute stream
	Offset uint64
	Flags  RunFlags
}
