package types

import "strings"

// RecordType is the tag byte leading every emitted identifier
type RecordType byte

const (
	RecordTypeFile    RecordType = 0
	RecordTypeInode   RecordType = 1
	RecordTypeDiskMap RecordType = 2
)

// MetaType is the inode type reported by the walker
type MetaType uint8

const (
	MetaTypeUndefined MetaType = iota
	MetaTypeRegular
	MetaTypeDirectory
	MetaTypeFIFO
	MetaTypeCharDevice
	MetaTypeBlockDevice
	MetaTypeSymlink
	MetaTypeShadow
	MetaTypeSocket
	MetaTypeWhiteout
	MetaTypeVirtual
)

var metaTypeNames = []string{
	"Undefined",
	"File",
	"Folder",
	"Named Pipe",
	"Character Device",
	"Block Device",
	"Symbolic Link",
	"Shadow Inode",
	"Domain Socket",
	"Whiteout Inode",
	"Virtual",
}

func (t MetaType) String() string {
	if int(t) < len(metaTypeNames) {
		return metaTypeNames[t]
	}
	return metaTypeNames[0]
}

// MarshalText renders the type by name in records
func (t MetaType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// NameType is the directory entry type. Same names as MetaType, different order.
type NameType uint8

const (
	NameTypeUndefined NameType = iota
	NameTypeFIFO
	NameTypeCharDevice
	NameTypeDirectory
	NameTypeBlockDevice
	NameTypeRegular
	NameTypeSymlink
	NameTypeSocket
	NameTypeShadow
	NameTypeWhiteout
	NameTypeVirtual
)

var nameTypeNames = []string{
	"Undefined",
	"Named Pipe",
	"Character Device",
	"Folder",
	"Block Device",
	"File",
	"Symbolic Link",
	"Domain Socket",
	"Shadow Inode",
	"Whiteout Inode",
	"Virtual",
}

func (t NameType) String() string {
	if int(t) < len(nameTypeNames) {
		return nameTypeNames[t]
	}
	return nameTypeNames[0]
}

// MarshalText renders the type by name in records
func (t NameType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

type flagName struct {
	bit  uint32
	name string
}

func joinFlags(flags uint32, table []flagName) string {
	if flags == 0 {
		return ""
	}
	var parts []string
	for _, f := range table {
		if flags&f.bit != 0 {
			parts = append(parts, f.name)
		}
	}
	return strings.Join(parts, ", ")
}

// MetaFlags describe inode allocation state
type MetaFlags uint32

const (
	MetaFlagAlloc   MetaFlags = 0x01
	MetaFlagUnalloc MetaFlags = 0x02
	MetaFlagUsed    MetaFlags = 0x04
	MetaFlagUnused  MetaFlags = 0x08
	MetaFlagComp    MetaFlags = 0x10
	MetaFlagOrphan  MetaFlags = 0x20
)

var metaFlagNames = []flagName{
	{uint32(MetaFlagAlloc), "Allocated"},
	{uint32(MetaFlagUnalloc), "Deleted"},
	{uint32(MetaFlagUsed), "Used"},
	{uint32(MetaFlagUnused), "Unused"},
	{uint32(MetaFlagComp), "Compressed"},
	{uint32(MetaFlagOrphan), "Orphan"},
}

func (f MetaFlags) String() string { return joinFlags(uint32(f), metaFlagNames) }

// MarshalText renders the flags as a comma separated list
func (f MetaFlags) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// NameFlags describe directory entry allocation state
type NameFlags uint32

const (
	NameFlagAlloc   NameFlags = 0x01
	NameFlagUnalloc NameFlags = 0x02
)

var nameFlagNames = []flagName{
	{uint32(NameFlagAlloc), "Allocated"},
	{uint32(NameFlagUnalloc), "Deleted"},
}

func (f NameFlags) String() string { return joinFlags(uint32(f), nameFlagNames) }

// MarshalText renders the flags as a comma separated list
func (f NameFlags) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// AttrFlags describe an attribute's storage
type AttrFlags uint32

const (
	AttrFlagInUse    AttrFlags = 0x01
	AttrFlagNonRes   AttrFlags = 0x02
	AttrFlagRes      AttrFlags = 0x04
	AttrFlagEnc      AttrFlags = 0x10
	AttrFlagComp     AttrFlags = 0x20
	AttrFlagSparse   AttrFlags = 0x40
	AttrFlagRecovery AttrFlags = 0x80
)

var attrFlagNames = []flagName{
	{uint32(AttrFlagInUse), "In Use"},
	{uint32(AttrFlagNonRes), "Non-resident"},
	{uint32(AttrFlagRes), "Resident"},
	{uint32(AttrFlagEnc), "Encrypted"},
	{uint32(AttrFlagComp), "Compressed"},
	{uint32(AttrFlagSparse), "Sparse"},
	{uint32(AttrFlagRecovery), "Recovered"},
}

func (f AttrFlags) String() string { return joinFlags(uint32(f), attrFlagNames) }

// MarshalText renders the flags as a comma separated list
func (f AttrFlags) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// RunFlags mark data runs that occupy no disk space
type RunFlags uint32

const (
	RunFlagFiller RunFlags = 0x01
	RunFlagSparse RunFlags = 0x02
)

// HasNoBacking reports whether the run has no on-disk blocks
func (f RunFlags) HasNoBacking() bool {
	return f&(RunFlagFiller|RunFlagSparse) != 0
}
