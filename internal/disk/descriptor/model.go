// Package descriptor reads image descriptions: a YAML (or JSON) document
// listing the volumes, filesystems and directory trees of a disk image
// together with the inode, name and data-run records a forensic walker
// would report for them.
package descriptor

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/deploymenttheory/go-fsrip/internal/types"
)

// Image is the root of a description
type Image struct {
	Description  string        `yaml:"description"`
	Size         uint64        `yaml:"size"`
	SectorSize   uint64        `yaml:"sectorSize"`
	VolumeSystem *VolumeSystem `yaml:"volumeSystem"`
	Filesystem   *Filesystem   `yaml:"filesystem"`
}

// VolumeSystem is a partition table
type VolumeSystem struct {
	Type        string   `yaml:"type"`
	Description string   `yaml:"description"`
	BlockSize   uint64   `yaml:"blockSize"`
	Offset      uint64   `yaml:"offset"`
	Volumes     []Volume `yaml:"volumes"`
}

// Volume is one partition
type Volume struct {
	Description string      `yaml:"description"`
	Flags       string      `yaml:"flags"`
	StartBlock  uint64      `yaml:"startBlock"`
	NumBlocks   uint64      `yaml:"numBlocks"`
	SlotNum     int         `yaml:"slotNum"`
	TableNum    int         `yaml:"tableNum"`
	Filesystem  *Filesystem `yaml:"filesystem"`
}

// IsMeta reports whether the volume holds the partition table itself
func (v *Volume) IsMeta() bool {
	return strings.Contains(strings.ToLower(v.Flags), "meta")
}

// Filesystem is one filesystem and its directory tree
type Filesystem struct {
	Type       string  `yaml:"type"`
	ByteOffset *uint64 `yaml:"byteOffset"`
	BlockSize  uint64  `yaml:"blockSize"`
	NumBlocks  uint64  `yaml:"numBlocks"`
	FirstBlock uint64  `yaml:"firstBlock"`
	LastBlock  *uint64 `yaml:"lastBlock"`
	FsID       string  `yaml:"fsID"`
	RootInum   uint64  `yaml:"rootInum"`
	FirstInum  uint64  `yaml:"firstInum"`
	LastInum   uint64  `yaml:"lastInum"`
	NumInums   uint64  `yaml:"numInums"`
	// Runs false marks a walker that could not report data runs
	Runs    *bool  `yaml:"runs"`
	Entries []Node `yaml:"entries"`
}

// lastBlock defaults to NumBlocks-1
func (f *Filesystem) lastBlock() uint64 {
	if f.LastBlock != nil {
		return *f.LastBlock
	}
	if f.NumBlocks == 0 {
		return f.FirstBlock
	}
	return f.FirstBlock + f.NumBlocks - 1
}

func (f *Filesystem) fsID() ([]byte, error) {
	if f.FsID == "" {
		return nil, nil
	}
	id, err := hex.DecodeString(strings.ReplaceAll(f.FsID, "-", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid fsID %q: %w", f.FsID, err)
	}
	return id, nil
}

// Node is a directory entry and, for directories, its children
type Node struct {
	Name      string `yaml:"name"`
	ShortName string `yaml:"shortName"`
	// Type is one of file, dir, link, fifo, chr, blk, sock, shadow, whiteout, virtual
	Type    string `yaml:"type"`
	Inode   uint64 `yaml:"inode"`
	Seq     uint32 `yaml:"seq"`
	Deleted bool   `yaml:"deleted"`
	Orphan  bool   `yaml:"orphan"`
	// PathOnly entries carry no inode record
	PathOnly   bool       `yaml:"pathOnly"`
	Size       int64      `yaml:"size"`
	Mode       uint32     `yaml:"mode"`
	UID        uint32     `yaml:"uid"`
	GID        uint32     `yaml:"gid"`
	Nlink      uint32     `yaml:"nlink"`
	Atime      string     `yaml:"atime"`
	Mtime      string     `yaml:"mtime"`
	Ctime      string     `yaml:"ctime"`
	Crtime     string     `yaml:"crtime"`
	Dtime      string     `yaml:"dtime"`
	BackupTime string     `yaml:"bkupTime"`
	Link       string     `yaml:"link"`
	Attrs      []AttrNode `yaml:"attrs"`
	Children   []Node     `yaml:"children"`
}

// AttrNode is one attribute of an entry
type AttrNode struct {
	ID   uint16 `yaml:"id"`
	Type uint32 `yaml:"type"`
	Name string `yaml:"name"`
	// Size defaults to the entry size
	Size *int64 `yaml:"size"`
	// Resident holds hex data stored in the inode
	Resident   string    `yaml:"resident"`
	AllocSize  int64     `yaml:"allocSize"`
	InitSize   int64     `yaml:"initSize"`
	CompSize   int64     `yaml:"compSize"`
	SkipLen    uint32    `yaml:"skipLen"`
	Compressed bool      `yaml:"compressed"`
	Encrypted  bool      `yaml:"encrypted"`
	Sparse     bool      `yaml:"sparse"`
	Runs       []RunNode `yaml:"runs"`
}

// RunNode is one data run, in blocks
type RunNode struct {
	Addr uint64 `yaml:"addr"`
	Len  uint64 `yaml:"len"`
	// Offset defaults to the sum of the lengths of the preceding runs
	Offset *uint64 `yaml:"offset"`
	Sparse bool    `yaml:"sparse"`
	Filler bool    `yaml:"filler"`
}

var nodeTypes = map[string]struct {
	meta types.MetaType
	name types.NameType
}{
	"file":     {types.MetaTypeRegular, types.NameTypeRegular},
	"dir":      {types.MetaTypeDirectory, types.NameTypeDirectory},
	"link":     {types.MetaTypeSymlink, types.NameTypeSymlink},
	"fifo":     {types.MetaTypeFIFO, types.NameTypeFIFO},
	"chr":      {types.MetaTypeCharDevice, types.NameTypeCharDevice},
	"blk":      {types.MetaTypeBlockDevice, types.NameTypeBlockDevice},
	"sock":     {types.MetaTypeSocket, types.NameTypeSocket},
	"shadow":   {types.MetaTypeShadow, types.NameTypeShadow},
	"whiteout": {types.MetaTypeWhiteout, types.NameTypeWhiteout},
	"virtual":  {types.MetaTypeVirtual, types.NameTypeVirtual},
}

// isDir reports whether the node is a directory; nodes with children are
// directories even without an explicit type
func (n *Node) isDir() bool {
	t := strings.ToLower(n.Type)
	return t == "dir" || (t == "" && len(n.Children) > 0)
}

// toEntry converts the node into a walker entry below path
func (n *Node) toEntry(path string) (*types.Entry, error) {
	kind := strings.ToLower(n.Type)
	switch {
	case kind == "" && n.isDir():
		kind = "dir"
	case kind == "":
		kind = "file"
	}
	t, ok := nodeTypes[kind]
	if !ok {
		return nil, fmt.Errorf("entry %q: unknown type %q", path+n.Name, n.Type)
	}
	if len(n.Children) > 0 && kind != "dir" {
		return nil, fmt.Errorf("entry %q: only directories can have children", path+n.Name)
	}

	nameFlags := types.NameFlagAlloc
	metaFlags := types.MetaFlagAlloc | types.MetaFlagUsed
	if n.Deleted {
		nameFlags = types.NameFlagUnalloc
		metaFlags = types.MetaFlagUnalloc | types.MetaFlagUsed
	}
	if n.Orphan {
		metaFlags |= types.MetaFlagOrphan
	}

	entry := &types.Entry{
		Path: path,
		Name: &types.Name{
			Flags:     nameFlags,
			MetaAddr:  n.Inode,
			MetaSeq:   n.Seq,
			Name:      n.Name,
			ShortName: n.ShortName,
			Type:      t.name,
		},
	}
	if n.PathOnly {
		return entry, nil
	}

	meta := &types.Meta{
		Addr:       n.Inode,
		Flags:      metaFlags,
		Type:       t.meta,
		Mode:       n.Mode,
		Nlink:      n.Nlink,
		Seq:        n.Seq,
		UID:        n.UID,
		GID:        n.GID,
		Size:       n.Size,
		ContentLen: uint64(max(n.Size, 0)),
		Link:       n.Link,
	}
	var err error
	for _, ts := range []struct {
		field string
		in    string
		out   *types.Timestamp
	}{
		{"atime", n.Atime, &meta.Atime},
		{"mtime", n.Mtime, &meta.Mtime},
		{"ctime", n.Ctime, &meta.Ctime},
		{"crtime", n.Crtime, &meta.Crtime},
	} {
		if *ts.out, err = parseTimestamp(ts.in); err != nil {
			return nil, fmt.Errorf("entry %q %s: %w", path+n.Name, ts.field, err)
		}
	}
	if meta.Dtime, err = parseOptionalTimestamp(n.Dtime); err != nil {
		return nil, fmt.Errorf("entry %q dtime: %w", path+n.Name, err)
	}
	if meta.BackupTime, err = parseOptionalTimestamp(n.BackupTime); err != nil {
		return nil, fmt.Errorf("entry %q bkupTime: %w", path+n.Name, err)
	}
	entry.Meta = meta

	for i := range n.Attrs {
		attr, err := n.Attrs[i].toAttribute(n.Size)
		if err != nil {
			return nil, fmt.Errorf("entry %q attribute %d: %w", path+n.Name, i, err)
		}
		entry.Attrs = append(entry.Attrs, attr)
	}
	return entry, nil
}

func (a *AttrNode) toAttribute(entrySize int64) (types.Attribute, error) {
	attr := types.Attribute{
		ID:        a.ID,
		Type:      a.Type,
		Name:      a.Name,
		Size:      entrySize,
		AllocSize: a.AllocSize,
		InitSize:  a.InitSize,
		CompSize:  a.CompSize,
		SkipLen:   a.SkipLen,
		Flags:     types.AttrFlagInUse,
	}
	if a.Size != nil {
		attr.Size = *a.Size
	}
	if a.Compressed {
		attr.Flags |= types.AttrFlagComp
	}
	if a.Encrypted {
		attr.Flags |= types.AttrFlagEnc
	}
	if a.Sparse {
		attr.Flags |= types.AttrFlagSparse
	}

	if a.Resident != "" {
		if len(a.Runs) > 0 {
			return attr, fmt.Errorf("attribute cannot be both resident and non-resident")
		}
		data, err := hex.DecodeString(a.Resident)
		if err != nil {
			return attr, fmt.Errorf("invalid resident data: %w", err)
		}
		attr.Flags |= types.AttrFlagRes
		attr.Resident = data
		return attr, nil
	}

	attr.Flags |= types.AttrFlagNonRes
	var offset uint64
	for _, r := range a.Runs {
		run := types.Run{Addr: r.Addr, Len: r.Len, Offset: offset}
		if r.Offset != nil {
			run.Offset = *r.Offset
		}
		if r.Sparse {
			run.Flags |= types.RunFlagSparse
		}
		if r.Filler {
			run.Flags |= types.RunFlagFiller
		}
		attr.Runs = append(attr.Runs, run)
		offset = run.Offset + run.Len
	}
	return attr, nil
}

func parseTimestamp(s string) (types.Timestamp, error) {
	if s == "" {
		return types.Timestamp{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return types.Timestamp{}, err
	}
	return types.FromTime(t), nil
}

func parseOptionalTimestamp(s string) (*types.Timestamp, error) {
	if s == "" {
		return nil, nil
	}
	ts, err := parseTimestamp(s)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}
