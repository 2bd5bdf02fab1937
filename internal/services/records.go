package services

import (
	"encoding/hex"

	"github.com/deploymenttheory/go-fsrip/internal/types"
)

// FileRecord is the JSON object emitted for every entry
type FileRecord struct {
	ID     string `json:"id"`
	Parent string `json:"parent"`
	// Exclusive upper bound of the IDs of the entry's children, directories only
	Children string       `json:"children,omitempty"`
	FS       FsRecord     `json:"fs"`
	Path     string       `json:"path"`
	Name     *NameRecord  `json:"name,omitempty"`
	Meta     *MetaRecord  `json:"meta,omitempty"`
	Attrs    []AttrRecord `json:"attrs,omitempty"`
	// Synthetic entries stand in for unallocated space
	Synthetic bool `json:"synthetic,omitempty"`
}

// FsRecord identifies the filesystem of a record
type FsRecord struct {
	ByteOffset uint64 `json:"byteOffset"`
	BlockSize  uint64 `json:"blockSize"`
	FsID       string `json:"fsID"`
	PartName   string `json:"partName"`
	VolIndex   int    `json:"volIndex"`
}

// NameRecord mirrors the directory entry
type NameRecord struct {
	Flags     types.NameFlags `json:"flags"`
	MetaAddr  uint64          `json:"meta_addr"`
	MetaSeq   uint32          `json:"meta_seq"`
	Name      string          `json:"name"`
	ShortName string          `json:"shrt_name"`
	Type      types.NameType  `json:"type"`
	DirIndex  uint64          `json:"dirIndex"`
}

// MetaRecord mirrors the inode
type MetaRecord struct {
	Addr       uint64           `json:"addr"`
	Atime      types.Timestamp  `json:"atime"`
	ContentLen uint64           `json:"content_len"`
	Crtime     types.Timestamp  `json:"crtime"`
	Ctime      types.Timestamp  `json:"ctime"`
	Flags      types.MetaFlags  `json:"flags"`
	GID        uint32           `json:"gid"`
	Link       string           `json:"link,omitempty"`
	Dtime      *types.Timestamp `json:"dtime,omitempty"`
	BackupTime *types.Timestamp `json:"bkup_time,omitempty"`
	Mode       uint32           `json:"mode"`
	Mtime      types.Timestamp  `json:"mtime"`
	Nlink      uint32           `json:"nlink"`
	Seq        uint32           `json:"seq"`
	Size       int64            `json:"size"`
	Type       types.MetaType   `json:"type"`
	UID        uint32           `json:"uid"`
}

// AttrRecord mirrors one attribute
type AttrRecord struct {
	Flags        types.AttrFlags `json:"flags"`
	ID           uint16          `json:"id"`
	Name         string          `json:"name"`
	Size         int64           `json:"size"`
	Type         uint32          `json:"type"`
	ResidentSize int             `json:"rd_buf_size"`
	AllocSize    int64           `json:"nrd_allocsize"`
	CompSize     int64           `json:"nrd_compsize"`
	InitSize     int64           `json:"nrd_initsize"`
	SkipLen      uint32          `json:"nrd_skiplen"`
	Resident     string          `json:"rd_buf,omitempty"`
	Runs         []RunRecord     `json:"nrd_runs,omitempty"`
}

// RunRecord is one data run with the number of its bytes past the logical end
type RunRecord struct {
	Addr   uint64         `json:"addr"`
	Flags  types.RunFlags `json:"flags"`
	Len    uint64         `json:"len"`
	Offset uint64         `json:"offset"`
	Slack  uint64         `json:"slack"`
}

func newFsRecord(fs *types.Filesystem) FsRecord {
	return FsRecord{
		ByteOffset: fs.ByteOffset,
		BlockSize:  fs.BlockSize,
		FsID:       hex.EncodeToString(fs.FsID),
		PartName:   fs.VolumeName,
		VolIndex:   fs.VolumeIndex,
	}
}

func newNameRecord(n *types.Name, dirIndex uint64) *NameRecord {
	return &NameRecord{
		Flags:     n.Flags,
		MetaAddr:  n.MetaAddr,
		MetaSeq:   n.MetaSeq,
		Name:      n.Name,
		ShortName: n.ShortName,
		Type:      n.Type,
		DirIndex:  dirIndex,
	}
}

func newMetaRecord(m *types.Meta) *MetaRecord {
	return &MetaRecord{
		Addr:       m.Addr,
		Atime:      m.Atime,
		ContentLen: m.ContentLen,
		Crtime:     m.Crtime,
		Ctime:      m.Ctime,
		Flags:      m.Flags,
		GID:        m.GID,
		Link:       m.Link,
		Dtime:      m.Dtime,
		BackupTime: m.BackupTime,
		Mode:       m.Mode,
		Mtime:      m.Mtime,
		Nlink:      m.Nlink,
		Seq:        m.Seq,
		Size:       m.Size,
		Type:       m.Type,
		UID:        m.UID,
	}
}

// newAttrRecord copies a. Resident bytes are cut at the logical size.
func newAttrRecord(a *types.Attribute, blockSize uint64) AttrRecord {
	rec := AttrRecord{
		Flags:        a.Flags,
		ID:           a.ID,
		Name:         a.Name,
		Size:         a.Size,
		Type:         a.Type,
		ResidentSize: len(a.Resident),
		AllocSize:    a.AllocSize,
		CompSize:     a.CompSize,
		InitSize:     a.InitSize,
		SkipLen:      a.SkipLen,
	}
	if a.IsResident() && len(a.Resident) > 0 {
		n := len(a.Resident)
		if a.Size >= 0 && int64(n) > a.Size {
			n = int(a.Size)
		}
		rec.Resident = hex.EncodeToString(a.Resident[:n])
	}
	if a.IsNonResident() && len(a.Runs) > 0 {
		rec.Runs = make([]RunRecord, 0, len(a.Runs))
		for _, run := range a.Runs {
			_, slack := splitSlack(run, a.Size, blockSize)
			rec.Runs = append(rec.Runs, RunRecord{
				Addr:   run.Addr,
				Flags:  run.Flags,
				Len:    run.Len,
				Offset: run.Offset,
				Slack:  slack,
			})
		}
	}
	return rec
}

// splitSlack divides the bytes of run into the part inside the attribute's
// logical size and the slack past it
func splitSlack(run types.Run, logicalSize int64, blockSize uint64) (inside, slack uint64) {
	length := run.Len * blockSize
	start := run.Offset * blockSize
	size := uint64(max(logicalSize, 0))
	switch {
	case start >= size:
		return 0, length
	case size-start >= length:
		return length, 0
	default:
		inside = size - start
		return inside, length - inside
	}
}
