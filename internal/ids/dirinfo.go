package ids

import (
	"bytes"
	"encoding/hex"

	"github.com/deploymenttheory/go-fsrip/internal/types"
	"github.com/deploymenttheory/go-fsrip/internal/varint"
)

// EntryID identifies one directory-tree position.
// It is the varint-encoded tree level, the varint path of ancestor sibling
// indices and the entry's own sibling index, concatenated.
type EntryID []byte

// String returns the lowercase hex form used in emitted records
func (id EntryID) String() string {
	return hex.EncodeToString(id)
}

// RecordID returns the hex ID used in file records: the FILE tag byte
// followed by the entry ID. The root has no record and yields "".
func (id EntryID) RecordID() string {
	if len(id) == 0 {
		return ""
	}
	return hex.EncodeToString(id.WithTag(byte(types.RecordTypeFile)))
}

// Compare orders IDs byte-lexicographically
func (id EntryID) Compare(other EntryID) int {
	return bytes.Compare(id, other)
}

// WithTag returns a copy of id prefixed by a record type tag byte
func (id EntryID) WithTag(tag byte) []byte {
	out := make([]byte, 0, len(id)+1)
	out = append(out, tag)
	return append(out, id...)
}

// DirInfo is one open directory during a depth-first walk.
// The root frame has an empty path and an empty ID; its children sit at level 0.
type DirInfo struct {
	path  string
	level uint64
	bare  []byte // sibling indices of the ancestors, root excluded
	index uint64 // position within the parent
	count uint64
	root  bool
}

// NewRoot returns the synthetic root frame
func NewRoot() *DirInfo {
	return &DirInfo{root: true}
}

// Path returns the walker path whose entries are children of this directory
func (d *DirInfo) Path() string { return d.path }

// Level returns the tree level of the directory's own ID
func (d *DirInfo) Level() uint64 { return d.level }

// Count returns the number of children assigned so far
func (d *DirInfo) Count() uint64 { return d.count }

// IsRoot reports whether this is the synthetic root frame
func (d *DirInfo) IsRoot() bool { return d.root }

// IncCount counts one more child
func (d *DirInfo) IncCount() { d.count++ }

// ChildLevel returns the level assigned to children of this directory
func (d *DirInfo) ChildLevel() uint64 {
	if d.root {
		return 0
	}
	return d.level + 1
}

// childBare is the bare path every child ID carries between level and index
func (d *DirInfo) childBare() []byte {
	if d.root {
		return nil
	}
	return varint.Append(bytes.Clone(d.bare), d.index)
}

// ID returns the identifier this directory was given as its parent's child
func (d *DirInfo) ID() EntryID {
	if d.root {
		return EntryID{}
	}
	id := varint.Append(nil, d.level)
	id = append(id, d.bare...)
	return varint.Append(id, d.index)
}

// ChildPrefix returns the bytes shared by the IDs of every child of this directory
func (d *DirInfo) ChildPrefix() EntryID {
	prefix := varint.Append(nil, d.ChildLevel())
	return append(prefix, d.childBare()...)
}

// ChildID returns the ID of child i
func (d *DirInfo) ChildID(i uint64) EntryID {
	return varint.Append(d.ChildPrefix(), i)
}

// LastChild returns the ID of the most recently assigned child.
// With no children it is the directory's own ID, so the range never goes empty.
func (d *DirInfo) LastChild() EntryID {
	if d.count == 0 {
		return d.ID()
	}
	return d.ChildID(d.count - 1)
}

// NewChild opens a frame for the directory most recently counted as a child.
// Its index is the parent's count minus one, so its ID equals the ID the
// parent handed out when the directory itself was processed.
func (d *DirInfo) NewChild(path string) *DirInfo {
	var index uint64
	if d.count > 0 {
		index = d.count - 1
	}
	return &DirInfo{
		path:  path,
		level: d.ChildLevel(),
		bare:  d.childBare(),
		index: index,
	}
}

// PrefixEnd returns the smallest byte string greater than every string that
// starts with prefix, or nil when no such bound exists (all 0xff).
func PrefixEnd(prefix []byte) []byte {
	end := bytes.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] != 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
